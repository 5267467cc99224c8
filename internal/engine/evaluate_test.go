package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/curve"
	"github.com/inamate/rig/internal/document"
)

func sampledValue(t *testing.T, values []SampledValue, node document.NodeID, prop document.PropertyType) float64 {
	t.Helper()
	for _, v := range values {
		if v.Node == node && v.Property == prop {
			return v.Value
		}
	}
	t.Fatalf("no sample for %d/%s", node, prop)
	return 0
}

func TestSampleTrack(t *testing.T) {
	s := newSampler(1e-6)
	tr := document.Track{
		Node:     1,
		Property: document.PropertyTranslationX,
		Keys: []document.Keyframe{
			{Frame: 10, Value: 0, Easing: curve.Linear()},
			{Frame: 20, Value: 10, Easing: curve.EasingCurve(0.9)},
			{Frame: 30, Value: 20},
		},
	}

	tests := []struct {
		name  string
		frame float64
		want  float64
	}{
		{"before first key holds", 0, 0},
		{"on key", 20, 10},
		{"linear midpoint", 15, 5},
		{"after last key holds", 40, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.track(tr, tt.frame)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-4 {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}

	// An ease-in key starts slower than linear.
	v, err := s.track(tr, 25)
	if err != nil {
		t.Fatal(err)
	}
	if v >= 15 {
		t.Errorf("eased value = %v, want below the linear 15", v)
	}
}

func TestSolverCacheIsBounded(t *testing.T) {
	s := newSampler(curve.DefaultSolverTolerance)
	for i := range maxCachedSolvers + 10 {
		s.solver(curve.EasingCurve(float64(i) / (maxCachedSolvers + 10)))
	}
	if n := s.cached(); n > maxCachedSolvers {
		t.Errorf("cached solvers = %d, want at most %d", n, maxCachedSolvers)
	}

	e, _ := newSampleEngine(t)
	anim := sampleAnimation(t, e)
	if _, err := e.Sample(anim.ID, 5); err != nil {
		t.Fatal(err)
	}
	if e.sampler.cached() == 0 {
		t.Fatal("sampling cached no solvers")
	}
	e.LoadSampleDocument("again")
	if n := e.sampler.cached(); n != 0 {
		t.Errorf("cached solvers after load = %d, want 0", n)
	}
}

func TestSampleBoolTrackSteps(t *testing.T) {
	s := newSampler(curve.DefaultSolverTolerance)
	tr := document.Track{
		Node:     1,
		Property: document.PropertyVisibility,
		Keys: []document.Keyframe{
			{Frame: 0, Value: 1, Easing: curve.Linear()},
			{Frame: 10, Value: 0, Easing: curve.Linear()},
		},
	}
	if v, _ := s.track(tr, 9.5); v != 1 {
		t.Errorf("value before switch = %v, want 1", v)
	}
	if v, _ := s.track(tr, 10); v != 0 {
		t.Errorf("value at switch = %v, want 0", v)
	}
}

func TestSampleAnimation(t *testing.T) {
	e, _ := newSampleEngine(t)
	anim := sampleAnimation(t, e)

	values, err := e.Sample(anim.ID, 7.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != len(anim.Tracks) {
		t.Fatalf("samples = %d, want %d", len(values), len(anim.Tracks))
	}
	if v := sampledValue(t, values, 4, document.PropertyRotationAngle); math.Abs(v-math.Pi/12) > 1e-6 {
		t.Errorf("fore-arm = %v, want %v", v, math.Pi/12)
	}
	if _, err := e.Sample("anim_missing", 0); !errors.Is(err, ErrAnimationNotFound) {
		t.Errorf("missing animation: %v", err)
	}
}

func TestSetPlayheadPreviewsWithoutHistory(t *testing.T) {
	e, c := newSampleEngine(t)
	anim := sampleAnimation(t, e)

	if err := e.SetPlayhead(anim.ID, 15); err != nil {
		t.Fatal(err)
	}
	p, _ := e.Property(3, document.PropertyRotationAngle)
	assertNear(t, "animate visual", p.AnimateVisualValue(), math.Pi/4)
	assertNear(t, "increment", p.AnimateIncrement(), 0)
	assertNear(t, "design visual", p.DesignVisualValue(), 0)

	if e.CanUndo() || e.Dirty() {
		t.Error("playhead entered history")
	}
	if n := c.count(bus.TopicBulkUpdateFinished); n != 1 {
		t.Errorf("bulk finished = %d, want 1", n)
	}
	for _, m := range c.msgs {
		if pv, ok := m.(bus.NodePropertyValueChanged); ok && !pv.BulkUpdate {
			t.Errorf("playhead notification not bulk: %+v", pv)
		}
	}
}

func TestBake(t *testing.T) {
	e, _ := newSampleEngine(t)
	anim := sampleAnimation(t, e)

	baked, err := e.Bake(context.Background(), anim.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(baked.Tracks) != len(anim.Tracks) {
		t.Fatalf("tracks = %d, want %d", len(baked.Tracks), len(anim.Tracks))
	}
	for _, tr := range baked.Tracks {
		if len(tr.Values) != anim.Length*2+1 {
			t.Fatalf("track %d/%s has %d values", tr.Node, tr.Property, len(tr.Values))
		}
		want, _ := e.Sample(anim.ID, 15)
		if got := tr.Values[30]; got != sampledValue(t, want, tr.Node, tr.Property) {
			t.Errorf("track %d/%s at frame 15 = %v", tr.Node, tr.Property, got)
		}
	}

	if _, err := e.Bake(context.Background(), anim.ID, 0); err == nil {
		t.Error("zero samples per frame accepted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Bake(ctx, anim.ID, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled bake: %v", err)
	}
}

func TestDrawCommands(t *testing.T) {
	e, _ := newSampleEngine(t)
	anim := sampleAnimation(t, e)

	cmds := e.DrawCommands()
	if len(cmds) != 6 {
		t.Fatalf("commands = %d, want 6", len(cmds))
	}
	if cmds[0].Op != "sprite" || cmds[0].Node != 5 || cmds[1].Node != 6 {
		t.Errorf("sprites out of draw order: %+v", cmds[:2])
	}
	if cmds[2].Op != "bone" || cmds[2].Node != 1 {
		t.Errorf("first bone = %+v", cmds[2])
	}

	e.SetMode(ModeAnimate)
	if err := e.SetPlayhead(anim.ID, 29); err != nil {
		t.Fatal(err)
	}
	if got := e.DrawCommands(); len(got) != 5 {
		t.Errorf("hidden sprite still drawn: %d commands", len(got))
	}

	s, err := DrawCommandsToJSON(cmds)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []DrawCommand
	if err := json.Unmarshal([]byte(s), &decoded); err != nil || len(decoded) != 6 {
		t.Errorf("json = %s, err = %v", s, err)
	}
}

func TestHitTest(t *testing.T) {
	e, _ := newSampleEngine(t)
	if id := e.HitTest(700, 481, 2); id != 2 {
		t.Errorf("hit = %d, want torso", id)
	}
	if id := e.HitTest(0, 0, 1); id != document.NoNode {
		t.Errorf("hit = %d, want none", id)
	}
}
