package engine

import (
	"fmt"
	"sync"

	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/curve"
	"github.com/inamate/rig/internal/document"
)

// SampledValue is the animate value of one node property at a frame.
type SampledValue struct {
	Node     document.NodeID       `json:"node"`
	Property document.PropertyType `json:"property"`
	Value    float64               `json:"value"`
}

// maxCachedSolvers bounds the solver cache. Curves come from clients, so the
// set of distinct keys is open-ended.
const maxCachedSolvers = 256

// sampler evaluates tracks, reusing one solver per easing curve.
type sampler struct {
	tolerance float64

	mu      sync.Mutex
	solvers map[curve.Bezier]*curve.Solver
}

func newSampler(tolerance float64) *sampler {
	return &sampler{tolerance: tolerance, solvers: make(map[curve.Bezier]*curve.Solver)}
}

func (s *sampler) solver(b curve.Bezier) *curve.Solver {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.solvers[b]
	if !ok {
		if len(s.solvers) >= maxCachedSolvers {
			clear(s.solvers)
		}
		sv = curve.NewSolverWithTolerance(b, s.tolerance)
		s.solvers[b] = sv
	}
	return sv
}

// reset drops every cached solver.
func (s *sampler) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.solvers)
}

func (s *sampler) cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.solvers)
}

// track evaluates tr at frame. Before the first key and after the last one
// the nearest key holds. Boolean properties step at each key; the rest are
// interpolated along the easing curve of the key they leave.
func (s *sampler) track(tr document.Track, frame float64) (float64, error) {
	keys := tr.Keys
	if len(keys) == 0 {
		return 0, fmt.Errorf("sample %d/%s: empty track", tr.Node, tr.Property)
	}

	// Find surrounding keyframes
	var prev, next *document.Keyframe
	for i := range keys {
		if float64(keys[i].Frame) <= frame {
			prev = &keys[i]
		}
		if float64(keys[i].Frame) >= frame && next == nil {
			next = &keys[i]
		}
	}

	switch {
	case prev == nil:
		return next.Value, nil
	case next == nil:
		return prev.Value, nil
	case prev.Frame == next.Frame, tr.Property.IsBool():
		return prev.Value, nil
	}

	t := (frame - float64(prev.Frame)) / float64(next.Frame-prev.Frame)
	eased, err := s.solver(prev.Easing).SolveYAtX(t)
	if err != nil {
		return 0, fmt.Errorf("sample %d/%s at %v: %w", tr.Node, tr.Property, frame, err)
	}
	return prev.Value + (next.Value-prev.Value)*eased, nil
}

// Sample evaluates every track of an animation at frame. Fractional frames
// are allowed.
func (e *Engine) Sample(animation string, frame float64) ([]SampledValue, error) {
	i := e.animationIndex(animation)
	if i < 0 {
		return nil, fmt.Errorf("animation %q: %w", animation, ErrAnimationNotFound)
	}
	a := &e.animations[i]
	out := make([]SampledValue, 0, len(a.Tracks))
	for _, tr := range a.Tracks {
		v, err := e.sampler.track(tr, frame)
		if err != nil {
			return nil, err
		}
		out = append(out, SampledValue{Node: tr.Node, Property: tr.Property, Value: v})
	}
	return out, nil
}

// SetPlayhead shows an animation at frame by pushing the sampled values as
// animate visual values. Nothing is recorded in history. Notifications are
// flagged bulk and closed by a single BulkUpdateFinished.
func (e *Engine) SetPlayhead(animation string, frame float64) error {
	values, err := e.Sample(animation, frame)
	if err != nil {
		return err
	}
	for _, v := range values {
		n, ok := e.tree.Node(v.Node)
		if !ok {
			continue
		}
		if p := n.Property(v.Property); p != nil {
			p.pushVisual(PoseAnimate, v.Value, true)
		}
	}
	e.bus.Publish(bus.BulkUpdateFinished{})
	return nil
}
