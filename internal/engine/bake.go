package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/inamate/rig/internal/document"
)

// BakedTrack holds one sampled value per step, starting at frame 0.
type BakedTrack struct {
	Node     document.NodeID       `json:"node"`
	Property document.PropertyType `json:"property"`
	Values   []float64             `json:"values"`
}

// Baked is an animation sampled at a fixed rate.
type Baked struct {
	Animation       string       `json:"animation"`
	Length          int          `json:"length"`
	SamplesPerFrame int          `json:"samplesPerFrame"`
	Tracks          []BakedTrack `json:"tracks"`
}

// Bake samples every track of an animation samplesPerFrame times per frame,
// from frame 0 to its length inclusive. Tracks are sampled in parallel on a
// copy of the animation, so the engine may be used again once Bake returns.
func (e *Engine) Bake(ctx context.Context, animation string, samplesPerFrame int) (Baked, error) {
	if samplesPerFrame < 1 {
		return Baked{}, fmt.Errorf("bake %q: samples per frame must be positive, got %d", animation, samplesPerFrame)
	}
	a, err := e.Animation(animation)
	if err != nil {
		return Baked{}, err
	}

	steps := a.Length*samplesPerFrame + 1
	out := Baked{
		Animation:       a.ID,
		Length:          a.Length,
		SamplesPerFrame: samplesPerFrame,
		Tracks:          make([]BakedTrack, len(a.Tracks)),
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, tr := range a.Tracks {
		g.Go(func() error {
			values := make([]float64, steps)
			for s := range steps {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := e.sampler.track(tr, float64(s)/float64(samplesPerFrame))
				if err != nil {
					return err
				}
				values[s] = v
			}
			out.Tracks[i] = BakedTrack{Node: tr.Node, Property: tr.Property, Values: values}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Baked{}, fmt.Errorf("bake %q: %w", a.Name, err)
	}

	e.logger.Debug("baked animation", "animation", a.ID, "tracks", len(out.Tracks), "steps", steps)
	return out, nil
}
