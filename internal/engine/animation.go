package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/rig/internal/document"
	"github.com/inamate/rig/internal/history"
	"github.com/inamate/rig/internal/typeid"
)

var ErrFrameOutOfRange = errors.New("frame out of range")

// Animations returns copies of the document's animations in order.
func (e *Engine) Animations() []document.Animation {
	out := make([]document.Animation, 0, len(e.animations))
	for _, a := range e.animations {
		out = append(out, a.Clone())
	}
	return out
}

// Animation returns a copy of one animation.
func (e *Engine) Animation(id string) (document.Animation, error) {
	i := e.animationIndex(id)
	if i < 0 {
		return document.Animation{}, fmt.Errorf("animation %q: %w", id, ErrAnimationNotFound)
	}
	return e.animations[i].Clone(), nil
}

func (e *Engine) animationIndex(id string) int {
	return slices.IndexFunc(e.animations, func(a document.Animation) bool { return a.ID == id })
}

// AddAnimation appends an empty animation of length frames.
func (e *Engine) AddAnimation(name string, length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("animation length %d: %w", length, ErrFrameOutOfRange)
	}
	a := document.Animation{ID: typeid.NewAnimationID(), Name: name, Length: length}
	e.history.Do("add animation", func(u *history.UnitOfWork) {
		u.Execute(history.AnimationAdded{Animation: a, Index: len(e.animations)})
	})
	return a.ID, nil
}

func (e *Engine) RemoveAnimation(id string) error {
	i := e.animationIndex(id)
	if i < 0 {
		return fmt.Errorf("animation %q: %w", id, ErrAnimationNotFound)
	}
	a := e.animations[i].Clone()
	e.history.Do("remove animation "+a.Name, func(u *history.UnitOfWork) {
		u.Execute(history.AnimationRemoved{Animation: a, Index: i})
	})
	return nil
}

func (e *Engine) RenameAnimation(id, name string) error {
	i := e.animationIndex(id)
	if i < 0 {
		return fmt.Errorf("animation %q: %w", id, ErrAnimationNotFound)
	}
	prev := e.animations[i].Name
	if prev == name {
		return nil
	}
	e.history.Do("rename animation "+prev, func(u *history.UnitOfWork) {
		u.Execute(history.AnimationRenamed{Animation: id, Name: name, Previous: prev})
	})
	return nil
}

// SetKeyframe inserts or replaces the key at kf.Frame on a node property.
func (e *Engine) SetKeyframe(animation string, node document.NodeID, prop document.PropertyType, kf document.Keyframe) error {
	a, err := e.keyTarget(animation, node, prop, kf.Frame)
	if err != nil {
		return err
	}
	var prev *document.Keyframe
	if tr := a.Track(node, prop); tr != nil {
		if k, ok := tr.Key(kf.Frame); ok {
			if k == kf {
				return nil
			}
			prev = &k
		}
	}
	e.history.Do("set key", func(u *history.UnitOfWork) {
		u.Execute(history.KeyframeSet{Animation: animation, Node: node, Property: prop, Keyframe: kf, Previous: prev})
	})
	return nil
}

// RemoveKeyframe deletes the key at frame. Removing a missing key is a no-op.
func (e *Engine) RemoveKeyframe(animation string, node document.NodeID, prop document.PropertyType, frame int) error {
	a, err := e.keyTarget(animation, node, prop, frame)
	if err != nil {
		return err
	}
	tr := a.Track(node, prop)
	if tr == nil {
		return nil
	}
	k, ok := tr.Key(frame)
	if !ok {
		return nil
	}
	e.history.Do("remove key", func(u *history.UnitOfWork) {
		u.Execute(history.KeyframeRemoved{Animation: animation, Node: node, Property: prop, Previous: k})
	})
	return nil
}

func (e *Engine) keyTarget(animation string, node document.NodeID, prop document.PropertyType, frame int) (*document.Animation, error) {
	i := e.animationIndex(animation)
	if i < 0 {
		return nil, fmt.Errorf("animation %q: %w", animation, ErrAnimationNotFound)
	}
	if _, err := e.Property(node, prop); err != nil {
		return nil, err
	}
	a := &e.animations[i]
	if frame < 0 || frame > a.Length {
		return nil, fmt.Errorf("frame %d of %q (length %d): %w", frame, a.Name, a.Length, ErrFrameOutOfRange)
	}
	return a, nil
}
