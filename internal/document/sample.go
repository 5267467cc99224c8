package document

import (
	"math"

	"github.com/inamate/rig/internal/curve"
	"github.com/inamate/rig/internal/typeid"
)

// NewSampleDocument builds a small rigged character: a root bone with a torso
// and a two-segment arm, two sprites attached to it and a looping wave
// animation.
func NewSampleDocument(name string) Snapshot {
	const (
		root NodeID = iota + 1
		torso
		upperArm
		foreArm
		bodySprite
		armSprite
	)

	bone := func(id, parent NodeID, name string, x, y, angle, length float64) NodeSnapshot {
		return NodeSnapshot{
			ID:        id,
			Kind:      KindBone,
			Name:      name,
			Parent:    parent,
			Index:     -1,
			DrawIndex: -1,
			Properties: []PropertyState{
				{Type: PropertyTranslationX, Design: x},
				{Type: PropertyTranslationY, Design: y},
				{Type: PropertyRotationAngle, Design: angle},
				{Type: PropertyBoneLength, Design: length},
			},
			ScaleX: 1,
			ScaleY: 1,
		}
	}
	sprite := func(id, parent NodeID, name, asset string, x, y float64) NodeSnapshot {
		return NodeSnapshot{
			ID:        id,
			Kind:      KindSprite,
			Name:      name,
			Parent:    parent,
			Index:     -1,
			DrawIndex: -1,
			Properties: []PropertyState{
				{Type: PropertyTranslationX, Design: x},
				{Type: PropertyTranslationY, Design: y},
				{Type: PropertyRotationAngle},
				{Type: PropertyVisibility, Design: BoolToValue(true), Animate: BoolToValue(true)},
			},
			Asset:  asset,
			ScaleX: 1,
			ScaleY: 1,
		}
	}

	wave := Animation{
		ID:     typeid.NewAnimationID(),
		Name:   "wave",
		Length: 30,
		Tracks: []Track{
			{
				Node:     upperArm,
				Property: PropertyRotationAngle,
				Keys: []Keyframe{
					{Frame: 0, Value: 0, Easing: curve.EasingCurve(0.8)},
					{Frame: 15, Value: math.Pi / 4, Easing: curve.EasingCurve(0.2)},
					{Frame: 30, Value: 0, Easing: curve.Linear()},
				},
			},
			{
				Node:     foreArm,
				Property: PropertyRotationAngle,
				Keys: []Keyframe{
					{Frame: 0, Value: 0, Easing: curve.Linear()},
					{Frame: 15, Value: math.Pi / 6, Easing: curve.Linear()},
					{Frame: 30, Value: 0, Easing: curve.Linear()},
				},
			},
			{
				Node:     armSprite,
				Property: PropertyVisibility,
				Keys: []Keyframe{
					{Frame: 0, Value: BoolToValue(true), Easing: curve.Linear()},
					{Frame: 28, Value: BoolToValue(false), Easing: curve.Linear()},
				},
			},
		},
	}

	return Snapshot{
		ID:       typeid.NewDocumentID(),
		Metadata: DefaultMetadata(name),
		Nodes: []NodeSnapshot{
			bone(root, NoNode, "root", 640, 600, 0, 0),
			bone(torso, root, "torso", 0, -120, 0, 120),
			bone(upperArm, torso, "upper-arm", 20, -100, 0, 60),
			bone(foreArm, upperArm, "fore-arm", 60, 0, 0, 50),
			sprite(bodySprite, torso, "body", "body.png", 0, 0),
			sprite(armSprite, upperArm, "arm", "arm.png", 0, 0),
		},
		DrawOrder:  []NodeID{bodySprite, armSprite},
		Animations: []Animation{wave},
	}
}
