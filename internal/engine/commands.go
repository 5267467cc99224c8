package engine

import (
	"encoding/json"

	"github.com/inamate/rig/internal/document"
)

// DrawCommand tells a viewport how to place one item of the rig. Sprites
// come first in painter's order (back to front), then bones parents first
// for the skeleton overlay.
type DrawCommand struct {
	Op        string          `json:"op"` // "sprite" or "bone"
	Node      document.NodeID `json:"node"`
	Transform [6]float64      `json:"transform"` // [a, b, c, d, e, f] affine matrix
	Asset     string          `json:"asset,omitempty"`
	Length    float64         `json:"length,omitempty"`
}

// DrawCommands lists the visible rig in the pose of the current mode.
func (e *Engine) DrawCommands() []DrawCommand {
	pose := e.mode.Pose()
	var commands []DrawCommand

	for _, id := range e.tree.drawOrder {
		n := e.tree.nodes[id]
		if vis := n.Property(document.PropertyVisibility); vis != nil && !document.ValueToBool(vis.VisualValue(pose)) {
			continue
		}
		commands = append(commands, DrawCommand{
			Op:        "sprite",
			Node:      id,
			Transform: n.PosedGlobalTransform(pose).Affine(),
			Asset:     n.asset,
		})
	}

	e.tree.Walk(func(n *Node) bool {
		if n.kind == document.KindBone {
			commands = append(commands, DrawCommand{
				Op:        "bone",
				Node:      n.id,
				Transform: n.PosedGlobalTransform(pose).Affine(),
				Length:    n.Property(document.PropertyBoneLength).VisualValue(pose),
			})
		}
		return true
	})
	return commands
}

// DrawCommandsToJSON serializes draw commands to a JSON string.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HitTest returns the topmost bone whose segment passes within radius of
// the world point (x, y), or NoNode.
func (e *Engine) HitTest(x, y, radius float64) document.NodeID {
	p := Vector2{X: x, Y: y}
	hit := document.NoNode
	pose := e.mode.Pose()
	e.tree.Walk(func(n *Node) bool {
		if n.kind != document.KindBone {
			return true
		}
		m := n.PosedGlobalTransform(pose)
		length := n.Property(document.PropertyBoneLength).VisualValue(pose)
		a := m.TransformPoint(Vector2{})
		b := m.TransformPoint(Vector2{X: length})
		if distanceToSegment(p, a, b) <= radius {
			hit = n.id
		}
		return true
	})
	return hit
}

func distanceToSegment(p, a, b Vector2) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Sub(a).Length()
	}
	t := clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return p.Sub(a.Add(ab.Scale(t))).Length()
}
