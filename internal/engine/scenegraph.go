package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/document"
)

var (
	// ErrCycle is raised when a node would become its own ancestor.
	ErrCycle = errors.New("node cannot be parented under itself or a descendant")
	// ErrNodeNotFound is returned for unknown node ids. Replaying history
	// against an unknown id panics with it.
	ErrNodeNotFound = errors.New("node not found")
)

// Node is a bone or sprite in the scene graph. Its local transform is the
// fold of its operators onto the identity matrix.
type Node struct {
	tree *Tree

	id       document.NodeID
	kind     document.NodeKind
	name     string
	parent   document.NodeID
	children []document.NodeID

	operators []Operator
	props     []*Property
	scale     *ScaleOperator
	asset     string
}

func (n *Node) ID() document.NodeID     { return n.id }
func (n *Node) Kind() document.NodeKind { return n.kind }
func (n *Node) Name() string            { return n.name }
func (n *Node) Parent() document.NodeID { return n.parent }
func (n *Node) Asset() string           { return n.asset }

// Children returns a copy of the child ids in order.
func (n *Node) Children() []document.NodeID {
	return slices.Clone(n.children)
}

// Operators returns the transform operators in application order.
func (n *Node) Operators() []Operator {
	return slices.Clone(n.operators)
}

// Property returns the property of type t, or nil if the node has none.
func (n *Node) Property(t document.PropertyType) *Property {
	for _, p := range n.props {
		if p.typ == t {
			return p
		}
	}
	return nil
}

// Properties returns the node's properties in declaration order.
func (n *Node) Properties() []*Property {
	return slices.Clone(n.props)
}

// Scale returns the fixed sprite scale. Bones report 1, 1.
func (n *Node) Scale() (x, y float64) {
	if n.scale == nil {
		return 1, 1
	}
	return n.scale.X, n.scale.Y
}

// LocalTransform folds the operators onto the identity matrix.
func (n *Node) LocalTransform(pose Pose) Matrix {
	m := Identity()
	for _, op := range n.operators {
		m = op.ApplyTo(m, pose)
	}
	return m
}

// GlobalTransform is the design pose world transform.
func (n *Node) GlobalTransform() Matrix {
	return n.PosedGlobalTransform(PoseDesign)
}

// PosedGlobalTransform is parentGlobal * local for the given pose.
func (n *Node) PosedGlobalTransform(pose Pose) Matrix {
	local := n.LocalTransform(pose)
	if n.parent == document.NoNode {
		return local
	}
	return n.tree.mustNode(n.parent).PosedGlobalTransform(pose).Multiply(local)
}

// Snapshot captures everything needed to recreate the node.
func (n *Node) Snapshot() document.NodeSnapshot {
	sx, sy := n.Scale()
	s := document.NodeSnapshot{
		ID:        n.id,
		Kind:      n.kind,
		Name:      n.name,
		Parent:    n.parent,
		Index:     n.tree.indexOf(n),
		DrawIndex: slices.Index(n.tree.drawOrder, n.id),
		Asset:     n.asset,
		ScaleX:    sx,
		ScaleY:    sy,
	}
	for _, p := range n.props {
		s.Properties = append(s.Properties, p.State())
	}
	return s
}

func (n *Node) transformProperties() []*Property {
	var out []*Property
	for _, p := range n.props {
		if p.typ.IsTransform() {
			out = append(out, p)
		}
	}
	return out
}

// Tree is the id-indexed arena of nodes. Nodes refer to each other by id
// only. Draw order lists sprites back to front.
type Tree struct {
	nodes     map[document.NodeID]*Node
	roots     []document.NodeID
	drawOrder []document.NodeID

	bus    *bus.Bus
	logger *slog.Logger
}

func newTree(b *bus.Bus, logger *slog.Logger) *Tree {
	return &Tree{
		nodes:  make(map[document.NodeID]*Node),
		bus:    b,
		logger: logger,
	}
}

// Node looks up a node by id.
func (t *Tree) Node(id document.NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

func (t *Tree) Len() int { return len(t.nodes) }

// Roots returns the top-level node ids in order.
func (t *Tree) Roots() []document.NodeID {
	return slices.Clone(t.roots)
}

// DrawOrder returns the sprite ids back to front.
func (t *Tree) DrawOrder() []document.NodeID {
	return slices.Clone(t.drawOrder)
}

// Walk visits every node parents first, in child order. Returning false from
// fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node) bool) {
	var visit func(ids []document.NodeID)
	visit = func(ids []document.NodeID) {
		for _, id := range ids {
			n := t.nodes[id]
			if fn(n) {
				visit(n.children)
			}
		}
	}
	visit(t.roots)
}

// Subtree lists id and its descendants parents first.
func (t *Tree) Subtree(id document.NodeID) []document.NodeID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := []document.NodeID{id}
	for _, c := range n.children {
		out = append(out, t.Subtree(c)...)
	}
	return out
}

func (t *Tree) mustNode(id document.NodeID) *Node {
	n, ok := t.nodes[id]
	if !ok {
		panic(fmt.Errorf("node %d: %w", id, ErrNodeNotFound))
	}
	return n
}

// insert creates a node from a snapshot. Properties missing from the
// snapshot start at their default design value.
func (t *Tree) insert(s document.NodeSnapshot) *Node {
	if _, exists := t.nodes[s.ID]; exists {
		panic(fmt.Errorf("insert node %d: id already in use", s.ID))
	}
	if s.Parent != document.NoNode {
		t.mustNode(s.Parent)
	}

	n := &Node{
		tree:   t,
		id:     s.ID,
		kind:   s.Kind,
		name:   s.Name,
		parent: s.Parent,
		asset:  s.Asset,
	}
	for _, typ := range document.PropertyTypesFor(s.Kind) {
		state, ok := s.Property(typ)
		if !ok {
			state = document.PropertyState{Type: typ, Design: typ.DefaultDesignValue()}
			if !typ.IsIncremental() {
				state.Animate = state.Design
			}
		}
		n.props = append(n.props, newProperty(n, state))
	}

	n.operators = []Operator{
		&TranslateOperator{X: n.Property(document.PropertyTranslationX), Y: n.Property(document.PropertyTranslationY)},
		&RotateOperator{Angle: n.Property(document.PropertyRotationAngle)},
	}
	if s.Kind == document.KindSprite {
		sx, sy := s.ScaleX, s.ScaleY
		if sx == 0 && sy == 0 {
			sx, sy = 1, 1
		}
		n.scale = &ScaleOperator{X: sx, Y: sy}
		n.operators = append(n.operators, n.scale)
		t.drawOrder = insertAt(t.drawOrder, s.DrawIndex, s.ID)
	}

	t.nodes[s.ID] = n
	t.attach(n, s.Index)
	return n
}

// remove deletes a childless node.
func (t *Tree) remove(id document.NodeID) *Node {
	n := t.mustNode(id)
	if len(n.children) > 0 {
		panic(fmt.Errorf("remove node %d: still has %d children", id, len(n.children)))
	}
	t.detach(n)
	t.drawOrder = slices.DeleteFunc(t.drawOrder, func(d document.NodeID) bool { return d == id })
	delete(t.nodes, id)
	return n
}

// setParent moves a node under parent keeping its committed design world
// transform; pushed previews are not baked in. The corrected local transform is inverse(parentGlobal) * global,
// decomposed back into the node's operators. A singular parent transform
// leaves the local transform as it is.
func (t *Tree) setParent(id, parent document.NodeID, index int) {
	n := t.mustNode(id)
	if parent == n.parent {
		if index >= 0 && index != t.indexOf(n) {
			t.detach(n)
			t.attach(n, index)
			t.bus.Publish(bus.NodeParentChanged{Node: id, Parent: parent})
		}
		return
	}
	if parent == id || t.isDescendant(parent, id) {
		panic(fmt.Errorf("set parent of %d to %d: %w", id, parent, ErrCycle))
	}

	global := n.PosedGlobalTransform(poseCommitted)
	local, correct := global, true
	if parent != document.NoNode {
		inv, ok := t.mustNode(parent).PosedGlobalTransform(poseCommitted).Inverse()
		if ok {
			local = inv.Multiply(global)
		} else {
			correct = false
			t.logger.Debug("singular parent transform, keeping local transform", "node", id, "parent", parent)
		}
	}
	if correct {
		for _, op := range n.operators {
			op.UpdateFromMatrix(local)
		}
	}

	t.detach(n)
	n.parent = parent
	t.attach(n, index)

	t.bus.Publish(bus.NodeParentChanged{Node: id, Parent: parent})
	for _, p := range n.transformProperties() {
		t.bus.Publish(bus.NodePropertyValueChanged{Node: id, Property: p.typ})
	}
	t.transformChanged(n, false)
}

// place moves a node and restores property states verbatim.
func (t *Tree) place(id, parent document.NodeID, index int, props []document.PropertyState) {
	n := t.mustNode(id)
	if parent != document.NoNode {
		t.mustNode(parent)
	}
	t.detach(n)
	n.parent = parent
	t.attach(n, index)
	for _, s := range props {
		if p := n.Property(s.Type); p != nil {
			p.restore(s)
		}
	}

	t.bus.Publish(bus.NodeParentChanged{Node: id, Parent: parent})
	for _, s := range props {
		t.bus.Publish(bus.NodePropertyValueChanged{Node: id, Property: s.Type})
	}
	t.transformChanged(n, false)
}

// setDrawOrder moves a sprite to index in the draw order.
func (t *Tree) setDrawOrder(id document.NodeID, index int) {
	i := slices.Index(t.drawOrder, id)
	if i < 0 {
		panic(fmt.Errorf("draw order of %d: %w", id, ErrNodeNotFound))
	}
	t.drawOrder = slices.Delete(t.drawOrder, i, i+1)
	t.drawOrder = insertAt(t.drawOrder, index, id)
	t.bus.Publish(bus.DrawOrderChanged{Node: id})
}

// transformChanged notifies that n and every descendant moved.
func (t *Tree) transformChanged(n *Node, bulk bool) {
	t.bus.Publish(bus.NodeTransformChanged{Node: n.id, BulkUpdate: bulk})
	for _, c := range n.children {
		t.transformChanged(t.nodes[c], bulk)
	}
}

// isDescendant reports whether id lies below ancestor.
func (t *Tree) isDescendant(id, ancestor document.NodeID) bool {
	for id != document.NoNode {
		n, ok := t.nodes[id]
		if !ok {
			return false
		}
		if n.parent == ancestor {
			return true
		}
		id = n.parent
	}
	return false
}

func (t *Tree) siblings(parent document.NodeID) *[]document.NodeID {
	if parent == document.NoNode {
		return &t.roots
	}
	return &t.mustNode(parent).children
}

func (t *Tree) attach(n *Node, index int) {
	list := t.siblings(n.parent)
	*list = insertAt(*list, index, n.id)
}

func (t *Tree) detach(n *Node) {
	list := t.siblings(n.parent)
	*list = slices.DeleteFunc(*list, func(id document.NodeID) bool { return id == n.id })
}

func (t *Tree) indexOf(n *Node) int {
	return slices.Index(*t.siblings(n.parent), n.id)
}

// insertAt inserts id at index, appending when index is out of range.
func insertAt(list []document.NodeID, index int, id document.NodeID) []document.NodeID {
	if index < 0 || index > len(list) {
		return append(list, id)
	}
	return slices.Insert(list, index, id)
}
