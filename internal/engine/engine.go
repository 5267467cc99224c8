package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/curve"
	"github.com/inamate/rig/internal/document"
	"github.com/inamate/rig/internal/history"
	"github.com/inamate/rig/internal/typeid"
)

var (
	ErrAnimationNotFound = errors.New("animation not found")
	ErrInvalidParent     = errors.New("invalid parent")
	ErrUnknownProperty   = errors.New("unknown property")
	ErrInvalidDocument   = errors.New("invalid document")
	ErrNotSprite         = errors.New("node is not a sprite")
)

// Mode is the editor mode. Design mode edits the rest pose, animate mode
// edits animate values and shows the animated pose.
type Mode string

const (
	ModeDesign  Mode = "design"
	ModeAnimate Mode = "animate"
)

// Pose is the pose transforms are shown in for this mode.
func (m Mode) Pose() Pose {
	if m == ModeAnimate {
		return PoseAnimate
	}
	return PoseDesign
}

type Options struct {
	Logger *slog.Logger
	// SolverTolerance is the Newton-Raphson tolerance used when sampling
	// eased keyframes. Zero uses curve.DefaultSolverTolerance.
	SolverTolerance float64
}

// Engine owns one document: the scene graph, animations, metadata and the
// edit history. Every mutation goes through a unit of work so it can be
// undone. An Engine is not safe for concurrent use.
type Engine struct {
	bus     *bus.Bus
	logger  *slog.Logger
	history *history.History
	tree    *Tree

	id          string
	meta        document.Metadata
	assetFolder string
	animations  []document.Animation
	nextID      document.NodeID

	dirty   bool
	mode    Mode
	sampler *sampler
}

// NewEngine creates an engine holding an empty, untitled document.
func NewEngine(b *bus.Bus, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tol := opts.SolverTolerance
	if tol <= 0 {
		tol = curve.DefaultSolverTolerance
	}
	e := &Engine{
		bus:     b,
		logger:  logger,
		tree:    newTree(b, logger),
		id:      typeid.NewDocumentID(),
		meta:    document.DefaultMetadata("untitled"),
		nextID:  1,
		mode:    ModeDesign,
		sampler: newSampler(tol),
	}
	e.history = history.New(e.editable(), b, logger)
	return e
}

func (e *Engine) editable() history.EditableDocument {
	return editableDocument{e: e}
}

func (e *Engine) Bus() *bus.Bus       { return e.bus }
func (e *Engine) Tree() *Tree         { return e.tree }
func (e *Engine) ID() string          { return e.id }
func (e *Engine) Mode() Mode          { return e.mode }
func (e *Engine) Dirty() bool         { return e.dirty }
func (e *Engine) AssetFolder() string { return e.assetFolder }

func (e *Engine) Metadata() document.Metadata { return e.meta }

// --- History ---

// StartUnitOfWork opens a unit of work for edits made directly on
// properties, e.g. a drag that is committed on release.
func (e *Engine) StartUnitOfWork(label string) *history.UnitOfWork {
	return e.history.StartUnitOfWork(label)
}

func (e *Engine) StartBulkUnitOfWork(label string) *history.UnitOfWork {
	return e.history.StartBulkUnitOfWork(label)
}

func (e *Engine) Undo()                        { e.history.Undo() }
func (e *Engine) Redo()                        { e.history.Redo() }
func (e *Engine) CanUndo() bool                { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool                { return e.history.CanRedo() }
func (e *Engine) JumpToVersion(v int64)        { e.history.JumpToVersion(v) }
func (e *Engine) CurrentVersion() int64        { return e.history.CurrentVersion() }
func (e *Engine) UndoEntries() []history.Entry { return e.history.UndoEntries() }
func (e *Engine) RedoEntries() []history.Entry { return e.history.RedoEntries() }

// --- Nodes ---

// Node looks up a node by id.
func (e *Engine) Node(id document.NodeID) (*Node, error) {
	n, ok := e.tree.Node(id)
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	return n, nil
}

// Property looks up a node property.
func (e *Engine) Property(id document.NodeID, t document.PropertyType) (*Property, error) {
	n, err := e.Node(id)
	if err != nil {
		return nil, err
	}
	p := n.Property(t)
	if p == nil {
		return nil, fmt.Errorf("%s on %s %d: %w", t, n.kind, id, ErrUnknownProperty)
	}
	return p, nil
}

// GlobalTransform returns the world transform of a node in the pose of the
// current mode.
func (e *Engine) GlobalTransform(id document.NodeID) (Matrix, error) {
	n, err := e.Node(id)
	if err != nil {
		return Matrix{}, err
	}
	return n.PosedGlobalTransform(e.mode.Pose()), nil
}

// AddBone creates a bone under parent, or at the top level for NoNode.
func (e *Engine) AddBone(parent document.NodeID, name string) (document.NodeID, error) {
	return e.addNode(document.KindBone, parent, name, "")
}

// AddSprite creates a sprite showing asset, placed on top of the draw order.
func (e *Engine) AddSprite(parent document.NodeID, name, asset string) (document.NodeID, error) {
	return e.addNode(document.KindSprite, parent, name, asset)
}

func (e *Engine) addNode(kind document.NodeKind, parent document.NodeID, name, asset string) (document.NodeID, error) {
	if err := e.checkParent(parent); err != nil {
		return document.NoNode, err
	}
	s := document.NodeSnapshot{
		ID:        e.nextID,
		Kind:      kind,
		Name:      name,
		Parent:    parent,
		Index:     -1,
		DrawIndex: -1,
		Asset:     asset,
		ScaleX:    1,
		ScaleY:    1,
	}
	for _, t := range document.PropertyTypesFor(kind) {
		ps := document.PropertyState{Type: t, Design: t.DefaultDesignValue()}
		if !t.IsIncremental() {
			ps.Animate = ps.Design
		}
		s.Properties = append(s.Properties, ps)
	}
	e.history.Do("add "+string(kind), func(u *history.UnitOfWork) {
		u.Execute(history.NodeAdded{Node: s})
	})
	return s.ID, nil
}

// checkParent accepts NoNode or an existing bone.
func (e *Engine) checkParent(parent document.NodeID) error {
	if parent == document.NoNode {
		return nil
	}
	p, err := e.Node(parent)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParent, err)
	}
	if p.kind != document.KindBone {
		return fmt.Errorf("%w: %s %d cannot have children", ErrInvalidParent, p.kind, parent)
	}
	return nil
}

// RemoveNode deletes a node with its whole subtree and every keyframe
// targeting those nodes, as one undoable step.
func (e *Engine) RemoveNode(id document.NodeID) error {
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	ids := e.tree.Subtree(id)

	var keys []history.Event
	for _, a := range e.animations {
		for _, tr := range a.Tracks {
			if !slices.Contains(ids, tr.Node) {
				continue
			}
			for _, k := range tr.Keys {
				keys = append(keys, history.KeyframeRemoved{Animation: a.ID, Node: tr.Node, Property: tr.Property, Previous: k})
			}
		}
	}

	e.history.Do("remove "+n.name, func(u *history.UnitOfWork) {
		for _, ev := range keys {
			u.Execute(ev)
		}
		// Children go before their parents.
		for i := len(ids) - 1; i >= 0; i-- {
			node := e.tree.mustNode(ids[i])
			u.Execute(history.NodeRemoved{Node: node.Snapshot()})
		}
	})
	return nil
}

// MoveNode reparents a node, keeping where it appears in the world. index is
// the position among the new siblings, -1 appends.
func (e *Engine) MoveNode(id, parent document.NodeID, index int) error {
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	if err := e.checkParent(parent); err != nil {
		return err
	}
	if parent == id || e.tree.isDescendant(parent, id) {
		return fmt.Errorf("%w: %w", ErrInvalidParent, ErrCycle)
	}
	current := e.tree.indexOf(n)
	if parent == n.parent && (index < 0 || index == current) {
		return nil
	}

	var prev []document.PropertyState
	for _, p := range n.transformProperties() {
		prev = append(prev, p.State())
	}
	e.history.Do("move "+n.name, func(u *history.UnitOfWork) {
		u.Execute(history.NodeChangedParent{
			Node:               id,
			Parent:             parent,
			Index:              index,
			PreviousParent:     n.parent,
			PreviousIndex:      current,
			PreviousProperties: prev,
		})
	})
	return nil
}

func (e *Engine) RenameNode(id document.NodeID, name string) error {
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	if n.name == name {
		return nil
	}
	e.history.Do("rename "+n.name, func(u *history.UnitOfWork) {
		u.Execute(history.NodeRenamed{Node: id, Name: name, Previous: n.name})
	})
	return nil
}

// SetDrawOrder moves a sprite to index in the back-to-front draw order.
func (e *Engine) SetDrawOrder(id document.NodeID, index int) error {
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	if n.kind != document.KindSprite {
		return fmt.Errorf("draw order of %s %d: %w", n.kind, id, ErrNotSprite)
	}
	current := slices.Index(e.tree.drawOrder, id)
	if index < 0 || index >= len(e.tree.drawOrder) {
		index = len(e.tree.drawOrder) - 1
	}
	if index == current {
		return nil
	}
	e.history.Do("draw order", func(u *history.UnitOfWork) {
		u.Execute(history.DrawOrderChanged{Node: id, Index: index, PreviousIndex: current})
	})
	return nil
}

// SetDesignValue sets a property design value in its own unit of work.
func (e *Engine) SetDesignValue(id document.NodeID, t document.PropertyType, v float64) error {
	p, err := e.Property(id, t)
	if err != nil {
		return err
	}
	e.history.Do("set "+string(t), func(u *history.UnitOfWork) {
		p.SetDesignValue(u, v)
	})
	return nil
}

// SetAnimateValue sets the net animate value of a property in its own unit
// of work.
func (e *Engine) SetAnimateValue(id document.NodeID, t document.PropertyType, net float64) error {
	p, err := e.Property(id, t)
	if err != nil {
		return err
	}
	e.history.Do("animate "+string(t), func(u *history.UnitOfWork) {
		p.SetAnimateValue(u, net)
	})
	return nil
}

// ResetAnimateValues returns the animate values of the given nodes, or of
// every node when ids is empty, to the design pose as one bulk step.
func (e *Engine) ResetAnimateValues(ids ...document.NodeID) error {
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		n, err := e.Node(id)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	if len(ids) == 0 {
		e.tree.Walk(func(n *Node) bool {
			nodes = append(nodes, n)
			return true
		})
	}

	u := e.history.StartBulkUnitOfWork("reset pose")
	for _, n := range nodes {
		for _, p := range n.props {
			p.ResetAnimateValueToDesignPose(u)
		}
	}
	u.Commit()
	return nil
}

// --- Document ---

func (e *Engine) SetMetadata(meta document.Metadata) {
	if meta == e.meta {
		return
	}
	e.history.Do("metadata", func(u *history.UnitOfWork) {
		u.Execute(history.MetaDataChanged{Metadata: meta, Previous: e.meta})
	})
}

func (e *Engine) SetAssetFolder(folder string) {
	if folder == e.assetFolder {
		return
	}
	e.history.Do("asset folder", func(u *history.UnitOfWork) {
		u.Execute(history.AssetFolderChanged{Folder: folder, Previous: e.assetFolder})
	})
}

// SetMode switches between design and animate mode. Leaving animate mode
// drops any previewed animate values.
func (e *Engine) SetMode(m Mode) {
	if m == e.mode {
		return
	}
	e.mode = m
	e.logger.Debug("mode changed", "mode", m)
	e.tree.Walk(func(n *Node) bool {
		for _, p := range n.props {
			p.refresh()
		}
		e.bus.Publish(bus.NodeTransformChanged{Node: n.id, BulkUpdate: true})
		return true
	})
	e.bus.Publish(bus.BulkUpdateFinished{})
}

// MarkSaved clears the dirty flag after the document was persisted.
func (e *Engine) MarkSaved() {
	e.setDirty(false)
}

func (e *Engine) setDirty(d bool) {
	if e.dirty == d {
		return
	}
	e.dirty = d
	e.bus.Publish(bus.DocumentDirtyChanged{Dirty: d})
}

// Snapshot returns a detached copy of the document.
func (e *Engine) Snapshot() document.Snapshot {
	s := document.Snapshot{
		ID:          e.id,
		Metadata:    e.meta,
		AssetFolder: e.assetFolder,
		DrawOrder:   e.tree.DrawOrder(),
	}
	e.tree.Walk(func(n *Node) bool {
		s.Nodes = append(s.Nodes, n.Snapshot())
		return true
	})
	for _, a := range e.animations {
		s.Animations = append(s.Animations, a.Clone())
	}
	return s
}

// Load replaces the document with s and clears the history. Nodes must be
// listed parents first.
func (e *Engine) Load(s document.Snapshot) error {
	if err := validate(s); err != nil {
		return err
	}

	tree := newTree(e.bus, e.logger)
	next := document.NodeID(1)
	for _, ns := range s.Nodes {
		ns.DrawIndex = -1
		tree.insert(ns)
		next = max(next, ns.ID+1)
	}
	tree.drawOrder = slices.Clone(s.DrawOrder)

	animations := make([]document.Animation, 0, len(s.Animations))
	for _, a := range s.Animations {
		a = a.Clone()
		a.Normalize()
		animations = append(animations, a)
	}

	e.history.Reset()
	e.tree = tree
	e.id = s.ID
	if e.id == "" {
		e.id = typeid.NewDocumentID()
	}
	e.meta = s.Metadata
	e.assetFolder = s.AssetFolder
	e.animations = animations
	e.nextID = next
	e.mode = ModeDesign
	e.sampler.reset()
	e.setDirty(false)

	e.logger.Info("document loaded", "document", e.id, "nodes", tree.Len(), "animations", len(animations))
	e.bus.Publish(bus.DocumentLoaded{Document: e.id})
	return nil
}

// LoadSampleDocument loads the built-in sample rig.
func (e *Engine) LoadSampleDocument(name string) {
	if err := e.Load(document.NewSampleDocument(name)); err != nil {
		panic(fmt.Errorf("sample document: %w", err))
	}
}

func validate(s document.Snapshot) error {
	seen := make(map[document.NodeID]document.NodeKind, len(s.Nodes))
	var sprites []document.NodeID
	for _, n := range s.Nodes {
		if n.ID <= document.NoNode {
			return fmt.Errorf("%w: node id %d", ErrInvalidDocument, n.ID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node %d", ErrInvalidDocument, n.ID)
		}
		if n.Kind != document.KindBone && n.Kind != document.KindSprite {
			return fmt.Errorf("%w: node %d has kind %q", ErrInvalidDocument, n.ID, n.Kind)
		}
		if n.Parent != document.NoNode {
			kind, ok := seen[n.Parent]
			if !ok {
				return fmt.Errorf("%w: node %d listed before its parent %d", ErrInvalidDocument, n.ID, n.Parent)
			}
			if kind != document.KindBone {
				return fmt.Errorf("%w: parent %d of node %d is not a bone", ErrInvalidDocument, n.Parent, n.ID)
			}
		}
		for _, p := range n.Properties {
			if !p.Type.Valid() {
				return fmt.Errorf("%w: node %d: %s: %w", ErrInvalidDocument, n.ID, p.Type, ErrUnknownProperty)
			}
		}
		seen[n.ID] = n.Kind
		if n.Kind == document.KindSprite {
			sprites = append(sprites, n.ID)
		}
	}

	order := slices.Clone(s.DrawOrder)
	slices.Sort(order)
	slices.Sort(sprites)
	if !slices.Equal(order, sprites) {
		return fmt.Errorf("%w: draw order does not list every sprite once", ErrInvalidDocument)
	}

	for _, a := range s.Animations {
		for _, tr := range a.Tracks {
			if _, ok := seen[tr.Node]; !ok {
				return fmt.Errorf("%w: animation %q targets unknown node %d", ErrInvalidDocument, a.Name, tr.Node)
			}
		}
	}
	return nil
}
