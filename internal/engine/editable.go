package engine

import (
	"fmt"
	"slices"

	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/document"
)

// editableDocument is the mutable view of an Engine that history events
// replay against. It is handed only to the engine's History.
type editableDocument struct {
	e *Engine
}

func (d editableDocument) AddNode(s document.NodeSnapshot) {
	n := d.e.tree.insert(s)
	if s.ID >= d.e.nextID {
		d.e.nextID = s.ID + 1
	}
	d.e.bus.Publish(bus.NodeAdded{Node: n.id, Kind: n.kind, Parent: n.parent})
	if n.kind == document.KindSprite {
		d.e.bus.Publish(bus.DrawOrderChanged{Node: n.id})
	}
}

func (d editableDocument) RemoveNode(id document.NodeID) {
	n := d.e.tree.remove(id)
	d.e.bus.Publish(bus.NodeRemoved{Node: n.id, Kind: n.kind})
}

func (d editableDocument) ReparentNode(id, parent document.NodeID, index int) {
	d.e.tree.setParent(id, parent, index)
}

func (d editableDocument) PlaceNode(id, parent document.NodeID, index int, props []document.PropertyState) {
	d.e.tree.place(id, parent, index, props)
}

func (d editableDocument) SetDrawOrder(id document.NodeID, index int) {
	d.e.tree.setDrawOrder(id, index)
}

func (d editableDocument) RenameNode(id document.NodeID, name string) {
	n := d.e.tree.mustNode(id)
	n.name = name
	d.e.bus.Publish(bus.NodeRenamed{Node: id, Name: name})
}

func (d editableDocument) SetPropertyDesignValue(id document.NodeID, prop document.PropertyType, value float64, bulk bool) {
	d.property(id, prop).applyDesign(value, bulk)
}

func (d editableDocument) SetPropertyAnimateIncrement(id document.NodeID, prop document.PropertyType, value float64, bulk bool) {
	d.property(id, prop).applyIncrement(value, bulk)
}

func (d editableDocument) property(id document.NodeID, prop document.PropertyType) *Property {
	p := d.e.tree.mustNode(id).Property(prop)
	if p == nil {
		panic(fmt.Errorf("node %d property %s: %w", id, prop, ErrUnknownProperty))
	}
	return p
}

func (d editableDocument) AddAnimation(anim document.Animation, index int) {
	if index < 0 || index > len(d.e.animations) {
		index = len(d.e.animations)
	}
	d.e.animations = slices.Insert(d.e.animations, index, anim)
	d.e.bus.Publish(bus.AnimationAdded{Animation: anim.ID})
}

func (d editableDocument) RemoveAnimation(id string) {
	i := d.animation(id)
	d.e.animations = slices.Delete(d.e.animations, i, i+1)
	d.e.bus.Publish(bus.AnimationRemoved{Animation: id})
}

func (d editableDocument) RenameAnimation(id, name string) {
	i := d.animation(id)
	d.e.animations[i].Name = name
	d.e.bus.Publish(bus.AnimationRenamed{Animation: id, Name: name})
}

func (d editableDocument) SetKeyframe(animation string, node document.NodeID, prop document.PropertyType, kf document.Keyframe) {
	a := &d.e.animations[d.animation(animation)]
	a.EnsureTrack(node, prop).SetKey(kf)
	d.e.bus.Publish(bus.KeyframeChanged{Animation: animation, Node: node, Property: prop, Frame: kf.Frame})
}

// RemoveKeyframe drops the track once its last key is gone.
func (d editableDocument) RemoveKeyframe(animation string, node document.NodeID, prop document.PropertyType, frame int) {
	a := &d.e.animations[d.animation(animation)]
	tr := a.Track(node, prop)
	if tr == nil || !tr.RemoveKey(frame) {
		panic(fmt.Errorf("remove key %s/%d/%s@%d: no such key", animation, node, prop, frame))
	}
	if len(tr.Keys) == 0 {
		a.RemoveTrack(node, prop)
	}
	d.e.bus.Publish(bus.KeyframeChanged{Animation: animation, Node: node, Property: prop, Frame: frame})
}

func (d editableDocument) animation(id string) int {
	i := d.e.animationIndex(id)
	if i < 0 {
		panic(fmt.Errorf("animation %q: %w", id, ErrAnimationNotFound))
	}
	return i
}

func (d editableDocument) SetMetadata(meta document.Metadata) {
	d.e.meta = meta
	d.e.bus.Publish(bus.MetaDataChanged{Metadata: meta})
}

func (d editableDocument) SetAssetFolder(folder string) {
	d.e.assetFolder = folder
	d.e.bus.Publish(bus.AssetFolderChanged{Folder: folder})
}

func (d editableDocument) MarkDirty() {
	d.e.setDirty(true)
}
