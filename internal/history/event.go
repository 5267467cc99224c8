package history

import "github.com/inamate/rig/internal/document"

type EventKind string

const (
	EventAnimationAdded                  EventKind = "animationAdded"
	EventAnimationRemoved                EventKind = "animationRemoved"
	EventAnimationRenamed                EventKind = "animationRenamed"
	EventBoneNodeAdded                   EventKind = "boneNodeAdded"
	EventBoneNodeRemoved                 EventKind = "boneNodeRemoved"
	EventSpriteNodeAdded                 EventKind = "spriteNodeAdded"
	EventSpriteNodeRemoved               EventKind = "spriteNodeRemoved"
	EventNodeChangedParent               EventKind = "nodeChangedParent"
	EventDrawOrderChanged                EventKind = "drawOrderChanged"
	EventPropertyDesignValueChanged      EventKind = "propertyDesignValueChanged"
	EventPropertyAnimateIncrementChanged EventKind = "propertyAnimateIncrementChanged"
	EventAssetFolderChanged              EventKind = "assetFolderChanged"
	EventMetaDataChanged                 EventKind = "metaDataChanged"
	EventNodeRenamed                     EventKind = "nodeRenamed"
	EventKeyframeSet                     EventKind = "keyframeSet"
	EventKeyframeRemoved                 EventKind = "keyframeRemoved"
)

// Event is one reversible document mutation. The set of events is closed:
// only the types in this file implement it.
type Event interface {
	Kind() EventKind
	// Forward applies the change.
	Forward(doc EditableDocument)
	// Backward restores the state Forward started from.
	Backward(doc EditableDocument)

	event()
}

type AnimationAdded struct {
	Animation document.Animation
	Index     int
}

type AnimationRemoved struct {
	Animation document.Animation
	Index     int
}

type AnimationRenamed struct {
	Animation string
	Name      string
	Previous  string
}

// NodeAdded creates a bone or sprite from a snapshot.
type NodeAdded struct {
	Node document.NodeSnapshot
}

// NodeRemoved deletes a childless node. Node is the full snapshot taken just
// before removal.
type NodeRemoved struct {
	Node document.NodeSnapshot
}

type NodeChangedParent struct {
	Node   document.NodeID
	Parent document.NodeID
	Index  int

	PreviousParent document.NodeID
	PreviousIndex  int
	// PreviousProperties holds the transform property states before the
	// world-preserving correction rewrote them.
	PreviousProperties []document.PropertyState
}

type DrawOrderChanged struct {
	Node          document.NodeID
	Index         int
	PreviousIndex int
}

type PropertyDesignValueChanged struct {
	Node     document.NodeID
	Property document.PropertyType
	Value    float64
	Previous float64
	Bulk     bool
}

type PropertyAnimateIncrementChanged struct {
	Node     document.NodeID
	Property document.PropertyType
	Value    float64
	Previous float64
	Bulk     bool
}

type AssetFolderChanged struct {
	Folder   string
	Previous string
}

type MetaDataChanged struct {
	Metadata document.Metadata
	Previous document.Metadata
}

type NodeRenamed struct {
	Node     document.NodeID
	Name     string
	Previous string
}

// KeyframeSet inserts or replaces a keyframe. Previous is nil when no key
// existed at that frame.
type KeyframeSet struct {
	Animation string
	Node      document.NodeID
	Property  document.PropertyType
	Keyframe  document.Keyframe
	Previous  *document.Keyframe
}

type KeyframeRemoved struct {
	Animation string
	Node      document.NodeID
	Property  document.PropertyType
	Previous  document.Keyframe
}

func (AnimationAdded) Kind() EventKind   { return EventAnimationAdded }
func (AnimationRemoved) Kind() EventKind { return EventAnimationRemoved }
func (AnimationRenamed) Kind() EventKind { return EventAnimationRenamed }

func (e NodeAdded) Kind() EventKind {
	if e.Node.Kind == document.KindSprite {
		return EventSpriteNodeAdded
	}
	return EventBoneNodeAdded
}

func (e NodeRemoved) Kind() EventKind {
	if e.Node.Kind == document.KindSprite {
		return EventSpriteNodeRemoved
	}
	return EventBoneNodeRemoved
}

func (NodeChangedParent) Kind() EventKind               { return EventNodeChangedParent }
func (DrawOrderChanged) Kind() EventKind                { return EventDrawOrderChanged }
func (PropertyDesignValueChanged) Kind() EventKind      { return EventPropertyDesignValueChanged }
func (PropertyAnimateIncrementChanged) Kind() EventKind { return EventPropertyAnimateIncrementChanged }
func (AssetFolderChanged) Kind() EventKind              { return EventAssetFolderChanged }
func (MetaDataChanged) Kind() EventKind                 { return EventMetaDataChanged }
func (NodeRenamed) Kind() EventKind                     { return EventNodeRenamed }
func (KeyframeSet) Kind() EventKind                     { return EventKeyframeSet }
func (KeyframeRemoved) Kind() EventKind                 { return EventKeyframeRemoved }

func (e AnimationAdded) Forward(doc EditableDocument) {
	doc.AddAnimation(e.Animation.Clone(), e.Index)
}
func (e AnimationAdded) Backward(doc EditableDocument) { doc.RemoveAnimation(e.Animation.ID) }

func (e AnimationRemoved) Forward(doc EditableDocument) { doc.RemoveAnimation(e.Animation.ID) }
func (e AnimationRemoved) Backward(doc EditableDocument) {
	doc.AddAnimation(e.Animation.Clone(), e.Index)
}

func (e AnimationRenamed) Forward(doc EditableDocument)  { doc.RenameAnimation(e.Animation, e.Name) }
func (e AnimationRenamed) Backward(doc EditableDocument) { doc.RenameAnimation(e.Animation, e.Previous) }

func (e NodeAdded) Forward(doc EditableDocument)  { doc.AddNode(e.Node) }
func (e NodeAdded) Backward(doc EditableDocument) { doc.RemoveNode(e.Node.ID) }

func (e NodeRemoved) Forward(doc EditableDocument)  { doc.RemoveNode(e.Node.ID) }
func (e NodeRemoved) Backward(doc EditableDocument) { doc.AddNode(e.Node) }

func (e NodeChangedParent) Forward(doc EditableDocument) {
	doc.ReparentNode(e.Node, e.Parent, e.Index)
}
func (e NodeChangedParent) Backward(doc EditableDocument) {
	doc.PlaceNode(e.Node, e.PreviousParent, e.PreviousIndex, e.PreviousProperties)
}

func (e DrawOrderChanged) Forward(doc EditableDocument)  { doc.SetDrawOrder(e.Node, e.Index) }
func (e DrawOrderChanged) Backward(doc EditableDocument) { doc.SetDrawOrder(e.Node, e.PreviousIndex) }

func (e PropertyDesignValueChanged) Forward(doc EditableDocument) {
	doc.SetPropertyDesignValue(e.Node, e.Property, e.Value, e.Bulk)
}
func (e PropertyDesignValueChanged) Backward(doc EditableDocument) {
	doc.SetPropertyDesignValue(e.Node, e.Property, e.Previous, e.Bulk)
}

func (e PropertyAnimateIncrementChanged) Forward(doc EditableDocument) {
	doc.SetPropertyAnimateIncrement(e.Node, e.Property, e.Value, e.Bulk)
}
func (e PropertyAnimateIncrementChanged) Backward(doc EditableDocument) {
	doc.SetPropertyAnimateIncrement(e.Node, e.Property, e.Previous, e.Bulk)
}

func (e AssetFolderChanged) Forward(doc EditableDocument)  { doc.SetAssetFolder(e.Folder) }
func (e AssetFolderChanged) Backward(doc EditableDocument) { doc.SetAssetFolder(e.Previous) }

func (e MetaDataChanged) Forward(doc EditableDocument)  { doc.SetMetadata(e.Metadata) }
func (e MetaDataChanged) Backward(doc EditableDocument) { doc.SetMetadata(e.Previous) }

func (e NodeRenamed) Forward(doc EditableDocument)  { doc.RenameNode(e.Node, e.Name) }
func (e NodeRenamed) Backward(doc EditableDocument) { doc.RenameNode(e.Node, e.Previous) }

func (e KeyframeSet) Forward(doc EditableDocument) {
	doc.SetKeyframe(e.Animation, e.Node, e.Property, e.Keyframe)
}
func (e KeyframeSet) Backward(doc EditableDocument) {
	if e.Previous != nil {
		doc.SetKeyframe(e.Animation, e.Node, e.Property, *e.Previous)
		return
	}
	doc.RemoveKeyframe(e.Animation, e.Node, e.Property, e.Keyframe.Frame)
}

func (e KeyframeRemoved) Forward(doc EditableDocument) {
	doc.RemoveKeyframe(e.Animation, e.Node, e.Property, e.Previous.Frame)
}
func (e KeyframeRemoved) Backward(doc EditableDocument) {
	doc.SetKeyframe(e.Animation, e.Node, e.Property, e.Previous)
}

func (AnimationAdded) event()                  {}
func (AnimationRemoved) event()                {}
func (AnimationRenamed) event()                {}
func (NodeAdded) event()                       {}
func (NodeRemoved) event()                     {}
func (NodeChangedParent) event()               {}
func (DrawOrderChanged) event()                {}
func (PropertyDesignValueChanged) event()      {}
func (PropertyAnimateIncrementChanged) event() {}
func (AssetFolderChanged) event()              {}
func (MetaDataChanged) event()                 {}
func (NodeRenamed) event()                     {}
func (KeyframeSet) event()                     {}
func (KeyframeRemoved) event()                 {}
