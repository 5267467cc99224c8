package history

import "github.com/inamate/rig/internal/document"

// EditableDocument is the mutable capability every Event replays against.
// Implementations apply the change and publish the matching notification;
// they do not record history themselves.
type EditableDocument interface {
	AddNode(node document.NodeSnapshot)
	RemoveNode(id document.NodeID)
	// ReparentNode moves a node under parent keeping its world transform.
	// index -1 appends.
	ReparentNode(id, parent document.NodeID, index int)
	// PlaceNode moves a node under parent at index and restores the given
	// property states verbatim, without any transform correction.
	PlaceNode(id, parent document.NodeID, index int, props []document.PropertyState)
	SetDrawOrder(id document.NodeID, index int)
	RenameNode(id document.NodeID, name string)

	SetPropertyDesignValue(id document.NodeID, prop document.PropertyType, value float64, bulk bool)
	SetPropertyAnimateIncrement(id document.NodeID, prop document.PropertyType, value float64, bulk bool)

	AddAnimation(anim document.Animation, index int)
	RemoveAnimation(id string)
	RenameAnimation(id, name string)
	SetKeyframe(animation string, node document.NodeID, prop document.PropertyType, kf document.Keyframe)
	RemoveKeyframe(animation string, node document.NodeID, prop document.PropertyType, frame int)

	SetMetadata(meta document.Metadata)
	SetAssetFolder(folder string)

	// MarkDirty flags the document as changed since the last save.
	MarkDirty()
}
