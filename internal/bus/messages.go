package bus

import (
	"encoding/json"

	"github.com/inamate/rig/internal/document"
)

type Topic string

const (
	TopicHistoryItemCommitted     Topic = "history.committed"
	TopicHistoryCursorChanged     Topic = "history.cursor"
	TopicHistoryRemovedAfter      Topic = "history.removedAfter"
	TopicNodePropertyValueChanged Topic = "node.propertyValue"
	TopicNodeTransformChanged     Topic = "node.transform"
	TopicNodeAdded                Topic = "node.added"
	TopicNodeRemoved              Topic = "node.removed"
	TopicNodeRenamed              Topic = "node.renamed"
	TopicNodeParentChanged        Topic = "node.parent"
	TopicAnimationAdded           Topic = "animation.added"
	TopicAnimationRemoved         Topic = "animation.removed"
	TopicAnimationRenamed         Topic = "animation.renamed"
	TopicKeyframeChanged          Topic = "animation.keyframe"
	TopicDrawOrderChanged         Topic = "drawOrder.changed"
	TopicAssetFolderChanged       Topic = "assetFolder.changed"
	TopicMetaDataChanged          Topic = "metadata.changed"
	TopicDocumentLoaded           Topic = "document.loaded"
	TopicDocumentDirtyChanged     Topic = "document.dirty"
	TopicBulkUpdateFinished       Topic = "bulk.finished"
)

// AllTopics lists every topic in declaration order.
var AllTopics = []Topic{
	TopicHistoryItemCommitted,
	TopicHistoryCursorChanged,
	TopicHistoryRemovedAfter,
	TopicNodePropertyValueChanged,
	TopicNodeTransformChanged,
	TopicNodeAdded,
	TopicNodeRemoved,
	TopicNodeRenamed,
	TopicNodeParentChanged,
	TopicAnimationAdded,
	TopicAnimationRemoved,
	TopicAnimationRenamed,
	TopicKeyframeChanged,
	TopicDrawOrderChanged,
	TopicAssetFolderChanged,
	TopicMetaDataChanged,
	TopicDocumentLoaded,
	TopicDocumentDirtyChanged,
	TopicBulkUpdateFinished,
}

// Message is a notification delivered over the bus.
type Message interface {
	Topic() Topic
}

type HistoryItemCommitted struct {
	Version int64  `json:"version"`
	Label   string `json:"label"`
}

type HistoryCursorChanged struct {
	Version int64 `json:"version"`
}

// HistoryRemovedAfter reports that the redo branch was discarded. Version is
// the version that was on top of the discarded redo stack.
type HistoryRemovedAfter struct {
	Version int64 `json:"version"`
}

type NodePropertyValueChanged struct {
	Node       document.NodeID       `json:"node"`
	Property   document.PropertyType `json:"property"`
	BulkUpdate bool                  `json:"bulkUpdate"`
}

type NodeTransformChanged struct {
	Node       document.NodeID `json:"node"`
	BulkUpdate bool            `json:"bulkUpdate"`
}

type NodeAdded struct {
	Node   document.NodeID   `json:"node"`
	Kind   document.NodeKind `json:"kind"`
	Parent document.NodeID   `json:"parent"`
}

type NodeRemoved struct {
	Node document.NodeID   `json:"node"`
	Kind document.NodeKind `json:"kind"`
}

type NodeRenamed struct {
	Node document.NodeID `json:"node"`
	Name string          `json:"name"`
}

type NodeParentChanged struct {
	Node   document.NodeID `json:"node"`
	Parent document.NodeID `json:"parent"`
}

type AnimationAdded struct {
	Animation string `json:"animation"`
}

type AnimationRemoved struct {
	Animation string `json:"animation"`
}

type AnimationRenamed struct {
	Animation string `json:"animation"`
	Name      string `json:"name"`
}

type KeyframeChanged struct {
	Animation string                `json:"animation"`
	Node      document.NodeID       `json:"node"`
	Property  document.PropertyType `json:"property"`
	Frame     int                   `json:"frame"`
}

type DrawOrderChanged struct {
	Node document.NodeID `json:"node"`
}

type AssetFolderChanged struct {
	Folder string `json:"folder"`
}

type MetaDataChanged struct {
	Metadata document.Metadata `json:"metadata"`
}

type DocumentLoaded struct {
	Document string `json:"document"`
}

type DocumentDirtyChanged struct {
	Dirty bool `json:"dirty"`
}

// BulkUpdateFinished closes a batch of notifications flagged BulkUpdate.
type BulkUpdateFinished struct{}

func (HistoryItemCommitted) Topic() Topic     { return TopicHistoryItemCommitted }
func (HistoryCursorChanged) Topic() Topic     { return TopicHistoryCursorChanged }
func (HistoryRemovedAfter) Topic() Topic      { return TopicHistoryRemovedAfter }
func (NodePropertyValueChanged) Topic() Topic { return TopicNodePropertyValueChanged }
func (NodeTransformChanged) Topic() Topic     { return TopicNodeTransformChanged }
func (NodeAdded) Topic() Topic                { return TopicNodeAdded }
func (NodeRemoved) Topic() Topic              { return TopicNodeRemoved }
func (NodeRenamed) Topic() Topic              { return TopicNodeRenamed }
func (NodeParentChanged) Topic() Topic        { return TopicNodeParentChanged }
func (AnimationAdded) Topic() Topic           { return TopicAnimationAdded }
func (AnimationRemoved) Topic() Topic         { return TopicAnimationRemoved }
func (AnimationRenamed) Topic() Topic         { return TopicAnimationRenamed }
func (KeyframeChanged) Topic() Topic          { return TopicKeyframeChanged }
func (DrawOrderChanged) Topic() Topic         { return TopicDrawOrderChanged }
func (AssetFolderChanged) Topic() Topic       { return TopicAssetFolderChanged }
func (MetaDataChanged) Topic() Topic          { return TopicMetaDataChanged }
func (DocumentLoaded) Topic() Topic           { return TopicDocumentLoaded }
func (DocumentDirtyChanged) Topic() Topic     { return TopicDocumentDirtyChanged }
func (BulkUpdateFinished) Topic() Topic       { return TopicBulkUpdateFinished }

// Envelope is the wire form of a message for transports.
type Envelope struct {
	Type    Topic           `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode renders msg as a JSON envelope.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msg.Topic(), Payload: payload})
}
