package document

import (
	"slices"
	"strings"

	"github.com/inamate/rig/internal/curve"
)

// NodeID identifies a bone or sprite within one document. Ids start at 1.
type NodeID int

// NoNode is the parent of top-level nodes.
const NoNode NodeID = 0

type NodeKind string

const (
	KindBone   NodeKind = "bone"
	KindSprite NodeKind = "sprite"
)

// PropertyType names an animatable value of a node.
type PropertyType string

const (
	PropertyTranslationX  PropertyType = "translationX"
	PropertyTranslationY  PropertyType = "translationY"
	PropertyRotationAngle PropertyType = "rotationAngle"
	PropertyBoneLength    PropertyType = "boneLength"
	PropertyVisibility    PropertyType = "visibility"
)

// Valid reports whether p is one of the known property types.
func (p PropertyType) Valid() bool {
	switch p {
	case PropertyTranslationX, PropertyTranslationY, PropertyRotationAngle,
		PropertyBoneLength, PropertyVisibility:
		return true
	}
	return false
}

// IsIncremental reports whether the animate value of p is added to the design
// value. Visibility is the only absolute property: its animate value is the
// animated state itself.
func (p PropertyType) IsIncremental() bool {
	return p != PropertyVisibility
}

// IsTransform reports whether p feeds a transform operator.
func (p PropertyType) IsTransform() bool {
	switch p {
	case PropertyTranslationX, PropertyTranslationY, PropertyRotationAngle:
		return true
	}
	return false
}

// IsBool reports whether p holds an encoded boolean.
func (p PropertyType) IsBool() bool {
	return p == PropertyVisibility
}

// DefaultDesignValue is the design value a freshly created node starts with.
func (p PropertyType) DefaultDesignValue() float64 {
	if p == PropertyVisibility {
		return BoolToValue(true)
	}
	return 0
}

// PropertyTypesFor lists the properties a node of the given kind carries.
func PropertyTypesFor(kind NodeKind) []PropertyType {
	switch kind {
	case KindBone:
		return []PropertyType{PropertyTranslationX, PropertyTranslationY, PropertyRotationAngle, PropertyBoneLength}
	case KindSprite:
		return []PropertyType{PropertyTranslationX, PropertyTranslationY, PropertyRotationAngle, PropertyVisibility}
	}
	return nil
}

// BoolToValue encodes a boolean property value: false is 0, true is 1.
func BoolToValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ValueToBool decodes a boolean property value.
func ValueToBool(v float64) bool {
	return v != 0
}

// PropertyState is the stored state of one property.
type PropertyState struct {
	Type    PropertyType `json:"type"`
	Design  float64      `json:"design"`
	Animate float64      `json:"animate"`
}

// NodeSnapshot is everything needed to recreate a node exactly.
type NodeSnapshot struct {
	ID     NodeID   `json:"id"`
	Kind   NodeKind `json:"kind"`
	Name   string   `json:"name"`
	Parent NodeID   `json:"parent"`
	// Index is the position among the parent's children, -1 appends.
	Index int `json:"index"`
	// DrawIndex is the position in the sprite draw order, -1 appends.
	DrawIndex  int             `json:"drawIndex"`
	Properties []PropertyState `json:"properties"`
	Asset      string          `json:"asset,omitempty"`
	ScaleX     float64         `json:"scaleX"`
	ScaleY     float64         `json:"scaleY"`
}

// Property returns the state for t, if the snapshot carries it.
func (s NodeSnapshot) Property(t PropertyType) (PropertyState, bool) {
	for _, p := range s.Properties {
		if p.Type == t {
			return p, true
		}
	}
	return PropertyState{}, false
}

// Keyframe is an animate value at a frame. Easing shapes the interpolation
// from this key to the next one.
type Keyframe struct {
	Frame  int          `json:"frame"`
	Value  float64      `json:"value"`
	Easing curve.Bezier `json:"easing"`
}

// Track holds the keyframes of one node property, sorted by frame.
type Track struct {
	Node     NodeID       `json:"node"`
	Property PropertyType `json:"property"`
	Keys     []Keyframe   `json:"keys"`
}

// Key returns the keyframe at frame.
func (t *Track) Key(frame int) (Keyframe, bool) {
	i, ok := t.search(frame)
	if !ok {
		return Keyframe{}, false
	}
	return t.Keys[i], true
}

// SetKey inserts or replaces the keyframe at kf.Frame.
func (t *Track) SetKey(kf Keyframe) {
	i, ok := t.search(kf.Frame)
	if ok {
		t.Keys[i] = kf
		return
	}
	t.Keys = slices.Insert(t.Keys, i, kf)
}

// RemoveKey deletes the keyframe at frame and reports whether it existed.
func (t *Track) RemoveKey(frame int) bool {
	i, ok := t.search(frame)
	if ok {
		t.Keys = slices.Delete(t.Keys, i, i+1)
	}
	return ok
}

func (t *Track) search(frame int) (int, bool) {
	return slices.BinarySearchFunc(t.Keys, frame, func(k Keyframe, f int) int {
		return k.Frame - f
	})
}

type Animation struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Length int     `json:"length"`
	Tracks []Track `json:"tracks"`
}

// Track returns the track for a node property, or nil.
func (a *Animation) Track(node NodeID, prop PropertyType) *Track {
	for i := range a.Tracks {
		if a.Tracks[i].Node == node && a.Tracks[i].Property == prop {
			return &a.Tracks[i]
		}
	}
	return nil
}

// EnsureTrack returns the track for a node property, creating it if needed.
func (a *Animation) EnsureTrack(node NodeID, prop PropertyType) *Track {
	if tr := a.Track(node, prop); tr != nil {
		return tr
	}
	i, _ := slices.BinarySearchFunc(a.Tracks, trackKey{node, prop}, compareTrack)
	a.Tracks = slices.Insert(a.Tracks, i, Track{Node: node, Property: prop})
	return &a.Tracks[i]
}

// RemoveTrack deletes the track for a node property.
func (a *Animation) RemoveTrack(node NodeID, prop PropertyType) {
	a.Tracks = slices.DeleteFunc(a.Tracks, func(t Track) bool {
		return t.Node == node && t.Property == prop
	})
}

// Normalize drops empty tracks, sorts keys by frame and orders the tracks
// by node, then property.
func (a *Animation) Normalize() {
	a.Tracks = slices.DeleteFunc(a.Tracks, func(t Track) bool { return len(t.Keys) == 0 })
	for i := range a.Tracks {
		slices.SortStableFunc(a.Tracks[i].Keys, func(x, y Keyframe) int { return x.Frame - y.Frame })
	}
	slices.SortStableFunc(a.Tracks, func(x, y Track) int {
		return compareTrack(x, trackKey{y.Node, y.Property})
	})
}

type trackKey struct {
	node NodeID
	prop PropertyType
}

// Tracks are kept ordered by node, then property.
func compareTrack(t Track, k trackKey) int {
	if t.Node != k.node {
		return int(t.Node) - int(k.node)
	}
	return strings.Compare(string(t.Property), string(k.prop))
}

// Clone returns a deep copy that shares no slices with a.
func (a Animation) Clone() Animation {
	out := a
	out.Tracks = make([]Track, len(a.Tracks))
	for i, tr := range a.Tracks {
		tr.Keys = slices.Clone(tr.Keys)
		out.Tracks[i] = tr
	}
	return out
}

type Metadata struct {
	Name   string `json:"name"`
	Author string `json:"author"`
	FPS    int    `json:"fps"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Snapshot is a detached copy of a whole document. Nodes are listed parents
// first so they can be replayed in order.
type Snapshot struct {
	ID          string         `json:"id"`
	Metadata    Metadata       `json:"metadata"`
	AssetFolder string         `json:"assetFolder"`
	Nodes       []NodeSnapshot `json:"nodes"`
	DrawOrder   []NodeID       `json:"drawOrder"`
	Animations  []Animation    `json:"animations"`
}

// DefaultMetadata is used for new documents.
func DefaultMetadata(name string) Metadata {
	return Metadata{Name: name, FPS: 30, Width: 1280, Height: 720}
}
