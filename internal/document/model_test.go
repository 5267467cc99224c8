package document

import (
	"testing"

	"github.com/inamate/rig/internal/typeid"
)

func TestPropertyTypeTraits(t *testing.T) {
	for _, p := range []PropertyType{PropertyTranslationX, PropertyTranslationY, PropertyRotationAngle, PropertyBoneLength} {
		if !p.IsIncremental() {
			t.Errorf("%s should be incremental", p)
		}
	}
	if PropertyVisibility.IsIncremental() {
		t.Error("visibility should be absolute")
	}
	if PropertyBoneLength.IsTransform() || !PropertyRotationAngle.IsTransform() {
		t.Error("transform classification wrong")
	}
	if PropertyType("scale").Valid() {
		t.Error("unknown property reported valid")
	}
}

func TestBoolEncoding(t *testing.T) {
	if BoolToValue(false) != 0 || BoolToValue(true) != 1 {
		t.Fatal("bool encoding")
	}
	if ValueToBool(0) || !ValueToBool(1) || !ValueToBool(-0.5) {
		t.Fatal("bool decoding")
	}
}

func TestTrackKeysStaySorted(t *testing.T) {
	var tr Track
	tr.SetKey(Keyframe{Frame: 10, Value: 1})
	tr.SetKey(Keyframe{Frame: 0, Value: 0})
	tr.SetKey(Keyframe{Frame: 5, Value: 2})
	tr.SetKey(Keyframe{Frame: 5, Value: 3})

	if len(tr.Keys) != 3 {
		t.Fatalf("len = %d, want 3", len(tr.Keys))
	}
	for i, want := range []int{0, 5, 10} {
		if tr.Keys[i].Frame != want {
			t.Errorf("Keys[%d].Frame = %d, want %d", i, tr.Keys[i].Frame, want)
		}
	}
	if k, _ := tr.Key(5); k.Value != 3 {
		t.Errorf("replaced key value = %v, want 3", k.Value)
	}

	if !tr.RemoveKey(5) || tr.RemoveKey(5) {
		t.Error("RemoveKey should succeed once")
	}
	if _, ok := tr.Key(5); ok {
		t.Error("key still present")
	}
}

func TestAnimationCloneIsDeep(t *testing.T) {
	a := Animation{ID: "a", Tracks: []Track{{Node: 1, Property: PropertyRotationAngle, Keys: []Keyframe{{Frame: 0}}}}}
	b := a.Clone()
	b.Tracks[0].Keys[0].Value = 9
	b.EnsureTrack(2, PropertyTranslationX)

	if a.Tracks[0].Keys[0].Value != 0 {
		t.Error("clone shares keys")
	}
	if len(a.Tracks) != 1 {
		t.Error("clone shares tracks")
	}
}

func TestSampleDocumentIsOrdered(t *testing.T) {
	doc := NewSampleDocument("sample")
	if err := typeid.Validate(doc.ID, typeid.PrefixDocument); err != nil {
		t.Fatal(err)
	}

	seen := map[NodeID]bool{NoNode: true}
	for _, n := range doc.Nodes {
		if !seen[n.Parent] {
			t.Errorf("node %d listed before its parent %d", n.ID, n.Parent)
		}
		seen[n.ID] = true
		for _, p := range PropertyTypesFor(n.Kind) {
			if _, ok := n.Property(p); !ok {
				t.Errorf("node %d missing %s", n.ID, p)
			}
		}
	}
	for _, id := range doc.DrawOrder {
		if !seen[id] {
			t.Errorf("draw order references unknown node %d", id)
		}
	}
	if len(doc.Animations) != 1 || doc.Animations[0].Track(3, PropertyRotationAngle) == nil {
		t.Error("sample animation missing upper arm track")
	}
}
