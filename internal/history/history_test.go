package history

import (
	"errors"
	"slices"
	"testing"

	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/document"
)

type propKey struct {
	node document.NodeID
	prop document.PropertyType
}

// fakeDoc keeps just enough state to observe replay order.
type fakeDoc struct {
	folder string
	meta   document.Metadata
	design map[propKey]float64
	names  map[document.NodeID]string
	dirty  int
	log    []string
}

func newFakeDoc() *fakeDoc {
	return &fakeDoc{
		design: map[propKey]float64{},
		names:  map[document.NodeID]string{},
	}
}

func (d *fakeDoc) AddNode(n document.NodeSnapshot) {
	d.names[n.ID] = n.Name
	d.log = append(d.log, "add "+n.Name)
}
func (d *fakeDoc) RemoveNode(id document.NodeID) {
	d.log = append(d.log, "remove "+d.names[id])
	delete(d.names, id)
}
func (d *fakeDoc) ReparentNode(document.NodeID, document.NodeID, int) {}
func (d *fakeDoc) PlaceNode(document.NodeID, document.NodeID, int, []document.PropertyState) {
}
func (d *fakeDoc) SetDrawOrder(document.NodeID, int) {}
func (d *fakeDoc) RenameNode(id document.NodeID, name string) {
	d.names[id] = name
}
func (d *fakeDoc) SetPropertyDesignValue(id document.NodeID, p document.PropertyType, v float64, _ bool) {
	d.design[propKey{id, p}] = v
}
func (d *fakeDoc) SetPropertyAnimateIncrement(document.NodeID, document.PropertyType, float64, bool) {
}
func (d *fakeDoc) AddAnimation(document.Animation, int) {}
func (d *fakeDoc) RemoveAnimation(string)               {}
func (d *fakeDoc) RenameAnimation(string, string)       {}
func (d *fakeDoc) SetKeyframe(string, document.NodeID, document.PropertyType, document.Keyframe) {
}
func (d *fakeDoc) RemoveKeyframe(string, document.NodeID, document.PropertyType, int) {}
func (d *fakeDoc) SetMetadata(m document.Metadata)                                     { d.meta = m }
func (d *fakeDoc) SetAssetFolder(f string) {
	d.folder = f
	d.log = append(d.log, "folder "+f)
}
func (d *fakeDoc) MarkDirty() { d.dirty++ }

type recorder struct {
	msgs []bus.Message
}

func (r *recorder) of(topic bus.Topic) []bus.Message {
	var out []bus.Message
	for _, m := range r.msgs {
		if m.Topic() == topic {
			out = append(out, m)
		}
	}
	return out
}

func setup(t *testing.T) (*History, *fakeDoc, *recorder) {
	t.Helper()
	b := bus.New(nil)
	rec := &recorder{}
	b.SubscribeAll(func(m bus.Message) { rec.msgs = append(rec.msgs, m) })
	doc := newFakeDoc()
	return New(doc, b, nil), doc, rec
}

func setFolder(h *History, doc *fakeDoc, folder string) *UnitOfWork {
	return h.Do("folder "+folder, func(u *UnitOfWork) {
		u.Execute(AssetFolderChanged{Folder: folder, Previous: doc.folder})
	})
}

func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("recovered %v, want %v", r, target)
		}
	}()
	fn()
}

// --- unit of work ---

func TestExecuteAppliesImmediately(t *testing.T) {
	h, doc, rec := setup(t)
	u := h.StartUnitOfWork("rename")
	u.Execute(AssetFolderChanged{Folder: "art"})

	if doc.folder != "art" {
		t.Fatal("event not applied before commit")
	}
	if len(rec.of(bus.TopicHistoryItemCommitted)) != 0 {
		t.Fatal("committed message before commit")
	}
	u.Commit()
	if u.Version() != 1 || h.CurrentVersion() != 1 {
		t.Fatalf("version = %d, current = %d", u.Version(), h.CurrentVersion())
	}
	msgs := rec.of(bus.TopicHistoryItemCommitted)
	if len(msgs) != 1 || msgs[0].(bus.HistoryItemCommitted).Label != "rename" {
		t.Fatalf("committed messages = %v", msgs)
	}
	if doc.dirty != 1 {
		t.Errorf("dirty = %d, want 1", doc.dirty)
	}
}

func TestEmptyUnitOfWorkIsDropped(t *testing.T) {
	h, doc, rec := setup(t)
	u := h.StartUnitOfWork("nothing")
	if !u.IsEmpty() {
		t.Fatal("new unit not empty")
	}
	u.Commit()

	if h.CanUndo() || h.CurrentVersion() != 0 || u.Version() != 0 {
		t.Fatal("empty unit entered history")
	}
	if len(rec.msgs) != 0 || doc.dirty != 0 {
		t.Fatalf("empty unit produced side effects: %v dirty=%d", rec.msgs, doc.dirty)
	}

	setFolder(h, doc, "a")
	if h.CurrentVersion() != 1 {
		t.Errorf("version after empty unit = %d, want 1", h.CurrentVersion())
	}
}

func TestNestedUnitOfWorkPanics(t *testing.T) {
	h, _, _ := setup(t)
	h.StartUnitOfWork("outer")
	expectPanic(t, ErrUnitOfWorkOpen, func() { h.StartUnitOfWork("inner") })
}

func TestStaleCommitPanics(t *testing.T) {
	h, doc, _ := setup(t)
	u := setFolder(h, doc, "a")
	expectPanic(t, ErrStaleUnitOfWork, func() { u.Commit() })
}

func TestExecuteAfterCommitPanics(t *testing.T) {
	h, doc, _ := setup(t)
	u := setFolder(h, doc, "a")
	expectPanic(t, ErrUnitOfWorkClosed, func() { u.Execute(AssetFolderChanged{Folder: "b"}) })
}

// --- undo / redo ---

func TestUndoReplaysBackwardInReverseOrder(t *testing.T) {
	h, doc, _ := setup(t)
	h.Do("rig", func(u *UnitOfWork) {
		u.Execute(NodeAdded{Node: document.NodeSnapshot{ID: 1, Name: "hip"}})
		u.Execute(NodeAdded{Node: document.NodeSnapshot{ID: 2, Name: "leg"}})
	})
	doc.log = nil

	h.Undo()
	if want := []string{"remove leg", "remove hip"}; !slices.Equal(doc.log, want) {
		t.Fatalf("undo log = %v, want %v", doc.log, want)
	}
	doc.log = nil
	h.Redo()
	if want := []string{"add hip", "add leg"}; !slices.Equal(doc.log, want) {
		t.Fatalf("redo log = %v, want %v", doc.log, want)
	}
}

func TestUndoRedoOnEmptyStacks(t *testing.T) {
	h, doc, rec := setup(t)
	h.Undo()
	h.Redo()
	if len(rec.msgs) != 0 || doc.dirty != 0 {
		t.Fatal("undo/redo on empty stacks had side effects")
	}
}

func TestCursorMessages(t *testing.T) {
	h, doc, rec := setup(t)
	setFolder(h, doc, "a")
	setFolder(h, doc, "b")

	h.Undo()
	h.Undo()
	h.Redo()

	var got []int64
	for _, m := range rec.of(bus.TopicHistoryCursorChanged) {
		got = append(got, m.(bus.HistoryCursorChanged).Version)
	}
	if want := []int64{1, 0, 1}; !slices.Equal(got, want) {
		t.Errorf("cursor versions = %v, want %v", got, want)
	}
	if doc.folder != "a" {
		t.Errorf("folder = %q, want a", doc.folder)
	}
}

func TestRoundTrip(t *testing.T) {
	h, doc, _ := setup(t)
	for i, f := range []string{"a", "b", "c", "d"} {
		h.Do("step", func(u *UnitOfWork) {
			u.Execute(AssetFolderChanged{Folder: f, Previous: doc.folder})
			u.Execute(PropertyDesignValueChanged{Node: 1, Property: document.PropertyTranslationX, Value: float64(i + 1), Previous: doc.design[propKey{1, document.PropertyTranslationX}]})
		})
	}
	wantFolder, wantDesign := doc.folder, doc.design[propKey{1, document.PropertyTranslationX}]
	wantUndo := h.UndoEntries()

	for h.CanUndo() {
		h.Undo()
	}
	if doc.folder != "" || doc.design[propKey{1, document.PropertyTranslationX}] != 0 {
		t.Fatalf("after undo-all: folder=%q x=%v", doc.folder, doc.design[propKey{1, document.PropertyTranslationX}])
	}
	for h.CanRedo() {
		h.Redo()
	}
	if doc.folder != wantFolder || doc.design[propKey{1, document.PropertyTranslationX}] != wantDesign {
		t.Fatal("redo-all did not restore state")
	}
	if got := h.UndoEntries(); !slices.Equal(got, wantUndo) {
		t.Errorf("entries = %v, want %v", got, wantUndo)
	}
}

func TestCommitTruncatesRedo(t *testing.T) {
	h, doc, rec := setup(t)
	setFolder(h, doc, "a") // 1
	setFolder(h, doc, "b") // 2
	setFolder(h, doc, "c") // 3
	h.Undo()
	h.Undo()

	setFolder(h, doc, "x")

	removed := rec.of(bus.TopicHistoryRemovedAfter)
	if len(removed) != 1 {
		t.Fatalf("removed-after messages = %d, want 1", len(removed))
	}
	if v := removed[0].(bus.HistoryRemovedAfter).Version; v != 2 {
		t.Errorf("removed-after version = %d, want 2", v)
	}
	if h.CanRedo() {
		t.Error("redo stack survived commit")
	}
	if h.CurrentVersion() != 4 {
		t.Errorf("version = %d, want 4 (versions are never reused)", h.CurrentVersion())
	}
	if got := h.UndoEntries(); len(got) != 2 || got[0].Version != 1 || got[1].Version != 4 {
		t.Errorf("undo entries = %v", got)
	}
}

func TestJumpToVersion(t *testing.T) {
	h, doc, _ := setup(t)
	for _, f := range []string{"a", "b", "c", "d"} {
		setFolder(h, doc, f)
	}

	h.JumpToVersion(2)
	if h.CurrentVersion() != 2 || doc.folder != "b" {
		t.Fatalf("jump back: version=%d folder=%q", h.CurrentVersion(), doc.folder)
	}

	h.JumpToVersion(3)
	if h.CurrentVersion() != 3 || doc.folder != "c" {
		t.Fatalf("jump forward: version=%d folder=%q", h.CurrentVersion(), doc.folder)
	}

	h.JumpToVersion(0)
	if h.CurrentVersion() != 0 || doc.folder != "" {
		t.Fatalf("jump to start: version=%d folder=%q", h.CurrentVersion(), doc.folder)
	}

	h.JumpToVersion(99)
	if h.CurrentVersion() != 4 {
		t.Fatalf("jump past end: version=%d", h.CurrentVersion())
	}
}

func TestJumpToVersionIdempotent(t *testing.T) {
	h, doc, rec := setup(t)
	for _, f := range []string{"a", "b", "c"} {
		setFolder(h, doc, f)
	}
	h.JumpToVersion(1)
	before := len(rec.msgs)
	dirty := doc.dirty

	h.JumpToVersion(1)
	if len(rec.msgs) != before || doc.dirty != dirty || h.CurrentVersion() != 1 {
		t.Fatal("second jump changed state")
	}
}

func TestBulkUnitPublishesFinished(t *testing.T) {
	h, _, rec := setup(t)
	u := h.StartBulkUnitOfWork("drag")
	if !u.Bulk() {
		t.Fatal("unit not bulk")
	}
	u.Execute(PropertyDesignValueChanged{Node: 1, Property: document.PropertyRotationAngle, Value: 1, Bulk: true})
	u.Commit()
	h.Undo()

	if n := len(rec.of(bus.TopicBulkUpdateFinished)); n != 2 {
		t.Errorf("bulk finished messages = %d, want 2", n)
	}
}

func TestResetKeepsSequence(t *testing.T) {
	h, doc, _ := setup(t)
	setFolder(h, doc, "a")
	setFolder(h, doc, "b")
	h.Undo()
	h.Reset()
	if h.CanUndo() || h.CanRedo() || h.CurrentVersion() != 0 {
		t.Fatal("reset left history behind")
	}
	setFolder(h, doc, "c")
	if h.CurrentVersion() != 3 {
		t.Errorf("version after reset = %d, want 3", h.CurrentVersion())
	}
}

func TestEventKinds(t *testing.T) {
	if k := (NodeAdded{Node: document.NodeSnapshot{Kind: document.KindSprite}}).Kind(); k != EventSpriteNodeAdded {
		t.Errorf("sprite add kind = %s", k)
	}
	if k := (NodeRemoved{Node: document.NodeSnapshot{Kind: document.KindBone}}).Kind(); k != EventBoneNodeRemoved {
		t.Errorf("bone remove kind = %s", k)
	}
}
