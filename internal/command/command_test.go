package command

import (
	"errors"
	"image"
	"reflect"
	"testing"

	"github.com/inamate/sketchboard/internal/document"
)

func pt(x, y float64) document.Point { return document.Point{X: x, Y: y} }

func lineEl(id string, pts ...document.Point) document.Element {
	return document.Element{ID: id, Type: document.TypeLine, Geometries: pts}
}

func pathEl(id string, pts ...document.Point) document.Element {
	return document.Element{ID: id, Type: document.TypePath, Geometries: pts, Color: "#000000", StrokeWidth: 2}
}

func imageEl(id string, x, y float64) document.Element {
	bmp := document.NewBitmap(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	return document.Element{ID: id, Type: document.TypeImage, X: x, Y: y, Bitmap: bmp}
}

func mustExec(t *testing.T, m *Manager, c Command) {
	t.Helper()
	if err := m.Execute(c); err != nil {
		t.Fatalf("Execute(%s) error = %v", c.Name(), err)
	}
}

func TestUndoAddRemovesElement(t *testing.T) {
	store := document.NewStore()
	m := NewManager(0)

	mustExec(t, m, NewAddElement(store, lineEl("l1", pt(0, 0), pt(10, 0))))
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
	if err := m.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got := store.All(); len(got) != 0 {
		t.Errorf("All() = %v, want empty", got)
	}
}

func TestUndoRedoInverseLaw(t *testing.T) {
	store := document.NewStore()
	store.AddAll([]document.Element{
		lineEl("base", pt(0, 0), pt(5, 5), pt(10, 0)),
		pathEl("stroke", pt(1, 1), pt(2, 2)),
		imageEl("pic", 50, 50),
	})
	m := NewManager(0)
	initial := store.All()

	build := []func() (Command, error){
		func() (Command, error) { return NewAddElement(store, lineEl("new", pt(-1, -1), pt(-2, -2))), nil },
		func() (Command, error) { return NewMovePoint(store, "base", 1, pt(6, 9)) },
		func() (Command, error) { return NewAddPoint(store, "base", 2, pt(8, 3)) },
		func() (Command, error) {
			return NewMoveElements(store, []Move{
				{ID: "base", Before: placementOf(store, "base"), After: document.Placement{Geometries: []document.Point{pt(1, 1), pt(7, 10), pt(9, 4), pt(11, 1)}}},
				{ID: "stroke", Before: placementOf(store, "stroke"), After: document.Placement{Geometries: []document.Point{pt(3, 3), pt(4, 4)}}},
				{ID: "pic", Before: placementOf(store, "pic"), After: document.Placement{X: 70, Y: 20}},
			})
		},
		func() (Command, error) { return NewDeletePoint(store, "base", 0) },
		func() (Command, error) { return NewDeleteElements(store, []string{"pic", "new"}) },
	}

	for i, b := range build {
		c, err := b()
		if err != nil {
			t.Fatalf("build %d: %v", i, err)
		}
		mustExec(t, m, c)
	}
	final := store.All()

	for m.CanUndo() {
		if err := m.Undo(); err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
	}
	if got := store.All(); !reflect.DeepEqual(got, initial) {
		t.Errorf("after undo all:\n got %+v\nwant %+v", got, initial)
	}

	for m.CanRedo() {
		if err := m.Redo(); err != nil {
			t.Fatalf("Redo() error = %v", err)
		}
	}
	if got := store.All(); !reflect.DeepEqual(got, final) {
		t.Errorf("after redo all:\n got %+v\nwant %+v", got, final)
	}
}

func placementOf(store *document.Store, id string) document.Placement {
	el, _ := store.Get(id)
	return el.Placement()
}

func TestNewCommandClearsRedo(t *testing.T) {
	store := document.NewStore()
	m := NewManager(0)
	mustExec(t, m, NewAddElement(store, lineEl("a")))
	mustExec(t, m, NewAddElement(store, lineEl("b")))
	m.Undo()
	if !m.CanRedo() {
		t.Fatal("CanRedo() = false after undo")
	}

	mustExec(t, m, NewAddElement(store, lineEl("c")))
	if m.CanRedo() {
		t.Error("CanRedo() = true after new command")
	}
	before := store.IDs()
	if err := m.Redo(); err != nil {
		t.Errorf("Redo() error = %v", err)
	}
	if got := store.IDs(); !reflect.DeepEqual(got, before) {
		t.Errorf("Redo() changed store: %v, want %v", got, before)
	}
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	store := document.NewStore()
	store.Add(lineEl("a"))
	m := NewManager(0)
	events := 0
	m.Changed().Subscribe(func(StackChanged) { events++ })

	if err := m.Undo(); err != nil {
		t.Errorf("Undo() error = %v", err)
	}
	if err := m.Redo(); err != nil {
		t.Errorf("Redo() error = %v", err)
	}
	m.Clear()
	if events != 0 {
		t.Errorf("events = %d, want 0", events)
	}
	if store.Len() != 1 {
		t.Errorf("store changed: Len() = %d", store.Len())
	}
}

func TestFailedExecuteIsNotPushed(t *testing.T) {
	store := document.NewStore()
	store.Add(lineEl("a"))
	m := NewManager(0)

	err := m.Execute(NewAddElements(store, []document.Element{lineEl("b"), lineEl("a")}))
	if !errors.Is(err, document.ErrDuplicateID) {
		t.Fatalf("Execute error = %v, want ErrDuplicateID", err)
	}
	if m.CanUndo() {
		t.Error("failed command was pushed")
	}
	if store.Len() != 1 {
		t.Errorf("partial apply: Len() = %d, want 1", store.Len())
	}
}

func TestExecuteAndUndoAreRepeatable(t *testing.T) {
	store := document.NewStore()
	c := NewAddElement(store, lineEl("a"))

	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if err := c.Execute(); err != nil {
		t.Errorf("second Execute error = %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	c.Undo()
	if err := c.Undo(); err != nil {
		t.Errorf("second Undo error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestUndoBeforeExecutePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Undo before Execute did not panic")
		}
	}()
	NewAddElement(document.NewStore(), lineEl("a")).Undo()
}

func TestInvalidOperations(t *testing.T) {
	store := document.NewStore()
	store.AddAll([]document.Element{
		lineEl("two", pt(0, 0), pt(1, 1)),
		lineEl("three", pt(0, 0), pt(1, 1), pt(2, 0)),
		pathEl("path", pt(0, 0), pt(1, 1), pt(2, 2)),
	})

	tests := []struct {
		name string
		try  func() error
	}{
		{"move point on path", func() error { _, err := NewMovePoint(store, "path", 0, pt(1, 1)); return err }},
		{"move point out of range", func() error { _, err := NewMovePoint(store, "three", 3, pt(1, 1)); return err }},
		{"move point missing element", func() error { _, err := NewMovePoint(store, "gone", 0, pt(1, 1)); return err }},
		{"add point at start", func() error { _, err := NewAddPoint(store, "three", 0, pt(1, 1)); return err }},
		{"add point at end", func() error { _, err := NewAddPoint(store, "three", 3, pt(1, 1)); return err }},
		{"add point on path", func() error { _, err := NewAddPoint(store, "path", 1, pt(1, 1)); return err }},
		{"delete point below minimum", func() error { _, err := NewDeletePoint(store, "two", 0); return err }},
		{"delete point on path", func() error { _, err := NewDeletePoint(store, "path", 1); return err }},
		{"delete empty selection", func() error { _, err := NewDeleteElements(store, nil); return err }},
		{"move empty selection", func() error { _, err := NewMoveElements(store, nil); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.try(); !errors.Is(err, ErrInvalidOperation) {
				t.Errorf("error = %v, want ErrInvalidOperation", err)
			}
		})
	}
}

func TestMoveElementsSnapshotsAreIndependent(t *testing.T) {
	store := document.NewStore()
	store.Add(lineEl("a", pt(0, 0), pt(1, 0)))

	before := placementOf(store, "a")
	after := document.Placement{Geometries: []document.Point{pt(5, 5), pt(6, 5)}}
	c, err := NewMoveElements(store, []Move{{ID: "a", Before: before, After: after}})
	if err != nil {
		t.Fatal(err)
	}
	// Later mutation of the caller's slices must not leak into the command.
	before.Geometries[0].X = 100
	after.Geometries[0].X = 100

	c.Execute()
	got, _ := store.Get("a")
	if got.Geometries[0] != pt(5, 5) {
		t.Errorf("after Execute = %+v, want (5,5)", got.Geometries[0])
	}
	c.Undo()
	got, _ = store.Get("a")
	if got.Geometries[0] != pt(0, 0) {
		t.Errorf("after Undo = %+v, want (0,0)", got.Geometries[0])
	}
}

func TestHistoryLimit(t *testing.T) {
	store := document.NewStore()
	m := NewManager(2)
	for _, id := range []string{"a", "b", "c"} {
		mustExec(t, m, NewAddElement(store, lineEl(id)))
	}
	m.Undo()
	m.Undo()
	m.Undo()
	if got := store.IDs(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("IDs() = %v, want [a]", got)
	}
}

func TestStackChangedPayload(t *testing.T) {
	store := document.NewStore()
	m := NewManager(0)
	var last StackChanged
	m.Changed().Subscribe(func(s StackChanged) { last = s })

	mustExec(t, m, NewAddElement(store, lineEl("a")))
	want := StackChanged{CanUndo: true, UndoDepth: 1, Last: "add-element"}
	if last != want {
		t.Errorf("after execute = %+v, want %+v", last, want)
	}

	m.Undo()
	want = StackChanged{CanRedo: true, RedoDepth: 1, Last: "add-element"}
	if last != want {
		t.Errorf("after undo = %+v, want %+v", last, want)
	}

	m.Clear()
	if last != (StackChanged{}) {
		t.Errorf("after clear = %+v, want zero", last)
	}
}
