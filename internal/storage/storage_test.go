package storage

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

func testImage() *document.Bitmap {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return document.NewBitmap(img)
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	line := document.Element{ID: "line_01h455vb4pex5vsknk084sn02b", Type: document.TypeLine, Selected: true,
		Geometries: []document.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}}
	img := document.Element{ID: "img_01h455vb4pex5vsknk084sn02a", Type: document.TypeImage,
		X: 10, Y: 20, RotationOffset: 0.5, Bitmap: testImage()}
	path := document.Element{ID: "path_01h455vb4pex5vsknk084sn02c", Type: document.TypePath,
		Geometries: []document.Point{{X: 0, Y: 0, Pressure: 0.5}}, Color: "#3b82f6", StrokeWidth: 2, Smooth: true}

	for _, el := range []document.Element{path, line, img} {
		if err := m.PutElement(ctx, el); err != nil {
			t.Fatalf("PutElement(%s): %v", el.ID, err)
		}
	}

	got, err := m.Elements(ctx)
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	wantOrder := []string{img.ID, line.ID, path.ID}
	if len(got) != len(wantOrder) {
		t.Fatalf("len = %d, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if got[1].Selected {
		t.Error("selection flag was persisted")
	}
	if got[0].Bitmap == nil || got[0].Bitmap.Width() != 4 || got[0].Bitmap.Height() != 3 {
		t.Errorf("bitmap did not survive: %+v", got[0].Bitmap)
	}
	if got[0].RotationOffset != 0.5 || got[0].X != 10 {
		t.Errorf("image placement = %+v", got[0])
	}
	if p := got[2]; !p.Smooth || p.Geometries[0].Pressure != 0.5 || p.Color != "#3b82f6" {
		t.Errorf("path = %+v", p)
	}

	if err := m.DeleteElement(ctx, line.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Elements(ctx); len(got) != 2 {
		t.Errorf("after delete len = %d, want 2", len(got))
	}
	if err := m.ReplaceElements(ctx, []document.Element{line}); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Elements(ctx); len(got) != 1 || got[0].ID != line.ID {
		t.Errorf("after replace = %+v", got)
	}
	if err := m.ClearElements(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Elements(ctx); len(got) != 0 {
		t.Errorf("after clear len = %d", len(got))
	}
}

func TestMemoryViewport(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.Viewport(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Viewport() error = %v, want ErrNotFound", err)
	}
	want := viewport.State{OffsetX: 5, OffsetY: -3, Scale: 2, Rotate: 0.25}
	if err := m.PutViewport(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := m.Viewport(ctx)
	if err != nil || got != want {
		t.Errorf("Viewport() = %+v, %v, want %+v", got, err, want)
	}
}

// recordingStore counts calls and can be told to fail.
type recordingStore struct {
	*Memory
	mu        sync.Mutex
	calls     []string
	viewports []viewport.State
	fail      error
	block     chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Memory: NewMemory()}
}

func (r *recordingStore) record(call string) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.fail
}

func (r *recordingStore) PutElement(ctx context.Context, el document.Element) error {
	if err := r.record("put " + el.ID); err != nil {
		return err
	}
	return r.Memory.PutElement(ctx, el)
}

func (r *recordingStore) DeleteElement(ctx context.Context, id string) error {
	if err := r.record("delete " + id); err != nil {
		return err
	}
	return r.Memory.DeleteElement(ctx, id)
}

func (r *recordingStore) ReplaceElements(ctx context.Context, els []document.Element) error {
	if err := r.record("replace"); err != nil {
		return err
	}
	return r.Memory.ReplaceElements(ctx, els)
}

func (r *recordingStore) PutViewport(ctx context.Context, s viewport.State) error {
	if err := r.record("viewport"); err != nil {
		return err
	}
	r.mu.Lock()
	r.viewports = append(r.viewports, s)
	r.mu.Unlock()
	return r.Memory.PutViewport(ctx, s)
}

func (r *recordingStore) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func flush(t *testing.T, s *Syncer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestSyncerAppliesInOrder(t *testing.T) {
	rec := newRecordingStore()
	s := NewSyncer(rec)
	defer s.Close()

	a := document.Element{ID: "line_a", Type: document.TypeLine}
	b := document.Element{ID: "line_b", Type: document.TypeLine}
	s.PutElement(a)
	s.PutElement(b)
	s.DeleteElement(a.ID)
	flush(t, s)

	want := []string{"put line_a", "put line_b", "delete line_a"}
	got := rec.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	els, _ := rec.Elements(context.Background())
	if len(els) != 1 || els[0].ID != b.ID {
		t.Errorf("stored = %+v, want only %s", els, b.ID)
	}
}

func TestSyncerCoalescesViewport(t *testing.T) {
	rec := newRecordingStore()
	rec.block = make(chan struct{})
	s := NewSyncer(rec)
	defer s.Close()

	// The first put holds the worker so the viewport writes queue up behind it.
	s.PutElement(document.Element{ID: "line_a", Type: document.TypeLine})
	for i := 1; i <= 5; i++ {
		s.PutViewport(viewport.State{Scale: float64(i)})
	}
	close(rec.block)
	flush(t, s)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.viewports) == 0 || len(rec.viewports) > 2 {
		t.Fatalf("viewport writes = %d, want 1 or 2", len(rec.viewports))
	}
	if last := rec.viewports[len(rec.viewports)-1]; last.Scale != 5 {
		t.Errorf("last viewport scale = %v, want 5", last.Scale)
	}
}

func TestSyncerReportsFailures(t *testing.T) {
	rec := newRecordingStore()
	rec.fail = errors.New("disk on fire")
	s := NewSyncer(rec)

	s.PutElement(document.Element{ID: "line_a", Type: document.TypeLine})
	flush(t, s)

	select {
	case err := <-s.Errors():
		var perr *PersistError
		if !errors.As(err, &perr) {
			t.Fatalf("error type = %T, want *PersistError", err)
		}
		if perr.Op != "put" || perr.ID != "line_a" || !errors.Is(err, rec.fail) {
			t.Errorf("PersistError = %+v", perr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}

	s.Close()
	if _, ok := <-s.Errors(); ok {
		t.Error("Errors() still open after Close")
	}
}

func TestSyncerReplaceAll(t *testing.T) {
	mem := NewMemory()
	s := NewSyncer(mem)
	defer s.Close()

	s.PutElement(document.Element{ID: "line_old", Type: document.TypeLine})
	els := []document.Element{{ID: "line_new", Type: document.TypeLine}}
	s.ReplaceAll(els, nil)
	els[0].ID = "mutated"
	flush(t, s)

	got, _ := mem.Elements(context.Background())
	if len(got) != 1 || got[0].ID != "line_new" {
		t.Errorf("stored = %+v, want line_new only", got)
	}
}

func TestSyncerReplaceAllResult(t *testing.T) {
	tests := []struct {
		name string
		fail error
	}{
		{name: "written", fail: nil},
		{name: "failed", fail: errors.New("disk full")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecordingStore()
			rec.fail = tt.fail
			s := NewSyncer(rec)
			defer s.Close()

			results := make(chan error, 1)
			s.ReplaceAll([]document.Element{{ID: "line_a", Type: document.TypeLine}}, func(err error) {
				results <- err
			})
			flush(t, s)

			// The result is delivered before the barrier releases Flush.
			select {
			case err := <-results:
				if !errors.Is(err, tt.fail) {
					t.Errorf("result = %v, want %v", err, tt.fail)
				}
			default:
				t.Fatal("result not delivered by Flush")
			}
		})
	}
}

func TestSyncerDropsAfterClose(t *testing.T) {
	mem := NewMemory()
	s := NewSyncer(mem)
	s.PutElement(document.Element{ID: "line_a", Type: document.TypeLine})
	s.Close()
	s.PutElement(document.Element{ID: "line_b", Type: document.TypeLine})
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after Close: %v", err)
	}
	got, _ := mem.Elements(context.Background())
	if len(got) != 1 || got[0].ID != "line_a" {
		t.Errorf("stored = %+v, want line_a only", got)
	}
}
