package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/storage"
)

// directRunner serializes calls with a mutex instead of a hub loop.
type directRunner struct {
	mu sync.Mutex
	e  *engine.Engine
}

func (r *directRunner) Do(_ context.Context, fn func(*engine.Engine) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.e)
}

func newRouter(t *testing.T) (*mux.Router, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	line := document.Element{ID: "line_a", Type: document.TypeLine,
		Geometries: []document.Point{{X: -100, Y: 0}, {X: 100, Y: 0}}}
	if err := mem.PutElement(context.Background(), line); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	e := engine.New(cfg, mem, nil)
	t.Cleanup(e.Close)
	if err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	r := mux.NewRouter()
	NewHandler(&directRunner{e: e}).Register(r.PathPrefix("/api").Subrouter())
	return r, mem
}

func do(t *testing.T, r http.Handler, method, path string) (*httptest.ResponseRecorder, StateResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var state StateResponse
	if rec.Code == http.StatusOK {
		_ = json.NewDecoder(rec.Body).Decode(&state)
	}
	return rec, state
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"state", http.MethodGet, "/api/state", http.StatusOK},
		{"elements", http.MethodGet, "/api/elements", http.StatusOK},
		{"viewport", http.MethodGet, "/api/viewport", http.StatusOK},
		{"action", http.MethodPost, "/api/actions/undo", http.StatusOK},
		{"unknown action", http.MethodPost, "/api/actions/explode", http.StatusNotFound},
		{"mode", http.MethodPost, "/api/mode/draw", http.StatusOK},
		{"unknown mode", http.MethodPost, "/api/mode/sculpt", http.StatusNotFound},
		{"strategy", http.MethodPost, "/api/strategy/transparent", http.StatusOK},
		{"unknown strategy", http.MethodPost, "/api/strategy/magic", http.StatusNotFound},
		{"rotate", http.MethodPost, "/api/viewport/rotate/left", http.StatusOK},
		{"bad direction", http.MethodPost, "/api/viewport/rotate/up", http.StatusBadRequest},
		{"center", http.MethodPost, "/api/viewport/center", http.StatusOK},
		{"wrong method", http.MethodGet, "/api/save", http.StatusMethodNotAllowed},
	}
	r, _ := newRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, r, tt.method, tt.path)
			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d: %s", tt.method, tt.path, rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestModeAndRotate(t *testing.T) {
	r, _ := newRouter(t)

	_, state := do(t, r, http.MethodPost, "/api/mode/draw")
	if state.Mode != "draw" {
		t.Errorf("mode = %q, want draw", state.Mode)
	}
	_, state = do(t, r, http.MethodPost, "/api/viewport/rotate/right")
	if state.Viewport.Rotate == 0 {
		t.Error("rotate right left the view unrotated")
	}
}

func TestSaveAndReset(t *testing.T) {
	r, mem := newRouter(t)
	ctx := context.Background()

	rec, state := do(t, r, http.MethodPost, "/api/save")
	if rec.Code != http.StatusOK {
		t.Fatalf("save = %d: %s", rec.Code, rec.Body)
	}
	if state.Elements != 1 || state.History.CanUndo {
		t.Errorf("after save = %+v", state)
	}
	if stored, _ := mem.Elements(ctx); len(stored) != 1 {
		t.Errorf("stored = %d elements, want 1", len(stored))
	}

	rec, state = do(t, r, http.MethodPost, "/api/reset")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset = %d: %s", rec.Code, rec.Body)
	}
	if state.Elements != 0 {
		t.Errorf("elements after reset = %d", state.Elements)
	}
	if stored, _ := mem.Elements(ctx); len(stored) != 0 {
		t.Errorf("stored after reset = %d elements, want 0", len(stored))
	}
}
