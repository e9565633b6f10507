package export

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/storage"
)

type directRunner struct {
	mu sync.Mutex
	e  *engine.Engine
}

func (r *directRunner) Do(_ context.Context, fn func(*engine.Engine) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.e)
}

func TestExport(t *testing.T) {
	mem := storage.NewMemory()
	line := document.Element{ID: "line_a", Type: document.TypeLine,
		Geometries: []document.Point{{X: -100, Y: 0}, {X: 100, Y: 0}}}
	if err := mem.PutElement(context.Background(), line); err != nil {
		t.Fatal(err)
	}
	e := engine.New(config.Default(), mem, nil)
	defer e.Close()
	if err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(&directRunner{e: e})

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		contentType string
		magic       []byte
		ext         string
	}{
		{"png", h.PNG, "image/png", []byte("\x89PNG"), ".png"},
		{"pdf", h.PDF, "application/pdf", []byte("%PDF"), ".pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/api/export"+tt.ext, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, tt.ext) {
				t.Errorf("Content-Disposition = %q", cd)
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), tt.magic) {
				t.Errorf("body starts with %q", rec.Body.Bytes()[:min(8, rec.Body.Len())])
			}
		})
	}
}
