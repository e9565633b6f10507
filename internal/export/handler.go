// Package export serves the board as PNG or PDF downloads.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/inamate/sketchboard/internal/engine"
)

// Runner runs fn on the goroutine that owns the engine.
type Runner interface {
	Do(ctx context.Context, fn func(*engine.Engine) error) error
}

type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// PNG handles GET /api/export.png: the current view without the transient
// layer.
func (h *Handler) PNG(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "png", "image/png", func(e *engine.Engine, buf *bytes.Buffer) error {
		return e.ExportPNG(buf)
	})
}

// PDF handles GET /api/export.pdf: lines, paths and images as vectors on
// one page.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "pdf", "application/pdf", func(e *engine.Engine, buf *bytes.Buffer) error {
		return e.ExportPDF(buf)
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, ext, contentType string, fn func(*engine.Engine, *bytes.Buffer) error) {
	var buf bytes.Buffer
	err := h.runner.Do(r.Context(), func(e *engine.Engine) error {
		return fn(e, &buf)
	})
	if err != nil {
		slog.Error("export failed", "format", ext, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	name := fmt.Sprintf("sketchboard-%s.%s", time.Now().Format("20060102-150405"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("write export", "error", err)
	}
	slog.Info("export complete", "format", ext, "bytes", buf.Len())
}
