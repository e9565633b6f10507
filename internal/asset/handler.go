// Package asset turns uploaded image files into image elements.
package asset

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
)

const maxUploadSize = 10 << 20 // 10MB

// Runner runs fn on the goroutine that owns the engine.
type Runner interface {
	Do(ctx context.Context, fn func(*engine.Engine) error) error
}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// Upload handles POST /api/images (multipart form with a "file" field). The
// image is placed at the view center as one undoable step.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 10MB)"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read file"})
		return
	}
	bmp, err := document.DecodeBitmap(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image: " + err.Error()})
		return
	}

	var id string
	err = h.runner.Do(r.Context(), func(e *engine.Engine) error {
		var err error
		id, err = e.AddImage(bmp)
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("add uploaded image", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add image"})
		return
	}

	slog.Info("image uploaded", "id", id, "name", header.Filename, "width", bmp.Width(), "height", bmp.Height())
	writeJSON(w, http.StatusCreated, UploadResponse{
		ID:     id,
		Width:  bmp.Width(),
		Height: bmp.Height(),
		Name:   header.Filename,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
