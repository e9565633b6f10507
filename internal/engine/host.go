package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/inamate/sketchboard/internal/clipboard"
	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/document"
)

const (
	clipboardTimeout = 5 * time.Second
	// pasteOffset shifts duplicated elements so they do not hide the
	// originals, in surface pixels.
	pasteOffset = 20
)

// host is the engine as seen by the interaction modes.
type host struct{ e *Engine }

func (h host) Copy(els []document.Element) {
	e := h.e
	e.copyBuffer = make([]document.Element, len(els))
	for i, el := range els {
		e.copyBuffer[i] = el.Clone()
	}
	go func(els []document.Element) {
		ctx, cancel := context.WithTimeout(e.ctx, clipboardTimeout)
		defer cancel()
		if err := e.clip.WriteElements(ctx, els); err != nil {
			slog.Warn("write clipboard", "error", err)
		}
	}(h.e.copyBuffer)
	slog.Debug("copied", "elements", len(els))
}

// Paste reads the clipboard off the engine goroutine. The view rotation is
// taken now, so the image lands upright for the view it was pasted into.
func (h host) Paste(x, y float64) {
	e := h.e
	rotation := e.vp.Rotation()
	go func() {
		ctx, cancel := context.WithTimeout(e.ctx, clipboardTimeout)
		defer cancel()
		bmp, err := e.clip.ReadImage(ctx)
		e.post(func() { e.finishPaste(bmp, err, x, y, rotation) })
	}()
}

func (h host) Save() {
	h.e.Save()
}

func (h host) Invalidate(persistent bool) {
	if persistent {
		h.e.dirtyPersistent = true
	}
	h.e.dirtyTransient = true
}

func (h host) SelectionChanged() {
	h.e.selectionUpdated()
}

func (e *Engine) finishPaste(bmp *document.Bitmap, err error, x, y, rotation float64) {
	switch {
	case err == nil:
		el := document.NewImage(bmp, x, y, rotation)
		if err := e.history.Execute(command.NewAddElement(e.store, el)); err != nil {
			slog.Error("paste image", "error", err)
			return
		}
		e.selection.Replace([]string{el.ID}, el.ID)
		e.selectionUpdated()
		slog.Info("pasted image", "id", el.ID, "width", bmp.Width(), "height", bmp.Height())
	case errors.Is(err, clipboard.ErrNoImage):
		e.pasteDuplicates()
	case errors.Is(err, context.Canceled):
	default:
		slog.Warn("read clipboard", "error", err)
		e.pasteDuplicates()
	}
}

// pasteDuplicates adds fresh copies of the copy buffer, nudged down and to
// the right on screen, as one undoable step.
func (e *Engine) pasteDuplicates() {
	if len(e.copyBuffer) == 0 {
		return
	}
	dx, dy := e.vp.SurfaceDeltaToWorld(pasteOffset, pasteOffset)
	dups := make([]document.Element, len(e.copyBuffer))
	ids := make([]string, len(e.copyBuffer))
	for i, el := range e.copyBuffer {
		d := el.Duplicate()
		d.Translate(dx, dy)
		dups[i] = d
		ids[i] = d.ID
	}
	if err := e.history.Execute(command.NewAddElements(e.store, dups)); err != nil {
		slog.Error("paste elements", "error", err)
		return
	}
	// Pasting again offsets from the new copies.
	e.copyBuffer = dups
	e.selection.Replace(ids, ids[0])
	e.selectionUpdated()
	slog.Info("pasted elements", "count", len(dups))
}
