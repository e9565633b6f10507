// Package mode interprets pointer and keyboard input. A mode turns raw
// surface events into viewport changes, selection changes and commands;
// it never edits a stored element except through a command.
package mode

import (
	"errors"
	"log/slog"

	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/render"
	"github.com/inamate/sketchboard/internal/selection"
	"github.com/inamate/sketchboard/internal/viewport"
)

// Mode is one interaction style. Pointer moves are only recorded by
// HandlePointer; Frame applies the latest one, at most once per frame.
type Mode interface {
	Name() string
	Activate()
	// Deactivate drops any gesture in progress without issuing commands.
	Deactivate()
	HandlePointer(ev PointerEvent)
	// HandleAction reports whether the mode consumed a.
	HandleAction(a Action) bool
	Frame()
	Transient() *render.Transient
	// Exclude lists elements the persistent layers must leave out because
	// the transient layer is drawing a live copy.
	Exclude() []string
}

// Host is what a mode asks of its owner for work it cannot do alone.
type Host interface {
	// Copy places elements on the clipboard.
	Copy(els []document.Element)
	// Paste reads the clipboard in the background and adds the result at
	// world (x, y).
	Paste(x, y float64)
	Save()
	// Invalidate schedules a redraw of the transient layer, and of the
	// persistent layers too when persistent is set.
	Invalidate(persistent bool)
	SelectionChanged()
}

// Env is the shared state every mode works against.
type Env struct {
	Viewport  *viewport.Viewport
	Store     *document.Store
	History   *command.Manager
	Selection *selection.State
	Host      Host

	cursorX, cursorY float64
	hasCursor        bool
}

// Cursor is the last pointer position on the surface. Before any pointer
// event it is the surface center and ok is false.
func (e *Env) Cursor() (x, y float64, ok bool) {
	if !e.hasCursor {
		w, h := e.Viewport.Size()
		return w / 2, h / 2, false
	}
	return e.cursorX, e.cursorY, true
}

func (e *Env) setCursor(x, y float64) {
	e.cursorX, e.cursorY, e.hasCursor = x, y, true
}

// execute runs cmd, logging invalid operations instead of failing.
func (e *Env) execute(cmd command.Command, err error) bool {
	if err == nil {
		err = e.History.Execute(cmd)
	}
	if err != nil {
		if errors.Is(err, command.ErrInvalidOperation) {
			slog.Debug("operation rejected", "error", err)
		} else {
			slog.Error("command failed", "error", err)
		}
		return false
	}
	return true
}

// selected returns store copies of the selected elements in selection order.
func (e *Env) selected() []document.Element {
	ids := e.Selection.IDs()
	out := make([]document.Element, 0, len(ids))
	for _, id := range ids {
		if el, ok := e.Store.Get(id); ok {
			out = append(out, el)
		}
	}
	return out
}

func (e *Env) primary() (document.Element, bool) {
	id := e.Selection.Primary()
	if id == "" {
		return document.Element{}, false
	}
	return e.Store.Get(id)
}
