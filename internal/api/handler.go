// Package api exposes engine operations over HTTP. Every call is run on
// the engine loop through a Runner.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/mode"
	"github.com/inamate/sketchboard/internal/render"
	"github.com/inamate/sketchboard/internal/selection"
	"github.com/inamate/sketchboard/internal/session"
	"github.com/inamate/sketchboard/internal/viewport"
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

// StateResponse is returned by every call that changes the board.
type StateResponse struct {
	Mode      string               `json:"mode"`
	Strategy  string               `json:"strategy"`
	Viewport  viewport.State       `json:"viewport"`
	Selection selection.Snapshot   `json:"selection"`
	History   command.StackChanged `json:"history"`
	Elements  int                  `json:"elements"`
}

func stateOf(e *engine.Engine) StateResponse {
	return StateResponse{
		Mode:      e.Mode(),
		Strategy:  e.Strategy(),
		Viewport:  e.Viewport(),
		Selection: e.Selection(),
		History:   e.History(),
		Elements:  len(e.Elements()),
	}
}

// Register mounts the routes on r, which is expected to be the /api
// subrouter.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/state", h.State).Methods("GET")
	r.HandleFunc("/elements", h.Elements).Methods("GET")
	r.HandleFunc("/viewport", h.Viewport).Methods("GET")
	r.HandleFunc("/actions/{action}", h.Action).Methods("POST")
	r.HandleFunc("/mode/{name}", h.Mode).Methods("POST")
	r.HandleFunc("/strategy/{name}", h.Strategy).Methods("POST")
	r.HandleFunc("/viewport/rotate/{direction}", h.Rotate).Methods("POST")
	r.HandleFunc("/viewport/center", h.Center).Methods("POST")
	r.HandleFunc("/save", h.Save).Methods("POST")
	r.HandleFunc("/reset", h.Reset).Methods("POST")
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(*engine.Engine) error { return nil })
}

func (h *Handler) Elements(w http.ResponseWriter, r *http.Request) {
	var out any
	err := h.runner.Do(r.Context(), func(e *engine.Engine) error {
		out = e.Elements()
		return nil
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Viewport(w http.ResponseWriter, r *http.Request) {
	var out viewport.State
	err := h.runner.Do(r.Context(), func(e *engine.Engine) error {
		out = e.Viewport()
		return nil
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	a, err := mode.ParseAction(mux.Vars(r)["action"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.mutate(w, r, func(e *engine.Engine) error {
		e.Do(a)
		return nil
	})
}

func (h *Handler) Mode(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.mutate(w, r, func(e *engine.Engine) error {
		return e.SwitchMode(name)
	})
}

func (h *Handler) Strategy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.mutate(w, r, func(e *engine.Engine) error {
		return e.SetStrategy(name)
	})
}

func (h *Handler) Rotate(w http.ResponseWriter, r *http.Request) {
	dir, err := viewport.ParseDirection(mux.Vars(r)["direction"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.mutate(w, r, func(e *engine.Engine) error {
		e.RotateView(dir)
		return nil
	})
}

func (h *Handler) Center(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(e *engine.Engine) error {
		e.CenterOnNearest()
		return nil
	})
}

// Save queues the write on the loop, then waits for storage here so the
// loop keeps ticking meanwhile.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var eng *engine.Engine
	err := h.runner.Do(r.Context(), func(e *engine.Engine) error {
		e.Save()
		eng = e
		return nil
	})
	if err == nil {
		err = eng.Flush(r.Context())
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.mutate(w, r, func(e *engine.Engine) error {
		e.ApplySaved()
		return nil
	})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(e *engine.Engine) error {
		return e.Reset(r.Context())
	})
}

// mutate runs fn on the loop and answers with the resulting state.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*engine.Engine) error) {
	var state StateResponse
	err := h.runner.Do(r.Context(), func(e *engine.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		state = stateOf(e)
		return nil
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mode.ErrUnknownMode):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown mode"})
	case errors.Is(err, render.ErrUnknownStrategy):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown render strategy"})
	case errors.Is(err, mode.ErrUnknownAction):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown action"})
	case errors.Is(err, viewport.ErrBadDirection):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "direction must be left or right"})
	case errors.Is(err, session.ErrStopped):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "shutting down"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "timed out"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
