package mode

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/sketchboard/internal/notify"
	"github.com/inamate/sketchboard/internal/render"
	"github.com/inamate/sketchboard/internal/viewport"
)

var ErrUnknownMode = errors.New("unknown mode")

// ModeChanged is published when the active mode changes.
type ModeChanged struct {
	Name     string `json:"name"`
	Previous string `json:"previous"`
}

// Manager routes input to the active mode and handles the actions every
// mode shares: history, view rotation and save.
type Manager struct {
	env     *Env
	modes   []Mode
	active  Mode
	changed notify.Topic[ModeChanged]
}

// NewManager registers modes; the first one starts active.
func NewManager(env *Env, modes ...Mode) *Manager {
	m := &Manager{env: env, modes: modes}
	if len(modes) > 0 {
		m.active = modes[0]
		m.active.Activate()
	}
	return m
}

// NewDefaultManager builds the view, draw and render modes over env.
func NewDefaultManager(env *Env) *Manager {
	return NewManager(env, NewViewEdit(env), NewDraw(env), NewRenderOnly(env))
}

func (m *Manager) Changed() *notify.Topic[ModeChanged] { return &m.changed }

func (m *Manager) Env() *Env { return m.env }

func (m *Manager) Active() Mode { return m.active }

func (m *Manager) Names() []string {
	names := make([]string, len(m.modes))
	for i, md := range m.modes {
		names[i] = md.Name()
	}
	return names
}

// SwitchMode activates the named mode. Switching to the active mode does
// nothing. The cursor position carries over.
func (m *Manager) SwitchMode(name string) error {
	if m.active != nil && m.active.Name() == name {
		return nil
	}
	for _, md := range m.modes {
		if md.Name() != name {
			continue
		}
		prev := ""
		if m.active != nil {
			prev = m.active.Name()
			m.active.Deactivate()
		}
		m.active = md
		md.Activate()
		slog.Info("mode changed", "mode", name, "previous", prev)
		m.env.Host.Invalidate(true)
		m.changed.Publish(ModeChanged{Name: name, Previous: prev})
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

func (m *Manager) HandlePointer(ev PointerEvent) {
	if ev.Kind != PointerWheel {
		m.env.setCursor(ev.X, ev.Y)
	}
	if m.active != nil {
		m.active.HandlePointer(ev)
	}
}

// HandleKey translates a key press and runs its action. It reports
// whether the key meant anything.
func (m *Manager) HandleKey(ev KeyEvent) bool {
	a, ok := KeyAction(ev)
	if !ok {
		return false
	}
	m.Do(a)
	return true
}

// Do runs a semantic action, letting the active mode claim it first.
func (m *Manager) Do(a Action) {
	if m.active != nil && m.active.HandleAction(a) {
		return
	}
	switch a {
	case ActionUndo:
		m.history(m.env.History.Undo)
	case ActionRedo:
		m.history(m.env.History.Redo)
	case ActionRotateLeft:
		m.env.Viewport.RotateView(viewport.Left)
	case ActionRotateRight:
		m.env.Viewport.RotateView(viewport.Right)
	case ActionSave:
		m.env.Host.Save()
	default:
		slog.Debug("action ignored", "action", a, "mode", m.activeName())
	}
}

// Frame flushes coalesced pointer moves.
func (m *Manager) Frame() {
	if m.active != nil {
		m.active.Frame()
	}
}

func (m *Manager) Transient() *render.Transient {
	if m.active == nil {
		return nil
	}
	return m.active.Transient()
}

func (m *Manager) Exclude() []string {
	if m.active == nil {
		return nil
	}
	return m.active.Exclude()
}

func (m *Manager) history(step func() error) {
	if err := step(); err != nil {
		slog.Error("history step failed", "error", err)
		return
	}
	// An undo can remove selected elements or vertices.
	store := m.env.Store
	sel := m.env.Selection
	changed := sel.Prune(func(id string) bool {
		_, ok := store.Get(id)
		return ok
	})
	if p := sel.PointIndex(); p >= 0 {
		if el, ok := m.env.primary(); !ok || p >= len(el.Geometries) {
			sel.SelectPoint(-1)
			changed = true
		}
	}
	// Restored snapshots carry the selected flag they had when captured.
	store.SetSelected(sel.IDs())
	if changed {
		m.env.Host.SelectionChanged()
	}
	m.env.Host.Invalidate(false)
}

func (m *Manager) activeName() string {
	if m.active == nil {
		return ""
	}
	return m.active.Name()
}
