package mode

import "github.com/inamate/sketchboard/internal/render"

// RenderOnly is a preview mode: the view can be panned, zoomed and turned
// but nothing is selected or edited.
type RenderOnly struct {
	env          *Env
	pressed      bool
	lastX, lastY float64
	pending      *[2]float64
}

func NewRenderOnly(env *Env) *RenderOnly {
	return &RenderOnly{env: env}
}

func (m *RenderOnly) Name() string { return "render" }

func (m *RenderOnly) Activate() {}

func (m *RenderOnly) Deactivate() {
	m.pressed = false
	m.pending = nil
}

func (m *RenderOnly) HandlePointer(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		m.pressed = true
		m.lastX, m.lastY = ev.X, ev.Y
	case PointerMove:
		if m.pressed {
			m.pending = &[2]float64{ev.X, ev.Y}
		}
	case PointerUp:
		if m.pressed {
			m.pending = &[2]float64{ev.X, ev.Y}
			m.Frame()
		}
		m.pressed = false
	case PointerWheel:
		m.env.Viewport.ZoomStep(ev.X, ev.Y, ev.WheelDelta)
	}
}

// HandleAction claims history and editing actions so preview never
// changes the document. View rotation and save fall through to the manager.
func (m *RenderOnly) HandleAction(a Action) bool {
	switch a {
	case ActionRotateLeft, ActionRotateRight, ActionSave:
		return false
	}
	return true
}

func (m *RenderOnly) Frame() {
	if m.pending == nil {
		return
	}
	x, y := m.pending[0], m.pending[1]
	m.pending = nil
	m.env.Viewport.Pan(x-m.lastX, y-m.lastY)
	m.lastX, m.lastY = x, y
}

func (m *RenderOnly) Transient() *render.Transient { return nil }

func (m *RenderOnly) Exclude() []string { return nil }
