package mode

import (
	"math"
	"slices"
	"time"

	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/render"
)

const (
	// clickLimit is the largest per-axis travel, in surface pixels, for a
	// press and release to count as placing a vertex.
	clickLimit = 4.0
	// sampleInterval is the minimum time between recorded pen points.
	sampleInterval = 10 * time.Millisecond
)

// Draw builds new Lines vertex by vertex with the mouse, or freehand Paths
// in pen mode.
type Draw struct {
	env *Env
	pen bool

	points []document.Point
	cursor *render.Cursor

	pressed      bool
	downX, downY float64
	lastX, lastY float64
	pending      *[2]float64

	stroking   bool
	lastSample time.Time
}

func NewDraw(env *Env) *Draw {
	return &Draw{env: env}
}

func (m *Draw) Name() string { return "draw" }

func (m *Draw) Activate() {
	if x, y, ok := m.env.Cursor(); ok {
		m.cursor = &render.Cursor{X: x, Y: y}
	}
	m.env.Host.Invalidate(false)
}

func (m *Draw) Deactivate() {
	m.discard()
	m.cursor = nil
	m.pressed = false
	m.pending = nil
}

// PenMode reports whether freehand drawing is on.
func (m *Draw) PenMode() bool { return m.pen }

// Points returns the in-progress vertices.
func (m *Draw) Points() []document.Point { return slices.Clone(m.points) }

func (m *Draw) HandlePointer(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		m.down(ev)
	case PointerMove:
		m.cursor = &render.Cursor{X: ev.X, Y: ev.Y}
		if m.stroking {
			m.sample(ev)
		} else if m.pressed {
			m.pending = &[2]float64{ev.X, ev.Y}
		}
		m.env.Host.Invalidate(false)
	case PointerUp:
		m.up(ev)
	case PointerDoubleClick:
		if !m.pen && ev.Button == ButtonPrimary {
			m.finishLine()
		}
	case PointerWheel:
		m.env.Viewport.ZoomStep(ev.X, ev.Y, ev.WheelDelta)
	}
}

func (m *Draw) down(ev PointerEvent) {
	if ev.Pen || (m.pen && ev.Button == ButtonPrimary) {
		m.stroking = true
		m.points = m.points[:0]
		m.record(ev)
		return
	}
	// Mouse mode pans with the primary button, pen mode with the secondary.
	if (ev.Button == ButtonPrimary) != m.pen {
		m.pressed = true
		m.downX, m.downY = ev.X, ev.Y
		m.lastX, m.lastY = ev.X, ev.Y
	}
}

func (m *Draw) up(ev PointerEvent) {
	if m.stroking {
		m.sample(ev)
		m.stroking = false
		m.finishStroke()
		return
	}
	if !m.pressed {
		return
	}
	m.pending = &[2]float64{ev.X, ev.Y}
	m.Frame()
	m.pressed = false
	if m.pen || math.Abs(ev.X-m.downX) >= clickLimit || math.Abs(ev.Y-m.downY) >= clickLimit {
		return
	}
	wx, wy := m.env.Viewport.ToWorld(ev.X, ev.Y)
	p := document.Point{X: wx, Y: wy}
	if n := len(m.points); n > 0 && m.points[n-1] == p {
		return
	}
	m.points = append(m.points, p)
	m.env.Host.Invalidate(false)
}

// sample records a pen point unless the previous one is too recent.
func (m *Draw) sample(ev PointerEvent) {
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}
	if at.Sub(m.lastSample) <= sampleInterval {
		return
	}
	m.record(ev)
}

func (m *Draw) record(ev PointerEvent) {
	wx, wy := m.env.Viewport.ToWorld(ev.X, ev.Y)
	m.points = append(m.points, document.Point{X: wx, Y: wy, Pressure: ev.Pressure})
	m.lastSample = ev.Time
	if m.lastSample.IsZero() {
		m.lastSample = time.Now()
	}
}

func (m *Draw) Frame() {
	if m.pending == nil {
		return
	}
	x, y := m.pending[0], m.pending[1]
	m.pending = nil
	m.env.Viewport.Pan(x-m.lastX, y-m.lastY)
	m.lastX, m.lastY = x, y
}

func (m *Draw) finishLine() {
	if len(m.points) < 2 {
		return
	}
	el := document.NewLine(m.points)
	m.points = nil
	m.env.execute(command.NewAddElement(m.env.Store, el), nil)
	m.env.Host.Invalidate(false)
}

func (m *Draw) finishStroke() {
	pts := m.points
	m.points = nil
	m.env.Host.Invalidate(false)
	if len(pts) < 2 {
		return
	}
	el := document.NewPath(chaikin(pts, smoothIterations), document.DefaultPathColor, document.DefaultPathWidth, true)
	m.env.execute(command.NewAddElement(m.env.Store, el), nil)
}

func (m *Draw) discard() {
	m.points = nil
	m.stroking = false
	m.env.Host.Invalidate(false)
}

func (m *Draw) HandleAction(a Action) bool {
	switch a {
	case ActionConfirm:
		m.finishLine()
	case ActionCancel:
		m.discard()
	case ActionTogglePen:
		m.pen = !m.pen
		m.pressed = false
		m.discard()
	case ActionUndo:
		switch {
		case m.stroking:
			m.discard()
		case len(m.points) > 0:
			m.points = m.points[:len(m.points)-1]
			m.env.Host.Invalidate(false)
		default:
			return false
		}
	case ActionPaste:
		w, h := m.env.Viewport.Size()
		m.env.Host.Paste(m.env.Viewport.ToWorld(w/2, h/2))
	default:
		return false
	}
	return true
}

func (m *Draw) Transient() *render.Transient {
	if len(m.points) == 0 && m.cursor == nil {
		return nil
	}
	var cursor *render.Cursor
	if m.cursor != nil {
		c := *m.cursor
		cursor = &c
	}
	return &render.Transient{
		PointIndex: -1,
		Draw: &render.DrawPreview{
			Points:  slices.Clone(m.points),
			Cursor:  cursor,
			PenMode: m.pen,
		},
	}
}

func (m *Draw) Exclude() []string { return nil }
