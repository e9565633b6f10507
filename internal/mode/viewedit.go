package mode

import (
	"math"
	"slices"

	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/render"
	"github.com/inamate/sketchboard/internal/selection"
	"github.com/inamate/sketchboard/internal/viewport"
)

// dragThreshold is how far, in surface pixels, a pressed pointer travels
// before a click becomes a pan.
const dragThreshold = 2.0

type gesture int

const (
	gestureNone gesture = iota
	gesturePress
	gesturePan
	gesturePointDrag
	gestureMarquee
)

// ViewEdit selects, pans, box-selects, moves and edits Line vertices.
type ViewEdit struct {
	env  *Env
	hand bool

	gesture      gesture
	downX, downY float64
	lastX, lastY float64
	pending      *[2]float64

	dragID    string
	dragIndex int
	dragCopy  *document.Element
	dragMoved bool

	marquee *viewport.Rect

	moving     bool
	moveX      float64
	moveY      float64
	moveOrig   []document.Element
	moveGhosts []document.Element
}

func NewViewEdit(env *Env) *ViewEdit {
	return &ViewEdit{env: env}
}

func (m *ViewEdit) Name() string { return "view" }

func (m *ViewEdit) Activate() {}

func (m *ViewEdit) Deactivate() {
	m.cancel()
	m.hand = false
}

// Hand reports whether the pan-only toggle is on.
func (m *ViewEdit) Hand() bool { return m.hand }

// Moving reports whether a move is in progress.
func (m *ViewEdit) Moving() bool { return m.moving }

func (m *ViewEdit) HandlePointer(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		m.down(ev)
	case PointerMove:
		m.move(ev)
	case PointerUp:
		m.up(ev)
	case PointerDoubleClick:
		if ev.Button == ButtonPrimary && !m.hand && !m.moving {
			m.doubleClick(ev.X, ev.Y)
		}
	case PointerWheel:
		m.env.Viewport.ZoomStep(ev.X, ev.Y, ev.WheelDelta)
	}
}

func (m *ViewEdit) down(ev PointerEvent) {
	if m.moving {
		if ev.Button == ButtonPrimary {
			m.pending = &[2]float64{ev.X, ev.Y}
			m.Frame()
			m.commitMove()
		}
		return
	}
	m.downX, m.downY = ev.X, ev.Y
	m.lastX, m.lastY = ev.X, ev.Y
	m.pending = nil

	switch {
	case ev.Button == ButtonSecondary && !m.hand:
		m.gesture = gestureMarquee
		m.marquee = &viewport.Rect{X: ev.X, Y: ev.Y}
		m.env.Host.Invalidate(false)
	case ev.Button == ButtonPrimary && !m.hand && !ev.Mods.Shift && !ev.Mods.Ctrl && m.startPointDrag(ev.X, ev.Y):
		m.gesture = gesturePointDrag
	case ev.Button == ButtonPrimary:
		m.gesture = gesturePress
	}
}

// startPointDrag begins a vertex drag when (x, y) grabs a vertex of the
// primary Line.
func (m *ViewEdit) startPointDrag(x, y float64) bool {
	el, ok := m.env.primary()
	if !ok || el.Type != document.TypeLine {
		return false
	}
	idx := selection.VertexAt(m.env.Viewport, &el, x, y)
	if idx < 0 {
		return false
	}
	m.env.Selection.SelectPoint(idx)
	m.dragID, m.dragIndex, m.dragCopy = el.ID, idx, &el
	m.env.Host.SelectionChanged()
	m.env.Host.Invalidate(true)
	return true
}

func (m *ViewEdit) move(ev PointerEvent) {
	beyond := math.Hypot(ev.X-m.downX, ev.Y-m.downY) > dragThreshold
	switch {
	case m.moving:
	case m.gesture == gesturePress:
		if !beyond {
			return
		}
		m.gesture = gesturePan
	case m.gesture == gesturePointDrag && !m.dragMoved:
		if !beyond {
			return
		}
		m.dragMoved = true
	case m.gesture == gestureNone:
		return
	}
	m.pending = &[2]float64{ev.X, ev.Y}
}

// Frame applies the latest recorded pointer position.
func (m *ViewEdit) Frame() {
	if m.pending == nil {
		return
	}
	x, y := m.pending[0], m.pending[1]
	m.pending = nil
	vp := m.env.Viewport

	if m.moving {
		dx, dy := vp.SurfaceDeltaToWorld(x-m.moveX, y-m.moveY)
		for i := range m.moveGhosts {
			m.moveGhosts[i] = m.moveOrig[i].Clone()
			m.moveGhosts[i].Translate(dx, dy)
		}
		m.env.Host.Invalidate(false)
		return
	}

	switch m.gesture {
	case gesturePan:
		vp.Pan(x-m.lastX, y-m.lastY)
	case gesturePointDrag:
		wx, wy := vp.ToWorld(x, y)
		p := &m.dragCopy.Geometries[m.dragIndex]
		p.X, p.Y = wx, wy
		m.env.Host.Invalidate(false)
	case gestureMarquee:
		r := viewport.RectFromPoints(m.downX, m.downY, x, y)
		m.marquee = &r
		m.env.Host.Invalidate(false)
	}
	m.lastX, m.lastY = x, y
}

func (m *ViewEdit) up(ev PointerEvent) {
	if m.moving {
		return
	}
	if m.gesture == gesturePointDrag && !m.dragMoved {
		// A press and release on a vertex only selects it.
		m.clearPointDrag()
		m.gesture = gestureNone
		return
	}
	if m.gesture != gesturePress {
		m.pending = &[2]float64{ev.X, ev.Y}
		m.Frame()
	}

	switch m.gesture {
	case gesturePress:
		if !m.hand {
			m.click(ev.X, ev.Y, ev.Mods)
		}
	case gesturePointDrag:
		m.commitPointDrag()
	case gestureMarquee:
		m.selectMarquee()
	}
	m.gesture = gestureNone
}

func (m *ViewEdit) click(x, y float64, mods Mods) {
	sel := m.env.Selection
	hit := selection.PointHitTest(m.env.Viewport, m.env.Store.All(), x, y)

	switch {
	case hit == nil && (mods.Ctrl || mods.Shift):
		return
	case hit == nil:
		if sel.IsEmpty() {
			return
		}
		sel.Clear()
	case mods.Ctrl:
		sel.Add(hit.ID)
	case mods.Shift:
		sel.Remove(hit.ID)
	case sel.Contains(hit.ID) && hit.Type == document.TypeLine:
		if sel.Primary() != hit.ID {
			sel.Add(hit.ID)
		}
		sel.SelectPoint(selection.VertexAt(m.env.Viewport, hit, x, y))
	default:
		sel.Replace([]string{hit.ID}, hit.ID)
	}
	m.env.Host.SelectionChanged()
	m.env.Host.Invalidate(false)
}

func (m *ViewEdit) doubleClick(x, y float64) {
	el, ok := m.env.primary()
	if !ok || el.Type != document.TypeLine {
		return
	}
	vp := m.env.Viewport
	if idx := selection.VertexAt(vp, &el, x, y); idx >= 0 {
		m.env.Selection.SelectPoint(idx)
		m.env.Host.SelectionChanged()
		m.env.Host.Invalidate(false)
		return
	}
	idx := selection.InsertionIndex(vp, &el, x, y)
	if idx < 0 {
		return
	}
	wx, wy := vp.ToWorld(x, y)
	if m.env.execute(command.NewAddPoint(m.env.Store, el.ID, idx, document.Point{X: wx, Y: wy})) {
		m.env.Selection.SelectPoint(idx)
		m.env.Host.SelectionChanged()
	}
}

func (m *ViewEdit) commitPointDrag() {
	to := m.dragCopy.Geometries[m.dragIndex]
	id, idx := m.dragID, m.dragIndex
	m.clearPointDrag()
	if el, ok := m.env.Store.Get(id); ok && idx < len(el.Geometries) && el.Geometries[idx] == to {
		return
	}
	m.env.execute(command.NewMovePoint(m.env.Store, id, idx, to))
}

func (m *ViewEdit) clearPointDrag() {
	if m.dragCopy == nil {
		return
	}
	m.dragID, m.dragIndex, m.dragCopy, m.dragMoved = "", 0, nil, false
	m.env.Host.Invalidate(true)
}

func (m *ViewEdit) selectMarquee() {
	r := m.marquee
	m.marquee = nil
	m.env.Host.Invalidate(false)
	if r == nil {
		return
	}
	hits := selection.RectHitTest(m.env.Viewport, m.env.Store.All(), *r)
	ids := make([]string, len(hits))
	for i, el := range hits {
		ids[i] = el.ID
	}
	m.env.Selection.Replace(ids, "")
	m.env.Host.SelectionChanged()
}

func (m *ViewEdit) HandleAction(a Action) bool {
	switch a {
	case ActionDelete:
		// A live vertex drag holds an index that deleting would shift.
		m.cancel()
		m.deleteSelection()
	case ActionCopy:
		if els := m.env.selected(); len(els) > 0 {
			m.env.Host.Copy(els)
		}
	case ActionPaste:
		x, y, _ := m.env.Cursor()
		m.env.Host.Paste(m.env.Viewport.ToWorld(x, y))
	case ActionEnterMoveMode:
		m.enterMove()
	case ActionConfirm:
		if !m.moving {
			return false
		}
		m.commitMove()
	case ActionCancel:
		m.escape()
	case ActionToggleHand:
		m.cancel()
		m.hand = !m.hand
	case ActionUndo, ActionRedo:
		// History must not change under a live copy.
		m.cancel()
		return false
	default:
		return false
	}
	return true
}

func (m *ViewEdit) deleteSelection() {
	sel := m.env.Selection
	if el, ok := m.env.primary(); ok && el.Type == document.TypeLine && sel.PointIndex() >= 0 {
		if m.env.execute(command.NewDeletePoint(m.env.Store, el.ID, sel.PointIndex())) {
			sel.SelectPoint(-1)
			m.env.Host.SelectionChanged()
		}
		return
	}
	if sel.IsEmpty() {
		return
	}
	if m.env.execute(command.NewDeleteElements(m.env.Store, sel.IDs())) {
		sel.Clear()
		m.env.Host.SelectionChanged()
	}
}

func (m *ViewEdit) enterMove() {
	if m.moving {
		return
	}
	els := m.env.selected()
	if len(els) == 0 {
		return
	}
	m.cancel()
	m.moving = true
	m.moveX, m.moveY, _ = m.env.Cursor()
	m.moveOrig = els
	m.moveGhosts = make([]document.Element, len(els))
	for i, el := range els {
		m.moveGhosts[i] = el.Clone()
	}
	m.env.Host.Invalidate(true)
}

func (m *ViewEdit) commitMove() {
	moves := make([]command.Move, len(m.moveOrig))
	unchanged := true
	for i := range m.moveOrig {
		before, after := m.moveOrig[i].Placement(), m.moveGhosts[i].Placement()
		moves[i] = command.Move{ID: m.moveOrig[i].ID, Before: before, After: after}
		if !samePlacement(before, after) {
			unchanged = false
		}
	}
	m.endMove()
	if !unchanged {
		m.env.execute(command.NewMoveElements(m.env.Store, moves))
	}
}

func (m *ViewEdit) endMove() {
	if !m.moving {
		return
	}
	m.moving = false
	m.moveOrig, m.moveGhosts = nil, nil
	m.pending = nil
	m.env.Host.Invalidate(true)
}

// escape cancels the gesture in progress, or clears the selection when
// there is none.
func (m *ViewEdit) escape() {
	if m.moving || m.gesture != gestureNone {
		m.cancel()
		return
	}
	sel := m.env.Selection
	switch {
	case sel.PointIndex() >= 0:
		sel.SelectPoint(-1)
	case !sel.IsEmpty():
		sel.Clear()
	default:
		return
	}
	m.env.Host.SelectionChanged()
	m.env.Host.Invalidate(false)
}

// cancel drops every live gesture without issuing commands.
func (m *ViewEdit) cancel() {
	m.endMove()
	m.clearPointDrag()
	if m.marquee != nil {
		m.marquee = nil
		m.env.Host.Invalidate(false)
	}
	m.gesture = gestureNone
	m.pending = nil
}

func (m *ViewEdit) Transient() *render.Transient {
	t := &render.Transient{
		PrimaryID:  m.env.Selection.Primary(),
		PointIndex: m.env.Selection.PointIndex(),
		Marquee:    m.marquee,
	}
	t.Selected = m.env.selected()
	if m.dragCopy != nil {
		for i := range t.Selected {
			if t.Selected[i].ID == m.dragID {
				t.Selected[i] = m.dragCopy.Clone()
			}
		}
	}
	if m.moving {
		t.Moving = make([]document.Element, len(m.moveGhosts))
		for i, el := range m.moveGhosts {
			t.Moving[i] = el.Clone()
		}
	}
	return t
}

func (m *ViewEdit) Exclude() []string {
	switch {
	case m.moving:
		ids := make([]string, len(m.moveOrig))
		for i, el := range m.moveOrig {
			ids[i] = el.ID
		}
		return ids
	case m.dragCopy != nil:
		return []string{m.dragID}
	}
	return nil
}

func samePlacement(a, b document.Placement) bool {
	return a.X == b.X && a.Y == b.Y && slices.Equal(a.Geometries, b.Geometries)
}
