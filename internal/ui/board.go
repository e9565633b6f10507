package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/mode"
)

// Board shows the composed engine layers and feeds it pointer input. All
// of its methods run on the Fyne main goroutine, which owns the engine.
type Board struct {
	widget.BaseWidget

	eng   *engine.Engine
	image *canvas.Image

	down bool
	last fyne.Position
	mods mode.Mods
}

var _ fyne.Widget = (*Board)(nil)
var _ fyne.Draggable = (*Board)(nil)
var _ fyne.Scrollable = (*Board)(nil)
var _ fyne.DoubleTappable = (*Board)(nil)
var _ desktop.Mouseable = (*Board)(nil)

func NewBoard(eng *engine.Engine) *Board {
	b := &Board{eng: eng}
	b.ExtendBaseWidget(b)

	b.image = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	b.image.FillMode = canvas.ImageFillStretch
	b.image.ScaleMode = canvas.ImageScaleFastest
	return b
}

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.image)
}

func (b *Board) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	w, h := int(size.Width), int(size.Height)
	if w > 0 && h > 0 {
		if err := b.eng.Resize(w, h); err == nil {
			b.Frame()
		}
	}
}

// Frame ticks the engine and repaints when a layer changed.
func (b *Board) Frame() {
	if r := b.eng.Tick(); !r.Any() {
		return
	}
	b.image.Image = b.eng.Compose(true)
	b.image.Refresh()
}

func (b *Board) pointer(kind mode.PointerKind, pos fyne.Position, button mode.Button) {
	b.eng.HandlePointer(mode.PointerEvent{
		Kind:   kind,
		X:      float64(pos.X),
		Y:      float64(pos.Y),
		Button: button,
		Mods:   b.mods,
	})
}

func (b *Board) MouseDown(ev *desktop.MouseEvent) {
	b.mods = modsOf(ev.Modifier)
	b.down = true
	b.last = ev.Position
	b.pointer(mode.PointerDown, ev.Position, buttonOf(ev.Button))
}

func (b *Board) MouseUp(ev *desktop.MouseEvent) {
	b.release(ev.Position, buttonOf(ev.Button))
}

func (b *Board) Dragged(ev *fyne.DragEvent) {
	b.last = ev.Position
	b.pointer(mode.PointerMove, ev.Position, mode.ButtonPrimary)
}

// DragEnd releases the pointer when the driver reports the drag end
// without a matching MouseUp.
func (b *Board) DragEnd() {
	b.release(b.last, mode.ButtonPrimary)
}

func (b *Board) release(pos fyne.Position, button mode.Button) {
	if !b.down {
		return
	}
	b.down = false
	b.pointer(mode.PointerUp, pos, button)
}

func (b *Board) DoubleTapped(ev *fyne.PointEvent) {
	b.pointer(mode.PointerDoubleClick, ev.Position, mode.ButtonPrimary)
}

// Scrolled zooms. Fyne reports scrolling up as positive, which should zoom in.
func (b *Board) Scrolled(ev *fyne.ScrollEvent) {
	b.eng.HandlePointer(mode.PointerEvent{
		Kind:       mode.PointerWheel,
		X:          float64(ev.Position.X),
		Y:          float64(ev.Position.Y),
		WheelDelta: -float64(ev.Scrolled.DY),
	})
}

func buttonOf(btn desktop.MouseButton) mode.Button {
	if btn == desktop.MouseButtonSecondary {
		return mode.ButtonSecondary
	}
	return mode.ButtonPrimary
}

func modsOf(m fyne.KeyModifier) mode.Mods {
	return mode.Mods{
		Shift: m&fyne.KeyModifierShift != 0,
		Ctrl:  m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0,
	}
}

// keyNames maps Fyne key names to the DOM names the modes understand.
var keyNames = map[fyne.KeyName]string{
	fyne.KeyDelete:       "Delete",
	fyne.KeyBackspace:    "Backspace",
	fyne.KeyEscape:       "Escape",
	fyne.KeyReturn:       "Enter",
	fyne.KeyEnter:        "Enter",
	fyne.KeySpace:        " ",
	fyne.KeyLeftBracket:  "[",
	fyne.KeyRightBracket: "]",
	fyne.KeyM:            "m",
	fyne.KeyQ:            "q",
}

func (b *Board) TypedKey(ev *fyne.KeyEvent) {
	name, ok := keyNames[ev.Name]
	if !ok {
		return
	}
	b.eng.HandleKey(mode.KeyEvent{Key: name})
}
