// Package engine wires the editing core together. An Engine owns the
// document, the view and the interaction state, and is driven from a single
// goroutine: input calls, actions and the per-frame Tick all run there.
// Work that must leave that goroutine (clipboard reads, storage writes)
// reports back through an inbox that Tick drains.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/inamate/sketchboard/internal/clipboard"
	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/mode"
	"github.com/inamate/sketchboard/internal/notify"
	"github.com/inamate/sketchboard/internal/render"
	"github.com/inamate/sketchboard/internal/selection"
	"github.com/inamate/sketchboard/internal/storage"
	"github.com/inamate/sketchboard/internal/viewport"
)

const inboxSize = 64

// Redraw reports which layers a Tick repainted.
type Redraw struct {
	Persistent bool `json:"persistent"`
	Transient  bool `json:"transient"`
}

func (r Redraw) Any() bool { return r.Persistent || r.Transient }

type Engine struct {
	cfg *config.Config

	vp         *viewport.Viewport
	store      *document.Store
	history    *command.Manager
	selection  *selection.State
	compositor *render.Compositor
	modes      *mode.Manager

	persist storage.Store
	syncer  *storage.Syncer
	clip    clipboard.Clipboard

	ctx    context.Context
	cancel context.CancelFunc
	inbox  chan func()

	copyBuffer []document.Element

	// History version a save captured, set by the syncer once it is stored.
	saved atomic.Pointer[uint64]

	dirtyPersistent bool
	dirtyTransient  bool
	// Layers redrawn outside Tick that no frame has reported yet.
	unreported Redraw

	selectionChanged notify.Topic[selection.Snapshot]
	transientChanged notify.Topic[TransientChanged]
	persistFailed    notify.Topic[PersistFailed]
}

// New builds an engine over persist and clip. Call Load before the first
// Tick to bring in stored elements.
func New(cfg *config.Config, persist storage.Store, clip clipboard.Clipboard) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if persist == nil {
		persist = storage.NewMemory()
	}
	if clip == nil {
		clip = clipboard.NewMemory()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:       cfg,
		vp:        viewport.New(float64(cfg.SurfaceWidth), float64(cfg.SurfaceHeight)),
		store:     document.NewStore(),
		history:   command.NewManager(cfg.HistoryLimit),
		selection: selection.NewState(),
		persist:   persist,
		syncer:    storage.NewSyncer(persist),
		clip:      clip,
		ctx:       ctx,
		cancel:    cancel,
		inbox:     make(chan func(), inboxSize),

		dirtyPersistent: true,
		dirtyTransient:  true,
	}
	e.compositor = render.NewCompositor(e.vp)
	e.modes = mode.NewDefaultManager(&mode.Env{
		Viewport:  e.vp,
		Store:     e.store,
		History:   e.history,
		Selection: e.selection,
		Host:      host{e},
	})
	e.store.SetSink(e.syncer)

	e.store.Changed().Subscribe(func(document.ElementsChanged) {
		e.dirtyPersistent = true
		e.dirtyTransient = true
	})
	e.vp.Changed().Subscribe(func(s viewport.State) {
		e.dirtyPersistent = true
		e.dirtyTransient = true
		e.syncer.PutViewport(s)
	})
	e.modes.Changed().Subscribe(func(mode.ModeChanged) {
		e.dirtyTransient = true
	})
	return e
}

// Events returns the notification topics.
func (e *Engine) Events() Events {
	return Events{
		Selection:      &e.selectionChanged,
		Elements:       e.store.Changed(),
		Viewport:       e.vp.Changed(),
		Transient:      &e.transientChanged,
		RenderStrategy: e.compositor.StrategyChanged(),
		Stack:          e.history.Changed(),
		Mode:           e.modes.Changed(),
		PersistFailed:  &e.persistFailed,
	}
}

func (e *Engine) HandlePointer(ev mode.PointerEvent) {
	e.modes.HandlePointer(ev)
}

// HandleKey reports whether the key mapped to an action.
func (e *Engine) HandleKey(ev mode.KeyEvent) bool {
	return e.modes.HandleKey(ev)
}

func (e *Engine) Do(a mode.Action) {
	e.modes.Do(a)
}

func (e *Engine) SwitchMode(name string) error {
	return e.modes.SwitchMode(name)
}

func (e *Engine) Mode() string {
	return e.modes.Active().Name()
}

func (e *Engine) Modes() []string {
	return e.modes.Names()
}

func (e *Engine) SetStrategy(name string) error {
	s, err := render.LookupStrategy(name)
	if err != nil {
		return err
	}
	if s.Name() != e.compositor.Strategy().Name() {
		e.compositor.SetStrategy(s)
		e.dirtyPersistent = true
	}
	return nil
}

func (e *Engine) Strategy() string {
	return e.compositor.Strategy().Name()
}

// Resize changes the surface size in pixels.
func (e *Engine) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize to %dx%d: size must be positive", width, height)
	}
	e.vp.Resize(float64(width), float64(height))
	if err := e.compositor.Resize(); err != nil {
		return err
	}
	e.dirtyPersistent = true
	e.dirtyTransient = true
	return nil
}

// Tick runs one frame: async results are applied, coalesced pointer moves
// are flushed, and dirty layers are redrawn.
func (e *Engine) Tick() Redraw {
	e.drain()
	e.modes.Frame()
	r := e.redraw()
	r.Persistent = r.Persistent || e.unreported.Persistent
	r.Transient = r.Transient || e.unreported.Transient
	e.unreported = Redraw{}
	return r
}

func (e *Engine) drain() {
	e.ApplySaved()
	for {
		select {
		case fn := <-e.inbox:
			fn()
		case err, ok := <-e.syncer.Errors():
			if !ok {
				return
			}
			e.reportPersist(err)
		default:
			return
		}
	}
}

func (e *Engine) reportPersist(err error) {
	ev := PersistFailed{Op: "write", Error: err.Error()}
	var perr *storage.PersistError
	if errors.As(err, &perr) {
		ev.Op, ev.ID, ev.Error = perr.Op, perr.ID, perr.Err.Error()
	}
	e.persistFailed.Publish(ev)
}

func (e *Engine) redraw() Redraw {
	var r Redraw
	if e.dirtyPersistent {
		e.dirtyPersistent = false
		if err := e.compositor.RenderPersistent(e.store.All(), e.modes.Exclude()); err != nil {
			slog.Error("render persistent layers", "error", err)
		}
		r.Persistent = true
	}
	if e.dirtyTransient {
		e.dirtyTransient = false
		if err := e.compositor.RenderTransient(e.modes.Transient()); err != nil {
			slog.Error("render transient layer", "error", err)
		}
		r.Transient = true
		e.transientChanged.Publish(TransientChanged{
			Mode:     e.Mode(),
			Commands: len(e.compositor.DisplayList(render.LayerTransient)),
		})
	}
	return r
}

// post queues fn for the engine goroutine. It gives up once the engine is
// closed.
func (e *Engine) post(fn func()) {
	select {
	case e.inbox <- fn:
	case <-e.ctx.Done():
	}
}

// Load replaces the document and view with what storage holds. An empty
// store is seeded with the sample drawing when configured.
func (e *Engine) Load(ctx context.Context) error {
	els, err := e.persist.Elements(ctx)
	if err != nil {
		return fmt.Errorf("load elements: %w", err)
	}
	if err := e.store.Load(els); err != nil {
		return fmt.Errorf("load elements: %w", err)
	}
	if len(els) == 0 && e.cfg.SeedSample {
		if err := e.store.AddAll(document.SampleElements()); err != nil {
			return fmt.Errorf("seed sample: %w", err)
		}
		slog.Info("seeded sample drawing")
	}

	state, err := e.persist.Viewport(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		state = viewport.DefaultState()
	case err != nil:
		return fmt.Errorf("load viewport: %w", err)
	}
	e.vp.Restore(state)

	e.history.Clear()
	e.selection.Clear()
	e.selectionUpdated()
	e.dirtyPersistent = true
	e.dirtyTransient = true
	slog.Info("document loaded", "elements", e.store.Len())
	return nil
}

// Save queues a full replacement of the stored document. It does not wait
// for the write. The history is cleared on a later Tick once the write has
// succeeded, unless it changed in the meantime.
func (e *Engine) Save() {
	version := e.history.Version()
	e.syncer.ReplaceAll(e.store.All(), func(err error) {
		if err == nil {
			e.saved.Store(&version)
		}
	})
	e.syncer.PutViewport(e.vp.State())
	slog.Info("document save queued", "elements", e.store.Len())
}

// SaveAll saves and waits for storage to catch up.
func (e *Engine) SaveAll(ctx context.Context) error {
	e.Save()
	if err := e.Flush(ctx); err != nil {
		return err
	}
	e.drain()
	return nil
}

// ApplySaved clears the history if a save has been stored since the last
// call and nothing was edited after it was queued.
func (e *Engine) ApplySaved() {
	v := e.saved.Swap(nil)
	if v == nil {
		return
	}
	if *v != e.history.Version() {
		slog.Debug("history changed while saving, kept")
		return
	}
	e.history.Clear()
	slog.Info("document saved", "elements", e.store.Len())
}

// Flush waits for queued storage writes. Unlike the other methods it may
// be called from any goroutine.
func (e *Engine) Flush(ctx context.Context) error {
	return e.syncer.Flush(ctx)
}

// Reset empties the document and returns the view to its default.
func (e *Engine) Reset(ctx context.Context) error {
	if active := e.modes.Active(); active != nil {
		active.Deactivate()
		active.Activate()
	}
	e.store.Clear()
	e.vp.Reset()
	e.history.Clear()
	e.selection.Clear()
	e.copyBuffer = nil
	e.selectionUpdated()
	slog.Info("document reset")
	return e.Flush(ctx)
}

// AddImage places bmp at the world point under the surface center, turned
// to match the view.
func (e *Engine) AddImage(bmp *document.Bitmap) (string, error) {
	w, h := e.vp.Size()
	x, y := e.vp.ToWorld(w/2, h/2)
	el := document.NewImage(bmp, x, y, e.vp.Rotation())
	if err := e.history.Execute(command.NewAddElement(e.store, el)); err != nil {
		return "", err
	}
	return el.ID, nil
}

// CenterOnNearest centers the view on the element whose anchor centroid is
// closest to the current view center. It reports false when there are no
// elements.
func (e *Engine) CenterOnNearest() bool {
	w, h := e.vp.Size()
	cx, cy := e.vp.ToWorld(w/2, h/2)

	best := math.Inf(1)
	var bx, by float64
	for _, el := range e.store.All() {
		pts := el.Anchors()
		if len(pts) == 0 {
			continue
		}
		var ax, ay float64
		for _, p := range pts {
			ax += p.X
			ay += p.Y
		}
		ax /= float64(len(pts))
		ay /= float64(len(pts))
		if d := math.Hypot(ax-cx, ay-cy); d < best {
			best, bx, by = d, ax, ay
		}
	}
	if math.IsInf(best, 1) {
		return false
	}
	e.vp.CenterOn(bx, by)
	return true
}

func (e *Engine) RotateView(dir viewport.Direction) {
	e.vp.RotateView(dir)
}

func (e *Engine) ExportPNG(w io.Writer) error {
	r := e.redraw()
	e.unreported.Persistent = e.unreported.Persistent || r.Persistent
	e.unreported.Transient = e.unreported.Transient || r.Transient
	return e.compositor.ExportPNG(w)
}

func (e *Engine) ExportPDF(w io.Writer) error {
	return e.compositor.ExportPDF(w, e.store.All(), e.cfg.PDFPage)
}

func (e *Engine) Elements() []document.Element {
	return e.store.All()
}

func (e *Engine) Element(id string) (document.Element, bool) {
	return e.store.Get(id)
}

func (e *Engine) Viewport() viewport.State {
	return e.vp.State()
}

func (e *Engine) Size() (int, int) {
	w, h := e.vp.Size()
	return int(w), int(h)
}

func (e *Engine) Selection() selection.Snapshot {
	return e.selection.Snapshot()
}

func (e *Engine) History() command.StackChanged {
	return e.history.State()
}

// DisplayLists returns the last compiled list of every layer, bottom first.
func (e *Engine) DisplayLists() map[string][]render.DrawCommand {
	out := make(map[string][]render.DrawCommand, 3)
	for _, l := range []render.Layer{render.LayerBackground, render.LayerData, render.LayerTransient} {
		out[l.String()] = e.compositor.DisplayList(l)
	}
	return out
}

func (e *Engine) RenderStats() render.Stats {
	return e.compositor.Stats()
}

// Compose flattens the layers into one image for display.
func (e *Engine) Compose(withTransient bool) *image.RGBA {
	return e.compositor.Compose(nil, withTransient)
}

// Close stops background work and waits for queued writes. The storage
// backend is left open for its owner to close.
func (e *Engine) Close() {
	e.cancel()
	e.syncer.Close()
	if err := e.compositor.Close(); err != nil {
		slog.Warn("close compositor", "error", err)
	}
}

func (e *Engine) selectionUpdated() {
	e.store.SetSelected(e.selection.IDs())
	e.dirtyTransient = true
	e.selectionChanged.Publish(e.selection.Snapshot())
}
