// Package render turns the element store and the interaction state into
// pixels. Three stacked layers are kept: background for images, data for
// strokes, transient for selection and previews. Each layer is compiled to
// a display list, then rasterized with gg.
package render

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"slices"

	"github.com/gogpu/gg"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/notify"
	"github.com/inamate/sketchboard/internal/viewport"
)

// Stats describes the last persistent pass.
type Stats struct {
	Commands int `json:"commands"`
	Culled   int `json:"culled"`
	Excluded int `json:"excluded"`
}

// Compositor owns the layer surfaces. It is not safe for concurrent use;
// the engine drives it from a single goroutine.
type Compositor struct {
	vp       *viewport.Viewport
	strategy Strategy
	layers   [layerCount]*gg.Context
	lists    [layerCount][]DrawCommand
	bitmaps  [layerCount]map[string]*document.Bitmap
	stats    Stats
	changed  notify.Topic[StrategyChanged]
}

func NewCompositor(vp *viewport.Viewport) *Compositor {
	w, h := surfaceSize(vp)
	c := &Compositor{vp: vp, strategy: DefaultStrategy{}}
	for i := range c.layers {
		c.layers[i] = gg.NewContext(w, h)
	}
	return c
}

// StrategyChanged is published after SetStrategy swaps the strategy.
func (c *Compositor) StrategyChanged() *notify.Topic[StrategyChanged] { return &c.changed }

func (c *Compositor) Strategy() Strategy { return c.strategy }

// SetStrategy swaps the persistent strategy. The caller re-renders.
func (c *Compositor) SetStrategy(s Strategy) {
	if s == nil || s.Name() == c.strategy.Name() {
		return
	}
	c.strategy = s
	slog.Info("render strategy changed", "strategy", s.Name())
	c.changed.Publish(StrategyChanged{Name: s.Name(), Description: s.Description()})
}

// Resize matches the layer surfaces to the viewport size. Layer content is
// discarded; the caller re-renders.
func (c *Compositor) Resize() error {
	w, h := surfaceSize(c.vp)
	for _, l := range c.layers {
		if err := l.Resize(w, h); err != nil {
			return fmt.Errorf("resize layers: %w", err)
		}
	}
	return nil
}

// RenderPersistent redraws the background and data layers from els,
// leaving out any element whose id is in exclude.
func (c *Compositor) RenderPersistent(els []document.Element, exclude []string) error {
	visible := els
	if len(exclude) > 0 {
		visible = make([]document.Element, 0, len(els))
		for _, el := range els {
			if !slices.Contains(exclude, el.ID) {
				visible = append(visible, el)
			}
		}
	}

	b := newBuilder(c.vp)
	c.strategy.Compile(b, visible)

	c.stats = Stats{Culled: b.culled, Excluded: len(els) - len(visible)}
	for _, layer := range []Layer{LayerBackground, LayerData} {
		c.lists[layer] = b.lists[layer]
		c.bitmaps[layer] = b.bitmaps
		c.stats.Commands += len(b.lists[layer])
		if err := rasterize(c.layers[layer], c.lists[layer], b.bitmaps); err != nil {
			return fmt.Errorf("render %s layer: %w", layer, err)
		}
	}
	return nil
}

// RenderTransient clears the transient layer and draws t, which may be nil.
func (c *Compositor) RenderTransient(t *Transient) error {
	b := newBuilder(c.vp)
	compileTransient(b, t)
	c.lists[LayerTransient] = b.lists[LayerTransient]
	c.bitmaps[LayerTransient] = b.bitmaps
	if err := rasterize(c.layers[LayerTransient], c.lists[LayerTransient], b.bitmaps); err != nil {
		return fmt.Errorf("render %s layer: %w", LayerTransient, err)
	}
	return nil
}

// DisplayList returns a copy of the last compiled list for layer.
func (c *Compositor) DisplayList(layer Layer) []DrawCommand {
	if layer < 0 || layer >= layerCount {
		return nil
	}
	return slices.Clone(c.lists[layer])
}

// Stats reports counts from the last RenderPersistent.
func (c *Compositor) Stats() Stats { return c.stats }

// LayerImage returns the current pixels of one layer.
func (c *Compositor) LayerImage(layer Layer) image.Image {
	return c.layers[layer].Image()
}

// Compose flattens the layers, bottom first, over bg. A nil bg leaves the
// result transparent where nothing is drawn.
func (c *Compositor) Compose(bg image.Image, withTransient bool) *image.RGBA {
	w, h := surfaceSize(c.vp)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg != nil {
		draw.Draw(out, out.Bounds(), bg, bg.Bounds().Min, draw.Src)
	}
	for layer := LayerBackground; layer < layerCount; layer++ {
		if layer == LayerTransient && !withTransient {
			continue
		}
		img := c.layers[layer].Image()
		draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Over)
	}
	return out
}

// Close releases the layer surfaces.
func (c *Compositor) Close() error {
	for _, l := range c.layers {
		if err := l.Close(); err != nil {
			return err
		}
	}
	return nil
}

func surfaceSize(vp *viewport.Viewport) (int, int) {
	w, h := vp.Size()
	return max(1, int(w)), max(1, int(h))
}
