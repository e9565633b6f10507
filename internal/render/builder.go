package render

import (
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

// StrokeStyle controls how Builder.Stroke paints a Line or Path.
type StrokeStyle struct {
	Color    string
	Width    float64
	Dash     []float64
	Pressure bool // per-segment width from recorded pen pressure
	Smooth   bool // quadratic curves through segment midpoints
}

// Builder compiles elements into per-layer display lists in surface
// coordinates. Elements entirely off the surface are culled.
type Builder struct {
	vp      *viewport.Viewport
	surface viewport.Rect
	lists   [layerCount][]DrawCommand
	bitmaps map[string]*document.Bitmap
	culled  int
}

func newBuilder(vp *viewport.Viewport) *Builder {
	w, h := vp.Size()
	return &Builder{
		vp:      vp,
		surface: viewport.Rect{Width: w, Height: h},
		bitmaps: make(map[string]*document.Bitmap),
	}
}

// Viewport exposes the transform the lists are compiled against.
func (b *Builder) Viewport() *viewport.Viewport { return b.vp }

// Emit appends a raw command to a layer.
func (b *Builder) Emit(layer Layer, cmd DrawCommand) {
	b.lists[layer] = append(b.lists[layer], cmd)
}

// Visible reports whether any part of el can land on the surface. A stroke
// is off-surface when every vertex is; an image when its rotated frame's
// box misses the surface.
func (b *Builder) Visible(el *document.Element) bool {
	switch el.Type {
	case document.TypeImage:
		if el.Bitmap == nil {
			return false
		}
		return b.frame(el).Bounds().Intersects(b.surface)
	case document.TypeLine, document.TypePath:
		m := b.vp.Matrix()
		for _, p := range el.Geometries {
			if b.surface.Contains(m.TransformPoint(p.X, p.Y)) {
				return true
			}
		}
	}
	return false
}

// Stroke compiles a Line or Path outline onto layer.
func (b *Builder) Stroke(layer Layer, el *document.Element, st StrokeStyle) {
	if !el.IsStroke() || len(el.Geometries) < 2 {
		return
	}
	if !b.Visible(el) {
		b.culled++
		return
	}
	pts := el.Geometries
	m := b.vp.Matrix()

	if st.Pressure && hasPressure(pts) {
		for i := 0; i+1 < len(pts); i++ {
			x0, y0 := m.TransformPoint(pts[i].X, pts[i].Y)
			x1, y1 := m.TransformPoint(pts[i+1].X, pts[i+1].Y)
			b.Emit(layer, DrawCommand{
				Op:          "path",
				ObjectID:    el.ID,
				Path:        []PathCommand{moveTo(x0, y0), lineTo(x1, y1)},
				Stroke:      st.Color,
				StrokeWidth: (pressureWidth(pts[i].Pressure) + pressureWidth(pts[i+1].Pressure)) / 2,
				Dash:        st.Dash,
			})
		}
		return
	}

	b.Emit(layer, DrawCommand{
		Op:          "path",
		ObjectID:    el.ID,
		Path:        strokePath(m, pts, st.Smooth),
		Stroke:      st.Color,
		StrokeWidth: st.Width,
		Dash:        st.Dash,
	})
}

// Image compiles the bitmap of an Image element onto layer.
func (b *Builder) Image(layer Layer, el *document.Element) {
	if el.Type != document.TypeImage || el.Bitmap == nil {
		return
	}
	if !b.Visible(el) {
		b.culled++
		return
	}
	f := b.frame(el)
	b.bitmaps[el.ID] = el.Bitmap
	b.Emit(layer, DrawCommand{
		Op:        "image",
		ObjectID:  el.ID,
		Transform: f.Matrix().ToSlice(),
		Width:     f.W,
		Height:    f.H,
	})
}

// Outline compiles the rotated frame of an Image element as a stroked
// rectangle.
func (b *Builder) Outline(layer Layer, el *document.Element, color string, width float64) {
	if el.Type != document.TypeImage || el.Bitmap == nil || !b.Visible(el) {
		return
	}
	f := b.frame(el)
	b.Emit(layer, DrawCommand{
		Op:          "rect",
		ObjectID:    el.ID,
		Transform:   f.Matrix().ToSlice(),
		Width:       f.W,
		Height:      f.H,
		Stroke:      color,
		StrokeWidth: width,
	})
}

// Circle compiles a filled, optionally outlined, circle at a surface point.
func (b *Builder) Circle(layer Layer, x, y, r float64, fill, stroke string, width float64) {
	b.Emit(layer, DrawCommand{
		Op:          "circle",
		X:           x,
		Y:           y,
		Radius:      r,
		Fill:        fill,
		Stroke:      stroke,
		StrokeWidth: width,
	})
}

// Segment compiles a straight surface-space segment.
func (b *Builder) Segment(layer Layer, x0, y0, x1, y1 float64, color string, width float64, dash []float64) {
	b.Emit(layer, DrawCommand{
		Op:          "path",
		Path:        []PathCommand{moveTo(x0, y0), lineTo(x1, y1)},
		Stroke:      color,
		StrokeWidth: width,
		Dash:        dash,
	})
}

func (b *Builder) frame(el *document.Element) viewport.Frame {
	w, h := el.Size()
	return b.vp.ImageFrame(el.X, el.Y, w, h, el.RotationOffset)
}

func strokePath(m viewport.Matrix2D, pts []document.Point, smooth bool) []PathCommand {
	sp := make([][2]float64, len(pts))
	for i, p := range pts {
		sp[i][0], sp[i][1] = m.TransformPoint(p.X, p.Y)
	}
	path := make([]PathCommand, 0, len(sp))
	path = append(path, moveTo(sp[0][0], sp[0][1]))
	if !smooth || len(sp) < 3 {
		for _, p := range sp[1:] {
			path = append(path, lineTo(p[0], p[1]))
		}
		return path
	}
	for i := 1; i < len(sp)-1; i++ {
		mx, my := (sp[i][0]+sp[i+1][0])/2, (sp[i][1]+sp[i+1][1])/2
		path = append(path, quadTo(sp[i][0], sp[i][1], mx, my))
	}
	last := sp[len(sp)-1]
	return append(path, lineTo(last[0], last[1]))
}

func hasPressure(pts []document.Point) bool {
	for _, p := range pts {
		if p.Pressure > 0 {
			return true
		}
	}
	return false
}
