package render

import (
	"slices"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

// Cursor is a surface position.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawPreview is the in-progress stroke of draw mode.
type DrawPreview struct {
	Points  []document.Point `json:"points"` // confirmed, world coordinates
	Cursor  *Cursor          `json:"cursor,omitempty"`
	PenMode bool             `json:"penMode"`
}

// Transient is everything drawn above the persistent layers for one frame.
// Selected and Moving are copies; rendering never reaches back into the
// store.
type Transient struct {
	Draw       *DrawPreview       `json:"draw,omitempty"`
	Selected   []document.Element `json:"selected,omitempty"`
	PrimaryID  string             `json:"primaryId,omitempty"`
	PointIndex int                `json:"pointIndex"`
	Marquee    *viewport.Rect     `json:"marquee,omitempty"`
	Moving     []document.Element `json:"moving,omitempty"`
}

// IsEmpty reports whether the transient layer would draw nothing.
func (t *Transient) IsEmpty() bool {
	return t == nil || (t.Draw == nil && len(t.Selected) == 0 && t.Marquee == nil && len(t.Moving) == 0)
}

// compileTransient emits selection highlights, move ghosts, the marquee
// and the draw preview, in that order.
func compileTransient(b *Builder, t *Transient) {
	if t.IsEmpty() {
		return
	}

	moving := make([]string, 0, len(t.Moving))
	for _, el := range t.Moving {
		moving = append(moving, el.ID)
	}

	for i := range t.Selected {
		el := &t.Selected[i]
		if slices.Contains(moving, el.ID) {
			continue
		}
		switch el.Type {
		case document.TypeImage:
			b.Outline(LayerTransient, el, ColorSelected, selectedWidth)
		case document.TypeLine:
			b.Stroke(LayerTransient, el, StrokeStyle{Color: ColorSelected, Width: selectedWidth})
			m := b.vp.Matrix()
			for j, p := range el.Geometries {
				fill := ColorPoint
				if el.ID == t.PrimaryID && j == t.PointIndex {
					fill = ColorSelectedPoint
				}
				x, y := m.TransformPoint(p.X, p.Y)
				b.Circle(LayerTransient, x, y, vertexRadius, fill, ColorSelected, outlineStrokeWidth)
			}
		case document.TypePath:
			b.Stroke(LayerTransient, el, StrokeStyle{Color: ColorSelected, Width: selectedPathWidth, Smooth: el.Smooth})
		}
	}

	for i := range t.Moving {
		el := &t.Moving[i]
		if el.Type == document.TypeImage {
			b.Image(LayerTransient, el)
			b.Outline(LayerTransient, el, ColorMoving, movingWidth)
			continue
		}
		b.Stroke(LayerTransient, el, StrokeStyle{Color: ColorMoving, Width: movingWidth, Smooth: el.Smooth})
	}

	if r := t.Marquee; r != nil {
		b.Emit(LayerTransient, DrawCommand{
			Op: "path",
			Path: []PathCommand{
				moveTo(r.X, r.Y),
				lineTo(r.X+r.Width, r.Y),
				lineTo(r.X+r.Width, r.Y+r.Height),
				lineTo(r.X, r.Y+r.Height),
				lineTo(r.X, r.Y),
			},
			Stroke:      ColorMarquee,
			StrokeWidth: marqueeWidth,
			Dash:        marqueeDash,
		})
	}

	if t.Draw != nil {
		compileDrawPreview(b, t.Draw)
	}
}

func compileDrawPreview(b *Builder, d *DrawPreview) {
	m := b.vp.Matrix()
	sp := make([][2]float64, len(d.Points))
	for i, p := range d.Points {
		sp[i][0], sp[i][1] = m.TransformPoint(p.X, p.Y)
	}

	for i := 0; i+1 < len(sp); i++ {
		w := drawWidth
		if d.Points[i].Pressure > 0 || d.Points[i+1].Pressure > 0 {
			w = (pressureWidth(d.Points[i].Pressure) + pressureWidth(d.Points[i+1].Pressure)) / 2
		}
		b.Segment(LayerTransient, sp[i][0], sp[i][1], sp[i+1][0], sp[i+1][1], ColorDraw, w, nil)
	}

	if d.Cursor != nil && !d.PenMode && len(sp) > 0 {
		last := sp[len(sp)-1]
		b.Segment(LayerTransient, last[0], last[1], d.Cursor.X, d.Cursor.Y, ColorDraw, drawWidth, previewDash)
	}

	// Pen strokes are dense; only mouse-placed vertices get markers.
	if !d.PenMode {
		for i, p := range sp {
			fill := ColorDraw
			if i == 0 {
				fill = ColorDrawStart
			}
			b.Circle(LayerTransient, p[0], p[1], drawVertexRadius, fill, ColorPoint, outlineStrokeWidth)
		}
		if d.Cursor != nil && len(sp) > 0 {
			b.Circle(LayerTransient, d.Cursor.X, d.Cursor.Y, drawVertexRadius, ColorDrawPreview, ColorPoint, outlineStrokeWidth)
		}
	}

	if d.Cursor == nil {
		return
	}
	x, y := d.Cursor.X, d.Cursor.Y
	if d.PenMode {
		b.Circle(LayerTransient, x, y, penCursorRadius, "", ColorDraw, outlineStrokeWidth)
		return
	}
	half := crossSize / 2
	gap := crossGap / 2
	for _, seg := range [4][4]float64{
		{x - half, y, x - gap, y},
		{x + gap, y, x + half, y},
		{x, y - half, x, y - gap},
		{x, y + gap, x, y + half},
	} {
		b.Segment(LayerTransient, seg[0], seg[1], seg[2], seg[3], ColorMarquee, outlineStrokeWidth, nil)
	}
}
