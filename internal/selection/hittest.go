// Package selection answers which elements, and which Line vertex, lie
// under a surface point or inside a surface rectangle. Every test works in
// surface pixels so the tolerance is constant under zoom and rotation.
// Nothing here fails: a miss is nil or -1.
package selection

import (
	"math"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

// Tolerance is the pick radius in surface pixels.
const Tolerance = 8.0

// PointHitTest returns the topmost element under (sx, sy), or nil. Elements
// are in store order, so the search runs from the end.
func PointHitTest(vp *viewport.Viewport, els []document.Element, sx, sy float64) *document.Element {
	for i := len(els) - 1; i >= 0; i-- {
		if hits(vp, &els[i], sx, sy) {
			return &els[i]
		}
	}
	return nil
}

func hits(vp *viewport.Viewport, el *document.Element, sx, sy float64) bool {
	switch el.Type {
	case document.TypeImage:
		if el.Bitmap == nil {
			return false
		}
		w, h := el.Size()
		return vp.ImageFrame(el.X, el.Y, w, h, el.RotationOffset).Contains(sx, sy)
	case document.TypeLine, document.TypePath:
		pts := surfacePoints(vp, el.Geometries)
		for _, p := range pts {
			if math.Hypot(p[0]-sx, p[1]-sy) <= Tolerance {
				return true
			}
		}
		for i := 0; i+1 < len(pts); i++ {
			if SegmentDistance(sx, sy, pts[i][0], pts[i][1], pts[i+1][0], pts[i+1][1]) <= Tolerance {
				return true
			}
		}
	}
	return false
}

// VertexAt returns the index of the first Line vertex within tolerance of
// (sx, sy), or -1. Paths have no addressable vertices.
func VertexAt(vp *viewport.Viewport, el *document.Element, sx, sy float64) int {
	if el == nil || el.Type != document.TypeLine {
		return -1
	}
	for i, p := range surfacePoints(vp, el.Geometries) {
		if math.Hypot(p[0]-sx, p[1]-sy) <= Tolerance {
			return i
		}
	}
	return -1
}

// InsertionIndex returns where a new vertex at (sx, sy) would split the
// nearest segment of a Line, or -1 when no segment is within tolerance or
// the point sits on the first or last vertex.
func InsertionIndex(vp *viewport.Viewport, el *document.Element, sx, sy float64) int {
	if el == nil || el.Type != document.TypeLine || len(el.Geometries) < 2 {
		return -1
	}
	pts := surfacePoints(vp, el.Geometries)
	first, last := pts[0], pts[len(pts)-1]
	if math.Hypot(first[0]-sx, first[1]-sy) <= Tolerance || math.Hypot(last[0]-sx, last[1]-sy) <= Tolerance {
		return -1
	}

	best, bestDist := -1, math.Inf(1)
	for i := 0; i+1 < len(pts); i++ {
		d := SegmentDistance(sx, sy, pts[i][0], pts[i][1], pts[i+1][0], pts[i+1][1])
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if bestDist > Tolerance {
		return -1
	}
	return best + 1
}

// RectHitTest returns the elements whose surface bounding box intersects r,
// in store order.
func RectHitTest(vp *viewport.Viewport, els []document.Element, r viewport.Rect) []document.Element {
	var out []document.Element
	for i := range els {
		b, ok := SurfaceBounds(vp, &els[i])
		if ok && b.Intersects(r) {
			out = append(out, els[i])
		}
	}
	return out
}

// SurfaceBounds is the axis-aligned surface box of an element. It reports
// false for elements with nothing to draw.
func SurfaceBounds(vp *viewport.Viewport, el *document.Element) (viewport.Rect, bool) {
	switch el.Type {
	case document.TypeImage:
		if el.Bitmap == nil {
			return viewport.Rect{}, false
		}
		w, h := el.Size()
		return vp.ImageFrame(el.X, el.Y, w, h, el.RotationOffset).Bounds(), true
	case document.TypeLine, document.TypePath:
		if len(el.Geometries) == 0 {
			return viewport.Rect{}, false
		}
		xs := make([]float64, len(el.Geometries))
		ys := make([]float64, len(el.Geometries))
		m := vp.Matrix()
		for i, p := range el.Geometries {
			xs[i], ys[i] = m.TransformPoint(p.X, p.Y)
		}
		return viewport.BoundsOf(xs, ys), true
	}
	return viewport.Rect{}, false
}

// SegmentDistance is the distance from (px, py) to the segment a-b.
func SegmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = max(0, min(1, t))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

func surfacePoints(vp *viewport.Viewport, pts []document.Point) [][2]float64 {
	m := vp.Matrix()
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i][0], out[i][1] = m.TransformPoint(p.X, p.Y)
	}
	return out
}
