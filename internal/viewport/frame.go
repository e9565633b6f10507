package viewport

import "math"

// Frame is where an image lands on the surface: a rectangle of W x H surface
// pixels centered on (CX, CY), rotated by Angle.
type Frame struct {
	CX, CY float64
	W, H   float64
	Angle  float64
}

// ImageFrame places an image of width x height pixels anchored at world
// (x, y). An image pasted with rotationOffset equal to the view rotation
// appears upright; it turns with the view afterwards.
func (v *Viewport) ImageFrame(x, y, width, height, rotationOffset float64) Frame {
	cx, cy := v.ToSurface(x, y)
	return Frame{
		CX:    cx,
		CY:    cy,
		W:     width / v.state.Scale,
		H:     height / v.state.Scale,
		Angle: -(v.state.Rotate - rotationOffset),
	}
}

// Matrix maps frame-local coordinates, origin at the center, to the surface.
func (f Frame) Matrix() Matrix2D {
	return Translate(f.CX, f.CY).Multiply(Rotate(f.Angle))
}

// Contains reports whether a surface point falls inside the rotated frame.
func (f Frame) Contains(sx, sy float64) bool {
	dx, dy := sx-f.CX, sy-f.CY
	cos, sin := math.Cos(-f.Angle), math.Sin(-f.Angle)
	lx := dx*cos - dy*sin
	ly := dx*sin + dy*cos
	return math.Abs(lx) <= f.W/2 && math.Abs(ly) <= f.H/2
}

// Corners returns the four surface corners, clockwise from top-left.
func (f Frame) Corners() [4][2]float64 {
	m := f.Matrix()
	hw, hh := f.W/2, f.H/2
	var out [4][2]float64
	for i, c := range [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}} {
		out[i][0], out[i][1] = m.TransformPoint(c[0], c[1])
	}
	return out
}

// Bounds is the axis-aligned box around the rotated frame.
func (f Frame) Bounds() Rect {
	return f.Matrix().TransformRect(Rect{X: -f.W / 2, Y: -f.H / 2, Width: f.W, Height: f.H})
}
