// Package viewport maps between world coordinates, where element geometry
// lives, and surface coordinates, the pixels of the drawing target.
//
// The offset is the world point shown at the surface center. Scale is world
// units per surface pixel, so a larger scale shows more of the world. The view
// rotates about the surface center.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"github.com/inamate/sketchboard/internal/notify"
)

const (
	MinScale = 0.01
	MaxScale = 30.0

	MinRotate = -2 * math.Pi
	MaxRotate = 2 * math.Pi

	// RotateStep is the increment applied by RotateView.
	RotateStep = math.Pi / 8

	rotateSnap = 1e-6
)

// State is the persisted viewport record.
type State struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale"`
	Rotate  float64 `json:"rotate"`
}

// DefaultState is the identity view: world origin at the surface center.
func DefaultState() State {
	return State{Scale: 1}
}

var ErrBadDirection = errors.New("unknown rotate direction")

// Direction selects a RotateView step.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection accepts "left" and "right".
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Left, Right:
		return Direction(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadDirection, s)
}

// Viewport holds the view state and the surface size. It is not safe for
// concurrent use.
type Viewport struct {
	state  State
	width  float64
	height float64

	changed notify.Topic[State]
}

func New(width, height float64) *Viewport {
	return &Viewport{
		state:  DefaultState(),
		width:  width,
		height: height,
	}
}

// Changed is published after every mutation with the new state.
func (v *Viewport) Changed() *notify.Topic[State] {
	return &v.changed
}

func (v *Viewport) State() State { return v.state }

func (v *Viewport) Scale() float64 { return v.state.Scale }

func (v *Viewport) Rotation() float64 { return v.state.Rotate }

func (v *Viewport) Size() (float64, float64) { return v.width, v.height }

// Matrix is the world to surface transform:
// T(w/2, h/2) * R(-rotate) * S(1/scale) * T(-offset).
func (v *Viewport) Matrix() Matrix2D {
	s := v.state
	return Translate(v.width/2, v.height/2).
		Multiply(Rotate(-s.Rotate)).
		Multiply(Scale(1/s.Scale, 1/s.Scale)).
		Multiply(Translate(-s.OffsetX, -s.OffsetY))
}

// InverseMatrix is the surface to world transform, composed directly rather
// than inverted numerically.
func (v *Viewport) InverseMatrix() Matrix2D {
	s := v.state
	return Translate(s.OffsetX, s.OffsetY).
		Multiply(Scale(s.Scale, s.Scale)).
		Multiply(Rotate(s.Rotate)).
		Multiply(Translate(-v.width/2, -v.height/2))
}

func (v *Viewport) ToSurface(wx, wy float64) (float64, float64) {
	return v.Matrix().TransformPoint(wx, wy)
}

func (v *Viewport) ToWorld(sx, sy float64) (float64, float64) {
	return v.InverseMatrix().TransformPoint(sx, sy)
}

// SurfaceDeltaToWorld converts a surface-space displacement into the world
// displacement that produces it.
func (v *Viewport) SurfaceDeltaToWorld(dx, dy float64) (float64, float64) {
	return v.InverseMatrix().TransformVector(dx, dy)
}

// IsInside reports whether a surface point lies on the surface.
func (v *Viewport) IsInside(sx, sy float64) bool {
	return sx >= 0 && sx <= v.width && sy >= 0 && sy <= v.height
}

// Pan moves the content by a surface-space drag delta, whatever the rotation.
func (v *Viewport) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	wx, wy := v.SurfaceDeltaToWorld(dx, dy)
	v.state.OffsetX -= wx
	v.state.OffsetY -= wy
	v.publish()
}

// ZoomAt multiplies the scale by factor while keeping the world point under
// (sx, sy) fixed.
func (v *Viewport) ZoomAt(sx, sy, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	next := clampScale(v.state.Scale * factor)
	if next == v.state.Scale {
		return
	}

	bx, by := v.ToWorld(sx, sy)
	v.state.Scale = next
	ax, ay := v.ToWorld(sx, sy)
	v.state.OffsetX += bx - ax
	v.state.OffsetY += by - ay
	v.publish()
}

// ZoomStep zooms one wheel notch at (sx, sy). A positive direction zooms out.
func (v *Viewport) ZoomStep(sx, sy, direction float64) {
	next := NextScale(v.state.Scale, direction)
	v.ZoomAt(sx, sy, next/v.state.Scale)
}

// Rotate adds delta radians, clamped to [-2π, 2π] and snapped to zero near it.
func (v *Viewport) Rotate(delta float64) {
	r := v.state.Rotate + delta
	r = max(MinRotate, min(MaxRotate, r))
	if math.Abs(r) < rotateSnap {
		r = 0
	}
	if r == v.state.Rotate {
		return
	}
	v.state.Rotate = r
	v.publish()
}

// RotateView rotates one step about the surface center.
func (v *Viewport) RotateView(dir Direction) {
	switch dir {
	case Left:
		v.Rotate(RotateStep)
	case Right:
		v.Rotate(-RotateStep)
	}
}

// CenterOn puts the world point (wx, wy) at the surface center.
func (v *Viewport) CenterOn(wx, wy float64) {
	if v.state.OffsetX == wx && v.state.OffsetY == wy {
		return
	}
	v.state.OffsetX = wx
	v.state.OffsetY = wy
	v.publish()
}

// Resize changes the surface size. The world point at the center is kept.
func (v *Viewport) Resize(width, height float64) {
	if width == v.width && height == v.height {
		return
	}
	v.width = width
	v.height = height
	v.publish()
}

func (v *Viewport) Reset() {
	v.Restore(DefaultState())
}

// Restore replaces the state, repairing an invalid scale or rotation.
func (v *Viewport) Restore(s State) {
	if s.Scale <= 0 || math.IsNaN(s.Scale) || math.IsInf(s.Scale, 0) {
		s.Scale = 1
	}
	s.Scale = clampScale(s.Scale)
	if math.IsNaN(s.Rotate) {
		s.Rotate = 0
	}
	s.Rotate = max(MinRotate, min(MaxRotate, s.Rotate))
	if math.IsNaN(s.OffsetX) || math.IsNaN(s.OffsetY) {
		s.OffsetX, s.OffsetY = 0, 0
	}
	v.state = s
	v.publish()
}

func (v *Viewport) publish() {
	v.changed.Publish(v.state)
}

// NextScale returns the scale one wheel notch away from scale. The step is
// linear up to 1 and proportional above it.
func NextScale(scale, direction float64) float64 {
	if direction == 0 {
		return scale
	}
	step := 0.1
	if scale > 1 {
		step = 0.15 * scale
	}
	if direction > 0 {
		return clampScale(scale + step)
	}
	return clampScale(scale - step)
}

func clampScale(s float64) float64 {
	return max(MinScale, min(MaxScale, s))
}
