package viewport

import (
	"math"
	"testing"
)

func TestImageFrameUprightWhenPastedAtViewRotation(t *testing.T) {
	v := New(800, 600)
	v.Restore(State{Scale: 2, Rotate: 0.8})

	f := v.ImageFrame(0, 0, 100, 50, 0.8)
	if f.Angle != 0 {
		t.Errorf("Angle = %v, want 0", f.Angle)
	}
	if f.W != 50 || f.H != 25 {
		t.Errorf("size = %vx%v, want 50x25", f.W, f.H)
	}
	if !near(f.CX, 400) || !near(f.CY, 300) {
		t.Errorf("center = (%v,%v), want (400,300)", f.CX, f.CY)
	}
}

func TestFrameContains(t *testing.T) {
	f := Frame{CX: 100, CY: 100, W: 40, H: 10, Angle: math.Pi / 2}
	tests := []struct {
		x, y float64
		want bool
	}{
		{100, 100, true},
		{100, 118, true}, // long axis is vertical after a quarter turn
		{118, 100, false},
		{104, 100, true},
		{100, 125, false},
	}
	for _, tt := range tests {
		if got := f.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestFrameBoundsCoverCorners(t *testing.T) {
	f := Frame{CX: 10, CY: 20, W: 30, H: 10, Angle: 0.4}
	b := f.Bounds()
	for _, c := range f.Corners() {
		if c[0] < b.X-1e-9 || c[0] > b.X+b.Width+1e-9 || c[1] < b.Y-1e-9 || c[1] > b.Y+b.Height+1e-9 {
			t.Errorf("corner %v outside bounds %+v", c, b)
		}
	}
}
