package document

import (
	"errors"
	"fmt"

	"github.com/inamate/sketchboard/internal/typeid"
)

type Type string

const (
	TypeLine  Type = "line"
	TypePath  Type = "path"
	TypeImage Type = "image"
)

const (
	DefaultPathColor = "#3b82f6"
	DefaultPathWidth = 2.0
)

var ErrInvalidElement = errors.New("invalid element")

// Point is a world-space vertex. Pressure is only recorded for pen strokes.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure,omitempty"`
}

// Element is a tagged union over Line, Path and Image. Geometries is used by
// Line and Path; X, Y, RotationOffset and Bitmap by Image.
type Element struct {
	ID       string `json:"id"`
	Type     Type   `json:"type"`
	Selected bool   `json:"selected"`

	Geometries  []Point `json:"geometries,omitempty"`
	Color       string  `json:"color,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Smooth      bool    `json:"smooth,omitempty"`

	X              float64 `json:"x,omitempty"`
	Y              float64 `json:"y,omitempty"`
	RotationOffset float64 `json:"rotationOffset,omitempty"`
	Bitmap         *Bitmap `json:"bitmap,omitempty"`
}

func NewLine(points []Point) Element {
	return Element{
		ID:         typeid.NewLineID(),
		Type:       TypeLine,
		Geometries: clonePoints(points),
	}
}

func NewPath(points []Point, color string, width float64, smooth bool) Element {
	return Element{
		ID:          typeid.NewPathID(),
		Type:        TypePath,
		Geometries:  clonePoints(points),
		Color:       color,
		StrokeWidth: width,
		Smooth:      smooth,
	}
}

// NewImage anchors bmp at the world point (x, y), its center.
func NewImage(bmp *Bitmap, x, y, rotationOffset float64) Element {
	return Element{
		ID:             typeid.NewImageID(),
		Type:           TypeImage,
		X:              x,
		Y:              y,
		RotationOffset: rotationOffset,
		Bitmap:         bmp,
	}
}

// Duplicate copies the element under a fresh id of the same type.
func (e Element) Duplicate() Element {
	c := e.Clone()
	c.Selected = false
	switch e.Type {
	case TypeLine:
		c.ID = typeid.NewLineID()
	case TypePath:
		c.ID = typeid.NewPathID()
	case TypeImage:
		c.ID = typeid.NewImageID()
	}
	return c
}

// IsStroke reports whether the element is drawn from its vertices.
func (e *Element) IsStroke() bool {
	return e.Type == TypeLine || e.Type == TypePath
}

// Size returns the bitmap size in pixels, zero for strokes.
func (e *Element) Size() (float64, float64) {
	if e.Type != TypeImage || e.Bitmap == nil {
		return 0, 0
	}
	return float64(e.Bitmap.Width()), float64(e.Bitmap.Height())
}

// Clone deep-copies the geometry. The bitmap handle is shared.
func (e Element) Clone() Element {
	e.Geometries = clonePoints(e.Geometries)
	return e
}

// Validate checks the fields its type requires.
func (e *Element) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidElement)
	}
	switch e.Type {
	case TypeLine, TypePath:
		return nil
	case TypeImage:
		if e.Bitmap == nil {
			return fmt.Errorf("%w: image %s has no bitmap", ErrInvalidElement, e.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidElement, e.Type)
	}
}

// Anchors returns the world points that locate the element: its vertices,
// or the image center.
func (e *Element) Anchors() []Point {
	if e.Type == TypeImage {
		return []Point{{X: e.X, Y: e.Y}}
	}
	return e.Geometries
}

// Translate moves the element by a world-space delta.
func (e *Element) Translate(dx, dy float64) {
	if e.Type == TypeImage {
		e.X += dx
		e.Y += dy
		return
	}
	for i := range e.Geometries {
		e.Geometries[i].X += dx
		e.Geometries[i].Y += dy
	}
}

// Placement is the positional part of an element, what a move changes.
type Placement struct {
	Geometries []Point `json:"geometries,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
}

func (e *Element) Placement() Placement {
	if e.Type == TypeImage {
		return Placement{X: e.X, Y: e.Y}
	}
	return Placement{Geometries: clonePoints(e.Geometries)}
}

func (e *Element) ApplyPlacement(p Placement) {
	if e.Type == TypeImage {
		e.X, e.Y = p.X, p.Y
		return
	}
	e.Geometries = clonePoints(p.Geometries)
}

func clonePoints(pts []Point) []Point {
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}
