package render

import (
	"errors"
	"fmt"

	"github.com/inamate/sketchboard/internal/document"
)

var ErrUnknownStrategy = errors.New("unknown render strategy")

// Strategy decides how persistent elements look. It compiles them onto the
// background and data layers; the transient layer is drawn the same way
// under every strategy.
type Strategy interface {
	Name() string
	Description() string
	Compile(b *Builder, els []document.Element)
}

// StrategyChanged is published when the active strategy is swapped.
type StrategyChanged struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultStrategy draws images under strokes. Lines use the line color;
// Paths keep their own color and width and honor pen pressure.
type DefaultStrategy struct{}

func (DefaultStrategy) Name() string { return "default" }

func (DefaultStrategy) Description() string {
	return "Images with lines and freehand paths in their own colors"
}

func (DefaultStrategy) Compile(b *Builder, els []document.Element) {
	for i := range els {
		el := &els[i]
		switch el.Type {
		case document.TypeImage:
			b.Image(LayerBackground, el)
		case document.TypeLine:
			b.Stroke(LayerData, el, StrokeStyle{Color: ColorLine, Width: lineWidth})
		case document.TypePath:
			color := el.Color
			if color == "" {
				color = document.DefaultPathColor
			}
			width := el.StrokeWidth
			if width <= 0 {
				width = pathFallbackWidth
			}
			b.Stroke(LayerData, el, StrokeStyle{Color: color, Width: width, Pressure: true, Smooth: el.Smooth})
		}
	}
}

// TransparentStrategy hides images and draws every stroke as a thin white
// outline, for tracing over whatever sits beneath the surface.
type TransparentStrategy struct{}

func (TransparentStrategy) Name() string { return "transparent" }

func (TransparentStrategy) Description() string {
	return "Strokes only, white, without images"
}

func (TransparentStrategy) Compile(b *Builder, els []document.Element) {
	for i := range els {
		if els[i].IsStroke() {
			b.Stroke(LayerData, &els[i], StrokeStyle{Color: ColorTransparent, Width: transparentWidth, Smooth: els[i].Smooth})
		}
	}
}

// Strategies lists the built-in strategies, default first.
func Strategies() []Strategy {
	return []Strategy{DefaultStrategy{}, TransparentStrategy{}}
}

// LookupStrategy finds a built-in strategy by name.
func LookupStrategy(name string) (Strategy, error) {
	for _, s := range Strategies() {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
