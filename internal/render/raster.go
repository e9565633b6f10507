package render

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

// rasterize clears dc and replays cmds onto it.
func rasterize(dc *gg.Context, cmds []DrawCommand, bitmaps map[string]*document.Bitmap) error {
	dc.Clear()
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for i := range cmds {
		cmd := &cmds[i]
		var err error
		switch cmd.Op {
		case "path":
			err = drawPath(dc, cmd)
		case "circle":
			err = drawCircle(dc, cmd)
		case "rect":
			err = drawRect(dc, cmd)
		case "image":
			drawBitmap(dc, cmd, bitmaps[cmd.ObjectID])
		default:
			err = fmt.Errorf("unknown draw op %q", cmd.Op)
		}
		if err != nil {
			return fmt.Errorf("draw %s %s: %w", cmd.Op, cmd.ObjectID, err)
		}
	}
	return nil
}

func applyStroke(dc *gg.Context, cmd *DrawCommand) {
	dc.SetHexColor(cmd.Stroke)
	dc.SetLineWidth(cmd.StrokeWidth)
	if len(cmd.Dash) > 0 {
		dc.SetDash(cmd.Dash...)
	} else {
		dc.ClearDash()
	}
}

func drawPath(dc *gg.Context, cmd *DrawCommand) error {
	dc.ClearPath()
	for _, pc := range cmd.Path {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		args := make([]float64, 0, len(pc)-1)
		for _, a := range pc[1:] {
			args = append(args, toFloat(a))
		}
		switch {
		case op == "M" && len(args) == 2:
			dc.MoveTo(args[0], args[1])
		case op == "L" && len(args) == 2:
			dc.LineTo(args[0], args[1])
		case op == "Q" && len(args) == 4:
			dc.QuadraticTo(args[0], args[1], args[2], args[3])
		case op == "Z":
			dc.ClosePath()
		}
	}
	if cmd.Fill != "" {
		dc.SetHexColor(cmd.Fill)
		if cmd.Stroke == "" {
			return dc.Fill()
		}
		if err := dc.FillPreserve(); err != nil {
			return err
		}
	}
	if cmd.Stroke == "" {
		dc.ClearPath()
		return nil
	}
	applyStroke(dc, cmd)
	return dc.Stroke()
}

func drawCircle(dc *gg.Context, cmd *DrawCommand) error {
	dc.ClearPath()
	dc.DrawCircle(cmd.X, cmd.Y, cmd.Radius)
	if cmd.Fill != "" {
		dc.SetHexColor(cmd.Fill)
		if err := dc.FillPreserve(); err != nil {
			return err
		}
	}
	if cmd.Stroke == "" {
		dc.ClearPath()
		return nil
	}
	applyStroke(dc, cmd)
	return dc.Stroke()
}

func drawRect(dc *gg.Context, cmd *DrawCommand) error {
	m := matrixOf(cmd.Transform)
	hw, hh := cmd.Width/2, cmd.Height/2
	dc.ClearPath()
	for i, c := range [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}} {
		x, y := m.TransformPoint(c[0], c[1])
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
	applyStroke(dc, cmd)
	return dc.Stroke()
}

// drawBitmap resamples bmp through the command's frame into a scratch
// buffer covering the clipped frame box, then blits that onto dc.
func drawBitmap(dc *gg.Context, cmd *DrawCommand, bmp *document.Bitmap) {
	if bmp == nil || bmp.Width() == 0 || bmp.Height() == 0 {
		return
	}
	frame := matrixOf(cmd.Transform)
	toSurface := frame.
		Multiply(viewport.Translate(-cmd.Width/2, -cmd.Height/2)).
		Multiply(viewport.Scale(cmd.Width/float64(bmp.Width()), cmd.Height/float64(bmp.Height())))

	box := frame.TransformRect(viewport.Rect{X: -cmd.Width / 2, Y: -cmd.Height / 2, Width: cmd.Width, Height: cmd.Height})
	clip := image.Rect(
		int(math.Floor(box.X)), int(math.Floor(box.Y)),
		int(math.Ceil(box.X+box.Width)), int(math.Ceil(box.Y+box.Height)),
	).Intersect(image.Rect(0, 0, dc.Width(), dc.Height()))
	if clip.Empty() {
		return
	}

	scratch := image.NewRGBA(image.Rect(0, 0, clip.Dx(), clip.Dy()))
	local := viewport.Translate(-float64(clip.Min.X), -float64(clip.Min.Y)).Multiply(toSurface)
	src := bmp.Image()
	origin := viewport.Translate(float64(src.Bounds().Min.X), float64(src.Bounds().Min.Y)).Invert()
	local = local.Multiply(origin)
	aff := f64.Aff3{local[0], local[2], local[4], local[1], local[3], local[5]}
	draw.BiLinear.Transform(scratch, aff, src, src.Bounds(), draw.Over, nil)

	dc.DrawImage(gg.ImageBufFromImage(scratch), float64(clip.Min.X), float64(clip.Min.Y))
}

func matrixOf(s []float64) viewport.Matrix2D {
	if len(s) != 6 {
		return viewport.Identity()
	}
	return viewport.Matrix2D{s[0], s[1], s[2], s[3], s[4], s[5]}
}

// toFloat accepts both compiled float64 args and json-decoded numbers.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
