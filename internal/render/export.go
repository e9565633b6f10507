package render

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/gogpu/gg"
	"github.com/jung-kurt/gofpdf"

	"github.com/inamate/sketchboard/internal/document"
)

const pdfMargin = 20.0 // points

// ExportPNG writes the background and data layers, flattened, as PNG. The
// transient layer is never exported.
func (c *Compositor) ExportPNG(w io.Writer) error {
	dc := gg.NewContext(surfaceSize(c.vp))
	defer dc.Close()
	dc.DrawImage(gg.ImageBufFromImage(c.Compose(nil, false)), 0, 0)
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPDF compiles els with the active strategy, as currently viewed,
// and writes the result as a single vector PDF page of the given size
// ("A4", "Letter", ...). The surface is scaled to fit inside the margins.
func (c *Compositor) ExportPDF(w io.Writer, els []document.Element, page string) error {
	if page == "" {
		page = "A4"
	}
	b := newBuilder(c.vp)
	c.strategy.Compile(b, els)

	sw, sh := c.vp.Size()
	orientation := "P"
	if sw > sh {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "pt", page, "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pw, ph := pdf.GetPageSize()
	scale := math.Min((pw-2*pdfMargin)/sw, (ph-2*pdfMargin)/sh)
	p := pdfPage{pdf: pdf, scale: scale, dx: (pw - sw*scale) / 2, dy: (ph - sh*scale) / 2}

	for _, layer := range []Layer{LayerBackground, LayerData} {
		for i := range b.lists[layer] {
			p.draw(&b.lists[layer][i], b.bitmaps)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// pdfPage replays display-list commands onto a gofpdf page, mapping
// surface pixels to points.
type pdfPage struct {
	pdf    *gofpdf.Fpdf
	scale  float64
	dx, dy float64
	images int
}

func (p *pdfPage) pt(x, y float64) (float64, float64) {
	return p.dx + x*p.scale, p.dy + y*p.scale
}

func (p *pdfPage) draw(cmd *DrawCommand, bitmaps map[string]*document.Bitmap) {
	switch cmd.Op {
	case "path":
		if cmd.Stroke == "" || len(cmd.Path) == 0 {
			return
		}
		p.stroke(cmd)
		for _, pc := range cmd.Path {
			op, _ := pc[0].(string)
			switch {
			case op == "M" && len(pc) == 3:
				p.pdf.MoveTo(p.pt(toFloat(pc[1]), toFloat(pc[2])))
			case op == "L" && len(pc) == 3:
				p.pdf.LineTo(p.pt(toFloat(pc[1]), toFloat(pc[2])))
			case op == "Q" && len(pc) == 5:
				cx, cy := p.pt(toFloat(pc[1]), toFloat(pc[2]))
				x, y := p.pt(toFloat(pc[3]), toFloat(pc[4]))
				p.pdf.CurveTo(cx, cy, x, y)
			}
		}
		p.pdf.DrawPath("D")
	case "image":
		p.image(cmd, bitmaps[cmd.ObjectID])
	}
}

func (p *pdfPage) stroke(cmd *DrawCommand) {
	col := gg.Hex(cmd.Stroke)
	p.pdf.SetDrawColor(int(col.R*255), int(col.G*255), int(col.B*255))
	p.pdf.SetLineWidth(cmd.StrokeWidth * p.scale)
	p.pdf.SetLineCapStyle("round")
	p.pdf.SetLineJoinStyle("round")
	if len(cmd.Dash) > 0 {
		dash := make([]float64, len(cmd.Dash))
		for i, d := range cmd.Dash {
			dash[i] = d * p.scale
		}
		p.pdf.SetDashPattern(dash, 0)
	} else {
		p.pdf.SetDashPattern([]float64{}, 0)
	}
}

func (p *pdfPage) image(cmd *DrawCommand, bmp *document.Bitmap) {
	if bmp == nil {
		return
	}
	data, err := bmp.EncodePNG()
	if err != nil {
		p.pdf.SetError(fmt.Errorf("encode image %s: %w", cmd.ObjectID, err))
		return
	}
	p.images++
	name := fmt.Sprintf("img%d", p.images)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))

	m := matrixOf(cmd.Transform)
	cx, cy := p.pt(m[4], m[5])
	w, h := cmd.Width*p.scale, cmd.Height*p.scale
	angle := math.Atan2(m[1], m[0])

	p.pdf.TransformBegin()
	// gofpdf rotates counter-clockwise; surface angles turn clockwise.
	p.pdf.TransformRotate(-angle*180/math.Pi, cx, cy)
	p.pdf.ImageOptions(name, cx-w/2, cy-h/2, w, h, false, opts, 0, "")
	p.pdf.TransformEnd()
}
