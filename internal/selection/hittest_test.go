package selection

import (
	"image"
	"math"
	"reflect"
	"testing"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

// With the default view on an 800x600 surface, world (x, y) is surface
// (x+400, y+300).
func newView() *viewport.Viewport {
	return viewport.New(800, 600)
}

func pt(x, y float64) document.Point { return document.Point{X: x, Y: y} }

func line(id string, pts ...document.Point) document.Element {
	return document.Element{ID: id, Type: document.TypeLine, Geometries: pts}
}

func path(id string, pts ...document.Point) document.Element {
	return document.Element{ID: id, Type: document.TypePath, Geometries: pts}
}

func img(id string, x, y float64, w, h int, rot float64) document.Element {
	bmp := document.NewBitmap(image.NewRGBA(image.Rect(0, 0, w, h)))
	return document.Element{ID: id, Type: document.TypeImage, X: x, Y: y, RotationOffset: rot, Bitmap: bmp}
}

func ids(els []document.Element) []string {
	out := []string{}
	for _, el := range els {
		out = append(out, el.ID)
	}
	return out
}

func TestPointHitTestOverlapReturnsTopmost(t *testing.T) {
	vp := newView()
	els := []document.Element{
		line("A", pt(-400, -300), pt(-300, -200)), // passes through surface (50,50)
		img("B", -350, -250, 20, 20, 0),           // centered on surface (50,50)
	}
	got := PointHitTest(vp, els, 50, 50)
	if got == nil || got.ID != "B" {
		t.Fatalf("PointHitTest = %v, want B", got)
	}
}

func TestPointHitTestTopmostWins(t *testing.T) {
	vp := newView()
	a := line("a", pt(0, 0), pt(100, 0))
	b := line("b", pt(0, 2), pt(100, 2))

	for _, order := range [][]document.Element{{a, b}, {b, a}} {
		got := PointHitTest(vp, order, 450, 301)
		if got == nil || got.ID != order[1].ID {
			t.Errorf("order %v: hit %v, want %s", ids(order), got, order[1].ID)
		}
	}
}

func TestPointHitTest(t *testing.T) {
	vp := newView()
	els := []document.Element{
		line("l", pt(0, 0), pt(100, 0)),
		path("p", pt(0, 100), pt(0, 200)),
		img("i", -200, -200, 40, 20, 0),
		{ID: "empty", Type: document.TypeLine},
	}
	tests := []struct {
		name   string
		sx, sy float64
		want   string
	}{
		{"on vertex", 400, 300, "l"},
		{"near segment", 450, 307, "l"},
		{"beyond tolerance", 450, 309, ""},
		{"past segment end", 509, 300, ""},
		{"on path", 405, 450, "p"},
		{"inside image", 215, 105, "i"},
		{"outside image", 221, 100, ""},
		{"empty canvas", 700, 50, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointHitTest(vp, els, tt.sx, tt.sy)
			gotID := ""
			if got != nil {
				gotID = got.ID
			}
			if gotID != tt.want {
				t.Errorf("PointHitTest(%v,%v) = %q, want %q", tt.sx, tt.sy, gotID, tt.want)
			}
		})
	}
}

func TestPointHitTestRotatedImage(t *testing.T) {
	vp := newView()
	vp.Restore(viewport.State{Scale: 1, Rotate: math.Pi / 2})
	// Pasted before the view turned, so it now appears rotated a quarter.
	els := []document.Element{img("i", 0, 0, 100, 10, 0)}

	if PointHitTest(vp, els, 400, 340) == nil {
		t.Error("miss along the rotated long axis")
	}
	if PointHitTest(vp, els, 440, 300) != nil {
		t.Error("hit along the unrotated long axis")
	}
}

func TestPointHitTestUnderZoom(t *testing.T) {
	vp := newView()
	vp.Restore(viewport.State{Scale: 10})
	els := []document.Element{line("l", pt(0, 0), pt(1000, 0))}

	// Tolerance stays 8 surface pixels, i.e. 80 world units here.
	if PointHitTest(vp, els, 420, 307) == nil {
		t.Error("miss within surface tolerance")
	}
	if PointHitTest(vp, els, 420, 310) != nil {
		t.Error("hit outside surface tolerance")
	}
}

func TestVertexAt(t *testing.T) {
	vp := newView()
	l := line("l", pt(0, 0), pt(100, 0), pt(100, 100))
	p := path("p", pt(0, 0), pt(100, 0))

	tests := []struct {
		name   string
		el     *document.Element
		sx, sy float64
		want   int
	}{
		{"first", &l, 402, 302, 0},
		{"middle", &l, 500, 295, 1},
		{"segment interior", &l, 450, 300, -1},
		{"exactly tolerance away", &l, 408, 300, 0},
		{"just past tolerance", &l, 408.5, 300, -1},
		{"path has no vertices", &p, 400, 300, -1},
		{"nil", nil, 0, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VertexAt(vp, tt.el, tt.sx, tt.sy); got != tt.want {
				t.Errorf("VertexAt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInsertionIndex(t *testing.T) {
	vp := newView()
	l := line("l", pt(0, 0), pt(100, 0), pt(100, 100))
	p := path("p", pt(0, 0), pt(100, 0))
	short := line("s", pt(0, 0))

	tests := []struct {
		name   string
		el     *document.Element
		sx, sy float64
		want   int
	}{
		{"first segment", &l, 450, 303, 1},
		{"second segment", &l, 498, 350, 2},
		{"on first vertex", &l, 401, 300, -1},
		{"on last vertex", &l, 500, 398, -1},
		{"exactly tolerance off", &l, 450, 308, 1},
		{"just past tolerance", &l, 450, 308.5, -1},
		{"too far", &l, 450, 320, -1},
		{"path", &p, 450, 300, -1},
		{"single point", &short, 400, 300, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InsertionIndex(vp, tt.el, tt.sx, tt.sy); got != tt.want {
				t.Errorf("InsertionIndex = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRectHitTestMissIsEmpty(t *testing.T) {
	vp := newView()
	els := []document.Element{
		line("far", pt(200, 200), pt(300, 250)),
		img("pic", 0, 0, 10, 10, 0),
	}
	got := RectHitTest(vp, els, viewport.Rect{X: 0, Y: 0, Width: 100, Height: 100})
	if got == nil {
		got = []document.Element{}
	}
	if len(got) != 0 {
		t.Errorf("RectHitTest = %v, want empty", ids(got))
	}
}

func TestRectHitTestStoreOrder(t *testing.T) {
	vp := newView()
	els := []document.Element{
		line("c", pt(0, 0), pt(10, 10)),
		img("a", 20, 20, 10, 10, 0),
		line("outside", pt(300, 200), pt(350, 250)),
		path("b", pt(-10, 5), pt(40, 5)),
	}
	got := RectHitTest(vp, els, viewport.Rect{X: 395, Y: 295, Width: 40, Height: 40})
	if want := []string{"c", "a", "b"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("RectHitTest = %v, want %v", ids(got), want)
	}
}

func TestSegmentDistance(t *testing.T) {
	tests := []struct {
		name                   string
		px, py, ax, ay, bx, by float64
		want                   float64
	}{
		{"perpendicular", 5, 3, 0, 0, 10, 0, 3},
		{"before start", -3, 4, 0, 0, 10, 0, 5},
		{"after end", 13, 4, 0, 0, 10, 0, 5},
		{"degenerate", 3, 4, 0, 0, 0, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentDistance(tt.px, tt.py, tt.ax, tt.ay, tt.bx, tt.by)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SegmentDistance = %v, want %v", got, tt.want)
			}
		})
	}
}
