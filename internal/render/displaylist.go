package render

// PathCommand is one path segment: ["M", x, y], ["L", x, y] or
// ["Q", cx, cy, x, y]. Coordinates are surface pixels.
type PathCommand []interface{}

// DrawCommand is a single drawing operation. A layer compiles to a list of
// these in painter's order; the rasterizer replays them, and shells that
// draw natively (the browser build) can replay them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path", "circle", "rect", "image"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation and image lookup
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] frame matrix for rect/image
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	X           float64       `json:"x,omitempty"`           // Circle center
	Y           float64       `json:"y,omitempty"`           // Circle center
	Radius      float64       `json:"radius,omitempty"`      // Circle radius
	Width       float64       `json:"width,omitempty"`       // Rect/image size in surface pixels
	Height      float64       `json:"height,omitempty"`      // Rect/image size in surface pixels
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Dash        []float64     `json:"dash,omitempty"`        // Dash pattern, empty is solid
}

func moveTo(x, y float64) PathCommand { return PathCommand{"M", x, y} }

func lineTo(x, y float64) PathCommand { return PathCommand{"L", x, y} }

func quadTo(cx, cy, x, y float64) PathCommand { return PathCommand{"Q", cx, cy, x, y} }

// Layer identifies one of the stacked surfaces, bottom first.
type Layer int

const (
	LayerBackground Layer = iota // images
	LayerData                    // lines and paths
	LayerTransient               // selection, previews, marquee, cursor
	layerCount
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerData:
		return "data"
	case LayerTransient:
		return "transient"
	}
	return "unknown"
}
