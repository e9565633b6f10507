package render

// Palette used by the default strategy and the transient layer.
const (
	ColorLine          = "#5c7ada"
	ColorSelected      = "#e87634"
	ColorSelectedPoint = "#1fe434"
	ColorPoint         = "#ffffff"
	ColorMoving        = "#ff6b6b"
	ColorMarquee       = "#58F07C"
	ColorDraw          = "#ff6b6b"
	ColorDrawPreview   = "#ffa500"
	ColorDrawStart     = "#ff4757"
	ColorTransparent   = "#ffffff"
)

const (
	lineWidth          = 3.0
	pathFallbackWidth  = 2.0
	selectedWidth      = 4.0
	selectedPathWidth  = 6.0
	movingWidth        = 6.0
	marqueeWidth       = 3.0
	drawWidth          = 3.0
	vertexRadius       = 6.0
	drawVertexRadius   = 5.0
	penCursorRadius    = 8.0
	crossSize          = 20.0
	crossGap           = 6.0
	transparentWidth   = 2.0
	outlineStrokeWidth = 2.0
)

var (
	marqueeDash = []float64{3, 5}
	previewDash = []float64{5, 5}
)

// pressureWidth maps pen pressure to a stroke width.
func pressureWidth(p float64) float64 {
	return 1 + p*4
}
