package document

import (
	"image"
	"image/color"
	"math"
)

// SampleElements returns a small drawing used to seed an empty store: a
// zig-zag line, a smoothed wave path and a checkerboard image.
func SampleElements() []Element {
	zigzag := NewLine([]Point{
		{X: -300, Y: -120},
		{X: -220, Y: -40},
		{X: -140, Y: -120},
		{X: -60, Y: -40},
	})

	var wave []Point
	for i := 0; i <= 24; i++ {
		x := float64(i) * 15
		wave = append(wave, Point{X: x, Y: 80 + 30*math.Sin(float64(i)/3), Pressure: 0.5})
	}
	path := NewPath(wave, DefaultPathColor, DefaultPathWidth, true)

	img := NewImage(NewBitmap(checkerboard(96, 64, 16)), 150, -120, 0)

	return []Element{zigzag, path, img}
}

func checkerboard(w, h, cell int) image.Image {
	light := color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	dark := color.RGBA{R: 0x5c, G: 0x7a, B: 0xda, A: 0xff}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return img
}
