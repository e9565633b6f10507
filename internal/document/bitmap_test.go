package document

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestBitmapJSONRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 200, A: 255})

	el := NewImage(NewBitmap(src), 4, 5, 0.25)
	data, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	var back Element
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if back.Bitmap == nil || back.Bitmap.Width() != 3 || back.Bitmap.Height() != 2 {
		t.Fatalf("bitmap = %+v, want 3x2", back.Bitmap)
	}
	r, _, _, _ := back.Bitmap.Image().At(1, 1).RGBA()
	if r>>8 != 200 {
		t.Errorf("pixel red = %d, want 200", r>>8)
	}
	if back.X != 4 || back.Y != 5 || back.RotationOffset != 0.25 {
		t.Errorf("anchor = (%v,%v,%v)", back.X, back.Y, back.RotationOffset)
	}
}

func TestParseDataURLRejects(t *testing.T) {
	tests := []string{
		"hello",
		"data:text/plain;base64,aGk=",
		"data:image/png,raw",
	}
	for _, in := range tests {
		if _, err := ParseDataURL(in); !errors.Is(err, ErrNotDataURL) {
			t.Errorf("ParseDataURL(%q) error = %v, want ErrNotDataURL", in, err)
		}
	}
	if _, err := ParseDataURL("data:image/png;base64,!!!"); err == nil {
		t.Error("ParseDataURL(bad base64): want error")
	}
}
