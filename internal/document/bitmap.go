package document

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrNotDataURL = errors.New("not an image data url")

// Bitmap is an opaque, immutable handle on decoded pixels. Copies of an
// element share it.
type Bitmap struct {
	img image.Image
}

func NewBitmap(img image.Image) *Bitmap {
	return &Bitmap{img: img}
}

func (b *Bitmap) Image() image.Image { return b.img }

func (b *Bitmap) Width() int { return b.img.Bounds().Dx() }

func (b *Bitmap) Height() int { return b.img.Bounds().Dy() }

// EncodePNG serializes the pixels for storage or transport.
func (b *Bitmap) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBitmap decodes PNG, JPEG, GIF, BMP, TIFF or WebP data.
func DecodeBitmap(data []byte) (*Bitmap, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return NewBitmap(img), nil
}

// DataURL returns the bitmap as a data:image/png;base64 URL.
func (b *Bitmap) DataURL() (string, error) {
	data, err := b.EncodePNG()
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ParseDataURL decodes a base64 data:image/... URL.
func ParseDataURL(s string) (*Bitmap, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:image/") {
		return nil, ErrNotDataURL
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
		return nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return DecodeBitmap(data)
}

func (b *Bitmap) MarshalJSON() ([]byte, error) {
	url, err := b.DataURL()
	if err != nil {
		return nil, err
	}
	return json.Marshal(url)
}

func (b *Bitmap) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err != nil {
		return err
	}
	parsed, err := ParseDataURL(url)
	if err != nil {
		return err
	}
	b.img = parsed.img
	return nil
}
