// Package clipboard reads pasted images and writes copied elements. The
// engine calls ReadImage off its loop goroutine, so implementations must
// be safe for concurrent use.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/inamate/sketchboard/internal/document"
)

// ErrNoImage means the clipboard holds nothing that decodes to an image.
var ErrNoImage = errors.New("clipboard holds no image")

type Clipboard interface {
	ReadImage(ctx context.Context) (*document.Bitmap, error)
	WriteElements(ctx context.Context, els []document.Element) error
}

// DecodeText turns clipboard text into a bitmap: a data URL is decoded in
// place, anything else is tried as an image file path.
func DecodeText(text string) (*document.Bitmap, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoImage
	}
	if strings.HasPrefix(text, "data:image/") {
		bmp, err := document.ParseDataURL(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
		}
		return bmp, nil
	}
	if strings.ContainsAny(text, "\n{[") {
		return nil, ErrNoImage
	}
	data, err := os.ReadFile(strings.TrimPrefix(text, "file://"))
	if err != nil {
		return nil, ErrNoImage
	}
	bmp, err := document.DecodeBitmap(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	return bmp, nil
}

// Memory is an in-process clipboard, used by the server, the browser
// build and tests.
type Memory struct {
	mu       sync.Mutex
	image    *document.Bitmap
	elements []document.Element
}

func NewMemory() *Memory {
	return &Memory{}
}

// SetImage puts bmp on the clipboard; nil clears it.
func (m *Memory) SetImage(bmp *document.Bitmap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image = bmp
}

func (m *Memory) ReadImage(ctx context.Context) (*document.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.image == nil {
		return nil, ErrNoImage
	}
	return m.image, nil
}

func (m *Memory) WriteElements(_ context.Context, els []document.Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements = make([]document.Element, len(els))
	for i, el := range els {
		m.elements[i] = el.Clone()
	}
	return nil
}

// Elements returns what was last copied.
func (m *Memory) Elements() []document.Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]document.Element, len(m.elements))
	for i, el := range m.elements {
		out[i] = el.Clone()
	}
	return out
}
