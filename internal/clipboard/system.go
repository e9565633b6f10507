//go:build !js

package clipboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/inamate/sketchboard/internal/document"
)

// System uses the operating system clipboard, which only carries text.
// Copied elements are written as JSON. A paste is an image when the text
// is a data URL or the path of a readable image file.
type System struct{}

func NewSystem() (*System, error) {
	if clipboard.Unsupported {
		return nil, errors.New("system clipboard unsupported on this platform")
	}
	return &System{}, nil
}

func (System) ReadImage(ctx context.Context) (*document.Bitmap, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read clipboard: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DecodeText(text)
}

func (System) WriteElements(_ context.Context, els []document.Element) error {
	data, err := json.Marshal(els)
	if err != nil {
		return fmt.Errorf("encode elements: %w", err)
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
