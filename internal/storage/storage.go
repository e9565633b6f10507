// Package storage persists elements and the viewport record. The engine
// never calls a Store directly from its loop; writes go through a Syncer.
package storage

import (
	"context"
	"errors"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

var ErrNotFound = errors.New("not found")

// Store is a persistence backend. Implementations must be safe for
// concurrent use.
type Store interface {
	PutElement(ctx context.Context, el document.Element) error
	DeleteElement(ctx context.Context, id string) error
	ClearElements(ctx context.Context) error
	// ReplaceElements swaps the whole persisted set in one step.
	ReplaceElements(ctx context.Context, els []document.Element) error
	// Elements returns every element in creation order.
	Elements(ctx context.Context) ([]document.Element, error)

	// Viewport returns ErrNotFound when no record was ever written.
	Viewport(ctx context.Context) (viewport.State, error)
	PutViewport(ctx context.Context, s viewport.State) error

	Close()
}
