package storage

import (
	"context"
	"sync"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

// Memory keeps encoded records in process. It is the store used when no
// database is configured, and in tests.
type Memory struct {
	mu       sync.Mutex
	records  map[string]record
	viewport *viewport.State
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]record)}
}

func (m *Memory) PutElement(ctx context.Context, el document.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, err := encodeElement(el)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) DeleteElement(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *Memory) ClearElements(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]record)
	return nil
}

func (m *Memory) ReplaceElements(ctx context.Context, els []document.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recs := make(map[string]record, len(els))
	for _, el := range els {
		rec, err := encodeElement(el)
		if err != nil {
			return err
		}
		recs[rec.ID] = rec
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = recs
	return nil
}

func (m *Memory) Elements(ctx context.Context) ([]document.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	recs := make([]record, 0, len(m.records))
	for _, rec := range m.records {
		recs = append(recs, rec)
	}
	m.mu.Unlock()

	sortRecords(recs)
	out := make([]document.Element, 0, len(recs))
	for _, rec := range recs {
		el, err := decodeElement(rec.Doc, rec.Bitmap)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func (m *Memory) Viewport(ctx context.Context) (viewport.State, error) {
	if err := ctx.Err(); err != nil {
		return viewport.State{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewport == nil {
		return viewport.State{}, ErrNotFound
	}
	return *m.viewport, nil
}

func (m *Memory) PutViewport(ctx context.Context, s viewport.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = &s
	return nil
}

func (m *Memory) Close() {}
