package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/viewport"
)

const (
	opTimeout    = 10 * time.Second
	errorsBuffer = 16
)

type opKind int

const (
	opPut opKind = iota
	opDelete
	opClear
	opReplace
	opViewport
	opBarrier
)

func (k opKind) String() string {
	switch k {
	case opPut:
		return "put"
	case opDelete:
		return "delete"
	case opClear:
		return "clear"
	case opReplace:
		return "replace"
	case opViewport:
		return "viewport"
	default:
		return "barrier"
	}
}

type op struct {
	kind     opKind
	el       document.Element
	els      []document.Element
	id       string
	viewport viewport.State
	done     chan struct{}
	result   func(error)
}

// PersistError is a write the Syncer could not complete. Memory keeps the
// change; only the stored copy is behind.
type PersistError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("persist %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Syncer applies store mutations to a Store in the background, in the order
// they were made. Enqueueing never blocks. Consecutive viewport writes
// collapse into the latest one.
type Syncer struct {
	store Store

	mu     sync.Mutex
	queue  []op
	closed bool
	wake   chan struct{}

	errs chan error
	done chan struct{}
}

func NewSyncer(store Store) *Syncer {
	s := &Syncer{
		store: store,
		wake:  make(chan struct{}, 1),
		errs:  make(chan error, errorsBuffer),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Errors delivers write failures. It is closed after Close returns.
func (s *Syncer) Errors() <-chan error {
	return s.errs
}

func (s *Syncer) PutElement(el document.Element) {
	s.enqueue(op{kind: opPut, el: el})
}

func (s *Syncer) DeleteElement(id string) {
	s.enqueue(op{kind: opDelete, id: id})
}

func (s *Syncer) ClearElements() {
	s.enqueue(op{kind: opClear})
}

// ReplaceAll swaps the persisted set for els. A non-nil result is called
// from the worker with the outcome of the write; it must not block.
func (s *Syncer) ReplaceAll(els []document.Element, result func(error)) {
	cp := make([]document.Element, len(els))
	for i, el := range els {
		cp[i] = el.Clone()
	}
	s.enqueue(op{kind: opReplace, els: cp, result: result})
}

func (s *Syncer) PutViewport(v viewport.State) {
	s.mu.Lock()
	if n := len(s.queue); n > 0 && s.queue[n-1].kind == opViewport {
		s.queue[n-1].viewport = v
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.enqueue(op{kind: opViewport, viewport: v})
}

// Flush waits until every write enqueued before the call has been tried.
func (s *Syncer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !s.enqueue(op{kind: opBarrier, done: done}) {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.signal()
	<-s.done
}

func (s *Syncer) enqueue(o op) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		slog.Warn("persist after close dropped", "op", o.kind.String(), "id", o.id)
		return false
	}
	s.queue = append(s.queue, o)
	s.mu.Unlock()
	s.signal()
	return true
}

func (s *Syncer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Syncer) run() {
	defer close(s.done)
	defer close(s.errs)
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		closed := s.closed
		s.mu.Unlock()

		for _, o := range batch {
			s.apply(o)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-s.wake
	}
}

func (s *Syncer) apply(o op) {
	if o.kind == opBarrier {
		close(o.done)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var err error
	id := o.id
	switch o.kind {
	case opPut:
		id = o.el.ID
		err = s.store.PutElement(ctx, o.el)
	case opDelete:
		err = s.store.DeleteElement(ctx, o.id)
	case opClear:
		err = s.store.ClearElements(ctx)
	case opReplace:
		err = s.store.ReplaceElements(ctx, o.els)
	case opViewport:
		err = s.store.PutViewport(ctx, o.viewport)
	}
	if o.result != nil {
		o.result(err)
	}
	if err == nil {
		return
	}

	perr := &PersistError{Op: o.kind.String(), ID: id, Err: err}
	slog.Warn("persist failed", "op", perr.Op, "id", id, "error", err)
	select {
	case s.errs <- perr:
	default:
		slog.Warn("persist error dropped, channel full", "op", perr.Op, "id", id)
	}
}
