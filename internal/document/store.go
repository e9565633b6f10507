package document

import (
	"errors"
	"fmt"

	"github.com/inamate/sketchboard/internal/notify"
)

var (
	ErrNotFound    = errors.New("element not found")
	ErrDuplicateID = errors.New("duplicate element id")
)

// Sink receives every committed mutation, after memory is updated. The
// persistence syncer implements it; calls must not block.
type Sink interface {
	PutElement(el Element)
	DeleteElement(id string)
	ClearElements()
}

type ChangeKind string

const (
	ChangeAdd     ChangeKind = "add"
	ChangeRemove  ChangeKind = "remove"
	ChangeReplace ChangeKind = "replace"
	ChangeClear   ChangeKind = "clear"
	ChangeLoad    ChangeKind = "load"
)

// ElementsChanged is published after each store mutation.
type ElementsChanged struct {
	Kind  ChangeKind `json:"kind"`
	IDs   []string   `json:"ids,omitempty"`
	Count int        `json:"count"`
}

// Indexed pairs an element with its position in store order.
type Indexed struct {
	Index   int
	Element Element
}

// Store is the ordered, id-keyed set of elements. Store order is z-order:
// later elements draw on top. Reads hand out copies; the store keeps the
// canonical ones. It is not safe for concurrent use.
type Store struct {
	order []*Element
	byID  map[string]*Element
	sink  Sink

	changed notify.Topic[ElementsChanged]
}

func NewStore() *Store {
	return &Store{byID: make(map[string]*Element)}
}

// SetSink attaches the persistence sink. Pass nil to detach.
func (s *Store) SetSink(sink Sink) {
	s.sink = sink
}

func (s *Store) Changed() *notify.Topic[ElementsChanged] {
	return &s.changed
}

func (s *Store) Len() int { return len(s.order) }

func (s *Store) Get(id string) (Element, bool) {
	el, ok := s.byID[id]
	if !ok {
		return Element{}, false
	}
	return el.Clone(), true
}

// Index returns the z-position of id, or -1.
func (s *Store) Index(id string) int {
	for i, el := range s.order {
		if el.ID == id {
			return i
		}
	}
	return -1
}

// All returns copies of every element in store order.
func (s *Store) All() []Element {
	out := make([]Element, len(s.order))
	for i, el := range s.order {
		out[i] = el.Clone()
	}
	return out
}

// IDs returns the element ids in store order.
func (s *Store) IDs() []string {
	ids := make([]string, len(s.order))
	for i, el := range s.order {
		ids[i] = el.ID
	}
	return ids
}

// Add appends el on top.
func (s *Store) Add(el Element) error {
	return s.AddAll([]Element{el})
}

// AddAll appends every element or none of them.
func (s *Store) AddAll(els []Element) error {
	if err := s.checkNew(els); err != nil {
		return err
	}
	ids := make([]string, len(els))
	for i, el := range els {
		s.insertAt(len(s.order), el)
		ids[i] = el.ID
	}
	for _, el := range els {
		s.put(el)
	}
	s.publish(ChangeAdd, ids)
	return nil
}

// InsertAll puts each element back at its recorded index, in ascending index
// order, so a RemoveAll result restores the exact prior order.
func (s *Store) InsertAll(entries []Indexed) error {
	els := make([]Element, len(entries))
	for i, e := range entries {
		els[i] = e.Element
	}
	if err := s.checkNew(els); err != nil {
		return err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		s.insertAt(e.Index, e.Element)
		ids[i] = e.Element.ID
	}
	for _, el := range els {
		s.put(el)
	}
	s.publish(ChangeAdd, ids)
	return nil
}

// Remove deletes one element.
func (s *Store) Remove(id string) (Indexed, error) {
	removed, err := s.RemoveAll([]string{id})
	if err != nil {
		return Indexed{}, err
	}
	return removed[0], nil
}

// RemoveAll deletes every listed element or none of them. The result is
// sorted by original index.
func (s *Store) RemoveAll(ids []string) ([]Indexed, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			return nil, fmt.Errorf("remove %s: %w", id, ErrNotFound)
		}
		drop[id] = true
	}

	var removed []Indexed
	kept := s.order[:0:0]
	for i, el := range s.order {
		if drop[el.ID] {
			removed = append(removed, Indexed{Index: i, Element: el.Clone()})
			delete(s.byID, el.ID)
			continue
		}
		kept = append(kept, el)
	}
	s.order = kept

	out := make([]string, len(removed))
	for i, r := range removed {
		out[i] = r.Element.ID
		if s.sink != nil {
			s.sink.DeleteElement(r.Element.ID)
		}
	}
	s.publish(ChangeRemove, out)
	return removed, nil
}

// Replace overwrites an existing element, keeping its z-position.
func (s *Store) Replace(el Element) error {
	return s.ReplaceAll([]Element{el})
}

// ReplaceAll overwrites every listed element or none of them.
func (s *Store) ReplaceAll(els []Element) error {
	for _, el := range els {
		if _, ok := s.byID[el.ID]; !ok {
			return fmt.Errorf("replace %s: %w", el.ID, ErrNotFound)
		}
		if err := el.Validate(); err != nil {
			return err
		}
	}
	ids := make([]string, len(els))
	for i, el := range els {
		cur := s.byID[el.ID]
		*cur = el.Clone()
		ids[i] = el.ID
		s.put(el)
	}
	s.publish(ChangeReplace, ids)
	return nil
}

// Clear drops every element.
func (s *Store) Clear() {
	s.order = nil
	s.byID = make(map[string]*Element)
	if s.sink != nil {
		s.sink.ClearElements()
	}
	s.publish(ChangeClear, nil)
}

// Load replaces the contents with elements read from persistence. Nothing is
// written back to the sink.
func (s *Store) Load(els []Element) error {
	order := make([]*Element, 0, len(els))
	byID := make(map[string]*Element, len(els))
	for _, el := range els {
		if err := el.Validate(); err != nil {
			return err
		}
		if _, dup := byID[el.ID]; dup {
			return fmt.Errorf("load %s: %w", el.ID, ErrDuplicateID)
		}
		c := el.Clone()
		order = append(order, &c)
		byID[c.ID] = &c
	}
	s.order = order
	s.byID = byID
	s.publish(ChangeLoad, nil)
	return nil
}

// SetSelected flags exactly the listed elements as selected. Selection is
// view state, so it is neither persisted nor announced as a content change.
func (s *Store) SetSelected(ids []string) {
	sel := make(map[string]bool, len(ids))
	for _, id := range ids {
		sel[id] = true
	}
	for _, el := range s.order {
		el.Selected = sel[el.ID]
	}
}

func (s *Store) checkNew(els []Element) error {
	seen := make(map[string]bool, len(els))
	for _, el := range els {
		if err := el.Validate(); err != nil {
			return err
		}
		if _, ok := s.byID[el.ID]; ok || seen[el.ID] {
			return fmt.Errorf("add %s: %w", el.ID, ErrDuplicateID)
		}
		seen[el.ID] = true
	}
	return nil
}

func (s *Store) insertAt(index int, el Element) {
	index = max(0, min(index, len(s.order)))
	c := el.Clone()
	s.order = append(s.order, nil)
	copy(s.order[index+1:], s.order[index:])
	s.order[index] = &c
	s.byID[c.ID] = &c
}

func (s *Store) put(el Element) {
	if s.sink != nil {
		s.sink.PutElement(el.Clone())
	}
}

func (s *Store) publish(kind ChangeKind, ids []string) {
	s.changed.Publish(ElementsChanged{Kind: kind, IDs: ids, Count: len(s.order)})
}
