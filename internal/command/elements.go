package command

import (
	"fmt"

	"github.com/inamate/sketchboard/internal/document"
)

// AddElements adds one or more elements on top of the store as a unit.
type AddElements struct {
	lifecycle
	store    *document.Store
	elements []document.Element
}

func NewAddElement(store *document.Store, el document.Element) *AddElements {
	c := NewAddElements(store, []document.Element{el})
	c.name = "add-element"
	return c
}

func NewAddElements(store *document.Store, els []document.Element) *AddElements {
	snap := make([]document.Element, len(els))
	for i, el := range els {
		snap[i] = el.Clone()
	}
	return &AddElements{
		lifecycle: lifecycle{name: "add-elements"},
		store:     store,
		elements:  snap,
	}
}

func (c *AddElements) IDs() []string {
	ids := make([]string, len(c.elements))
	for i, el := range c.elements {
		ids[i] = el.ID
	}
	return ids
}

func (c *AddElements) Execute() error {
	return c.execute(func() error {
		if err := c.store.AddAll(c.elements); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		return nil
	})
}

func (c *AddElements) Undo() error {
	return c.undo(func() error {
		if _, err := c.store.RemoveAll(c.IDs()); err != nil {
			return fmt.Errorf("undo %s: %w", c.name, err)
		}
		return nil
	})
}

// DeleteElements removes a set of elements and restores them at their
// original z-positions on undo.
type DeleteElements struct {
	lifecycle
	store   *document.Store
	ids     []string
	removed []document.Indexed
}

// NewDeleteElements rejects an empty id list.
func NewDeleteElements(store *document.Store, ids []string) (*DeleteElements, error) {
	if len(ids) == 0 {
		return nil, invalid("delete with empty selection")
	}
	return &DeleteElements{
		lifecycle: lifecycle{name: "delete-elements"},
		store:     store,
		ids:       append([]string(nil), ids...),
	}, nil
}

func (c *DeleteElements) Execute() error {
	return c.execute(func() error {
		removed, err := c.store.RemoveAll(c.ids)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		c.removed = removed
		return nil
	})
}

func (c *DeleteElements) Undo() error {
	return c.undo(func() error {
		if err := c.store.InsertAll(c.removed); err != nil {
			return fmt.Errorf("undo %s: %w", c.name, err)
		}
		return nil
	})
}

// Move is the before and after placement of one element in a batch move.
type Move struct {
	ID     string
	Before document.Placement
	After  document.Placement
}

// MoveElements repositions a mixed batch of lines, paths and images. Both
// placements of every element are captured when the command is built.
type MoveElements struct {
	lifecycle
	store *document.Store
	moves []Move
}

func NewMoveElements(store *document.Store, moves []Move) (*MoveElements, error) {
	if len(moves) == 0 {
		return nil, invalid("move with empty selection")
	}
	snap := make([]Move, len(moves))
	for i, m := range moves {
		snap[i] = Move{
			ID:     m.ID,
			Before: clonePlacement(m.Before),
			After:  clonePlacement(m.After),
		}
	}
	return &MoveElements{
		lifecycle: lifecycle{name: "move-elements"},
		store:     store,
		moves:     snap,
	}, nil
}

func (c *MoveElements) Execute() error {
	return c.execute(func() error {
		return c.apply(func(m Move) document.Placement { return m.After })
	})
}

func (c *MoveElements) Undo() error {
	return c.undo(func() error {
		return c.apply(func(m Move) document.Placement { return m.Before })
	})
}

func (c *MoveElements) apply(pick func(Move) document.Placement) error {
	els := make([]document.Element, 0, len(c.moves))
	for _, m := range c.moves {
		el, ok := c.store.Get(m.ID)
		if !ok {
			return fmt.Errorf("%s %s: %w", c.name, m.ID, document.ErrNotFound)
		}
		el.ApplyPlacement(pick(m))
		els = append(els, el)
	}
	if err := c.store.ReplaceAll(els); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

func clonePlacement(p document.Placement) document.Placement {
	if p.Geometries != nil {
		p.Geometries = append([]document.Point(nil), p.Geometries...)
	}
	return p
}
