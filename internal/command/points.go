package command

import (
	"fmt"

	"github.com/inamate/sketchboard/internal/document"
)

// MinLinePoints is the fewest vertices a Line may be left with.
const MinLinePoints = 2

// lineAt fetches a Line by id and checks index against its vertex count
// plus extra.
func lineAt(store *document.Store, id string, index, extra int) (document.Element, error) {
	el, ok := store.Get(id)
	if !ok {
		return el, invalid("element %s not found", id)
	}
	if el.Type != document.TypeLine {
		return el, invalid("point edit on %s element %s", el.Type, id)
	}
	if index < 0 || index >= len(el.Geometries)+extra {
		return el, invalid("point index %d out of range for %s", index, id)
	}
	return el, nil
}

// MovePoint sets one vertex of a Line.
type MovePoint struct {
	lifecycle
	store    *document.Store
	id       string
	index    int
	from, to document.Point
}

// NewMovePoint takes the stored vertex as the undo position.
func NewMovePoint(store *document.Store, id string, index int, to document.Point) (*MovePoint, error) {
	el, err := lineAt(store, id, index, 0)
	if err != nil {
		return nil, err
	}
	return &MovePoint{
		lifecycle: lifecycle{name: "move-point"},
		store:     store,
		id:        id,
		index:     index,
		from:      el.Geometries[index],
		to:        to,
	}, nil
}

func (c *MovePoint) Execute() error {
	return c.execute(func() error { return c.set(c.to) })
}

func (c *MovePoint) Undo() error {
	return c.undo(func() error { return c.set(c.from) })
}

func (c *MovePoint) set(p document.Point) error {
	el, err := lineAt(c.store, c.id, c.index, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	el.Geometries[c.index] = p
	return c.store.Replace(el)
}

// AddPoint inserts a vertex into a Line before index.
type AddPoint struct {
	lifecycle
	store *document.Store
	id    string
	index int
	point document.Point
}

// NewAddPoint rejects insertion at either end; new vertices only split an
// existing segment.
func NewAddPoint(store *document.Store, id string, index int, p document.Point) (*AddPoint, error) {
	el, err := lineAt(store, id, index, 1)
	if err != nil {
		return nil, err
	}
	if index == 0 || index == len(el.Geometries) {
		return nil, invalid("insert at end vertex %d of %s", index, id)
	}
	return &AddPoint{
		lifecycle: lifecycle{name: "add-point"},
		store:     store,
		id:        id,
		index:     index,
		point:     p,
	}, nil
}

func (c *AddPoint) Execute() error {
	return c.execute(func() error {
		el, err := lineAt(c.store, c.id, c.index, 1)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		el.Geometries = append(el.Geometries, document.Point{})
		copy(el.Geometries[c.index+1:], el.Geometries[c.index:])
		el.Geometries[c.index] = c.point
		return c.store.Replace(el)
	})
}

func (c *AddPoint) Undo() error {
	return c.undo(func() error {
		el, err := lineAt(c.store, c.id, c.index, 0)
		if err != nil {
			return fmt.Errorf("undo %s: %w", c.name, err)
		}
		el.Geometries = append(el.Geometries[:c.index], el.Geometries[c.index+1:]...)
		return c.store.Replace(el)
	})
}

// DeletePoint removes one vertex from a Line.
type DeletePoint struct {
	lifecycle
	store *document.Store
	id    string
	index int
	point document.Point
}

// NewDeletePoint refuses to leave the Line with fewer than two vertices.
func NewDeletePoint(store *document.Store, id string, index int) (*DeletePoint, error) {
	el, err := lineAt(store, id, index, 0)
	if err != nil {
		return nil, err
	}
	if len(el.Geometries) <= MinLinePoints {
		return nil, invalid("line %s would drop below %d points", id, MinLinePoints)
	}
	return &DeletePoint{
		lifecycle: lifecycle{name: "delete-point"},
		store:     store,
		id:        id,
		index:     index,
		point:     el.Geometries[index],
	}, nil
}

func (c *DeletePoint) Execute() error {
	return c.execute(func() error {
		el, err := lineAt(c.store, c.id, c.index, 0)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		el.Geometries = append(el.Geometries[:c.index], el.Geometries[c.index+1:]...)
		return c.store.Replace(el)
	})
}

func (c *DeletePoint) Undo() error {
	return c.undo(func() error {
		el, err := lineAt(c.store, c.id, c.index, 1)
		if err != nil {
			return fmt.Errorf("undo %s: %w", c.name, err)
		}
		el.Geometries = append(el.Geometries, document.Point{})
		copy(el.Geometries[c.index+1:], el.Geometries[c.index:])
		el.Geometries[c.index] = c.point
		return c.store.Replace(el)
	})
}
