// Package command makes every element mutation reversible. A Command is
// bound to the store it edits when constructed; the Manager keeps the undo
// and redo stacks.
package command

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation marks requests that make no sense for the current
// state, such as editing a vertex of a Path. Callers treat it as a no-op.
var ErrInvalidOperation = errors.New("invalid operation")

type Command interface {
	// Name identifies the command kind in logs and notifications.
	Name() string
	// Execute applies the change. Calling it again while applied does nothing.
	Execute() error
	// Undo reverts the change. Calling it again while reverted does nothing.
	Undo() error
}

type phase int

const (
	pending phase = iota
	applied
	reverted
)

// lifecycle tracks whether a command is applied so Execute and Undo can be
// repeated safely. Undo before any Execute is a stack-discipline bug.
type lifecycle struct {
	name  string
	phase phase
}

func (l *lifecycle) Name() string { return l.name }

func (l *lifecycle) execute(apply func() error) error {
	if l.phase == applied {
		return nil
	}
	if err := apply(); err != nil {
		return err
	}
	l.phase = applied
	return nil
}

func (l *lifecycle) undo(revert func() error) error {
	switch l.phase {
	case pending:
		panic(fmt.Sprintf("command %s: undo before execute", l.name))
	case reverted:
		return nil
	}
	if err := revert(); err != nil {
		return err
	}
	l.phase = reverted
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}
