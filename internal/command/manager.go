package command

import (
	"log/slog"

	"github.com/inamate/sketchboard/internal/notify"
)

// StackChanged is published whenever either stack changes.
type StackChanged struct {
	CanUndo   bool   `json:"canUndo"`
	CanRedo   bool   `json:"canRedo"`
	UndoDepth int    `json:"undoDepth"`
	RedoDepth int    `json:"redoDepth"`
	Last      string `json:"last,omitempty"`
}

// Manager runs commands and keeps the undo and redo stacks. It is not safe
// for concurrent use.
type Manager struct {
	undo    []Command
	redo    []Command
	limit   int
	version uint64

	changed notify.Topic[StackChanged]
}

// NewManager creates a manager keeping at most limit undo entries; zero
// means no limit.
func NewManager(limit int) *Manager {
	return &Manager{limit: limit}
}

func (m *Manager) Changed() *notify.Topic[StackChanged] {
	return &m.changed
}

// Execute applies cmd. On success it is pushed for undo and the redo stack is
// dropped; on failure neither stack changes.
func (m *Manager) Execute(cmd Command) error {
	if err := cmd.Execute(); err != nil {
		return err
	}
	m.undo = append(m.undo, cmd)
	if m.limit > 0 && len(m.undo) > m.limit {
		m.undo = m.undo[len(m.undo)-m.limit:]
	}
	m.redo = nil
	m.version++
	slog.Debug("command executed", "command", cmd.Name(), "undoDepth", len(m.undo))
	m.publish(cmd)
	return nil
}

// Undo reverts the latest command. An empty stack is a no-op.
func (m *Manager) Undo() error {
	if len(m.undo) == 0 {
		return nil
	}
	cmd := m.undo[len(m.undo)-1]
	if err := cmd.Undo(); err != nil {
		return err
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, cmd)
	m.version++
	m.publish(cmd)
	return nil
}

// Redo re-applies the latest undone command. An empty stack is a no-op.
func (m *Manager) Redo() error {
	if len(m.redo) == 0 {
		return nil
	}
	cmd := m.redo[len(m.redo)-1]
	if err := cmd.Execute(); err != nil {
		return err
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, cmd)
	m.version++
	m.publish(cmd)
	return nil
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Clear empties both stacks, after a reset or a bulk save.
func (m *Manager) Clear() {
	if len(m.undo) == 0 && len(m.redo) == 0 {
		return
	}
	m.undo = nil
	m.redo = nil
	m.version++
	m.publish(nil)
}

// Version changes whenever either stack does.
func (m *Manager) Version() uint64 { return m.version }

func (m *Manager) State() StackChanged {
	return StackChanged{
		CanUndo:   m.CanUndo(),
		CanRedo:   m.CanRedo(),
		UndoDepth: len(m.undo),
		RedoDepth: len(m.redo),
	}
}

func (m *Manager) publish(cmd Command) {
	s := m.State()
	if cmd != nil {
		s.Last = cmd.Name()
	}
	m.changed.Publish(s)
}
