package engine

import (
	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/mode"
	"github.com/inamate/sketchboard/internal/notify"
	"github.com/inamate/sketchboard/internal/render"
	"github.com/inamate/sketchboard/internal/selection"
	"github.com/inamate/sketchboard/internal/viewport"
)

// TransientChanged is published after the transient layer is redrawn.
type TransientChanged struct {
	Mode     string `json:"mode"`
	Commands int    `json:"commands"`
}

// PersistFailed reports a write that did not reach storage. The in-memory
// document already holds the change.
type PersistFailed struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// Events groups every notification the engine emits. All of them fire on
// the engine goroutine.
type Events struct {
	Selection      *notify.Topic[selection.Snapshot]
	Elements       *notify.Topic[document.ElementsChanged]
	Viewport       *notify.Topic[viewport.State]
	Transient      *notify.Topic[TransientChanged]
	RenderStrategy *notify.Topic[render.StrategyChanged]
	Stack          *notify.Topic[command.StackChanged]
	Mode           *notify.Topic[mode.ModeChanged]
	PersistFailed  *notify.Topic[PersistFailed]
}
