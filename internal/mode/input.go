package mode

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type PointerKind string

const (
	PointerDown        PointerKind = "down"
	PointerMove        PointerKind = "move"
	PointerUp          PointerKind = "up"
	PointerDoubleClick PointerKind = "dblclick"
	PointerWheel       PointerKind = "wheel"
)

type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

type Mods struct {
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
}

// PointerEvent is a mouse, touch or pen event in surface coordinates.
type PointerEvent struct {
	Kind       PointerKind `json:"kind"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Button     Button      `json:"button"`
	Mods       Mods        `json:"mods"`
	WheelDelta float64     `json:"wheelDelta,omitempty"`
	Pressure   float64     `json:"pressure,omitempty"`
	Pen        bool        `json:"pen,omitempty"`
	Time       time.Time   `json:"time"`
}

type KeyEvent struct {
	Key  string `json:"key"`
	Mods Mods   `json:"mods"`
}

// Action is a semantic request from the UI shell. Keys, toolbar buttons
// and HTTP calls all arrive as actions.
type Action string

const (
	ActionUndo          Action = "undo"
	ActionRedo          Action = "redo"
	ActionDelete        Action = "delete"
	ActionCopy          Action = "copy"
	ActionPaste         Action = "paste"
	ActionEnterMoveMode Action = "enterMoveMode"
	ActionCancel        Action = "cancel"
	ActionConfirm       Action = "confirm"
	ActionSave          Action = "save"
	ActionToggleHand    Action = "toggleHand"
	ActionTogglePen     Action = "togglePen"
	ActionRotateLeft    Action = "rotateLeft"
	ActionRotateRight   Action = "rotateRight"
)

var actions = []Action{
	ActionUndo, ActionRedo, ActionDelete, ActionCopy, ActionPaste,
	ActionEnterMoveMode, ActionCancel, ActionConfirm, ActionSave,
	ActionToggleHand, ActionTogglePen, ActionRotateLeft, ActionRotateRight,
}

var ErrUnknownAction = errors.New("unknown action")

func ParseAction(s string) (Action, error) {
	for _, a := range actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// KeyAction maps a key press to its action. Key names follow the DOM
// KeyboardEvent.key values.
func KeyAction(ev KeyEvent) (Action, bool) {
	key := ev.Key
	if len(key) == 1 {
		key = strings.ToLower(key)
	}
	if ev.Mods.Ctrl {
		switch key {
		case "c":
			return ActionCopy, true
		case "v":
			return ActionPaste, true
		case "z":
			if ev.Mods.Shift {
				return ActionRedo, true
			}
			return ActionUndo, true
		case "y":
			return ActionRedo, true
		case "s":
			return ActionSave, true
		}
		return "", false
	}
	switch key {
	case "Delete", "Backspace":
		return ActionDelete, true
	case "m":
		return ActionEnterMoveMode, true
	case "Escape":
		return ActionCancel, true
	case "Enter":
		return ActionConfirm, true
	case " ":
		return ActionToggleHand, true
	case "q":
		return ActionTogglePen, true
	case "[":
		return ActionRotateLeft, true
	case "]":
		return ActionRotateRight, true
	}
	return "", false
}
