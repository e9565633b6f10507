package session

import "encoding/json"

// Message is the envelope for everything on the websocket, in both
// directions.
type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// Client to server.
const (
	TypePointer  = "input.pointer"   // mode.PointerEvent
	TypeKey      = "input.key"       // mode.KeyEvent
	TypeAction   = "action"          // NamePayload
	TypeMode     = "mode.switch"     // NamePayload
	TypeStrategy = "strategy.set"    // NamePayload
	TypeResize   = "surface.resize"  // ResizePayload
	TypeRotate   = "viewport.rotate" // NamePayload, "left" or "right"
	TypeCenter   = "viewport.center"
)

// Server to client.
const (
	TypeWelcome          = "welcome"
	TypeFrame            = "frame"
	TypeError            = "error"
	TypeSelectionChanged = "selection.changed"
	TypeElementsChanged  = "elements.changed"
	TypeViewportChanged  = "viewport.changed"
	TypeTransientChanged = "transient.changed"
	TypeStrategyChanged  = "strategy.changed"
	TypeStackChanged     = "stack.changed"
	TypeModeChanged      = "mode.changed"
	TypePersistFailed    = "persist.failed"
)

type NamePayload struct {
	Name string `json:"name"`
}

type ResizePayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type ErrorPayload struct {
	Seq     int64  `json:"seq,omitempty"`
	Message string `json:"message"`
}
