// Package session serves the engine to websocket clients. The Hub owns
// the engine and runs its loop: every input, HTTP call and frame tick is
// handled on that one goroutine.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/sketchboard/internal/command"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/mode"
	"github.com/inamate/sketchboard/internal/render"
	"github.com/inamate/sketchboard/internal/selection"
	"github.com/inamate/sketchboard/internal/viewport"
)

var ErrStopped = errors.New("session hub stopped")

type inbound struct {
	client *Client
	msg    *Message
}

type call struct {
	fn   func(*engine.Engine) error
	done chan error
}

// WelcomePayload is the full state a client needs when it connects.
type WelcomePayload struct {
	ClientID  string                          `json:"clientId"`
	Mode      string                          `json:"mode"`
	Modes     []string                        `json:"modes"`
	Strategy  string                          `json:"strategy"`
	Viewport  viewport.State                  `json:"viewport"`
	Selection selection.Snapshot              `json:"selection"`
	History   command.StackChanged            `json:"history"`
	Elements  int                             `json:"elements"`
	Layers    map[string][]render.DrawCommand `json:"layers"`
}

// FramePayload carries the display lists of the layers a tick redrew.
type FramePayload struct {
	Layers map[string][]render.DrawCommand `json:"layers"`
	Stats  render.Stats                    `json:"stats"`
}

type Hub struct {
	engine    *engine.Engine
	frameRate int

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	calls      chan call

	stop chan struct{}
	done chan struct{}
}

// NewHub takes ownership of eng. From here on eng must only be touched
// through Do.
func NewHub(eng *engine.Engine, frameRate int) *Hub {
	if frameRate <= 0 {
		frameRate = 60
	}
	h := &Hub{
		engine:     eng,
		frameRate:  frameRate,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		calls:      make(chan call),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	h.subscribe()
	return h
}

// subscribe relays engine notifications. They fire on the loop goroutine.
func (h *Hub) subscribe() {
	ev := h.engine.Events()
	ev.Selection.Subscribe(func(s selection.Snapshot) { h.broadcast(TypeSelectionChanged, s) })
	ev.Elements.Subscribe(func(c document.ElementsChanged) { h.broadcast(TypeElementsChanged, c) })
	ev.Viewport.Subscribe(func(s viewport.State) { h.broadcast(TypeViewportChanged, s) })
	ev.Transient.Subscribe(func(t engine.TransientChanged) { h.broadcast(TypeTransientChanged, t) })
	ev.RenderStrategy.Subscribe(func(s render.StrategyChanged) { h.broadcast(TypeStrategyChanged, s) })
	ev.Stack.Subscribe(func(s command.StackChanged) { h.broadcast(TypeStackChanged, s) })
	ev.Mode.Subscribe(func(m mode.ModeChanged) { h.broadcast(TypeModeChanged, m) })
	ev.PersistFailed.Subscribe(func(p engine.PersistFailed) { h.broadcast(TypePersistFailed, p) })
}

func (h *Hub) Run() {
	defer close(h.done)

	ticker := time.NewTicker(time.Second / time.Duration(h.frameRate))
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)
		case c := <-h.calls:
			c.done <- c.fn(h.engine)
		case <-ticker.C:
			h.tick()
		case <-h.stop:
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = nil
			return
		}
	}
}

// Stop ends the loop. Queued storage writes are flushed before it returns.
func (h *Hub) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
	<-h.done

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.engine.Flush(ctx); err != nil {
		slog.Warn("flush on stop", "error", err)
	}
}

// Do runs fn on the loop goroutine and returns its error.
func (h *Hub) Do(ctx context.Context, fn func(*engine.Engine) error) error {
	c := call{fn: fn, done: make(chan error, 1)}
	select {
	case h.calls <- c:
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) submit(ctx context.Context, c *Client, msg *Message) bool {
	select {
	case h.inbound <- inbound{client: c, msg: msg}:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) addClient(client *Client) {
	h.clients[client.ClientID] = client
	e := h.engine
	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID:  client.ClientID,
		Mode:      e.Mode(),
		Modes:     e.Modes(),
		Strategy:  e.Strategy(),
		Viewport:  e.Viewport(),
		Selection: e.Selection(),
		History:   e.History(),
		Elements:  len(e.Elements()),
		Layers:    e.DisplayLists(),
	}))
	slog.Info("client joined", "client", client.ClientID, "clients", len(h.clients))
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client.ClientID]; !ok {
		return
	}
	delete(h.clients, client.ClientID)
	close(client.send)
	slog.Info("client left", "client", client.ClientID, "clients", len(h.clients))
}

func (h *Hub) tick() {
	r := h.engine.Tick()
	if !r.Any() || len(h.clients) == 0 {
		return
	}
	lists := h.engine.DisplayLists()
	frame := FramePayload{Layers: make(map[string][]render.DrawCommand), Stats: h.engine.RenderStats()}
	if r.Persistent {
		for _, l := range []render.Layer{render.LayerBackground, render.LayerData} {
			frame.Layers[l.String()] = lists[l.String()]
		}
	}
	if r.Transient {
		frame.Layers[render.LayerTransient.String()] = lists[render.LayerTransient.String()]
	}
	h.broadcast(TypeFrame, frame)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	if err := h.apply(msg); err != nil {
		slog.Debug("message rejected", "type", msg.Type, "client", sender.ClientID, "error", err)
		sender.Send(newMessage(TypeError, ErrorPayload{Seq: msg.Seq, Message: err.Error()}))
	}
}

func (h *Hub) apply(msg *Message) error {
	e := h.engine
	switch msg.Type {
	case TypePointer:
		var ev mode.PointerEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("invalid pointer payload: %w", err)
		}
		e.HandlePointer(ev)
	case TypeKey:
		var ev mode.KeyEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("invalid key payload: %w", err)
		}
		e.HandleKey(ev)
	case TypeAction:
		name, err := decodeName(msg.Payload)
		if err != nil {
			return err
		}
		a, err := mode.ParseAction(name)
		if err != nil {
			return err
		}
		e.Do(a)
	case TypeMode:
		name, err := decodeName(msg.Payload)
		if err != nil {
			return err
		}
		return e.SwitchMode(name)
	case TypeStrategy:
		name, err := decodeName(msg.Payload)
		if err != nil {
			return err
		}
		return e.SetStrategy(name)
	case TypeResize:
		var p ResizePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid resize payload: %w", err)
		}
		return e.Resize(p.Width, p.Height)
	case TypeRotate:
		name, err := decodeName(msg.Payload)
		if err != nil {
			return err
		}
		dir, err := viewport.ParseDirection(name)
		if err != nil {
			return err
		}
		e.RotateView(dir)
	case TypeCenter:
		e.CenterOnNearest()
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (h *Hub) broadcast(typ string, payload any) {
	if len(h.clients) == 0 {
		return
	}
	data, err := json.Marshal(newMessage(typ, payload))
	if err != nil {
		slog.Error("marshal message", "type", typ, "error", err)
		return
	}
	for _, c := range h.clients {
		c.sendRaw(data)
	}
}

func newMessage(typ string, payload any) *Message {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
		raw = json.RawMessage("null")
	}
	return &Message{Type: typ, Payload: raw}
}

func decodeName(payload json.RawMessage) (string, error) {
	var p NamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	return p.Name, nil
}
