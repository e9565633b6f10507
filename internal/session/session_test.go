package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/mode"
	"github.com/inamate/sketchboard/internal/storage"
)

func newHub(t *testing.T) *Hub {
	t.Helper()
	cfg := config.Default()
	cfg.SurfaceWidth = 800
	cfg.SurfaceHeight = 600
	mem := storage.NewMemory()
	line := document.Element{ID: "line_a", Type: document.TypeLine,
		Geometries: []document.Point{{X: -100, Y: 0}, {X: 100, Y: 0}}}
	if err := mem.PutElement(context.Background(), line); err != nil {
		t.Fatal(err)
	}
	eng := engine.New(cfg, mem, nil)
	if err := eng.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	h := NewHub(eng, 120)
	go h.Run()
	t.Cleanup(func() {
		h.Stop()
		eng.Close()
	})
	return h
}

func dial(t *testing.T, h *Hub) (*websocket.Conn, context.Context) {
	t.Helper()
	srv := httptest.NewServer(h.ServeWS(nil))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

// expect reads until a message of type typ arrives.
func expect(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) Message {
	t.Helper()
	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, seq int64, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := wsjson.Write(ctx, conn, Message{Type: typ, Seq: seq, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestWelcome(t *testing.T) {
	h := newHub(t)
	conn, ctx := dial(t, h)

	msg := expect(t, ctx, conn, TypeWelcome)
	var w WelcomePayload
	if err := json.Unmarshal(msg.Payload, &w); err != nil {
		t.Fatal(err)
	}
	if w.ClientID == "" {
		t.Error("welcome has no client id")
	}
	if w.Mode != "view" || w.Elements != 1 {
		t.Errorf("welcome = mode %q, %d elements", w.Mode, w.Elements)
	}
	if _, ok := w.Layers["data"]; !ok {
		t.Errorf("welcome layers = %v, want a data layer", w.Layers)
	}
}

func TestPointerSelects(t *testing.T) {
	h := newHub(t)
	conn, ctx := dial(t, h)
	expect(t, ctx, conn, TypeWelcome)

	send(t, ctx, conn, TypePointer, 1, mode.PointerEvent{Kind: mode.PointerDown, X: 400, Y: 300})
	send(t, ctx, conn, TypePointer, 2, mode.PointerEvent{Kind: mode.PointerUp, X: 400, Y: 300})

	msg := expect(t, ctx, conn, TypeSelectionChanged)
	if !strings.Contains(string(msg.Payload), "line_a") {
		t.Errorf("selection payload = %s", msg.Payload)
	}
	expect(t, ctx, conn, TypeFrame)
}

func TestModeSwitch(t *testing.T) {
	h := newHub(t)
	conn, ctx := dial(t, h)
	expect(t, ctx, conn, TypeWelcome)

	send(t, ctx, conn, TypeMode, 1, NamePayload{Name: "draw"})
	msg := expect(t, ctx, conn, TypeModeChanged)
	var mc mode.ModeChanged
	if err := json.Unmarshal(msg.Payload, &mc); err != nil {
		t.Fatal(err)
	}
	if mc.Name != "draw" || mc.Previous != "view" {
		t.Errorf("mode changed = %+v", mc)
	}
}

func TestRejectedMessages(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		payload any
	}{
		{"unknown type", "nope", nil},
		{"unknown mode", TypeMode, NamePayload{Name: "sculpt"}},
		{"unknown action", TypeAction, NamePayload{Name: "explode"}},
		{"unknown strategy", TypeStrategy, NamePayload{Name: "magic"}},
		{"bad direction", TypeRotate, NamePayload{Name: "up"}},
		{"bad resize", TypeResize, ResizePayload{Width: 0, Height: 10}},
		{"bad pointer", TypePointer, "not an object"},
	}
	h := newHub(t)
	conn, ctx := dial(t, h)
	expect(t, ctx, conn, TypeWelcome)

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := int64(100 + i)
			send(t, ctx, conn, tt.typ, seq, tt.payload)
			msg := expect(t, ctx, conn, TypeError)
			var p ErrorPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				t.Fatal(err)
			}
			if p.Seq != seq || p.Message == "" {
				t.Errorf("error payload = %+v, want seq %d", p, seq)
			}
		})
	}
}

func TestDo(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()

	var n int
	if err := h.Do(ctx, func(e *engine.Engine) error {
		n = len(e.Elements())
		return nil
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if n != 1 {
		t.Errorf("elements = %d, want 1", n)
	}

	want := errors.New("boom")
	if err := h.Do(ctx, func(*engine.Engine) error { return want }); !errors.Is(err, want) {
		t.Errorf("Do error = %v, want %v", err, want)
	}

	h.Stop()
	if err := h.Do(ctx, func(*engine.Engine) error { return nil }); !errors.Is(err, ErrStopped) {
		t.Errorf("Do after Stop = %v, want ErrStopped", err)
	}
}
