package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"

	"riverwood/internal/frontend"
	"riverwood/internal/memory"
	"riverwood/internal/turn"
)

type fakeCore struct{}

func (fakeCore) ProcessTurn(_ context.Context, in turn.Input) turn.Result {
	if strings.TrimSpace(in.Text) == "" && len(in.Audio) == 0 {
		return turn.Result{Outcome: turn.NoInput, Message: turn.NoInputMessage}
	}
	return turn.Result{Outcome: turn.Replied, Source: turn.FromText, Transcript: in.Text, Reply: "Ji, " + in.Text}
}

func (fakeCore) Synthesize(context.Context, string) ([]byte, error) { return nil, nil }

func (fakeCore) LoadMemory(context.Context) memory.Record { return memory.Record{} }

func TestResponder(t *testing.T) {
	h := Responder("riverwood", frontend.NewSession(fakeCore{}))
	ctx := context.Background()

	out := h(ctx, Message{From: "ui", To: "riverwood", Kind: KindTurn, Content: "status?"})
	if len(out) != 1 || out[0].Kind != KindReply || out[0].Content != "Ji, status?" || out[0].To != "ui" {
		t.Fatalf("turn reply = %+v", out)
	}

	out = h(ctx, Message{From: "ui", Kind: KindTurn})
	if len(out) != 1 || out[0].Kind != KindNotice || out[0].Content != turn.NoInputMessage {
		t.Fatalf("empty turn reply = %+v", out)
	}

	out = h(ctx, Message{From: "ui", Kind: KindSpeak})
	if len(out) != 1 || out[0].Content != frontend.VoiceUnavailable {
		t.Fatalf("speak reply = %+v", out)
	}

	if out := h(ctx, Message{From: "ui", To: "lights", Kind: KindTurn, Content: "x"}); out != nil {
		t.Fatalf("message for another shard answered: %+v", out)
	}
	if out := h(ctx, Message{From: "ui", Kind: "ping"}); out != nil {
		t.Fatalf("unknown kind answered: %+v", out)
	}
}

func TestClientRoundTrip(t *testing.T) {
	upgrader := ws.Upgrader{}
	got := make(chan Message, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.WriteJSON(Message{From: "ui", To: "riverwood", Kind: KindTurn, Content: "hello"}); err != nil {
			t.Errorf("write: %v", err)
			return
		}
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			t.Errorf("read: %v", err)
			return
		}
		got <- m
		// hold the connection until the client goes away
		conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Dial(ctx, url, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx, Responder("riverwood", frontend.NewSession(fakeCore{}))) }()

	select {
	case m := <-got:
		if m.Kind != KindReply || m.Content != "Ji, hello" || m.From != "riverwood" {
			t.Fatalf("reply = %+v", m)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reply")
	}

	cancel()
	if err := <-runErr; err != context.Canceled {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
}

func TestClientReconnectsAfterDrop(t *testing.T) {
	upgrader := ws.Upgrader{}
	var conns atomic.Int32
	got := make(chan Message, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// drop the first connection straight away
		if conns.Add(1) == 1 {
			return
		}
		if err := conn.WriteJSON(Message{From: "ui", Kind: KindTurn, Content: "again"}); err != nil {
			t.Errorf("write: %v", err)
			return
		}
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			t.Errorf("read: %v", err)
			return
		}
		got <- m
		conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx, Responder("riverwood", frontend.NewSession(fakeCore{}))) }()

	select {
	case m := <-got:
		if m.Content != "Ji, again" {
			t.Fatalf("reply = %+v", m)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reply after reconnect")
	}
	if n := conns.Load(); n < 2 {
		t.Fatalf("connections = %d, want at least 2", n)
	}

	cancel()
	if err := <-runErr; err != context.Canceled {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
}
