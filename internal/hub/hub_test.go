package hub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weiawesome/duochat/internal/config"
	"github.com/weiawesome/duochat/internal/domain"
)

func startHub(t *testing.T, cfg config.WebSocketConfig) *Hub {
	t.Helper()
	h := NewHub(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return h
}

func connect(t *testing.T, h *Hub, id, username string) *Client {
	t.Helper()
	session := domain.NewSession(id)
	session.Authenticate("uid-"+username, username)
	c := NewClient(id, h, nil, session, h.config)
	if err := h.Register(c); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	return c
}

func receive(t *testing.T, c *Client) domain.Event {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if !ok {
			t.Fatalf("%s: send channel closed", c.ID)
		}
		var ev domain.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("%s: decode: %v", c.ID, err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("%s: no event received", c.ID)
	}
	return domain.Event{}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Errorf("%s: unexpected event %s", c.ID, data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RegisterRequiresAuthentication(t *testing.T) {
	h := startHub(t, config.WebSocketConfig{})
	c := NewClient("c1", h, nil, domain.NewSession("c1"), h.config)

	if err := h.Register(c); err == nil {
		t.Fatal("unauthenticated client registered")
	}
	if c.State() != StateConnecting {
		t.Errorf("state = %s, want connecting", c.State())
	}
}

func TestHub_DirectAudience(t *testing.T) {
	h := startHub(t, config.WebSocketConfig{})
	alice := connect(t, h, "a1", "alice")
	aliceTab := connect(t, h, "a2", "alice")
	bob := connect(t, h, "b1", "bob")
	carol := connect(t, h, "c1", "carol")

	if alice.State() != StateOpen {
		t.Fatalf("state = %s, want open", alice.State())
	}
	if got := h.ClientCount("alice"); got != 2 {
		t.Errorf("alice connections = %d", got)
	}

	msg := &domain.Message{ID: "m1", Sender: "alice", Receiver: "bob", Text: "hi", Timestamp: time.Now()}
	if err := h.MessageCreated(context.Background(), msg, nil); err != nil {
		t.Fatal(err)
	}

	for _, c := range []*Client{alice, aliceTab, bob} {
		ev := receive(t, c)
		if ev.Type != domain.MsgTypeReceiveMessage || ev.Message == nil || ev.Message.ID != "m1" {
			t.Errorf("%s got %+v", c.ID, ev)
		}
	}
	expectNothing(t, carol)
}

func TestHub_GroupAudienceAndDelete(t *testing.T) {
	h := startHub(t, config.WebSocketConfig{})
	alice := connect(t, h, "a1", "alice")
	bob := connect(t, h, "b1", "bob")
	dave := connect(t, h, "d1", "dave")

	members := []string{"alice", "bob", "carol"}
	msg := &domain.Message{ID: "g1", Sender: "alice", GroupID: "team", Text: "hello", Timestamp: time.Now()}

	if err := h.MessageCreated(context.Background(), msg, members); err != nil {
		t.Fatal(err)
	}
	for _, c := range []*Client{alice, bob} {
		ev := receive(t, c)
		if ev.Message == nil || ev.Message.GroupID != "team" || len(ev.Members) != 3 {
			t.Errorf("%s got %+v", c.ID, ev)
		}
	}
	expectNothing(t, dave)

	if err := h.MessageDeleted(context.Background(), msg, members); err != nil {
		t.Fatal(err)
	}
	for _, c := range []*Client{alice, bob} {
		ev := receive(t, c)
		if ev.Type != domain.MsgTypeMessageDeleted || ev.MessageID != "g1" {
			t.Errorf("%s got %+v", c.ID, ev)
		}
	}
	expectNothing(t, dave)
}

func TestHub_BroadcastExcludesSender(t *testing.T) {
	h := startHub(t, config.WebSocketConfig{})
	alice := connect(t, h, "a1", "alice")
	aliceTab := connect(t, h, "a2", "alice")
	bob := connect(t, h, "b1", "bob")

	out := &domain.TypingOut{Type: domain.MsgTypeTyping, Sender: "bob", GroupID: "team"}
	if err := h.BroadcastTo(context.Background(), []string{"alice", "bob"}, out, bob.ID); err != nil {
		t.Fatal(err)
	}

	receive(t, alice)
	receive(t, aliceTab)
	expectNothing(t, bob)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := startHub(t, config.WebSocketConfig{})
	alice := connect(t, h, "a1", "alice")

	h.Unregister(alice)
	h.Unregister(alice)

	deadline := time.Now().Add(time.Second)
	for alice.State() != StateClosed && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if alice.State() != StateClosed {
		t.Fatalf("state = %s, want closed", alice.State())
	}
	if h.ClientCount("alice") != 0 {
		t.Error("client still indexed")
	}
	if _, ok := <-alice.Send; ok {
		t.Error("send channel not closed")
	}
	if err := alice.SendMessage(&domain.PongOut{Type: domain.MsgTypePong}); !errors.Is(err, ErrHubClosed) {
		t.Errorf("send after close: got %v", err)
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	h := startHub(t, config.WebSocketConfig{SendBuffer: 1})
	slow := connect(t, h, "s1", "slow")

	for i := 0; i < 3; i++ {
		out := &domain.MessageDeletedOut{Type: domain.MsgTypeMessageDeleted, MessageID: "x"}
		if err := h.BroadcastTo(context.Background(), []string{"slow"}, out, ""); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for slow.State() != StateClosed && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if slow.State() != StateClosed {
		t.Fatal("slow client was not dropped")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h := NewHub(config.WebSocketConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	alice := connect(t, h, "a1", "alice")
	cancel()
	<-stopped

	if alice.State() != StateClosed {
		t.Errorf("state = %s, want closed", alice.State())
	}
	late := NewClient("b1", h, nil, domain.NewSession("b1"), h.config)
	late.Session.Authenticate("uid-bob", "bob")
	if err := h.Register(late); !errors.Is(err, ErrHubClosed) {
		t.Errorf("register after shutdown: got %v", err)
	}
	if err := h.BroadcastTo(context.Background(), []string{"alice"}, "x", ""); !errors.Is(err, ErrHubClosed) {
		t.Errorf("broadcast after shutdown: got %v", err)
	}
}

func TestIsUnexpectedClose(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{websocket.CloseNormalClosure, false},
		{websocket.CloseGoingAway, false},
		{websocket.CloseAbnormalClosure, false},
		{websocket.CloseInternalServerErr, true},
		{websocket.CloseMessageTooBig, true},
	}
	for _, tt := range tests {
		err := &websocket.CloseError{Code: tt.code}
		if got := isUnexpectedClose(err); got != tt.want {
			t.Errorf("close %d: got %v, want %v", tt.code, got, tt.want)
		}
	}
}
