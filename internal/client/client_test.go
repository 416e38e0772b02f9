package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/duochat/internal/app"
	"github.com/weiawesome/duochat/internal/config"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/reconciler"
)

func newServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", FilePath: ":memory:", LogLevel: "silent"},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "duochat", AccessDuration: time.Hour},
		WebSocket: config.WebSocketConfig{
			PingInterval:   time.Second,
			PongWait:       5 * time.Second,
			WriteWait:      time.Second,
			MaxMessageSize: 4096,
			SendBuffer:     64,
		},
		Upload: config.UploadConfig{Driver: "local", BasePath: t.TempDir(), PublicURL: "/uploads", MaxSize: 1 << 20},
		CORS:   config.CORSConfig{AllowedOrigins: "*"},
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		a.Close()
	})
	return srv.URL
}

type user struct {
	*Client
	rec  *reconciler.Reconciler
	conn *Conn
}

func signIn(t *testing.T, baseURL, name string) *user {
	t.Helper()
	ctx := context.Background()

	c := New(baseURL)
	if _, err := c.Register(ctx, name, name+"@example.com", "password"); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	if _, err := c.Login(ctx, name+"@example.com", "password"); err != nil {
		t.Fatalf("login %s: %v", name, err)
	}

	rec := reconciler.New(name, reconciler.WithTypingTTL(200*time.Millisecond))
	conn, err := c.Connect(ctx, rec)
	if err != nil {
		t.Fatalf("connect %s: %v", name, err)
	}
	t.Cleanup(func() {
		conn.Close()
		rec.Stop()
	})

	// a pong proves the connection is registered
	if err := conn.Ping(); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, conn, domain.MsgTypePong)

	return &user{Client: c, rec: rec, conn: conn}
}

func waitEvent(t *testing.T, conn *Conn, eventType string) domain.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				t.Fatalf("connection closed waiting for %s", eventType)
			}
			if ev.Type == eventType {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func expectNoEvent(t *testing.T, conn *Conn, eventType string) {
	t.Helper()
	timeout := time.After(150 * time.Millisecond)
	for {
		select {
		case ev := <-conn.Events():
			if ev.Type == eventType {
				t.Errorf("unexpected %s event: %+v", eventType, ev)
			}
		case <-timeout:
			return
		}
	}
}

func TestLiveDirectConversation(t *testing.T) {
	ctx := context.Background()
	baseURL := newServer(t)
	alice := signIn(t, baseURL, "alice")
	bob := signIn(t, baseURL, "bob")
	carol := signIn(t, baseURL, "carol")

	aliceView := alice.rec.OpenDirect("bob")
	bobView := bob.rec.OpenDirect("alice")
	carolView := carol.rec.OpenDirect("alice")

	sent, err := alice.SendDirect(ctx, "bob", "hi", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	waitEvent(t, bob.conn, domain.MsgTypeReceiveMessage)
	waitEvent(t, alice.conn, domain.MsgTypeReceiveMessage)
	expectNoEvent(t, carol.conn, domain.MsgTypeReceiveMessage)

	if !bobView.Contains(sent.ID) || !aliceView.Contains(sent.ID) {
		t.Fatal("message missing from a participant's view")
	}
	if carolView.Len() != 0 {
		t.Error("message leaked to a third party")
	}

	// a history re-fetch after the live event leaves exactly one entry
	history, err := bob.History(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	bobView.Refresh(history)
	if bobView.Len() != 1 {
		t.Errorf("bob view has %d entries after refresh", bobView.Len())
	}

	// re-announcing is absorbed by id de-duplication
	if err := alice.conn.Announce(sent.ID); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, bob.conn, domain.MsgTypeReceiveMessage)
	if bobView.Len() != 1 {
		t.Errorf("bob view has %d entries after announce", bobView.Len())
	}

	// only the sender may delete
	if err := bob.DeleteMessage(ctx, sent.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("delete by receiver: got %v", err)
	}
	if err := bob.conn.Delete(sent.ID); err != nil {
		t.Fatal(err)
	}
	if ev := waitEvent(t, bob.conn, domain.MsgTypeError); ev.Code != domain.ErrCodeForbidden || ev.Error == "" {
		t.Errorf("error event = %+v", ev)
	}

	if err := alice.conn.Delete(sent.ID); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, bob.conn, domain.MsgTypeMessageDeleted)
	waitEvent(t, alice.conn, domain.MsgTypeMessageDeleted)

	if bobView.Contains(sent.ID) || aliceView.Contains(sent.ID) {
		t.Error("deleted message still shown")
	}
	history, _ = bob.History(ctx, "bob")
	if len(history) != 0 {
		t.Errorf("deleted message still fetched: %+v", history)
	}
	if err := bob.DeleteMessage(ctx, sent.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("delete after delete: got %v", err)
	}
}

func TestLiveGroupConversation(t *testing.T) {
	ctx := context.Background()
	baseURL := newServer(t)
	alice := signIn(t, baseURL, "alice")
	bob := signIn(t, baseURL, "bob")
	dave := signIn(t, baseURL, "dave")

	team, err := alice.CreateGroup(ctx, "team", []string{"bob"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	bobView := bob.rec.OpenGroup(team.ID)
	daveView := dave.rec.OpenGroup(team.ID)

	msg, err := alice.SendGroup(ctx, team.ID, "standup", nil)
	if err != nil {
		t.Fatalf("send group: %v", err)
	}
	waitEvent(t, bob.conn, domain.MsgTypeReceiveMessage)
	expectNoEvent(t, dave.conn, domain.MsgTypeReceiveMessage)

	if !bobView.Contains(msg.ID) {
		t.Error("member did not receive group message")
	}
	if daveView.Len() != 0 {
		t.Error("non-member received group message")
	}

	if _, err := dave.SendGroup(ctx, team.ID, "hello?", nil); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member send: got %v", err)
	}

	// typing reaches other members only, and expires
	if err := bob.conn.TypingInGroup(team.ID); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, alice.conn, domain.MsgTypeTyping)
	scope := domain.GroupConversation(team.ID)
	if got := alice.rec.Typing().Typers(scope); len(got) != 1 || got[0] != "bob" {
		t.Errorf("typers = %v", got)
	}
	expectNoEvent(t, dave.conn, domain.MsgTypeTyping)

	deadline := time.Now().Add(2 * time.Second)
	for alice.rec.Typing().IsTyping(scope) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if alice.rec.Typing().IsTyping(scope) {
		t.Error("typing indicator did not expire")
	}

	// dave joins and can read what was said before
	if _, err := alice.AddMembers(ctx, team.ID, []string{"dave"}); err != nil {
		t.Fatal(err)
	}
	history, err := dave.GroupHistory(ctx, team.ID)
	if err != nil {
		t.Fatal(err)
	}
	daveView.Load(history)
	if !daveView.Contains(msg.ID) {
		t.Error("new member cannot see earlier message")
	}
}

func TestDirectTyping(t *testing.T) {
	baseURL := newServer(t)
	alice := signIn(t, baseURL, "alice")
	bob := signIn(t, baseURL, "bob")

	if err := alice.conn.TypingTo("bob"); err != nil {
		t.Fatal(err)
	}
	ev := waitEvent(t, bob.conn, domain.MsgTypeTyping)
	if ev.Sender != "alice" || ev.Receiver != "bob" {
		t.Errorf("typing event = %+v", ev)
	}
	if !bob.rec.Typing().IsTyping(domain.DirectConversation("alice", "bob")) {
		t.Error("indicator not shown")
	}
	expectNoEvent(t, alice.conn, domain.MsgTypeTyping)
}

func TestUploadAndAttach(t *testing.T) {
	ctx := context.Background()
	baseURL := newServer(t)
	alice := signIn(t, baseURL, "alice")
	bob := signIn(t, baseURL, "bob")
	bobView := bob.rec.OpenDirect("alice")

	res, err := alice.Upload(ctx, "notes.txt", strings.NewReader("meeting notes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	msg, err := alice.SendDirect(ctx, "bob", "", res.AsFile())
	if err != nil {
		t.Fatalf("send file: %v", err)
	}
	waitEvent(t, bob.conn, domain.MsgTypeReceiveMessage)

	got := bobView.Messages()
	if len(got) != 1 || got[0].ID != msg.ID || got[0].File == nil || got[0].File.URL != res.FileURL {
		t.Errorf("bob view = %+v", got)
	}
}

func TestConnectRequiresToken(t *testing.T) {
	baseURL := newServer(t)

	c := New(baseURL)
	if _, err := c.Connect(context.Background(), nil); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("connect without token: got %v", err)
	}

	c.SetToken("forged", "mallory")
	if _, err := c.Connect(context.Background(), nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("connect with forged token: got %v", err)
	}
}
