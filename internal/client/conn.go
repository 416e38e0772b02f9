package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/reconciler"
	"github.com/weiawesome/duochat/pkg/log"
)

var ErrNotSignedIn = errors.New("client: not signed in")

const (
	eventBuffer = 64
	writeWait   = 10 * time.Second
)

// Conn is a live connection. Every server event is applied to the
// reconciler and then offered on Events.
type Conn struct {
	ws         *websocket.Conn
	reconciler *reconciler.Reconciler
	events     chan domain.Event
	done       chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Connect opens the live connection as the signed-in user. rec must belong
// to the same user.
func (c *Client) Connect(ctx context.Context, rec *reconciler.Reconciler) (*Conn, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrNotSignedIn
	}

	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: err.Error()}
		}
		return nil, err
	}

	conn := &Conn{
		ws:         ws,
		reconciler: rec,
		events:     make(chan domain.Event, eventBuffer),
		done:       make(chan struct{}),
	}
	go conn.readLoop()
	return conn, nil
}

func (c *Conn) readLoop() {
	defer close(c.events)
	defer c.Close()

	l := log.L()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.Debug().Err(err).Msg("live connection closed")
			}
			return
		}

		var ev domain.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			l.Warn().Err(err).Msg("undecodable server event")
			continue
		}

		if c.reconciler != nil {
			c.reconciler.HandleEvent(&ev)
		}

		select {
		case c.events <- ev:
		default:
			// nobody is draining Events; the reconciler already has it
		}
	}
}

// Events yields server events after they were applied. It is closed when
// the connection ends.
func (c *Conn) Events() <-chan domain.Event {
	return c.events
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// TypingTo tells receiver the signed-in user is typing.
func (c *Conn) TypingTo(receiver string) error {
	return c.write(&domain.TypingIn{Type: domain.MsgTypeTyping, Receiver: receiver})
}

// TypingInGroup tells the other members of a group the user is typing.
func (c *Conn) TypingInGroup(groupID string) error {
	return c.write(&domain.TypingIn{Type: domain.MsgTypeTyping, GroupID: groupID})
}

// Delete asks the server to delete one of the user's messages.
func (c *Conn) Delete(messageID string) error {
	return c.write(&domain.DeleteMessageIn{Type: domain.MsgTypeDeleteMessage, MessageID: messageID})
}

// Announce asks the server to re-broadcast a stored message of the user's.
func (c *Conn) Announce(messageID string) error {
	msg := &domain.SendMessageIn{Type: domain.MsgTypeSendMessage}
	msg.Message.ID = messageID
	return c.write(msg)
}

func (c *Conn) Ping() error {
	return c.write(&domain.BaseMessage{Type: domain.MsgTypePing})
}

func (c *Conn) write(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// Close ends the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.ws.Close()
		close(c.done)
	})
	return err
}
