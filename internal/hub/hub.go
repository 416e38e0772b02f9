package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/weiawesome/duochat/internal/config"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/log"
)

var ErrHubClosed = errors.New("hub is not running")

// Hub is the process-wide registry of live connections. Connections are
// indexed by the username bound at connect time, and every event is
// delivered only to the connections of its audience.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	users      map[string]map[string]*Client // username -> clientID -> client
	unregister chan *Client
	broadcast  chan *Delivery
	done       chan struct{}
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// Delivery is one encoded event and the usernames that should receive it.
type Delivery struct {
	Audience []string
	Message  []byte
	Exclude  string // client ID to skip
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		users:      make(map[string]map[string]*Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Delivery, 256),
		done:       make(chan struct{}),
		config:     cfg,
	}
}

// Run processes removals and deliveries until ctx is cancelled, then
// closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	username := client.Session.GetUsername()
	if conns, ok := h.users[username]; ok {
		delete(conns, client.ID)
		if len(conns) == 0 {
			delete(h.users, username)
		}
	}
	delete(h.clients, client.ID)
	client.setState(StateClosed)
	close(client.Send)

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Str(log.FieldUsername, username).Msg("client unregistered")
}

func (h *Hub) deliver(d *Delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, username := range d.Audience {
		for clientID, client := range h.users[username] {
			if clientID == d.Exclude {
				continue
			}
			select {
			case client.Send <- d.Message:
			default:
				// Send buffer full: the client is too slow, drop it.
				go h.Unregister(client)
			}
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.done)
	for id, client := range h.clients {
		client.setState(StateClosed)
		close(client.Send)
		delete(h.clients, id)
	}
	h.users = make(map[string]map[string]*Client)
}

// Register adds an authenticated client to the registry. The client is
// Open and reachable by BroadcastTo once Register returns.
func (h *Hub) Register(client *Client) error {
	if !client.Session.IsAuthenticated() {
		return errors.New("hub: client session is not authenticated")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	username := client.Session.GetUsername()
	h.clients[client.ID] = client
	if _, ok := h.users[username]; !ok {
		h.users[username] = make(map[string]*Client)
	}
	h.users[username][client.ID] = client
	client.setState(StateOpen)

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Str(log.FieldUsername, username).Msg("client registered")
	return nil
}

// Unregister removes a client and closes its send channel. It is safe to
// call more than once.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastTo encodes message and queues it for every connection of the
// given users, except the connection with ID exclude.
func (h *Hub) BroadcastTo(ctx context.Context, audience []string, message interface{}, exclude string) error {
	if len(audience) == 0 {
		return nil
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- &Delivery{Audience: audience, Message: data, Exclude: exclude}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MessageCreated announces a stored message to its audience.
func (h *Hub) MessageCreated(ctx context.Context, msg *domain.Message, members []string) error {
	out := &domain.ReceiveMessageOut{
		Type:    domain.MsgTypeReceiveMessage,
		Message: msg,
		Members: members,
	}
	return h.BroadcastTo(ctx, domain.Audience(msg, members), out, "")
}

// MessageDeleted announces a deletion to the audience of the deleted message.
func (h *Hub) MessageDeleted(ctx context.Context, msg *domain.Message, members []string) error {
	out := &domain.MessageDeletedOut{
		Type:      domain.MsgTypeMessageDeleted,
		MessageID: msg.ID,
	}
	return h.BroadcastTo(ctx, domain.Audience(msg, members), out, "")
}

// ClientCount returns the number of open connections bound to username.
func (h *Hub) ClientCount(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[username])
}
