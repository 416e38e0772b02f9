// Package reconciler merges fetched history with live events into one
// duplicate-free message list per open conversation.
package reconciler

import (
	"sync"
	"time"

	"github.com/weiawesome/duochat/internal/domain"
)

type Option func(*options)

type options struct {
	typingTTL      time.Duration
	onTypingChange func(domain.Conversation)
}

// WithTypingTTL sets how long typing indicators last.
func WithTypingTTL(d time.Duration) Option {
	return func(o *options) { o.typingTTL = d }
}

// WithTypingChange registers a callback run when a scope's typers change.
func WithTypingChange(fn func(domain.Conversation)) Option {
	return func(o *options) { o.onTypingChange = fn }
}

// Reconciler is the client-side state of one signed-in user: a view per
// open conversation and the typing indicators addressed to that user.
type Reconciler struct {
	me     string
	typing *TypingTracker

	mu    sync.RWMutex
	views map[domain.Conversation]*View
}

func New(me string, opts ...Option) *Reconciler {
	o := options{typingTTL: DefaultTypingTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reconciler{
		me:     me,
		typing: NewTypingTracker(o.typingTTL, o.onTypingChange),
		views:  make(map[domain.Conversation]*View),
	}
}

func (r *Reconciler) Me() string {
	return r.me
}

// OpenDirect opens, or returns the already open, view of the chat with peer.
func (r *Reconciler) OpenDirect(peer string) *View {
	return r.open(domain.DirectConversation(r.me, peer))
}

// OpenGroup opens, or returns the already open, view of a group.
func (r *Reconciler) OpenGroup(groupID string) *View {
	return r.open(domain.GroupConversation(groupID))
}

func (r *Reconciler) open(conv domain.Conversation) *View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[conv]; ok {
		return v
	}
	v := NewView(conv)
	r.views[conv] = v
	return v
}

// Close forgets the view of conv.
func (r *Reconciler) Close(conv domain.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, conv)
}

func (r *Reconciler) View(conv domain.Conversation) (*View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[conv]
	return v, ok
}

func (r *Reconciler) Typing() *TypingTracker {
	return r.typing
}

// HandleEvent applies a server event and reports whether any state changed.
func (r *Reconciler) HandleEvent(ev *domain.Event) bool {
	if ev == nil {
		return false
	}
	switch ev.Type {
	case domain.MsgTypeReceiveMessage:
		return r.admit(ev.Message)
	case domain.MsgTypeMessageDeleted:
		return r.remove(ev.MessageID)
	case domain.MsgTypeTyping:
		return r.touchTyping(ev)
	default:
		return false
	}
}

func (r *Reconciler) admit(msg *domain.Message) bool {
	if msg == nil {
		return false
	}
	// a direct message is only ever shown to its two participants
	if !msg.IsGroup() && msg.Sender != r.me && msg.Receiver != r.me {
		return false
	}

	v, ok := r.View(msg.Conversation())
	if !ok {
		return false
	}
	return v.Admit(msg)
}

func (r *Reconciler) remove(id string) bool {
	if id == "" {
		return false
	}

	r.mu.RLock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	r.mu.RUnlock()

	removed := false
	for _, v := range views {
		if v.Remove(id) {
			removed = true
		}
	}
	return removed
}

func (r *Reconciler) touchTyping(ev *domain.Event) bool {
	if ev.Sender == "" || ev.Sender == r.me {
		return false
	}

	var scope domain.Conversation
	switch {
	case ev.GroupID != "":
		scope = domain.GroupConversation(ev.GroupID)
	case ev.Receiver == r.me:
		scope = domain.DirectConversation(ev.Sender, r.me)
	default:
		return false
	}

	r.typing.Touch(scope, ev.Sender)
	return true
}

// Stop releases the typing timers.
func (r *Reconciler) Stop() {
	r.typing.Stop()
}
