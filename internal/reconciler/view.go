package reconciler

import (
	"sync"

	"github.com/weiawesome/duochat/internal/domain"
)

// View is the message list of one open conversation. Entries come from a
// history fetch (Load, Refresh) and from live events (Admit) and are unique
// by id. Fetched entries keep the store's order; live entries are appended.
type View struct {
	conv domain.Conversation

	mu       sync.RWMutex
	messages []domain.Message
	ids      map[string]struct{}
	// live holds ids admitted from events since the last fetch, in arrival order.
	live []string
}

// NewView returns an empty view of conv.
func NewView(conv domain.Conversation) *View {
	return &View{
		conv: conv,
		ids:  make(map[string]struct{}),
	}
}

func (v *View) Conversation() domain.Conversation {
	return v.conv
}

// Load replaces the contents with the messages of history that belong to
// the conversation, in fetch order.
func (v *View) Load(history []domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.messages, v.ids = v.filter(history)
	v.live = nil
}

// Refresh merges a newer history snapshot with entries admitted live since
// the previous fetch. The snapshot comes first; live entries it does not
// contain follow in arrival order. A live entry missing from a snapshot that
// already holds a newer message was deleted and is dropped.
func (v *View) Refresh(history []domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	byID := make(map[string]domain.Message, len(v.live))
	for _, m := range v.messages {
		byID[m.ID] = m
	}

	messages, ids := v.filter(history)
	var newest *domain.Message
	for i := range messages {
		if newest == nil || after(&messages[i], newest) {
			newest = &messages[i]
		}
	}

	var live []string
	for _, id := range v.live {
		if _, ok := ids[id]; ok {
			continue
		}
		m, ok := byID[id]
		if !ok {
			continue
		}
		if newest != nil && after(newest, &m) {
			continue
		}
		messages = append(messages, m)
		ids[id] = struct{}{}
		live = append(live, id)
	}

	v.messages, v.ids, v.live = messages, ids, live
}

// Admit appends msg if it belongs to the conversation and is not already
// present. It reports whether msg was added.
func (v *View) Admit(msg *domain.Message) bool {
	if msg == nil || msg.ID == "" || !v.conv.Includes(msg) {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.ids[msg.ID]; ok {
		return false
	}
	v.messages = append(v.messages, *msg)
	v.ids[msg.ID] = struct{}{}
	v.live = append(v.live, msg.ID)
	return true
}

// Remove deletes the entry with id. It reports whether one was present.
func (v *View) Remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.ids[id]; !ok {
		return false
	}
	delete(v.ids, id)

	for i := range v.messages {
		if v.messages[i].ID == id {
			v.messages = append(v.messages[:i], v.messages[i+1:]...)
			break
		}
	}
	for i, liveID := range v.live {
		if liveID == id {
			v.live = append(v.live[:i], v.live[i+1:]...)
			break
		}
	}
	return true
}

func (v *View) Contains(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.ids[id]
	return ok
}

func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.messages)
}

// Messages returns a copy of the current list.
func (v *View) Messages() []domain.Message {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]domain.Message, len(v.messages))
	copy(out, v.messages)
	return out
}

func (v *View) filter(history []domain.Message) ([]domain.Message, map[string]struct{}) {
	messages := make([]domain.Message, 0, len(history))
	ids := make(map[string]struct{}, len(history))
	for i := range history {
		m := &history[i]
		if m.ID == "" || !v.conv.Includes(m) {
			continue
		}
		if _, ok := ids[m.ID]; ok {
			continue
		}
		ids[m.ID] = struct{}{}
		messages = append(messages, *m)
	}
	return messages, ids
}

// after orders by timestamp, then by id; message ids sort by creation time.
func after(x, y *domain.Message) bool {
	if !x.Timestamp.Equal(y.Timestamp) {
		return x.Timestamp.After(y.Timestamp)
	}
	return x.ID > y.ID
}
