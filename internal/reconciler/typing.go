package reconciler

import (
	"sort"
	"sync"
	"time"

	"github.com/weiawesome/duochat/internal/domain"
)

// DefaultTypingTTL is how long an indicator stays up after the last notice.
const DefaultTypingTTL = 2000 * time.Millisecond

type typingKey struct {
	scope  domain.Conversation
	sender string
}

type typingEntry struct {
	timer *time.Timer
	gen   uint64
}

// TypingTracker keeps one indicator per (scope, sender). Every Touch
// restarts that indicator's expiry.
type TypingTracker struct {
	ttl      time.Duration
	onChange func(scope domain.Conversation)

	mu      sync.Mutex
	entries map[typingKey]*typingEntry
	gen     uint64
}

// NewTypingTracker returns a tracker expiring indicators after ttl, or
// DefaultTypingTTL if ttl is not positive. onChange, if set, is called
// outside the lock whenever a scope's typers change.
func NewTypingTracker(ttl time.Duration, onChange func(scope domain.Conversation)) *TypingTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingTracker{
		ttl:      ttl,
		onChange: onChange,
		entries:  make(map[typingKey]*typingEntry),
	}
}

// Touch marks sender as typing in scope until ttl passes without another Touch.
func (t *TypingTracker) Touch(scope domain.Conversation, sender string) {
	key := typingKey{scope: scope, sender: sender}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	e, existed := t.entries[key]
	if existed {
		e.timer.Stop()
	} else {
		e = &typingEntry{}
		t.entries[key] = e
	}
	e.gen = gen
	e.timer = time.AfterFunc(t.ttl, func() { t.expire(key, gen) })
	t.mu.Unlock()

	if !existed {
		t.notify(scope)
	}
}

// Clear drops sender's indicator in scope immediately.
func (t *TypingTracker) Clear(scope domain.Conversation, sender string) {
	key := typingKey{scope: scope, sender: sender}

	t.mu.Lock()
	e, ok := t.entries[key]
	if ok {
		e.timer.Stop()
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if ok {
		t.notify(scope)
	}
}

func (t *TypingTracker) expire(key typingKey, gen uint64) {
	t.mu.Lock()
	e, ok := t.entries[key]
	// a later Touch replaced this timer
	if !ok || e.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.entries, key)
	t.mu.Unlock()

	t.notify(key.scope)
}

func (t *TypingTracker) notify(scope domain.Conversation) {
	if t.onChange != nil {
		t.onChange(scope)
	}
}

func (t *TypingTracker) IsTyping(scope domain.Conversation) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.entries {
		if k.scope == scope {
			return true
		}
	}
	return false
}

// Typers returns the senders currently typing in scope, sorted.
func (t *TypingTracker) Typers(scope domain.Conversation) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for k := range t.entries {
		if k.scope == scope {
			out = append(out, k.sender)
		}
	}
	sort.Strings(out)
	return out
}

// Stop cancels every pending expiry and clears all indicators.
func (t *TypingTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, k)
	}
}
