package domain

// Conversation is a direct chat between an unordered pair of users or a
// group. The zero value is no conversation.
type Conversation struct {
	GroupID string
	// Direct participants, stored in sorted order so that the pair is unordered.
	UserA, UserB string
}

// DirectConversation returns the conversation between a and b.
func DirectConversation(a, b string) Conversation {
	if b < a {
		a, b = b, a
	}
	return Conversation{UserA: a, UserB: b}
}

// GroupConversation returns the conversation of a group.
func GroupConversation(groupID string) Conversation {
	return Conversation{GroupID: groupID}
}

func (c Conversation) IsGroup() bool {
	return c.GroupID != ""
}

func (c Conversation) IsZero() bool {
	return c == Conversation{}
}

// Key is a stable string form, usable as a map key in logs and caches.
func (c Conversation) Key() string {
	if c.IsGroup() {
		return "group:" + c.GroupID
	}
	return "direct:" + c.UserA + ":" + c.UserB
}

// Peer returns the other participant of a direct conversation as seen by me.
func (c Conversation) Peer(me string) string {
	switch me {
	case c.UserA:
		return c.UserB
	case c.UserB:
		return c.UserA
	}
	return ""
}

// Includes reports whether m belongs to c.
func (c Conversation) Includes(m *Message) bool {
	return !c.IsZero() && m.Conversation() == c
}

// Audience returns the usernames allowed to see events about m. members is
// the group's member set resolved when the event was produced and is
// ignored for direct messages.
func Audience(m *Message, members []string) []string {
	if m.IsGroup() {
		return dedupe(members)
	}
	if m.Sender == m.Receiver {
		return []string{m.Sender}
	}
	return []string{m.Sender, m.Receiver}
}

// TypingAudience returns who should see sender typing: the peer of a direct
// chat, or every group member except the sender.
func TypingAudience(sender, receiver string, members []string) []string {
	if receiver != "" {
		if receiver == sender {
			return nil
		}
		return []string{receiver}
	}
	out := make([]string, 0, len(members))
	for _, m := range dedupe(members) {
		if m != sender {
			out = append(out, m)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
