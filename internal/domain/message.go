package domain

import "time"

// File describes an attachment stored outside the database.
type File struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Message is immutable once stored. Exactly one of Receiver and GroupID is set.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"senderUsername"`
	Receiver  string    `json:"receiverUsername,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	Text      string    `json:"messageText,omitempty"`
	File      *File     `json:"file"`
	Timestamp time.Time `json:"timestamp"`
}

// IsGroup reports whether the message was sent to a group.
func (m *Message) IsGroup() bool {
	return m.GroupID != ""
}

// Conversation returns the conversation the message belongs to.
func (m *Message) Conversation() Conversation {
	if m.IsGroup() {
		return GroupConversation(m.GroupID)
	}
	return DirectConversation(m.Sender, m.Receiver)
}

// SendDirectRequest is the body of POST /api/messages/send.
type SendDirectRequest struct {
	Receiver string `json:"receiverUsername" binding:"required"`
	Text     string `json:"messageText"`
	File     *File  `json:"file"`
}

// SendGroupRequest is the body of POST /api/messages/send-group.
type SendGroupRequest struct {
	GroupID string `json:"groupId" binding:"required"`
	Text    string `json:"messageText"`
	File    *File  `json:"file"`
}
