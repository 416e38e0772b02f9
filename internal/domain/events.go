package domain

// WebSocket message types from client.
const (
	MsgTypeSendMessage   = "sendMessage"
	MsgTypeTyping        = "typing"
	MsgTypeDeleteMessage = "deleteMessage"
	MsgTypePing          = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeReceiveMessage = "receiveMessage"
	MsgTypeMessageDeleted = "messageDeleted"
	MsgTypeError          = "error"
	MsgTypePong           = "pong"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

// SendMessageIn asks the server to re-announce a stored message. Only the
// id is read; the record broadcast is the one loaded from the store.
type SendMessageIn struct {
	Type    string `json:"type"`
	Message struct {
		ID string `json:"id"`
	} `json:"message"`
}

type TypingIn struct {
	Type     string `json:"type"`
	Receiver string `json:"receiver,omitempty"`
	GroupID  string `json:"groupId,omitempty"`
}

type DeleteMessageIn struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

// Server -> Client messages

type ReceiveMessageOut struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
	Members []string `json:"members,omitempty"`
}

type TypingOut struct {
	Type     string `json:"type"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver,omitempty"`
	GroupID  string `json:"groupId,omitempty"`
}

type MessageDeletedOut struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

type PongOut struct {
	Type string `json:"type"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}

// Event is any server to client message, decoded far enough to route it.
type Event struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	Members   []string `json:"members,omitempty"`
	MessageID string   `json:"messageId,omitempty"`
	Sender    string   `json:"sender,omitempty"`
	Receiver  string   `json:"receiver,omitempty"`
	GroupID   string   `json:"groupId,omitempty"`
	Code      string   `json:"code,omitempty"`
	Error     string   `json:"error,omitempty"`
}
