package message

import (
	"time"

	"github.com/brianhang/ChatApp/domain/chat"
)

// Service names registered by the message module.
const (
	ServiceSendMessage   = "send-message"
	ServiceEditMessage   = "edit-message"
	ServiceDeleteMessage = "delete-message"
	ServiceRequestOlder  = "request-older"
	ServiceRoomHistory   = "room-history"
	ServiceSetTyping     = "set-typing"
)

// Result is the shared outcome envelope for message services.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// SendMessageRequest posts content to the sender's current room.
type SendMessageRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// SendMessageResponse returns the stored message. Delivered is false when
// the send was silently ignored (no room, or empty content).
type SendMessageResponse struct {
	Result
	Delivered bool              `json:"delivered"`
	Message   *chat.MessageData `json:"stored,omitempty"`
}

// EditMessageRequest rewrites the content of the requester's own message.
type EditMessageRequest struct {
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// EditMessageResponse reports the edit outcome.
type EditMessageResponse struct {
	Result
}

// DeleteMessageRequest removes the requester's own message permanently.
type DeleteMessageRequest struct {
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
}

// DeleteMessageResponse reports the delete outcome.
type DeleteMessageResponse struct {
	Result
}

// RequestOlderRequest asks for messages in the requester's current room
// older than Before, newest first.
type RequestOlderRequest struct {
	UserID string    `json:"user_id"`
	Before time.Time `json:"before"`
}

// RequestOlderResponse carries the page. The gateway always follows it
// with a completion signal, including on the empty no-room path.
type RequestOlderResponse struct {
	Result
	Messages []chat.MessageData `json:"messages"`
}

// RoomHistoryRequest asks for the most recent messages in a room, newest
// first. Used by the read-only REST surface.
type RoomHistoryRequest struct {
	RoomID string `json:"room_id"`
	Limit  int    `json:"limit"`
}

// RoomHistoryResponse carries the page.
type RoomHistoryResponse struct {
	Result
	Messages []chat.MessageData `json:"messages"`
}

// SetTypingRequest relays the requester's composing state.
type SetTypingRequest struct {
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// SetTypingResponse reports whether the indicator was relayed.
type SetTypingResponse struct {
	Relayed bool `json:"relayed"`
}
