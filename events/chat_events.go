package events

import (
	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono/pkg/helper"
)

// Room lifecycle events. Room events fan out to everyone connected; the
// gateway replicates the registry state to all clients.

// RoomCreatedEvent is emitted when a new room is created.
type RoomCreatedEvent struct {
	Room chat.RoomData `json:"room"`
}

// RoomEditedEvent is emitted once per changed field when a room is edited.
type RoomEditedEvent struct {
	RoomID string `json:"room_id"`
	Field  string `json:"field"`
	Value  any    `json:"value"`
}

// RoomDeletedEvent is emitted when a room is deleted by its owner.
type RoomDeletedEvent struct {
	RoomID string `json:"room_id"`
}

// RoomJoinedEvent is emitted when a user becomes an occupant of a room.
type RoomJoinedEvent struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
}

// RoomLeftEvent is emitted when a user stops occupying a room, whether by
// leaving, switching rooms, being kicked or banned, or disconnecting.
type RoomLeftEvent struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
}

// Message events carry an explicit recipient list computed by the message
// coordinator from room occupancy at publish time, so the gateway never
// decides membership on its own.

// MessageSentEvent is emitted when a message is stored and relayed.
type MessageSentEvent struct {
	Message    chat.MessageData `json:"message"`
	Recipients []string         `json:"recipients"`
}

// MessageEditedEvent is emitted when an author edits their message.
type MessageEditedEvent struct {
	MessageID  string   `json:"message_id"`
	Content    string   `json:"content"`
	Recipients []string `json:"recipients"`
}

// MessageDeletedEvent is emitted when an author deletes their message.
type MessageDeletedEvent struct {
	MessageID  string   `json:"message_id"`
	Recipients []string `json:"recipients"`
}

// MessageBacklogEvent carries recent history for a user who just joined a
// room, newest first, already filtered by their last visit time.
type MessageBacklogEvent struct {
	UserID   string             `json:"user_id"`
	RoomID   string             `json:"room_id"`
	Messages []chat.MessageData `json:"messages"`
}

// TypingEvent is relayed to everyone else in the sender's room.
type TypingEvent struct {
	UserID     string   `json:"user_id"`
	IsTyping   bool     `json:"is_typing"`
	Recipients []string `json:"recipients"`
}

// User directory events fan out to everyone connected.

// UserConnectedEvent is emitted when a user session is registered.
type UserConnectedEvent struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// UserDisconnectedEvent is emitted when a user session ends.
type UserDisconnectedEvent struct {
	UserID string `json:"user_id"`
}

// NicknameChangedEvent is emitted when a user changes their nickname.
type NicknameChangedEvent struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// Event definitions, grouped by emitting module.
var (
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"room",
		"RoomCreated",
		"v1",
	)

	RoomEditedV1 = helper.EventDefinition[RoomEditedEvent](
		"room",
		"RoomEdited",
		"v1",
	)

	RoomDeletedV1 = helper.EventDefinition[RoomDeletedEvent](
		"room",
		"RoomDeleted",
		"v1",
	)

	RoomJoinedV1 = helper.EventDefinition[RoomJoinedEvent](
		"room",
		"RoomJoined",
		"v1",
	)

	RoomLeftV1 = helper.EventDefinition[RoomLeftEvent](
		"room",
		"RoomLeft",
		"v1",
	)

	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"message",
		"MessageSent",
		"v1",
	)

	MessageEditedV1 = helper.EventDefinition[MessageEditedEvent](
		"message",
		"MessageEdited",
		"v1",
	)

	MessageDeletedV1 = helper.EventDefinition[MessageDeletedEvent](
		"message",
		"MessageDeleted",
		"v1",
	)

	MessageBacklogV1 = helper.EventDefinition[MessageBacklogEvent](
		"message",
		"MessageBacklog",
		"v1",
	)

	TypingV1 = helper.EventDefinition[TypingEvent](
		"message",
		"Typing",
		"v1",
	)

	UserConnectedV1 = helper.EventDefinition[UserConnectedEvent](
		"user",
		"UserConnected",
		"v1",
	)

	UserDisconnectedV1 = helper.EventDefinition[UserDisconnectedEvent](
		"user",
		"UserDisconnected",
		"v1",
	)

	NicknameChangedV1 = helper.EventDefinition[NicknameChangedEvent](
		"user",
		"NicknameChanged",
		"v1",
	)
)
