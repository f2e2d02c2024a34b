package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// HistoryLength is the default backlog window delivered on join and per
// older-messages page.
const HistoryLength = 75

// storeTimeout bounds every store operation so a stalled database reports
// a transient failure instead of hanging the requester.
const storeTimeout = 5 * time.Second

// RoomDirectory is the slice of the room module the coordinator needs:
// live occupancy, queried at publish time to compute fan-out.
type RoomDirectory interface {
	Occupancy(ctx context.Context, userID string) (string, error)
	Occupants(ctx context.Context, roomID string) ([]string, error)
}

// Nicknames resolves a user id to their current display name. Messages
// snapshot it at send time; later renames leave old messages untouched.
type Nicknames interface {
	Nickname(ctx context.Context, userID string) (string, bool, error)
}

// Publisher receives the notifications the coordinator produces.
type Publisher interface {
	MessageSent(msg chat.MessageData, recipients []string)
	MessageEdited(messageID, content string, recipients []string)
	MessageDeleted(messageID string, recipients []string)
	MessageBacklog(userID, roomID string, messages []chat.MessageData)
	Typing(userID string, isTyping bool, recipients []string)
}

// Store is the persistence contract the coordinator needs.
type Store interface {
	Create(ctx context.Context, msg *chat.Message) error
	FindByID(ctx context.Context, id string) (*chat.Message, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
	Recent(ctx context.Context, roomID string, since *time.Time, limit int) ([]*chat.Message, error)
	OlderThan(ctx context.Context, roomID string, before time.Time, limit int) ([]*chat.Message, error)
}

// Coordinator owns the per-room message log, the typing relay, and backlog
// delivery on join.
type Coordinator struct {
	store         Store
	rooms         RoomDirectory
	nicknames     Nicknames
	publisher     Publisher
	visits        *visitLog
	logger        types.Logger
	historyLength int
}

// NewCoordinator creates a message coordinator.
func NewCoordinator(store Store, rooms RoomDirectory, nicknames Nicknames, publisher Publisher, logger types.Logger, historyLength int) *Coordinator {
	if historyLength <= 0 {
		historyLength = HistoryLength
	}
	return &Coordinator{
		store:         store,
		rooms:         rooms,
		nicknames:     nicknames,
		publisher:     publisher,
		visits:        newVisitLog(),
		logger:        logger,
		historyLength: historyLength,
	}
}

// Send stores the trimmed content in the sender's current room and relays
// it to everyone occupying that room. Senders outside any room, and empty
// content, are silently ignored.
func (c *Coordinator) Send(ctx context.Context, userID, content string) (*chat.MessageData, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}
	if len(content) > chat.MaxMessageLength {
		return nil, chat.Validation("message is too long")
	}

	roomID, err := c.rooms.Occupancy(ctx, userID)
	if err != nil {
		c.logger.Error("Failed to resolve occupancy", "error", err, "userID", userID)
		return nil, chat.Transient("could not send message")
	}
	if roomID == "" {
		return nil, nil
	}

	nickname, found, err := c.nicknames.Nickname(ctx, userID)
	if err != nil {
		c.logger.Error("Failed to resolve nickname", "error", err, "userID", userID)
		return nil, chat.Transient("could not send message")
	}
	if !found {
		// A sender with no directory entry has no session to snapshot a
		// nickname from; never store a message with an empty one.
		return nil, chat.NotFound("you are not connected")
	}

	msg := &chat.Message{
		ID:       uuid.New().String(),
		UserID:   userID,
		Nickname: nickname,
		RoomID:   roomID,
		Content:  content,
		Time:     time.Now().UTC(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := c.store.Create(storeCtx, msg); err != nil {
		c.logger.Error("Failed to persist message", "error", err, "roomID", roomID)
		return nil, chat.Transient("could not send message")
	}

	recipients, err := c.rooms.Occupants(ctx, roomID)
	if err != nil {
		c.logger.Error("Failed to resolve occupants", "error", err, "roomID", roomID)
		return nil, chat.Transient("could not send message")
	}

	data := msg.Data()
	c.publisher.MessageSent(data, recipients)
	c.logger.Debug("Message sent", "messageID", msg.ID, "roomID", roomID)
	return &data, nil
}

// load fetches a message and checks that the requester authored it.
func (c *Coordinator) load(ctx context.Context, userID, messageID string) (*chat.Message, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	msg, err := c.store.FindByID(storeCtx, messageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, chat.NotFound("message not found")
		}
		c.logger.Error("Failed to load message", "error", err, "messageID", messageID)
		return nil, chat.Transient("could not load message")
	}
	if msg.UserID != userID {
		return nil, chat.NotAllowed("you are not allowed to change this message")
	}
	return msg, nil
}

// Edit rewrites the author's own message and notifies whoever currently
// occupies the message's room, which may differ from the author's room.
func (c *Coordinator) Edit(ctx context.Context, userID, messageID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return chat.Validation("message cannot be empty")
	}
	if len(content) > chat.MaxMessageLength {
		return chat.Validation("message is too long")
	}

	msg, err := c.load(ctx, userID, messageID)
	if err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := c.store.UpdateContent(storeCtx, msg.ID, content); err != nil {
		c.logger.Error("Failed to update message", "error", err, "messageID", msg.ID)
		return chat.Transient("could not edit message")
	}

	recipients, err := c.rooms.Occupants(ctx, msg.RoomID)
	if err != nil {
		c.logger.Error("Failed to resolve occupants", "error", err, "roomID", msg.RoomID)
		return chat.Transient("could not edit message")
	}
	c.publisher.MessageEdited(msg.ID, content, recipients)
	return nil
}

// Delete removes the author's own message permanently and notifies the
// current occupants of the message's room.
func (c *Coordinator) Delete(ctx context.Context, userID, messageID string) error {
	msg, err := c.load(ctx, userID, messageID)
	if err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := c.store.Delete(storeCtx, msg.ID); err != nil {
		c.logger.Error("Failed to delete message", "error", err, "messageID", msg.ID)
		return chat.Transient("could not delete message")
	}

	recipients, err := c.rooms.Occupants(ctx, msg.RoomID)
	if err != nil {
		c.logger.Error("Failed to resolve occupants", "error", err, "roomID", msg.RoomID)
		return chat.Transient("could not delete message")
	}
	c.publisher.MessageDeleted(msg.ID, recipients)
	return nil
}

// Older returns one page of the requester's current room history strictly
// before the given time, newest first. Outside any room the page is empty;
// the caller still sends its completion signal so the client never hangs.
func (c *Coordinator) Older(ctx context.Context, userID string, before time.Time) ([]chat.MessageData, error) {
	roomID, err := c.rooms.Occupancy(ctx, userID)
	if err != nil {
		c.logger.Error("Failed to resolve occupancy", "error", err, "userID", userID)
		return nil, chat.Transient("could not load older messages")
	}
	if roomID == "" {
		return []chat.MessageData{}, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	messages, err := c.store.OlderThan(storeCtx, roomID, before, c.historyLength)
	if err != nil {
		c.logger.Error("Failed to load older messages", "error", err, "roomID", roomID)
		return nil, chat.Transient("could not load older messages")
	}
	return toData(messages), nil
}

// History returns the most recent messages of a room, newest first,
// without touching visit records.
func (c *Coordinator) History(ctx context.Context, roomID string, limit int) ([]chat.MessageData, error) {
	if limit <= 0 || limit > c.historyLength {
		limit = c.historyLength
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	messages, err := c.store.Recent(storeCtx, roomID, nil, limit)
	if err != nil {
		c.logger.Error("Failed to load history", "error", err, "roomID", roomID)
		return nil, chat.Transient("could not load room history")
	}
	return toData(messages), nil
}

// Typing relays the composing state to every other occupant of the
// sender's room. Never persisted, never echoed back, never coalesced.
func (c *Coordinator) Typing(ctx context.Context, userID string, isTyping bool) (bool, error) {
	roomID, err := c.rooms.Occupancy(ctx, userID)
	if err != nil {
		c.logger.Error("Failed to resolve occupancy", "error", err, "userID", userID)
		return false, chat.Transient("could not relay typing state")
	}
	if roomID == "" {
		return false, nil
	}

	occupants, err := c.rooms.Occupants(ctx, roomID)
	if err != nil {
		c.logger.Error("Failed to resolve occupants", "error", err, "roomID", roomID)
		return false, chat.Transient("could not relay typing state")
	}

	recipients := make([]string, 0, len(occupants))
	for _, occupant := range occupants {
		if occupant != userID {
			recipients = append(recipients, occupant)
		}
	}
	c.publisher.Typing(userID, isTyping, recipients)
	return true, nil
}

// Backlog delivers the recent history of a room to a user who just joined
// it. A rejoin within the same process lifetime only replays messages
// newer than the user's previous visit.
func (c *Coordinator) Backlog(ctx context.Context, userID, roomID string) error {
	prev, visited := c.visits.Record(userID, roomID, time.Now().UTC())

	var since *time.Time
	if visited {
		since = &prev
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	messages, err := c.store.Recent(storeCtx, roomID, since, c.historyLength)
	if err != nil {
		c.logger.Error("Failed to load backlog", "error", err, "roomID", roomID)
		return chat.Transient("could not load room history")
	}

	c.publisher.MessageBacklog(userID, roomID, toData(messages))
	return nil
}

// ForgetVisits drops a user's visit records, typically on disconnect.
func (c *Coordinator) ForgetVisits(userID string) {
	c.visits.Forget(userID)
}

func toData(messages []*chat.Message) []chat.MessageData {
	data := make([]chat.MessageData, 0, len(messages))
	for _, msg := range messages {
		data = append(data, msg.Data())
	}
	return data
}
