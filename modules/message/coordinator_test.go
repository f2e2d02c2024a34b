package message

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// fakeStore keeps messages in memory with the same query semantics as the
// sqlite repository.
type fakeStore struct {
	messages map[string]*chat.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{messages: make(map[string]*chat.Message)}
}

func (s *fakeStore) Create(_ context.Context, msg *chat.Message) error {
	copied := *msg
	s.messages[msg.ID] = &copied
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*chat.Message, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *msg
	return &copied, nil
}

func (s *fakeStore) UpdateContent(_ context.Context, id, content string) error {
	msg, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	msg.Content = content
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.messages[id]; !ok {
		return ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *fakeStore) inRoom(roomID string, keep func(chat.Message) bool, limit int) []*chat.Message {
	var result []*chat.Message
	for _, msg := range s.messages {
		if msg.RoomID == roomID && keep(*msg) {
			copied := *msg
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Time.After(result[j].Time) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (s *fakeStore) Recent(_ context.Context, roomID string, since *time.Time, limit int) ([]*chat.Message, error) {
	return s.inRoom(roomID, func(msg chat.Message) bool {
		return since == nil || msg.Time.After(*since)
	}, limit), nil
}

func (s *fakeStore) OlderThan(_ context.Context, roomID string, before time.Time, limit int) ([]*chat.Message, error) {
	return s.inRoom(roomID, func(msg chat.Message) bool {
		return msg.Time.Before(before)
	}, limit), nil
}

// fakeRooms answers occupancy queries from fixed maps.
type fakeRooms struct {
	occupancy map[string]string
	occupants map[string][]string
}

func (r *fakeRooms) Occupancy(_ context.Context, userID string) (string, error) {
	return r.occupancy[userID], nil
}

func (r *fakeRooms) Occupants(_ context.Context, roomID string) ([]string, error) {
	return r.occupants[roomID], nil
}

type fakeNicknames struct {
	names map[string]string
}

func (n *fakeNicknames) Nickname(_ context.Context, userID string) (string, bool, error) {
	name, ok := n.names[userID]
	return name, ok, nil
}

// recordingPublisher captures coordinator notifications in order.
type recordingPublisher struct {
	entries  []string
	backlogs [][]chat.MessageData
}

func (p *recordingPublisher) MessageSent(msg chat.MessageData, recipients []string) {
	p.entries = append(p.entries, fmt.Sprintf("sent:%s:%v", msg.Content, recipients))
}

func (p *recordingPublisher) MessageEdited(messageID, content string, recipients []string) {
	p.entries = append(p.entries, fmt.Sprintf("edited:%s:%v", content, recipients))
}

func (p *recordingPublisher) MessageDeleted(messageID string, recipients []string) {
	p.entries = append(p.entries, fmt.Sprintf("deleted:%s:%v", messageID, recipients))
}

func (p *recordingPublisher) MessageBacklog(userID, roomID string, messages []chat.MessageData) {
	p.entries = append(p.entries, fmt.Sprintf("backlog:%s:%d", userID, len(messages)))
	p.backlogs = append(p.backlogs, messages)
}

func (p *recordingPublisher) Typing(userID string, isTyping bool, recipients []string) {
	p.entries = append(p.entries, fmt.Sprintf("typing:%s:%v:%v", userID, isTyping, recipients))
}

func (p *recordingPublisher) reset() {
	p.entries = nil
	p.backlogs = nil
}

func newTestCoordinator(rooms *fakeRooms) (*Coordinator, *fakeStore, *recordingPublisher) {
	store := newFakeStore()
	publisher := &recordingPublisher{}
	nicknames := &fakeNicknames{names: map[string]string{
		"alice": "Alice",
		"bob":   "Bob",
	}}
	coordinator := NewCoordinator(store, rooms, nicknames, publisher, &mockLogger{}, 0)
	return coordinator, store, publisher
}

func lobbyRooms() *fakeRooms {
	return &fakeRooms{
		occupancy: map[string]string{"alice": "lobby", "bob": "lobby"},
		occupants: map[string][]string{"lobby": {"alice", "bob"}},
	}
}

func TestCoordinator_SendFansOutToOccupants(t *testing.T) {
	coordinator, store, publisher := newTestCoordinator(lobbyRooms())

	data, err := coordinator.Send(context.Background(), "alice", "  hello  ")
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Equal(t, "hello", data.Content)
	assert.Equal(t, "Alice", data.Nickname)
	assert.Equal(t, "lobby", data.RoomID)
	assert.Equal(t, []string{"sent:hello:[alice bob]"}, publisher.entries)

	stored, err := store.FindByID(context.Background(), data.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Content)
}

func TestCoordinator_SendIgnoresEmptyAndRoomless(t *testing.T) {
	coordinator, _, publisher := newTestCoordinator(lobbyRooms())
	ctx := context.Background()

	data, err := coordinator.Send(ctx, "alice", "   ")
	assert.NoError(t, err)
	assert.Nil(t, data)

	// carol occupies no room; her message goes nowhere.
	data, err = coordinator.Send(ctx, "carol", "hello?")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, publisher.entries)
}

func TestCoordinator_SendRequiresDirectoryEntry(t *testing.T) {
	// dave occupies the lobby but has no directory entry, so there is no
	// nickname to stamp on the message.
	rooms := &fakeRooms{
		occupancy: map[string]string{"dave": "lobby"},
		occupants: map[string][]string{"lobby": {"dave"}},
	}
	coordinator, store, publisher := newTestCoordinator(rooms)

	data, err := coordinator.Send(context.Background(), "dave", "hello")
	assert.True(t, errors.Is(err, chat.ErrNotFound))
	assert.Nil(t, data)
	assert.Empty(t, publisher.entries)
	assert.Empty(t, store.messages)
}

func TestCoordinator_SendRejectsOversizedContent(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(lobbyRooms())

	long := make([]byte, chat.MaxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := coordinator.Send(context.Background(), "alice", string(long))
	assert.True(t, errors.Is(err, chat.ErrValidation))
}

func TestCoordinator_EditAuthorOnly(t *testing.T) {
	coordinator, store, publisher := newTestCoordinator(lobbyRooms())
	ctx := context.Background()

	data, err := coordinator.Send(ctx, "alice", "original")
	require.NoError(t, err)
	publisher.reset()

	err = coordinator.Edit(ctx, "bob", data.ID, "hijacked")
	assert.True(t, errors.Is(err, chat.ErrNotAllowed))
	assert.Empty(t, publisher.entries)

	stored, err := store.FindByID(ctx, data.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Content)

	require.NoError(t, coordinator.Edit(ctx, "alice", data.ID, "revised"))
	assert.Equal(t, []string{"edited:revised:[alice bob]"}, publisher.entries)

	err = coordinator.Edit(ctx, "alice", "missing", "x")
	assert.True(t, errors.Is(err, chat.ErrNotFound))
}

func TestCoordinator_EditNotifiesMessageRoom(t *testing.T) {
	// Alice posts in the lobby, then moves to another room. Editing the old
	// message still notifies the lobby's current occupants.
	rooms := lobbyRooms()
	coordinator, _, publisher := newTestCoordinator(rooms)
	ctx := context.Background()

	data, err := coordinator.Send(ctx, "alice", "original")
	require.NoError(t, err)

	rooms.occupancy["alice"] = "games"
	rooms.occupants["lobby"] = []string{"bob"}
	publisher.reset()

	require.NoError(t, coordinator.Edit(ctx, "alice", data.ID, "revised"))
	assert.Equal(t, []string{"edited:revised:[bob]"}, publisher.entries)
}

func TestCoordinator_DeleteAuthorOnly(t *testing.T) {
	coordinator, store, publisher := newTestCoordinator(lobbyRooms())
	ctx := context.Background()

	data, err := coordinator.Send(ctx, "alice", "to be removed")
	require.NoError(t, err)
	publisher.reset()

	err = coordinator.Delete(ctx, "bob", data.ID)
	assert.True(t, errors.Is(err, chat.ErrNotAllowed))

	require.NoError(t, coordinator.Delete(ctx, "alice", data.ID))
	assert.Equal(t, []string{fmt.Sprintf("deleted:%s:[alice bob]", data.ID)}, publisher.entries)

	_, err = store.FindByID(ctx, data.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCoordinator_TypingExcludesSender(t *testing.T) {
	coordinator, _, publisher := newTestCoordinator(lobbyRooms())
	ctx := context.Background()

	relayed, err := coordinator.Typing(ctx, "alice", true)
	require.NoError(t, err)
	assert.True(t, relayed)
	assert.Equal(t, []string{"typing:alice:true:[bob]"}, publisher.entries)

	// Outside any room typing is dropped, not an error.
	publisher.reset()
	relayed, err = coordinator.Typing(ctx, "carol", true)
	require.NoError(t, err)
	assert.False(t, relayed)
	assert.Empty(t, publisher.entries)
}

func TestCoordinator_OlderOutsideRoom(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(lobbyRooms())

	messages, err := coordinator.Older(context.Background(), "carol", time.Now())
	require.NoError(t, err)
	assert.Equal(t, []chat.MessageData{}, messages)
}

func TestCoordinator_OlderPagesNewestFirst(t *testing.T) {
	coordinator, store, _ := newTestCoordinator(lobbyRooms())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(ctx, &chat.Message{
			ID:      fmt.Sprintf("m%d", i),
			UserID:  "alice",
			RoomID:  "lobby",
			Content: fmt.Sprintf("message %d", i),
			Time:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := coordinator.Older(ctx, "alice", base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "m2", messages[0].ID)
	assert.Equal(t, "m1", messages[1].ID)
	assert.Equal(t, "m0", messages[2].ID)
}

func TestCoordinator_BacklogFiltersByLastVisit(t *testing.T) {
	coordinator, _, publisher := newTestCoordinator(lobbyRooms())
	ctx := context.Background()

	_, err := coordinator.Send(ctx, "alice", "before the visit")
	require.NoError(t, err)
	publisher.reset()

	// First visit replays the full recent history.
	require.NoError(t, coordinator.Backlog(ctx, "bob", "lobby"))
	require.Len(t, publisher.backlogs, 1)
	require.Len(t, publisher.backlogs[0], 1)
	assert.Equal(t, "before the visit", publisher.backlogs[0][0].Content)

	_, err = coordinator.Send(ctx, "alice", "after the visit")
	require.NoError(t, err)
	publisher.reset()

	// A rejoin only replays what arrived since the previous visit.
	require.NoError(t, coordinator.Backlog(ctx, "bob", "lobby"))
	require.Len(t, publisher.backlogs, 1)
	require.Len(t, publisher.backlogs[0], 1)
	assert.Equal(t, "after the visit", publisher.backlogs[0][0].Content)

	// Disconnecting forgets the visit; the next join replays everything.
	coordinator.ForgetVisits("bob")
	publisher.reset()
	require.NoError(t, coordinator.Backlog(ctx, "bob", "lobby"))
	require.Len(t, publisher.backlogs, 1)
	assert.Len(t, publisher.backlogs[0], 2)
}
