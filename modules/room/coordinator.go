package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// Publisher receives the notifications the coordinator produces. The module
// implements it on the event bus; tests substitute a recording fake.
type Publisher interface {
	RoomCreated(room chat.RoomData)
	RoomEdited(roomID, field string, value any)
	RoomDeleted(roomID string)
	RoomJoined(userID, roomID string)
	RoomLeft(userID, roomID string)
}

// Store is the persistence contract the coordinator needs.
type Store interface {
	Create(ctx context.Context, room *chat.Room) error
	FindByID(ctx context.Context, id string) (*chat.Room, error)
	FindAll(ctx context.Context) ([]*chat.Room, error)
	UpdateColumn(ctx context.Context, id, column string, value any) error
	UpdateColumns(ctx context.Context, id string, values map[string]any) error
	Delete(ctx context.Context, id string) error
}

// storeTimeout bounds every store operation so a stalled database reports a
// transient failure instead of hanging the requester.
const storeTimeout = 5 * time.Second

// Coordinator owns room lifecycle transitions. All occupancy writes route
// through the registry via this type, which keeps the at-most-one-room
// invariant intact.
type Coordinator struct {
	store     Store
	registry  *Registry
	publisher Publisher
	logger    types.Logger
}

// NewCoordinator creates a room coordinator.
func NewCoordinator(store Store, registry *Registry, publisher Publisher, logger types.Logger) *Coordinator {
	return &Coordinator{
		store:     store,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", chat.Validation("room name cannot be empty")
	}
	if len(name) > chat.MaxRoomNameLength {
		return "", chat.Validation(fmt.Sprintf("room name cannot exceed %d characters", chat.MaxRoomNameLength))
	}
	return name, nil
}

func validateDescription(description string) (string, error) {
	if len(description) > chat.MaxDescriptionLength {
		return "", chat.Validation(fmt.Sprintf("room description cannot exceed %d characters", chat.MaxDescriptionLength))
	}
	return description, nil
}

// Create persists a new room owned by ownerID. Room names are not required
// to be unique. The creator is not placed in the room; ownership and
// occupancy are independent.
func (c *Coordinator) Create(ctx context.Context, ownerID, name, description, password string) (*chat.RoomData, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	description, err = validateDescription(description)
	if err != nil {
		return nil, err
	}

	hash := ""
	if password != "" {
		hash, err = hashPassword(password)
		if err != nil {
			c.logger.Error("Failed to hash room password", "error", err)
			return nil, chat.Transient("could not create room")
		}
	}

	room := &chat.Room{
		ID:           uuid.New().String(),
		Name:         name,
		Description:  description,
		PasswordHash: hash,
		OwnerID:      ownerID,
		Bans:         chat.BanList{},
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := c.store.Create(ctx, room); err != nil {
		c.logger.Error("Failed to persist room", "error", err, "name", name)
		return nil, chat.Transient("could not create room")
	}

	data := room.Data(nil)
	c.publisher.RoomCreated(data)
	c.logger.Info("Room created", "roomID", room.ID, "ownerID", ownerID)
	return &data, nil
}

// Join moves the user into the room. Joining the room the user already
// occupies is a no-op. The room owner bypasses both the password and the
// ban list; everyone else must not be banned and must supply the password
// when one is set. Join failures never touch other users' state.
func (c *Coordinator) Join(ctx context.Context, userID, roomID, password string) error {
	if current, ok := c.registry.RoomOf(userID); ok && current == roomID {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	room, err := c.store.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return chat.NotFound("room not found")
		}
		c.logger.Error("Failed to load room", "error", err, "roomID", roomID)
		return chat.Transient("could not join room")
	}

	if userID != room.OwnerID {
		if room.Bans.Contains(userID) {
			return chat.NotAllowed("you are banned from this room")
		}
		if room.HasPassword() && !passwordMatches(password, room.PasswordHash) {
			return chat.NotAllowed("incorrect password")
		}
	}

	prev, moved := c.registry.Assign(userID, roomID)
	if !moved {
		return nil
	}
	if prev != "" {
		c.publisher.RoomLeft(userID, prev)
	}
	c.publisher.RoomJoined(userID, roomID)
	c.logger.Info("User joined room", "userID", userID, "roomID", roomID)
	return nil
}

// Leave clears the user's occupancy. It fails with a notice when the user
// occupies no room.
func (c *Coordinator) Leave(userID string) (string, error) {
	roomID, ok := c.registry.Clear(userID)
	if !ok {
		return "", chat.Validation("you are not in a room")
	}
	c.publisher.RoomLeft(userID, roomID)
	c.logger.Info("User left room", "userID", userID, "roomID", roomID)
	return roomID, nil
}

// Evict clears the user's occupancy without treating an empty occupancy as
// an error. Used for disconnects.
func (c *Coordinator) Evict(userID string) {
	if roomID, ok := c.registry.Clear(userID); ok {
		c.publisher.RoomLeft(userID, roomID)
		c.logger.Info("User evicted from room", "userID", userID, "roomID", roomID)
	}
}

// Edit applies owner-initiated field changes. Every change is validated
// before any is applied, so a bad field aborts the whole edit. A true
// delete field deletes the room instead; other changes in the same request
// are ignored in that case.
func (c *Coordinator) Edit(ctx context.Context, userID, roomID string, changes map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	room, err := c.store.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return chat.NotFound("room not found")
		}
		c.logger.Error("Failed to load room", "error", err, "roomID", roomID)
		return chat.Transient("could not edit room")
	}
	if userID != room.OwnerID {
		return chat.NotAllowed("you are not the owner of this room")
	}

	type fieldEdit struct {
		column    string
		value     any
		field     string
		broadcast any
	}
	edits := make([]fieldEdit, 0, len(changes))

	for field, raw := range changes {
		switch field {
		case FieldDelete:
			if wanted, ok := raw.(bool); ok && wanted {
				return c.deleteRoom(ctx, room)
			}
		case FieldName:
			value, ok := raw.(string)
			if !ok {
				return chat.Validation("room name must be a string")
			}
			name, err := validateName(value)
			if err != nil {
				return err
			}
			edits = append(edits, fieldEdit{"name", name, FieldName, name})
		case FieldDescription:
			value, ok := raw.(string)
			if !ok {
				return chat.Validation("room description must be a string")
			}
			description, err := validateDescription(value)
			if err != nil {
				return err
			}
			edits = append(edits, fieldEdit{"description", description, FieldDescription, description})
		case FieldPassword:
			value, ok := raw.(string)
			if !ok {
				return chat.Validation("room password must be a string")
			}
			hash := ""
			if value != "" {
				hash, err = hashPassword(value)
				if err != nil {
					c.logger.Error("Failed to hash room password", "error", err)
					return chat.Transient("could not edit room")
				}
			}
			// Clients only ever learn whether a password is set.
			edits = append(edits, fieldEdit{"password_hash", hash, "hasPassword", hash != ""})
		default:
			return chat.Validation(fmt.Sprintf("unknown room field %q", field))
		}
	}
	if len(edits) == 0 {
		return nil
	}

	// All columns go down in one statement; a store failure leaves the room
	// untouched and nothing is broadcast.
	values := make(map[string]any, len(edits))
	for _, edit := range edits {
		values[edit.column] = edit.value
	}
	if err := c.store.UpdateColumns(ctx, room.ID, values); err != nil {
		c.logger.Error("Failed to update room fields", "error", err, "roomID", room.ID)
		return chat.Transient("could not edit room")
	}
	for _, edit := range edits {
		c.publisher.RoomEdited(room.ID, edit.field, edit.broadcast)
	}

	c.logger.Info("Room edited", "roomID", room.ID, "fields", len(edits))
	return nil
}

// deleteRoom removes the room record, evicts every occupant, and only then
// announces the deletion. Eviction always completes even though the
// requester also receives a success result.
func (c *Coordinator) deleteRoom(ctx context.Context, room *chat.Room) error {
	if err := c.store.Delete(ctx, room.ID); err != nil {
		c.logger.Error("Failed to delete room", "error", err, "roomID", room.ID)
		return chat.Transient("could not delete room")
	}
	for _, userID := range c.registry.Evict(room.ID) {
		c.publisher.RoomLeft(userID, room.ID)
	}
	c.publisher.RoomDeleted(room.ID)
	c.logger.Info("Room deleted", "roomID", room.ID)
	return nil
}

// Ban adds or removes a ban. Bans key on user id so they survive nickname
// changes. Adding a ban evicts the target if they occupy the room before
// the ban broadcast goes out; removing one never touches occupancy. The
// updated list is returned to the owner only.
func (c *Coordinator) Ban(ctx context.Context, ownerID, roomID, targetID string, banned bool) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	room, err := c.store.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, chat.NotFound("room not found")
		}
		c.logger.Error("Failed to load room", "error", err, "roomID", roomID)
		return nil, chat.Transient("could not update bans")
	}
	if ownerID != room.OwnerID {
		return nil, chat.NotAllowed("you are not the owner of this room")
	}
	if targetID == room.OwnerID {
		return nil, chat.Validation("the room owner cannot be banned")
	}

	bans := room.Bans
	changed := false
	if banned {
		if !bans.Contains(targetID) {
			bans = append(bans, targetID)
			changed = true
		}
	} else {
		kept := make(chat.BanList, 0, len(bans))
		for _, id := range bans {
			if id == targetID {
				changed = true
				continue
			}
			kept = append(kept, id)
		}
		bans = kept
	}

	if changed {
		if err := c.store.UpdateColumn(ctx, room.ID, "bans", bans); err != nil {
			c.logger.Error("Failed to update ban list", "error", err, "roomID", room.ID)
			return nil, chat.Transient("could not update bans")
		}
	}

	if banned {
		if current, ok := c.registry.RoomOf(targetID); ok && current == roomID {
			c.registry.Clear(targetID)
			c.publisher.RoomLeft(targetID, roomID)
		}
	}

	c.logger.Info("Ban list updated", "roomID", room.ID, "targetID", targetID, "banned", banned)
	return bans, nil
}

// Bans returns the room's ban list. Owner only; ban lists are never shown
// to other users.
func (c *Coordinator) Bans(ctx context.Context, ownerID, roomID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	room, err := c.store.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, chat.NotFound("room not found")
		}
		c.logger.Error("Failed to load room", "error", err, "roomID", roomID)
		return nil, chat.Transient("could not load bans")
	}
	if ownerID != room.OwnerID {
		return nil, chat.NotAllowed("you are not the owner of this room")
	}
	return room.Bans, nil
}

// Kick evicts the target from the owner's room without banning them; the
// target may rejoin immediately.
func (c *Coordinator) Kick(ctx context.Context, ownerID, roomID, targetID string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	room, err := c.store.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return chat.NotFound("room not found")
		}
		c.logger.Error("Failed to load room", "error", err, "roomID", roomID)
		return chat.Transient("could not kick user")
	}
	if ownerID != room.OwnerID {
		return chat.NotAllowed("you are not the owner of this room")
	}

	current, ok := c.registry.RoomOf(targetID)
	if !ok || current != roomID {
		return chat.Validation("that user is not in this room")
	}

	c.registry.Clear(targetID)
	c.publisher.RoomLeft(targetID, roomID)
	c.logger.Info("User kicked", "roomID", roomID, "targetID", targetID)
	return nil
}

// List returns every room with its current occupants, password redacted.
func (c *Coordinator) List(ctx context.Context) ([]chat.RoomData, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	rooms, err := c.store.FindAll(ctx)
	if err != nil {
		c.logger.Error("Failed to list rooms", "error", err)
		return nil, chat.Transient("could not list rooms")
	}

	data := make([]chat.RoomData, 0, len(rooms))
	for _, room := range rooms {
		data = append(data, room.Data(c.registry.OccupantsOf(room.ID)))
	}
	return data, nil
}
