package room

import "sync"

// Registry tracks which room each connected user occupies. The map from
// user id to room id is the single source of truth for occupancy; a user
// is in at most one room at a time.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]string
}

// NewRegistry creates an empty occupancy registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]string),
	}
}

// Assign moves the user into roomID and returns the room they previously
// occupied. moved is false when the user was already in roomID, in which
// case the registry is unchanged.
func (r *Registry) Assign(userID, roomID string) (prev string, moved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev = r.rooms[userID]
	if prev == roomID {
		return prev, false
	}
	r.rooms[userID] = roomID
	return prev, true
}

// Clear removes the user's occupancy and returns the room they were in.
func (r *Registry) Clear(userID string) (roomID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok = r.rooms[userID]
	if ok {
		delete(r.rooms, userID)
	}
	return roomID, ok
}

// RoomOf returns the room the user currently occupies.
func (r *Registry) RoomOf(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.rooms[userID]
	return roomID, ok
}

// OccupantsOf returns the user ids currently in the given room.
func (r *Registry) OccupantsOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []string{}
	for userID, occupied := range r.rooms {
		if occupied == roomID {
			users = append(users, userID)
		}
	}
	return users
}

// Evict clears every occupant of the given room and returns them.
func (r *Registry) Evict(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := []string{}
	for userID, occupied := range r.rooms {
		if occupied == roomID {
			users = append(users, userID)
			delete(r.rooms, userID)
		}
	}
	return users
}

// Count returns the number of users currently occupying any room.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
