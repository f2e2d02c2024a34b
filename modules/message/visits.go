package message

import (
	"sync"
	"time"
)

// visitLog remembers when each user last entered each room, so a rejoin
// only replays messages they have not seen instead of the whole window.
// Never persisted; after a restart every join gets the full backlog.
type visitLog struct {
	mu     sync.Mutex
	visits map[string]map[string]time.Time
}

func newVisitLog() *visitLog {
	return &visitLog{
		visits: make(map[string]map[string]time.Time),
	}
}

// Record stores the visit time and returns the previous one, if any.
func (v *visitLog) Record(userID, roomID string, at time.Time) (prev time.Time, visited bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	rooms, ok := v.visits[userID]
	if !ok {
		rooms = make(map[string]time.Time)
		v.visits[userID] = rooms
	}
	prev, visited = rooms[roomID]
	rooms[roomID] = at
	return prev, visited
}

// Forget drops all visit records for a user.
func (v *visitLog) Forget(userID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.visits, userID)
}
