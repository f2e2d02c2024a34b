package user

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/brianhang/ChatApp/domain/chat"
)

// Directory tracks connected users and their nicknames. Identity is an
// opaque authenticated user id; credential mechanics live elsewhere.
type Directory struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewDirectory creates an empty user directory.
func NewDirectory() *Directory {
	return &Directory{
		users: make(map[string]string),
	}
}

// ValidateNickname trims and bounds a nickname.
func ValidateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", chat.Validation("nickname cannot be empty")
	}
	if len(nickname) > chat.MaxNicknameLength {
		return "", chat.Validation(fmt.Sprintf("nickname cannot exceed %d characters", chat.MaxNicknameLength))
	}
	return nickname, nil
}

// Register records a connected user. An empty nickname falls back to a
// placeholder derived from the user id.
func (d *Directory) Register(userID, nickname string) chat.UserData {
	nickname, err := ValidateNickname(nickname)
	if err != nil {
		nickname = defaultNickname(userID)
	}

	d.mu.Lock()
	d.users[userID] = nickname
	d.mu.Unlock()

	return chat.UserData{ID: userID, Nickname: nickname}
}

// Unregister removes a user from the directory.
func (d *Directory) Unregister(userID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[userID]; !ok {
		return false
	}
	delete(d.users, userID)
	return true
}

// SetNickname validates and stores a new nickname for a connected user.
func (d *Directory) SetNickname(userID, nickname string) (string, error) {
	nickname, err := ValidateNickname(nickname)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[userID]; !ok {
		return "", chat.NotFound("user is not connected")
	}
	d.users[userID] = nickname
	return nickname, nil
}

// Nickname returns the user's current nickname.
func (d *Directory) Nickname(userID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	nickname, ok := d.users[userID]
	return nickname, ok
}

// IsConnected reports whether the user is in the directory.
func (d *Directory) IsConnected(userID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.users[userID]
	return ok
}

// List returns every connected user ordered by id for stable replication.
func (d *Directory) List() []chat.UserData {
	d.mu.RLock()
	defer d.mu.RUnlock()

	users := make([]chat.UserData, 0, len(d.users))
	for id, nickname := range d.users {
		users = append(users, chat.UserData{ID: id, Nickname: nickname})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Count returns the number of connected users.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.users)
}

func defaultNickname(userID string) string {
	if len(userID) > 8 {
		userID = userID[:8]
	}
	return "user-" + userID
}
