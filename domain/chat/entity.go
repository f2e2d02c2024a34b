package chat

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Field length limits shared by the room and message coordinators.
const (
	MaxNicknameLength    = 50
	MaxRoomNameLength    = 100
	MaxDescriptionLength = 500
	MaxMessageLength     = 2000
)

// BanList is a set of banned user ids stored as a JSON column.
type BanList []string

// Value implements driver.Valuer.
func (b BanList) Value() (driver.Value, error) {
	if len(b) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ban list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (b *BanList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), b)
	case []byte:
		return json.Unmarshal(v, b)
	default:
		return fmt.Errorf("unsupported ban list column type %T", src)
	}
}

// Contains reports whether the given user id is banned.
func (b BanList) Contains(userID string) bool {
	for _, banned := range b {
		if banned == userID {
			return true
		}
	}
	return false
}

// Room is a persisted chat room. The password is stored only as a bcrypt
// hash and never appears in outbound payloads; clients see HasPassword.
type Room struct {
	ID           string         `gorm:"primarykey;size:36"`
	CreatedAt    time.Time      ``
	UpdatedAt    time.Time      ``
	DeletedAt    gorm.DeletedAt `gorm:"index"`
	Name         string         `gorm:"size:100;not null"`
	Description  string         `gorm:"size:500"`
	PasswordHash string         `gorm:"size:80"`
	OwnerID      string         `gorm:"size:36;index"`
	Bans         BanList        `gorm:"type:text"`
}

// TableName returns the table name for the Room model.
func (Room) TableName() string {
	return "rooms"
}

// HasPassword reports whether the room is password protected.
func (r *Room) HasPassword() bool {
	return r.PasswordHash != ""
}

// Data builds the redacted client payload for this room. The occupant list
// is supplied by the occupancy owner; the password hash never leaves here.
func (r *Room) Data(occupants []string) RoomData {
	if occupants == nil {
		occupants = []string{}
	}
	return RoomData{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Owner:       r.OwnerID,
		HasPassword: r.HasPassword(),
		Users:       occupants,
	}
}

// Message is a persisted chat message. The nickname is snapshotted at send
// time; renaming the author later does not relabel old messages.
type Message struct {
	ID       string    `gorm:"primarykey;size:36"`
	UserID   string    `gorm:"size:36;index"`
	Nickname string    `gorm:"size:50"`
	RoomID   string    `gorm:"size:36;index:idx_messages_room_time"`
	Content  string    `gorm:"size:2000;not null"`
	Time     time.Time `gorm:"index:idx_messages_room_time"`
}

// TableName returns the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}

// Data builds the client payload for this message.
func (m *Message) Data() MessageData {
	return MessageData{
		ID:       m.ID,
		UserID:   m.UserID,
		Nickname: m.Nickname,
		Content:  m.Content,
		RoomID:   m.RoomID,
		Time:     m.Time,
	}
}

// RoomData is the roomData payload replicated to clients.
type RoomData struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Owner       string   `json:"owner"`
	HasPassword bool     `json:"hasPassword"`
	Users       []string `json:"users"`
}

// MessageData is the msg/msgRev payload delivered to clients.
type MessageData struct {
	ID       string    `json:"_id"`
	UserID   string    `json:"user"`
	Nickname string    `json:"nickname"`
	Content  string    `json:"content"`
	RoomID   string    `json:"room"`
	Time     time.Time `json:"time"`
}

// UserData is the user directory payload replicated to clients.
type UserData struct {
	ID       string `json:"userId"`
	Nickname string `json:"nickname"`
}
