package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianhang/ChatApp/domain/chat"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a message is not found.
var ErrNotFound = errors.New("message not found")

// Repository provides access to message storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new message repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new message to the database.
func (r *Repository) Create(ctx context.Context, msg *chat.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// FindByID retrieves a message by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*chat.Message, error) {
	var msg chat.Message
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return &msg, nil
}

// UpdateContent rewrites a message's content.
func (r *Repository) UpdateContent(ctx context.Context, id, content string) error {
	result := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("id = ?", id).
		Update("content", content)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a message permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&chat.Message{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Recent returns up to limit messages in the room, newest first. When
// since is non-nil only messages strictly newer than it are returned.
func (r *Repository) Recent(ctx context.Context, roomID string, since *time.Time, limit int) ([]*chat.Message, error) {
	query := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("time DESC").
		Limit(limit)
	if since != nil {
		query = query.Where("time > ?", *since)
	}

	var messages []*chat.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}
	return messages, nil
}

// OlderThan returns up to limit messages in the room with a timestamp
// strictly before the given time, newest first.
func (r *Repository) OlderThan(ctx context.Context, roomID string, before time.Time, limit int) ([]*chat.Message, error) {
	var messages []*chat.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND time < ?", roomID, before).
		Order("time DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load older messages: %w", err)
	}
	return messages, nil
}
