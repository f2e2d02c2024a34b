package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianhang/ChatApp/domain/chat"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a room is not found.
var ErrNotFound = errors.New("room not found")

// Columns the edit-room service may update. Anything else is rejected
// before it reaches the repository.
var editableColumns = map[string]bool{
	"name":          true,
	"description":   true,
	"password_hash": true,
	"bans":          true,
}

// Repository provides access to room storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new room repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new room to the database.
func (r *Repository) Create(ctx context.Context, room *chat.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// FindByID retrieves a room by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*chat.Room, error) {
	var room chat.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// FindAll retrieves all rooms.
func (r *Repository) FindAll(ctx context.Context) ([]*chat.Room, error) {
	var rooms []*chat.Room
	if err := r.db.WithContext(ctx).Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	return rooms, nil
}

// UpdateColumn updates a single editable column of a room.
func (r *Repository) UpdateColumn(ctx context.Context, id, column string, value any) error {
	if !editableColumns[column] {
		return fmt.Errorf("column %q is not editable", column)
	}

	result := r.db.WithContext(ctx).
		Model(&chat.Room{}).
		Where("id = ?", id).
		Update(column, value)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateColumns applies several editable columns in one statement, so a
// multi-field edit is all-or-nothing.
func (r *Repository) UpdateColumns(ctx context.Context, id string, values map[string]any) error {
	for column := range values {
		if !editableColumns[column] {
			return fmt.Errorf("column %q is not editable", column)
		}
	}

	result := r.db.WithContext(ctx).
		Model(&chat.Room{}).
		Where("id = ?", id).
		Updates(values)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a room by ID (soft delete).
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&chat.Room{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
