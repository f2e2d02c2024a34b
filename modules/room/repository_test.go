package room

import (
	"context"
	"errors"
	"testing"

	"github.com/brianhang/ChatApp/domain/chat"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&chat.Room{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	room := &chat.Room{
		ID:      "room-1",
		Name:    "lobby",
		OwnerID: "owner-1",
		Bans:    chat.BanList{},
	}
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(ctx, "room-1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Name != "lobby" || found.OwnerID != "owner-1" {
		t.Errorf("unexpected room: %+v", found)
	}

	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_BansRoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	room := &chat.Room{ID: "room-1", Name: "lobby", OwnerID: "owner-1"}
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.UpdateColumn(ctx, "room-1", "bans", chat.BanList{"alice", "bob"}); err != nil {
		t.Fatalf("UpdateColumn failed: %v", err)
	}

	found, err := repo.FindByID(ctx, "room-1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if !found.Bans.Contains("alice") || !found.Bans.Contains("bob") {
		t.Errorf("ban list did not survive round trip: %v", found.Bans)
	}
	if found.Bans.Contains("carol") {
		t.Errorf("ban list contains unexpected entry: %v", found.Bans)
	}
}

func TestRepository_UpdateColumn(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	room := &chat.Room{ID: "room-1", Name: "lobby", OwnerID: "owner-1"}
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name    string
		column  string
		value   any
		wantErr bool
	}{
		{"editable name", "name", "renamed", false},
		{"editable description", "description", "a place to chat", false},
		{"editable password hash", "password_hash", "$2a$12$abc", false},
		{"owner is not editable", "owner_id", "attacker", true},
		{"id is not editable", "id", "room-2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.UpdateColumn(ctx, "room-1", tt.column, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("UpdateColumn(%q) error = %v, wantErr %v", tt.column, err, tt.wantErr)
			}
		})
	}

	found, err := repo.FindByID(ctx, "room-1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Name != "renamed" {
		t.Errorf("expected renamed room, got %q", found.Name)
	}
	if found.OwnerID != "owner-1" {
		t.Errorf("owner changed through UpdateColumn: %q", found.OwnerID)
	}

	if err := repo.UpdateColumn(ctx, "missing", "name", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing room, got %v", err)
	}
}

func TestRepository_UpdateColumns(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	room := &chat.Room{ID: "room-1", Name: "lobby", OwnerID: "owner-1"}
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := repo.UpdateColumns(ctx, "room-1", map[string]any{
		"name":        "renamed",
		"description": "a place to chat",
	})
	if err != nil {
		t.Fatalf("UpdateColumns failed: %v", err)
	}

	found, err := repo.FindByID(ctx, "room-1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Name != "renamed" || found.Description != "a place to chat" {
		t.Errorf("unexpected room after update: %+v", found)
	}

	// One non-editable column rejects the whole batch.
	err = repo.UpdateColumns(ctx, "room-1", map[string]any{
		"description": "changed again",
		"owner_id":    "attacker",
	})
	if err == nil {
		t.Fatal("expected error for non-editable column")
	}
	found, err = repo.FindByID(ctx, "room-1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Description != "a place to chat" || found.OwnerID != "owner-1" {
		t.Errorf("rejected batch still changed the room: %+v", found)
	}

	if err := repo.UpdateColumns(ctx, "missing", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing room, got %v", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	room := &chat.Room{ID: "room-1", Name: "lobby", OwnerID: "owner-1"}
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, "room-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.FindByID(ctx, "room-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	rooms, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("expected no rooms after delete, got %d", len(rooms))
	}

	if err := repo.Delete(ctx, "room-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}
