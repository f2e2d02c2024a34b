package user

import (
	"errors"
	"strings"
	"testing"

	"github.com/brianhang/ChatApp/domain/chat"
)

func TestValidateNickname(t *testing.T) {
	tests := []struct {
		name     string
		nickname string
		want     string
		wantErr  bool
	}{
		{"plain", "Alice", "Alice", false},
		{"trimmed", "  Alice  ", "Alice", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"at limit", strings.Repeat("a", chat.MaxNicknameLength), strings.Repeat("a", chat.MaxNicknameLength), false},
		{"over limit", strings.Repeat("a", chat.MaxNicknameLength+1), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateNickname(tt.nickname)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateNickname(%q) error = %v, wantErr %v", tt.nickname, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateNickname(%q) = %q, want %q", tt.nickname, got, tt.want)
			}
		})
	}
}

func TestDirectory_RegisterFallbackNickname(t *testing.T) {
	directory := NewDirectory()

	data := directory.Register("0123456789abcdef", "   ")
	if data.Nickname != "user-01234567" {
		t.Errorf("expected placeholder nickname, got %q", data.Nickname)
	}
	if !directory.IsConnected("0123456789abcdef") {
		t.Error("expected user to be connected after Register")
	}

	data = directory.Register("u2", "Bob")
	if data.Nickname != "Bob" {
		t.Errorf("expected Bob, got %q", data.Nickname)
	}
}

func TestDirectory_SetNickname(t *testing.T) {
	directory := NewDirectory()
	directory.Register("u1", "Alice")

	nickname, err := directory.SetNickname("u1", "  Alicia  ")
	if err != nil {
		t.Fatalf("SetNickname failed: %v", err)
	}
	if nickname != "Alicia" {
		t.Errorf("expected Alicia, got %q", nickname)
	}

	if _, err := directory.SetNickname("u1", "   "); !errors.Is(err, chat.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	// Nickname survives a failed update.
	if got, _ := directory.Nickname("u1"); got != "Alicia" {
		t.Errorf("nickname changed after failed update: %q", got)
	}

	if _, err := directory.SetNickname("ghost", "Casper"); !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestDirectory_UnregisterAndList(t *testing.T) {
	directory := NewDirectory()
	directory.Register("u2", "Bob")
	directory.Register("u1", "Alice")

	users := directory.List()
	if len(users) != 2 || users[0].ID != "u1" || users[1].ID != "u2" {
		t.Errorf("expected list sorted by id, got %+v", users)
	}

	if !directory.Unregister("u1") {
		t.Error("expected Unregister to report removal")
	}
	if directory.Unregister("u1") {
		t.Error("expected second Unregister to report nothing removed")
	}
	if directory.Count() != 1 {
		t.Errorf("expected one connected user, got %d", directory.Count())
	}
	if _, ok := directory.Nickname("u1"); ok {
		t.Error("expected nickname lookup to miss after Unregister")
	}
}
