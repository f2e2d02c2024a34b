package chat

import (
	"testing"
)

func TestBanList_ValueAndScan(t *testing.T) {
	value, err := BanList{}.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if value != "[]" {
		t.Errorf("empty list encoded as %v, want []", value)
	}

	value, err = BanList{"alice", "bob"}.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var decoded BanList
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !decoded.Contains("alice") || !decoded.Contains("bob") || decoded.Contains("carol") {
		t.Errorf("round trip produced %v", decoded)
	}

	if err := decoded.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if decoded != nil {
		t.Errorf("Scan(nil) produced %v", decoded)
	}

	if err := decoded.Scan([]byte(`["carol"]`)); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if !decoded.Contains("carol") {
		t.Errorf("Scan([]byte) produced %v", decoded)
	}

	if err := decoded.Scan(42); err == nil {
		t.Error("expected error for unsupported column type")
	}
}

func TestRoom_DataRedactsPassword(t *testing.T) {
	room := &Room{
		ID:           "room-1",
		Name:         "lobby",
		PasswordHash: "$2a$12$abc",
		OwnerID:      "owner-1",
	}

	data := room.Data(nil)
	if !data.HasPassword {
		t.Error("expected hasPassword to be set")
	}
	if data.Users == nil || len(data.Users) != 0 {
		t.Errorf("expected empty occupant list, got %v", data.Users)
	}

	data = room.Data([]string{"alice"})
	if len(data.Users) != 1 || data.Users[0] != "alice" {
		t.Errorf("unexpected occupants: %v", data.Users)
	}

	room.PasswordHash = ""
	if room.Data(nil).HasPassword {
		t.Error("expected hasPassword to be clear")
	}
}
