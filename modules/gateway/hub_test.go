package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/brianhang/ChatApp/modules/user"
)

// startHub runs a hub loop for the duration of the test. Clients are fed
// through the register channel directly so no writer goroutine or real
// connection is involved; payloads are read straight from the send buffer.
func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	return hub
}

func receive(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case payload := <-client.send:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func assertNothingQueued(t *testing.T, client *Client) {
	t.Helper()
	select {
	case payload := <-client.send:
		t.Fatalf("unexpected payload: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func isClosed(client *Client) bool {
	select {
	case <-client.done:
		return true
	default:
		return false
	}
}

func TestHub_DeliverTargetsOnlyRecipients(t *testing.T) {
	hub := startHub(t)
	alice := newClient("alice", nil)
	bob := newClient("bob", nil)
	hub.register <- alice
	hub.register <- bob

	hub.Deliver([]string{"alice", "ghost"}, []byte("hello"))
	if got := string(receive(t, alice)); got != "hello" {
		t.Errorf("alice received %q", got)
	}
	assertNothingQueued(t, bob)
}

func TestHub_DeliverEmptyListIsNotBroadcast(t *testing.T) {
	hub := startHub(t)
	alice := newClient("alice", nil)
	hub.register <- alice

	hub.Deliver(nil, []byte("hello"))
	hub.Broadcast([]byte("to everyone"))

	// The nil recipient list is pinned to an empty one; only the explicit
	// broadcast arrives.
	if got := string(receive(t, alice)); got != "to everyone" {
		t.Errorf("alice received %q", got)
	}
	assertNothingQueued(t, alice)
}

func TestHub_RegisterSupersedesSameUser(t *testing.T) {
	hub := startHub(t)
	first := newClient("alice", nil)
	second := newClient("alice", nil)
	hub.register <- first
	hub.register <- second

	// The loop processes deliveries after registrations, so a received
	// unicast proves both registrations are complete.
	hub.Unicast("alice", []byte("hello"))
	if got := string(receive(t, second)); got != "hello" {
		t.Errorf("second session received %q", got)
	}

	if !isClosed(first) {
		t.Error("expected the superseded session to be closed")
	}
	if hub.ClientCount() != 1 {
		t.Errorf("expected one client, got %d", hub.ClientCount())
	}
}

func TestHub_UnregisterIgnoresStaleSession(t *testing.T) {
	hub := startHub(t)
	first := newClient("alice", nil)
	second := newClient("alice", nil)
	hub.register <- first
	hub.register <- second

	// A received unicast proves both registrations are complete.
	hub.Unicast("alice", []byte("sync"))
	receive(t, second)

	// The disconnect of the superseded session must not remove the
	// replacement, and must not be reported as the current session.
	if hub.Unregister(first) {
		t.Error("superseded session reported as still current")
	}
	hub.Unicast("alice", []byte("still here"))
	if got := string(receive(t, second)); got != "still here" {
		t.Errorf("second session received %q", got)
	}
	if hub.ClientCount() != 1 {
		t.Errorf("expected replacement to survive, got %d clients", hub.ClientCount())
	}

	if !hub.Unregister(second) {
		t.Error("current session not reported as current")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients, got %d", hub.ClientCount())
	}
}

// fakeUserPort records directory removals.
type fakeUserPort struct {
	unregistered []string
}

func (p *fakeUserPort) Register(_ context.Context, userID, nickname string) (chat.UserData, error) {
	return chat.UserData{ID: userID, Nickname: nickname}, nil
}

func (p *fakeUserPort) Unregister(_ context.Context, userID string) error {
	p.unregistered = append(p.unregistered, userID)
	return nil
}

func (p *fakeUserPort) SetNickname(_ context.Context, _, nickname string) (user.SetNicknameResponse, error) {
	return user.SetNicknameResponse{OK: true, Nickname: nickname}, nil
}

func (p *fakeUserPort) Nickname(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

func (p *fakeUserPort) List(_ context.Context) ([]chat.UserData, error) {
	return nil, nil
}

func TestModule_TeardownSkipsSupersededSession(t *testing.T) {
	hub := startHub(t)
	users := &fakeUserPort{}
	m := &Module{hub: hub, userPort: users}

	first := newClient("alice", nil)
	second := newClient("alice", nil)
	hub.register <- first
	hub.register <- second
	hub.Unicast("alice", []byte("sync"))
	receive(t, second)

	// The old session's read loop ends once the supersede closes it; its
	// teardown must leave the live session's directory entry alone.
	m.teardown(first)
	if len(users.unregistered) != 0 {
		t.Fatalf("superseded teardown removed directory entries: %v", users.unregistered)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected the replacement to survive, got %d clients", hub.ClientCount())
	}

	m.teardown(second)
	if got := users.unregistered; len(got) != 1 || got[0] != "alice" {
		t.Fatalf("expected one directory removal for alice, got %v", got)
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients, got %d", hub.ClientCount())
	}
}

func TestClient_SendDropsOnFullBuffer(t *testing.T) {
	client := newClient("alice", nil)
	for i := 0; i < clientSendBuffer; i++ {
		if !client.Send([]byte("x")) {
			t.Fatalf("send %d rejected with buffer space left", i)
		}
	}

	if client.Send([]byte("overflow")) {
		t.Error("expected send to fail on a full buffer")
	}
	if !isClosed(client) {
		t.Error("expected the stalled client to be closed")
	}
	if client.Send([]byte("after close")) {
		t.Error("expected send to fail after close")
	}
}
