package gateway

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/brianhang/ChatApp/modules/room"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultHistoryLimit = 50

// frameHandler processes one inbound WebSocket frame for a client.
type frameHandler func(ctx context.Context, client *Client, data json.RawMessage)

// buildDispatch links each inbound frame event to its handler. Explicit
// table, no reflection.
func (m *Module) buildDispatch() map[string]frameHandler {
	return map[string]frameHandler{
		FrameRoomAdd:         m.onRoomAdd,
		FrameRoomEdit:        m.onRoomEdit,
		FrameRoomJoin:        m.onRoomJoin,
		FrameRoomLeave:       m.onRoomLeave,
		FrameRoomOwnerKick:   m.onRoomOwnerKick,
		FrameRoomOwnerBan:    m.onRoomOwnerBan,
		FrameRoomBans:        m.onRoomBans,
		FrameMsg:             m.onMsg,
		FrameMsgEdit:         m.onMsgEdit,
		FrameMsgDelete:       m.onMsgDelete,
		FrameMsgRequestOlder: m.onMsgRequestOlder,
		FrameTyping:          m.onTyping,
		FrameNickname:        m.onNickname,
	}
}

// setupRoutes configures all HTTP routes.
func (m *Module) setupRoutes() {
	m.app.Get("/health", m.healthHandler)

	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	api := m.app.Group("/api/v1")
	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:id", m.getRoom)
	api.Get("/rooms/:id/history", m.getHistory)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "gateway",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *Module) listRooms(c *fiber.Ctx) error {
	rooms, err := m.roomPort.ListRooms(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	return c.JSON(fiber.Map{"rooms": rooms})
}

// getRoom handles GET /api/v1/rooms/:id.
func (m *Module) getRoom(c *fiber.Ctx) error {
	roomID := c.Params("id")

	rooms, err := m.roomPort.ListRooms(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to load room",
		})
	}
	for _, r := range rooms {
		if r.ID == roomID {
			return c.JSON(r)
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: "Room not found",
	})
}

// getHistory handles GET /api/v1/rooms/:id/history.
func (m *Module) getHistory(c *fiber.Ctx) error {
	roomID := c.Params("id")
	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := m.messagePort.History(c.UserContext(), roomID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "history_failed",
			Message: "Failed to load history",
		})
	}
	return c.JSON(fiber.Map{"roomId": roomID, "messages": messages})
}

// handleWebSocket handles WebSocket connections at /ws. The user query
// parameter is the opaque authenticated identity; a missing one gets a
// fresh anonymous id.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	userID := c.Query("user")
	if userID == "" {
		userID = uuid.New().String()
	}
	nickname := c.Query("nickname")

	ctx := context.Background()
	entry, err := m.userPort.Register(ctx, userID, nickname)
	if err != nil {
		log.Printf("[gateway] Failed to register user %s: %v", userID, err)
		_ = c.Close()
		return
	}

	client := newClient(userID, c)
	m.hub.Register(client)
	defer m.teardown(client)

	log.Printf("[gateway] Client connected: %s (%s)", userID, entry.Nickname)
	m.replicateTo(ctx, client)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[gateway] Client %s closed connection", userID)
			} else {
				log.Printf("[gateway] Read error from %s: %v", userID, err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			m.notify(client, "Error", "Invalid message format", "error")
			continue
		}

		handler, ok := m.dispatch[frame.Event]
		if !ok {
			m.notify(client, "Error", "Unknown event: "+frame.Event, "error")
			continue
		}
		handler(ctx, client, frame.Data)
	}
}

// teardown runs when a session's read loop ends. The directory entry is
// removed only when this session is still the user's current one in the
// hub, so a superseding reconnect never tears down the live session's
// directory entry or occupancy.
func (m *Module) teardown(client *Client) {
	if !m.hub.Unregister(client) {
		log.Printf("[gateway] Superseded session for %s closed", client.UserID)
		return
	}
	if err := m.userPort.Unregister(context.Background(), client.UserID); err != nil {
		log.Printf("[gateway] Failed to unregister user %s: %v", client.UserID, err)
	}
	log.Printf("[gateway] Client disconnected: %s", client.UserID)
}

// replicateTo converges a newly connected client with server state: the
// full user directory followed by one roomData payload per room.
func (m *Module) replicateTo(ctx context.Context, client *Client) {
	users, err := m.userPort.List(ctx)
	if err != nil {
		log.Printf("[gateway] Failed to list users for %s: %v", client.UserID, err)
	} else {
		m.unicast(client, EventUsers, users)
	}

	rooms, err := m.roomPort.ListRooms(ctx)
	if err != nil {
		log.Printf("[gateway] Failed to list rooms for %s: %v", client.UserID, err)
		return
	}
	for _, r := range rooms {
		m.unicast(client, EventRoomData, r)
	}
}

// Inbound frame handlers. Every failure path replies to the requester
// only; broadcast side effects arrive via the event consumers.

func (m *Module) onRoomAdd(ctx context.Context, client *Client, data json.RawMessage) {
	var frame roomAddFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		m.unicast(client, EventRoomAddResult, resultPayload{Status: false, Message: "malformed request"})
		return
	}

	resp, err := m.roomPort.CreateRoom(ctx, room.CreateRoomRequest{
		UserID:      client.UserID,
		Name:        frame.Name,
		Description: frame.Description,
		Password:    frame.Password,
	})
	if err != nil {
		log.Printf("[gateway] create-room failed for %s: %v", client.UserID, err)
		m.unicast(client, EventRoomAddResult, resultPayload{Status: false, Message: "something went wrong"})
		return
	}
	m.unicast(client, EventRoomAddResult, resultPayload{Status: resp.OK, Message: resp.Message})
}

func (m *Module) onRoomEdit(ctx context.Context, client *Client, data json.RawMessage) {
	var frame roomEditFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		m.unicast(client, EventRoomEditResult, resultPayload{Status: false, Message: "malformed request"})
		return
	}

	resp, err := m.roomPort.EditRoom(ctx, room.EditRoomRequest{
		UserID:  client.UserID,
		RoomID:  frame.RoomID,
		Changes: frame.Changes,
	})
	if err != nil {
		log.Printf("[gateway] edit-room failed for %s: %v", client.UserID, err)
		m.unicast(client, EventRoomEditResult, resultPayload{Status: false, Message: "something went wrong"})
		return
	}
	m.unicast(client, EventRoomEditResult, resultPayload{Status: resp.OK, Message: resp.Message})
}

func (m *Module) onRoomJoin(ctx context.Context, client *Client, data json.RawMessage) {
	var frame roomJoinFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	resp, err := m.roomPort.JoinRoom(ctx, room.JoinRoomRequest{
		UserID:   client.UserID,
		RoomID:   frame.RoomID,
		Password: frame.Password,
	})
	if err != nil {
		log.Printf("[gateway] join-room failed for %s: %v", client.UserID, err)
		m.notify(client, "Unable to join room", "something went wrong", "error")
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to join room", resp.Message, "error")
	}
}

func (m *Module) onRoomLeave(ctx context.Context, client *Client, _ json.RawMessage) {
	resp, err := m.roomPort.LeaveRoom(ctx, room.LeaveRoomRequest{UserID: client.UserID})
	if err != nil {
		log.Printf("[gateway] leave-room failed for %s: %v", client.UserID, err)
		m.notify(client, "Unable to leave room", "something went wrong", "error")
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to leave room", resp.Message, "error")
	}
}

func (m *Module) onRoomOwnerKick(ctx context.Context, client *Client, data json.RawMessage) {
	var frame roomOwnerKickFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	resp, err := m.roomPort.KickUser(ctx, room.KickUserRequest{
		UserID:   client.UserID,
		RoomID:   frame.RoomID,
		TargetID: frame.UserID,
	})
	if err != nil {
		log.Printf("[gateway] kick-user failed for %s: %v", client.UserID, err)
		m.notify(client, "Unable to kick user", "something went wrong", "error")
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to kick user", resp.Message, "error")
	}
}

func (m *Module) onRoomOwnerBan(ctx context.Context, client *Client, data json.RawMessage) {
	var frame roomOwnerBanFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	resp, err := m.roomPort.BanUser(ctx, room.BanUserRequest{
		UserID:   client.UserID,
		RoomID:   frame.RoomID,
		TargetID: frame.UserID,
		Banned:   frame.Banned,
	})
	if err != nil {
		log.Printf("[gateway] ban-user failed for %s: %v", client.UserID, err)
		m.notify(client, "Unable to update bans", "something went wrong", "error")
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to update bans", resp.Message, "error")
		return
	}
	m.unicast(client, EventRoomBans, resp.Bans)
}

func (m *Module) onRoomBans(ctx context.Context, client *Client, data json.RawMessage) {
	var frame roomBansFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	resp, err := m.roomPort.ListBans(ctx, room.ListBansRequest{
		UserID: client.UserID,
		RoomID: frame.RoomID,
	})
	if err != nil {
		log.Printf("[gateway] list-bans failed for %s: %v", client.UserID, err)
		m.notify(client, "Unable to load bans", "something went wrong", "error")
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to load bans", resp.Message, "error")
		return
	}
	m.unicast(client, EventRoomBans, resp.Bans)
}

func (m *Module) onMsg(ctx context.Context, client *Client, data json.RawMessage) {
	var frame msgFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	// Sends outside a room are silently ignored; only hard failures get a
	// notice.
	resp, err := m.messagePort.Send(ctx, client.UserID, frame.Content)
	if err != nil {
		log.Printf("[gateway] send-message failed for %s: %v", client.UserID, err)
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to send message", resp.Result.Message, "error")
	}
}

func (m *Module) onMsgEdit(ctx context.Context, client *Client, data json.RawMessage) {
	var frame msgEditFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	resp, err := m.messagePort.Edit(ctx, client.UserID, frame.MessageID, frame.Content)
	if err != nil {
		log.Printf("[gateway] edit-message failed for %s: %v", client.UserID, err)
		m.notify(client, "Unable to edit message", "something went wrong", "error")
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to edit message", resp.Message, "error")
	}
}

func (m *Module) onMsgDelete(ctx context.Context, client *Client, data json.RawMessage) {
	var frame msgDeleteFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	resp, err := m.messagePort.Delete(ctx, client.UserID, frame.MessageID)
	if err != nil {
		log.Printf("[gateway] delete-message failed for %s: %v", client.UserID, err)
		m.notify(client, "Unable to delete message", "something went wrong", "error")
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to delete message", resp.Message, "error")
	}
}

func (m *Module) onMsgRequestOlder(ctx context.Context, client *Client, data json.RawMessage) {
	var frame msgRequestOlderFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		frame.Before = time.Now().UTC()
	}
	if frame.Before.IsZero() {
		frame.Before = time.Now().UTC()
	}

	// The completion signal is sent on every path, including the empty
	// no-room one, so the client's loading state always resolves.
	messages, result, err := m.messagePort.Older(ctx, client.UserID, frame.Before)
	if err != nil {
		log.Printf("[gateway] request-older failed for %s: %v", client.UserID, err)
	} else if !result.OK {
		m.notify(client, "Unable to load messages", result.Message, "error")
	} else {
		for _, msg := range messages {
			m.unicast(client, EventMsgRev, msg)
		}
	}
	m.unicast(client, EventMsgOlderResult, struct{}{})
}

func (m *Module) onTyping(ctx context.Context, client *Client, data json.RawMessage) {
	var frame typingFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}
	if err := m.messagePort.SetTyping(ctx, client.UserID, frame.IsTyping); err != nil {
		log.Printf("[gateway] set-typing failed for %s: %v", client.UserID, err)
	}
}

func (m *Module) onNickname(ctx context.Context, client *Client, data json.RawMessage) {
	var frame nicknameFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	resp, err := m.userPort.SetNickname(ctx, client.UserID, frame.Nickname)
	if err != nil {
		log.Printf("[gateway] set-nickname failed for %s: %v", client.UserID, err)
		m.notify(client, "Unable to change nickname", "something went wrong", "error")
		return
	}
	if !resp.OK {
		m.notify(client, "Unable to change nickname", resp.Message, "error")
	}
}

// Frame helpers.

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

func (m *Module) unicast(client *Client, event string, payload any) {
	raw, err := encodeFrame(event, payload)
	if err != nil {
		log.Printf("[gateway] Failed to encode %s frame: %v", event, err)
		return
	}
	client.Send(raw)
}

func (m *Module) deliver(recipients []string, event string, payload any) {
	raw, err := encodeFrame(event, payload)
	if err != nil {
		log.Printf("[gateway] Failed to encode %s frame: %v", event, err)
		return
	}
	m.hub.Deliver(recipients, raw)
}

func (m *Module) broadcast(event string, payload any) {
	raw, err := encodeFrame(event, payload)
	if err != nil {
		log.Printf("[gateway] Failed to encode %s frame: %v", event, err)
		return
	}
	m.hub.Broadcast(raw)
}

func (m *Module) notify(client *Client, title, body, kind string) {
	m.unicast(client, EventNotice, noticePayload{Title: title, Body: body, Type: kind})
}
