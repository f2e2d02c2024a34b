package gateway

import (
	"encoding/json"
	"time"
)

// Frame is the WebSocket wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound frame events.
const (
	EventRoomData       = "roomData"
	EventRoomAddResult  = "roomAdd"
	EventRoomEditResult = "roomEditResult"
	EventRoomEdit       = "roomEdit"
	EventRoomDelete     = "roomDelete"
	EventRoomJoin       = "roomJoin"
	EventRoomLeave      = "roomLeave"
	EventRoomBans       = "roomBans"
	EventMsg            = "msg"
	EventMsgRev         = "msgRev"
	EventMsgEdit        = "msgEdit"
	EventMsgDelete      = "msgDelete"
	EventMsgOlderResult = "msgRequestOlderResult"
	EventTyping         = "typing"
	EventNotice         = "notice"
	EventNickname       = "nickname"
	EventUsers          = "users"
	EventUserJoin       = "userJoin"
	EventUserLeave      = "userLeave"
)

// Inbound frame events.
const (
	FrameRoomAdd         = "roomAdd"
	FrameRoomEdit        = "roomEdit"
	FrameRoomJoin        = "roomJoin"
	FrameRoomLeave       = "roomLeave"
	FrameRoomOwnerKick   = "roomOwnerKick"
	FrameRoomOwnerBan    = "roomOwnerBan"
	FrameRoomBans        = "roomBans"
	FrameMsg             = "msg"
	FrameMsgEdit         = "msgEdit"
	FrameMsgDelete       = "msgDelete"
	FrameMsgRequestOlder = "msgRequestOlder"
	FrameTyping          = "typing"
	FrameNickname        = "nickname"
)

// Inbound payloads.

type roomAddFrame struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password"`
}

type roomEditFrame struct {
	RoomID  string         `json:"roomId"`
	Changes map[string]any `json:"changes"`
}

type roomJoinFrame struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
}

type roomOwnerKickFrame struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type roomOwnerBanFrame struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Banned bool   `json:"banned"`
}

type roomBansFrame struct {
	RoomID string `json:"roomId"`
}

type msgFrame struct {
	Content string `json:"content"`
}

type msgEditFrame struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type msgDeleteFrame struct {
	MessageID string `json:"messageId"`
}

type msgRequestOlderFrame struct {
	Before time.Time `json:"before"`
}

type typingFrame struct {
	IsTyping bool `json:"isTyping"`
}

type nicknameFrame struct {
	Nickname string `json:"nickname"`
}

// Outbound payloads.

type resultPayload struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
}

type roomEditPayload struct {
	RoomID string `json:"roomId"`
	Field  string `json:"field"`
	Value  any    `json:"value"`
}

type roomDeletePayload struct {
	RoomID string `json:"roomId"`
}

type roomJoinPayload struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

type roomLeavePayload struct {
	UserID string `json:"userId"`
}

type msgEditPayload struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type msgDeletePayload struct {
	MessageID string `json:"messageId"`
}

type typingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type nicknamePayload struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

type userLeavePayload struct {
	UserID string `json:"userId"`
}

// noticePayload is a user-facing notification unicast to one client.
type noticePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Type  string `json:"type"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the REST error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
