package room

import "github.com/brianhang/ChatApp/domain/chat"

// Service names registered by the room module.
const (
	ServiceCreateRoom   = "create-room"
	ServiceEditRoom     = "edit-room"
	ServiceJoinRoom     = "join-room"
	ServiceLeaveRoom    = "leave-room"
	ServiceKickUser     = "kick-user"
	ServiceBanUser      = "ban-user"
	ServiceListBans     = "list-bans"
	ServiceListRooms    = "list-rooms"
	ServiceGetOccupants = "get-occupants"
	ServiceGetOccupancy = "get-occupancy"
)

// Editable room fields accepted by the edit-room service.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPassword    = "password"
	FieldDelete      = "delete"
)

// Result is the shared outcome envelope. Failures carry a message that is
// safe to relay to the requesting client.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// CreateRoomRequest asks for a new room owned by the requester.
type CreateRoomRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password"`
}

// CreateRoomResponse returns the created room payload on success.
type CreateRoomResponse struct {
	Result
	Room *chat.RoomData `json:"room,omitempty"`
}

// EditRoomRequest applies field changes to a room the requester owns.
// Changes maps field names to new values; the delete field takes a bool.
type EditRoomRequest struct {
	UserID  string         `json:"user_id"`
	RoomID  string         `json:"room_id"`
	Changes map[string]any `json:"changes"`
}

// EditRoomResponse reports the edit outcome.
type EditRoomResponse struct {
	Result
}

// JoinRoomRequest moves the requester into a room.
type JoinRoomRequest struct {
	UserID   string `json:"user_id"`
	RoomID   string `json:"room_id"`
	Password string `json:"password"`
}

// JoinRoomResponse reports the join outcome.
type JoinRoomResponse struct {
	Result
	RoomID string `json:"room_id,omitempty"`
}

// LeaveRoomRequest takes the requester out of whatever room they occupy.
type LeaveRoomRequest struct {
	UserID string `json:"user_id"`
}

// LeaveRoomResponse reports which room was left, if any.
type LeaveRoomResponse struct {
	Result
	RoomID string `json:"room_id,omitempty"`
}

// KickUserRequest removes a target occupant from the requester's room.
type KickUserRequest struct {
	UserID   string `json:"user_id"`
	RoomID   string `json:"room_id"`
	TargetID string `json:"target_id"`
}

// KickUserResponse reports the kick outcome.
type KickUserResponse struct {
	Result
}

// BanUserRequest adds or removes a ban. Adding a ban evicts the target if
// they currently occupy the room; removing one is a pure list mutation.
type BanUserRequest struct {
	UserID   string `json:"user_id"`
	RoomID   string `json:"room_id"`
	TargetID string `json:"target_id"`
	Banned   bool   `json:"banned"`
}

// BanUserResponse returns the updated ban list to the owner.
type BanUserResponse struct {
	Result
	Bans []string `json:"bans,omitempty"`
}

// ListBansRequest asks for a room's ban list. Owner only.
type ListBansRequest struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
}

// ListBansResponse returns the banned user ids.
type ListBansResponse struct {
	Result
	Bans []string `json:"bans,omitempty"`
}

// ListRoomsRequest asks for every room with its current occupants.
type ListRoomsRequest struct{}

// ListRoomsResponse returns the full room directory.
type ListRoomsResponse struct {
	Result
	Rooms []chat.RoomData `json:"rooms"`
}

// GetOccupantsRequest asks for the occupants of one room.
type GetOccupantsRequest struct {
	RoomID string `json:"room_id"`
}

// GetOccupantsResponse returns the occupant user ids.
type GetOccupantsResponse struct {
	Result
	Users []string `json:"users"`
}

// GetOccupancyRequest asks which room a user currently occupies.
type GetOccupancyRequest struct {
	UserID string `json:"user_id"`
}

// GetOccupancyResponse returns the room id, empty when the user is in no
// room.
type GetOccupancyResponse struct {
	Result
	RoomID string `json:"room_id"`
}
