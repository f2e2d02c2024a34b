package room

import (
	"context"
	"errors"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono"
)

// toResult converts a coordinator error into the reply envelope. Domain
// errors carry a client-safe message; anything else becomes a generic
// failure so internals never leak to clients.
func toResult(err error) Result {
	if err == nil {
		return Result{OK: true}
	}
	var domainErr *chat.Error
	if errors.As(err, &domainErr) {
		return Result{OK: false, Message: domainErr.Error()}
	}
	return Result{OK: false, Message: "something went wrong"}
}

func (m *Module) createRoom(ctx context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	data, err := m.coordinator.Create(ctx, req.UserID, req.Name, req.Description, req.Password)
	if err != nil {
		return CreateRoomResponse{Result: toResult(err)}, nil
	}
	return CreateRoomResponse{Result: Result{OK: true}, Room: data}, nil
}

func (m *Module) editRoom(ctx context.Context, req EditRoomRequest, _ *mono.Msg) (EditRoomResponse, error) {
	err := m.coordinator.Edit(ctx, req.UserID, req.RoomID, req.Changes)
	return EditRoomResponse{Result: toResult(err)}, nil
}

func (m *Module) joinRoom(ctx context.Context, req JoinRoomRequest, _ *mono.Msg) (JoinRoomResponse, error) {
	if err := m.coordinator.Join(ctx, req.UserID, req.RoomID, req.Password); err != nil {
		return JoinRoomResponse{Result: toResult(err)}, nil
	}
	return JoinRoomResponse{Result: Result{OK: true}, RoomID: req.RoomID}, nil
}

func (m *Module) leaveRoom(_ context.Context, req LeaveRoomRequest, _ *mono.Msg) (LeaveRoomResponse, error) {
	roomID, err := m.coordinator.Leave(req.UserID)
	if err != nil {
		return LeaveRoomResponse{Result: toResult(err)}, nil
	}
	return LeaveRoomResponse{Result: Result{OK: true}, RoomID: roomID}, nil
}

func (m *Module) kickUser(ctx context.Context, req KickUserRequest, _ *mono.Msg) (KickUserResponse, error) {
	err := m.coordinator.Kick(ctx, req.UserID, req.RoomID, req.TargetID)
	return KickUserResponse{Result: toResult(err)}, nil
}

func (m *Module) banUser(ctx context.Context, req BanUserRequest, _ *mono.Msg) (BanUserResponse, error) {
	bans, err := m.coordinator.Ban(ctx, req.UserID, req.RoomID, req.TargetID, req.Banned)
	if err != nil {
		return BanUserResponse{Result: toResult(err)}, nil
	}
	return BanUserResponse{Result: Result{OK: true}, Bans: bans}, nil
}

func (m *Module) listBans(ctx context.Context, req ListBansRequest, _ *mono.Msg) (ListBansResponse, error) {
	bans, err := m.coordinator.Bans(ctx, req.UserID, req.RoomID)
	if err != nil {
		return ListBansResponse{Result: toResult(err)}, nil
	}
	return ListBansResponse{Result: Result{OK: true}, Bans: bans}, nil
}

func (m *Module) listRooms(ctx context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	rooms, err := m.coordinator.List(ctx)
	if err != nil {
		return ListRoomsResponse{Result: toResult(err)}, nil
	}
	return ListRoomsResponse{Result: Result{OK: true}, Rooms: rooms}, nil
}

func (m *Module) getOccupants(_ context.Context, req GetOccupantsRequest, _ *mono.Msg) (GetOccupantsResponse, error) {
	return GetOccupantsResponse{
		Result: Result{OK: true},
		Users:  m.registry.OccupantsOf(req.RoomID),
	}, nil
}

func (m *Module) getOccupancy(_ context.Context, req GetOccupancyRequest, _ *mono.Msg) (GetOccupancyResponse, error) {
	roomID, _ := m.registry.RoomOf(req.UserID)
	return GetOccupancyResponse{
		Result: Result{OK: true},
		RoomID: roomID,
	}, nil
}
