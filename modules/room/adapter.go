package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Port is the room interface other modules program against.
type Port interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (CreateRoomResponse, error)
	EditRoom(ctx context.Context, req EditRoomRequest) (EditRoomResponse, error)
	JoinRoom(ctx context.Context, req JoinRoomRequest) (JoinRoomResponse, error)
	LeaveRoom(ctx context.Context, req LeaveRoomRequest) (LeaveRoomResponse, error)
	KickUser(ctx context.Context, req KickUserRequest) (KickUserResponse, error)
	BanUser(ctx context.Context, req BanUserRequest) (BanUserResponse, error)
	ListBans(ctx context.Context, req ListBansRequest) (ListBansResponse, error)
	ListRooms(ctx context.Context) ([]chat.RoomData, error)
	Occupants(ctx context.Context, roomID string) ([]string, error)
	Occupancy(ctx context.Context, userID string) (string, error)
}

// adapter wraps the room module's ServiceContainer for type-safe
// cross-module calls.
type adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a Port backed by the room module's service container,
// received via SetDependencyServiceContainer.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("room adapter requires non-nil ServiceContainer")
	}
	return &adapter{container: container}
}

func call[Req any, Resp any](ctx context.Context, a *adapter, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func (a *adapter) CreateRoom(ctx context.Context, req CreateRoomRequest) (CreateRoomResponse, error) {
	var resp CreateRoomResponse
	err := call(ctx, a, ServiceCreateRoom, &req, &resp)
	return resp, err
}

func (a *adapter) EditRoom(ctx context.Context, req EditRoomRequest) (EditRoomResponse, error) {
	var resp EditRoomResponse
	err := call(ctx, a, ServiceEditRoom, &req, &resp)
	return resp, err
}

func (a *adapter) JoinRoom(ctx context.Context, req JoinRoomRequest) (JoinRoomResponse, error) {
	var resp JoinRoomResponse
	err := call(ctx, a, ServiceJoinRoom, &req, &resp)
	return resp, err
}

func (a *adapter) LeaveRoom(ctx context.Context, req LeaveRoomRequest) (LeaveRoomResponse, error) {
	var resp LeaveRoomResponse
	err := call(ctx, a, ServiceLeaveRoom, &req, &resp)
	return resp, err
}

func (a *adapter) KickUser(ctx context.Context, req KickUserRequest) (KickUserResponse, error) {
	var resp KickUserResponse
	err := call(ctx, a, ServiceKickUser, &req, &resp)
	return resp, err
}

func (a *adapter) BanUser(ctx context.Context, req BanUserRequest) (BanUserResponse, error) {
	var resp BanUserResponse
	err := call(ctx, a, ServiceBanUser, &req, &resp)
	return resp, err
}

func (a *adapter) ListBans(ctx context.Context, req ListBansRequest) (ListBansResponse, error) {
	var resp ListBansResponse
	err := call(ctx, a, ServiceListBans, &req, &resp)
	return resp, err
}

func (a *adapter) ListRooms(ctx context.Context) ([]chat.RoomData, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := call(ctx, a, ServiceListRooms, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

func (a *adapter) Occupants(ctx context.Context, roomID string) ([]string, error) {
	req := GetOccupantsRequest{RoomID: roomID}
	var resp GetOccupantsResponse
	if err := call(ctx, a, ServiceGetOccupants, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (a *adapter) Occupancy(ctx context.Context, userID string) (string, error) {
	req := GetOccupancyRequest{UserID: userID}
	var resp GetOccupancyResponse
	if err := call(ctx, a, ServiceGetOccupancy, &req, &resp); err != nil {
		return "", err
	}
	return resp.RoomID, nil
}
