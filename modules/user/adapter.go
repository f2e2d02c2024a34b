package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Port is the user directory interface other modules program against.
type Port interface {
	Register(ctx context.Context, userID, nickname string) (chat.UserData, error)
	Unregister(ctx context.Context, userID string) error
	SetNickname(ctx context.Context, userID, nickname string) (SetNicknameResponse, error)
	Nickname(ctx context.Context, userID string) (string, bool, error)
	List(ctx context.Context) ([]chat.UserData, error)
}

type adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a Port backed by the user module's service container.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("user adapter requires non-nil ServiceContainer")
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

func (a *adapter) Register(ctx context.Context, userID, nickname string) (chat.UserData, error) {
	req := RegisterUserRequest{UserID: userID, Nickname: nickname}
	var resp RegisterUserResponse
	if err := call(ctx, a, ServiceRegisterUser, &req, &resp); err != nil {
		return chat.UserData{}, err
	}
	return resp.User, nil
}

func (a *adapter) Unregister(ctx context.Context, userID string) error {
	req := UnregisterUserRequest{UserID: userID}
	var resp UnregisterUserResponse
	return call(ctx, a, ServiceUnregisterUser, &req, &resp)
}

func (a *adapter) SetNickname(ctx context.Context, userID, nickname string) (SetNicknameResponse, error) {
	req := SetNicknameRequest{UserID: userID, Nickname: nickname}
	var resp SetNicknameResponse
	err := call(ctx, a, ServiceSetNickname, &req, &resp)
	return resp, err
}

func (a *adapter) Nickname(ctx context.Context, userID string) (string, bool, error) {
	req := GetNicknameRequest{UserID: userID}
	var resp GetNicknameResponse
	if err := call(ctx, a, ServiceGetNickname, &req, &resp); err != nil {
		return "", false, err
	}
	return resp.Nickname, resp.Found, nil
}

func (a *adapter) List(ctx context.Context) ([]chat.UserData, error) {
	req := ListUsersRequest{}
	var resp ListUsersResponse
	if err := call(ctx, a, ServiceListUsers, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
