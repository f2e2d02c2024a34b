package message

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Port is the message interface other modules program against.
type Port interface {
	Send(ctx context.Context, userID, content string) (SendMessageResponse, error)
	Edit(ctx context.Context, userID, messageID, content string) (EditMessageResponse, error)
	Delete(ctx context.Context, userID, messageID string) (DeleteMessageResponse, error)
	Older(ctx context.Context, userID string, before time.Time) ([]chat.MessageData, Result, error)
	History(ctx context.Context, roomID string, limit int) ([]chat.MessageData, error)
	SetTyping(ctx context.Context, userID string, isTyping bool) error
}

type adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a Port backed by the message module's service
// container.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("message adapter requires non-nil ServiceContainer")
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

func (a *adapter) Send(ctx context.Context, userID, content string) (SendMessageResponse, error) {
	req := SendMessageRequest{UserID: userID, Content: content}
	var resp SendMessageResponse
	err := call(ctx, a, ServiceSendMessage, &req, &resp)
	return resp, err
}

func (a *adapter) Edit(ctx context.Context, userID, messageID, content string) (EditMessageResponse, error) {
	req := EditMessageRequest{UserID: userID, MessageID: messageID, Content: content}
	var resp EditMessageResponse
	err := call(ctx, a, ServiceEditMessage, &req, &resp)
	return resp, err
}

func (a *adapter) Delete(ctx context.Context, userID, messageID string) (DeleteMessageResponse, error) {
	req := DeleteMessageRequest{UserID: userID, MessageID: messageID}
	var resp DeleteMessageResponse
	err := call(ctx, a, ServiceDeleteMessage, &req, &resp)
	return resp, err
}

func (a *adapter) Older(ctx context.Context, userID string, before time.Time) ([]chat.MessageData, Result, error) {
	req := RequestOlderRequest{UserID: userID, Before: before}
	var resp RequestOlderResponse
	if err := call(ctx, a, ServiceRequestOlder, &req, &resp); err != nil {
		return nil, Result{}, err
	}
	return resp.Messages, resp.Result, nil
}

func (a *adapter) History(ctx context.Context, roomID string, limit int) ([]chat.MessageData, error) {
	req := RoomHistoryRequest{RoomID: roomID, Limit: limit}
	var resp RoomHistoryResponse
	if err := call(ctx, a, ServiceRoomHistory, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (a *adapter) SetTyping(ctx context.Context, userID string, isTyping bool) error {
	req := SetTypingRequest{UserID: userID, IsTyping: isTyping}
	var resp SetTypingResponse
	return call(ctx, a, ServiceSetTyping, &req, &resp)
}
