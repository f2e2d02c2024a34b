package message

import (
	"context"
	"errors"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/go-monolith/mono"
)

// toResult converts a coordinator error into the reply envelope.
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

func (m *Module) sendMessage(ctx context.Context, req SendMessageRequest, _ *mono.Msg) (SendMessageResponse, error) {
	stored, err := m.coordinator.Send(ctx, req.UserID, req.Content)
	if err != nil {
		return SendMessageResponse{Result: toResult(err)}, nil
	}
	return SendMessageResponse{
		Result:    Result{OK: true},
		Delivered: stored != nil,
		Message:   stored,
	}, nil
}

func (m *Module) editMessage(ctx context.Context, req EditMessageRequest, _ *mono.Msg) (EditMessageResponse, error) {
	err := m.coordinator.Edit(ctx, req.UserID, req.MessageID, req.Content)
	return EditMessageResponse{Result: toResult(err)}, nil
}

func (m *Module) deleteMessage(ctx context.Context, req DeleteMessageRequest, _ *mono.Msg) (DeleteMessageResponse, error) {
	err := m.coordinator.Delete(ctx, req.UserID, req.MessageID)
	return DeleteMessageResponse{Result: toResult(err)}, nil
}

func (m *Module) requestOlder(ctx context.Context, req RequestOlderRequest, _ *mono.Msg) (RequestOlderResponse, error) {
	messages, err := m.coordinator.Older(ctx, req.UserID, req.Before)
	if err != nil {
		return RequestOlderResponse{Result: toResult(err), Messages: []chat.MessageData{}}, nil
	}
	return RequestOlderResponse{Result: Result{OK: true}, Messages: messages}, nil
}

func (m *Module) roomHistory(ctx context.Context, req RoomHistoryRequest, _ *mono.Msg) (RoomHistoryResponse, error) {
	messages, err := m.coordinator.History(ctx, req.RoomID, req.Limit)
	if err != nil {
		return RoomHistoryResponse{Result: toResult(err), Messages: []chat.MessageData{}}, nil
	}
	return RoomHistoryResponse{Result: Result{OK: true}, Messages: messages}, nil
}

func (m *Module) setTyping(ctx context.Context, req SetTypingRequest, _ *mono.Msg) (SetTypingResponse, error) {
	relayed, err := m.coordinator.Typing(ctx, req.UserID, req.IsTyping)
	if err != nil {
		return SetTypingResponse{Relayed: false}, nil
	}
	return SetTypingResponse{Relayed: relayed}, nil
}
