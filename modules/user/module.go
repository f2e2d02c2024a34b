package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/brianhang/ChatApp/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module hosts the user directory behind request-reply services and
// publishes user lifecycle events on the bus.
type Module struct {
	directory *Directory
	eventBus  mono.EventBus
	logger    types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the user module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		directory: NewDirectory(),
		logger:    logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "user"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserConnectedV1.ToBase(),
		events.UserDisconnectedV1.ToBase(),
		events.NicknameChangedV1.ToBase(),
	}
}

// RegisterServices registers the user request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRegisterUser, json.Unmarshal, json.Marshal, m.registerUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegisterUser, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUnregisterUser, json.Unmarshal, json.Marshal, m.unregisterUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUnregisterUser, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSetNickname, json.Unmarshal, json.Marshal, m.setNickname,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSetNickname, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetNickname, json.Unmarshal, json.Marshal, m.getNickname,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetNickname, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListUsers, json.Unmarshal, json.Marshal, m.listUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListUsers, err)
	}

	m.logger.Info("Registered user services")
	return nil
}

// Start initializes the user module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("User module started")
	return nil
}

// Stop shuts down the user module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("User module stopped")
	return nil
}

// Health reports the directory size.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_users": m.directory.Count(),
		},
	}
}

func (m *Module) registerUser(_ context.Context, req RegisterUserRequest, _ *mono.Msg) (RegisterUserResponse, error) {
	entry := m.directory.Register(req.UserID, req.Nickname)

	event := events.UserConnectedEvent{UserID: entry.ID, Nickname: entry.Nickname}
	if err := events.UserConnectedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Error("Failed to publish UserConnected event", "error", err)
	}

	m.logger.Info("User registered", "userID", entry.ID, "nickname", entry.Nickname)
	return RegisterUserResponse{User: entry}, nil
}

func (m *Module) unregisterUser(_ context.Context, req UnregisterUserRequest, _ *mono.Msg) (UnregisterUserResponse, error) {
	removed := m.directory.Unregister(req.UserID)
	if !removed {
		return UnregisterUserResponse{Removed: false}, nil
	}

	event := events.UserDisconnectedEvent{UserID: req.UserID}
	if err := events.UserDisconnectedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Error("Failed to publish UserDisconnected event", "error", err)
	}

	m.logger.Info("User unregistered", "userID", req.UserID)
	return UnregisterUserResponse{Removed: true}, nil
}

func (m *Module) setNickname(_ context.Context, req SetNicknameRequest, _ *mono.Msg) (SetNicknameResponse, error) {
	nickname, err := m.directory.SetNickname(req.UserID, req.Nickname)
	if err != nil {
		var domainErr *chat.Error
		if errors.As(err, &domainErr) {
			return SetNicknameResponse{OK: false, Message: domainErr.Error()}, nil
		}
		return SetNicknameResponse{OK: false, Message: "could not change nickname"}, nil
	}

	event := events.NicknameChangedEvent{UserID: req.UserID, Nickname: nickname}
	if err := events.NicknameChangedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Error("Failed to publish NicknameChanged event", "error", err)
	}

	m.logger.Info("Nickname changed", "userID", req.UserID, "nickname", nickname)
	return SetNicknameResponse{OK: true, Nickname: nickname}, nil
}

func (m *Module) getNickname(_ context.Context, req GetNicknameRequest, _ *mono.Msg) (GetNicknameResponse, error) {
	nickname, ok := m.directory.Nickname(req.UserID)
	return GetNicknameResponse{Found: ok, Nickname: nickname}, nil
}

func (m *Module) listUsers(_ context.Context, _ ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	return ListUsersResponse{Users: m.directory.List()}, nil
}
