package message

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/brianhang/ChatApp/events"
	"github.com/brianhang/ChatApp/modules/room"
	"github.com/brianhang/ChatApp/modules/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module hosts the message coordinator and typing relay behind
// request-reply services, and delivers room backlogs on join.
type Module struct {
	db            *gorm.DB
	coordinator   *Coordinator
	roomPort      room.Port
	userPort      user.Port
	eventBus      mono.EventBus
	logger        types.Logger
	dbPath        string
	historyLength int
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the message module.
func NewModule(logger types.Logger) *Module {
	dbPath := os.Getenv("MESSAGE_DB_PATH")
	if dbPath == "" {
		dbPath = "messages.db"
	}

	historyLength := HistoryLength
	if raw := os.Getenv("CHAT_HISTORY_LENGTH"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			historyLength = parsed
		}
	}

	return &Module{
		logger:        logger,
		dbPath:        dbPath,
		historyLength: historyLength,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "message"
}

// Dependencies lists the modules this one calls into.
func (m *Module) Dependencies() []string {
	return []string{"room", "user"}
}

// SetDependencyServiceContainer wires the room and user adapters.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "room":
		m.roomPort = room.NewAdapter(container)
	case "user":
		m.userPort = user.NewAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.MessageEditedV1.ToBase(),
		events.MessageDeletedV1.ToBase(),
		events.MessageBacklogV1.ToBase(),
		events.TypingV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes to room joins for backlog delivery and
// disconnects for visit cleanup.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomJoinedV1, m.handleRoomJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomJoined consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserDisconnectedV1, m.handleUserDisconnected, m,
	); err != nil {
		return fmt.Errorf("failed to register UserDisconnected consumer: %w", err)
	}
	return nil
}

func (m *Module) handleRoomJoined(ctx context.Context, event events.RoomJoinedEvent, _ *mono.Msg) error {
	if err := m.coordinator.Backlog(ctx, event.UserID, event.RoomID); err != nil {
		m.logger.Error("Failed to deliver backlog", "error", err, "userID", event.UserID, "roomID", event.RoomID)
	}
	return nil
}

func (m *Module) handleUserDisconnected(_ context.Context, event events.UserDisconnectedEvent, _ *mono.Msg) error {
	m.coordinator.ForgetVisits(event.UserID)
	return nil
}

// RegisterServices registers the message request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSendMessage, json.Unmarshal, json.Marshal, m.sendMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSendMessage, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceEditMessage, json.Unmarshal, json.Marshal, m.editMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceEditMessage, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteMessage, json.Unmarshal, json.Marshal, m.deleteMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteMessage, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRequestOlder, json.Unmarshal, json.Marshal, m.requestOlder,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRequestOlder, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomHistory, json.Unmarshal, json.Marshal, m.roomHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomHistory, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSetTyping, json.Unmarshal, json.Marshal, m.setTyping,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSetTyping, err)
	}

	m.logger.Info("Registered message services")
	return nil
}

// Start opens the message database and builds the coordinator.
func (m *Module) Start(_ context.Context) error {
	if m.roomPort == nil || m.userPort == nil {
		return fmt.Errorf("room and user dependencies not set")
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&chat.Message{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.coordinator = NewCoordinator(
		NewRepository(m.db),
		m.roomPort,
		nicknameLookup{port: m.userPort},
		&busPublisher{bus: m.eventBus, logger: m.logger},
		m.logger,
		m.historyLength,
	)

	m.logger.Info("Message module started", "dbPath", m.dbPath, "historyLength", m.historyLength)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	m.logger.Info("Message module stopped")
	return nil
}

// Health reports database reachability.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":         "sqlite",
			"path":           m.dbPath,
			"history_length": m.historyLength,
		},
	}
}

// nicknameLookup narrows the user port to the coordinator's Nicknames
// contract.
type nicknameLookup struct {
	port user.Port
}

func (n nicknameLookup) Nickname(ctx context.Context, userID string) (string, bool, error) {
	return n.port.Nickname(ctx, userID)
}

// busPublisher forwards coordinator notifications onto the event bus.
type busPublisher struct {
	bus    mono.EventBus
	logger types.Logger
}

func (p *busPublisher) MessageSent(msg chat.MessageData, recipients []string) {
	p.publish("MessageSent", events.MessageSentV1.Publish(p.bus, events.MessageSentEvent{
		Message:    msg,
		Recipients: recipients,
	}, nil))
}

func (p *busPublisher) MessageEdited(messageID, content string, recipients []string) {
	p.publish("MessageEdited", events.MessageEditedV1.Publish(p.bus, events.MessageEditedEvent{
		MessageID:  messageID,
		Content:    content,
		Recipients: recipients,
	}, nil))
}

func (p *busPublisher) MessageDeleted(messageID string, recipients []string) {
	p.publish("MessageDeleted", events.MessageDeletedV1.Publish(p.bus, events.MessageDeletedEvent{
		MessageID:  messageID,
		Recipients: recipients,
	}, nil))
}

func (p *busPublisher) MessageBacklog(userID, roomID string, messages []chat.MessageData) {
	p.publish("MessageBacklog", events.MessageBacklogV1.Publish(p.bus, events.MessageBacklogEvent{
		UserID:   userID,
		RoomID:   roomID,
		Messages: messages,
	}, nil))
}

func (p *busPublisher) Typing(userID string, isTyping bool, recipients []string) {
	p.publish("Typing", events.TypingV1.Publish(p.bus, events.TypingEvent{
		UserID:     userID,
		IsTyping:   isTyping,
		Recipients: recipients,
	}, nil))
}

func (p *busPublisher) publish(name string, err error) {
	if err != nil {
		p.logger.Error("Failed to publish event", "event", name, "error", err)
	}
}
