package room

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/brianhang/ChatApp/domain/chat"
	"github.com/brianhang/ChatApp/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module hosts the room registry and coordinator behind request-reply
// services, and publishes room lifecycle events on the bus.
type Module struct {
	db          *gorm.DB
	registry    *Registry
	coordinator *Coordinator
	eventBus    mono.EventBus
	logger      types.Logger
	dbPath      string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the room module.
func NewModule(logger types.Logger) *Module {
	dbPath := os.Getenv("ROOM_DB_PATH")
	if dbPath == "" {
		dbPath = "rooms.db"
	}
	return &Module{
		registry: NewRegistry(),
		logger:   logger,
		dbPath:   dbPath,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "room"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.RoomEditedV1.ToBase(),
		events.RoomDeletedV1.ToBase(),
		events.RoomJoinedV1.ToBase(),
		events.RoomLeftV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes to user lifecycle events. A disconnect
// clears occupancy exactly as an explicit leave would.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserDisconnectedV1, m.handleUserDisconnected, m,
	); err != nil {
		return fmt.Errorf("failed to register UserDisconnected consumer: %w", err)
	}
	return nil
}

func (m *Module) handleUserDisconnected(_ context.Context, event events.UserDisconnectedEvent, _ *mono.Msg) error {
	m.coordinator.Evict(event.UserID)
	return nil
}

// RegisterServices registers the room request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	register := func(name string, err error) error {
		if err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
		return nil
	}

	if err := register(ServiceCreateRoom, helper.RegisterTypedRequestReplyService(
		container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.createRoom,
	)); err != nil {
		return err
	}
	if err := register(ServiceEditRoom, helper.RegisterTypedRequestReplyService(
		container, ServiceEditRoom, json.Unmarshal, json.Marshal, m.editRoom,
	)); err != nil {
		return err
	}
	if err := register(ServiceJoinRoom, helper.RegisterTypedRequestReplyService(
		container, ServiceJoinRoom, json.Unmarshal, json.Marshal, m.joinRoom,
	)); err != nil {
		return err
	}
	if err := register(ServiceLeaveRoom, helper.RegisterTypedRequestReplyService(
		container, ServiceLeaveRoom, json.Unmarshal, json.Marshal, m.leaveRoom,
	)); err != nil {
		return err
	}
	if err := register(ServiceKickUser, helper.RegisterTypedRequestReplyService(
		container, ServiceKickUser, json.Unmarshal, json.Marshal, m.kickUser,
	)); err != nil {
		return err
	}
	if err := register(ServiceBanUser, helper.RegisterTypedRequestReplyService(
		container, ServiceBanUser, json.Unmarshal, json.Marshal, m.banUser,
	)); err != nil {
		return err
	}
	if err := register(ServiceListBans, helper.RegisterTypedRequestReplyService(
		container, ServiceListBans, json.Unmarshal, json.Marshal, m.listBans,
	)); err != nil {
		return err
	}
	if err := register(ServiceListRooms, helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	)); err != nil {
		return err
	}
	if err := register(ServiceGetOccupants, helper.RegisterTypedRequestReplyService(
		container, ServiceGetOccupants, json.Unmarshal, json.Marshal, m.getOccupants,
	)); err != nil {
		return err
	}
	if err := register(ServiceGetOccupancy, helper.RegisterTypedRequestReplyService(
		container, ServiceGetOccupancy, json.Unmarshal, json.Marshal, m.getOccupancy,
	)); err != nil {
		return err
	}

	m.logger.Info("Registered room services")
	return nil
}

// Start opens the room database, runs migrations, and builds the
// coordinator.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&chat.Room{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.coordinator = NewCoordinator(
		NewRepository(m.db),
		m.registry,
		&busPublisher{bus: m.eventBus, logger: m.logger},
		m.logger,
	)

	m.logger.Info("Room module started", "dbPath", m.dbPath)
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
	m.logger.Info("Room module stopped")
	return nil
}

// Health reports database reachability and occupancy size.
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
			"occupied_users": m.registry.Count(),
		},
	}
}

// busPublisher forwards coordinator notifications onto the event bus.
type busPublisher struct {
	bus    mono.EventBus
	logger types.Logger
}

func (p *busPublisher) RoomCreated(room chat.RoomData) {
	p.publish("RoomCreated", events.RoomCreatedV1.Publish(p.bus, events.RoomCreatedEvent{Room: room}, nil))
}

func (p *busPublisher) RoomEdited(roomID, field string, value any) {
	p.publish("RoomEdited", events.RoomEditedV1.Publish(p.bus, events.RoomEditedEvent{
		RoomID: roomID,
		Field:  field,
		Value:  value,
	}, nil))
}

func (p *busPublisher) RoomDeleted(roomID string) {
	p.publish("RoomDeleted", events.RoomDeletedV1.Publish(p.bus, events.RoomDeletedEvent{RoomID: roomID}, nil))
}

func (p *busPublisher) RoomJoined(userID, roomID string) {
	p.publish("RoomJoined", events.RoomJoinedV1.Publish(p.bus, events.RoomJoinedEvent{
		UserID: userID,
		RoomID: roomID,
	}, nil))
}

func (p *busPublisher) RoomLeft(userID, roomID string) {
	p.publish("RoomLeft", events.RoomLeftV1.Publish(p.bus, events.RoomLeftEvent{
		UserID: userID,
		RoomID: roomID,
	}, nil))
}

func (p *busPublisher) publish(name string, err error) {
	if err != nil {
		p.logger.Error("Failed to publish event", "event", name, "error", err)
	}
}
