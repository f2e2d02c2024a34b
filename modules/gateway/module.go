package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianhang/ChatApp/events"
	"github.com/brianhang/ChatApp/modules/message"
	"github.com/brianhang/ChatApp/modules/room"
	"github.com/brianhang/ChatApp/modules/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Module is the client-facing gateway: a fiber HTTP server with the
// WebSocket endpoint, the hub, and the frame dispatch table. It turns
// inbound frames into service calls and bus events into outbound frames.
type Module struct {
	app         *fiber.App
	hub         *Hub
	dispatch    map[string]frameHandler
	roomPort    room.Port
	messagePort message.Port
	userPort    user.Port
	cancelHub   context.CancelFunc
	port        string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the gateway module.
func NewModule() *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	m := &Module{
		hub:  NewHub(),
		port: port,
	}
	m.dispatch = m.buildDispatch()
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Dependencies lists the modules this one calls into.
func (m *Module) Dependencies() []string {
	return []string{"room", "message", "user"}
}

// SetDependencyServiceContainer wires the room, message, and user adapters.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "room":
		m.roomPort = room.NewAdapter(container)
	case "message":
		m.messagePort = message.NewAdapter(container)
	case "user":
		m.userPort = user.NewAdapter(container)
	}
}

// RegisterEventConsumers subscribes to every broadcast-class event and
// relays each one as a wire frame. Recipient lists always come from the
// emitting coordinator; the gateway never decides room membership.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	consumers := []struct {
		name     string
		register func() error
	}{
		{"RoomCreated", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.RoomCreatedV1, m.handleRoomCreated, m)
		}},
		{"RoomEdited", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.RoomEditedV1, m.handleRoomEdited, m)
		}},
		{"RoomDeleted", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.RoomDeletedV1, m.handleRoomDeleted, m)
		}},
		{"RoomJoined", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.RoomJoinedV1, m.handleRoomJoined, m)
		}},
		{"RoomLeft", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.RoomLeftV1, m.handleRoomLeft, m)
		}},
		{"MessageSent", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.MessageSentV1, m.handleMessageSent, m)
		}},
		{"MessageEdited", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.MessageEditedV1, m.handleMessageEdited, m)
		}},
		{"MessageDeleted", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.MessageDeletedV1, m.handleMessageDeleted, m)
		}},
		{"MessageBacklog", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.MessageBacklogV1, m.handleMessageBacklog, m)
		}},
		{"Typing", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.TypingV1, m.handleTyping, m)
		}},
		{"UserConnected", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.UserConnectedV1, m.handleUserConnected, m)
		}},
		{"UserDisconnected", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.UserDisconnectedV1, m.handleUserDisconnected, m)
		}},
		{"NicknameChanged", func() error {
			return helper.RegisterTypedEventConsumer(registry, events.NicknameChangedV1, m.handleNicknameChanged, m)
		}},
	}

	for _, consumer := range consumers {
		if err := consumer.register(); err != nil {
			return fmt.Errorf("failed to register %s consumer: %w", consumer.name, err)
		}
	}
	return nil
}

// Start launches the hub loop and the fiber server.
func (m *Module) Start(_ context.Context) error {
	if m.roomPort == nil || m.messagePort == nil || m.userPort == nil {
		return fmt.Errorf("room, message, and user dependencies not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})
	m.app.Use(recover.New())
	m.app.Use(loggerMiddleware())
	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			log.Printf("[gateway] HTTP server error: %v", err)
		}
	}()

	log.Printf("[gateway] HTTP server started on :%s", m.port)
	return nil
}

// Stop shuts down the fiber server and the hub.
func (m *Module) Stop(_ context.Context) error {
	if m.app != nil {
		log.Println("[gateway] Shutting down HTTP server...")
		if err := m.app.Shutdown(); err != nil {
			log.Printf("[gateway] HTTP shutdown error: %v", err)
		}
	}
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":              m.port,
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// Event consumers: bus events become wire frames.

func (m *Module) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	m.broadcast(EventRoomData, event.Room)
	return nil
}

func (m *Module) handleRoomEdited(_ context.Context, event events.RoomEditedEvent, _ *mono.Msg) error {
	m.broadcast(EventRoomEdit, roomEditPayload{
		RoomID: event.RoomID,
		Field:  event.Field,
		Value:  event.Value,
	})
	return nil
}

func (m *Module) handleRoomDeleted(_ context.Context, event events.RoomDeletedEvent, _ *mono.Msg) error {
	m.broadcast(EventRoomDelete, roomDeletePayload{RoomID: event.RoomID})
	return nil
}

func (m *Module) handleRoomJoined(_ context.Context, event events.RoomJoinedEvent, _ *mono.Msg) error {
	m.broadcast(EventRoomJoin, roomJoinPayload{
		UserID: event.UserID,
		RoomID: event.RoomID,
	})
	return nil
}

func (m *Module) handleRoomLeft(_ context.Context, event events.RoomLeftEvent, _ *mono.Msg) error {
	m.broadcast(EventRoomLeave, roomLeavePayload{UserID: event.UserID})
	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.deliver(event.Recipients, EventMsg, event.Message)
	return nil
}

func (m *Module) handleMessageEdited(_ context.Context, event events.MessageEditedEvent, _ *mono.Msg) error {
	m.deliver(event.Recipients, EventMsgEdit, msgEditPayload{
		MessageID: event.MessageID,
		Content:   event.Content,
	})
	return nil
}

func (m *Module) handleMessageDeleted(_ context.Context, event events.MessageDeletedEvent, _ *mono.Msg) error {
	m.deliver(event.Recipients, EventMsgDelete, msgDeletePayload{MessageID: event.MessageID})
	return nil
}

// handleMessageBacklog replays history to one user. The payload arrives
// newest first; frames go out oldest first so the client appends in order.
func (m *Module) handleMessageBacklog(_ context.Context, event events.MessageBacklogEvent, _ *mono.Msg) error {
	for i := len(event.Messages) - 1; i >= 0; i-- {
		raw, err := encodeFrame(EventMsg, event.Messages[i])
		if err != nil {
			log.Printf("[gateway] Failed to encode backlog frame: %v", err)
			return nil
		}
		m.hub.Unicast(event.UserID, raw)
	}
	return nil
}

func (m *Module) handleTyping(_ context.Context, event events.TypingEvent, _ *mono.Msg) error {
	m.deliver(event.Recipients, EventTyping, typingPayload{
		UserID:   event.UserID,
		IsTyping: event.IsTyping,
	})
	return nil
}

func (m *Module) handleUserConnected(_ context.Context, event events.UserConnectedEvent, _ *mono.Msg) error {
	m.broadcast(EventUserJoin, nicknamePayload{
		UserID:   event.UserID,
		Nickname: event.Nickname,
	})
	return nil
}

func (m *Module) handleUserDisconnected(_ context.Context, event events.UserDisconnectedEvent, _ *mono.Msg) error {
	m.broadcast(EventUserLeave, userLeavePayload{UserID: event.UserID})
	return nil
}

func (m *Module) handleNicknameChanged(_ context.Context, event events.NicknameChangedEvent, _ *mono.Msg) error {
	m.broadcast(EventNickname, nicknamePayload{
		UserID:   event.UserID,
		Nickname: event.Nickname,
	})
	return nil
}

// customErrorHandler handles fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// loggerMiddleware returns a fiber middleware for request logging.
func loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for WebSocket upgrade requests
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		err := c.Next()
		log.Printf("[gateway] %s %s %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	}
}
