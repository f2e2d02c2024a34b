package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianhang/ChatApp/modules/gateway"
	"github.com/brianhang/ChatApp/modules/message"
	"github.com/brianhang/ChatApp/modules/room"
	"github.com/brianhang/ChatApp/modules/user"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== ChatApp - room/session coordination server ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	userModule := user.NewModule(app.Logger())
	roomModule := room.NewModule(app.Logger())
	messageModule := message.NewModule(app.Logger())
	gatewayModule := gateway.NewModule()

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - user: directory + connect/disconnect events
	// - room: registry + coordinator (consumes user events)
	// - message: message log + typing relay (depends on room and user)
	// - gateway: fiber HTTP/WebSocket server (depends on all three)
	app.Register(userModule)
	app.Register(roomModule)
	app.Register(messageModule)
	app.Register(gatewayModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                   - Health check")
	log.Println("  GET    /api/v1/rooms             - List all rooms")
	log.Println("  GET    /api/v1/rooms/:id         - Get room details")
	log.Println("  GET    /api/v1/rooms/:id/history - Get message history")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Connect with: ws://localhost:3000/ws?user=<id>&nickname=<name>")
	log.Println("  Frames: roomAdd, roomEdit, roomJoin, roomLeave, roomOwnerKick,")
	log.Println("          roomOwnerBan, roomBans, msg, msgEdit, msgDelete,")
	log.Println("          msgRequestOlder, typing, nickname")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
