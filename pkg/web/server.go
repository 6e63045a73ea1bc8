// Package web exposes the bridge state over HTTP for ground-station
// tooling: a REST snapshot plus a websocket stream.
package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/quadkit/crazybridge/internal/log"
	"github.com/quadkit/crazybridge/pkg/bridge"
)

// statusInterval is the websocket push cadence.
const statusInterval = 200 * time.Millisecond

// StatusProvider yields point-in-time bridge snapshots.
type StatusProvider interface {
	Status() bridge.Status
}

// Server is the status HTTP server.
type Server struct {
	app    *fiber.App
	port   string
	status StatusProvider
}

// NewServer creates the status server on the given port.
func NewServer(port string, status StatusProvider) *Server {
	s := &Server{port: port, status: status}

	app := fiber.New(fiber.Config{
		AppName:               "crazybridge",
		DisableStartupMessage: true,
	})

	app.Get("/api/status", s.handleStatus)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status.Status())
}

// handleStatusWS streams status snapshots until the client goes away.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	defer c.Close()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := c.WriteJSON(s.status.Status()); err != nil {
			return
		}
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info("status server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
