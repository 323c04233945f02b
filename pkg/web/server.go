// Package web serves the navigation dashboard: REST control endpoints and
// websocket streams for live status and camera frames.
package web

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/pathsense/go-pathsense/internal/log"
	"github.com/pathsense/go-pathsense/pkg/hub"
	"github.com/pathsense/go-pathsense/pkg/nav"
	"github.com/pathsense/go-pathsense/pkg/orientation"
	"github.com/pathsense/go-pathsense/pkg/spatial"
)

// NavStatus is the dashboard's view of the engine, broadcast on every
// completed cycle.
type NavStatus struct {
	State    string             `json:"state"`
	Target   string             `json:"target"`
	Command  string             `json:"command"`
	Danger   int                `json:"danger"`
	Centered bool               `json:"centered"`
	Path     []nav.Point        `json:"path,omitempty"`
	Session  string             `json:"session,omitempty"`
	Heading  orientation.Sample `json:"heading"`
}

// Server is the dashboard server. Control requests are forwarded to the
// engine through the callbacks; the server itself holds no navigation
// logic.
type Server struct {
	app  *fiber.App
	port string

	status   NavStatus
	statusMu sync.RWMutex

	statusHub *hub.Hub
	cameraHub *hub.Hub

	// OnNavigate starts navigation toward a target label and returns the
	// session id.
	OnNavigate func(target string) (string, error)

	// OnStop ends the current navigation session.
	OnStop func()

	// OnOrientation ingests a raw sensor event from the companion app.
	OnOrientation func(ev OrientationEvent) error

	// OnIdentify answers a free-form question about the camera view.
	OnIdentify func(ctx context.Context, text string) (string, error)

	// Objects returns the current spatial memory snapshot.
	Objects func() []spatial.Object
}

// NewServer creates the dashboard server listening on the given port.
func NewServer(port string) *Server {
	s := &Server{
		port:      port,
		statusHub: hub.New("status"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "PathSense Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/objects", s.handleObjects)
	api.Post("/navigate", s.handleNavigate)
	api.Post("/stop", s.handleStop)
	api.Post("/orientation", s.handleOrientation)
	api.Post("/identify", s.handleIdentify)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	log.Info("dashboard listening", "port", s.port)
	go s.statusHub.Run()
	go s.cameraHub.Run()
	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server failed", "error", err)
		}
	}()
}

// PublishResult updates the cached status from a cycle result and
// broadcasts it to websocket clients.
func (s *Server) PublishResult(res nav.Result, target string, heading orientation.Sample) {
	s.statusMu.Lock()
	s.status = NavStatus{
		State:    res.State.String(),
		Target:   target,
		Command:  res.Command,
		Danger:   res.Danger,
		Centered: res.Centered,
		Path:     res.Path,
		Session:  res.Session,
		Heading:  heading,
	}
	status := s.status
	s.statusMu.Unlock()

	s.statusHub.BroadcastJSON(status)
}

// SendCameraFrame broadcasts a JPEG frame to camera stream clients.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
