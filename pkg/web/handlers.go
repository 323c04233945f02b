package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/pathsense/go-pathsense/pkg/hub"
	"github.com/pathsense/go-pathsense/pkg/spatial"
)

// handleStatus returns the latest navigation status.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return c.JSON(s.status)
}

// handleObjects returns the spatial memory snapshot.
func (s *Server) handleObjects(c *fiber.Ctx) error {
	objects := []spatial.Object{}
	if s.Objects != nil {
		objects = s.Objects()
	}
	return c.JSON(fiber.Map{"objects": objects, "count": len(objects)})
}

// NavigateRequest is the body of POST /api/navigate.
type NavigateRequest struct {
	Target string `json:"target"`
}

// handleNavigate starts a navigation session.
func (s *Server) handleNavigate(c *fiber.Ctx) error {
	var req NavigateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	req.Target = strings.TrimSpace(req.Target)
	if req.Target == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "target is required",
		})
	}
	if s.OnNavigate == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "navigation not configured",
		})
	}

	session, err := s.OnNavigate(req.Target)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"target": req.Target, "session": session})
}

// handleStop ends the current navigation session.
func (s *Server) handleStop(c *fiber.Ctx) error {
	if s.OnStop != nil {
		s.OnStop()
	}
	return c.JSON(fiber.Map{"stopped": true})
}

// OrientationEvent is one raw sensor event posted by the companion app.
// Type selects the sensor: "rotation" carries a quaternion in x/y/z/w,
// "accel" and "mag" carry a 3-vector in x/y/z.
type OrientationEvent struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	W    float64 `json:"w"`
}

// handleOrientation ingests sensor events from the companion app.
func (s *Server) handleOrientation(c *fiber.Ctx) error {
	var ev OrientationEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if s.OnOrientation == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "orientation not configured",
		})
	}
	if err := s.OnOrientation(ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// IdentifyRequest is the body of POST /api/identify.
type IdentifyRequest struct {
	Text string `json:"text"`
}

// handleIdentify forwards a scene question to the identification service.
func (s *Server) handleIdentify(c *fiber.Ctx) error {
	var req IdentifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if s.OnIdentify == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "identification not configured",
		})
	}

	result, err := s.OnIdentify(c.Context(), req.Text)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"result": result})
}

// handleStatusWS streams status updates. The current status is sent
// immediately so a fresh client does not wait for the next cycle.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.statusMu.RLock()
	c.WriteJSON(s.status)
	s.statusMu.RUnlock()

	hub.NewClient(s.statusHub, c).Run()
}

// handleCameraWS streams binary camera frames.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
