// Package health exposes liveness and readiness probes.
package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RoomCounter reports how many rooms the process currently holds. Implemented
// by the lobby hub.
type RoomCounter interface {
	ActiveRoomCount() int
}

// Handler manages health check endpoints
type Handler struct {
	rooms RoomCounter
}

// NewHandler creates a new health check handler
func NewHandler(rooms RoomCounter) *Handler {
	return &Handler{rooms: rooms}
}

// LivenessResponse represents the liveness probe response
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse represents the readiness probe response
type ReadinessResponse struct {
	Status    string `json:"status"`
	Rooms     int    `json:"rooms"`
	Timestamp string `json:"timestamp"`
}

// Liveness handles the liveness probe endpoint
// GET /health/live
// Returns 200 if the process is alive (no dependency checks)
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness handles the readiness probe endpoint
// GET /health/ready
// All state is in process memory; a live process is a ready process. The
// response carries the room count for operators.
func (h *Handler) Readiness(c *gin.Context) {
	rooms := 0
	if h.rooms != nil {
		rooms = h.rooms.ActiveRoomCount()
	}

	c.JSON(http.StatusOK, ReadinessResponse{
		Status:    "ready",
		Rooms:     rooms,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
