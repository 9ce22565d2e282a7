package lobby

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coup-arena/backend/go/internal/v1/game"
	"github.com/coup-arena/backend/go/internal/v1/logging"
	"go.uber.org/zap"
)

// The wire surface. Status codes follow a strict split: 400 for malformed
// envelopes, 404 for unknown game ids, and 200 for everything the engine
// accepted — including domain-level rejections, which only update the
// room's narration and show up in the next state poll.

type matchmakeRequest struct {
	Name string `json:"name" binding:"required"`
}

// actionEnvelope is the body of POST /action: routing ids plus the
// phase-dependent payload fields.
type actionEnvelope struct {
	PlayerID *int `json:"player_id" binding:"required"`
	GameID   *int `json:"game_id" binding:"required"`
	game.Request
}

type quitRequest struct {
	PlayerID *int `json:"player_id" binding:"required"`
	GameID   *int `json:"game_id" binding:"required"`
}

// HandleMatchmake handles POST /matchmake.
func (h *Hub) HandleMatchmake(c *gin.Context) {
	var req matchmakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	playerID, gameID := h.Matchmake(req.Name)
	c.JSON(http.StatusOK, gin.H{"player_id": playerID, "game_id": gameID})
}

// HandleState handles GET /state?player_id=&game_id=. Reads are idempotent
// view projections; they never mutate the room.
func (h *Hub) HandleState(c *gin.Context) {
	playerID, err1 := strconv.Atoi(c.Query("player_id"))
	gameID, err2 := strconv.Atoi(c.Query("game_id"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id and game_id are required"})
		return
	}

	room, err := h.Get(gameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
		return
	}
	c.JSON(http.StatusOK, room.View(playerID))
}

// HandleAction handles POST /action.
func (h *Hub) HandleAction(c *gin.Context) {
	var env actionEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	room, err := h.Get(*env.GameID)
	if err != nil {
		logging.Warn(c.Request.Context(), "action for unknown game",
			zap.Int("game_id", *env.GameID))
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
		return
	}

	room.Apply(*env.PlayerID, env.Request)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleQuit handles POST /quit.
func (h *Hub) HandleQuit(c *gin.Context) {
	var req quitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	room, err := h.Get(*req.GameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
		return
	}

	room.Quit(*req.PlayerID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Register mounts the lobby routes on the router.
func (h *Hub) Register(r gin.IRouter) {
	r.POST("/matchmake", h.HandleMatchmake)
	r.GET("/state", h.HandleState)
	r.POST("/action", h.HandleAction)
	r.POST("/quit", h.HandleQuit)
}
