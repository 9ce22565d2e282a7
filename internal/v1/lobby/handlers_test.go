package lobby

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coup-arena/backend/go/internal/v1/game"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHub(0)
	t.Cleanup(h.Close)

	r := gin.New()
	h.Register(r)
	return r, h
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestHandleMatchmake(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := doJSON(t, r, "POST", "/matchmake", gin.H{"name": "Leo"})
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode(t, resp)
	assert.Equal(t, float64(0), body["player_id"])
	assert.Equal(t, float64(1), body["game_id"])
}

func TestHandleMatchmake_MissingName(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := doJSON(t, r, "POST", "/matchmake", gin.H{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(t, r, "POST", "/matchmake", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandleState_UnknownGame(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := doJSON(t, r, "GET", "/state?player_id=0&game_id=99", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, decode(t, resp), "error")
}

func TestHandleState_MalformedQuery(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := doJSON(t, r, "GET", "/state?player_id=zero&game_id=1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(t, r, "GET", "/state", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandleAction_Validation(t *testing.T) {
	r, _ := newTestRouter(t)

	// Missing ids is a malformed envelope.
	resp := doJSON(t, r, "POST", "/action", gin.H{"action": "Income"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Unknown room is a routing failure.
	resp = doJSON(t, r, "POST", "/action", gin.H{"player_id": 0, "game_id": 12, "action": "Income"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandleQuit_Validation(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := doJSON(t, r, "POST", "/quit", gin.H{"player_id": 0})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(t, r, "POST", "/quit", gin.H{"player_id": 0, "game_id": 3})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// TestFullGameFlowOverHTTP walks the income smoke test through the wire
// surface: four players matchmake, seat 0 takes Income, everyone's view
// advances.
func TestFullGameFlowOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	gameID := 0
	for i := 0; i < game.MaxSeats; i++ {
		resp := doJSON(t, r, "POST", "/matchmake", gin.H{"name": fmt.Sprintf("P%d", i)})
		require.Equal(t, http.StatusOK, resp.Code)
		body := decode(t, resp)
		assert.Equal(t, float64(i), body["player_id"])
		gameID = int(body["game_id"].(float64))
	}

	resp := doJSON(t, r, "GET", fmt.Sprintf("/state?player_id=0&game_id=%d", gameID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	state := decode(t, resp)
	assert.Equal(t, string(game.PhaseAwaitingAction), state["game_state"])
	assert.Equal(t, float64(0), state["current_player_idx"])
	assert.Len(t, state["your_cards"], 2)
	assert.Len(t, state["players"], game.MaxSeats)

	// Hidden information: another seat's view exposes only counts.
	players := state["players"].([]any)
	for _, p := range players {
		player := p.(map[string]any)
		assert.Equal(t, float64(2), player["influence_count"])
		assert.NotContains(t, player, "hand")
	}

	resp = doJSON(t, r, "POST", "/action", gin.H{"player_id": 0, "game_id": gameID, "action": "Income"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", decode(t, resp)["status"])

	resp = doJSON(t, r, "GET", fmt.Sprintf("/state?player_id=1&game_id=%d", gameID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	state = decode(t, resp)
	assert.Equal(t, float64(1), state["current_player_idx"])

	players = state["players"].([]any)
	seat0 := players[0].(map[string]any)
	assert.Equal(t, float64(3), seat0["coins"])
}

func TestHandleQuit_EliminatesSeat(t *testing.T) {
	r, h := newTestRouter(t)

	gameID := 0
	for i := 0; i < game.MaxSeats; i++ {
		body := decode(t, doJSON(t, r, "POST", "/matchmake", gin.H{"name": "P"}))
		gameID = int(body["game_id"].(float64))
	}

	resp := doJSON(t, r, "POST", "/quit", gin.H{"player_id": 2, "game_id": gameID})
	require.Equal(t, http.StatusOK, resp.Code)

	room, err := h.Get(gameID)
	require.NoError(t, err)
	view := room.View(2)
	assert.True(t, view.Players[2].IsOut)
	assert.Equal(t, 0, view.Players[2].InfluenceCount)
}
