// Package lobby implements the process-wide room registry: matchmaking,
// room lookup, idle-room eviction, and the HTTP surface that exposes the
// rooms to polling clients.
//
// The hub's mutex guards only the registry itself. Each room carries its own
// lock; every request on a room runs under that lock for its full duration,
// so all transitions within a room are totally ordered.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coup-arena/backend/go/internal/v1/game"
	"github.com/coup-arena/backend/go/internal/v1/logging"
	"github.com/coup-arena/backend/go/internal/v1/metrics"
	"go.uber.org/zap"
)

// ErrRoomNotFound is returned when a game id does not resolve to a room.
var ErrRoomNotFound = errors.New("room not found")

// Hub is the registry of all rooms in the process. Rooms are created by
// matchmaking and, when an idle TTL is configured, evicted by the janitor
// once their game is over and no join, action or quit request has reached
// them for a while. State reads do not count as activity.
type Hub struct {
	mu     sync.Mutex
	rooms  map[int]*game.Room
	order  []int // room ids in creation order, for oldest-first matchmaking
	nextID int
	rng    *rand.Rand

	idleTTL time.Duration
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewHub creates a hub. idleTTL > 0 starts a janitor goroutine that evicts
// finished rooms idle for longer than the TTL; 0 retains rooms indefinitely.
func NewHub(idleTTL time.Duration) *Hub {
	h := &Hub{
		rooms:   make(map[int]*game.Room),
		nextID:  1,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		idleTTL: idleTTL,
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	if idleTTL > 0 {
		h.wg.Add(1)
		go h.janitor(ctx)
	}
	return h
}

// Close stops the janitor. Rooms are left in place.
func (h *Hub) Close() {
	h.cancel()
	h.wg.Wait()
}

// Matchmake seats a player in the oldest room still waiting for players, or
// opens a new room when none is. Returns the seat id and the room id.
func (h *Hub) Matchmake(name string) (playerID, gameID int) {
	start := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	defer func() {
		metrics.MatchmakeDuration.Observe(time.Since(start).Seconds())
	}()

	for _, id := range h.order {
		room := h.rooms[id]
		if !room.Joinable() {
			continue
		}
		seatID, err := room.Join(name)
		if err != nil {
			continue
		}
		logging.Info(context.Background(), "player matched into waiting room",
			zap.Int("room_id", id), zap.Int("seat_id", seatID))
		return seatID, id
	}

	room := h.newRoomLocked()
	seatID, err := room.Join(name)
	if err != nil {
		// A freshly created room always has a free seat.
		logging.Error(context.Background(), "failed to seat player in new room",
			zap.Int("room_id", room.ID), zap.Error(err))
		return 0, room.ID
	}
	logging.Info(context.Background(), "player matched into new room",
		zap.Int("room_id", room.ID), zap.Int("seat_id", seatID))
	return seatID, room.ID
}

// newRoomLocked creates and registers a room. Each room gets its own rng,
// seeded from the hub's, so deck shuffles never contend across rooms.
func (h *Hub) newRoomLocked() *game.Room {
	id := h.nextID
	h.nextID++

	room := game.NewRoom(id, rand.New(rand.NewSource(h.rng.Int63())))
	h.rooms[id] = room
	h.order = append(h.order, id)
	metrics.ActiveRooms.Inc()
	return room
}

// Get resolves a room by id.
func (h *Hub) Get(gameID int) (*game.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[gameID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// ActiveRoomCount returns the number of registered rooms.
func (h *Hub) ActiveRoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// janitor periodically evicts rooms whose game is over and which nobody has
// touched within the idle TTL.
func (h *Hub) janitor(ctx context.Context) {
	defer h.wg.Done()

	interval := h.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.evictIdle()
		}
	}
}

func (h *Hub) evictIdle() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-h.idleTTL)
	kept := h.order[:0]
	for _, id := range h.order {
		room := h.rooms[id]
		if room.GameOver() && room.LastActivity().Before(cutoff) {
			delete(h.rooms, id)
			metrics.ActiveRooms.Dec()
			metrics.RoomSeats.DeleteLabelValues(fmt.Sprint(id))
			logging.Info(context.Background(), "evicted idle room", zap.Int("room_id", id))
			continue
		}
		kept = append(kept, id)
	}
	h.order = kept
}
