// Package metrics declares the prometheus collectors for the Coup backend.
//
// Naming convention: namespace_subsystem_name
//   - namespace: coup (application-level grouping)
//   - subsystem: http, room, game (feature-level grouping)
//
// Gauges track current state (rooms, seats), counters track cumulative
// events (requests, actions, finished games), histograms track latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveRooms tracks the current number of registered rooms.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "coup",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of registered game rooms",
	})

	// RoomSeats tracks the number of seats filled in each room.
	RoomSeats = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "coup",
		Subsystem: "room",
		Name:      "seats_filled",
		Help:      "Number of seats filled in each room",
	}, []string{"room_id"})

	// HTTPRequests counts handled HTTP requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coup",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled",
	}, []string{"route", "status"})

	// ActionsTotal counts game actions by name and outcome
	// (declared, rejected, resolved).
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coup",
		Subsystem: "game",
		Name:      "actions_total",
		Help:      "Total game actions processed",
	}, []string{"action", "outcome"})

	// GamesCompleted counts games that reached game over.
	GamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coup",
		Subsystem: "game",
		Name:      "completed_total",
		Help:      "Total games played to completion",
	})

	// MatchmakeDuration tracks time spent finding or creating a room.
	MatchmakeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "coup",
		Subsystem: "room",
		Name:      "matchmake_seconds",
		Help:      "Time spent matchmaking a player into a room",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})
)
