package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startExchange(t *testing.T, r *Room) {
	t.Helper()
	r.Apply(0, Request{Action: "Exchange"})
	require.Equal(t, PhaseAwaitingResponse, r.phase)
	r.Apply(1, Request{Response: "Pass"})
	r.Apply(2, Request{Response: "Pass"})
	r.Apply(3, Request{Response: "Pass"})
	require.Equal(t, PhaseAmbassadorExchange, r.phase)
}

func TestExchange_PoolAndKeepCount(t *testing.T) {
	r := fullRoom(t)
	startExchange(t, r)

	assert.Len(t, r.pending.exchangePool, 4)
	assert.Equal(t, 2, r.pending.exchangeKeep)
	assert.Empty(t, r.seats[0].Hand)
	assert.Equal(t, 15, totalCards(r))
}

func TestExchange_ValidSelection(t *testing.T) {
	r := fullRoom(t)
	startExchange(t, r)

	keep := []string{string(r.pending.exchangePool[1]), string(r.pending.exchangePool[3])}
	r.Apply(0, Request{Action: "ConfirmExchange", Cards: keep})

	assert.Len(t, r.seats[0].Hand, 2)
	assert.Equal(t, keep[0], string(r.seats[0].Hand[0]))
	assert.Equal(t, keep[1], string(r.seats[0].Hand[1]))
	assert.Equal(t, 7, r.deck.Size(), "the two unkept cards go back to the deck")
	assert.Equal(t, 15, totalCards(r))
	assert.Equal(t, 1, r.current)
}

func TestExchange_HandSizePreservedWithOneCard(t *testing.T) {
	r := fullRoom(t)
	rigHands(t, r,
		[]Role{RoleAmbassador},
		[]Role{RoleDuke, RoleAssassin},
		[]Role{RoleCaptain, RoleCaptain},
		[]Role{RoleContessa, RoleDuke},
	)
	startExchange(t, r)

	assert.Len(t, r.pending.exchangePool, 3)
	assert.Equal(t, 1, r.pending.exchangeKeep)

	r.Apply(0, Request{Action: "ConfirmExchange", Cards: []string{string(r.pending.exchangePool[0])}})

	assert.Len(t, r.seats[0].Hand, 1)
	assert.Equal(t, 15, totalCards(r))
}

func TestExchange_WrongCountRejected(t *testing.T) {
	r := fullRoom(t)
	startExchange(t, r)

	r.Apply(0, Request{Action: "ConfirmExchange", Cards: []string{string(r.pending.exchangePool[0])}})

	assert.Equal(t, PhaseAmbassadorExchange, r.phase)
	assert.Empty(t, r.seats[0].Hand)
}

func TestExchange_SelectionOutsidePoolRejected(t *testing.T) {
	r := fullRoom(t)
	rigHands(t, r,
		[]Role{RoleAmbassador, RoleAmbassador},
		[]Role{RoleDuke, RoleAssassin},
		[]Role{RoleCaptain, RoleCaptain},
		[]Role{RoleContessa, RoleDuke},
	)
	startExchange(t, r)

	// Four pool cards cannot cover all five roles: ask for two copies of a
	// role the pool does not hold.
	counts := countRoles(r.pending.exchangePool)
	var missing Role
	for _, role := range Roles {
		if counts[role] == 0 {
			missing = role
			break
		}
	}
	require.NotEmpty(t, missing)

	r.Apply(0, Request{Action: "ConfirmExchange", Cards: []string{string(missing), string(missing)}})

	assert.Equal(t, PhaseAmbassadorExchange, r.phase, "bounded multiset validation must reject")
	assert.Empty(t, r.seats[0].Hand)
}

func TestExchange_NonActorAbsorbed(t *testing.T) {
	r := fullRoom(t)
	startExchange(t, r)

	r.Apply(2, Request{Action: "ConfirmExchange", Cards: []string{"Duke", "Duke"}})
	assert.Equal(t, PhaseAmbassadorExchange, r.phase)
}

func TestExchange_ChallengedWithoutAmbassador(t *testing.T) {
	r := fullRoom(t)
	rigHands(t, r,
		[]Role{RoleDuke, RoleContessa}, // no Ambassador
		[]Role{RoleDuke, RoleAssassin},
		[]Role{RoleCaptain, RoleCaptain},
		[]Role{RoleContessa, RoleDuke},
	)

	r.Apply(0, Request{Action: "Exchange"})
	r.Apply(3, Request{Response: "Challenge"})

	require.Equal(t, PhaseChoosingInfluence, r.phase)
	assert.Equal(t, 0, r.pending.losing)

	r.Apply(0, Request{Card: "Duke"})

	assert.Equal(t, PhaseAwaitingAction, r.phase, "the exchange must be nullified")
	assert.Equal(t, 1, r.current)
	assert.Len(t, r.seats[0].Hand, 1)
	assert.Equal(t, 15, totalCards(r))
}

func TestExchange_ChallengedWithAmbassador(t *testing.T) {
	r := fullRoom(t)
	rigHands(t, r,
		[]Role{RoleAmbassador, RoleContessa},
		[]Role{RoleDuke, RoleAssassin},
		[]Role{RoleCaptain, RoleCaptain},
		[]Role{RoleContessa, RoleDuke},
	)

	r.Apply(0, Request{Action: "Exchange"})
	r.Apply(1, Request{Response: "Challenge"})

	require.Equal(t, PhaseChoosingInfluence, r.phase)
	assert.Equal(t, 1, r.pending.losing)
	assert.Len(t, r.seats[0].Hand, 2, "revealed ambassador is replaced from the deck")

	r.Apply(1, Request{Card: "Duke"})

	// The failed challenge resolves into the exchange itself.
	require.Equal(t, PhaseAmbassadorExchange, r.phase)
	assert.Equal(t, 2, r.pending.exchangeKeep)
	assert.Len(t, r.pending.exchangePool, 4)

	keep := []string{string(r.pending.exchangePool[0]), string(r.pending.exchangePool[1])}
	r.Apply(0, Request{Action: "ConfirmExchange", Cards: keep})

	assert.Len(t, r.seats[0].Hand, 2)
	assert.Equal(t, 1, r.current)
	assert.Equal(t, 15, totalCards(r))
}
