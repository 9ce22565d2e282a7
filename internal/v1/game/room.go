// Package game implements the authoritative Coup room engine: the court
// deck, the four seats, the turn state machine with its challenge and block
// sub-protocols, and the per-seat view projection.
//
// A Room is mutated exclusively through its exported methods, each of which
// acquires the room mutex for the full request. Exported methods delegate to
// xxxLocked helpers which assume the caller holds the lock. Requests that are
// out of turn or out of phase are absorbed: the phase never changes, at most
// the narration message does, so confused or malicious clients cannot wedge
// a room.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coup-arena/backend/go/internal/v1/logging"
	"github.com/coup-arena/backend/go/internal/v1/metrics"
	"go.uber.org/zap"
)

// Phase enumerates the states of the room machine. The values are the
// literal identifiers used on the wire.
type Phase string

const (
	PhaseWaitingForPlayers      Phase = "WAITING_FOR_PLAYERS"
	PhaseAwaitingAction         Phase = "AWAITING_ACTION"
	PhaseMustCoup               Phase = "MUST_COUP"
	PhaseSelectingTarget        Phase = "SELECTING_TARGET"
	PhaseAwaitingResponse       Phase = "AWAITING_RESPONSE"
	PhaseAwaitingBlockChallenge Phase = "AWAITING_BLOCK_CHALLENGE"
	PhaseChoosingInfluence      Phase = "CHOOSING_INFLUENCE_TO_LOSE"
	PhaseAmbassadorExchange     Phase = "AMBASSADOR_EXCHANGE"
	PhaseGameOver               Phase = "GAME_OVER"
)

// MaxSeats is the fixed number of players per room.
const MaxSeats = 4

// startingCoins is each seat's bankroll at join.
const startingCoins = 2

// mustCoupAt forces the Coup action once a seat's coins reach it.
const mustCoupAt = 10

// Request is the decoded payload of a POST /action call. The variant is
// distinguished by which fields are present.
type Request struct {
	Action   string   `json:"action,omitempty"`
	TargetID *int     `json:"target_id,omitempty"`
	Response string   `json:"response,omitempty"`
	Card     string   `json:"card,omitempty"`
	Cards    []string `json:"cards,omitempty"`
}

// Responses a seat may give during the response phases.
const (
	ResponsePass      = "Pass"
	ResponseChallenge = "Challenge"
	ResponseBlock     = "Block"
)

// postLossStep is where the machine goes once the pending influence loss
// resolves.
type postLossStep int

const (
	postLossNextTurn postLossStep = iota
	postLossExecuteAction
)

// pendingState carries the transient fields of the active sub-protocol. It
// is reset wholesale at every turn boundary so nothing stale leaks into the
// next turn.
type pendingState struct {
	action       ActionName
	actor        int
	target       int
	responders   map[int]bool
	passed       map[int]bool
	blocker      int
	challenger   int
	losing       int
	postLoss     postLossStep
	exchangePool []Role
	exchangeKeep int
}

func newPendingState() pendingState {
	return pendingState{
		actor:      -1,
		target:     -1,
		blocker:    -1,
		challenger: -1,
		losing:     -1,
	}
}

// Room is one four-player game. It owns its deck and seats; the lobby hub
// owns the registry of rooms.
type Room struct {
	ID int

	mu           sync.Mutex
	seats        []*Seat
	deck         *Deck
	revealed     []Role
	phase        Phase
	current      int
	message      string
	pending      pendingState
	lastActivity time.Time
}

// NewRoom creates an empty room with a freshly shuffled court deck. Each
// room gets its own random number generator so shuffles in one room never
// contend with another's.
func NewRoom(id int, rng *rand.Rand) *Room {
	return &Room{
		ID:           id,
		deck:         NewDeck(rng),
		phase:        PhaseWaitingForPlayers,
		pending:      newPendingState(),
		message:      "Waiting for players...",
		lastActivity: time.Now(),
	}
}

// Join seats a new player, dealing them two cards. The game starts when the
// fourth seat fills. Returns the new seat id.
func (r *Room) Join(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseWaitingForPlayers || len(r.seats) >= MaxSeats {
		return 0, fmt.Errorf("room %d is not accepting players", r.ID)
	}

	seat := &Seat{
		ID:    len(r.seats),
		Name:  name,
		Coins: startingCoins,
		Hand:  []Role{r.drawLocked(), r.drawLocked()},
	}
	r.seats = append(r.seats, seat)
	r.touchLocked()

	metrics.RoomSeats.WithLabelValues(fmt.Sprint(r.ID)).Set(float64(len(r.seats)))

	if len(r.seats) == MaxSeats {
		// A waiting player may have quit before the room filled; the first
		// turn goes to the first living seat.
		for i, s := range r.seats {
			if !s.Out() {
				r.current = i
				break
			}
		}
		r.startTurnLocked()
	} else {
		r.message = fmt.Sprintf("Waiting for players (%d/%d)...", len(r.seats), MaxSeats)
	}
	return seat.ID, nil
}

// Joinable reports whether matchmaking may seat another player here.
func (r *Room) Joinable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase == PhaseWaitingForPlayers && len(r.seats) < MaxSeats
}

// GameOver reports whether the room has finished its game.
func (r *Room) GameOver() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase == PhaseGameOver
}

// LastActivity returns when the room last handled a join, action or quit
// request. View reads leave it unchanged.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// Apply routes a player's request into the state machine. Requests that do
// not fit the current phase are absorbed without a phase change.
func (r *Room) Apply(playerID int, req Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()

	if playerID < 0 || playerID >= len(r.seats) {
		return
	}

	switch r.phase {
	case PhaseAwaitingAction, PhaseMustCoup:
		if req.Action != "" {
			r.declareActionLocked(playerID, ActionName(req.Action), req.TargetID)
		}
	case PhaseSelectingTarget:
		if req.TargetID != nil {
			r.selectTargetLocked(playerID, *req.TargetID)
		}
	case PhaseAwaitingResponse:
		if req.Response != "" {
			r.respondLocked(playerID, req.Response)
		}
	case PhaseAwaitingBlockChallenge:
		if req.Response != "" {
			r.respondToBlockLocked(playerID, req.Response)
		}
	case PhaseChoosingInfluence:
		if req.Card != "" {
			r.loseInfluenceLocked(playerID, Role(req.Card))
		}
	case PhaseAmbassadorExchange:
		if ActionName(req.Action) == ActionConfirmExchange {
			r.confirmExchangeLocked(playerID, req.Cards)
		}
	}
}

// Quit eliminates a seat immediately: its cards go back to the deck, its
// coins are forfeited, and any sub-protocol waiting on it is resolved.
func (r *Room) Quit(playerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()

	if playerID < 0 || playerID >= len(r.seats) || r.phase == PhaseGameOver {
		return
	}
	seat := r.seats[playerID]
	if seat.Out() && r.phase != PhaseWaitingForPlayers {
		return
	}

	wasResponder := r.pending.responders[seat.ID]

	r.deck.ReturnAll(seat.Hand)
	seat.Hand = nil
	seat.Coins = 0
	r.message = fmt.Sprintf("%s left the game.", seat.Name)

	if r.phase == PhaseWaitingForPlayers {
		return
	}

	if r.phase == PhaseAwaitingResponse && wasResponder {
		delete(r.pending.responders, seat.ID)
		delete(r.pending.passed, seat.ID)
		if r.allRespondersDoneLocked() {
			r.executeActionLocked()
			return
		}
	}
	if r.current == seat.ID {
		r.nextTurnLocked()
		return
	}
	if r.pending.losing == seat.ID {
		r.resolvePostLossLocked()
		return
	}
	if r.pending.blocker == seat.ID {
		// Block withdrawn; the action goes through after all.
		r.executeActionLocked()
		return
	}
	if len(r.aliveLocked()) <= 1 {
		r.endGameLocked()
	}
}

// --- Turn flow ---

// startTurnLocked runs the turn prologue for the current seat.
func (r *Room) startTurnLocked() {
	actor := r.seats[r.current]
	if actor.Coins >= mustCoupAt {
		r.phase = PhaseMustCoup
		r.message = fmt.Sprintf("%s has 10+ coins. Must Coup.", actor.Name)
		return
	}
	r.phase = PhaseAwaitingAction
	r.message = fmt.Sprintf("%s's turn. Choose an action.", actor.Name)
}

func (r *Room) declareActionLocked(playerID int, name ActionName, targetID *int) {
	if playerID != r.current {
		return
	}
	spec, ok := actionTable[name]
	if !ok {
		return
	}
	actor := r.seats[playerID]

	if r.phase == PhaseMustCoup && name != ActionCoup {
		r.message = fmt.Sprintf("%s has 10+ coins. Must Coup.", actor.Name)
		metrics.ActionsTotal.WithLabelValues(string(name), "rejected").Inc()
		return
	}
	if actor.Coins < spec.cost {
		r.message = "Not enough coins!"
		metrics.ActionsTotal.WithLabelValues(string(name), "rejected").Inc()
		return
	}

	// The cost is paid at declaration and is never refunded, even if the
	// action is later blocked or the actor is challenged and caught.
	actor.Coins -= spec.cost

	r.pending.action = name
	r.pending.actor = playerID
	r.pending.target = -1
	metrics.ActionsTotal.WithLabelValues(string(name), "declared").Inc()

	if spec.hasTarget {
		if targetID != nil && r.validTargetLocked(playerID, *targetID) {
			r.pending.target = *targetID
			r.beginResponsePhaseLocked()
			return
		}
		r.phase = PhaseSelectingTarget
		r.message = fmt.Sprintf("Select a target for %s", name)
		return
	}
	r.beginResponsePhaseLocked()
}

func (r *Room) selectTargetLocked(playerID, targetID int) {
	if playerID != r.pending.actor {
		return
	}
	if !r.validTargetLocked(playerID, targetID) {
		r.message = "Invalid target."
		return
	}
	r.pending.target = targetID
	r.beginResponsePhaseLocked()
}

func (r *Room) validTargetLocked(actorID, targetID int) bool {
	if targetID < 0 || targetID >= len(r.seats) || targetID == actorID {
		return false
	}
	return !r.seats[targetID].Out()
}

// beginResponsePhaseLocked computes the responder set for the pending action
// and either opens the response window or resolves immediately. Actions that
// can be neither challenged nor blocked (Income, Coup) have nothing to wait
// for. Targeted actions ask only their target; broadcast actions ask every
// other living seat.
func (r *Room) beginResponsePhaseLocked() {
	spec := actionTable[r.pending.action]
	actor := r.seats[r.pending.actor]

	if r.pending.target >= 0 {
		r.message = fmt.Sprintf("%s uses %s on %s.", actor.Name, r.pending.action, r.seats[r.pending.target].Name)
	} else {
		r.message = fmt.Sprintf("%s uses %s.", actor.Name, r.pending.action)
	}

	if !spec.challengeable() && !spec.blockable() {
		r.executeActionLocked()
		return
	}

	responders := make(map[int]bool)
	if spec.hasTarget {
		responders[r.pending.target] = true
	} else {
		for _, s := range r.seats {
			if s.ID != r.pending.actor && !s.Out() {
				responders[s.ID] = true
			}
		}
	}
	if len(responders) == 0 {
		r.executeActionLocked()
		return
	}

	r.pending.responders = responders
	r.pending.passed = make(map[int]bool)
	r.phase = PhaseAwaitingResponse
	r.message = fmt.Sprintf("Action: %s. Any response?", r.pending.action)
}

// respondLocked adjudicates one seat's Pass/Challenge/Block during the
// response window. The first non-Pass response wins and preempts the rest.
func (r *Room) respondLocked(playerID int, response string) {
	if !r.pending.responders[playerID] || r.pending.passed[playerID] {
		return
	}
	spec := actionTable[r.pending.action]

	switch response {
	case ResponsePass:
		r.pending.passed[playerID] = true
		if r.allRespondersDoneLocked() {
			r.executeActionLocked()
		}
	case ResponseChallenge:
		if !spec.challengeable() {
			return
		}
		r.pending.challenger = playerID
		r.pending.responders = nil
		r.resolveActionChallengeLocked()
	case ResponseBlock:
		if !spec.blockable() {
			return
		}
		r.pending.blocker = playerID
		r.pending.responders = nil
		r.phase = PhaseAwaitingBlockChallenge
		r.message = fmt.Sprintf("%s blocks. %s, challenge the block?",
			r.seats[playerID].Name, r.seats[r.pending.actor].Name)
	}
}

// allRespondersDoneLocked reports whether every responder still alive has
// passed.
func (r *Room) allRespondersDoneLocked() bool {
	for id := range r.pending.responders {
		if r.seats[id].Out() {
			continue
		}
		if !r.pending.passed[id] {
			return false
		}
	}
	return true
}

// resolveActionChallengeLocked settles a challenge against the declared
// action. If the actor can show the claimed character, the card cycles
// through the deck and the challenger pays an influence before the action
// resolves; otherwise the actor pays and the action is nullified.
func (r *Room) resolveActionChallengeLocked() {
	actor := r.seats[r.pending.actor]
	claimed := actionTable[r.pending.action].character

	if actor.holds(claimed) {
		actor.removeCard(claimed)
		r.deck.Return(claimed)
		actor.Hand = append(actor.Hand, r.drawLocked())

		r.message = fmt.Sprintf("%s reveals %s! Challenge failed.", actor.Name, claimed)
		r.pending.losing = r.pending.challenger
		r.pending.postLoss = postLossExecuteAction
		r.enterInfluenceLossLocked()
		return
	}

	r.message = fmt.Sprintf("%s was bluffing! They lose an influence.", actor.Name)
	r.pending.losing = r.pending.actor
	r.pending.postLoss = postLossNextTurn
	r.enterInfluenceLossLocked()
}

// respondToBlockLocked handles the actor's move against a declared block:
// pass sustains the block and ends the turn, challenge puts the blocker to
// proof.
func (r *Room) respondToBlockLocked(playerID int, response string) {
	if playerID != r.pending.actor {
		return
	}
	switch response {
	case ResponsePass:
		r.message = fmt.Sprintf("%s blocks the action. Turn over.", r.seats[r.pending.blocker].Name)
		r.nextTurnLocked()
	case ResponseChallenge:
		r.pending.challenger = playerID
		r.resolveBlockChallengeLocked()
	}
}

func (r *Room) resolveBlockChallengeLocked() {
	blocker := r.seats[r.pending.blocker]
	var proof Role
	for _, c := range actionTable[r.pending.action].blockableBy {
		if blocker.holds(c) {
			proof = c
			break
		}
	}

	if proof != "" {
		blocker.removeCard(proof)
		r.deck.Return(proof)
		blocker.Hand = append(blocker.Hand, r.drawLocked())

		r.message = fmt.Sprintf("%s reveals %s! %s loses influence.",
			blocker.Name, proof, r.seats[r.pending.challenger].Name)
		r.pending.losing = r.pending.challenger
		r.pending.postLoss = postLossNextTurn
		r.enterInfluenceLossLocked()
		return
	}

	r.message = fmt.Sprintf("%s was bluffing the block! They lose influence.", blocker.Name)
	r.pending.losing = r.pending.blocker
	r.pending.postLoss = postLossExecuteAction
	r.enterInfluenceLossLocked()
}

// enterInfluenceLossLocked moves the machine into the influence-loss phase,
// or straight through it when the losing seat has no cards left to give.
func (r *Room) enterInfluenceLossLocked() {
	if r.seats[r.pending.losing].Out() {
		r.resolvePostLossLocked()
		return
	}
	r.phase = PhaseChoosingInfluence
}

// loseInfluenceLocked discards the chosen card to the revealed pile. A card
// name the seat does not hold falls back to the first held card, so a stale
// client view cannot stall the room.
func (r *Room) loseInfluenceLocked(playerID int, card Role) {
	if playerID != r.pending.losing {
		return
	}
	seat := r.seats[playerID]
	if len(seat.Hand) == 0 {
		r.resolvePostLossLocked()
		return
	}

	lost := card
	if !seat.removeCard(card) {
		lost = seat.Hand[0]
		seat.Hand = seat.Hand[1:]
	}
	r.revealed = append(r.revealed, lost)
	r.message = fmt.Sprintf("%s lost a %s.", seat.Name, lost)
	if seat.Out() {
		r.message = fmt.Sprintf("%s lost a %s and is eliminated!", seat.Name, lost)
	}

	r.resolvePostLossLocked()
}

func (r *Room) resolvePostLossLocked() {
	step := r.pending.postLoss
	r.pending.losing = -1
	if step == postLossExecuteAction {
		r.executeActionLocked()
		return
	}
	r.nextTurnLocked()
}

// executeActionLocked applies the pending action's effect.
func (r *Room) executeActionLocked() {
	actor := r.seats[r.pending.actor]
	metrics.ActionsTotal.WithLabelValues(string(r.pending.action), "resolved").Inc()

	switch r.pending.action {
	case ActionIncome:
		actor.Coins++
	case ActionForeignAid:
		actor.Coins += 2
	case ActionTax:
		actor.Coins += 3
	case ActionSteal:
		target := r.seats[r.pending.target]
		stolen := target.Coins
		if stolen > 2 {
			stolen = 2
		}
		target.Coins -= stolen
		actor.Coins += stolen
		r.message = fmt.Sprintf("%s stole %d coins from %s.", actor.Name, stolen, target.Name)
	case ActionExchange:
		r.beginExchangeLocked()
		return
	}

	if r.pending.action == ActionCoup || r.pending.action == ActionAssassinate {
		target := r.seats[r.pending.target]
		if target.Out() {
			// The target was eliminated while the sub-protocol played out.
			r.nextTurnLocked()
			return
		}
		r.pending.losing = target.ID
		r.pending.postLoss = postLossNextTurn
		r.phase = PhaseChoosingInfluence
		r.message = fmt.Sprintf("%s must lose an influence.", target.Name)
		return
	}

	r.nextTurnLocked()
}

// --- Ambassador exchange ---

// beginExchangeLocked opens the ambassador sub-protocol: the actor's hand
// plus two drawn cards form the pool they choose their new hand from.
func (r *Room) beginExchangeLocked() {
	actor := r.seats[r.pending.actor]
	keep := len(actor.Hand)

	pool := make([]Role, 0, keep+2)
	pool = append(pool, actor.Hand...)
	pool = append(pool, r.drawLocked(), r.drawLocked())
	actor.Hand = nil

	r.pending.exchangePool = pool
	r.pending.exchangeKeep = keep
	r.phase = PhaseAmbassadorExchange
	r.message = fmt.Sprintf("%s, choose %d card(s) to keep.", actor.Name, keep)
}

// confirmExchangeLocked validates the actor's selection as a bounded
// sub-multiset of the pool, installs it as the new hand, and returns the
// remainder to the deck.
func (r *Room) confirmExchangeLocked(playerID int, cards []string) {
	if playerID != r.pending.actor {
		return
	}
	actor := r.seats[playerID]

	if len(cards) != r.pending.exchangeKeep {
		r.message = fmt.Sprintf("Select exactly %d card(s).", r.pending.exchangeKeep)
		return
	}

	poolCount := make(map[Role]int)
	for _, c := range r.pending.exchangePool {
		poolCount[c]++
	}
	kept := make([]Role, 0, len(cards))
	for _, c := range cards {
		role := Role(c)
		if poolCount[role] == 0 {
			r.message = "Invalid selection."
			return
		}
		poolCount[role]--
		kept = append(kept, role)
	}

	actor.Hand = kept
	remainder := make([]Role, 0, len(r.pending.exchangePool)-len(kept))
	for role, n := range poolCount {
		for i := 0; i < n; i++ {
			remainder = append(remainder, role)
		}
	}
	r.deck.ReturnAll(remainder)
	r.pending.exchangePool = nil
	r.pending.exchangeKeep = 0

	r.nextTurnLocked()
}

// --- Turn advancement ---

func (r *Room) aliveLocked() []*Seat {
	var alive []*Seat
	for _, s := range r.seats {
		if !s.Out() {
			alive = append(alive, s)
		}
	}
	return alive
}

// nextTurnLocked clears the sub-protocol state and hands the turn to the
// next living seat, or ends the game when at most one remains.
func (r *Room) nextTurnLocked() {
	r.pending = newPendingState()

	if len(r.aliveLocked()) <= 1 {
		r.endGameLocked()
		return
	}

	for i := 1; i <= len(r.seats); i++ {
		idx := (r.current + i) % len(r.seats)
		if !r.seats[idx].Out() {
			r.current = idx
			break
		}
	}
	r.startTurnLocked()
}

func (r *Room) endGameLocked() {
	if r.phase == PhaseGameOver {
		return
	}
	r.phase = PhaseGameOver
	r.pending = newPendingState()

	alive := r.aliveLocked()
	if len(alive) == 1 {
		r.message = fmt.Sprintf("%s wins!", alive[0].Name)
	} else {
		r.message = "Game over. No winner."
	}
	metrics.GamesCompleted.Inc()
}

// --- Helpers ---

func (r *Room) touchLocked() {
	r.lastActivity = time.Now()
}

// drawLocked draws from the deck. An empty deck means the 15-card invariant
// has been broken, which is a bug, not a reachable game state.
func (r *Room) drawLocked() Role {
	card, ok := r.deck.Draw()
	if !ok {
		logging.Error(context.Background(), "court deck exhausted",
			zap.Int("room_id", r.ID), zap.String("phase", string(r.phase)))
		return ""
	}
	return card
}
