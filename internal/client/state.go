// Package client implements the state machine shared by the host and
// guest UIs. Reduce is a pure function over immutable State values:
// transports feed it the broadcasts they receive and render whatever
// comes back. Keeping it pure lets the same reducer run under the host
// (local loopback) and every guest with identical results.
package client

import (
	"github.com/google/uuid"

	"github.com/oskarw/quizparty/internal/engine"
	"github.com/oskarw/quizparty/internal/protocol"
)

// GamePhase is the coarse room lifecycle.
type GamePhase uint8

const (
	PhaseLobby GamePhase = iota
	PhaseCountdown
	PhasePlaying
	PhaseGameOver
)

var gamePhaseNames = map[GamePhase]string{
	PhaseLobby:     "lobby",
	PhaseCountdown: "countdown",
	PhasePlaying:   "playing",
	PhaseGameOver:  "game_over",
}

func (p GamePhase) String() string {
	if s, ok := gamePhaseNames[p]; ok {
		return s
	}
	return "phase(?)"
}

// TurnPhase tracks the local player's progress through one turn while
// the game phase is PhasePlaying.
type TurnPhase uint8

const (
	TurnIdle TurnPhase = iota
	TurnAnswering
	TurnAnswered
	TurnRolling
	TurnMoving
	TurnResolvingTile
	TurnAwaitingInteraction
	TurnShowingResult
)

var turnPhaseNames = map[TurnPhase]string{
	TurnIdle:                "idle",
	TurnAnswering:           "answering",
	TurnAnswered:            "answered",
	TurnRolling:             "rolling",
	TurnMoving:              "moving",
	TurnResolvingTile:       "resolving_tile",
	TurnAwaitingInteraction: "awaiting_interaction",
	TurnShowingResult:       "showing_result",
}

func (p TurnPhase) String() string {
	if s, ok := turnPhaseNames[p]; ok {
		return s
	}
	return "turn(?)"
}

// Notification is one user-facing message. At most one is active; the
// rest wait in FIFO order.
type Notification struct {
	ID   uuid.UUID
	Text string
}

// State is the complete client-side view of the room. Values are
// treated as immutable; Reduce returns a modified copy.
type State struct {
	GamePhase GamePhase
	TurnPhase TurnPhase

	RoomCode string
	SelfID   uuid.UUID
	HostGone bool

	Players []protocol.PlayerSnapshot

	// Pending targeted interaction owned by the local player, nil when
	// none. While set, queued notifications stay queued and the turn
	// cannot complete.
	Pending *protocol.InteractionPrompt
	// PendingKind identifies which resolution message clears Pending.
	PendingKind engine.InteractionKind

	Active *Notification
	Queue  []Notification
}

// NewState returns the lobby state for a freshly joined room.
func NewState(roomCode string, selfID uuid.UUID) State {
	return State{
		GamePhase: PhaseLobby,
		TurnPhase: TurnIdle,
		RoomCode:  roomCode,
		SelfID:    selfID,
	}
}

// TurnComplete reports whether the local player's turn has fully
// resolved. A pending interaction always blocks completion.
func (s State) TurnComplete() bool {
	return s.TurnPhase == TurnIdle && s.Pending == nil
}

// player looks up a roster snapshot by id.
func (s State) player(id uuid.UUID) (protocol.PlayerSnapshot, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return protocol.PlayerSnapshot{}, false
}

// Self returns the local player's snapshot, if present in the roster.
func (s State) Self() (protocol.PlayerSnapshot, bool) {
	return s.player(s.SelfID)
}
