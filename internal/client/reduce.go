package client

import (
	"github.com/google/uuid"

	"github.com/oskarw/quizparty/internal/engine"
	"github.com/oskarw/quizparty/internal/protocol"
)

// Event is one input to the reducer: either a host broadcast or a
// local presentation cue emitted by the scheduler/UI.
type Event interface{ isEvent() }

// Host broadcasts.

type EvRoster struct {
	Players []protocol.PlayerSnapshot
}

type EvGameStarted struct {
	CountdownSeconds int
	Players          []protocol.PlayerSnapshot
}

type EvAnswerResult struct {
	Result protocol.AnswerResult
}

type EvMoveResult struct {
	Result protocol.MoveResult
}

type EvInteractionResult struct {
	Kind   engine.InteractionKind
	Result protocol.InteractionResult
}

type EvSharedTile struct {
	Event protocol.SharedTileEvent
}

type EvGameReset struct {
	Players []protocol.PlayerSnapshot
}

type EvHostDisconnected struct{}

// Local cues.

type EvCountdownDone struct{}
type EvQuestionShown struct{}
type EvAnswerChosen struct{}
type EvMovementDone struct{}
type EvTileResolved struct{}
type EvResultShown struct{}
type EvNotificationDismissed struct{}

func (EvRoster) isEvent()                {}
func (EvGameStarted) isEvent()           {}
func (EvAnswerResult) isEvent()          {}
func (EvMoveResult) isEvent()            {}
func (EvInteractionResult) isEvent()     {}
func (EvSharedTile) isEvent()            {}
func (EvGameReset) isEvent()             {}
func (EvHostDisconnected) isEvent()      {}
func (EvCountdownDone) isEvent()         {}
func (EvQuestionShown) isEvent()         {}
func (EvAnswerChosen) isEvent()          {}
func (EvMovementDone) isEvent()          {}
func (EvTileResolved) isEvent()          {}
func (EvResultShown) isEvent()           {}
func (EvNotificationDismissed) isEvent() {}

// Reduce applies one event to the state and returns the next state.
// Unknown or out-of-phase events leave the state unchanged rather than
// erroring: broadcasts can legitimately arrive for other players' turns.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case EvRoster:
		s.Players = ev.Players

	case EvGameStarted:
		s.Players = ev.Players
		if s.GamePhase == PhaseLobby {
			if ev.CountdownSeconds > 0 {
				s.GamePhase = PhaseCountdown
			} else {
				s.GamePhase = PhasePlaying
			}
		}

	case EvCountdownDone:
		if s.GamePhase == PhaseCountdown {
			s.GamePhase = PhasePlaying
		}

	case EvQuestionShown:
		if s.GamePhase == PhasePlaying && s.TurnPhase == TurnIdle {
			s.TurnPhase = TurnAnswering
		}

	case EvAnswerChosen:
		if s.TurnPhase == TurnAnswering {
			s.TurnPhase = TurnAnswered
		}

	case EvAnswerResult:
		s.Players = ev.Result.Players

	case EvMoveResult:
		s.Players = ev.Result.Players
		if ev.Result.PlayerID == s.SelfID {
			if ev.Result.Moved {
				s.TurnPhase = TurnRolling
			} else {
				// Incorrect answer: no movement, the turn ends here.
				s.TurnPhase = TurnIdle
			}
			if ev.Result.Prompt != nil {
				s.Pending = ev.Result.Prompt
				if k, ok := engine.InteractionForEffect(ev.Result.TileEffect); ok {
					s.PendingKind = k
				}
			}
			if ev.Result.LapBonus > 0 {
				s = enqueue(s, "Lap complete! Bonus coins awarded.")
			}
		}
		if ev.Result.Event != nil && ev.Result.Event.Text != "" {
			s = enqueue(s, ev.Result.Event.Text)
		}
		if ev.Result.SharedTile != nil {
			s = enqueue(s, "Two players share a tile and swap fortunes!")
		}

	case EvMovementDone:
		if s.TurnPhase == TurnRolling || s.TurnPhase == TurnMoving {
			s.TurnPhase = TurnResolvingTile
		}

	case EvTileResolved:
		if s.TurnPhase == TurnResolvingTile {
			if s.Pending != nil {
				s.TurnPhase = TurnAwaitingInteraction
			} else {
				s.TurnPhase = TurnShowingResult
			}
		}

	case EvInteractionResult:
		s.Players = ev.Result.Players
		if ev.Result.ActorID == s.SelfID && s.Pending != nil && ev.Kind == s.PendingKind {
			s.Pending = nil
			s.PendingKind = 0
			if s.TurnPhase == TurnAwaitingInteraction {
				s.TurnPhase = TurnShowingResult
			}
		}
		if ev.Result.Text != "" {
			s = enqueue(s, ev.Result.Text)
		}
		// Clearing the pending interaction may unblock the queue.
		s = promote(s)

	case EvSharedTile:
		s.Players = ev.Event.Players
		s = enqueue(s, "Two players share a tile and swap fortunes!")

	case EvResultShown:
		if s.TurnPhase == TurnShowingResult {
			s.TurnPhase = TurnIdle
			if finishedSomeone(s.Players) {
				s.GamePhase = PhaseGameOver
			}
		}

	case EvNotificationDismissed:
		s.Active = nil
		s = promote(s)

	case EvGameReset:
		next := NewState(s.RoomCode, s.SelfID)
		next.Players = ev.Players
		return next

	case EvHostDisconnected:
		s.HostGone = true
		s.GamePhase = PhaseGameOver
	}

	return s
}

// enqueue appends a notification and immediately promotes it when
// nothing blocks.
func enqueue(s State, text string) State {
	n := Notification{ID: uuid.New(), Text: text}
	s.Queue = append(append([]Notification{}, s.Queue...), n)
	return promote(s)
}

// promote moves the head of the queue into the active slot. A queued
// notification is only promoted when no notification is active and no
// pending interaction is blocking.
func promote(s State) State {
	if s.Active != nil || s.Pending != nil || len(s.Queue) == 0 {
		return s
	}
	head := s.Queue[0]
	s.Active = &head
	s.Queue = append([]Notification{}, s.Queue[1:]...)
	return s
}

// finishedSomeone reports whether any player reached the lap target.
func finishedSomeone(players []protocol.PlayerSnapshot) bool {
	for _, p := range players {
		if p.Laps >= engine.DefaultLapTarget {
			return true
		}
	}
	return false
}
