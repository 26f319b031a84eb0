package protocol

import (
	"github.com/google/uuid"

	"github.com/oskarw/quizparty/internal/catalog"
	"github.com/oskarw/quizparty/internal/engine"
)

// PlayerSnapshot is the wire view of one player. Every host broadcast
// embeds the full roster so a late or reconnecting peer can
// resynchronize from any single message.
type PlayerSnapshot struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Coins          int       `json:"coins"`
	QuestionIndex  int       `json:"questionIndex"`
	TileID         int       `json:"tileId"`
	Laps           int       `json:"laps"`
	Answered       bool      `json:"answered"`
	SelectedAnswer int       `json:"selectedAnswer"`
}

// Roster converts engine player copies into wire snapshots, keeping
// join order.
func Roster(players []engine.Player) []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerSnapshot{
			ID:             p.ID,
			Name:           p.Name,
			Coins:          p.Coins,
			QuestionIndex:  p.QuestionIndex,
			TileID:         p.TileID,
			Laps:           p.Laps,
			Answered:       p.Answered,
			SelectedAnswer: p.SelectedAnswer,
		})
	}
	return out
}

// Guest → host payloads.

type JoinRequest struct {
	Name string `json:"name"`
	// RejoinToken re-attaches a returning guest to its existing player.
	RejoinToken string `json:"rejoinToken,omitempty"`
}

type SubmitAnswer struct {
	PlayerID      uuid.UUID `json:"playerId"`
	QuestionIndex int       `json:"questionIndex"`
	AnswerIndex   int       `json:"answerIndex"`
}

// NextQuestion asks the host to resolve the movement phase of the
// sender's turn. RequestID correlates the eventual MOVE_RESULT echo.
type NextQuestion struct {
	PlayerID   uuid.UUID `json:"playerId"`
	RequestID  uuid.UUID `json:"requestId"`
	WasCorrect bool      `json:"wasCorrect"`
}

// InteractionTarget resolves a steal, report or swap prompt.
type InteractionTarget struct {
	PlayerID uuid.UUID `json:"playerId"`
	TargetID uuid.UUID `json:"targetId"`
}

// GambleChoice resolves a gamble prompt: invest or walk away.
type GambleChoice struct {
	PlayerID uuid.UUID `json:"playerId"`
	Accept   bool      `json:"accept"`
}

type LeaveGame struct {
	PlayerID uuid.UUID `json:"playerId"`
}

// Host → guest payloads.

type JoinAccepted struct {
	PlayerID    uuid.UUID        `json:"playerId"`
	RoomCode    string           `json:"roomCode"`
	RejoinToken string           `json:"rejoinToken,omitempty"`
	Started     bool             `json:"started"`
	Players     []PlayerSnapshot `json:"players"`
}

type JoinRejected struct {
	Reason string `json:"reason"`
}

type PlayerJoined struct {
	Player  PlayerSnapshot   `json:"player"`
	Players []PlayerSnapshot `json:"players"`
}

type PlayerLeft struct {
	PlayerID uuid.UUID        `json:"playerId"`
	Players  []PlayerSnapshot `json:"players"`
}

type GameStarted struct {
	CountdownSeconds int              `json:"countdownSeconds"`
	Players          []PlayerSnapshot `json:"players"`
}

type StateUpdate struct {
	Players []PlayerSnapshot `json:"players"`
}

type AnswerResult struct {
	PlayerID uuid.UUID        `json:"playerId"`
	Correct  bool             `json:"correct"`
	Delta    int              `json:"delta"`
	NewCoins int              `json:"newCoins"`
	Players  []PlayerSnapshot `json:"players"`
}

// PlayerDelta is one player's coin change inside a tile event.
type PlayerDelta struct {
	PlayerID uuid.UUID `json:"playerId"`
	Delta    int       `json:"delta"`
	NewCoins int       `json:"newCoins"`
}

// TileEvent describes a broadcast or displacement tile outcome.
type TileEvent struct {
	Effect catalog.EffectKind `json:"effect"`
	Text   string             `json:"text"`
	Deltas []PlayerDelta      `json:"deltas,omitempty"`

	MovedPlayerID uuid.UUID `json:"movedPlayerId,omitempty"`
	MovedFromTile int       `json:"movedFromTile,omitempty"`
	MovedToTile   int       `json:"movedToTile,omitempty"`
}

// InteractionPrompt asks the acting player to pick a target.
type InteractionPrompt struct {
	ActorID uuid.UUID   `json:"actorId"`
	TileID  int         `json:"tileId"`
	Targets []uuid.UUID `json:"targets"`
	Text    string      `json:"text"`
}

// InteractionPromptEvent is the standalone {KIND}_PROMPT broadcast.
// Like every other host broadcast it embeds the full roster.
type InteractionPromptEvent struct {
	Prompt  InteractionPrompt `json:"prompt"`
	Players []PlayerSnapshot  `json:"players"`
}

// SharedTile reports a full-balance swap between two co-located
// players.
type SharedTile struct {
	TileID int       `json:"tileId"`
	AID    uuid.UUID `json:"playerAId"`
	BID    uuid.UUID `json:"playerBId"`
	AOld   int       `json:"playerAOldCoins"`
	ANew   int       `json:"playerANewCoins"`
	BOld   int       `json:"playerBOldCoins"`
	BNew   int       `json:"playerBNewCoins"`
}

// MoveResult is the broadcast outcome of one turn advance. RequestID
// echoes the triggering NEXT_QUESTION so the acting guest can release
// its bounded await.
type MoveResult struct {
	RequestID uuid.UUID `json:"requestId,omitempty"`
	PlayerID  uuid.UUID `json:"playerId"`
	Moved     bool      `json:"moved"`
	Roll      int       `json:"roll,omitempty"`
	FromTile  int       `json:"fromTile"`
	ToTile    int       `json:"toTile"`

	TileText   string             `json:"tileText,omitempty"`
	TileEffect catalog.EffectKind `json:"tileEffect"`

	LapBonus   int `json:"lapBonus,omitempty"`
	CoinsDelta int `json:"coinsDelta"`
	NewCoins   int `json:"newCoins"`

	Event      *TileEvent         `json:"event,omitempty"`
	Prompt     *InteractionPrompt `json:"prompt,omitempty"`
	SharedTile *SharedTile        `json:"sharedTile,omitempty"`

	FinishedRace bool `json:"finishedRace,omitempty"`

	Players []PlayerSnapshot `json:"players"`
}

// InteractionResult is the broadcast outcome of a resolved targeted
// effect.
type InteractionResult struct {
	ActorID  uuid.UUID `json:"actorId"`
	TargetID uuid.UUID `json:"targetId,omitempty"`
	Transfer int       `json:"transfer"`

	Accepted bool `json:"accepted,omitempty"`
	Won      bool `json:"won,omitempty"`

	ActorCoins  int    `json:"actorCoins"`
	TargetCoins int    `json:"targetCoins,omitempty"`
	Text        string `json:"text"`

	SharedTile *SharedTile `json:"sharedTile,omitempty"`

	Players []PlayerSnapshot `json:"players"`
}

type SharedTileEvent struct {
	SharedTile SharedTile       `json:"sharedTile"`
	Players    []PlayerSnapshot `json:"players"`
}

type GameReset struct {
	Players []PlayerSnapshot `json:"players"`
}

type HostDisconnected struct {
	Reason string `json:"reason,omitempty"`
}

// Converters from engine results to wire payloads.

func tileEventWire(ev *engine.TileEvent) *TileEvent {
	if ev == nil {
		return nil
	}
	out := &TileEvent{
		Effect:        ev.Effect,
		Text:          ev.Text,
		MovedPlayerID: ev.MovedPlayerID,
		MovedFromTile: ev.MovedFromTile,
		MovedToTile:   ev.MovedToTile,
	}
	for _, d := range ev.Deltas {
		out.Deltas = append(out.Deltas, PlayerDelta{PlayerID: d.PlayerID, Delta: d.Delta, NewCoins: d.NewCoins})
	}
	return out
}

func promptWire(p *engine.InteractionPrompt) *InteractionPrompt {
	if p == nil {
		return nil
	}
	return &InteractionPrompt{
		ActorID: p.ActorID,
		TileID:  p.TileID,
		Targets: p.Targets,
		Text:    p.Text,
	}
}

func sharedTileWire(s *engine.SharedTileEvent) *SharedTile {
	if s == nil {
		return nil
	}
	return &SharedTile{
		TileID: s.TileID,
		AID:    s.AID,
		BID:    s.BID,
		AOld:   s.AOld,
		ANew:   s.ANew,
		BOld:   s.BOld,
		BNew:   s.BNew,
	}
}

// MoveResultPayload builds the MOVE_RESULT broadcast from an engine
// result and the current roster.
func MoveResultPayload(requestID uuid.UUID, res engine.MoveResult, roster []engine.Player) MoveResult {
	return MoveResult{
		RequestID:    requestID,
		PlayerID:     res.PlayerID,
		Moved:        res.Moved,
		Roll:         res.Roll,
		FromTile:     res.FromTile,
		ToTile:       res.ToTile,
		TileText:     res.TileText,
		TileEffect:   res.TileEffect,
		LapBonus:     res.LapBonus,
		CoinsDelta:   res.CoinsDelta,
		NewCoins:     res.NewCoins,
		Event:        tileEventWire(res.Event),
		Prompt:       promptWire(res.Prompt),
		SharedTile:   sharedTileWire(res.SharedTile),
		FinishedRace: res.FinishedRace,
		Players:      Roster(roster),
	}
}

// AnswerResultPayload builds the ANSWER_RESULT broadcast.
func AnswerResultPayload(res engine.AnswerResult, roster []engine.Player) AnswerResult {
	return AnswerResult{
		PlayerID: res.PlayerID,
		Correct:  res.Correct,
		Delta:    res.Delta,
		NewCoins: res.NewCoins,
		Players:  Roster(roster),
	}
}

// InteractionResultPayload builds the {KIND}_RESULT broadcast.
func InteractionResultPayload(res *engine.InteractionResult, roster []engine.Player) InteractionResult {
	return InteractionResult{
		ActorID:     res.ActorID,
		TargetID:    res.TargetID,
		Transfer:    res.Transfer,
		Accepted:    res.Accepted,
		Won:         res.Won,
		ActorCoins:  res.ActorCoins,
		TargetCoins: res.TargetCoins,
		Text:        res.Text,
		SharedTile:  sharedTileWire(res.SharedTile),
		Players:     Roster(roster),
	}
}
