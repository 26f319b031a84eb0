package engine

import (
	"github.com/google/uuid"

	"github.com/oskarw/quizparty/internal/catalog"
)

// Gameplay constants. Coin amounts are nominal; flat tile payouts are
// scaled by the table's average wealth (see scaledAmount).
const (
	DieFaces        = 6   // uniform die
	LapBonus        = 100 // coins for completing one circuit
	AnswerReward    = 20  // symmetric reward/penalty for quiz answers
	ScalingBaseline = 100 // average-coins reference for tile scaling

	SharedTilePercent = 30 // chance of a balance swap when landing on an occupied tile
	StealPercent      = 25 // share of the victim's balance a steal takes
	ReportCap         = 80 // maximum fine a report inflicts
	GambleWinPercent  = 50 // chance an accepted gamble doubles the balance
	WarpOffset        = 4  // tiles a warp victim is pushed backwards

	DefaultLapTarget = 3 // laps needed to finish the race
)

// Player is the authoritative record for one participant. The engine
// is its exclusive owner; everything leaving the engine is a copy.
type Player struct {
	ID            uuid.UUID
	Name          string
	Coins         int // signed; debts are allowed
	QuestionIndex int
	TileID        int
	Laps          int

	// Transient per-turn answer state, cleared when the turn resolves.
	Answered       bool
	SelectedAnswer int // -1 when no answer is selected
}

// InteractionKind identifies a targeted effect awaiting a choice.
type InteractionKind uint8

const (
	InteractionSteal InteractionKind = iota + 1
	InteractionReport
	InteractionSwap
	InteractionGamble
)

var interactionNames = map[InteractionKind]string{
	InteractionSteal:  "steal",
	InteractionReport: "report",
	InteractionSwap:   "swap",
	InteractionGamble: "gamble",
}

func (k InteractionKind) String() string {
	if s, ok := interactionNames[k]; ok {
		return s
	}
	return "interaction(?)"
}

// InteractionForEffect maps a targeted tile effect to its interaction
// kind.
func InteractionForEffect(e catalog.EffectKind) (InteractionKind, bool) {
	switch e {
	case catalog.EffectSteal:
		return InteractionSteal, true
	case catalog.EffectReport:
		return InteractionReport, true
	case catalog.EffectSwap:
		return InteractionSwap, true
	case catalog.EffectGamble:
		return InteractionGamble, true
	}
	return 0, false
}

// PendingInteraction is an unresolved targeted effect blocking turn
// completion for one player. At most one exists per player.
type PendingInteraction struct {
	Kind    InteractionKind
	ActorID uuid.UUID
	TileID  int
}

// PlayerDelta records one player's coin change within a tile event.
type PlayerDelta struct {
	PlayerID uuid.UUID
	Delta    int
	NewCoins int
}

// TileEvent is the global description of a broadcast or displacement
// effect, listing every affected player's delta.
type TileEvent struct {
	Effect catalog.EffectKind
	Text   string
	Deltas []PlayerDelta

	// Displacement details, set only for warp events.
	MovedPlayerID uuid.UUID
	MovedFromTile int
	MovedToTile   int
}

// InteractionPrompt asks the acting player to choose a target for a
// pending interaction.
type InteractionPrompt struct {
	Kind    InteractionKind
	ActorID uuid.UUID
	TileID  int
	Targets []uuid.UUID // eligible victims, never empty
	Text    string
}

// SharedTileEvent reports the probabilistic full-balance swap that can
// fire when two players share a tile.
type SharedTileEvent struct {
	TileID   int
	AID, BID uuid.UUID
	AOld     int
	ANew     int
	BOld     int
	BNew     int
}

// MoveResult is the complete outcome of one turn advance. It is
// immutable once returned: the transport broadcasts it and the client
// state machine consumes it exactly once.
type MoveResult struct {
	PlayerID uuid.UUID
	Moved    bool // false for an incorrect answer (question advances only)
	Roll     int
	FromTile int
	ToTile   int

	TileText   string
	TileEffect catalog.EffectKind

	LapBonus   int // coins awarded for wrapping past the start tile, 0 if none
	CoinsDelta int // actor's net coin change from the landed tile
	NewCoins   int // actor's balance after the turn

	Event      *TileEvent         // broadcast/displacement outcome, nil if none
	Prompt     *InteractionPrompt // blocking targeted-effect prompt, nil if none
	SharedTile *SharedTileEvent   // probabilistic balance swap, nil if none

	FinishedRace bool // actor crossed the lap target this turn
}

// AnswerResult is the outcome of a quiz answer submission.
type AnswerResult struct {
	PlayerID uuid.UUID
	Correct  bool
	Delta    int
	NewCoins int
}

// InteractionResult is the outcome of resolving a pending interaction.
type InteractionResult struct {
	Kind     InteractionKind
	ActorID  uuid.UUID
	TargetID uuid.UUID
	Transfer int // coins moved from target to actor (0 for gamble)

	// Gamble details.
	Accepted bool
	Won      bool

	ActorCoins  int
	TargetCoins int
	Text        string

	SharedTile *SharedTileEvent // re-run shared-tile check, nil if it did not fire
}
