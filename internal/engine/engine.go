// Package engine implements the authoritative quiz-board game rules.
//
// The engine is a pure state owner: no network, timers or logging.
// Every public call completes atomically before returning — it either
// fully applies or fully no-ops, so callers never observe partially
// applied state. All mutation is expected to arrive on one goroutine
// (the host's serialized inbound queue).
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/oskarw/quizparty/internal/catalog"
)

// Sentinel errors for invalid input. "No eligible target" is a valid
// outcome, not an error, and never surfaces through these.
var (
	ErrInvalidPlayer   = errors.New("engine: unknown player")
	ErrInvalidTarget   = errors.New("engine: unknown target")
	ErrInvalidQuestion = errors.New("engine: question index does not match player state")
)

// Engine holds the single authoritative copy of all player state.
type Engine struct {
	tiles     []catalog.Tile
	questions []catalog.Question

	players map[uuid.UUID]*Player
	order   []uuid.UUID // join order, for deterministic iteration

	// At most one pending interaction per player, keyed by actor.
	pending map[uuid.UUID]*PendingInteraction

	lapTarget int
	rng       uint64 // xorshift64 state
}

// New constructs an engine over the given read-only catalog. The seed
// drives dice rolls and probabilistic effects; equal seeds with equal
// call sequences reproduce identical games.
func New(seed uint64, cat *catalog.Catalog) *Engine {
	if seed == 0 {
		seed = 1 // xorshift can't start at 0
	}
	return &Engine{
		tiles:     cat.Tiles,
		questions: cat.Questions,
		players:   make(map[uuid.UUID]*Player),
		pending:   make(map[uuid.UUID]*PendingInteraction),
		lapTarget: DefaultLapTarget,
		rng:       seed,
	}
}

func (e *Engine) nextRand() uint64 {
	x := e.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	e.rng = x
	return x
}

// randN returns a random number in [0, n).
func (e *Engine) randN(n uint64) uint64 {
	return e.nextRand() % n
}

// chance returns true with probability percent/100.
func (e *Engine) chance(percent int) bool {
	return e.randN(100) < uint64(percent)
}

// TrackLength returns the number of tiles on the circular track.
func (e *Engine) TrackLength() int { return len(e.tiles) }

// QuestionCount returns the number of questions in the catalog.
func (e *Engine) QuestionCount() int { return len(e.questions) }

// AddPlayer registers a new player at the start tile with an empty
// balance and returns a copy of its record.
func (e *Engine) AddPlayer(name string) Player {
	p := &Player{
		ID:             uuid.New(),
		Name:           name,
		SelectedAnswer: -1,
	}
	e.players[p.ID] = p
	e.order = append(e.order, p.ID)
	return *p
}

// RemovePlayer deletes a player and cancels any pending interaction
// they own. Removing an unknown id is a no-op.
func (e *Engine) RemovePlayer(id uuid.UUID) {
	if _, ok := e.players[id]; !ok {
		return
	}
	delete(e.players, id)
	delete(e.pending, id)
	for i, pid := range e.order {
		if pid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Player returns a copy of the player record, if it exists.
func (e *Engine) Player(id uuid.UUID) (Player, bool) {
	p, ok := e.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players returns copies of all player records in join order.
func (e *Engine) Players() []Player {
	out := make([]Player, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.players[id])
	}
	return out
}

// PendingFor returns the player's pending interaction, if any.
func (e *Engine) PendingFor(id uuid.UUID) (PendingInteraction, bool) {
	pi, ok := e.pending[id]
	if !ok {
		return PendingInteraction{}, false
	}
	return *pi, true
}

// finished reports whether the player has completed the race and is
// therefore ineligible as an effect target.
func (e *Engine) finished(p *Player) bool {
	return p.Laps >= e.lapTarget
}

// eligibleTargets lists every other not-yet-finished player.
func (e *Engine) eligibleTargets(actor uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range e.order {
		if id == actor {
			continue
		}
		if e.finished(e.players[id]) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// averageCoins returns the mean balance across all players.
func (e *Engine) averageCoins() float64 {
	if len(e.players) == 0 {
		return 0
	}
	sum := 0
	for _, p := range e.players {
		sum += p.Coins
	}
	return float64(sum) / float64(len(e.players))
}

// scaledAmount applies the wealth-scaling rule:
//
//	scaled = round(base * max(1, avg/baseline))
//
// so early-game payouts equal their nominal value and inflate with
// the table's average wealth. The start tile bypasses this and always
// pays its nominal amount.
func (e *Engine) scaledAmount(base int) int {
	factor := e.averageCoins() / ScalingBaseline
	if factor < 1 {
		factor = 1
	}
	return int(math.Round(float64(base) * factor))
}

// SubmitAnswer applies the fixed symmetric reward or penalty for the
// player's current question. The submitted question index must match
// the player's progress pointer; a mismatch is a stale or malformed
// message and fails with ErrInvalidQuestion.
func (e *Engine) SubmitAnswer(playerID uuid.UUID, questionIndex, answerIndex int) (AnswerResult, error) {
	p, ok := e.players[playerID]
	if !ok {
		return AnswerResult{}, ErrInvalidPlayer
	}
	if questionIndex != p.QuestionIndex || questionIndex < 0 || questionIndex >= len(e.questions) {
		return AnswerResult{}, fmt.Errorf("%w: got %d, want %d", ErrInvalidQuestion, questionIndex, p.QuestionIndex)
	}

	q := e.questions[questionIndex]
	correct := answerIndex >= 0 && answerIndex < len(q.Options) && answerIndex == q.CorrectIndex

	delta := AnswerReward
	if !correct {
		delta = -AnswerReward
	}
	p.Coins += delta
	p.Answered = true
	p.SelectedAnswer = answerIndex

	return AnswerResult{
		PlayerID: playerID,
		Correct:  correct,
		Delta:    delta,
		NewCoins: p.Coins,
	}, nil
}

// AdvanceTurn resolves the movement phase of a turn. For an incorrect
// answer the question pointer advances and nothing else happens. For
// a correct answer the player rolls, moves, lands, and the tile effect
// applies — possibly returning a blocking InteractionPrompt instead of
// an immediate resolution.
func (e *Engine) AdvanceTurn(playerID uuid.UUID, wasCorrect bool) (MoveResult, error) {
	p, ok := e.players[playerID]
	if !ok {
		return MoveResult{}, ErrInvalidPlayer
	}

	if !wasCorrect {
		e.advanceQuestion(p)
		return MoveResult{PlayerID: playerID, NewCoins: p.Coins}, nil
	}

	roll := int(e.randN(DieFaces)) + 1
	from := p.TileID
	to := (from + roll) % len(e.tiles)
	p.TileID = to

	res := MoveResult{
		PlayerID: playerID,
		Moved:    true,
		Roll:     roll,
		FromTile: from,
		ToTile:   to,
	}

	// Wrapping past tile 0 completes a lap. A start exactly on tile 0
	// does not qualify: that circuit was already credited.
	if to < from && from != 0 {
		p.Laps++
		p.Coins += LapBonus
		res.LapBonus = LapBonus
		if p.Laps == e.lapTarget {
			res.FinishedRace = true
		}
	}

	tile := e.tiles[to]
	res.TileText = tile.Text
	res.TileEffect = tile.Effect
	e.applyTileEffect(p, tile, to, &res)

	// The shared-tile swap only fires when the turn resolved without a
	// blocking prompt; otherwise it is re-checked after resolution.
	if res.Prompt == nil {
		res.SharedTile = e.sharedTileCheck(p)
	}

	e.advanceQuestion(p)
	res.NewCoins = p.Coins
	return res, nil
}

// advanceQuestion moves the player to the next question and clears
// the transient answer fields.
func (e *Engine) advanceQuestion(p *Player) {
	p.QuestionIndex = (p.QuestionIndex + 1) % len(e.questions)
	p.Answered = false
	p.SelectedAnswer = -1
}

// sharedTileCheck rolls the occupied-tile swap: if another
// not-yet-finished player stands on the actor's tile, there is a fixed
// chance the two swap their entire balances.
func (e *Engine) sharedTileCheck(actor *Player) *SharedTileEvent {
	var occupants []*Player
	for _, id := range e.order {
		other := e.players[id]
		if other.ID == actor.ID || e.finished(other) {
			continue
		}
		if other.TileID == actor.TileID {
			occupants = append(occupants, other)
		}
	}
	if len(occupants) == 0 {
		return nil
	}
	if !e.chance(SharedTilePercent) {
		return nil
	}

	other := occupants[e.randN(uint64(len(occupants)))]
	ev := &SharedTileEvent{
		TileID: actor.TileID,
		AID:    actor.ID,
		BID:    other.ID,
		AOld:   actor.Coins,
		BOld:   other.Coins,
	}
	actor.Coins, other.Coins = other.Coins, actor.Coins
	ev.ANew = actor.Coins
	ev.BNew = other.Coins
	return ev
}
