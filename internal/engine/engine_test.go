package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oskarw/quizparty/internal/catalog"
)

// xorshift mirrors the engine RNG so tests can predict upcoming rolls
// without consuming engine state.
func xorshift(x uint64) uint64 {
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	return x
}

// peekRoll returns the die value the engine will produce next.
func peekRoll(e *Engine) int {
	return int(xorshift(e.rng)%DieFaces) + 1
}

// seedWhere finds a seed whose first draw satisfies pred over randN(100).
func seedWhere(t *testing.T, pred func(uint64) bool) uint64 {
	t.Helper()
	for seed := uint64(1); seed < 100000; seed++ {
		if pred(xorshift(seed) % 100) {
			return seed
		}
	}
	t.Fatal("no seed found")
	return 0
}

// seedAfterRoll finds a seed whose second draw (the one after a die
// roll) satisfies pred over randN(100).
func seedAfterRoll(t *testing.T, pred func(uint64) bool) uint64 {
	t.Helper()
	for seed := uint64(1); seed < 100000; seed++ {
		if pred(xorshift(xorshift(seed)) % 100) {
			return seed
		}
	}
	t.Fatal("no seed found")
	return 0
}

// testCatalog builds a small track with a known tile at every index.
func testCatalog(tiles ...catalog.Tile) *catalog.Catalog {
	all := append([]catalog.Tile{{Effect: catalog.EffectStart, Magnitude: 20, Text: "start"}}, tiles...)
	return &catalog.Catalog{
		Tiles: all,
		Questions: []catalog.Question{
			{Prompt: "1+1?", Options: []string{"1", "2"}, CorrectIndex: 1},
			{Prompt: "2+2?", Options: []string{"4", "5"}, CorrectIndex: 0},
		},
	}
}

// noneTiles returns n decorative filler tiles.
func noneTiles(n int) []catalog.Tile {
	out := make([]catalog.Tile, n)
	for i := range out {
		out[i] = catalog.Tile{Effect: catalog.EffectNone, Text: "filler"}
	}
	return out
}

// placeFor positions the player so that the next roll lands on tileID.
func placeFor(e *Engine, p Player, tileID int) {
	roll := peekRoll(e)
	l := e.TrackLength()
	from := ((tileID-roll)%l + l) % l
	e.players[p.ID].TileID = from
}

func TestAddRemovePlayer(t *testing.T) {
	e := New(1, testCatalog(noneTiles(7)...))

	a := e.AddPlayer("Ada")
	b := e.AddPlayer("Bob")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 0, a.Coins)
	assert.Equal(t, 0, a.TileID)
	assert.Equal(t, -1, a.SelectedAnswer)
	assert.Len(t, e.Players(), 2)

	e.RemovePlayer(a.ID)
	assert.Len(t, e.Players(), 1)
	_, ok := e.Player(a.ID)
	assert.False(t, ok)

	// Removing an unknown id is a no-op.
	e.RemovePlayer(a.ID)
	assert.Len(t, e.Players(), 1)
}

func TestSubmitAnswer(t *testing.T) {
	e := New(1, testCatalog(noneTiles(7)...))
	p := e.AddPlayer("Ada")

	res, err := e.SubmitAnswer(p.ID, 0, 1)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, AnswerReward, res.Delta)
	assert.Equal(t, AnswerReward, res.NewCoins)

	got, _ := e.Player(p.ID)
	assert.True(t, got.Answered)
	assert.Equal(t, 1, got.SelectedAnswer)

	// Wrong answer applies the symmetric penalty.
	e2 := New(1, testCatalog(noneTiles(7)...))
	p2 := e2.AddPlayer("Bob")
	res, err = e2.SubmitAnswer(p2.ID, 0, 0)
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, -AnswerReward, res.Delta)

	// Out-of-range answer index is simply incorrect, not an error.
	e3 := New(1, testCatalog(noneTiles(7)...))
	p3 := e3.AddPlayer("Cyd")
	res, err = e3.SubmitAnswer(p3.ID, 0, 99)
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestSubmitAnswerInvalidInput(t *testing.T) {
	e := New(1, testCatalog(noneTiles(7)...))
	p := e.AddPlayer("Ada")

	_, err := e.SubmitAnswer(uuid.New(), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPlayer)

	// Stale question index (player is on question 0).
	_, err = e.SubmitAnswer(p.ID, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuestion)

	// Invalid input never mutates state.
	got, _ := e.Player(p.ID)
	assert.Equal(t, 0, got.Coins)
	assert.False(t, got.Answered)
}

func TestAdvanceTurnIncorrectAnswerOnlyAdvancesQuestion(t *testing.T) {
	e := New(1, testCatalog(noneTiles(7)...))
	p := e.AddPlayer("Ada")

	res, err := e.AdvanceTurn(p.ID, false)
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Zero(t, res.Roll)
	assert.Zero(t, res.CoinsDelta)

	got, _ := e.Player(p.ID)
	assert.Equal(t, 1, got.QuestionIndex)
	assert.Equal(t, 0, got.TileID, "no movement on incorrect answer")
	assert.False(t, got.Answered)
	assert.Equal(t, -1, got.SelectedAnswer)
}

func TestAdvanceTurnUnknownPlayer(t *testing.T) {
	e := New(1, testCatalog(noneTiles(7)...))
	_, err := e.AdvanceTurn(uuid.New(), true)
	assert.ErrorIs(t, err, ErrInvalidPlayer)
}

// Tile ids stay inside the track across arbitrarily many turns, and
// question pointers wrap.
func TestTileBoundsInvariant(t *testing.T) {
	// The full default catalog exercises every effect kind.
	e := New(42, catalog.Default())
	a := e.AddPlayer("Ada")
	b := e.AddPlayer("Bob")

	for i := 0; i < 500; i++ {
		for _, id := range []uuid.UUID{a.ID, b.ID} {
			_, err := e.AdvanceTurn(id, i%3 != 0)
			require.NoError(t, err)
			// Clear any prompt so the next turn is unblocked.
			if pi, ok := e.PendingFor(id); ok {
				targets := e.eligibleTargets(id)
				_, err := e.ResolveInteraction(pi.Kind, id, targets[0])
				require.NoError(t, err)
			}
		}
	}

	for _, p := range e.Players() {
		assert.GreaterOrEqual(t, p.TileID, 0)
		assert.Less(t, p.TileID, e.TrackLength())
		assert.GreaterOrEqual(t, p.QuestionIndex, 0)
		assert.Less(t, p.QuestionIndex, e.QuestionCount())
	}
}

func TestLapBonusFiresExactlyOnWrap(t *testing.T) {
	e := New(7, testCatalog(noneTiles(7)...)) // 8-tile track
	p := e.AddPlayer("Ada")

	// From the last tile every d6 roll wraps past tile 0.
	e.players[p.ID].TileID = e.TrackLength() - 1

	roll := peekRoll(e)
	res, err := e.AdvanceTurn(p.ID, true)
	require.NoError(t, err)
	require.Equal(t, roll, res.Roll)
	assert.Less(t, res.ToTile, res.FromTile, "must have wrapped")
	assert.Equal(t, LapBonus, res.LapBonus)

	got, _ := e.Player(p.ID)
	assert.Equal(t, 1, got.Laps)
}

func TestLapBonusDoesNotFireFromStartTile(t *testing.T) {
	e := New(7, testCatalog(noneTiles(7)...))
	p := e.AddPlayer("Ada")

	// From tile 0 an 8-tile track can't wrap with a d6; no bonus.
	res, err := e.AdvanceTurn(p.ID, true)
	require.NoError(t, err)
	assert.Zero(t, res.LapBonus)
	got, _ := e.Player(p.ID)
	assert.Equal(t, 0, got.Laps)
}

// Scenario A: a flat +50 tile at baseline average pays exactly 50 and
// leaves the other player untouched.
func TestFlatGainAtBaseline(t *testing.T) {
	cat := testCatalog(append(noneTiles(6), catalog.Tile{Effect: catalog.EffectGain, Magnitude: 50, Text: "gain"})...)
	e := New(3, cat)
	a := e.AddPlayer("Ada")
	b := e.AddPlayer("Bob")

	// Both at baseline-or-below wealth: scaling factor clamps to 1.
	e.players[a.ID].Coins = 40
	e.players[b.ID].Coins = 60

	gainTile := e.TrackLength() - 1
	placeFor(e, a, gainTile)
	// Keep Bob off the landing tile so no shared-tile roll happens.
	e.players[b.ID].TileID = 1

	res, err := e.AdvanceTurn(a.ID, true)
	require.NoError(t, err)
	assert.Equal(t, gainTile, res.ToTile)
	assert.Equal(t, 50, res.CoinsDelta)

	gotA, _ := e.Player(a.ID)
	gotB, _ := e.Player(b.ID)
	assert.Equal(t, 90, gotA.Coins)
	assert.Equal(t, 60, gotB.Coins, "bystander balance unchanged")
}

func TestCoinScalingAboveBaseline(t *testing.T) {
	e := New(1, testCatalog(noneTiles(7)...))
	a := e.AddPlayer("Ada")
	b := e.AddPlayer("Bob")

	// avg = 300 → factor 3.
	e.players[a.ID].Coins = 200
	e.players[b.ID].Coins = 400
	assert.Equal(t, 150, e.scaledAmount(50))

	// avg below baseline → nominal.
	e.players[a.ID].Coins = 10
	e.players[b.ID].Coins = 20
	assert.Equal(t, 50, e.scaledAmount(50))
}

func TestStartTileExemptFromScaling(t *testing.T) {
	cat := testCatalog(noneTiles(7)...)
	e := New(9, cat)
	a := e.AddPlayer("Ada")
	b := e.AddPlayer("Bob")

	// Inflate the economy; start must still pay its nominal 20.
	e.players[a.ID].Coins = 1000
	e.players[b.ID].Coins = 1000
	e.players[b.ID].TileID = 3

	placeFor(e, a, 0)
	res, err := e.AdvanceTurn(a.ID, true)
	require.NoError(t, err)
	require.Equal(t, 0, res.ToTile)
	assert.Equal(t, 20, res.CoinsDelta)
}

func TestSharedTileSwapForced(t *testing.T) {
	cat := testCatalog(noneTiles(7)...)

	// First draw is the roll; the second decides the swap chance.
	found := seedAfterRoll(t, func(second uint64) bool { return second < SharedTilePercent })

	e := New(found, cat)
	a := e.AddPlayer("Ada")
	b := e.AddPlayer("Bob")
	e.players[a.ID].Coins = 100
	e.players[b.ID].Coins = 250

	// Land Ada exactly on Bob's tile.
	target := 4
	e.players[b.ID].TileID = target
	placeFor(e, a, target)

	res, err := e.AdvanceTurn(a.ID, true)
	require.NoError(t, err)
	require.NotNil(t, res.SharedTile)

	assert.Equal(t, a.ID, res.SharedTile.AID)
	assert.Equal(t, b.ID, res.SharedTile.BID)
	assert.Equal(t, 100, res.SharedTile.AOld)
	assert.Equal(t, 250, res.SharedTile.ANew)
	assert.Equal(t, 250, res.SharedTile.BOld)
	assert.Equal(t, 100, res.SharedTile.BNew)

	gotA, _ := e.Player(a.ID)
	gotB, _ := e.Player(b.ID)
	assert.Equal(t, 250, gotA.Coins)
	assert.Equal(t, 100, gotB.Coins)
}

func TestSharedTileSwapNotTriggered(t *testing.T) {
	cat := testCatalog(noneTiles(7)...)

	found := seedAfterRoll(t, func(second uint64) bool { return second >= SharedTilePercent })

	e := New(found, cat)
	a := e.AddPlayer("Ada")
	b := e.AddPlayer("Bob")
	e.players[a.ID].Coins = 100
	e.players[b.ID].Coins = 250

	target := 4
	e.players[b.ID].TileID = target
	placeFor(e, a, target)

	res, err := e.AdvanceTurn(a.ID, true)
	require.NoError(t, err)
	assert.Nil(t, res.SharedTile)

	gotA, _ := e.Player(a.ID)
	assert.Equal(t, 100, gotA.Coins)
}
