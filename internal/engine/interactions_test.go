package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oskarw/quizparty/internal/catalog"
)

// pendingFixture builds an engine with two players and injects a
// pending interaction for the first, without consuming any RNG draws.
func pendingFixture(seed uint64, kind InteractionKind) (e *Engine, actor, target Player) {
	e = New(seed, testCatalog(noneTiles(7)...))
	actor = e.AddPlayer("Ada")
	target = e.AddPlayer("Bob")
	e.players[target.ID].TileID = 3 // off the actor's tile
	e.pending[actor.ID] = &PendingInteraction{Kind: kind, ActorID: actor.ID, TileID: 0}
	return e, actor, target
}

func TestStealTransfersPercentage(t *testing.T) {
	e, actor, target := pendingFixture(1, InteractionSteal)
	e.players[actor.ID].Coins = 10
	e.players[target.ID].Coins = 200

	res, err := e.ResolveInteraction(InteractionSteal, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 50, res.Transfer)
	assert.Equal(t, 60, res.ActorCoins)
	assert.Equal(t, 150, res.TargetCoins)

	_, still := e.PendingFor(actor.ID)
	assert.False(t, still)
}

// A small balance can round the steal down to zero; the interaction is
// consumed anyway.
func TestStealZeroTransferStillConsumes(t *testing.T) {
	e, actor, target := pendingFixture(1, InteractionSteal)
	e.players[target.ID].Coins = 3 // 25% rounds down to 0

	res, err := e.ResolveInteraction(InteractionSteal, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Zero(t, res.Transfer)
	assert.Equal(t, 3, res.TargetCoins)
	_, still := e.PendingFor(actor.ID)
	assert.False(t, still)
}

// Scenario B: report fines the victim by min(cap, balance) and leaves
// the actor untouched — the fine is destroyed, not transferred.
func TestReportFinesUpToCap(t *testing.T) {
	e, actor, target := pendingFixture(1, InteractionReport)
	e.players[actor.ID].Coins = 40
	e.players[target.ID].Coins = 300

	res, err := e.ResolveInteraction(InteractionReport, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, ReportCap, res.Transfer)
	assert.Equal(t, 40, res.ActorCoins, "actor gains nothing from reporting")
	assert.Equal(t, 300-ReportCap, res.TargetCoins)
}

func TestReportCapsAtVictimBalance(t *testing.T) {
	e, actor, target := pendingFixture(1, InteractionReport)
	e.players[target.ID].Coins = 25 // below the cap

	res, err := e.ResolveInteraction(InteractionReport, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 25, res.Transfer)
	assert.Zero(t, res.TargetCoins)
}

func TestSwapExchangesFullBalances(t *testing.T) {
	e, actor, target := pendingFixture(1, InteractionSwap)
	e.players[actor.ID].Coins = -30 // debt swaps too
	e.players[target.ID].Coins = 500

	res, err := e.ResolveInteraction(InteractionSwap, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 500, res.ActorCoins)
	assert.Equal(t, -30, res.TargetCoins)
}

// Scenario D, forced win: investing doubles the balance exactly.
func TestGambleForcedWinDoubles(t *testing.T) {
	seed := seedWhere(t, func(first uint64) bool { return first < GambleWinPercent })
	e, actor, target := pendingFixture(seed, InteractionGamble)
	e.players[actor.ID].Coins = 75

	res, err := e.ResolveInteraction(InteractionGamble, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Accepted)
	assert.True(t, res.Won)
	assert.Equal(t, 150, res.ActorCoins)
}

// Scenario D, forced loss: the balance drops by floor(coins/2).
func TestGambleForcedLossHalves(t *testing.T) {
	seed := seedWhere(t, func(first uint64) bool { return first >= GambleWinPercent })
	e, actor, target := pendingFixture(seed, InteractionGamble)
	e.players[actor.ID].Coins = 75

	res, err := e.ResolveInteraction(InteractionGamble, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Accepted)
	assert.False(t, res.Won)
	assert.Equal(t, 75-37, res.ActorCoins)
}

// Declining the gamble consumes the interaction without moving coins.
func TestGambleDeclined(t *testing.T) {
	e, actor, _ := pendingFixture(1, InteractionGamble)
	e.players[actor.ID].Coins = 75

	res, err := e.ResolveInteraction(InteractionGamble, actor.ID, uuid.Nil)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.False(t, res.Accepted)
	assert.Equal(t, 75, res.ActorCoins)
	_, still := e.PendingFor(actor.ID)
	assert.False(t, still)
}

// Resolving the same interaction twice mutates state exactly once; the
// second call is a tolerated no-op.
func TestDoubleResolutionIsNoOp(t *testing.T) {
	e, actor, target := pendingFixture(1, InteractionSteal)
	e.players[target.ID].Coins = 100

	first, err := e.ResolveInteraction(InteractionSteal, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := e.ResolveInteraction(InteractionSteal, actor.ID, target.ID)
	require.NoError(t, err)
	assert.Nil(t, second)

	got, _ := e.Player(target.ID)
	assert.Equal(t, 75, got.Coins, "state mutated exactly once")
}

// A resolution whose kind does not match the pending interaction is
// treated as stale, not applied.
func TestKindMismatchIsNoOp(t *testing.T) {
	e, actor, target := pendingFixture(1, InteractionReport)
	e.players[target.ID].Coins = 100

	res, err := e.ResolveInteraction(InteractionSteal, actor.ID, target.ID)
	require.NoError(t, err)
	assert.Nil(t, res)

	got, _ := e.Player(target.ID)
	assert.Equal(t, 100, got.Coins)
	_, still := e.PendingFor(actor.ID)
	assert.True(t, still, "mismatched resolution must not consume the interaction")
}

// Scenario E: removing a player purges their pending interaction, and a
// later resolution attempt is a stale no-op rather than an error.
func TestRemovePlayerClearsPending(t *testing.T) {
	e, actor, target := pendingFixture(1, InteractionSwap)
	e.players[target.ID].Coins = 100

	e.RemovePlayer(actor.ID)

	res, err := e.ResolveInteraction(InteractionSwap, actor.ID, target.ID)
	require.NoError(t, err)
	assert.Nil(t, res)

	got, _ := e.Player(target.ID)
	assert.Equal(t, 100, got.Coins)
}

func TestResolveInvalidTargets(t *testing.T) {
	e, actor, _ := pendingFixture(1, InteractionSteal)

	_, err := e.ResolveInteraction(InteractionSteal, actor.ID, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidTarget)

	// Self-targeting is rejected.
	_, err = e.ResolveInteraction(InteractionSteal, actor.ID, actor.ID)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	// A finished player is not a valid victim.
	retired := e.AddPlayer("Cyd")
	e.players[retired.ID].Laps = DefaultLapTarget
	_, err = e.ResolveInteraction(InteractionSteal, actor.ID, retired.ID)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	// Rejected resolutions leave the interaction open.
	_, still := e.PendingFor(actor.ID)
	assert.True(t, still)
}

// The movement-phase shared-tile check is suppressed by a blocking
// prompt and re-run after steal/report/gamble resolution.
func TestSharedTileRecheckAfterSteal(t *testing.T) {
	// First post-resolution draw decides the swap chance.
	seed := seedWhere(t, func(first uint64) bool { return first < SharedTilePercent })
	e, actor, target := pendingFixture(seed, InteractionSteal)
	e.players[actor.ID].Coins = 100
	e.players[target.ID].Coins = 300
	e.players[target.ID].TileID = e.players[actor.ID].TileID

	res, err := e.ResolveInteraction(InteractionSteal, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotNil(t, res.SharedTile)

	// Steal first (100+75 / 300-75), then the forced full swap.
	assert.Equal(t, 175, res.SharedTile.AOld)
	assert.Equal(t, 225, res.SharedTile.ANew)
	assert.Equal(t, 175, res.SharedTile.BNew)
	gotActor, _ := e.Player(actor.ID)
	gotTarget, _ := e.Player(target.ID)
	assert.Equal(t, 225, gotActor.Coins)
	assert.Equal(t, 175, gotTarget.Coins)
}

// After a swap resolution the shared-tile check is skipped even when
// the two players stand on the same tile.
func TestSharedTileRecheckSkippedAfterSwap(t *testing.T) {
	seed := seedWhere(t, func(first uint64) bool { return first < SharedTilePercent })
	e, actor, target := pendingFixture(seed, InteractionSwap)
	e.players[actor.ID].Coins = 100
	e.players[target.ID].Coins = 200
	e.players[target.ID].TileID = e.players[actor.ID].TileID

	res, err := e.ResolveInteraction(InteractionSwap, actor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Nil(t, res.SharedTile)
	gotActor, _ := e.Player(actor.ID)
	assert.Equal(t, 200, gotActor.Coins, "swapped once, not twice")
}

// Landing on a targeted tile while another interaction could be open
// never yields more than one pending entry per player.
func TestAtMostOnePendingPerPlayer(t *testing.T) {
	cat := testCatalog(append(noneTiles(6), catalog.Tile{Effect: catalog.EffectSteal, Text: "steal"})...)
	e := New(5, cat)
	actor := e.AddPlayer("Ada")
	victim := e.AddPlayer("Bob")
	e.players[victim.ID].TileID = 1

	placeFor(e, actor, e.TrackLength()-1)
	res, err := e.AdvanceTurn(actor.ID, true)
	require.NoError(t, err)
	require.NotNil(t, res.Prompt)

	assert.Len(t, e.pending, 1)
	pi, ok := e.PendingFor(actor.ID)
	require.True(t, ok)
	assert.Equal(t, InteractionSteal, pi.Kind)

	_, err = e.ResolveInteraction(pi.Kind, actor.ID, victim.ID)
	require.NoError(t, err)
	assert.Empty(t, e.pending)
}
