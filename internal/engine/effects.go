package engine

import (
	"fmt"

	"github.com/oskarw/quizparty/internal/catalog"
)

// applyTileEffect resolves the landed tile against the actor, writing
// the outcome into res. Targeted tiles with at least one eligible
// victim produce a blocking prompt instead of resolving; broadcast
// tiles touch every other not-yet-finished player in one step.
//
// The switch is exhaustive over catalog.EffectKind: adding a kind
// without a case here is meant to be caught in review, not at runtime.
func (e *Engine) applyTileEffect(actor *Player, tile catalog.Tile, tileID int, res *MoveResult) {
	switch tile.Effect {
	case catalog.EffectNone, catalog.EffectLapRace:
		// Decorative tiles.

	case catalog.EffectStart:
		// Origin tile always pays its nominal amount, never scaled.
		actor.Coins += tile.Magnitude
		res.CoinsDelta = tile.Magnitude

	case catalog.EffectGain:
		amt := e.scaledAmount(tile.Magnitude)
		actor.Coins += amt
		res.CoinsDelta = amt

	case catalog.EffectLose:
		amt := e.scaledAmount(tile.Magnitude)
		actor.Coins -= amt
		res.CoinsDelta = -amt

	case catalog.EffectSteal, catalog.EffectReport, catalog.EffectSwap, catalog.EffectGamble:
		kind, _ := InteractionForEffect(tile.Effect)
		targets := e.eligibleTargets(actor.ID)
		if len(targets) == 0 {
			// Valid outcome: the effect fizzles with explanatory text.
			res.Event = &TileEvent{
				Effect: tile.Effect,
				Text:   fmt.Sprintf("Nobody is around to %s. Nothing happens.", kind),
			}
			return
		}
		e.pending[actor.ID] = &PendingInteraction{
			Kind:    kind,
			ActorID: actor.ID,
			TileID:  tileID,
		}
		res.Prompt = &InteractionPrompt{
			Kind:    kind,
			ActorID: actor.ID,
			TileID:  tileID,
			Targets: targets,
			Text:    tile.Text,
		}

	case catalog.EffectTax:
		// Scaled once from the pre-effect average: every victim pays the
		// same amount no matter where they sit in the iteration.
		amt := e.scaledAmount(tile.Magnitude)
		e.applyBroadcast(actor, tile, res, func(victim *Player) int {
			return -amt
		}, true)

	case catalog.EffectParty:
		amt := e.scaledAmount(tile.Magnitude)
		e.applyBroadcast(actor, tile, res, func(victim *Player) int {
			return amt
		}, true)

	case catalog.EffectBomb:
		amt := e.scaledAmount(tile.Magnitude)
		e.applyBroadcast(actor, tile, res, func(victim *Player) int {
			return -amt
		}, true)

	case catalog.EffectMagnet:
		e.applyBroadcast(actor, tile, res, func(victim *Player) int {
			amt := victim.Coins * tile.Magnitude / 100
			if amt < 0 {
				amt = 0 // a debtor has nothing to attract
			}
			return -amt
		}, true)

	case catalog.EffectRedistribute:
		e.applyRedistribute(actor, tile, res)

	case catalog.EffectWarp:
		e.applyWarp(actor, tile, res)
	}
}

// applyBroadcast iterates every other not-yet-finished player, applies
// deltaFor to each, and (when reciprocal) credits the actor with the
// opposite sum so the effect is zero-sum across all touched players.
func (e *Engine) applyBroadcast(actor *Player, tile catalog.Tile, res *MoveResult, deltaFor func(*Player) int, reciprocal bool) {
	victims := e.eligibleTargets(actor.ID)
	ev := &TileEvent{Effect: tile.Effect, Text: tile.Text}

	total := 0
	for _, id := range victims {
		victim := e.players[id]
		d := deltaFor(victim)
		victim.Coins += d
		total += d
		ev.Deltas = append(ev.Deltas, PlayerDelta{PlayerID: id, Delta: d, NewCoins: victim.Coins})
	}

	if reciprocal {
		actor.Coins -= total
		res.CoinsDelta = -total
	}
	ev.Deltas = append(ev.Deltas, PlayerDelta{PlayerID: actor.ID, Delta: res.CoinsDelta, NewCoins: actor.Coins})
	res.Event = ev
}

// applyRedistribute levels every not-yet-finished player (actor
// included) to the pool average. Integer division leaves a remainder
// of at most len(players)-1 coins, which goes to the actor so the pool
// total is conserved exactly.
func (e *Engine) applyRedistribute(actor *Player, tile catalog.Tile, res *MoveResult) {
	group := []*Player{actor}
	for _, id := range e.eligibleTargets(actor.ID) {
		group = append(group, e.players[id])
	}
	if len(group) < 2 {
		res.Event = &TileEvent{
			Effect: tile.Effect,
			Text:   "Nobody to share with. Nothing happens.",
		}
		return
	}

	pool := 0
	for _, p := range group {
		pool += p.Coins
	}
	share := floorDiv(pool, len(group))
	remainder := pool - share*len(group)

	ev := &TileEvent{Effect: tile.Effect, Text: tile.Text}
	for _, p := range group {
		target := share
		if p.ID == actor.ID {
			target += remainder
		}
		d := target - p.Coins
		p.Coins = target
		if p.ID == actor.ID {
			res.CoinsDelta = d
		}
		ev.Deltas = append(ev.Deltas, PlayerDelta{PlayerID: p.ID, Delta: d, NewCoins: p.Coins})
	}
	res.Event = ev
}

// applyWarp relocates one randomly chosen eligible victim backwards by
// a fixed offset. No coins move and no lap is credited or revoked.
func (e *Engine) applyWarp(actor *Player, tile catalog.Tile, res *MoveResult) {
	victims := e.eligibleTargets(actor.ID)
	if len(victims) == 0 {
		res.Event = &TileEvent{
			Effect: tile.Effect,
			Text:   "Nobody to push around. Nothing happens.",
		}
		return
	}

	id := victims[e.randN(uint64(len(victims)))]
	victim := e.players[id]
	from := victim.TileID
	to := ((from-WarpOffset)%len(e.tiles) + len(e.tiles)) % len(e.tiles)
	victim.TileID = to

	res.Event = &TileEvent{
		Effect:        tile.Effect,
		Text:          fmt.Sprintf("%s is blown %d tiles backwards!", victim.Name, WarpOffset),
		MovedPlayerID: id,
		MovedFromTile: from,
		MovedToTile:   to,
	}
}

// floorDiv rounds toward negative infinity, so redistribution behaves
// sensibly when the pool is negative.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
