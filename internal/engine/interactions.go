package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// ResolveInteraction applies a player's choice for their pending
// targeted effect. A resolution with no matching pending interaction
// (duplicate or late message) returns (nil, nil): a tolerated no-op,
// not an error. Unknown ids are errors; resolving the same
// interaction twice mutates state exactly once.
//
// For gamble, targetID carries the invest decision: uuid.Nil declines,
// anything else accepts (the target itself is only a witness).
//
// After a steal, report or gamble resolution the shared-tile swap is
// re-checked, because the movement-phase check was suppressed by the
// blocking prompt. A swap resolution already performed an equivalent
// balance exchange, so the re-check is skipped to avoid doubling it.
func (e *Engine) ResolveInteraction(kind InteractionKind, actorID, targetID uuid.UUID) (*InteractionResult, error) {
	// Pending lookup comes first: a resolution arriving after the actor
	// left (which purged their pending entry) is stale, not invalid.
	pi, ok := e.pending[actorID]
	if !ok || pi.Kind != kind {
		return nil, nil // stale or duplicate resolution
	}

	actor, ok := e.players[actorID]
	if !ok {
		return nil, ErrInvalidPlayer
	}

	res := &InteractionResult{
		Kind:    kind,
		ActorID: actorID,
	}

	switch kind {
	case InteractionGamble:
		e.resolveGamble(actor, targetID, res)

	case InteractionSteal, InteractionReport, InteractionSwap:
		target, ok := e.players[targetID]
		if !ok {
			return nil, ErrInvalidTarget
		}
		if targetID == actorID || e.finished(target) {
			return nil, fmt.Errorf("%w: %s is not an eligible target", ErrInvalidTarget, target.Name)
		}
		res.TargetID = targetID

		switch kind {
		case InteractionSteal:
			// Percentage steals can round down to zero on a small
			// balance; the interaction is still consumed.
			amt := target.Coins * StealPercent / 100
			if amt < 0 {
				amt = 0
			}
			target.Coins -= amt
			actor.Coins += amt
			res.Transfer = amt
			res.Text = fmt.Sprintf("%s steals %d coins from %s.", actor.Name, amt, target.Name)

		case InteractionReport:
			// Fine the victim up to the cap; the fine is destroyed,
			// the actor gains nothing.
			amt := min(ReportCap, target.Coins)
			if amt < 0 {
				amt = 0
			}
			target.Coins -= amt
			res.Transfer = amt
			res.Text = fmt.Sprintf("%s reports %s, who is fined %d coins.", actor.Name, target.Name, amt)

		case InteractionSwap:
			actor.Coins, target.Coins = target.Coins, actor.Coins
			res.Text = fmt.Sprintf("%s and %s trade fortunes.", actor.Name, target.Name)
		}
		res.TargetCoins = target.Coins
	}

	res.ActorCoins = actor.Coins
	delete(e.pending, actorID)

	// Re-run the suppressed shared-tile check — except after a swap,
	// which already exchanged balances this turn. The asymmetry is
	// inherited behavior, kept deliberately.
	if _, stillPending := e.pending[actorID]; !stillPending && kind != InteractionSwap {
		res.SharedTile = e.sharedTileCheck(actor)
	}

	return res, nil
}

// resolveGamble handles the double-or-half bet. Declining consumes the
// interaction with no coin movement.
func (e *Engine) resolveGamble(actor *Player, choice uuid.UUID, res *InteractionResult) {
	if choice == uuid.Nil {
		res.Text = fmt.Sprintf("%s walks away from the table.", actor.Name)
		return
	}
	res.Accepted = true
	if e.chance(GambleWinPercent) {
		res.Won = true
		res.Transfer = 0
		actor.Coins *= 2
		res.Text = fmt.Sprintf("%s doubles up! The house weeps.", actor.Name)
	} else {
		loss := actor.Coins / 2
		if loss < 0 {
			loss = 0 // a negative balance cannot be halved away
		}
		actor.Coins -= loss
		res.Text = fmt.Sprintf("%s loses %d coins to the house.", actor.Name, loss)
	}
}
