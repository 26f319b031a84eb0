// Package catalog holds the static, read-only content the game is
// built from: the ordered quiz-question list and the ordered tile
// list describing the circular board track. Both are supplied to the
// engine at construction and never mutated afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// EffectKind enumerates every tile effect the engine understands.
// The set is closed: the engine switches over it exhaustively, so a
// new kind is a compile-visible extension, not a runtime string match.
type EffectKind uint8

const (
	EffectNone         EffectKind = iota // decorative tile, nothing happens
	EffectStart                          // origin tile; pays its nominal amount, exempt from scaling
	EffectGain                           // flat coin gain (scaled)
	EffectLose                           // flat coin loss (scaled)
	EffectSteal                          // targeted: take a percentage of one victim's coins
	EffectReport                         // targeted: fine one victim up to a fixed cap
	EffectSwap                           // targeted: swap full balances with one victim
	EffectGamble                         // targeted: double-or-half gamble against one victim's witness
	EffectTax                            // broadcast: collect from every other player
	EffectParty                          // broadcast: pay out to every other player
	EffectBomb                           // broadcast: every other player loses, actor collects
	EffectMagnet                         // broadcast: attract a share of every other player's coins
	EffectRedistribute                   // broadcast: average all balances across players
	EffectWarp                           // displacement: push one random victim backwards
	EffectLapRace                        // decorative milestone tile, nothing happens
)

var effectNames = map[EffectKind]string{
	EffectNone:         "none",
	EffectStart:        "start",
	EffectGain:         "gain",
	EffectLose:         "lose",
	EffectSteal:        "steal",
	EffectReport:       "report",
	EffectSwap:         "swap",
	EffectGamble:       "gamble",
	EffectTax:          "tax",
	EffectParty:        "party",
	EffectBomb:         "bomb",
	EffectMagnet:       "magnet",
	EffectRedistribute: "redistribute",
	EffectWarp:         "warp",
	EffectLapRace:      "laprace",
}

// String returns the canonical name used in catalog files.
func (k EffectKind) String() string {
	if s, ok := effectNames[k]; ok {
		return s
	}
	return fmt.Sprintf("effect(%d)", uint8(k))
}

// IsTargeted reports whether landing on this effect requires a chosen
// victim before it can resolve.
func (k EffectKind) IsTargeted() bool {
	switch k {
	case EffectSteal, EffectReport, EffectSwap, EffectGamble:
		return true
	}
	return false
}

// IsBroadcast reports whether the effect touches every other player
// in one resolution step.
func (k EffectKind) IsBroadcast() bool {
	switch k {
	case EffectTax, EffectParty, EffectBomb, EffectMagnet, EffectRedistribute:
		return true
	}
	return false
}

// ParseEffect maps a catalog-file name to its EffectKind.
func ParseEffect(s string) (EffectKind, error) {
	for k, name := range effectNames {
		if name == s {
			return k, nil
		}
	}
	return EffectNone, fmt.Errorf("unknown tile effect %q", s)
}

// MarshalJSON writes the effect as its canonical name.
func (k EffectKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON reads an effect from its canonical name.
func (k *EffectKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEffect(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Tile is one static board position.
type Tile struct {
	Effect    EffectKind `json:"effect"`
	Magnitude int        `json:"magnitude"` // base coin amount before scaling; 0 for non-coin tiles
	Text      string     `json:"text"`      // descriptive text shown when landed on
}

// Question is one quiz question with its answer options.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Catalog bundles the two read-only content lists.
type Catalog struct {
	Tiles     []Tile     `json:"tiles"`
	Questions []Question `json:"questions"`
}

// Validate checks internal consistency: a non-empty track that begins
// with the start tile, known effect kinds, and answerable questions.
func (c *Catalog) Validate() error {
	if len(c.Tiles) < 2 {
		return fmt.Errorf("catalog needs at least 2 tiles, got %d", len(c.Tiles))
	}
	if c.Tiles[0].Effect != EffectStart {
		return fmt.Errorf("tile 0 must be the start tile, got %s", c.Tiles[0].Effect)
	}
	for i, t := range c.Tiles {
		if _, ok := effectNames[t.Effect]; !ok {
			return fmt.Errorf("tile %d: unknown effect %d", i, t.Effect)
		}
		if i > 0 && t.Effect == EffectStart {
			return fmt.Errorf("tile %d: duplicate start tile", i)
		}
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("catalog needs at least one question")
	}
	for i, q := range c.Questions {
		if q.Prompt == "" {
			return fmt.Errorf("question %d: empty prompt", i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: needs at least 2 options, got %d", i, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("question %d: correct index %d out of range [0,%d)", i, q.CorrectIndex, len(q.Options))
		}
	}
	return nil
}

// Load reads and validates a catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
