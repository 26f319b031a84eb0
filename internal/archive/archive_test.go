package archive

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oskarw/quizparty/internal/engine"
)

func TestDisabledArchiveIsSafe(t *testing.T) {
	a, err := Open(context.Background(), "", logrus.New())
	require.NoError(t, err)
	require.Nil(t, a)

	assert.NoError(t, a.StoreMatch(context.Background(), "ABCDEF", nil))
	assert.NotPanics(t, a.Close)
}

func TestRankByCoinsThenLaps(t *testing.T) {
	a := engine.Player{ID: uuid.New(), Name: "Ada", Coins: 300, Laps: 2}
	b := engine.Player{ID: uuid.New(), Name: "Bob", Coins: 500, Laps: 1}
	c := engine.Player{ID: uuid.New(), Name: "Cyd", Coins: 300, Laps: 3}

	ranked := Rank([]engine.Player{a, b, c})
	require.Len(t, ranked, 3)
	assert.Equal(t, "Bob", ranked[0].Name)
	assert.Equal(t, "Cyd", ranked[1].Name, "equal coins: more laps wins")
	assert.Equal(t, "Ada", ranked[2].Name)
}

func TestRankIsStableAndNonDestructive(t *testing.T) {
	a := engine.Player{ID: uuid.New(), Name: "Ada", Coins: 100, Laps: 1}
	b := engine.Player{ID: uuid.New(), Name: "Bob", Coins: 100, Laps: 1}
	in := []engine.Player{a, b}

	ranked := Rank(in)
	assert.Equal(t, "Ada", ranked[0].Name, "full ties keep join order")
	assert.Equal(t, "Ada", in[0].Name, "input slice untouched")
}
