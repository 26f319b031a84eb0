// Package archive stores final standings of finished matches in
// Postgres. Only completed games are written; live game state is never
// persisted. A nil archive (no DSN configured) disables everything.
package archive

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oskarw/quizparty/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id          BIGSERIAL PRIMARY KEY,
	room_code   TEXT        NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS match_standings (
	match_id  BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	player_id UUID   NOT NULL,
	name      TEXT   NOT NULL,
	coins     INT    NOT NULL,
	laps      INT    NOT NULL,
	placing   INT    NOT NULL
);
`

// Archive writes finished matches through a pgx pool. Nil disables.
type Archive struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// Open connects to Postgres and ensures the schema exists. An empty
// DSN returns (nil, nil): archiving disabled.
func Open(ctx context.Context, dsn string, log *logrus.Logger) (*Archive, error) {
	if dsn == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: ensure schema: %w", err)
	}
	return &Archive{pool: pool, log: log}, nil
}

// StoreMatch records the final standings. Players are ranked by coins,
// ties broken by lap count. Safe on nil.
func (a *Archive) StoreMatch(ctx context.Context, roomCode string, players []engine.Player) error {
	if a == nil {
		return nil
	}
	standings := Rank(players)

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("archive: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var matchID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO matches (room_code, finished_at) VALUES ($1, $2) RETURNING id`,
		roomCode, time.Now(),
	).Scan(&matchID)
	if err != nil {
		return fmt.Errorf("archive: insert match: %w", err)
	}

	for i, p := range standings {
		_, err = tx.Exec(ctx,
			`INSERT INTO match_standings (match_id, player_id, name, coins, laps, placing)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			matchID, p.ID, p.Name, p.Coins, p.Laps, i+1,
		)
		if err != nil {
			return fmt.Errorf("archive: insert standing: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Rank orders players into final standings: most coins first, lap
// count as tiebreaker, join order as the final tiebreaker (stable).
func Rank(players []engine.Player) []engine.Player {
	out := append([]engine.Player{}, players...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Coins != out[j].Coins {
			return out[i].Coins > out[j].Coins
		}
		return out[i].Laps > out[j].Laps
	})
	return out
}

// Close releases the pool. Safe on nil.
func (a *Archive) Close() {
	if a == nil {
		return
	}
	a.pool.Close()
}
