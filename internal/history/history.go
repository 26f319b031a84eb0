// Package history publishes game events to a Redis stream for later
// analysis. Publishing is strictly fire-and-forget: a nil publisher or
// a failing Redis never affects the game, it only logs.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Entry is one recorded game event.
type Entry struct {
	RoomCode string    `json:"roomCode"`
	Seq      int       `json:"seq"`
	Kind     string    `json:"kind"`
	ActorID  uuid.UUID `json:"actorId,omitempty"`
	Payload  any       `json:"payload,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher appends entries to a per-room Redis stream. The zero value
// (nil) is a valid disabled publisher.
type Publisher struct {
	rdb *redis.Client
	log *logrus.Logger
	seq int
}

// New connects a publisher to Redis. addr empty returns nil, which
// disables history entirely.
func New(addr string, log *logrus.Logger) *Publisher {
	if addr == "" {
		return nil
	}
	return &Publisher{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		log: log,
	}
}

func streamKey(roomCode string) string {
	return fmt.Sprintf("quizparty:history:%s", roomCode)
}

// Record appends one event to the room's stream. Safe to call on a nil
// publisher.
func (p *Publisher) Record(ctx context.Context, roomCode, kind string, actorID uuid.UUID, payload any) {
	if p == nil {
		return
	}
	p.seq++
	e := Entry{
		RoomCode: roomCode,
		Seq:      p.seq,
		Kind:     kind,
		ActorID:  actorID,
		Payload:  payload,
		At:       time.Now(),
	}
	body, err := json.Marshal(e)
	if err != nil {
		p.log.WithError(err).Warn("history: marshal entry")
		return
	}
	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(roomCode),
		Values: map[string]any{"event": body},
	}).Err()
	if err != nil {
		p.log.WithError(err).WithField("kind", kind).Warn("history: record failed")
	}
}

// Close releases the Redis connection. Safe on nil.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}
