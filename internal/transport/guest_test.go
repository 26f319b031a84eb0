package transport

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oskarw/quizparty/internal/protocol"
)

// recordConn captures outbound frames for inspection.
type recordConn struct {
	mu     sync.Mutex
	frames []protocol.Envelope
	closed bool
}

func (r *recordConn) Send(ctx context.Context, data []byte) error {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.frames = append(r.frames, env)
	r.mu.Unlock()
	return nil
}

func (r *recordConn) Close(reason string) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recordConn) last(t *testing.T) protocol.Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	return r.frames[len(r.frames)-1]
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestGuestJoinAccepted(t *testing.T) {
	conn := &recordConn{}
	g := NewGuest(conn, quietLog())

	playerID := uuid.New()
	go func() {
		data, _ := protocol.Encode(protocol.KindJoinAccepted, protocol.JoinAccepted{
			PlayerID: playerID,
			RoomCode: "ABCDEF",
		})
		env, _ := protocol.DecodeEnvelope(data)
		g.HandleFrame(env)
	}()

	acc, err := g.Join(context.Background(), "Ada", "")
	require.NoError(t, err)
	assert.Equal(t, playerID, acc.PlayerID)
	assert.Equal(t, playerID, g.SelfID())

	sent := conn.last(t)
	assert.Equal(t, protocol.KindJoinRequest, sent.Kind)
}

func TestGuestJoinRejected(t *testing.T) {
	conn := &recordConn{}
	g := NewGuest(conn, quietLog())

	go func() {
		data, _ := protocol.Encode(protocol.KindJoinRejected, protocol.JoinRejected{Reason: "full"})
		env, _ := protocol.DecodeEnvelope(data)
		g.HandleFrame(env)
	}()

	_, err := g.Join(context.Background(), "Ada", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}

func TestRequestMoveCorrelation(t *testing.T) {
	conn := &recordConn{}
	g := NewGuest(conn, quietLog())
	g.selfID = uuid.New()

	// Answer the request as the host would: echo the request id.
	go func() {
		deadline := time.After(time.Second)
		for {
			conn.mu.Lock()
			var req *protocol.Envelope
			for _, f := range conn.frames {
				if f.Kind == protocol.KindNextQuestion {
					cp := f
					req = &cp
					break
				}
			}
			conn.mu.Unlock()
			if req != nil {
				nq, err := protocol.DecodePayload[protocol.NextQuestion](*req)
				if err != nil {
					return
				}
				data, _ := protocol.Encode(protocol.KindMoveResult, protocol.MoveResult{
					RequestID: nq.RequestID,
					PlayerID:  nq.PlayerID,
					Moved:     true,
					Roll:      5,
				})
				env, _ := protocol.DecodeEnvelope(data)
				g.HandleFrame(env)
				return
			}
			select {
			case <-deadline:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	res := g.RequestMove(context.Background(), true)
	assert.True(t, res.Moved)
	assert.Equal(t, 5, res.Roll)
}

func TestRequestMoveTimesOutToNeutralResult(t *testing.T) {
	conn := &recordConn{}
	g := NewGuest(conn, quietLog())
	g.selfID = uuid.New()
	g.moveTimeout = 20 * time.Millisecond

	res := g.RequestMove(context.Background(), true)
	assert.False(t, res.Moved, "timeout resolves to a neutral no-movement result")
	assert.Equal(t, g.selfID, res.PlayerID)
	assert.Zero(t, res.Roll)
}

func TestForeignMoveResultDoesNotRelease(t *testing.T) {
	conn := &recordConn{}
	g := NewGuest(conn, quietLog())
	g.selfID = uuid.New()
	g.moveTimeout = 30 * time.Millisecond

	var delivered []protocol.Kind
	g.OnEvent = func(env protocol.Envelope) { delivered = append(delivered, env.Kind) }

	// A broadcast for another player's move carries a foreign request id.
	go func() {
		data, _ := protocol.Encode(protocol.KindMoveResult, protocol.MoveResult{
			RequestID: uuid.New(),
			PlayerID:  uuid.New(),
			Moved:     true,
		})
		env, _ := protocol.DecodeEnvelope(data)
		g.HandleFrame(env)
	}()

	res := g.RequestMove(context.Background(), true)
	assert.False(t, res.Moved, "foreign result must not satisfy the await")
	assert.Contains(t, delivered, protocol.KindMoveResult, "but it still reaches the event path")
}

func TestHandleFrameForwardsToOnEvent(t *testing.T) {
	g := NewGuest(&recordConn{}, quietLog())
	var got []protocol.Kind
	g.OnEvent = func(env protocol.Envelope) { got = append(got, env.Kind) }

	data, _ := protocol.Encode(protocol.KindStateUpdate, protocol.StateUpdate{})
	env, _ := protocol.DecodeEnvelope(data)
	g.HandleFrame(env)

	assert.Equal(t, []protocol.Kind{protocol.KindStateUpdate}, got)
}

func TestLeaveSendsAndCloses(t *testing.T) {
	conn := &recordConn{}
	g := NewGuest(conn, quietLog())
	g.selfID = uuid.New()

	require.NoError(t, g.Leave(context.Background()))
	assert.Equal(t, protocol.KindLeaveGame, conn.last(t).Kind)
	assert.True(t, conn.closed)
}

func TestResolveMessages(t *testing.T) {
	conn := &recordConn{}
	g := NewGuest(conn, quietLog())
	g.selfID = uuid.New()

	target := uuid.New()
	require.NoError(t, g.ResolveTarget(context.Background(), protocol.KindStealTarget, target))
	env := conn.last(t)
	assert.Equal(t, protocol.KindStealTarget, env.Kind)
	msg, err := protocol.DecodePayload[protocol.InteractionTarget](env)
	require.NoError(t, err)
	assert.Equal(t, target, msg.TargetID)

	require.NoError(t, g.ResolveGamble(context.Background(), true))
	env = conn.last(t)
	assert.Equal(t, protocol.KindGambleChoice, env.Kind)
	gc, err := protocol.DecodePayload[protocol.GambleChoice](env)
	require.NoError(t, err)
	assert.True(t, gc.Accept)
}
