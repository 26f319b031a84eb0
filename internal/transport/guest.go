package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oskarw/quizparty/internal/protocol"
	"github.com/oskarw/quizparty/internal/room"
)

// MoveTimeout bounds how long a guest waits for the host to answer a
// turn-advance request before resolving locally to a neutral result.
const MoveTimeout = 10 * time.Second

const joinTimeout = 10 * time.Second

// Guest is the guest-side transport: one outbound connection, all
// inbound broadcasts handed to OnEvent, turn-advance requests
// correlated by request id.
type Guest struct {
	log  *logrus.Logger
	conn Conn
	ws   *websocket.Conn // nil when conn is an in-memory test double

	// OnEvent receives every inbound envelope, including the echo of
	// this guest's own actions. Set before Run.
	OnEvent func(protocol.Envelope)

	selfID uuid.UUID

	moveTimeout time.Duration

	mu      sync.Mutex
	pending map[uuid.UUID]chan protocol.MoveResult
	joinCh  chan protocol.Envelope
}

// Dial connects to a host's websocket endpoint.
func Dial(ctx context.Context, wsURL string, log *logrus.Logger) (*Guest, error) {
	c, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", wsURL, err)
	}
	g := NewGuest(wsConn{c}, log)
	g.ws = c
	return g, nil
}

// DialRoom derives the host's rendezvous endpoint from the room code
// and dials it.
func DialRoom(ctx context.Context, baseURL, roomCode string, log *logrus.Logger) (*Guest, error) {
	code, err := room.NormalizeCode(roomCode)
	if err != nil {
		return nil, err
	}
	return Dial(ctx, fmt.Sprintf("%s/ws/%s", baseURL, room.RendezvousID(code)), log)
}

// NewGuest wraps an established connection. Split from Dial so tests
// can inject an in-memory conn.
func NewGuest(conn Conn, log *logrus.Logger) *Guest {
	return &Guest{
		log:         log,
		conn:        conn,
		moveTimeout: MoveTimeout,
		pending:     make(map[uuid.UUID]chan protocol.MoveResult),
		joinCh:      make(chan protocol.Envelope, 1),
	}
}

// SelfID returns the player id assigned at join, or Nil before then.
func (g *Guest) SelfID() uuid.UUID { return g.selfID }

// Join requests membership and waits for the host's verdict.
func (g *Guest) Join(ctx context.Context, name, rejoinToken string) (protocol.JoinAccepted, error) {
	if err := g.send(ctx, protocol.KindJoinRequest, protocol.JoinRequest{Name: name, RejoinToken: rejoinToken}); err != nil {
		return protocol.JoinAccepted{}, err
	}

	select {
	case env := <-g.joinCh:
		if env.Kind == protocol.KindJoinRejected {
			rej, err := protocol.DecodePayload[protocol.JoinRejected](env)
			if err != nil {
				return protocol.JoinAccepted{}, err
			}
			return protocol.JoinAccepted{}, fmt.Errorf("transport: join rejected: %s", rej.Reason)
		}
		acc, err := protocol.DecodePayload[protocol.JoinAccepted](env)
		if err != nil {
			return protocol.JoinAccepted{}, err
		}
		g.selfID = acc.PlayerID
		return acc, nil

	case <-time.After(joinTimeout):
		return protocol.JoinAccepted{}, fmt.Errorf("transport: join timed out")
	case <-ctx.Done():
		return protocol.JoinAccepted{}, ctx.Err()
	}
}

// SubmitAnswer sends the player's answer; the result arrives as an
// ANSWER_RESULT broadcast.
func (g *Guest) SubmitAnswer(ctx context.Context, questionIndex, answerIndex int) error {
	return g.send(ctx, protocol.KindSubmitAnswer, protocol.SubmitAnswer{
		PlayerID:      g.selfID,
		QuestionIndex: questionIndex,
		AnswerIndex:   answerIndex,
	})
}

// RequestMove asks the host to resolve the movement phase and waits
// for the correlated MOVE_RESULT. On timeout it resolves locally to a
// neutral no-movement result instead of hanging the turn.
func (g *Guest) RequestMove(ctx context.Context, wasCorrect bool) protocol.MoveResult {
	reqID := uuid.New()
	ch := make(chan protocol.MoveResult, 1)
	g.mu.Lock()
	g.pending[reqID] = ch
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.pending, reqID)
		g.mu.Unlock()
	}()

	err := g.send(ctx, protocol.KindNextQuestion, protocol.NextQuestion{
		PlayerID:   g.selfID,
		RequestID:  reqID,
		WasCorrect: wasCorrect,
	})
	if err != nil {
		g.log.WithError(err).Warn("turn advance send failed")
		return g.neutralMove()
	}

	select {
	case res := <-ch:
		return res
	case <-time.After(g.moveTimeout):
		g.log.Warn("turn advance timed out, resolving neutrally")
		return g.neutralMove()
	case <-ctx.Done():
		return g.neutralMove()
	}
}

// neutralMove is the local fallback when the host never answers: no
// movement, no coins, turn over.
func (g *Guest) neutralMove() protocol.MoveResult {
	return protocol.MoveResult{PlayerID: g.selfID, Moved: false}
}

// ResolveTarget answers a steal, report or swap prompt.
func (g *Guest) ResolveTarget(ctx context.Context, kind protocol.Kind, targetID uuid.UUID) error {
	return g.send(ctx, kind, protocol.InteractionTarget{PlayerID: g.selfID, TargetID: targetID})
}

// ResolveGamble answers a gamble prompt.
func (g *Guest) ResolveGamble(ctx context.Context, accept bool) error {
	return g.send(ctx, protocol.KindGambleChoice, protocol.GambleChoice{PlayerID: g.selfID, Accept: accept})
}

// Leave announces departure and closes the connection.
func (g *Guest) Leave(ctx context.Context) error {
	err := g.send(ctx, protocol.KindLeaveGame, protocol.LeaveGame{PlayerID: g.selfID})
	cerr := g.conn.Close("leaving room")
	if err != nil {
		return err
	}
	return cerr
}

// HandleFrame dispatches one inbound envelope: join verdicts to the
// joiner, correlated move results to their waiter, and everything to
// OnEvent. Exposed for the read pump and for tests.
func (g *Guest) HandleFrame(env protocol.Envelope) {
	switch env.Kind {
	case protocol.KindJoinAccepted, protocol.KindJoinRejected:
		select {
		case g.joinCh <- env:
		default:
		}

	case protocol.KindMoveResult:
		if res, err := protocol.DecodePayload[protocol.MoveResult](env); err == nil {
			g.mu.Lock()
			ch, ok := g.pending[res.RequestID]
			g.mu.Unlock()
			if ok {
				select {
				case ch <- res:
				default:
				}
			}
		}
	}

	if g.OnEvent != nil {
		g.OnEvent(env)
	}
}

// Run reads frames until the connection drops. A HOST_DISCONNECTED
// broadcast still arrives through OnEvent before the read fails.
func (g *Guest) Run(ctx context.Context) error {
	if g.ws == nil {
		return fmt.Errorf("transport: guest has no live connection")
	}
	for {
		_, data, err := g.ws.Read(ctx)
		if err != nil {
			return fmt.Errorf("transport: read: %w", err)
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			g.log.WithError(err).Debug("unreadable frame")
			continue
		}
		g.HandleFrame(env)
	}
}

func (g *Guest) send(ctx context.Context, kind protocol.Kind, payload any) error {
	data, err := protocol.Encode(kind, payload)
	if err != nil {
		return err
	}
	return g.conn.Send(ctx, data)
}
