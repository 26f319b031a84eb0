package transport

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oskarw/quizparty/internal/archive"
	"github.com/oskarw/quizparty/internal/auth"
	"github.com/oskarw/quizparty/internal/engine"
	"github.com/oskarw/quizparty/internal/history"
	"github.com/oskarw/quizparty/internal/protocol"
)

// sendQueueSize bounds each peer's outbound queue. A peer that cannot
// drain this many frames is considered dead.
const sendQueueSize = 64

// HostOptions configures a Host.
type HostOptions struct {
	RoomCode  string
	Engine    *engine.Engine
	Tokens    *auth.Tokens
	History   *history.Publisher // nil disables
	Archive   *archive.Archive   // nil disables
	Log       *logrus.Logger
	Countdown time.Duration
	// IdleTimeout shuts the room down when no frame arrives for this
	// long. Zero disables reaping.
	IdleTimeout time.Duration
	// LocalDeliver receives every broadcast, giving the host UI the
	// same event path as a guest. Called from the run loop.
	LocalDeliver func(protocol.Envelope)
}

// Host accepts guest connections, serializes every inbound frame into
// one run loop, mutates the engine there, and fans results out to all
// peers plus the local handler.
type Host struct {
	opts  HostOptions
	log   *logrus.Logger
	inbox chan command
	done  chan struct{}

	// Run-loop-owned state. Never touched from other goroutines.
	peers      map[uuid.UUID]*peer
	peerByPlay map[uuid.UUID]uuid.UUID // playerID -> connection id
	started    bool
}

type peer struct {
	id       uuid.UUID
	conn     Conn
	send     chan []byte
	playerID uuid.UUID // Nil until a join is accepted
}

// Inbound commands for the run loop.
type command interface{ isCommand() }

type cmdFrame struct {
	connID uuid.UUID
	env    protocol.Envelope
}

type cmdConnOpened struct {
	p *peer
}

type cmdConnClosed struct {
	connID uuid.UUID
	err    error
}

type cmdStartGame struct{}
type cmdResetGame struct{}

func (cmdFrame) isCommand()      {}
func (cmdConnOpened) isCommand() {}
func (cmdConnClosed) isCommand() {}
func (cmdStartGame) isCommand()  {}
func (cmdResetGame) isCommand()  {}

// NewHost builds a host transport around an engine.
func NewHost(opts HostOptions) *Host {
	return &Host{
		opts:       opts,
		log:        opts.Log,
		inbox:      make(chan command, 256),
		done:       make(chan struct{}),
		peers:      make(map[uuid.UUID]*peer),
		peerByPlay: make(map[uuid.UUID]uuid.UUID),
	}
}

// StartGame begins the countdown and locks the roster against fresh
// joins (rejoins stay possible).
func (h *Host) StartGame() { h.inbox <- cmdStartGame{} }

// ResetGame returns the room to the lobby.
func (h *Host) ResetGame() { h.inbox <- cmdResetGame{} }

// Run drives the host until ctx is cancelled. On exit it broadcasts
// HOST_DISCONNECTED, archives the match and closes every peer.
func (h *Host) Run(ctx context.Context) {
	defer close(h.done)

	var idle *time.Timer
	var idleC <-chan time.Time
	if h.opts.IdleTimeout > 0 {
		idle = time.NewTimer(h.opts.IdleTimeout)
		defer idle.Stop()
		idleC = idle.C
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown(context.Background())
			return

		case <-idleC:
			h.log.WithField("room", h.opts.RoomCode).Info("idle timeout, shutting room down")
			h.shutdown(context.Background())
			return

		case cmd := <-h.inbox:
			if idle != nil {
				if !idle.Stop() {
					<-idle.C
				}
				idle.Reset(h.opts.IdleTimeout)
			}
			h.handle(ctx, cmd)
		}
	}
}

func (h *Host) handle(ctx context.Context, cmd command) {
	switch c := cmd.(type) {
	case cmdConnOpened:
		h.peers[c.p.id] = c.p

	case cmdConnClosed:
		h.dropPeer(ctx, c.connID, c.err)

	case cmdStartGame:
		h.started = true
		h.broadcast(ctx, protocol.KindGameStarted, protocol.GameStarted{
			CountdownSeconds: int(h.opts.Countdown / time.Second),
			Players:          protocol.Roster(h.opts.Engine.Players()),
		})
		h.record(ctx, "game_started", uuid.Nil, nil)

	case cmdResetGame:
		h.started = false
		h.broadcast(ctx, protocol.KindGameReset, protocol.GameReset{
			Players: protocol.Roster(h.opts.Engine.Players()),
		})
		h.record(ctx, "game_reset", uuid.Nil, nil)

	case cmdFrame:
		h.handleFrame(ctx, c.connID, c.env)
	}
}

func (h *Host) handleFrame(ctx context.Context, connID uuid.UUID, env protocol.Envelope) {
	p, ok := h.peers[connID]
	if !ok {
		return // frame from an already-dropped connection
	}

	switch env.Kind {
	case protocol.KindJoinRequest:
		h.handleJoin(ctx, p, env)

	case protocol.KindSubmitAnswer:
		msg, err := protocol.DecodePayload[protocol.SubmitAnswer](env)
		if err != nil {
			h.logDecodeErr(env, err)
			return
		}
		if !h.claimsSelf(p, msg.PlayerID) {
			return
		}
		res, err := h.opts.Engine.SubmitAnswer(msg.PlayerID, msg.QuestionIndex, msg.AnswerIndex)
		if err != nil {
			h.log.WithError(err).WithField("player", msg.PlayerID).Warn("answer rejected")
			return
		}
		h.broadcast(ctx, protocol.KindAnswerResult, protocol.AnswerResultPayload(res, h.opts.Engine.Players()))
		h.record(ctx, "answer", msg.PlayerID, res)

	case protocol.KindNextQuestion:
		msg, err := protocol.DecodePayload[protocol.NextQuestion](env)
		if err != nil {
			h.logDecodeErr(env, err)
			return
		}
		if !h.claimsSelf(p, msg.PlayerID) {
			return
		}
		res, err := h.opts.Engine.AdvanceTurn(msg.PlayerID, msg.WasCorrect)
		if err != nil {
			h.log.WithError(err).WithField("player", msg.PlayerID).Warn("turn advance rejected")
			return
		}
		payload := protocol.MoveResultPayload(msg.RequestID, res, h.opts.Engine.Players())
		h.broadcast(ctx, protocol.KindMoveResult, payload)
		if res.Prompt != nil {
			if kind, ok := protocol.PromptKind(res.Prompt.Kind); ok {
				h.broadcast(ctx, kind, protocol.InteractionPromptEvent{
					Prompt:  *payload.Prompt,
					Players: protocol.Roster(h.opts.Engine.Players()),
				})
			}
		}
		if payload.SharedTile != nil {
			h.broadcast(ctx, protocol.KindSharedTileEvent, protocol.SharedTileEvent{
				SharedTile: *payload.SharedTile,
				Players:    protocol.Roster(h.opts.Engine.Players()),
			})
		}
		h.record(ctx, "move", msg.PlayerID, payload)

	case protocol.KindStealTarget, protocol.KindReportTarget, protocol.KindSwapTarget:
		kind, _ := protocol.InteractionFor(env.Kind)
		msg, err := protocol.DecodePayload[protocol.InteractionTarget](env)
		if err != nil {
			h.logDecodeErr(env, err)
			return
		}
		if !h.claimsSelf(p, msg.PlayerID) {
			return
		}
		h.resolveInteraction(ctx, kind, msg.PlayerID, msg.TargetID)

	case protocol.KindGambleChoice:
		msg, err := protocol.DecodePayload[protocol.GambleChoice](env)
		if err != nil {
			h.logDecodeErr(env, err)
			return
		}
		if !h.claimsSelf(p, msg.PlayerID) {
			return
		}
		// Investing is signalled by a non-nil target id.
		target := uuid.Nil
		if msg.Accept {
			target = msg.PlayerID
		}
		h.resolveInteraction(ctx, engine.InteractionGamble, msg.PlayerID, target)

	case protocol.KindLeaveGame:
		msg, err := protocol.DecodePayload[protocol.LeaveGame](env)
		if err != nil {
			h.logDecodeErr(env, err)
			return
		}
		if !h.claimsSelf(p, msg.PlayerID) {
			return
		}
		h.removePlayer(ctx, msg.PlayerID)
		p.playerID = uuid.Nil

	default:
		h.log.WithField("kind", env.Kind).Warn("unknown inbound message kind")
	}
}

// claimsSelf reports whether the frame's claimed player id matches the
// connection it arrived on. The host is trusted; fellow guests are not,
// so a frame acting for another player is dropped.
func (h *Host) claimsSelf(p *peer, claimed uuid.UUID) bool {
	if claimed != uuid.Nil && claimed == p.playerID {
		return true
	}
	h.log.WithFields(logrus.Fields{
		"conn":    p.id,
		"claimed": claimed,
	}).Warn("frame claims a player the connection does not own, dropped")
	return false
}

func (h *Host) handleJoin(ctx context.Context, p *peer, env protocol.Envelope) {
	msg, err := protocol.DecodePayload[protocol.JoinRequest](env)
	if err != nil {
		h.logDecodeErr(env, err)
		return
	}

	// A valid rejoin token re-attaches the guest to its player.
	if msg.RejoinToken != "" {
		playerID, err := h.opts.Tokens.Verify(h.opts.RoomCode, msg.RejoinToken)
		switch {
		case err != nil:
			h.log.WithError(err).Warn("rejoin token rejected, treating as fresh join")
		default:
			if _, exists := h.opts.Engine.Player(playerID); exists {
				h.attach(ctx, p, playerID, msg.RejoinToken)
				// Resync everyone: the returning player's connection state
				// changed without any engine mutation to announce it.
				h.broadcast(ctx, protocol.KindStateUpdate, protocol.StateUpdate{
					Players: protocol.Roster(h.opts.Engine.Players()),
				})
				return
			}
			h.log.WithField("player", playerID).Warn("rejoin token for a departed player, treating as fresh join")
		}
	}

	if h.started {
		h.sendTo(ctx, p, protocol.KindJoinRejected, protocol.JoinRejected{Reason: "game already in progress"})
		return
	}
	if msg.Name == "" {
		h.sendTo(ctx, p, protocol.KindJoinRejected, protocol.JoinRejected{Reason: "a display name is required"})
		return
	}

	player := h.opts.Engine.AddPlayer(msg.Name)
	token, err := h.opts.Tokens.Issue(h.opts.RoomCode, player.ID)
	if err != nil {
		h.log.WithError(err).Error("issue rejoin token")
	}
	h.attach(ctx, p, player.ID, token)
	h.broadcast(ctx, protocol.KindPlayerJoined, protocol.PlayerJoined{
		Player:  protocol.Roster([]engine.Player{player})[0],
		Players: protocol.Roster(h.opts.Engine.Players()),
	})
	h.record(ctx, "player_joined", player.ID, nil)
}

func (h *Host) attach(ctx context.Context, p *peer, playerID uuid.UUID, token string) {
	// A stale connection for the same player is superseded. Its send
	// queue closes here so the write pump terminates; its eventual
	// close notification finds the peer already gone.
	if oldConn, ok := h.peerByPlay[playerID]; ok && oldConn != p.id {
		if old, ok := h.peers[oldConn]; ok {
			old.playerID = uuid.Nil
			close(old.send)
			_ = old.conn.Close("superseded by reconnect")
			delete(h.peers, oldConn)
		}
	}
	p.playerID = playerID
	h.peerByPlay[playerID] = p.id
	h.sendTo(ctx, p, protocol.KindJoinAccepted, protocol.JoinAccepted{
		PlayerID:    playerID,
		RoomCode:    h.opts.RoomCode,
		RejoinToken: token,
		Started:     h.started,
		Players:     protocol.Roster(h.opts.Engine.Players()),
	})
}

func (h *Host) resolveInteraction(ctx context.Context, kind engine.InteractionKind, actorID, targetID uuid.UUID) {
	res, err := h.opts.Engine.ResolveInteraction(kind, actorID, targetID)
	if err != nil {
		h.log.WithError(err).WithField("actor", actorID).Warn("interaction rejected")
		return
	}
	if res == nil {
		return // stale or duplicate resolution, tolerated
	}
	resultKind, _ := protocol.ResultKind(kind)
	payload := protocol.InteractionResultPayload(res, h.opts.Engine.Players())
	h.broadcast(ctx, resultKind, payload)
	if payload.SharedTile != nil {
		h.broadcast(ctx, protocol.KindSharedTileEvent, protocol.SharedTileEvent{
			SharedTile: *payload.SharedTile,
			Players:    protocol.Roster(h.opts.Engine.Players()),
		})
	}
	h.record(ctx, "interaction", actorID, payload)
}

// removePlayer deletes the player from the engine (which purges any
// pending interaction) and tells everyone.
func (h *Host) removePlayer(ctx context.Context, playerID uuid.UUID) {
	if playerID == uuid.Nil {
		return
	}
	h.opts.Engine.RemovePlayer(playerID)
	delete(h.peerByPlay, playerID)
	h.broadcast(ctx, protocol.KindPlayerLeft, protocol.PlayerLeft{
		PlayerID: playerID,
		Players:  protocol.Roster(h.opts.Engine.Players()),
	})
	h.record(ctx, "player_left", playerID, nil)
}

// dropPeer handles a dead connection: the peer's player leaves as if
// it had sent LEAVE_GAME.
func (h *Host) dropPeer(ctx context.Context, connID uuid.UUID, cause error) {
	p, ok := h.peers[connID]
	if !ok {
		return
	}
	delete(h.peers, connID)
	close(p.send)
	if cause != nil && !errors.Is(cause, context.Canceled) {
		h.log.WithError(cause).WithField("conn", connID).Debug("connection closed")
	}
	h.removePlayer(ctx, p.playerID)
}

// broadcast encodes once and fans out to every peer and the local
// handler. A peer with a full send queue is dropped rather than
// allowed to stall the room.
func (h *Host) broadcast(ctx context.Context, kind protocol.Kind, payload any) {
	data, err := protocol.Encode(kind, payload)
	if err != nil {
		h.log.WithError(err).WithField("kind", kind).Error("encode broadcast")
		return
	}

	if h.opts.LocalDeliver != nil {
		if env, err := protocol.DecodeEnvelope(data); err == nil {
			h.opts.LocalDeliver(env)
		}
	}

	var stalled []uuid.UUID
	for id, p := range h.peers {
		select {
		case p.send <- data:
		default:
			stalled = append(stalled, id)
		}
	}
	for _, id := range stalled {
		h.log.WithField("conn", id).Warn("send queue full, dropping peer")
		h.dropPeer(ctx, id, nil)
	}
}

// sendTo queues a frame for one peer only.
func (h *Host) sendTo(ctx context.Context, p *peer, kind protocol.Kind, payload any) {
	data, err := protocol.Encode(kind, payload)
	if err != nil {
		h.log.WithError(err).WithField("kind", kind).Error("encode frame")
		return
	}
	select {
	case p.send <- data:
	default:
		h.dropPeer(ctx, p.id, nil)
	}
}

func (h *Host) shutdown(ctx context.Context) {
	h.broadcast(ctx, protocol.KindHostDisconnected, protocol.HostDisconnected{Reason: "host shut down"})

	players := h.opts.Engine.Players()
	if err := h.opts.Archive.StoreMatch(ctx, h.opts.RoomCode, players); err != nil {
		h.log.WithError(err).Warn("archive final standings")
	}

	for id, p := range h.peers {
		close(p.send)
		_ = p.conn.Close("host shutting down")
		delete(h.peers, id)
	}
}

func (h *Host) record(ctx context.Context, kind string, actorID uuid.UUID, payload any) {
	h.opts.History.Record(ctx, h.opts.RoomCode, kind, actorID, payload)
}

func (h *Host) logDecodeErr(env protocol.Envelope, err error) {
	h.log.WithError(err).WithField("kind", env.Kind).Warn("malformed payload")
}
