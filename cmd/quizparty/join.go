package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oskarw/quizparty/internal/client"
	"github.com/oskarw/quizparty/internal/config"
	"github.com/oskarw/quizparty/internal/engine"
	"github.com/oskarw/quizparty/internal/protocol"
	"github.com/oskarw/quizparty/internal/sched"
	"github.com/oskarw/quizparty/internal/transport"
)

func newJoinCmd(log *logrus.Logger) *cobra.Command {
	cfg := &config.Guest{}

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join an existing room as a guest",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.BindEnv(cmd.Flags())
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return runJoin(cmd.Context(), cfg, log)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.RoomCode, "room", "r", "", "room code to join (env: QUIZPARTY_ROOM)")
	fs.StringVar(&cfg.HostURL, "host-url", "ws://localhost:8080", "base URL of the hosting peer (env: QUIZPARTY_HOST_URL)")
	fs.StringVarP(&cfg.Name, "name", "n", "", "display name (env: QUIZPARTY_NAME)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: QUIZPARTY_VERBOSE)")

	return cmd
}

// guestSession glues the transport, the shared reducer and the
// presentation scheduler together for a terminal guest.
type guestSession struct {
	log   *logrus.Logger
	guest *transport.Guest
	timer *sched.Scheduler

	// mu serializes state access: events arrive concurrently from the
	// read pump, the terminal input loop and scheduler callbacks.
	mu    sync.Mutex
	state client.State
	// lastCorrect remembers the verdict of the most recent answer, for
	// the turn-advance request that follows it.
	lastCorrect bool
}

// apply feeds one event through the reducer and prints whatever
// notification it surfaces.
func (s *guestSession) apply(ev client.Event) {
	s.mu.Lock()
	s.state = client.Reduce(s.state, ev)
	active := s.state.Active
	if active != nil {
		s.state = client.Reduce(s.state, client.EvNotificationDismissed{})
	}
	s.mu.Unlock()
	if active != nil {
		fmt.Printf("* %s\n", active.Text)
	}
}

// snapshot returns a copy of the current state for reading.
func (s *guestSession) snapshot() client.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *guestSession) setLastCorrect(v bool) {
	s.mu.Lock()
	s.lastCorrect = v
	s.mu.Unlock()
}

func (s *guestSession) wasCorrect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCorrect
}

func runJoin(ctx context.Context, cfg *config.Guest, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	guest, err := transport.DialRoom(ctx, cfg.HostURL, cfg.RoomCode, log)
	if err != nil {
		return err
	}

	s := &guestSession{
		log:   log,
		guest: guest,
		timer: sched.New(),
	}
	defer s.timer.Close()
	guest.OnEvent = s.onEvent

	readErr := make(chan error, 1)
	go func() { readErr <- guest.Run(ctx) }()

	acc, err := guest.Join(ctx, cfg.Name, "")
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = client.NewState(acc.RoomCode, acc.PlayerID)
	s.state = client.Reduce(s.state, client.EvRoster{Players: acc.Players})
	s.mu.Unlock()
	fmt.Printf("Joined room %s as %s\n", acc.RoomCode, cfg.Name)

	go s.inputLoop(ctx)

	select {
	case <-ctx.Done():
		return guest.Leave(context.Background())
	case err := <-readErr:
		if s.snapshot().HostGone {
			fmt.Println("Host closed the room.")
			return nil
		}
		return err
	}
}

// onEvent maps host broadcasts onto reducer events. Runs on the read
// goroutine; the session mutex serializes it against the input loop
// and scheduled presentation cues.
func (s *guestSession) onEvent(env protocol.Envelope) {
	switch env.Kind {
	case protocol.KindPlayerJoined:
		if msg, err := protocol.DecodePayload[protocol.PlayerJoined](env); err == nil {
			s.apply(client.EvRoster{Players: msg.Players})
			fmt.Printf("%s joined\n", msg.Player.Name)
		}
	case protocol.KindPlayerLeft:
		if msg, err := protocol.DecodePayload[protocol.PlayerLeft](env); err == nil {
			s.apply(client.EvRoster{Players: msg.Players})
		}
	case protocol.KindStateUpdate:
		if msg, err := protocol.DecodePayload[protocol.StateUpdate](env); err == nil {
			s.apply(client.EvRoster{Players: msg.Players})
		}
	case protocol.KindGameStarted:
		if msg, err := protocol.DecodePayload[protocol.GameStarted](env); err == nil {
			s.apply(client.EvGameStarted{CountdownSeconds: msg.CountdownSeconds, Players: msg.Players})
			fmt.Printf("Game starting in %ds!\n", msg.CountdownSeconds)
			s.timer.After(secondsDuration(msg.CountdownSeconds), func() {
				s.apply(client.EvCountdownDone{})
				s.apply(client.EvQuestionShown{})
				fmt.Println("Go! Answer with: answer <index>")
			})
		}
	case protocol.KindAnswerResult:
		if msg, err := protocol.DecodePayload[protocol.AnswerResult](env); err == nil {
			s.apply(client.EvAnswerResult{Result: msg})
			if msg.PlayerID == s.snapshot().SelfID {
				s.setLastCorrect(msg.Correct)
				if msg.Correct {
					fmt.Printf("Correct! +%d coins. Type: roll\n", msg.Delta)
				} else {
					fmt.Printf("Wrong. %d coins. Type: roll\n", msg.Delta)
				}
			}
		}
	case protocol.KindMoveResult:
		if msg, err := protocol.DecodePayload[protocol.MoveResult](env); err == nil {
			s.presentMove(msg)
		}
	case protocol.KindStealPrompt, protocol.KindReportPrompt, protocol.KindSwapPrompt, protocol.KindGamblePrompt:
		// The prompt itself arrives inside MOVE_RESULT; this broadcast
		// refreshes the roster for everyone watching.
		if msg, err := protocol.DecodePayload[protocol.InteractionPromptEvent](env); err == nil {
			s.apply(client.EvRoster{Players: msg.Players})
		}

	case protocol.KindStealResult, protocol.KindReportResult, protocol.KindSwapResult, protocol.KindGambleResult:
		kind, _ := protocol.InteractionFor(env.Kind)
		if msg, err := protocol.DecodePayload[protocol.InteractionResult](env); err == nil {
			s.apply(client.EvInteractionResult{Kind: kind, Result: msg})
			fmt.Println(msg.Text)
		}
	case protocol.KindSharedTileEvent:
		if msg, err := protocol.DecodePayload[protocol.SharedTileEvent](env); err == nil {
			s.apply(client.EvSharedTile{Event: msg})
		}
	case protocol.KindGameReset:
		if msg, err := protocol.DecodePayload[protocol.GameReset](env); err == nil {
			s.apply(client.EvGameReset{Players: msg.Players})
			s.timer.CancelAll()
			fmt.Println("Room reset to lobby.")
		}
	case protocol.KindHostDisconnected:
		s.apply(client.EvHostDisconnected{})
		s.timer.CancelAll()
	}
}

// presentMove schedules the presentation timeline for a move and feeds
// the reducer at each step.
func (s *guestSession) presentMove(msg protocol.MoveResult) {
	s.apply(client.EvMoveResult{Result: msg})
	mine := msg.PlayerID == s.snapshot().SelfID

	tasks := sched.Timeline(msg)
	for i := range tasks {
		switch tasks[i].Name {
		case "dice":
			roll := msg.Roll
			tasks[i].Action = func() {
				if mine {
					fmt.Printf("You rolled a %d!\n", roll)
				}
			}
		case "movement":
			tasks[i].Action = func() { s.apply(client.EvMovementDone{}) }
		case "tile_resolve":
			text := msg.TileText
			tasks[i].Action = func() {
				s.apply(client.EvTileResolved{})
				if mine && text != "" {
					fmt.Println(text)
				}
				if mine && s.snapshot().Pending != nil {
					s.promptInteraction()
				} else {
					s.apply(client.EvResultShown{})
					s.apply(client.EvQuestionShown{})
				}
			}
		case "lap_bonus":
			tasks[i].Action = func() {
				if mine {
					fmt.Printf("Lap complete! +%d coins\n", msg.LapBonus)
				}
			}
		case "tile_event":
			text := ""
			if msg.Event != nil {
				text = msg.Event.Text
			}
			tasks[i].Action = func() { fmt.Println(text) }
		}
	}
	s.timer.Run(tasks)
}

func (s *guestSession) promptInteraction() {
	st := s.snapshot()
	if st.Pending == nil {
		return
	}
	if st.PendingKind == engine.InteractionGamble {
		fmt.Println("Gamble? Type: gamble yes | gamble no")
		return
	}
	fmt.Printf("Choose a target (%s):\n", st.PendingKind)
	for i, id := range st.Pending.Targets {
		if name, ok := targetName(st, id); ok {
			fmt.Printf("  %d: %s\n", i, name)
		}
	}
	fmt.Println("Type: target <index>")
}

func targetName(st client.State, id uuid.UUID) (string, bool) {
	for _, p := range st.Players {
		if p.ID == id {
			return p.Name, true
		}
	}
	return "", false
}

// inputLoop reads commands from the terminal until ctx ends.
func (s *guestSession) inputLoop(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "answer":
			if len(fields) < 2 {
				fmt.Println("usage: answer <index>")
				continue
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("usage: answer <index>")
				continue
			}
			self, ok := s.snapshot().Self()
			if !ok {
				continue
			}
			s.apply(client.EvAnswerChosen{})
			if err := s.guest.SubmitAnswer(ctx, self.QuestionIndex, idx); err != nil {
				s.log.WithError(err).Warn("submit answer")
			}

		case "roll":
			if _, ok := s.snapshot().Self(); !ok {
				continue
			}
			res := s.guest.RequestMove(ctx, s.wasCorrect())
			if !res.Moved {
				s.apply(client.EvResultShown{})
				s.apply(client.EvQuestionShown{})
			}

		case "target":
			st := s.snapshot()
			if len(fields) < 2 || st.Pending == nil {
				continue
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil || idx < 0 || idx >= len(st.Pending.Targets) {
				fmt.Println("usage: target <index>")
				continue
			}
			kind, _ := protocol.TargetKind(st.PendingKind)
			if err := s.guest.ResolveTarget(ctx, kind, st.Pending.Targets[idx]); err != nil {
				s.log.WithError(err).Warn("resolve target")
			}

		case "gamble":
			if len(fields) < 2 {
				continue
			}
			accept := fields[1] == "yes" || fields[1] == "y"
			if err := s.guest.ResolveGamble(ctx, accept); err != nil {
				s.log.WithError(err).Warn("resolve gamble")
			}

		case "leave", "quit":
			_ = s.guest.Leave(ctx)
			return

		default:
			fmt.Println("commands: answer <i> | roll | target <i> | gamble yes/no | leave")
		}
	}
}

func secondsDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}
