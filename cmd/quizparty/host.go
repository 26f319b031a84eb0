package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oskarw/quizparty/internal/archive"
	"github.com/oskarw/quizparty/internal/auth"
	"github.com/oskarw/quizparty/internal/catalog"
	"github.com/oskarw/quizparty/internal/config"
	"github.com/oskarw/quizparty/internal/engine"
	"github.com/oskarw/quizparty/internal/history"
	"github.com/oskarw/quizparty/internal/room"
	"github.com/oskarw/quizparty/internal/transport"
)

func newHostCmd(log *logrus.Logger) *cobra.Command {
	cfg := &config.Host{}

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host a new room and print its join code",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotenv()
			config.BindEnv(cmd.Flags())
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return runHost(cmd.Context(), cfg, log)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZPARTY_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: QUIZPARTY_PORT)")
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "path to a JSON tile/question catalog; built-in when empty (env: QUIZPARTY_CATALOG)")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "engine RNG seed; random when 0 (env: QUIZPARTY_SEED)")
	fs.DurationVar(&cfg.Countdown, "countdown", 3*time.Second, "pre-game countdown (env: QUIZPARTY_COUNTDOWN)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", 30*time.Minute, "shut the room down after this much inactivity; 0 disables (env: QUIZPARTY_IDLE_TIMEOUT)")
	fs.DurationVar(&cfg.RejoinWindow, "rejoin-window", 15*time.Minute, "how long a disconnected guest can still rejoin (env: QUIZPARTY_REJOIN_WINDOW)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "redis address for action history; empty disables (env: QUIZPARTY_REDIS_ADDR)")
	fs.StringVar(&cfg.ArchiveDSN, "archive-dsn", "", "postgres DSN for the match archive; empty disables (env: QUIZPARTY_ARCHIVE_DSN)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "externally reachable base URL for the QR join link (env: QUIZPARTY_PUBLIC_URL)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: QUIZPARTY_VERBOSE)")

	return cmd
}

func runHost(ctx context.Context, cfg *config.Host, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		cat = loaded
	}

	seed := cfg.Seed
	if seed == 0 {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return fmt.Errorf("seed engine: %w", err)
		}
		seed = binary.LittleEndian.Uint64(buf[:])
	}

	code, err := room.NewCode()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokens(cfg.RejoinWindow)
	if err != nil {
		return err
	}

	hist := history.New(cfg.RedisAddr, log)
	defer hist.Close()

	arch, err := archive.Open(ctx, cfg.ArchiveDSN, log)
	if err != nil {
		return err
	}
	defer arch.Close()

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://%s:%d", cfg.Bind, cfg.Port)
	}

	host := transport.NewHost(transport.HostOptions{
		RoomCode:    code,
		Engine:      engine.New(seed, cat),
		Tokens:      tokens,
		History:     hist,
		Archive:     arch,
		Log:         log,
		Countdown:   cfg.Countdown,
		IdleTimeout: cfg.IdleTimeout,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler: host.Router(publicURL),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go host.Run(ctx)
	go hostInputLoop(ctx, host, stop)

	log.WithFields(logrus.Fields{
		"room": code,
		"addr": srv.Addr,
	}).Info("room open")
	fmt.Printf("Room code: %s\nJoin QR:   %s/join/qr\n", code, publicURL)
	fmt.Println("Commands: start | reset | quit")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// hostInputLoop reads room-control commands from the terminal.
func hostInputLoop(ctx context.Context, host *transport.Host, stop func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "start":
			host.StartGame()
		case "reset":
			host.ResetGame()
		case "quit", "exit":
			stop()
			return
		case "":
		default:
			fmt.Println("Commands: start | reset | quit")
		}
	}
}
