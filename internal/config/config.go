// Package config holds the runtime configuration for hosting or
// joining a room, filled from flags and QUIZPARTY_-prefixed
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Host configures `quizparty host`.
type Host struct {
	Bind        string
	Port        int
	CatalogPath string
	Seed        uint64

	Countdown    time.Duration
	IdleTimeout  time.Duration
	RejoinWindow time.Duration

	RedisAddr   string
	ArchiveDSN  string
	PublicURL   string
	Verbose     bool
}

// Guest configures `quizparty join`.
type Guest struct {
	RoomCode string
	HostURL  string
	Name     string
	Verbose  bool
}

func (c *Host) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.Countdown < 0 {
		return errors.New("countdown must not be negative")
	}
	return nil
}

func (c *Guest) Validate() error {
	if c.RoomCode == "" {
		return errors.New("a room code is required")
	}
	if c.Name == "" {
		return errors.New("a display name is required")
	}
	return nil
}

// LoadDotenv loads a .env file when present, for the Redis and
// Postgres DSNs that do not belong on a command line. A missing file
// is not an error.
func LoadDotenv() {
	_ = godotenv.Load()
}

// BindEnv wires every flag in fs to a QUIZPARTY_-prefixed environment
// variable: a flag not set on the command line takes its value from
// the environment when present.
func BindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix("QUIZPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}
