// Package config loads runtime settings from an optional JSON file and
// TICTACTOE_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-solo/internal/opponent"
)

// Config holds the runtime settings of both binaries.
type Config struct {
	Addr          string `json:"addr"`
	ThinkDelayMs  int    `json:"think_delay_ms"`
	HeartbeatMs   int    `json:"heartbeat_ms"`
	AttackingMode bool   `json:"attacking_mode"`
	DefensiveMode bool   `json:"defensive_mode"`
	TieBreak      string `json:"tie_break"`
	Seed          uint64 `json:"seed"`
	LogLevel      string `json:"log_level"`
	LogPretty     bool   `json:"log_pretty"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:          ":8080",
		ThinkDelayMs:  500,
		HeartbeatMs:   15000,
		AttackingMode: true,
		DefensiveMode: true,
		TieBreak:      "first",
		LogLevel:      "info",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TICTACTOE_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := lookup("TICTACTOE_TIE_BREAK"); ok {
		c.TieBreak = v
	}
	if v, ok := lookup("TICTACTOE_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	ints := map[string]*int{
		"TICTACTOE_THINK_DELAY_MS": &c.ThinkDelayMs,
		"TICTACTOE_HEARTBEAT_MS":   &c.HeartbeatMs,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	bools := map[string]*bool{
		"TICTACTOE_ATTACKING_MODE": &c.AttackingMode,
		"TICTACTOE_DEFENSIVE_MODE": &c.DefensiveMode,
		"TICTACTOE_LOG_PRETTY":     &c.LogPretty,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup("TICTACTOE_SEED"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("TICTACTOE_SEED: %w", err)
		}
		c.Seed = n
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.ThinkDelayMs < 0 {
		errs = append(errs, errors.New("think_delay_ms must be >= 0"))
	}
	if c.HeartbeatMs <= 0 {
		errs = append(errs, errors.New("heartbeat_ms must be > 0"))
	}
	if _, err := opponent.ParseTieBreak(c.TieBreak); err != nil {
		errs = append(errs, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// ThinkDelay is the pause before the computer replies.
func (c Config) ThinkDelay() time.Duration { return time.Duration(c.ThinkDelayMs) * time.Millisecond }

func (c Config) Heartbeat() time.Duration { return time.Duration(c.HeartbeatMs) * time.Millisecond }

// Level returns the parsed log level, info when unparsable.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	if c.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(c.Level()).With().Timestamp().Logger()
}

// SeedOr returns the configured seed, or fallback when none is set.
func (c Config) SeedOr(fallback uint64) uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return fallback
}

// Opponent builds the computer player described by the config.
func (c Config) Opponent(seed uint64, log zerolog.Logger) *opponent.Heuristic {
	tb, _ := opponent.ParseTieBreak(c.TieBreak)
	return opponent.New(c.SeedOr(seed),
		opponent.WithAttacking(c.AttackingMode),
		opponent.WithDefensive(c.DefensiveMode),
		opponent.WithTieBreak(tb),
		opponent.WithLogger(log),
	)
}
