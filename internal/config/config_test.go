package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 500*time.Millisecond, cfg.ThinkDelay())
	require.True(t, cfg.AttackingMode)
	require.True(t, cfg.DefensiveMode)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"addr":":9000","think_delay_ms":0,"defensive_mode":false}`), 0o600))
	t.Setenv("TICTACTOE_TIE_BREAK", "last")
	t.Setenv("TICTACTOE_LOG_LEVEL", "debug")
	t.Setenv("TICTACTOE_SEED", "99")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.Zero(t, cfg.ThinkDelay())
	require.False(t, cfg.DefensiveMode)
	require.True(t, cfg.AttackingMode, "unset keys keep defaults")
	require.Equal(t, "last", cfg.TieBreak)
	require.Equal(t, zerolog.DebugLevel, cfg.Level())
	require.Equal(t, uint64(99), cfg.SeedOr(1))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	cfg := Default()
	lookup := func(k string) (string, bool) {
		if k == "TICTACTOE_ATTACKING_MODE" {
			return "maybe", true
		}
		return "", false
	}
	require.Error(t, cfg.applyEnv(lookup))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.ThinkDelayMs = -1
	cfg.TieBreak = "middle"
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "think_delay_ms")
	require.Contains(t, err.Error(), "middle")
	require.Contains(t, err.Error(), "log_level")
}

func TestOpponentFromConfig(t *testing.T) {
	cfg := Default()
	cfg.Seed = 5
	h := cfg.Opponent(1, zerolog.Nop())
	require.NotNil(t, h)
	require.Equal(t, uint64(5), cfg.SeedOr(1))
	require.Equal(t, uint64(1), Default().SeedOr(1))
}

func TestLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "warn"
	l := cfg.Logger(&buf)
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"message":"shown"`)
}
