package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, "vstats.db", c.DBPath)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.RosterPath)
	assert.Equal(t, uint(5), c.Outbox.MaxTries)
	assert.Equal(t, 100*time.Millisecond, c.Outbox.InitialInterval)
	assert.Equal(t, 2*time.Second, c.Outbox.MaxInterval)
	assert.Empty(t, c.Feed.Addr)
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("VSTATS_DB_PATH", "/tmp/club.db")
	t.Setenv("VSTATS_LOG_LEVEL", "debug")
	t.Setenv("VSTATS_ROSTER_PATH", "roster.yaml")
	t.Setenv("VSTATS_OUTBOX_MAX_TRIES", "9")
	t.Setenv("VSTATS_OUTBOX_MAX_INTERVAL", "30s")
	t.Setenv("VSTATS_FEED_ADDR", ":8090")

	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/club.db", c.DBPath)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "roster.yaml", c.RosterPath)
	assert.Equal(t, uint(9), c.Outbox.MaxTries)
	assert.Equal(t, 30*time.Second, c.Outbox.MaxInterval)
	assert.Equal(t, ":8090", c.Feed.Addr)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad level", "VSTATS_LOG_LEVEL", "loud"},
		{"bad duration", "VSTATS_OUTBOX_INITIAL_INTERVAL", "soon"},
		{"zero tries", "VSTATS_OUTBOX_MAX_TRIES", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}
