package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
		ok    bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" INFO ", zerolog.InfoLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"", zerolog.InfoLevel, false},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogNoColor, "true")

	opts := DefaultOptions()
	ApplyEnv(&opts)
	assert.Equal(t, zerolog.DebugLevel, opts.Level)
	assert.Equal(t, FormatJSON, opts.Format)
	assert.True(t, opts.NoColor)
}

func TestApplyEnvIgnoresGarbage(t *testing.T) {
	t.Setenv(EnvLogLevel, "loud")
	t.Setenv(EnvLogFormat, "xml")
	t.Setenv(EnvLogNoColor, "maybe")

	opts := DefaultOptions()
	ApplyEnv(&opts)
	assert.Equal(t, DefaultOptions().Level, opts.Level)
	assert.Equal(t, FormatConsole, opts.Format)
	assert.False(t, opts.NoColor)
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New("epollserver", Options{Level: zerolog.InfoLevel, Format: FormatJSON, Out: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Int("fd", 7).Msg("connection established")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "epollserver", rec["app"])
	assert.Equal(t, "connection established", rec["message"])
	assert.EqualValues(t, 7, rec["fd"])
	assert.NotContains(t, buf.String(), "hidden")
}
