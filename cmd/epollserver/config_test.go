package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legamerdc/epollserver/internal/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "epollserver.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRunConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
backlog = 128
max_events = 64
max_payload = 4096
wait_timeout = "250ms"
log_level = "debug"
log_format = "json"
capture = " /tmp/messages.zst "
capture_level = "best"
`)
	cfg, err := loadRunConfig(path, defaultRunConfig())
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Server.Backlog)
	assert.Equal(t, 64, cfg.Server.MaxEvents)
	assert.Equal(t, 4096, cfg.Server.MaxPayload)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.WaitTimeout)
	assert.Equal(t, zerolog.DebugLevel, cfg.Log.Level)
	assert.Equal(t, logging.FormatJSON, cfg.Log.Format)
	assert.Equal(t, "/tmp/messages.zst", cfg.Capture)
	assert.Equal(t, "best", cfg.CaptureLevel)

	// 未出现的键保留默认值
	def := defaultRunConfig()
	assert.Equal(t, def.Server.ReadBufferSize, cfg.Server.ReadBufferSize)
	assert.Equal(t, def.Server.RecvBuffer, cfg.Server.RecvBuffer)
}

func TestLoadRunConfigErrors(t *testing.T) {
	tests := map[string]string{
		"bad duration": `wait_timeout = "soon"`,
		"bad level":    `log_level = "loud"`,
		"bad format":   `log_format = "xml"`,
		"unknown key":  `listen = "x"`,
		"invalid toml": `backlog = `,
		"wrong type":   `backlog = "many"`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadRunConfig(writeConfig(t, body), defaultRunConfig())
			assert.Error(t, err)
		})
	}
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "backlog = 8\nmax_payload = 100\n")
	cmd := newRootCommand(os.Stdout)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--max-payload", "200", "--log-level", "warn", "--wait-timeout", "1s"}))

	cfg, err := resolveConfig(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Server.Backlog)
	assert.Equal(t, 200, cfg.Server.MaxPayload)
	assert.Equal(t, time.Second, cfg.Server.WaitTimeout)
	assert.Equal(t, zerolog.WarnLevel, cfg.Log.Level)
}

func TestResolveConfigEnvForLogging(t *testing.T) {
	t.Setenv(logging.EnvLogLevel, "error")
	cmd := newRootCommand(os.Stdout)
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := resolveConfig(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, cfg.Log.Level)
}

func TestResolveConfigRejectsBadFlags(t *testing.T) {
	cmd := newRootCommand(os.Stdout)
	require.NoError(t, cmd.ParseFlags([]string{"--log-format", "xml"}))
	_, err := resolveConfig(cmd.Flags())
	assert.Error(t, err)
}
