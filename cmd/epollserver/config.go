package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/legamerdc/epollserver"
	"github.com/legamerdc/epollserver/internal/logging"
)

type fileConfig struct {
	Backlog      int    `toml:"backlog"`
	MaxEvents    int    `toml:"max_events"`
	MaxPayload   int    `toml:"max_payload"`
	ReadBuffer   int    `toml:"read_buffer"`
	RecvBuffer   int    `toml:"recv_buffer"`
	WaitTimeout  string `toml:"wait_timeout"`
	LogLevel     string `toml:"log_level"`
	LogFormat    string `toml:"log_format"`
	NoColor      bool   `toml:"no_color"`
	Capture      string `toml:"capture"`
	CaptureLevel string `toml:"capture_level"`
}

// runConfig 汇总进程级配置：默认值 < 配置文件 < 环境变量（日志） < 命令行
type runConfig struct {
	Server       epollserver.Config
	Log          logging.Options
	Capture      string
	CaptureLevel string
}

func defaultRunConfig() runConfig {
	return runConfig{
		Server: epollserver.DefaultConfig(),
		Log:    logging.DefaultOptions(),
	}
}

func loadRunConfig(path string, cfg runConfig) (runConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runConfig{}, fmt.Errorf("load config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("backlog") {
		cfg.Server.Backlog = raw.Backlog
	}
	if meta.IsDefined("max_events") {
		cfg.Server.MaxEvents = raw.MaxEvents
	}
	if meta.IsDefined("max_payload") {
		cfg.Server.MaxPayload = raw.MaxPayload
	}
	if meta.IsDefined("read_buffer") {
		cfg.Server.ReadBufferSize = raw.ReadBuffer
	}
	if meta.IsDefined("recv_buffer") {
		cfg.Server.RecvBuffer = raw.RecvBuffer
	}
	if meta.IsDefined("wait_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WaitTimeout))
		if err != nil {
			return runConfig{}, fmt.Errorf("parse wait_timeout: %w", err)
		}
		cfg.Server.WaitTimeout = d
	}
	if meta.IsDefined("log_level") {
		lvl, err := parseLevel(raw.LogLevel)
		if err != nil {
			return runConfig{}, err
		}
		cfg.Log.Level = lvl
	}
	if meta.IsDefined("log_format") {
		f, ok := logging.ParseFormat(raw.LogFormat)
		if !ok {
			return runConfig{}, fmt.Errorf("parse log_format: unknown format %q", raw.LogFormat)
		}
		cfg.Log.Format = f
	}
	if meta.IsDefined("no_color") {
		cfg.Log.NoColor = raw.NoColor
	}
	if meta.IsDefined("capture") {
		cfg.Capture = strings.TrimSpace(raw.Capture)
	}
	if meta.IsDefined("capture_level") {
		cfg.CaptureLevel = strings.TrimSpace(raw.CaptureLevel)
	}
	return cfg, nil
}

func parseLevel(raw string) (zerolog.Level, error) {
	lvl, ok := logging.ParseLevel(raw)
	if !ok {
		return zerolog.InfoLevel, fmt.Errorf("parse log_level: unknown level %q", raw)
	}
	return lvl, nil
}
