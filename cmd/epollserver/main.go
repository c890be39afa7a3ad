package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/legamerdc/epollserver"
	"github.com/legamerdc/epollserver/capture"
	"github.com/legamerdc/epollserver/internal/logging"
)

func main() {
	if err := newRootCommand(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "epollserver: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "epollserver <socket name>",
		Short:         "Print length-prefixed messages received on an abstract unix socket",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			cfg.Server.Name = args[0]
			return run(cmd.Context(), cfg, out)
		},
	}
	f := cmd.Flags()
	f.String("config", "", "path to a TOML config file")
	f.Int("backlog", 0, "listen backlog")
	f.Int("max-events", 0, "maximum events returned by one wait")
	f.Int("max-payload", 0, "maximum payload bytes per frame (-1 for unlimited)")
	f.Int("read-buffer", 0, "bytes read from a connection per syscall")
	f.Int("recv-buffer", 0, "SO_RCVBUF for accepted connections")
	f.Duration("wait-timeout", 0, "upper bound for one readiness wait (0 blocks until woken)")
	f.String("log-level", "", "log level (trace, debug, info, warn, error, off)")
	f.String("log-format", "", "log format (console, json)")
	f.Bool("no-color", false, "disable colored console logs")
	f.String("capture", "", "also write every message to this zstd archive")
	f.String("capture-level", "", "zstd level for --capture (fastest, default, better, best)")
	return cmd
}

// resolveConfig 合并默认值、配置文件、环境变量与显式给出的命令行参数
func resolveConfig(f *pflag.FlagSet) (runConfig, error) {
	cfg := defaultRunConfig()
	if path, _ := f.GetString("config"); path != "" {
		var err error
		if cfg, err = loadRunConfig(path, cfg); err != nil {
			return runConfig{}, err
		}
	}
	logging.ApplyEnv(&cfg.Log)

	ints := []struct {
		flag string
		dst  *int
	}{
		{"backlog", &cfg.Server.Backlog},
		{"max-events", &cfg.Server.MaxEvents},
		{"max-payload", &cfg.Server.MaxPayload},
		{"read-buffer", &cfg.Server.ReadBufferSize},
		{"recv-buffer", &cfg.Server.RecvBuffer},
	}
	for _, it := range ints {
		if f.Changed(it.flag) {
			*it.dst, _ = f.GetInt(it.flag)
		}
	}
	if f.Changed("wait-timeout") {
		cfg.Server.WaitTimeout, _ = f.GetDuration("wait-timeout")
	}
	if f.Changed("log-level") {
		raw, _ := f.GetString("log-level")
		lvl, err := parseLevel(raw)
		if err != nil {
			return runConfig{}, err
		}
		cfg.Log.Level = lvl
	}
	if f.Changed("log-format") {
		raw, _ := f.GetString("log-format")
		format, ok := logging.ParseFormat(raw)
		if !ok {
			return runConfig{}, fmt.Errorf("unknown log format %q", raw)
		}
		cfg.Log.Format = format
	}
	if f.Changed("no-color") {
		cfg.Log.NoColor, _ = f.GetBool("no-color")
	}
	if f.Changed("capture") {
		cfg.Capture, _ = f.GetString("capture")
	}
	if f.Changed("capture-level") {
		cfg.CaptureLevel, _ = f.GetString("capture-level")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg runConfig, out io.Writer) error {
	logger := logging.New("epollserver", cfg.Log)
	cfg.Server.Logger = &logger

	h := &printHandler{out: out, log: logger}
	if cfg.Capture != "" {
		lvl, err := capture.ParseLevel(cfg.CaptureLevel)
		if err != nil {
			return err
		}
		cw, err := capture.Create(cfg.Capture, lvl)
		if err != nil {
			return err
		}
		defer func() {
			if err := cw.Close(); err != nil {
				logger.Warn().Err(err).Msg("close capture")
			}
			logger.Info().Str("path", cfg.Capture).Uint64("records", cw.Records()).Msg("capture closed")
		}()
		h.capture = cw
	}

	srv, err := epollserver.NewServer(cfg.Server, h)
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		logger.Error().Err(err).Msg("initialization failed")
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("Polling...(Ctrl+C to exit)")
	if err := srv.Serve(ctx); err != nil {
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
