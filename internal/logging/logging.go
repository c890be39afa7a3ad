package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "EPOLLSERVER_LOG_LEVEL"
	EnvLogFormat  = "EPOLLSERVER_LOG_FORMAT"
	EnvLogNoColor = "EPOLLSERVER_LOG_NOCOLOR"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options 控制日志输出
type Options struct {
	Level     zerolog.Level
	Format    string
	NoColor   bool
	Timestamp bool
	Out       io.Writer // 默认 os.Stderr，stdout 留给消息输出
}

func DefaultOptions() Options {
	return Options{
		Level:     zerolog.InfoLevel,
		Format:    FormatConsole,
		Timestamp: true,
		Out:       os.Stderr,
	}
}

// New 构造 logger 并替换全局 log.Logger
func New(app string, opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.NoColor,
			TimeFormat: time.RFC3339,
		}
	}
	ctx := zerolog.New(out).Level(opts.Level).With()
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	if app != "" {
		ctx = ctx.Str("app", app)
	}
	logger := ctx.Logger()
	log.Logger = logger
	return logger
}

// ApplyEnv 用环境变量覆盖 opts
func ApplyEnv(opts *Options) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if f, ok := ParseFormat(os.Getenv(EnvLogFormat)); ok {
		opts.Format = f
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
}

// ParseLevel 解析日志级别，第二个返回值表示是否识别
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// ParseFormat 解析输出格式
func ParseFormat(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case FormatConsole, "text":
		return FormatConsole, true
	case FormatJSON:
		return FormatJSON, true
	default:
		return "", false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
