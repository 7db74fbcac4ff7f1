package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"telpy/internal/config"
)

// Setup builds the process logger from the configured sinks and installs it
// as the slog default. The Telnet trace (every IAC in and out) is logged at
// debug, so a debug file sink next to an info console keeps a full
// negotiation transcript without cluttering the terminal. quiet discards
// everything.
func Setup(configs []config.LoggerConfig, quiet bool) *slog.Logger {
	if quiet {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var handlers []slog.Handler
	for _, cfg := range configs {
		opts := handlerOptions(cfg)

		for _, out := range consoles(cfg) {
			console := opts
			console.NoColor = !colorful(out)
			handlers = append(handlers, tint.NewHandler(out, &console))
		}

		if cfg.File != "" {
			file, err := openSink(cfg.File)
			if err != nil {
				log.Printf("Failed to open log file %s: %v", cfg.File, err)
				continue
			}
			plain := opts
			plain.NoColor = true
			handlers = append(handlers, tint.NewHandler(file, &plain))
		}
	}

	logger := slog.New(combine(handlers))
	slog.SetDefault(logger)
	return logger
}

func handlerOptions(cfg config.LoggerConfig) tint.Options {
	timeFormat := time.TimeOnly
	if cfg.TimeFormat != "" {
		timeFormat = cfg.TimeFormat
	}

	hideTime := cfg.HideTime
	return tint.Options{
		Level:      parseLogLevel(cfg.Level),
		AddSource:  cfg.Source,
		TimeFormat: timeFormat,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if hideTime && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}
}

// consoles returns the terminal streams a logger config writes to. Stdout
// carries remote output during `telpy connect`, so stderr is the usual pick.
func consoles(cfg config.LoggerConfig) []*os.File {
	var out []*os.File
	if cfg.Stdout {
		out = append(out, os.Stdout)
	}
	if cfg.Stderr {
		out = append(out, os.Stderr)
	}
	return out
}

func colorful(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// openSink opens path for appending, creating its directory first.
func openSink(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

func combine(handlers []slog.Handler) slog.Handler {
	switch len(handlers) {
	case 0:
		return tint.NewHandler(os.Stderr, nil)
	case 1:
		return handlers[0]
	default:
		return NewFanout(handlers...)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
