// Package obslog configures structured JSON logging for the registry
// program, grounded on observability/logging/logging.go's Setup function:
// same JSON handler, same ReplaceAttr renaming to timestamp/severity/
// message, same service/env attributes. Output goes through
// gopkg.in/natefinch/lumberjack.v2 instead of bare stdout so a long-running
// host process doesn't need an external log rotator.
package obslog

import (
	"log"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup. An empty LogFile falls back to "arcchain.log"
// relative to the working directory; output always goes through the
// rotating lumberjack writer, never to stdout.
type Options struct {
	Service    string
	Env        string
	LogFile    string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the default slog logger to emit structured JSON through
// a rotating file writer and returns it for direct use by callers that want
// a scoped *slog.Logger instead of the package default.
func Setup(opts Options) *slog.Logger {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 100
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 28
	}
	if opts.LogFile == "" {
		opts.LogFile = "arcchain.log"
	}

	writer := &lumberjack.Logger{
		Filename:   opts.LogFile,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			default:
				return attr
			}
		},
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(opts.Service))}
	if env := strings.TrimSpace(opts.Env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	withArgs := make([]any, 0, len(attrs))
	for _, a := range attrs {
		withArgs = append(withArgs, a)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}
