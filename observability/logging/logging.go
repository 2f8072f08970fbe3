package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Options controls how the process-wide logger is built. The zero value
// writes JSON to stdout at info level with no service attributes.
type Options struct {
	// Service names the emitting binary, e.g. "personad".
	Service string
	// Env labels the deployment environment, e.g. "local" or "prod".
	Env string
	// Level is the minimum level emitted. Defaults to slog.LevelInfo.
	Level slog.Leveler
	// Writer receives the log stream. Defaults to os.Stdout.
	Writer io.Writer
}

// Setup builds a JSON slog logger, installs it as the process default and
// bridges the standard library logger onto it. Keys are renamed to the
// timestamp/severity/message convention used by the log pipeline.
func Setup(opts Options) *slog.Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "timestamp"
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	})

	var attrs []slog.Attr
	if service := strings.TrimSpace(opts.Service); service != "" {
		attrs = append(attrs, slog.String("service", service))
	}
	if env := strings.TrimSpace(opts.Env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
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
