package obs

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logging surface used across the planning
// pipeline. Fields are passed as a flat map so call sites don't need to
// import zerolog directly.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// ZerologLogger adapts zerolog to the Logger interface. If logPath is
// non-empty, logs are appended to that file instead of stdout so a CLI
// run doesn't interleave logs with the plan JSON on stdout.
type ZerologLogger struct {
	log zerolog.Logger
}

func NewZerologLogger(logPath string, level string) *ZerologLogger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var w io.Writer = os.Stdout
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = f
		}
	}
	l := zerolog.New(w).With().Timestamp().Logger()

	lvl := zerolog.InfoLevel
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}
	l = l.Level(lvl)
	return &ZerologLogger{log: l}
}

func (z *ZerologLogger) Info(msg string, fields map[string]any) {
	z.log.Info().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Error(msg string, fields map[string]any) {
	z.log.Error().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Debug(msg string, fields map[string]any) {
	z.log.Debug().Fields(fields).Msg(msg)
}

// NoopLogger discards everything; it satisfies Logger for callers that
// want a non-nil logger that writes nowhere.
type NoopLogger struct{}

func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}
func (NoopLogger) Debug(string, map[string]any) {}
