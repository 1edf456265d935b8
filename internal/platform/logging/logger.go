package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pscheid92/repledger/internal/platform/correlation"
)

// InitLogger installs the process-wide logger. Unknown levels fall back to info,
// unknown formats to text. Every record carries the service name and instance id.
func InitLogger(level, format, instanceID string) *slog.Logger {
	logger := New(os.Stdout, level, format).With("service", "repledger", "instance_id", instanceID)
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(correlation.NewHandler(handler))
}

func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
