package pg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// GooseLogger routes goose's Printf-style output through a structured logger.
// Fatalf is mapped to ErrorContext; goose never relies on it exiting.
func GooseLogger(log *slog.Logger, attrs ...any) goose.Logger {
	if log == nil {
		log = slog.Default()
	}
	return &gooseLogger{log: log.With(attrs...)}
}

type gooseLogger struct {
	log *slog.Logger
}

func (a *gooseLogger) Fatalf(format string, v ...any) {
	a.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (a *gooseLogger) Printf(format string, v ...any) {
	a.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
