package buildsys

import (
	"context"

	"github.com/rs/zerolog"
)

type logKey struct{}

var nopLogger = zerolog.Nop()

// log returns the logger attached with WithLogger. Without one, events are dropped.
func log(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(logKey{}).(*zerolog.Logger); ok {
		return logger
	}

	return &nopLogger
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

func taskLog(ctx context.Context, task *Task) *zerolog.Logger {
	logger := log(ctx).With().Str("task", task.Short).Logger()
	return &logger
}
