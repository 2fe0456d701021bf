package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

var globalLogger atomic.Pointer[Logger]

func init() {
	l := NewTracedLoggerFromCore(zap.L())
	globalLogger.Store(&l)
}

// L returns the process logger. Until ReplaceGlobals is called it wraps zap.L().
func L() Logger {
	return *globalLogger.Load()
}

// ReplaceGlobals swaps the process logger and the zap globals. The returned
// function restores the previous logger.
func ReplaceGlobals(ctx context.Context, l Logger) func() {
	prev := globalLogger.Swap(&l)
	undo := zap.ReplaceGlobals(l.Detach(ctx))

	return func() {
		globalLogger.Store(prev)
		undo()
	}
}
