package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTracedLogger_AppendsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewTracedLoggerFromCore(zap.New(core))

	ctx := WithContextLeaseID(t.Context(), "lease-1")
	ctx = WithContextAccountID(ctx, "123456789012")

	l.Info(ctx, "lease approved", zap.String("approver", "admin@example.com"))

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "lease-1", fields["lease.id"])
	assert.Equal(t, "123456789012", fields["account.id"])
	assert.Equal(t, "admin@example.com", fields["approver"])
}

func TestFieldsFromContext_Empty(t *testing.T) {
	assert.Empty(t, FieldsFromContext(t.Context()))
}

func TestReplaceGlobals(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewTracedLoggerFromCore(zap.New(core))

	undo := ReplaceGlobals(t.Context(), l)
	defer undo()

	L().Info(t.Context(), "from global")
	zap.L().Info("from zap global")

	assert.Equal(t, 2, logs.Len())
}
