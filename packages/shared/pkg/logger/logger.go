package logger

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	ServiceName   string
	IsInternal    bool
	IsDevelopment bool
	IsDebug       bool
	InitialFields []zap.Field

	Cores []zapcore.Core
}

// Logger is a context aware wrapper around zap. Fields stored on the context
// (lease, account, template) are appended to every record.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...zap.Field)
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Warn(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
	Fatal(ctx context.Context, msg string, fields ...zap.Field)

	With(fields ...zap.Field) Logger
	Detach(ctx context.Context) *zap.Logger
	Sync() error
}

type tracedLogger struct {
	*zap.Logger
}

func NewLogger(_ context.Context, loggerConfig LoggerConfig) (Logger, error) {
	var level zap.AtomicLevel
	if loggerConfig.IsDebug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config := zap.Config{
		Level:             level,
		Development:       loggerConfig.IsDevelopment,
		DisableStacktrace: false,
		Sampling:          nil,
		Encoding:          "json",
		EncoderConfig:     GetEncoderConfig(zapcore.DefaultLineEnding),
		OutputPaths: []string{
			"stdout",
		},
		ErrorOutputPaths: []string{
			"stderr",
		},
	}

	cores := make([]zapcore.Core, 0)

	if loggerConfig.IsInternal {
		provider := global.GetLoggerProvider()
		cores = append(cores,
			otelzap.NewCore(loggerConfig.ServiceName, otelzap.WithLoggerProvider(provider)),
		)
	}

	cores = append(cores, loggerConfig.Cores...)

	l, err := config.Build(
		zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			cores = append(cores, c)

			return zapcore.NewTee(cores...)
		}),
		zap.Fields(
			zap.String("service", loggerConfig.ServiceName),
			zap.Bool("internal", loggerConfig.IsInternal),
			zap.Int("pid", os.Getpid()),
		),
		zap.Fields(loggerConfig.InitialFields...),
	)
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}

	return NewTracedLoggerFromCore(l), nil
}

func NewTracedLoggerFromCore(l *zap.Logger) Logger {
	return &tracedLogger{Logger: l}
}

func NewNopLogger() Logger {
	return &tracedLogger{Logger: zap.NewNop()}
}

func (t *tracedLogger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	t.Logger.Debug(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (t *tracedLogger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	t.Logger.Info(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (t *tracedLogger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	t.Logger.Warn(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (t *tracedLogger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	t.Logger.Error(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (t *tracedLogger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	t.Logger.Fatal(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (t *tracedLogger) With(fields ...zap.Field) Logger {
	return &tracedLogger{Logger: t.Logger.With(fields...)}
}

// Detach returns the underlying zap logger with the context fields bound.
func (t *tracedLogger) Detach(ctx context.Context) *zap.Logger {
	return t.Logger.With(FieldsFromContext(ctx)...)
}

func GetEncoderConfig(lineEnding string) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "timestamp",
		MessageKey:    "message",
		LevelKey:      "level",
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		NameKey:       "logger",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.RFC3339TimeEncoder,
		LineEnding:    lineEnding,
	}
}
