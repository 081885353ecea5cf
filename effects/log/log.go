package log

import (
	"context"

	"github.com/on-the-ground/collatz_ive_go/effects"
	effectmodel "github.com/on-the-ground/collatz_ive_go/effects/internal/model"
	"go.uber.org/zap"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// LogPayload is the payload structure for logging effect.
// It contains the log level, message string, and optional structured fields.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

// WithZapEffectHandler registers a fire-and-forget log effect handler using zap.Logger.
// Messages are written by a single worker in the order they were performed.
// The teardown syncs the logger and returns the parent context.
func WithZapEffectHandler(
	ctx context.Context,
	bufferSize int,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectLog,
		func(ctx context.Context, payload LogPayload) {
			write(logger, payload)
		},
		func() {
			// stdout/stderr return EINVAL on sync; nothing to report there
			_ = logger.Sync()
		},
	)
}

func write(logger *zap.Logger, payload LogPayload) {
	fields := make([]zap.Field, 0, len(payload.Fields))
	for k, v := range payload.Fields {
		if err, ok := v.(error); ok {
			fields = append(fields, zap.NamedError(k, err))
			continue
		}
		fields = append(fields, zap.Any(k, v))
	}

	switch payload.Level {
	case LogInfo:
		logger.Info(payload.Message, fields...)
	case LogWarn:
		logger.Warn(payload.Message, fields...)
	case LogError:
		logger.Error(payload.Message, fields...)
	case LogDebug:
		logger.Debug(payload.Message, fields...)
	default:
		logger.Info(payload.Message, fields...)
	}
}

// LogEff performs a fire-and-forget log effect using the EffectLog handler in the context.
// Without a handler in scope the message is dropped.
func LogEff(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) {
	if !effects.HasHandler(ctx, effectmodel.EffectLog) {
		return
	}
	effects.FireAndForgetEffect(ctx, effectmodel.EffectLog, LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}
