package effects

import (
	"context"
	"sync/atomic"

	"github.com/on-the-ground/collatz_ive_go/effects/internal/handlers"
	"github.com/on-the-ground/collatz_ive_go/effects/internal/helper"
	effectmodel "github.com/on-the-ground/collatz_ive_go/effects/internal/model"
	sharedHelper "github.com/on-the-ground/collatz_ive_go/shared/helper"
	"go.uber.org/zap"
)

// Re-exported so callers outside effects/ can match on them.
var (
	ErrNoEffectHandler = effectmodel.ErrNoEffectHandler
	ErrHandlerClosed   = handlers.ErrHandlerClosed
)

type (
	EffectEnum        = effectmodel.EffectEnum
	EffectScopeConfig = effectmodel.EffectScopeConfig
	Partitionable     = effectmodel.Partitionable
)

// NewEffectScopeConfig normalizes buffer and worker counts to at least 1.
func NewEffectScopeConfig(bufferSize, numWorkers int) EffectScopeConfig {
	return effectmodel.NewEffectScopeConfig(bufferSize, numWorkers)
}

var runtimeLogger atomic.Pointer[zap.Logger]

func init() {
	runtimeLogger.Store(zap.NewNop())
}

// SetRuntimeLogger sets the logger used for handler lifecycle debug messages.
// A nil logger silences them.
func SetRuntimeLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runtimeLogger.Store(logger)
}

func debugf(template string, args ...any) {
	runtimeLogger.Load().Sugar().Debugf(template, args...)
}

// WithResumablePartitionableEffectHandler registers a resumable effect handler for a given effect enum.
//
// Payloads are hash-partitioned by PartitionKey(), so effects sharing a key are
// handled in order by the same worker.
//
// Usage:
//
//	ctx, end := WithResumablePartitionableEffectHandler(ctx, config, MyEffectEnum, handleFn)
//	defer end()
func WithResumablePartitionableEffectHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	td := normalizeTeardown(teardown)
	handler := handlers.NewPartitionableResumableHandler(ctx, config, handleFn, td)
	ctxWith := context.WithValue(ctx, enum, handler)
	debugf("created resumable effect handler: effectId: %v, enum: %v", handler.EffectId, enum)

	return ctxWith, func() context.Context {
		handler.Close()
		debugf("closed resumable effect handler: effectId: %v, enum: %v", handler.EffectId, enum)
		return ctx
	}
}

// WithResumableEffectHandler registers a single-worker resumable effect handler.
func WithResumableEffectHandler[P any, R any](
	ctx context.Context,
	bufferSize int,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	td := normalizeTeardown(teardown)
	handler := handlers.NewResumableHandler(ctx, bufferSize, handleFn, td)
	ctxWith := context.WithValue(ctx, enum, handler)
	debugf("created resumable effect handler: effectId: %v, enum: %v", handler.EffectId, enum)

	return ctxWith, func() context.Context {
		handler.Close()
		debugf("closed resumable effect handler: effectId: %v, enum: %v", handler.EffectId, enum)
		return ctx
	}
}

// PerformResumableEffect sends a payload to the resumable effect handler and
// returns the channel the result arrives on.
// Panics with ErrNoEffectHandler if no handler is registered for the enum.
func PerformResumableEffect[P any, R any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) <-chan handlers.ResumableResult[R] {
	handler := sharedHelper.MustGetTypedValue[handlers.ResumableHandler[P, R]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	return handler.PerformEffect(ctx, payload)
}

// AwaitResumableEffect performs the effect and waits for its result or ctx.
func AwaitResumableEffect[P any, R any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) (val R, err error) {
	resultCh := PerformResumableEffect[P, R](ctx, enum, payload)
	select {
	case res, ok := <-resultCh:
		if ok {
			return res.Value, res.Err
		}
	case <-ctx.Done():
	}
	if err = ctx.Err(); err == nil {
		err = handlers.ErrHandlerClosed
	}
	return
}

// WithFireAndForgetEffectHandler registers a fire-and-forget effect handler for a given effect enum.
//
// Suitable for one-shot effects like logging or spawning goroutines.
func WithFireAndForgetEffectHandler[P any](
	ctx context.Context,
	bufferSize int,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	td := normalizeTeardown(teardown)
	handler := handlers.NewFireAndForgetHandler(ctx, bufferSize, handleFn, td)
	ctxWith := context.WithValue(ctx, enum, handler)
	debugf("created fire/forget effect handler: effectId: %v, enum: %v", handler.EffectId, enum)

	return ctxWith, func() context.Context {
		handler.Close()
		debugf("closed fire/forget effect handler: effectId: %v, enum: %v", handler.EffectId, enum)
		return ctx
	}
}

// FireAndForgetEffect hands the payload to the handler registered for enum.
// Panics with ErrNoEffectHandler if none is registered.
func FireAndForgetEffect[P any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) bool {
	handler := sharedHelper.MustGetTypedValue[handlers.FireAndForgetHandler[P]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	return handler.FireAndForgetEffect(ctx, payload)
}

// HasHandler reports whether ctx carries a handler for enum.
func HasHandler(ctx context.Context, enum effectmodel.EffectEnum) bool {
	_, err := helper.GetHandler(ctx, enum)
	return err == nil
}

// normalizeTeardown flattens optional teardown functions into a single callable.
//
// Accepts either 0 or 1 teardown functions. Panics if more than one is passed.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
