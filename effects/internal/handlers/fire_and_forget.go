package handlers

import (
	"context"

	effectmodel "github.com/on-the-ground/collatz_ive_go/effects/internal/model"
)

func NewFireAndForgetHandler[P any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	ctx, cancelFn := context.WithCancel(ctx)
	return FireAndForgetHandler[P]{
		effectScope: newEffectScope(
			NewSingleQueue(ctx, bufferSize, handleFn),
			func() {
				teardown()
				cancelFn()
			},
		),
	}
}

func NewPartitionableFireAndForgetHandler[P effectmodel.Partitionable](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	ctx, cancelFn := context.WithCancel(ctx)
	return FireAndForgetHandler[P]{
		effectScope: newEffectScope(
			NewPartitionedQueue(ctx, config.NumWorkers, config.BufferSize, handleFn),
			func() {
				teardown()
				cancelFn()
			},
		),
	}
}

type FireAndForgetHandler[P any] struct {
	*effectScope[P]
}

// FireAndForgetEffect enqueues payload and returns immediately.
// It reports false when the payload was dropped because ctx ended or the handler is closed.
func (ffh FireAndForgetHandler[P]) FireAndForgetEffect(ctx context.Context, payload P) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()

	select {
	case <-ctx.Done():
		return false
	case ffh.dispatcher.GetChannelOf(payload) <- payload:
		return true
	}
}
