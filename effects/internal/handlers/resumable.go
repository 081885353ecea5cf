package handlers

import (
	"context"
	"errors"

	effectmodel "github.com/on-the-ground/collatz_ive_go/effects/internal/model"
)

// ErrHandlerClosed is delivered to callers that perform an effect on a closed handler.
var ErrHandlerClosed = errors.New("effect handler closed")

func NewResumableHandler[P any, R any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	ctx, cancelFn := context.WithCancel(ctx)
	return ResumableHandler[P, R]{
		effectScope: newEffectScope(
			NewSingleQueue(ctx, bufferSize, resumeWith(handleFn)),
			func() {
				teardown()
				cancelFn()
			},
		),
	}
}

func NewPartitionableResumableHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	ctx, cancelFn := context.WithCancel(ctx)
	return ResumableHandler[P, R]{
		effectScope: newEffectScope(
			NewPartitionedQueue(ctx, config.NumWorkers, config.BufferSize, resumeWith(handleFn)),
			func() {
				teardown()
				cancelFn()
			},
		),
	}
}

// resumeWith adapts handleFn to a worker callback that answers on the message's resume channel.
func resumeWith[P any, R any](
	handleFn func(context.Context, P) (R, error),
) func(context.Context, ResumableEffectMessage[P, R]) {
	return func(ctx context.Context, msg ResumableEffectMessage[P, R]) {
		select {
		case <-ctx.Done():
		case msg.ResumeCh <- ResumableResultFrom(handleFn(ctx, msg.Payload)):
		}
		close(msg.ResumeCh)
	}
}

type ResumableHandler[P any, R any] struct {
	*effectScope[ResumableEffectMessage[P, R]]
}

// PerformEffect enqueues payload and returns the channel its result will arrive on.
// The channel is closed without a value when ctx ends first.
func (rh ResumableHandler[P, R]) PerformEffect(ctx context.Context, payload P) (resumeCh <-chan ResumableResult[R]) {
	// buffered so the worker never blocks on a caller that gave up
	ch := make(chan ResumableResult[R], 1)
	resumeCh = ch

	defer func() {
		if r := recover(); r != nil {
			// the worker closed its queue; answer directly
			ch <- ResumableResult[R]{Err: ErrHandlerClosed}
			close(ch)
		}
	}()

	msg := ResumableEffectMessage[P, R]{
		Payload:  payload,
		ResumeCh: ch,
	}
	select {
	case <-ctx.Done():
		close(ch)
	case rh.dispatcher.GetChannelOf(msg) <- msg:
	}
	return
}

// ResumableResult represents the result of handled effects.
type ResumableResult[T any] struct {
	Value T
	Err   error
}

func ResumableResultFrom[R any](res R, err error) ResumableResult[R] {
	return ResumableResult[R]{Value: res, Err: err}
}

var _ effectmodel.Partitionable = ResumableEffectMessage[any, any]{}

type ResumableEffectMessage[P any, R any] struct {
	Payload  P
	ResumeCh chan ResumableResult[R]
}

func (rem ResumableEffectMessage[P, R]) PartitionKey() string {
	if p, ok := any(rem.Payload).(effectmodel.Partitionable); ok {
		return p.PartitionKey()
	}
	return ""
}
