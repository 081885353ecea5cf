package handlers

import (
	"context"
	"sync"

	effectmodel "github.com/on-the-ground/collatz_ive_go/effects/internal/model"
)

// WorkerDispatcher picks the channel a message must be sent on.
type WorkerDispatcher[T any] interface {
	GetChannelOf(msg T) chan T
}

// runWorker drains ch into handleFn until ctx is done.
// The worker owns ch and closes it on exit, so late senders must recover.
func runWorker[T any](
	ctx context.Context,
	ch chan T,
	handleFn func(context.Context, T),
	started func(),
) {
	defer close(ch)
	started()
	for {
		select {
		case msg := <-ch:
			handleFn(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

type singleQueue[T any] struct {
	effectCh chan T
}

func (q singleQueue[T]) GetChannelOf(_ T) chan T {
	return q.effectCh
}

// NewSingleQueue starts one worker; messages are handled in send order.
func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	ch := make(chan T, bufferSize)
	ready := make(chan struct{})
	go runWorker(ctx, ch, handleFn, func() { close(ready) })
	<-ready
	return singleQueue[T]{effectCh: ch}
}

type partitionedQueue[T effectmodel.Partitionable] struct {
	effectChs []chan T
}

func (pq partitionedQueue[T]) GetChannelOf(msg T) chan T {
	return pq.effectChs[getIndexByHash(msg, len(pq.effectChs))]
}

// NewPartitionedQueue starts numWorkers workers.
// Ordering is kept per partition key only.
func NewPartitionedQueue[T effectmodel.Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	channels := make([]chan T, numWorkers)
	var ready sync.WaitGroup
	ready.Add(numWorkers)
	for i := range channels {
		channels[i] = make(chan T, bufferSize)
		go runWorker(ctx, channels[i], handleFn, ready.Done)
	}
	ready.Wait()
	return partitionedQueue[T]{effectChs: channels}
}
