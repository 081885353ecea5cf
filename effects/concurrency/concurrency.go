package concurrency

import (
	"context"
	"fmt"
	"sync"

	"github.com/on-the-ground/collatz_ive_go/effects"
	effectmodel "github.com/on-the-ground/collatz_ive_go/effects/internal/model"
	"github.com/on-the-ground/collatz_ive_go/effects/log"
)

// WithEffectHandler installs a fire-and-forget concurrency effect handler.
//
// Functions passed to Effect run in their own goroutine under a context derived
// from the handler's scope, so they see the same log and binding handlers.
//
//   - Cancelling the parent context cancels every child.
//   - A panicking child is logged and does not take the others down.
//   - The teardown blocks until all children have returned.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
) (context.Context, func() context.Context) {
	sv := &supervisor{}

	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectConcurrency,
		sv.spawnConcurrentChildren,
		func() {
			sv.waitChildren(ctx)
		},
	)
}

// Effect spawns fns as supervised goroutines.
// It reports false when the handler no longer accepts work.
func Effect(ctx context.Context, fns ...func(context.Context)) bool {
	return effects.FireAndForgetEffect(ctx, effectmodel.EffectConcurrency, Payload(fns))
}

type Payload []func(context.Context)

func (cp Payload) PartitionKey() string {
	return "unpartitioned"
}

// supervisor tracks the goroutines spawned through one handler scope.
type supervisor struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	closing bool
}

// spawnConcurrentChildren starts each function in its own goroutine.
// ctx is the handler's context; it is cancelled when the scope ends or its parent is cancelled.
func (s *supervisor) spawnConcurrentChildren(ctx context.Context, functions Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		log.LogEff(ctx, log.LogWarn, "concurrency scope closing, children dropped", map[string]interface{}{
			"count": len(functions),
		})
		return
	}

	var ready sync.WaitGroup
	for _, fn := range functions {
		s.wg.Add(1)
		ready.Add(1)
		go func(f func(context.Context)) {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.LogEff(ctx, log.LogError, "panic in child routine", map[string]interface{}{
						"panic": fmt.Sprint(r),
					})
				}
			}()
			ready.Done()
			f(ctx)
		}(fn)
	}
	ready.Wait()
}

// waitChildren stops accepting new children and blocks until running ones return.
func (s *supervisor) waitChildren(ctx context.Context) {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	log.LogEff(ctx, log.LogDebug, "waiting for all routines to finish", nil)
	s.wg.Wait()
	log.LogEff(ctx, log.LogDebug, "all routines finished", nil)
}
