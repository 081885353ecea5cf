package handlers

import (
	"sync"

	"github.com/google/uuid"
)

// effectScope ties a dispatcher to its teardown.
// Close is idempotent and safe to call from any goroutine.
type effectScope[T any] struct {
	EffectId   string
	dispatcher WorkerDispatcher[T]
	closeOnce  sync.Once
	closeFn    func()
}

func (es *effectScope[T]) Close() {
	es.closeOnce.Do(es.closeFn)
}

func newEffectScope[T any](
	dispatcher WorkerDispatcher[T],
	teardown func(),
) *effectScope[T] {
	return &effectScope[T]{
		EffectId:   uuid.New().String(),
		dispatcher: dispatcher,
		closeFn:    teardown,
	}
}
