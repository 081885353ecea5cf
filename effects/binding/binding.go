package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/collatz_ive_go/effects"
	effectmodel "github.com/on-the-ground/collatz_ive_go/effects/internal/model"
)

// ErrKeyNotFound is returned when no scope binds the requested key.
var ErrKeyNotFound = errors.New("key not found")

// Payload is the key being looked up.
type Payload string

func (bp Payload) PartitionKey() string {
	return string(bp)
}

// WithEffectHandler registers a resumable, partitionable effect handler for bindings.
//
//   - Lookups are answered from bindingMap.
//   - Keys missing locally are delegated to the nearest enclosing binding scope.
//   - The teardown closes the handler and returns the parent context.
func WithEffectHandler(
	ctx context.Context,
	bufferSize, numWorkers int,
	bindingMap map[string]any,
) (context.Context, func() context.Context) {
	handler := &bindingHandler{
		bindingMap: normalizeBindingMap(bindingMap),
	}
	return effects.WithResumablePartitionableEffectHandler[Payload, any](
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, numWorkers),
		effectmodel.EffectBinding,
		handler.handle,
	)
}

// Effect performs a key lookup using the Binding effect handler in ctx.
//
// Returns the bound value, or ErrKeyNotFound when no scope provides the key.
func Effect(ctx context.Context, key string) (any, error) {
	return effects.AwaitResumableEffect[Payload, any](ctx, effectmodel.EffectBinding, Payload(key))
}

// normalizeBindingMap copies bm so later mutation by the caller is not observed.
func normalizeBindingMap(bm map[string]any) map[string]any {
	out := make(map[string]any, len(bm))
	for k, v := range bm {
		out[k] = v
	}
	return out
}

// delegate performs the lookup against the enclosing scope, if any.
func delegate(upperCtx context.Context, key string) (res any, err error) {
	if !effects.HasHandler(upperCtx, effectmodel.EffectBinding) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return Effect(upperCtx, key)
}

type bindingHandler struct {
	bindingMap map[string]any
}

// handle looks up the key in the local bindingMap and falls back to the parent scope.
// ctx here is the handler's own context, i.e. the parent of the scope it serves.
func (bh bindingHandler) handle(ctx context.Context, payload Payload) (any, error) {
	key := string(payload)
	v, ok := bh.bindingMap[key]
	if !ok {
		return delegate(ctx, key)
	}
	return v, nil
}
