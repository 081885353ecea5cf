package binding

import (
	"context"
	"errors"

	"github.com/on-the-ground/collatz_ive_go/shared/helper"
)

// GetFromBindingEffect fetches a typed value from the Binding effect using the provided key.
// Returns a zero value and error if the key is not found or the type is mismatched.
func GetFromBindingEffect[T any](ctx context.Context, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

// MustGetFromBindingEffect is the panic-on-failure variant of GetFromBindingEffect.
func MustGetFromBindingEffect[T any](ctx context.Context, key string) T {
	return helper.MustGetTypedValue[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

// GetOrDefault returns def when key is unbound. Type mismatches are still errors.
func GetOrDefault[T any](ctx context.Context, key string, def T) (T, error) {
	v, err := GetFromBindingEffect[T](ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return def, nil
	}
	return v, err
}
