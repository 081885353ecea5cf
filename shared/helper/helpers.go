package helper

import (
	"fmt"
)

// GetTypedValueOf safely asserts the result of a getter function to the expected type T.
// Returns an error if type assertion fails.
func GetTypedValueOf[T any](getFn func() (any, error)) (T, error) {
	var zero T

	res, err := getFn()
	if err != nil {
		return zero, fmt.Errorf("failed to get value: %w", err)
	}

	val, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected type: %T", res)
	}

	return val, nil
}

// MustGetTypedValue is the panic-on-failure variant of GetTypedValueOf.
// The panic value is the underlying error so callers can recover and match it with errors.Is.
func MustGetTypedValue[T any](getFn func() (any, error)) T {
	res, err := GetTypedValueOf[T](getFn)
	if err != nil {
		panic(err)
	}
	return res
}
