package memo

import "errors"

var (
	// ErrStorageMissing means no persisted file exists yet.
	ErrStorageMissing = errors.New("memo: persisted state missing")

	// ErrStorageCorrupt means a persisted file exists but cannot be used.
	ErrStorageCorrupt = errors.New("memo: persisted state corrupt")
)
