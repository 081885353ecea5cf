package memo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// readState reads path, mapping a missing file to ErrStorageMissing.
func readState(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrStorageMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStorageCorrupt, path, err)
	}
	return b, nil
}

// writeFileAtomic replaces path with data in full.
// The data goes to a sibling temp file first, so a crash leaves either the old or the new content.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
