package memo

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
	"github.com/on-the-ground/collatz_ive_go/collatz"
)

// snapshot is the on-disk memo shape: {"6": [6, 3, 10, ...], ...}.
// Keys are the decimal form of each start.
type snapshot map[string]collatz.Sequence

func snapshotOf(repo Repo) snapshot {
	snap := make(snapshot, repo.Len())
	repo.Range(func(seq collatz.Sequence) bool {
		snap[seq.Start().String()] = seq
		return true
	})
	return snap
}

// encodeSnapshot renders snap with sorted keys, so equal tables give equal bytes.
func encodeSnapshot(snap snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// decodeSnapshot parses and validates a memo file.
// Every entry must be keyed by its own first element and be a complete trajectory.
func decodeSnapshot(b []byte) (snapshot, error) {
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
	}
	for key, seq := range snap {
		start, err := collatz.ParseNumber(key)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", ErrStorageCorrupt, key, err)
		}
		if !seq.Start().Equal(start) {
			return nil, fmt.Errorf("%w: key %s holds sequence starting at %s", ErrStorageCorrupt, key, seq.Start())
		}
		if err := collatz.Validate(seq); err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", ErrStorageCorrupt, key, err)
		}
	}
	return snap, nil
}

func fingerprint(b []byte) uint64 {
	return xxhash.Sum64(b)
}

func encodeCursor(n collatz.Number) []byte {
	return []byte(n.String())
}

func decodeCursor(b []byte) (collatz.Number, error) {
	n, err := collatz.ParseNumber(strings.TrimSpace(string(b)))
	if err != nil {
		return collatz.Number{}, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
	}
	if n.Sign() <= 0 {
		return collatz.Number{}, fmt.Errorf("%w: cursor %s is not positive", ErrStorageCorrupt, n)
	}
	return n, nil
}
