package memo

import (
	"sync"

	"github.com/on-the-ground/collatz_ive_go/collatz"
)

// Repo is the in-memory home of the memo table.
// Sequences are keyed by their first element and never replaced once stored.
type Repo interface {
	Load(start collatz.Number) (collatz.Sequence, bool)
	InsertIfAbsent(seq collatz.Sequence) (inserted bool)
	Len() int
	// Range visits entries in no particular order until fn returns false.
	Range(fn func(seq collatz.Sequence) bool)
}

type mapRepo struct {
	mu      sync.RWMutex
	entries map[collatz.Key]collatz.Sequence
}

// NewMapRepo returns a Repo over a plain Go map.
func NewMapRepo() Repo {
	return &mapRepo{entries: make(map[collatz.Key]collatz.Sequence)}
}

func (r *mapRepo) Load(start collatz.Number) (collatz.Sequence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seq, ok := r.entries[start.Key()]
	return seq, ok
}

func (r *mapRepo) InsertIfAbsent(seq collatz.Sequence) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := seq.Start().Key()
	if _, ok := r.entries[key]; ok {
		return false
	}
	r.entries[key] = seq
	return true
}

func (r *mapRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *mapRepo) Range(fn func(seq collatz.Sequence) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, seq := range r.entries {
		if !fn(seq) {
			return
		}
	}
}
