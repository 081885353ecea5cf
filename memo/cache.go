package memo

import (
	"fmt"

	ristretto "github.com/dgraph-io/ristretto/v2"
	"github.com/on-the-ground/collatz_ive_go/collatz"
)

// CachedRepo puts a bounded ristretto cache in front of another Repo.
// The backing repo stays authoritative; the cache only short-cuts hot lookups.
type CachedRepo struct {
	Repo
	cache *ristretto.Cache[string, collatz.Sequence]
}

// NewCachedRepo wraps backing with a cache holding up to maxCost sequence elements.
func NewCachedRepo(backing Repo, maxCost int64) (*CachedRepo, error) {
	if maxCost <= 0 {
		return nil, fmt.Errorf("memo: cache size must be positive, got %d", maxCost)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, collatz.Sequence]{
		NumCounters: 10 * maxCost, // ten counters per expected item is the ristretto guideline
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("memo: ristretto: %w", err)
	}
	return &CachedRepo{Repo: backing, cache: cache}, nil
}

func (c *CachedRepo) Load(start collatz.Number) (collatz.Sequence, bool) {
	key := start.String()
	if seq, ok := c.cache.Get(key); ok {
		return seq, true
	}
	seq, ok := c.Repo.Load(start)
	if ok {
		c.cache.Set(key, seq, int64(len(seq)))
	}
	return seq, ok
}

func (c *CachedRepo) InsertIfAbsent(seq collatz.Sequence) bool {
	if !c.Repo.InsertIfAbsent(seq) {
		return false
	}
	c.cache.Set(seq.Start().String(), seq, int64(len(seq)))
	return true
}

// Wait blocks until pending cache writes are applied.
func (c *CachedRepo) Wait() {
	c.cache.Wait()
}

// Close stops the cache's background goroutines. The backing repo is left open.
func (c *CachedRepo) Close() error {
	c.cache.Close()
	return nil
}
