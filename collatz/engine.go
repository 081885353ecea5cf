package collatz

import (
	"fmt"
	"sync/atomic"
)

// Table is the memo the engine reads and grows.
// Put keys the sequence by its first element and reports whether it was inserted.
type Table interface {
	Has(n Number) bool
	Get(n Number) (Sequence, bool)
	Put(seq Sequence) bool
}

// Stats counts how SequenceFor calls were answered.
type Stats struct {
	Hits   uint64 // served straight from the table
	Misses uint64 // computed, with or without a merge
	Merges uint64 // computations that spliced in a stored tail
}

// Engine computes sequences against a Table. It holds no sequences itself.
type Engine struct {
	table  Table
	hits   atomic.Uint64
	misses atomic.Uint64
	merges atomic.Uint64
}

// NewEngine returns an Engine reading and growing table.
func NewEngine(table Table) *Engine {
	return &Engine{table: table}
}

// SequenceFor returns the full sequence starting at n, computing and storing it on a miss.
//
// While walking the trajectory, the first value already present in the table
// ends the walk: its stored sequence is appended whole. Only non-positive n fail.
func (e *Engine) SequenceFor(n Number) (Sequence, error) {
	if n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, n)
	}
	if seq, ok := e.table.Get(n); ok {
		e.hits.Add(1)
		return seq, nil
	}

	seq, merged := e.walk(n)
	e.misses.Add(1)
	if merged {
		e.merges.Add(1)
	}
	e.table.Put(seq)
	return seq, nil
}

func (e *Engine) walk(start Number) (seq Sequence, merged bool) {
	seq = Sequence{start}
	for cur := start; !cur.IsOne(); {
		// cur is positive here, so Step cannot fail
		next, _ := Step(cur)
		if tail, ok := e.table.Get(next); ok {
			return append(seq, tail...), true
		}
		seq = append(seq, next)
		cur = next
	}
	return seq, false
}

// Lookup returns the stored sequence for n without computing anything.
func (e *Engine) Lookup(n Number) (Sequence, bool) {
	if n.Sign() <= 0 {
		return nil, false
	}
	return e.table.Get(n)
}

// Stats returns the counters accumulated since NewEngine.
func (e *Engine) Stats() Stats {
	return Stats{
		Hits:   e.hits.Load(),
		Misses: e.misses.Load(),
		Merges: e.merges.Load(),
	}
}
