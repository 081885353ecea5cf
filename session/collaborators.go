package session

import "github.com/on-the-ground/collatz_ive_go/collatz"

// KnownSet answers whether a value is a memoized start at render time.
// The sequence being rendered is already stored, so its own start is known.
type KnownSet interface {
	Has(n collatz.Number) bool
}

// Display renders one sequence, marking each element known or new.
type Display interface {
	Render(seq collatz.Sequence, known KnownSet) error
}

// Chart renders the distribution of stored sequence lengths.
type Chart interface {
	Render(lengths []int) error
}

// ProgressReporter receives the counters after every step.
type ProgressReporter interface {
	Report(p Progress)
}

// Progress is the pair of counters shown after each step.
type Progress struct {
	Cursor    collatz.Number
	MemoCount int
}
