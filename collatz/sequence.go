package collatz

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Sequence is a trajectory from its first element down to 1.
type Sequence []Number

var (
	// ErrInvalidInput is returned for starts that are not positive integers.
	ErrInvalidInput = errors.New("collatz: start must be a positive integer")

	// ErrMalformedSequence is returned by Validate.
	ErrMalformedSequence = errors.New("collatz: malformed sequence")
)

// Step applies the Collatz map once. Only non-positive n fail.
//
// Values stay inline while 3n+1 fits in a uint64 and move to big.Int beyond that.
func Step(n Number) (Number, error) {
	if n.Sign() <= 0 {
		return Number{}, fmt.Errorf("%w: %s", ErrInvalidInput, n)
	}
	if n.big == nil {
		switch {
		case n.small%2 == 0:
			return Number{small: n.small / 2}, nil
		case n.small <= maxOddInput:
			return Number{small: 3*n.small + 1}, nil
		}
	}
	v := n.view()
	next := new(big.Int)
	if v.Bit(0) == 0 {
		next.Rsh(v, 1)
	} else {
		next.Mul(v, bigThree).Add(next, bigOne)
	}
	return own(next), nil
}

// SequenceOf builds a Sequence from small values.
func SequenceOf(ns ...uint64) Sequence {
	seq := make(Sequence, len(ns))
	for i, n := range ns {
		seq[i] = NewNumber(n)
	}
	return seq
}

// Start returns the first element, or 0 for an empty sequence.
func (s Sequence) Start() Number {
	if len(s) == 0 {
		return Number{}
	}
	return s[0]
}

// Equal reports whether both sequences hold the same values in the same order.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy whose backing array is not shared with s.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// String joins the elements with single spaces.
func (s Sequence) String() string {
	var b strings.Builder
	for i, n := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n.String())
	}
	return b.String()
}

// Validate checks that seq is a complete trajectory: non-empty, ends in 1,
// and each element is the Collatz step of the previous one.
func Validate(seq Sequence) error {
	if len(seq) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformedSequence)
	}
	if seq[0].Sign() <= 0 {
		return fmt.Errorf("%w: starts at %s", ErrMalformedSequence, seq[0])
	}
	if last := seq[len(seq)-1]; !last.IsOne() {
		return fmt.Errorf("%w: ends at %s", ErrMalformedSequence, last)
	}
	for i := 0; i+1 < len(seq); i++ {
		next, err := Step(seq[i])
		if err != nil {
			return fmt.Errorf("%w: index %d: %w", ErrMalformedSequence, i, err)
		}
		if !next.Equal(seq[i+1]) {
			return fmt.Errorf("%w: index %d: %s does not step to %s", ErrMalformedSequence, i, seq[i], seq[i+1])
		}
	}
	return nil
}

// ParseStart parses a user-supplied start value of any size.
func ParseStart(s string) (Number, error) {
	n, err := ParseNumber(strings.TrimSpace(s))
	if err != nil {
		return Number{}, fmt.Errorf("%w: %q", ErrInvalidInput, s)
	}
	if n.Sign() <= 0 {
		return Number{}, fmt.Errorf("%w: %s", ErrInvalidInput, n)
	}
	return n, nil
}
