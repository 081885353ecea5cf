package collatz

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Number is an integer of any size. The zero value is 0.
//
// Values in [0, MaxUint64] are held inline. Anything else lives in a big.Int
// that is never mutated after construction, so a Number can be copied freely.
type Number struct {
	small uint64
	big   *big.Int // nil unless the value is negative or above MaxUint64
}

// Key is the comparable form of a Number, for use as a map key.
type Key struct {
	small uint64
	big   string
}

const maxOddInput = (math.MaxUint64 - 1) / 3

var (
	bigOne   = big.NewInt(1)
	bigThree = big.NewInt(3)
)

// NewNumber returns u as a Number.
func NewNumber(u uint64) Number {
	return Number{small: u}
}

// NumberFromInt64 returns i as a Number.
func NumberFromInt64(i int64) Number {
	if i >= 0 {
		return Number{small: uint64(i)}
	}
	return Number{big: big.NewInt(i)}
}

// NumberFromBig returns a Number holding a copy of b.
func NumberFromBig(b *big.Int) Number {
	return own(new(big.Int).Set(b))
}

// own wraps b without copying; the caller must not touch b afterwards.
func own(b *big.Int) Number {
	if b.Sign() >= 0 && b.IsUint64() {
		return Number{small: b.Uint64()}
	}
	return Number{big: b}
}

// ParseNumber parses a base-10 integer of any length.
func ParseNumber(s string) (Number, error) {
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Number{small: u}, nil
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Number{}, fmt.Errorf("collatz: %q is not an integer", s)
	}
	return own(b), nil
}

// Sign returns -1, 0 or +1.
func (n Number) Sign() int {
	if n.big != nil {
		return n.big.Sign()
	}
	if n.small == 0 {
		return 0
	}
	return 1
}

func (n Number) IsOne() bool {
	return n.big == nil && n.small == 1
}

// Uint64 returns n and true when it fits in a uint64.
func (n Number) Uint64() (uint64, bool) {
	return n.small, n.big == nil
}

// Big returns n as a fresh big.Int the caller may modify.
func (n Number) Big() *big.Int {
	if n.big != nil {
		return new(big.Int).Set(n.big)
	}
	return new(big.Int).SetUint64(n.small)
}

// view returns n as a big.Int that must not be modified.
func (n Number) view() *big.Int {
	if n.big != nil {
		return n.big
	}
	return new(big.Int).SetUint64(n.small)
}

func (n Number) Cmp(m Number) int {
	if n.big == nil && m.big == nil {
		switch {
		case n.small < m.small:
			return -1
		case n.small > m.small:
			return 1
		}
		return 0
	}
	return n.view().Cmp(m.view())
}

// Equal reports whether n and m hold the same value.
func (n Number) Equal(m Number) bool {
	if n.big == nil && m.big == nil {
		return n.small == m.small
	}
	return n.Cmp(m) == 0
}

// Key returns a comparable value usable as a map key.
func (n Number) Key() Key {
	if n.big == nil {
		return Key{small: n.small}
	}
	return Key{big: n.big.String()}
}

// Next returns n+1.
func (n Number) Next() Number {
	if n.big == nil && n.small < math.MaxUint64 {
		return Number{small: n.small + 1}
	}
	return own(new(big.Int).Add(n.view(), bigOne))
}

// String returns n in base 10.
func (n Number) String() string {
	if n.big != nil {
		return n.big.String()
	}
	return strconv.FormatUint(n.small, 10)
}

// MarshalJSON writes n as a bare JSON number of any length.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalJSON accepts integer JSON numbers only.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == '"' || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("collatz: %s is not an integer", b)
	}
	v, err := ParseNumber(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
