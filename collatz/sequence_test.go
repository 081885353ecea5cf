package collatz_test

import (
	"math"
	"math/big"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/on-the-ground/collatz_ive_go/collatz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep(t *testing.T) {
	cases := map[uint64]uint64{
		1:                  4,
		2:                  1,
		3:                  10,
		6:                  3,
		27:                 82,
		math.MaxUint64 - 1: math.MaxUint64 / 2,
	}
	for in, want := range cases {
		got, err := collatz.Step(num(in))
		require.NoError(t, err)
		assert.Equal(t, num(want), got, "step(%d)", in)
	}

	_, err := collatz.Step(num(0))
	assert.ErrorIs(t, err, collatz.ErrInvalidInput)
	_, err = collatz.Step(collatz.NumberFromInt64(-3))
	assert.ErrorIs(t, err, collatz.ErrInvalidInput)
}

func TestStep_CrossesUint64BothWays(t *testing.T) {
	up, err := collatz.Step(num(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, "55340232221128654846", up.String())
	_, fits := up.Uint64()
	assert.False(t, fits)

	twice, err := collatz.ParseNumber("36893488147419103230")
	require.NoError(t, err)
	down, err := collatz.Step(twice)
	require.NoError(t, err)
	v, fits := down.Uint64()
	assert.True(t, fits, "results back in range are held inline")
	assert.Equal(t, uint64(math.MaxUint64), v)
	assert.Equal(t, num(math.MaxUint64), down)
}

func TestNumber_Basics(t *testing.T) {
	big1, err := collatz.ParseNumber("18446744073709551616")
	require.NoError(t, err)

	assert.Equal(t, 1, big1.Sign())
	assert.Equal(t, 0, num(0).Sign())
	assert.Equal(t, -1, collatz.NumberFromInt64(-1).Sign())

	assert.True(t, num(math.MaxUint64).Next().Equal(big1))
	assert.Equal(t, 1, big1.Cmp(num(math.MaxUint64)))
	assert.Equal(t, -1, num(2).Cmp(num(3)))
	assert.Equal(t, num(5).Key(), collatz.NumberFromBig(big.NewInt(5)).Key())
	assert.NotEqual(t, num(5).Key(), big1.Key())

	b := big1.Big()
	b.SetInt64(0)
	assert.Equal(t, "18446744073709551616", big1.String(), "Big returns a copy")

	_, err = collatz.ParseNumber("1e3")
	assert.Error(t, err)
}

func TestNumber_JSON(t *testing.T) {
	in := collatz.Sequence{num(3), num(10)}
	wide, err := collatz.ParseNumber("55340232221128654846")
	require.NoError(t, err)
	in = append(in, wide)

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `[3,10,55340232221128654846]`, string(b))

	var out collatz.Sequence
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, in.Equal(out))

	for _, bad := range []string{`["3"]`, `[1.5]`, `[7e2]`} {
		assert.Error(t, json.Unmarshal([]byte(bad), &out), bad)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, collatz.Validate(seq(1)))
	assert.NoError(t, collatz.Validate(seq(6, 3, 10, 5, 16, 8, 4, 2, 1)))

	for name, s := range map[string]collatz.Sequence{
		"empty":       {},
		"zero start":  seq(0),
		"not ending":  seq(6, 3, 10),
		"broken step": seq(6, 4, 2, 1),
		"negative":    {collatz.NumberFromInt64(-1), num(1)},
	} {
		assert.ErrorIs(t, collatz.Validate(s), collatz.ErrMalformedSequence, name)
	}
}

func TestParseStart(t *testing.T) {
	n, err := collatz.ParseStart(" 42\n")
	require.NoError(t, err)
	assert.Equal(t, num(42), n)

	n, err = collatz.ParseStart("98765432109876543210987654321")
	require.NoError(t, err)
	assert.Equal(t, "98765432109876543210987654321", n.String())

	for _, in := range []string{"0", "-5", "1.5", "six", ""} {
		_, err := collatz.ParseStart(in)
		assert.ErrorIs(t, err, collatz.ErrInvalidInput, "input %q", in)
	}
}

func TestSequence_Helpers(t *testing.T) {
	s := seq(3, 10, 5, 16, 8, 4, 2, 1)
	assert.Equal(t, "3 10 5 16 8 4 2 1", s.String())
	assert.Equal(t, num(3), s.Start())
	assert.Zero(t, collatz.Sequence{}.Start())

	clone := s.Clone()
	clone[0] = num(99)
	assert.Equal(t, num(3), s[0])
	assert.False(t, s.Equal(clone))
	assert.True(t, s.Equal(s.Clone()))
}
