package present

import (
	"bufio"
	"io"

	"github.com/on-the-ground/collatz_ive_go/collatz"
	"github.com/on-the-ground/collatz_ive_go/session"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

var _ session.Display = (*Terminal)(nil)

// Terminal prints known elements in green and new ones in red.
// With Color off, new elements are suffixed with '*' instead.
type Terminal struct {
	w     io.Writer
	Color bool
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer, color bool) *Terminal {
	return &Terminal{w: w, Color: color}
}

// Render writes seq on one line.
func (t *Terminal) Render(seq collatz.Sequence, known session.KnownSet) error {
	bw := bufio.NewWriter(t.w)
	for i, n := range seq {
		if i > 0 {
			bw.WriteByte(' ')
		}
		t.writeNumber(bw, n, known.Has(n))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func (t *Terminal) writeNumber(bw *bufio.Writer, n collatz.Number, known bool) {
	digits := n.String()
	switch {
	case t.Color && known:
		bw.WriteString(ansiGreen + digits + ansiReset)
	case t.Color:
		bw.WriteString(ansiRed + digits + ansiReset)
	case known:
		bw.WriteString(digits)
	default:
		bw.WriteString(digits + "*")
	}
}
