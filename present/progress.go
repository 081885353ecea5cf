package present

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/on-the-ground/collatz_ive_go/session"
)

var _ session.ProgressReporter = (*ProgressLine)(nil)

// FormatProgress renders the counters the way the status line shows them.
func FormatProgress(p session.Progress) string {
	return fmt.Sprintf("Current Number: %s  Memo Count: %s",
		humanize.BigComma(p.Cursor.Big()), humanize.Comma(int64(p.MemoCount)))
}

// ProgressLine prints the counters once every `every` reports.
type ProgressLine struct {
	w     io.Writer
	every int64
	seen  int64
}

// NewProgressLine prints to w; every <= 0 silences it.
func NewProgressLine(w io.Writer, every int64) *ProgressLine {
	return &ProgressLine{w: w, every: every}
}

func (pl *ProgressLine) Report(p session.Progress) {
	pl.seen++
	if pl.every <= 0 || pl.seen%pl.every != 0 {
		return
	}
	fmt.Fprintln(pl.w, FormatProgress(p))
}
