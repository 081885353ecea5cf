package present

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/on-the-ground/collatz_ive_go/session"
)

const (
	DefaultBins   = 20
	histogramBar  = 50
	HistogramName = "Collatz Sequence Length Histogram"
)

var _ session.Chart = (*Histogram)(nil)

// Histogram prints lengths as equal-width bins over [min, max].
type Histogram struct {
	w    io.Writer
	bins int
}

func NewHistogram(w io.Writer, bins int) *Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	return &Histogram{w: w, bins: bins}
}

type bin struct {
	lo, hi float64
	count  int
}

func (h *Histogram) Render(lengths []int) error {
	var sb strings.Builder
	sb.WriteString(HistogramName + "\n")
	if len(lengths) == 0 {
		sb.WriteString("(no sequences memoized)\n")
		_, err := io.WriteString(h.w, sb.String())
		return err
	}

	bins := binLengths(lengths, h.bins)
	peak := slices.MaxFunc(bins, func(a, b bin) int { return a.count - b.count }).count

	for _, b := range bins {
		bar := 0
		if peak > 0 {
			bar = b.count * histogramBar / peak
		}
		fmt.Fprintf(&sb, "%9s-%-9s | %-*s %s\n",
			humanize.FtoaWithDigits(b.lo, 1),
			humanize.FtoaWithDigits(b.hi, 1),
			histogramBar, strings.Repeat("#", bar),
			humanize.Comma(int64(b.count)),
		)
	}
	fmt.Fprintf(&sb, "sequences: %s  length min/max: %d/%d\n",
		humanize.Comma(int64(len(lengths))), slices.Min(lengths), slices.Max(lengths))

	_, err := io.WriteString(h.w, sb.String())
	return err
}

// binLengths splits [min, max] into n equal bins; the last bin is closed.
// A single distinct value gets one bin of width 1 centred on it.
func binLengths(lengths []int, n int) []bin {
	lo, hi := float64(slices.Min(lengths)), float64(slices.Max(lengths))
	if lo == hi {
		return []bin{{lo: lo - 0.5, hi: hi + 0.5, count: len(lengths)}}
	}

	width := (hi - lo) / float64(n)
	bins := make([]bin, n)
	for i := range bins {
		bins[i].lo = lo + float64(i)*width
		bins[i].hi = lo + float64(i+1)*width
	}
	bins[n-1].hi = hi

	for _, l := range lengths {
		idx := int((float64(l) - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		bins[idx].count++
	}
	return bins
}
