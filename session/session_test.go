package session_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/on-the-ground/collatz_ive_go/collatz"
	"github.com/on-the-ground/collatz_ive_go/effects/log"
	"github.com/on-the-ground/collatz_ive_go/memo"
	"github.com/on-the-ground/collatz_ive_go/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ session.Store = (*memo.Store)(nil)

var (
	num = collatz.NewNumber
	seq = collatz.SequenceOf
)

type rendered struct {
	seq   collatz.Sequence
	known []bool
}

type recordingDisplay struct {
	renders []rendered
}

func (d *recordingDisplay) Render(seq collatz.Sequence, known session.KnownSet) error {
	flags := make([]bool, len(seq))
	for i, n := range seq {
		flags[i] = known.Has(n)
	}
	d.renders = append(d.renders, rendered{seq: seq, known: flags})
	return nil
}

type recordingChart struct {
	lengths []int
	err     error
}

func (c *recordingChart) Render(lengths []int) error {
	c.lengths = lengths
	return c.err
}

type recordingProgress struct {
	reports []session.Progress
}

func (p *recordingProgress) Report(pr session.Progress) {
	p.reports = append(p.reports, pr)
}

type fixture struct {
	ctx        context.Context
	dir        string
	store      *memo.Store
	display    *recordingDisplay
	chart      *recordingChart
	progress   *recordingProgress
	memoPath   string
	cursorPath string
}

func newFixture(t *testing.T) *fixture {
	ctx, endOfLog := log.WithTestEffectHandler(context.Background())
	t.Cleanup(func() { endOfLog() })

	dir := t.TempDir()
	f := &fixture{
		ctx:        ctx,
		dir:        dir,
		display:    &recordingDisplay{},
		chart:      &recordingChart{},
		progress:   &recordingProgress{},
		memoPath:   filepath.Join(dir, "memo.json"),
		cursorPath: filepath.Join(dir, "current_num.txt"),
	}
	f.store = memo.NewStore(memo.NewMapRepo(), f.memoPath, f.cursorPath)
	return f
}

func (f *fixture) session(t *testing.T, opts session.Options) *session.Session {
	s, err := session.New(f.store, session.Collaborators{
		Display:  f.display,
		Chart:    f.chart,
		Progress: f.progress,
	}, opts)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresCollaborators(t *testing.T) {
	f := newFixture(t)

	_, err := session.New(nil, session.Collaborators{Display: f.display, Chart: f.chart}, session.Options{})
	assert.Error(t, err)

	_, err = session.New(f.store, session.Collaborators{Chart: f.chart}, session.Options{})
	assert.Error(t, err)

	_, err = session.New(f.store, session.Collaborators{Display: f.display}, session.Options{})
	assert.Error(t, err)
}

func TestStep_AdvancesAndPersists(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{})

	res, err := s.Step(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, num(1), res.Start)
	assert.Equal(t, seq(1), res.Sequence)
	assert.False(t, res.Cached)
	assert.Equal(t, session.Progress{Cursor: num(2), MemoCount: 1}, res.Progress)

	cursor, err := os.ReadFile(f.cursorPath)
	require.NoError(t, err)
	assert.Equal(t, "2", string(cursor))

	memoBytes, err := os.ReadFile(f.memoPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":[1]}`, string(memoBytes))

	assert.Equal(t, []session.Progress{{Cursor: num(2), MemoCount: 1}}, f.progress.reports)
}

func TestStep_RendersStoredStartsAsKnown(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{ShowOutput: true})

	for i := 0; i < 3; i++ {
		_, err := s.Step(f.ctx)
		require.NoError(t, err)
	}
	require.Len(t, f.display.renders, 3)

	// the start is stored before the render, so it always shows as known
	assert.Equal(t, []bool{true}, f.display.renders[0].known)
	assert.Equal(t, []bool{true, true}, f.display.renders[1].known)

	three := f.display.renders[2]
	assert.Equal(t, seq(3, 10, 5, 16, 8, 4, 2, 1), three.seq)
	assert.Equal(t, []bool{true, false, false, false, false, false, true, true}, three.known)

	require.True(t, f.store.Put(seq(4, 2, 1)))
	res, err := s.Step(f.ctx)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, []bool{true, true, true}, f.display.renders[3].known)
}

func TestStep_OutputToggle(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{})

	_, err := s.Step(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, f.display.renders)

	assert.True(t, s.ToggleOutput())
	_, err = s.Step(f.ctx)
	require.NoError(t, err)
	assert.Len(t, f.display.renders, 1)

	assert.False(t, s.ToggleOutput())
	_, err = s.Step(f.ctx)
	require.NoError(t, err)
	assert.Len(t, f.display.renders, 1)
}

func TestStep_MemoCadence(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{MemoEvery: 3})

	for i := 0; i < 2; i++ {
		_, err := s.Step(f.ctx)
		require.NoError(t, err)
	}
	_, err := os.Stat(f.memoPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.FileExists(t, f.cursorPath)

	_, err = s.Step(f.ctx)
	require.NoError(t, err)
	assert.FileExists(t, f.memoPath)
}

func TestStep_PersistFailureIsLoggedNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	ctx, endOfLog := log.WithZapEffectHandler(context.Background(), 4, zap.New(core))
	defer endOfLog()

	missing := filepath.Join(t.TempDir(), "no", "such", "dir")
	store := memo.NewStore(memo.NewMapRepo(), filepath.Join(missing, "memo.json"), filepath.Join(missing, "current_num.txt"))
	s, err := session.New(store, session.Collaborators{Display: &recordingDisplay{}, Chart: &recordingChart{}}, session.Options{})
	require.NoError(t, err)

	res, err := s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, num(2), res.Progress.Cursor)
	assert.Equal(t, num(2), s.Progress().Cursor)

	require.Eventually(t, func() bool { return logs.FilterMessage("persist failed").Len() == 2 }, time.Second, 5*time.Millisecond)
}

func TestStep_WideStartsAdvance(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{})

	for _, in := range []string{"1980976057694848447", strconv.FormatInt(math.MaxInt64, 10)} {
		start, err := collatz.ParseStart(in)
		require.NoError(t, err)
		require.NoError(t, f.store.PersistCursor(f.ctx, start))

		res, err := s.Step(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, in, res.Start.String())
		assert.True(t, res.Sequence[len(res.Sequence)-1].IsOne())
		require.NoError(t, collatz.Validate(res.Sequence))
		assert.True(t, start.Next().Equal(s.Progress().Cursor))
	}
	assert.Equal(t, 2, s.Progress().MemoCount)

	cursor, err := os.ReadFile(f.cursorPath)
	require.NoError(t, err)
	assert.Equal(t, "9223372036854775808", string(cursor))
}

// zeroCursorStore reports a cursor the engine must reject.
type zeroCursorStore struct {
	*memo.Store
}

func (zeroCursorStore) Cursor() collatz.Number { return collatz.Number{} }

func TestStep_EngineErrorLeavesCursor(t *testing.T) {
	f := newFixture(t)
	s, err := session.New(zeroCursorStore{f.store}, session.Collaborators{Display: f.display, Chart: f.chart}, session.Options{})
	require.NoError(t, err)

	_, err = s.Step(f.ctx)
	assert.ErrorIs(t, err, collatz.ErrInvalidInput)
	assert.Equal(t, num(1), f.store.Cursor())
	assert.Zero(t, f.store.Len())

	assert.ErrorIs(t, s.Run(f.ctx, time.Millisecond), collatz.ErrInvalidInput)
}

func TestRun_StopsAtMaxSteps(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{MaxSteps: 5})

	require.NoError(t, s.Run(f.ctx, time.Millisecond))
	assert.Equal(t, session.Progress{Cursor: num(6), MemoCount: 5}, s.Progress())
	assert.Len(t, f.progress.reports, 5)
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{})

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	require.NoError(t, s.Run(ctx, time.Hour))
	assert.Equal(t, num(1), s.Progress().Cursor)
}

func TestRun_RejectsNonPositiveInterval(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{})
	assert.Error(t, s.Run(f.ctx, 0))
}

func TestHistogram_PassesStoredLengths(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{MaxSteps: 3})
	require.NoError(t, s.Run(f.ctx, time.Millisecond))

	require.NoError(t, s.Histogram(f.ctx))
	assert.ElementsMatch(t, []int{1, 2, 8}, f.chart.lengths)

	f.chart.err = errors.New("no terminal")
	assert.ErrorContains(t, s.Histogram(f.ctx), "no terminal")
}

func TestClose_PersistsBoth(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{MemoEvery: 100, MaxSteps: 4})
	require.NoError(t, s.Run(f.ctx, time.Millisecond))
	require.NoError(t, s.Close(f.ctx))

	reloaded := memo.NewStore(memo.NewMapRepo(), f.memoPath, f.cursorPath)
	report := reloaded.Load(f.ctx)
	require.NoError(t, report.MemoErr)
	require.NoError(t, report.CursorErr)
	assert.Equal(t, 4, reloaded.Len())
	assert.Equal(t, num(5), reloaded.Cursor())
}

func TestStats_CountsHitsAndMerges(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, session.Options{MaxSteps: 3})
	require.NoError(t, s.Run(f.ctx, time.Millisecond))

	st := s.Stats()
	assert.Equal(t, uint64(3), st.Misses)
	assert.Equal(t, uint64(2), st.Merges)
	assert.Zero(t, st.Hits)
}
