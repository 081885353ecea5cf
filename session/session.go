// Package session drives the engine one start at a time.
//
// A Session owns the engine, the store and the presentation collaborators.
// Step performs one compute, render, advance, persist cycle; Run calls Step on
// a fixed-interval ticker. Every public method serializes on one mutex.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/on-the-ground/collatz_ive_go/collatz"
	"github.com/on-the-ground/collatz_ive_go/effects"
	"github.com/on-the-ground/collatz_ive_go/effects/log"
)

// Store is what a session needs from the memo store.
type Store interface {
	collatz.Table
	Cursor() collatz.Number
	Len() int
	Lengths() []int
	PersistMemo(ctx context.Context) error
	PersistCursor(ctx context.Context, n collatz.Number) error
}

// Options tunes a Session.
type Options struct {
	// MemoEvery persists the memo table every MemoEvery steps. Zero means 1.
	MemoEvery int64
	// MaxSteps stops Run after that many steps. Zero means no limit.
	MaxSteps   int64
	ShowOutput bool
}

// Collaborators are the presentation hooks a Session drives.
type Collaborators struct {
	Display  Display
	Chart    Chart
	Progress ProgressReporter // optional
}

// StepResult describes one completed Step.
type StepResult struct {
	Start    collatz.Number
	Sequence collatz.Sequence
	Cached   bool
	Span     effects.TimeSpan
	Progress Progress
}

// Session is the explicit engine object: it owns the engine, the store and
// the collaborators for one run.
type Session struct {
	mu sync.Mutex

	id     uuid.UUID
	engine *collatz.Engine
	store  Store
	collab Collaborators
	opts   Options

	steps      int64
	showOutput bool
}

// New builds a Session over store. Display and Chart are required.
func New(store Store, collab Collaborators, opts Options) (*Session, error) {
	if store == nil {
		return nil, errors.New("session: nil store")
	}
	if collab.Display == nil || collab.Chart == nil {
		return nil, errors.New("session: display and chart are required")
	}
	if opts.MemoEvery <= 0 {
		opts.MemoEvery = 1
	}
	return &Session{
		id:         uuid.New(),
		engine:     collatz.NewEngine(store),
		store:      store,
		collab:     collab,
		opts:       opts,
		showOutput: opts.ShowOutput,
	}, nil
}

// ID identifies this run in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Step processes the start under the cursor.
//
// An engine error (only possible for a non-positive cursor) aborts the step and
// leaves the cursor where it was. Persistence failures are logged and the step
// still counts.
func (s *Session) Step(ctx context.Context) (StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(ctx)
}

func (s *Session) step(ctx context.Context) (StepResult, error) {
	start := s.store.Cursor()
	cached := s.store.Has(start)

	var (
		seq collatz.Sequence
		err error
	)
	span := effects.Measure(func() {
		seq, err = s.engine.SequenceFor(start)
	})
	if err != nil {
		log.LogEff(ctx, log.LogWarn, "step failed", map[string]interface{}{
			"session": s.id.String(),
			"start":   start.String(),
			"error":   err,
		})
		return StepResult{}, fmt.Errorf("session: start %s: %w", start, err)
	}

	if s.showOutput {
		if err := s.collab.Display.Render(seq, s.store); err != nil {
			log.LogEff(ctx, log.LogWarn, "render failed", map[string]interface{}{
				"session": s.id.String(),
				"start":   start.String(),
				"error":   err,
			})
		}
	}

	s.steps++
	if err := s.store.PersistCursor(ctx, start.Next()); err != nil {
		s.logPersistFailure(ctx, "cursor", err)
	}
	if s.steps%s.opts.MemoEvery == 0 {
		if err := s.store.PersistMemo(ctx); err != nil {
			s.logPersistFailure(ctx, "memo", err)
		}
	}

	progress := s.progress()
	if s.collab.Progress != nil {
		s.collab.Progress.Report(progress)
	}
	log.LogEff(ctx, log.LogDebug, "step", map[string]interface{}{
		"session":  s.id.String(),
		"start":    start.String(),
		"length":   len(seq),
		"cached":   cached,
		"duration": span.Duration().String(),
	})

	return StepResult{
		Start:    start,
		Sequence: seq,
		Cached:   cached,
		Span:     span,
		Progress: progress,
	}, nil
}

func (s *Session) logPersistFailure(ctx context.Context, what string, err error) {
	log.LogEff(ctx, log.LogError, "persist failed", map[string]interface{}{
		"session": s.id.String(),
		"what":    what,
		"error":   err,
	})
}

// Run calls Step every interval until ctx is done, MaxSteps is reached, or a step fails.
// It returns nil on cancellation and on reaching MaxSteps.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("session: tick interval %s must be positive", interval)
	}
	log.LogEff(ctx, log.LogInfo, "session started", map[string]interface{}{
		"session":  s.id.String(),
		"cursor":   s.store.Cursor().String(),
		"memo":     s.store.Len(),
		"interval": interval.String(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var ran int64
	for {
		if s.opts.MaxSteps > 0 && ran >= s.opts.MaxSteps {
			log.LogEff(ctx, log.LogInfo, "session reached max steps", map[string]interface{}{
				"session": s.id.String(),
				"steps":   ran,
			})
			return nil
		}
		select {
		case <-ctx.Done():
			log.LogEff(ctx, log.LogInfo, "session stopped", map[string]interface{}{
				"session": s.id.String(),
				"steps":   ran,
			})
			return nil
		case <-ticker.C:
			if _, err := s.Step(ctx); err != nil {
				return err
			}
			ran++
		}
	}
}

// Histogram hands every stored sequence length to the chart.
func (s *Session) Histogram(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lengths := s.store.Lengths()
	log.LogEff(ctx, log.LogDebug, "rendering histogram", map[string]interface{}{
		"session": s.id.String(),
		"entries": len(lengths),
	})
	if err := s.collab.Chart.Render(lengths); err != nil {
		return fmt.Errorf("session: histogram: %w", err)
	}
	return nil
}

// Progress returns the current cursor and memo count.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress()
}

func (s *Session) progress() Progress {
	return Progress{Cursor: s.store.Cursor(), MemoCount: s.store.Len()}
}

// ToggleOutput flips whether Step renders, and returns the new setting.
func (s *Session) ToggleOutput() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showOutput = !s.showOutput
	return s.showOutput
}

// Stats returns the engine's hit, miss and merge counters.
func (s *Session) Stats() collatz.Stats {
	return s.engine.Stats()
}

// Close persists the memo table and the cursor.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor := s.store.Cursor()
	err := errors.Join(
		s.store.PersistMemo(ctx),
		s.store.PersistCursor(ctx, cursor),
	)
	log.LogEff(ctx, log.LogInfo, "session closed", map[string]interface{}{
		"session": s.id.String(),
		"cursor":  cursor.String(),
		"memo":    s.store.Len(),
		"steps":   s.steps,
	})
	if err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	return nil
}
