package memo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/on-the-ground/collatz_ive_go/collatz"
	"github.com/on-the-ground/collatz_ive_go/effects/log"
)

// DefaultCursor is where a fresh run starts.
var DefaultCursor = collatz.NewNumber(1)

var _ collatz.Table = (*Store)(nil)

// Store is the durable memo table plus the cursor.
//
// The table and the cursor live in two files and are persisted independently;
// a crash between the two writes can leave them out of step, which the engine
// tolerates because recomputing any start is safe.
type Store struct {
	repo       Repo
	memoPath   string
	cursorPath string

	mu     sync.Mutex // guards cursor
	cursor collatz.Number
}

// NewStore returns an empty store over repo. Call Load to read the files.
func NewStore(repo Repo, memoPath, cursorPath string) *Store {
	return &Store{
		repo:       repo,
		memoPath:   memoPath,
		cursorPath: cursorPath,
		cursor:     DefaultCursor,
	}
}

// LoadReport describes what Load found. MemoErr and CursorErr wrap
// ErrStorageMissing or ErrStorageCorrupt when a default had to be used.
type LoadReport struct {
	Entries     int
	Cursor      collatz.Number
	Fingerprint uint64
	MemoErr     error
	CursorErr   error
}

// Fresh reports whether both files were absent.
func (r LoadReport) Fresh() bool {
	return errors.Is(r.MemoErr, ErrStorageMissing) && errors.Is(r.CursorErr, ErrStorageMissing)
}

// Load reads the persisted table and cursor into the store.
// It never fails: a missing or unusable file leaves the empty table or cursor 1 in place.
func (s *Store) Load(ctx context.Context) LoadReport {
	var report LoadReport

	if snap, digest, err := s.readSnapshot(); err != nil {
		report.MemoErr = err
		logLoadFailure(ctx, "memo", s.memoPath, err)
	} else {
		for _, seq := range snap {
			s.repo.InsertIfAbsent(seq)
		}
		report.Fingerprint = digest
	}

	cursor, err := s.readCursor()
	if err != nil {
		report.CursorErr = err
		cursor = DefaultCursor
		logLoadFailure(ctx, "cursor", s.cursorPath, err)
	}
	s.mu.Lock()
	s.cursor = cursor
	s.mu.Unlock()

	report.Entries = s.repo.Len()
	report.Cursor = cursor
	log.LogEff(ctx, log.LogInfo, "memo store loaded", map[string]interface{}{
		"entries":     report.Entries,
		"cursor":      report.Cursor.String(),
		"fingerprint": fmt.Sprintf("%016x", report.Fingerprint),
	})
	return report
}

func (s *Store) readSnapshot() (snapshot, uint64, error) {
	b, err := readState(s.memoPath)
	if err != nil {
		return nil, 0, err
	}
	snap, err := decodeSnapshot(b)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", s.memoPath, err)
	}
	return snap, fingerprint(b), nil
}

func (s *Store) readCursor() (collatz.Number, error) {
	b, err := readState(s.cursorPath)
	if err != nil {
		return collatz.Number{}, err
	}
	n, err := decodeCursor(b)
	if err != nil {
		return collatz.Number{}, fmt.Errorf("%s: %w", s.cursorPath, err)
	}
	return n, nil
}

func logLoadFailure(ctx context.Context, what, path string, err error) {
	level, msg := log.LogWarn, what+" file corrupt, starting fresh"
	if errors.Is(err, ErrStorageMissing) {
		level, msg = log.LogInfo, what+" file missing, starting fresh"
	}
	log.LogEff(ctx, level, msg, map[string]interface{}{
		"path": path,
		"err":  err,
	})
}

// Has reports whether a sequence starting at n is stored.
func (s *Store) Has(n collatz.Number) bool {
	_, ok := s.repo.Load(n)
	return ok
}

// Get returns a copy of the stored sequence for n.
func (s *Store) Get(n collatz.Number) (collatz.Sequence, bool) {
	seq, ok := s.repo.Load(n)
	if !ok {
		return nil, false
	}
	return seq.Clone(), true
}

// Put stores seq under its first element.
// An existing entry is kept as-is, so Put reports false for both an identical
// and a conflicting overwrite. Empty sequences are refused.
func (s *Store) Put(seq collatz.Sequence) bool {
	if len(seq) == 0 {
		return false
	}
	return s.repo.InsertIfAbsent(seq.Clone())
}

// Len returns the number of stored sequences.
func (s *Store) Len() int {
	return s.repo.Len()
}

// Lengths returns the length of every stored sequence, in no particular order.
func (s *Store) Lengths() []int {
	lengths := make([]int, 0, s.repo.Len())
	s.repo.Range(func(seq collatz.Sequence) bool {
		lengths = append(lengths, len(seq))
		return true
	})
	return lengths
}

// Cursor returns the next start to process.
func (s *Store) Cursor() collatz.Number {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// PersistMemo writes a full snapshot of the table, replacing the previous file.
func (s *Store) PersistMemo(ctx context.Context) error {
	b, err := encodeSnapshot(snapshotOf(s.repo))
	if err != nil {
		return fmt.Errorf("memo: encode snapshot: %w", err)
	}
	if err := writeFileAtomic(s.memoPath, b); err != nil {
		return fmt.Errorf("memo: write %s: %w", s.memoPath, err)
	}
	log.LogEff(ctx, log.LogDebug, "memo persisted", map[string]interface{}{
		"path":        s.memoPath,
		"entries":     s.repo.Len(),
		"bytes":       len(b),
		"fingerprint": fmt.Sprintf("%016x", fingerprint(b)),
	})
	return nil
}

// PersistCursor records n as the cursor and writes it, replacing the previous file.
// The in-memory cursor moves even when the write fails.
func (s *Store) PersistCursor(ctx context.Context, n collatz.Number) error {
	if n.Sign() <= 0 {
		return fmt.Errorf("%w: cursor %s", collatz.ErrInvalidInput, n)
	}
	s.mu.Lock()
	s.cursor = n
	s.mu.Unlock()

	if err := writeFileAtomic(s.cursorPath, encodeCursor(n)); err != nil {
		return fmt.Errorf("memo: write %s: %w", s.cursorPath, err)
	}
	return nil
}

// Fingerprint hashes the snapshot the store would persist right now.
func (s *Store) Fingerprint() (uint64, error) {
	b, err := encodeSnapshot(snapshotOf(s.repo))
	if err != nil {
		return 0, err
	}
	return fingerprint(b), nil
}

// Close releases the repo if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.repo.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
