package memo

import (
	"fmt"
	"sync/atomic"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/on-the-ground/collatz_ive_go/collatz"
)

const (
	sequenceTable = "sequence"
	startIndex    = "id"
)

// entry is the row stored in memdb. Start is the decimal form of Steps[0],
// which keeps starts of any size indexable.
type entry struct {
	Start string
	Steps collatz.Sequence
}

func sequenceSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			sequenceTable: {
				Name: sequenceTable,
				Indexes: map[string]*memdb.IndexSchema{
					startIndex: {
						Name:    startIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Start"},
					},
				},
			},
		},
	}
}

// MemDBRepo keeps the memo table in go-memdb.
// Readers work on immutable snapshots, so lookups never observe a half-applied insert.
type MemDBRepo struct {
	db    *memdb.MemDB
	count atomic.Int64
}

// NewMemDBRepo returns an empty MemDBRepo.
func NewMemDBRepo() (*MemDBRepo, error) {
	db, err := memdb.NewMemDB(sequenceSchema())
	if err != nil {
		return nil, fmt.Errorf("memo: memdb schema: %w", err)
	}
	return &MemDBRepo{db: db}, nil
}

// mustTxn panics on memdb errors, which only arise from a table or index name
// that does not match sequenceSchema.
func mustTxn[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Errorf("memo: memdb schema mismatch: %w", err))
	}
	return v
}

func (m *MemDBRepo) Load(start collatz.Number) (collatz.Sequence, bool) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw := mustTxn(txn.First(sequenceTable, startIndex, start.String()))
	if raw == nil {
		return nil, false
	}
	return raw.(*entry).Steps, true
}

func (m *MemDBRepo) InsertIfAbsent(seq collatz.Sequence) bool {
	txn := m.db.Txn(true)
	defer txn.Abort()

	start := seq.Start().String()
	if old := mustTxn(txn.First(sequenceTable, startIndex, start)); old != nil {
		return false
	}
	if err := txn.Insert(sequenceTable, &entry{Start: start, Steps: seq}); err != nil {
		panic(fmt.Errorf("memo: memdb insert: %w", err))
	}
	txn.Commit()
	m.count.Add(1)
	return true
}

func (m *MemDBRepo) Len() int {
	return int(m.count.Load())
}

// Range visits entries in index order, which is the lexical order of the decimal starts.
func (m *MemDBRepo) Range(fn func(seq collatz.Sequence) bool) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	it := mustTxn(txn.Get(sequenceTable, startIndex))
	for raw := it.Next(); raw != nil; raw = it.Next() {
		if !fn(raw.(*entry).Steps) {
			return
		}
	}
}
