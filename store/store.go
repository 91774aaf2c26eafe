package store

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/hupe1980/shed/model"
)

// Store is a table of records keyed by ID.
//
// Insert and Remove are atomic conditional operations at the backend; no
// client-side locking is involved. Count and Iterate are read-only but not
// linearizable with concurrent writes: they may miss or double-observe
// records inserted or removed while they run.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Insert adds rec iff no record with rec.ID exists.
	// Returns a *DuplicateKeyError otherwise, without mutating the table.
	Insert(ctx context.Context, rec model.Record) error

	// Remove deletes the record with id iff it exists and returns the deleted
	// value. Returns a *NotFoundError otherwise, without mutating the table.
	Remove(ctx context.Context, id model.ID) (model.Record, error)

	// Count returns the number of distinct ids currently present.
	Count(ctx context.Context) (int, error)

	// Iterate returns a finite, best-effort snapshot of all records.
	// The returned sequence can be ranged over once.
	Iterate(ctx context.Context) (iter.Seq[model.Record], error)
}

// Clearer is implemented by stores that can drop every record at once.
type Clearer interface {
	// Clear removes all records and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Snapshot wraps recs in a sequence that yields them at most once.
func Snapshot(recs []model.Record) iter.Seq[model.Record] {
	var used atomic.Bool
	return func(yield func(model.Record) bool) {
		if used.Swap(true) {
			return
		}
		for _, r := range recs {
			if !yield(r) {
				return
			}
		}
	}
}
