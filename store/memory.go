package store

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/scan"
)

// MemoryOptions configures a MemoryStore.
type MemoryOptions struct {
	// PageSize is the number of records returned per segment page.
	PageSize int

	// Scan configures the segmented scan engine.
	Scan []func(o *scan.Options)

	// Logger receives scan progress.
	Logger *slog.Logger
}

// MemoryStore is an in-memory Store implementation for testing.
// It pages through segments exactly like a remote backend would.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[model.ID]model.Record

	pageSize int
	engine   *scan.Engine
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore(optFns ...func(o *MemoryOptions)) *MemoryStore {
	opts := MemoryOptions{PageSize: 100}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}

	m := &MemoryStore{
		records:  make(map[model.ID]model.Record),
		pageSize: opts.PageSize,
	}

	scanOpts := opts.Scan
	if opts.Logger != nil {
		scanOpts = append([]func(o *scan.Options){func(o *scan.Options) { o.Logger = opts.Logger }}, scanOpts...)
	}
	m.engine = scan.New(m, scanOpts...)
	return m
}

// Insert adds rec iff its id is absent.
func (m *MemoryStore) Insert(_ context.Context, rec model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; ok {
		return &DuplicateKeyError{ID: rec.ID}
	}
	m.records[rec.ID] = rec
	return nil
}

// Remove deletes and returns the record with id iff it is present.
func (m *MemoryStore) Remove(_ context.Context, id model.ID) (model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return model.Record{}, &NotFoundError{ID: id}
	}
	delete(m.records, id)
	return rec, nil
}

// Count returns the number of records via a segmented count scan.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	return m.engine.Count(ctx)
}

// Iterate returns a snapshot of all records via a segmented full scan.
func (m *MemoryStore) Iterate(ctx context.Context) (iter.Seq[model.Record], error) {
	recs, err := m.engine.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return Snapshot(recs), nil
}

// Clear removes every record.
func (m *MemoryStore) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.records)
	clear(m.records)
	return n, nil
}

// Engine exposes the scan engine, e.g. to scan with a fixed segment count.
func (m *MemoryStore) Engine() *scan.Engine {
	return m.engine
}

// ApproxCount implements scan.Source. The in-memory count is exact.
func (m *MemoryStore) ApproxCount(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.records)), nil
}

// ScanSegment implements scan.Source.
//
// Segment i of N holds the ids congruent to i modulo N. Pages are ordered by
// id and the cursor is the last id returned.
func (m *MemoryStore) ScanSegment(_ context.Context, seg scan.Segment, cursor scan.Cursor, mode scan.Mode) (scan.Page, error) {
	var (
		after   model.ID
		started bool
	)
	if cursor != nil {
		after = cursor.(model.ID)
		started = true
	}

	m.mu.RLock()
	part := make([]model.Record, 0, len(m.records)/seg.Total+1)
	for id, rec := range m.records {
		if uint64(id)%uint64(seg.Total) != uint64(seg.Index) {
			continue
		}
		if started && id <= after {
			continue
		}
		part = append(part, rec)
	}
	m.mu.RUnlock()

	slices.SortFunc(part, func(a, b model.Record) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	var page scan.Page
	if len(part) > m.pageSize {
		part = part[:m.pageSize]
		page.Next = part[len(part)-1].ID
	}
	page.Count = len(part)
	if mode == scan.ModeFull {
		page.Records = part
	}
	return page, nil
}
