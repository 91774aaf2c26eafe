// Package storetest provides a conformance suite every store.Store
// implementation must pass.
//
//	func TestMyStore(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T) store.Store { return newMyStore(t) })
//	}
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/scan"
	"github.com/hupe1980/shed/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the full suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CannotDuplicate", func(t *testing.T) { testCannotDuplicate(t, newStore(t)) })
	t.Run("Count", func(t *testing.T) { testCount(t, newStore(t)) })
	t.Run("CountConsistency", func(t *testing.T) { testCountConsistency(t, newStore(t)) })
	t.Run("Iterate", func(t *testing.T) { testIterate(t, newStore(t)) })
	t.Run("CannotRemoveAbsent", func(t *testing.T) { testCannotRemoveAbsent(t, newStore(t)) })
	t.Run("RemoveReturnsStoredValue", func(t *testing.T) { testRemoveReturnsStoredValue(t, newStore(t)) })
	t.Run("ConcurrentInsertSameID", func(t *testing.T) { testConcurrentInsertSameID(t, newStore(t)) })
	t.Run("SegmentMerge", func(t *testing.T) { testSegmentMerge(t, newStore(t)) })
}

func prepBase(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, model.Record{ID: 1, Weight: model.FromKilograms(100)}))
	require.NoError(t, s.Insert(ctx, model.Record{ID: 2, Weight: model.FromKilograms(120)}))
}

func testCannotDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	prepBase(t, s)

	// Same id as record 1, different weight.
	err := s.Insert(ctx, model.Record{ID: 1, Weight: model.FromKilograms(120)})
	require.ErrorIs(t, err, store.ErrDuplicateKey)

	var dup *store.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, model.ID(1), dup.ID)

	// No mutation: still exactly one record with id 1, with its first weight.
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	seq, err := s.Iterate(ctx)
	require.NoError(t, err)
	for r := range seq {
		if r.ID == 1 {
			assert.Equal(t, model.FromKilograms(100), r.Weight)
		}
	}
}

func testCount(t *testing.T, s store.Store) {
	ctx := context.Background()
	prepBase(t, s)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Insert(ctx, model.Record{ID: 4, Weight: model.FromKilograms(120)}))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func testCountConsistency(t *testing.T, s store.Store) {
	ctx := context.Background()

	const inserts, removes = 40, 15
	for i := 1; i <= inserts; i++ {
		require.NoError(t, s.Insert(ctx, model.Record{ID: model.ID(i * 3), Weight: model.MinWeight + model.Weight(i)}))
	}
	for i := 1; i <= removes; i++ {
		_, err := s.Remove(ctx, model.ID(i*3))
		require.NoError(t, err)
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, inserts-removes, n)
}

func testIterate(t *testing.T, s store.Store) {
	ctx := context.Background()
	prepBase(t, s)

	seq, err := s.Iterate(ctx)
	require.NoError(t, err)

	total := model.ZeroWeight
	for r := range seq {
		total += r.Weight
	}
	assert.Equal(t, model.FromKilograms(220), total)
}

func testCannotRemoveAbsent(t *testing.T, s store.Store) {
	ctx := context.Background()
	prepBase(t, s)

	// Absent id
	_, err := s.Remove(ctx, 4)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Present id
	_, err = s.Remove(ctx, 2)
	require.NoError(t, err)

	// Not anymore
	_, err = s.Remove(ctx, 2)
	require.ErrorIs(t, err, store.ErrNotFound)

	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, model.ID(2), nf.ID)
}

func testRemoveReturnsStoredValue(t *testing.T, s store.Store) {
	ctx := context.Background()
	prepBase(t, s)

	rec, err := s.Remove(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Record{ID: 2, Weight: model.FromKilograms(120)}, rec)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testConcurrentInsertSameID(t *testing.T, s store.Store) {
	ctx := context.Background()

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dups      int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			err := s.Insert(ctx, model.Record{ID: 99, Weight: model.Weight(w)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, store.ErrDuplicateKey):
				dups++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, writers-1, dups)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// segmented is implemented by stores that expose their scan engine.
type segmented interface {
	Engine() *scan.Engine
}

func testSegmentMerge(t *testing.T, s store.Store) {
	seg, ok := s.(segmented)
	if !ok {
		t.Skip("store does not expose its scan engine")
	}
	ctx := context.Background()

	for i := 1; i <= 75; i++ {
		require.NoError(t, s.Insert(ctx, model.Record{ID: model.ID(i*11 + 5), Weight: model.Weight(i)}))
	}

	baseCount, err := seg.Engine().RunSegments(ctx, 1, scan.ModeCount)
	require.NoError(t, err)
	baseFull, err := seg.Engine().RunSegments(ctx, 1, scan.ModeFull)
	require.NoError(t, err)
	require.Equal(t, 75, baseCount.Count)

	want := idSet(baseFull.Records)
	for _, n := range []int{1, 2, 5, 17} {
		c, err := seg.Engine().RunSegments(ctx, n, scan.ModeCount)
		require.NoError(t, err)
		assert.Equal(t, baseCount.Count, c.Count, "segments=%d", n)

		f, err := seg.Engine().RunSegments(ctx, n, scan.ModeFull)
		require.NoError(t, err)
		assert.Len(t, f.Records, len(baseFull.Records), "segments=%d", n)
		assert.Equal(t, want, idSet(f.Records), "segments=%d", n)
	}
}

func idSet(recs []model.Record) map[model.ID]struct{} {
	out := make(map[model.ID]struct{}, len(recs))
	for _, r := range recs {
		out[r.Key()] = struct{}{}
	}
	return out
}
