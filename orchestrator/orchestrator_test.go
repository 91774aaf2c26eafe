package orchestrator

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/hupe1980/shed/internal/primes"
	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/resource"
	"github.com/hupe1980/shed/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf(recs ...model.Record) iter.Seq[model.Record] {
	return slices.Values(recs)
}

func TestSelect_TieBreakLastWins(t *testing.T) {
	small := primes.Sieve(10)
	a := model.Record{ID: 1, Weight: 101}
	b := model.Record{ID: 2, Weight: 101}

	got, ok := Select(seqOf(a, b), small)
	require.True(t, ok)
	assert.Equal(t, model.ID(2), got.ID)

	got, ok = Select(seqOf(b, a), small)
	require.True(t, ok)
	assert.Equal(t, model.ID(1), got.ID)
}

func TestSelect_HeaviestRegardlessOfOrder(t *testing.T) {
	// No primes: every weight is eligible.
	light := model.Record{ID: 1, Weight: 100}
	heavy := model.Record{ID: 2, Weight: 200}

	got, ok := Select(seqOf(light, heavy), nil)
	require.True(t, ok)
	assert.Equal(t, heavy, got)

	got, ok = Select(seqOf(heavy, light), nil)
	require.True(t, ok)
	assert.Equal(t, heavy, got)
}

func TestSelect_NoneEligible(t *testing.T) {
	_, ok := Select(seqOf(), primes.Sieve(10))
	assert.False(t, ok)

	_, ok = Select(seqOf(
		model.Record{ID: 1, Weight: 100},
		model.Record{ID: 2, Weight: 49},
	), primes.Sieve(10))
	assert.False(t, ok)
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	for _, r := range []model.Record{{ID: 1, Weight: 97}, {ID: 2, Weight: 100}, {ID: 3, Weight: 101}} {
		require.NoError(t, st.Insert(ctx, r))
	}

	o := New(st, func(o *Options) {
		o.Controller = resource.NewController(resource.Config{MaxCPUWorkers: 1})
	})
	out, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusRemoved, out.Status)
	assert.Equal(t, model.Record{ID: 3, Weight: 101}, out.Record)
	assert.Equal(t, "removed Record(3) weighting 101ug", out.String())

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRun_SmallBound(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	for _, r := range []model.Record{{ID: 1, Weight: 91}, {ID: 2, Weight: 89}, {ID: 3, Weight: 100}} {
		require.NoError(t, st.Insert(ctx, r))
	}

	// Primes up to 10 are enough to tell every weight below 121 apart.
	out, err := New(st, func(o *Options) { o.WeightUpperBound = 120 }).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ID(2), out.Record.ID)
}

func TestRun_NoneEligible(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Insert(ctx, model.Record{ID: 1, Weight: 100}))

	out, err := New(st).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNoneEligible, out.Status)
	assert.Equal(t, "no eligible record", out.String())

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRun_EmptyStore(t *testing.T) {
	out, err := New(store.NewMemoryStore()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNoneEligible, out.Status)
}

// racingStore deletes every record behind the caller's back right after
// handing out a snapshot, as a concurrent writer would.
type racingStore struct {
	*store.MemoryStore
}

func (r racingStore) Iterate(ctx context.Context) (iter.Seq[model.Record], error) {
	seq, err := r.MemoryStore.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := r.Clear(ctx); err != nil {
		return nil, err
	}
	return seq, nil
}

func TestRun_ConcurrentRemovalIsConsistencyViolation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.Insert(ctx, model.Record{ID: 5, Weight: 101}))

	_, err := New(racingStore{mem}).Run(ctx)
	require.ErrorIs(t, err, ErrConsistencyViolation)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, model.ID(5), ce.ID)
}

type failingStore struct {
	*store.MemoryStore
	iterErr   error
	removeErr error
}

func (f failingStore) Iterate(ctx context.Context) (iter.Seq[model.Record], error) {
	if f.iterErr != nil {
		return nil, f.iterErr
	}
	return f.MemoryStore.Iterate(ctx)
}

func (f failingStore) Remove(ctx context.Context, id model.ID) (model.Record, error) {
	if f.removeErr != nil {
		return model.Record{}, f.removeErr
	}
	return f.MemoryStore.Remove(ctx, id)
}

func TestRun_FetchFailure(t *testing.T) {
	ctx := context.Background()
	boom := store.NewStorageError("Scan", "InternalServerError", "boom", errors.New("boom"))
	mem := store.NewMemoryStore()
	require.NoError(t, mem.Insert(ctx, model.Record{ID: 1, Weight: 101}))

	_, err := New(failingStore{MemoryStore: mem, iterErr: boom}).Run(ctx)
	require.ErrorIs(t, err, store.ErrStorage)

	// Nothing removed.
	n, err := mem.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRun_RemoveFailurePropagates(t *testing.T) {
	ctx := context.Background()
	boom := store.NewStorageError("DeleteItem", "", "", errors.New("connection reset"))
	mem := store.NewMemoryStore()
	require.NoError(t, mem.Insert(ctx, model.Record{ID: 1, Weight: 101}))

	_, err := New(failingStore{MemoryStore: mem, removeErr: boom}).Run(ctx)
	require.ErrorIs(t, err, store.ErrStorage)
	assert.NotErrorIs(t, err, ErrConsistencyViolation)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ctrl := resource.NewController(resource.Config{MaxCPUWorkers: 1})
	require.NoError(t, ctrl.AcquireCPU(context.Background()))
	defer ctrl.ReleaseCPU()

	// The only CPU slot is taken, so the sieve waits and sees the cancellation.
	_, err := New(store.NewMemoryStore(), func(o *Options) { o.Controller = ctrl }).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "removed", StatusRemoved.String())
	assert.Equal(t, "none_eligible", StatusNoneEligible.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
