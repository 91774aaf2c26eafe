package scan

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource partitions a fixed record slice by id modulo the segment count
// and pages through each partition pageSize records at a time.
type sliceSource struct {
	records  []model.Record
	approx   uint64
	pageSize int

	failSegment int // -1 disables failure injection
	calls       atomic.Int64

	mu   sync.Mutex
	seen map[int]bool
}

func newSliceSource(n, pageSize int) *sliceSource {
	recs := make([]model.Record, n)
	for i := range recs {
		recs[i] = model.Record{ID: model.ID(i + 1), Weight: model.Weight(1000 + i)}
	}
	return &sliceSource{records: recs, approx: uint64(n), pageSize: pageSize, failSegment: -1, seen: map[int]bool{}}
}

func (s *sliceSource) ApproxCount(context.Context) (uint64, error) {
	return s.approx, nil
}

func (s *sliceSource) ScanSegment(_ context.Context, seg Segment, cursor Cursor, mode Mode) (Page, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.seen[seg.Total] = true
	s.mu.Unlock()

	if seg.Index == s.failSegment {
		return Page{}, errors.New("segment read failed")
	}

	offset := 0
	if cursor != nil {
		offset = cursor.(int)
	}

	var part []model.Record
	for _, r := range s.records {
		if uint64(r.ID)%uint64(seg.Total) == uint64(seg.Index) {
			part = append(part, r)
		}
	}

	end := min(offset+s.pageSize, len(part))
	page := Page{Count: end - offset}
	if mode == ModeFull {
		page.Records = append([]model.Record(nil), part[offset:end]...)
	}
	if end < len(part) {
		page.Next = end
	}
	return page, nil
}

func ids(recs []model.Record) []model.ID {
	out := make([]model.ID, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestSegmentCount(t *testing.T) {
	assert.Equal(t, 1, SegmentCount(0, DefaultMaxSegments))
	assert.Equal(t, 1, SegmentCount(99_999, DefaultMaxSegments))
	assert.Equal(t, 2, SegmentCount(100_000, DefaultMaxSegments))
	assert.Equal(t, 11, SegmentCount(1_000_000, DefaultMaxSegments))
	assert.Equal(t, 8, SegmentCount(10_000_000, 8))
	assert.Equal(t, DefaultMaxSegments, SegmentCount(1<<63, DefaultMaxSegments))
	assert.Equal(t, 1, SegmentCount(500_000, 0))
}

func TestEngine_MergeAcrossSegmentCounts(t *testing.T) {
	ctx := context.Background()
	src := newSliceSource(250, 7)
	e := New(src)

	base, err := e.RunSegments(ctx, 1, ModeFull)
	require.NoError(t, err)
	require.Len(t, base.Records, 250)
	baseCount, err := e.RunSegments(ctx, 1, ModeCount)
	require.NoError(t, err)
	require.Equal(t, 250, baseCount.Count)

	for _, n := range []int{1, 2, 5, 17} {
		counted, err := e.RunSegments(ctx, n, ModeCount)
		require.NoError(t, err)
		assert.Equal(t, baseCount.Count, counted.Count, "segments=%d", n)
		assert.Empty(t, counted.Records)
		assert.Equal(t, n, counted.Segments)

		full, err := e.RunSegments(ctx, n, ModeFull)
		require.NoError(t, err)
		assert.Equal(t, ids(base.Records), ids(full.Records), "segments=%d", n)
		assert.Equal(t, len(full.Records), full.Count)
	}
}

func TestEngine_DeterministicMergeOrder(t *testing.T) {
	ctx := context.Background()
	e := New(newSliceSource(100, 3))

	first, err := e.RunSegments(ctx, 5, ModeFull)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.RunSegments(ctx, 5, ModeFull)
		require.NoError(t, err)
		assert.Equal(t, first.Records, again.Records)
	}

	// Segment 0 holds ids divisible by 5 and is merged first.
	assert.Equal(t, model.ID(5), first.Records[0].ID)
}

func TestEngine_RunSizesFromApproxCount(t *testing.T) {
	ctx := context.Background()
	src := newSliceSource(10, 4)
	src.approx = 450_000 // stale estimate: five segments

	e := New(src)
	res, err := e.Run(ctx, ModeCount)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Segments)
	assert.Equal(t, 10, res.Count)
	assert.True(t, src.seen[5])

	e = New(src, func(o *Options) { o.MaxSegments = 3 })
	res, err = e.Run(ctx, ModeCount)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Segments)
	assert.Equal(t, 10, res.Count)
}

func TestEngine_CountAndCollect(t *testing.T) {
	ctx := context.Background()
	e := New(newSliceSource(42, 5))

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	recs, err := e.Collect(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 42)
}

func TestEngine_EmptyTable(t *testing.T) {
	ctx := context.Background()
	e := New(newSliceSource(0, 5))

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	recs, err := e.Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEngine_SegmentFailureAbortsScan(t *testing.T) {
	ctx := context.Background()
	src := newSliceSource(100, 10)
	src.failSegment = 3

	e := New(src)
	_, err := e.RunSegments(ctx, 5, ModeFull)
	require.Error(t, err)
	assert.EqualError(t, err, "segment read failed")
}

func TestEngine_InvalidSegmentCount(t *testing.T) {
	e := New(newSliceSource(1, 1))
	_, err := e.RunSegments(context.Background(), 0, ModeCount)
	assert.Error(t, err)
}

func TestEngine_Concurrency(t *testing.T) {
	ctx := context.Background()
	e := New(newSliceSource(300, 11), func(o *Options) { o.Concurrency = 2 })

	res, err := e.RunSegments(ctx, 17, ModeCount)
	require.NoError(t, err)
	assert.Equal(t, 300, res.Count)
}

func TestEngine_ControllerSeesEveryRequest(t *testing.T) {
	ctx := context.Background()
	src := newSliceSource(20, 5)
	rc := resource.NewController(resource.Config{})

	e := New(src, func(o *Options) { o.Controller = rc })
	_, err := e.Run(ctx, ModeCount)
	require.NoError(t, err)

	// One describe plus four pages for a single segment of 20 records.
	assert.Equal(t, int64(5), rc.Requests())
	assert.Equal(t, int64(4), src.calls.Load())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "count", ModeCount.String())
	assert.Equal(t, "full", ModeFull.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}
