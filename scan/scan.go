// Package scan implements the segmented parallel scan used to count and
// collect every record of a table too large to read in one request.
//
// The table is split into N disjoint, exhaustive segments ("segment i of N",
// as defined by the backend). One worker per segment pages through its
// segment until the backend reports no continuation, then the per-segment
// results are merged. N grows with the backend's approximate item count so
// that every segment needs roughly the same small number of pages.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/resource"
	"golang.org/x/sync/errgroup"
)

const (
	// ItemsPerSegment is the expected work of a single segment.
	//
	// A record is ~50 bytes on the wire, so a 1MB page carries ~20k records
	// and a segment of 100k records completes in about five pages.
	ItemsPerSegment = 100_000

	// DefaultMaxSegments is the largest segment count a scan will request.
	DefaultMaxSegments = 1_000_000
)

// Mode selects what a scan accumulates.
type Mode int

const (
	// ModeCount only counts records.
	ModeCount Mode = iota
	// ModeFull materializes every record.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeCount:
		return "count"
	case ModeFull:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Segment identifies one partition of the key space.
type Segment struct {
	Index int
	Total int
}

// Cursor is an opaque continuation token owned by a Source.
// A nil Cursor starts a segment; a nil Page.Next ends it.
type Cursor any

// Page is one paginated read of a segment.
type Page struct {
	// Count is the number of records the page covered.
	Count int
	// Records holds the page's records in ModeFull. It is empty in ModeCount.
	Records []model.Record
	// Next continues the segment, or is nil when the segment is exhausted.
	Next Cursor
}

// Source is a table that can be read segment by segment.
type Source interface {
	// ApproxCount returns a possibly stale estimate of the item count.
	ApproxCount(ctx context.Context) (uint64, error)

	// ScanSegment reads one page of seg starting at cursor.
	ScanSegment(ctx context.Context, seg Segment, cursor Cursor, mode Mode) (Page, error)
}

// SegmentCount sizes a scan: 1 + approx/ItemsPerSegment, clamped to [1, upper].
func SegmentCount(approx uint64, upper int) int {
	if upper < 1 {
		upper = 1
	}
	n := 1 + approx/ItemsPerSegment
	if n > uint64(upper) {
		return upper
	}
	return int(n)
}

// Options configures an Engine.
type Options struct {
	// MaxSegments clamps the computed segment count.
	MaxSegments int

	// Concurrency caps the number of segment workers running at once.
	// Values <= 0 mean one worker per segment.
	Concurrency int

	// Controller paces page reads. Nil means unpaced.
	Controller *resource.Controller

	// Logger receives scan progress.
	Logger *slog.Logger
}

// DefaultOptions contains the default engine options.
var DefaultOptions = Options{
	MaxSegments: DefaultMaxSegments,
	Concurrency: 0,
}

// Engine runs segmented scans over a Source.
type Engine struct {
	src  Source
	opts Options
}

// New creates a scan Engine for src.
func New(src Source, optFns ...func(o *Options)) *Engine {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSegments <= 0 {
		opts.MaxSegments = DefaultMaxSegments
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{src: src, opts: opts}
}

// Result is the merged outcome of a scan.
type Result struct {
	// Segments is the number of segments the table was split into.
	Segments int
	// Count is the sum of all per-segment counts.
	Count int
	// Records is the concatenation of all per-segment records (ModeFull only),
	// in segment order.
	Records []model.Record
}

// Count returns the number of records in the table.
func (e *Engine) Count(ctx context.Context) (int, error) {
	res, err := e.Run(ctx, ModeCount)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// Collect returns a best-effort snapshot of every record in the table.
func (e *Engine) Collect(ctx context.Context) ([]model.Record, error) {
	res, err := e.Run(ctx, ModeFull)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Run sizes the scan from the source's approximate count and executes it.
func (e *Engine) Run(ctx context.Context, mode Mode) (Result, error) {
	if err := e.opts.Controller.AcquireRequest(ctx); err != nil {
		return Result{}, err
	}
	approx, err := e.src.ApproxCount(ctx)
	if err != nil {
		return Result{}, err
	}

	total := SegmentCount(approx, e.opts.MaxSegments)
	e.opts.Logger.InfoContext(ctx, "scan started",
		"mode", mode,
		"approx_count", approx,
		"segments", total,
	)

	return e.RunSegments(ctx, total, mode)
}

// RunSegments executes a scan split into exactly total segments.
//
// The first failing segment aborts the scan and its error is returned
// unchanged; no partial result is produced.
func (e *Engine) RunSegments(ctx context.Context, total int, mode Mode) (Result, error) {
	if total < 1 {
		return Result{}, fmt.Errorf("scan: segment count must be positive, got %d", total)
	}

	start := time.Now()

	// Each worker owns exactly one slot; the slots are merged after Wait.
	parts := make([]Page, total)

	g, gctx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}

	for i := 0; i < total; i++ {
		seg := Segment{Index: i, Total: total}
		g.Go(func() error {
			part, err := e.scanSegment(gctx, seg, mode)
			if err != nil {
				return err
			}
			parts[seg.Index] = part
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Segments: total}
	if mode == ModeFull {
		n := 0
		for _, p := range parts {
			n += len(p.Records)
		}
		res.Records = make([]model.Record, 0, n)
	}
	for _, p := range parts {
		res.Count += p.Count
		if mode == ModeFull {
			res.Records = append(res.Records, p.Records...)
		}
	}

	e.opts.Logger.InfoContext(ctx, "scan completed",
		"mode", mode,
		"segments", total,
		"count", res.Count,
		"records", len(res.Records),
		"duration", time.Since(start),
	)

	return res, nil
}

// scanSegment pages through one segment until the source reports no
// continuation.
func (e *Engine) scanSegment(ctx context.Context, seg Segment, mode Mode) (Page, error) {
	var (
		acc    Page
		cursor Cursor
		pages  int
	)

	for {
		if err := e.opts.Controller.AcquireRequest(ctx); err != nil {
			return Page{}, err
		}

		page, err := e.src.ScanSegment(ctx, seg, cursor, mode)
		if err != nil {
			return Page{}, err
		}
		pages++

		acc.Count += page.Count
		if mode == ModeFull {
			acc.Records = append(acc.Records, page.Records...)
		}

		e.opts.Logger.DebugContext(ctx, "segment page",
			"segment", seg.Index,
			"total_segments", seg.Total,
			"page", pages,
			"count", page.Count,
		)

		if page.Next == nil {
			return acc, nil
		}
		cursor = page.Next
	}
}
