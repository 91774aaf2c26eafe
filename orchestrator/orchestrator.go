package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/hupe1980/shed/internal/primes"
	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/resource"
	"github.com/hupe1980/shed/store"
	"github.com/sourcegraph/conc"
)

// Status is the terminal state of a successful run.
type Status int

const (
	// StatusNoneEligible means no record had a prime weight. Nothing changed.
	StatusNoneEligible Status = iota
	// StatusRemoved means Outcome.Record was removed.
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusNoneEligible:
		return "none_eligible"
	case StatusRemoved:
		return "removed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result of a run that did not fail.
type Outcome struct {
	Status Status
	// Record is the removed record, as returned by the store.
	Record model.Record
}

func (o Outcome) String() string {
	if o.Status == StatusRemoved {
		return "removed " + o.Record.String()
	}
	return "no eligible record"
}

// Options configures an Orchestrator.
type Options struct {
	// Controller bounds the sieve's CPU slot. Nil means unbounded.
	Controller *resource.Controller

	// Logger receives run progress.
	Logger *slog.Logger

	// WeightUpperBound is the largest weight a record can have. The sieve
	// covers primes up to its square root. Defaults to model.MaxWeight.
	WeightUpperBound model.Weight
}

// Orchestrator runs the sieve/fetch/select/remove protocol against a store.
type Orchestrator struct {
	store store.Store
	opts  Options
}

// New creates an Orchestrator over st.
func New(st store.Store, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		WeightUpperBound: model.MaxWeight,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{store: st, opts: opts}
}

// Run executes one orchestration.
//
// A fetch failure is returned unchanged. A NotFound from the final removal is
// returned as a *ConsistencyError; any other removal failure is returned
// unchanged. A panic in the sieve is re-raised on the caller's goroutine.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	start := time.Now()
	bound := uint64(o.opts.WeightUpperBound)

	var (
		wg        conc.WaitGroup
		primeList []uint64
		sieveErr  error
		recs      iter.Seq[model.Record]
		fetchErr  error
	)

	wg.Go(func() {
		primeList, sieveErr = resource.Offload(ctx, o.opts.Controller, func() []uint64 {
			return primes.Sieve(primes.ISqrt(bound))
		})
	})
	wg.Go(func() {
		recs, fetchErr = o.store.Iterate(ctx)
	})
	wg.Wait()

	if fetchErr != nil {
		o.opts.Logger.DebugContext(ctx, "fetch failed", "error", fetchErr)
		return Outcome{}, fetchErr
	}
	if sieveErr != nil {
		return Outcome{}, sieveErr
	}

	o.opts.Logger.DebugContext(ctx, "eligibility computed",
		"primes", len(primeList),
		"weight_upper_bound", o.opts.WeightUpperBound,
	)

	best, ok := Select(recs, primeList)
	if !ok {
		o.opts.Logger.InfoContext(ctx, "no eligible record", "duration", time.Since(start))
		return Outcome{Status: StatusNoneEligible}, nil
	}

	o.opts.Logger.InfoContext(ctx, "selected", "record", best.String())

	removed, err := o.store.Remove(ctx, best.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			o.opts.Logger.ErrorContext(ctx, "selected record vanished before removal",
				"id", uint64(best.ID),
				"error", err,
			)
			return Outcome{}, &ConsistencyError{ID: best.ID}
		}
		return Outcome{}, err
	}

	o.opts.Logger.InfoContext(ctx, "removed",
		"record", removed.String(),
		"duration", time.Since(start),
	)
	return Outcome{Status: StatusRemoved, Record: removed}, nil
}
