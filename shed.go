package shed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hupe1980/shed/events"
	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/orchestrator"
	"github.com/hupe1980/shed/store"
)

// Shed validates and instruments operations on a store.Store.
// It is safe for concurrent use.
type Shed struct {
	store store.Store
	orch  *orchestrator.Orchestrator
	opts  options

	randMu sync.Mutex
}

// New creates a Shed over st. The store handle is shared, not owned.
func New(st store.Store, optFns ...Option) (*Shed, error) {
	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		publisher:        events.NoopPublisher{},
		minWeight:        model.MinWeight,
		maxWeight:        model.MaxWeight,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.minWeight >= opts.maxWeight {
		return nil, &InvalidInputError{
			Field:  "weight bounds",
			Value:  fmt.Sprintf("[%s, %s]", opts.minWeight, opts.maxWeight),
			Reason: "lower bound must be below upper bound",
		}
	}
	if opts.rand == nil {
		opts.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Shed{
		store: st,
		opts:  opts,
		orch: orchestrator.New(st, func(o *orchestrator.Options) {
			o.Controller = opts.controller
			o.Logger = opts.logger.Logger
			o.WeightUpperBound = opts.maxWeight
		}),
	}, nil
}

// Store returns the underlying store.
func (s *Shed) Store() store.Store {
	return s.store
}

// Insert adds a record with the given id and weight.
//
// Returns an *InvalidInputError if weight is outside the configured bounds
// and a *store.DuplicateKeyError if id is already present.
func (s *Shed) Insert(ctx context.Context, id model.ID, weight model.Weight) (model.Record, error) {
	rec := model.Record{ID: id, Weight: weight}
	start := time.Now()

	err := s.insert(ctx, rec)
	s.opts.metricsCollector.RecordInsert(time.Since(start), err)
	s.opts.logger.LogInsert(ctx, rec, err)
	if err != nil {
		return model.Record{}, err
	}

	s.publish(ctx, events.TypeInserted, rec)
	return rec, nil
}

func (s *Shed) insert(ctx context.Context, rec model.Record) error {
	if rec.Weight < s.opts.minWeight || rec.Weight > s.opts.maxWeight {
		return &InvalidInputError{
			Field:  "weight",
			Value:  rec.Weight.String(),
			Reason: fmt.Sprintf("outside [%s, %s]", s.opts.minWeight, s.opts.maxWeight),
		}
	}
	return s.store.Insert(ctx, rec)
}

// InsertRandom inserts a record with id and a weight drawn uniformly from
// the configured [lo, hi).
func (s *Shed) InsertRandom(ctx context.Context, id model.ID) (model.Record, error) {
	s.randMu.Lock()
	span := uint64(s.opts.maxWeight - s.opts.minWeight)
	w := s.opts.minWeight + model.Weight(s.opts.rand.Uint64N(span))
	s.randMu.Unlock()

	return s.Insert(ctx, id, w)
}

// Count returns the number of records in the store.
func (s *Shed) Count(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.store.Count(ctx)
	s.opts.metricsCollector.RecordCount(n, time.Since(start), err)
	s.opts.logger.LogCount(ctx, n, err)
	return n, err
}

// Cull removes the heaviest record whose weight is prime, if any.
//
// A record that disappears between selection and removal is reported as an
// *orchestrator.ConsistencyError.
func (s *Shed) Cull(ctx context.Context) (orchestrator.Outcome, error) {
	start := time.Now()
	out, err := s.orch.Run(ctx)
	s.opts.metricsCollector.RecordCull(out.Status, time.Since(start), err)
	s.opts.logger.LogCull(ctx, out, err)
	if err != nil {
		return orchestrator.Outcome{}, err
	}

	if out.Status == orchestrator.StatusRemoved {
		s.opts.metricsCollector.RecordRemove(out.Record)
		s.publish(ctx, events.TypeRemoved, out.Record)
	}
	return out, nil
}

// Clear removes every record if the store supports it.
func (s *Shed) Clear(ctx context.Context) (int, error) {
	c, ok := s.store.(store.Clearer)
	if !ok {
		return 0, ErrClearUnsupported
	}
	n, err := c.Clear(ctx)
	s.opts.logger.LogClear(ctx, n, err)
	return n, err
}

// publish delivers an event for a write that already committed. Failures
// are logged and counted only.
func (s *Shed) publish(ctx context.Context, typ events.Type, rec model.Record) {
	err := s.opts.publisher.Publish(ctx, events.New(typ, rec))
	s.opts.metricsCollector.RecordPublish(err)
	s.opts.logger.LogPublish(ctx, string(typ), rec.ID, err)
}
