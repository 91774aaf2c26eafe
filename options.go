package shed

import (
	"math/rand/v2"

	"github.com/hupe1980/shed/events"
	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	publisher        events.Publisher
	controller       *resource.Controller
	minWeight        model.Weight
	maxWeight        model.Weight
	rand             *rand.Rand
}

// Option configures a Shed.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithPublisher sets where committed inserts and removals are published.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) {
		if p == nil {
			p = events.NoopPublisher{}
		}
		o.publisher = p
	}
}

// WithController bounds the CPU-bound work of a cull.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithWeightBounds sets the accepted weight range [lo, hi]. InsertRandom
// draws from [lo, hi) and cull eligibility is computed up to hi.
//
// Defaults to [model.MinWeight, model.MaxWeight].
func WithWeightBounds(lo, hi model.Weight) Option {
	return func(o *options) {
		o.minWeight = lo
		o.maxWeight = hi
	}
}

// WithRand sets the random source used by InsertRandom.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rand = r
	}
}
