package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/shed/model"
)

// Type names what happened to a record.
type Type string

const (
	// TypeInserted follows a successful insert.
	TypeInserted Type = "record.inserted"
	// TypeRemoved follows a successful removal.
	TypeRemoved Type = "record.removed"
)

// Event describes a committed change to the table.
type Event struct {
	Type   Type         `json:"type"`
	Record model.Record `json:"record"`
	Time   time.Time    `json:"time"`
}

// New returns an event of type typ for rec stamped with the current UTC time.
func New(typ Type, rec model.Record) Event {
	return Event{Type: typ, Record: rec, Time: time.Now().UTC()}
}

// Publisher delivers events.
// Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// MemoryPublisher keeps events in memory, in publish order.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends ev.
func (p *MemoryPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}
