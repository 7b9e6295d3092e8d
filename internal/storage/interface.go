package storage

import (
	"context"
	"time"

	"github.com/contriboard/contriboard/internal/domain"
)

// EventFilter narrows an archive read. Zero valued fields place no
// constraint.
type EventFilter struct {
	Org   string
	Type  domain.EventType
	Since time.Time
	Until time.Time
}

// Archive is the abstract interface for the raw event store. Collected
// events are kept so summaries can be rebuilt without touching GitHub.
type Archive interface {
	// Raw event operations
	SaveEvents(ctx context.Context, events []*domain.Event) error

	// Event retrieval (for re-aggregation)
	GetEvents(ctx context.Context, filter EventFilter) ([]*domain.Event, error)

	// Organizations lists the organizations with archived events
	Organizations(ctx context.Context) ([]string, error)

	// DeleteEvents drops an organization's events ahead of a fresh collection
	DeleteEvents(ctx context.Context, org string) error

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
