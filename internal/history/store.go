package history

import (
	"context"
	"time"
)

// Store persists and queries history events.
type Store interface {
	// Append adds e; ID is assigned by the store.
	Append(ctx context.Context, e Event) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// BySession returns all events for one session, oldest first.
	BySession(ctx context.Context, sessionID string) ([]Event, error)

	// Range returns events within [start, end], oldest first.
	Range(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}

// NopStore discards everything; used when history is disabled.
type NopStore struct{}

func (NopStore) Append(context.Context, Event) error                        { return nil }
func (NopStore) Recent(context.Context, int) ([]Event, error)               { return nil, nil }
func (NopStore) BySession(context.Context, string) ([]Event, error)         { return nil, nil }
func (NopStore) Range(context.Context, time.Time, time.Time) ([]Event, error) { return nil, nil }
func (NopStore) Close() error                                               { return nil }
