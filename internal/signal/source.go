// Package signal provides busy-interval sources: Google Calendar, a simulated calendar,
// and a cache in front of either.
//
// A Source never returns an error. Fetch failures are logged and reported as an empty
// slice, which callers treat exactly like a free calendar.
package signal

import (
	"context"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
	"git.home.luguber.info/inful/focusd/internal/metrics"
)

// Source yields busy intervals overlapping [start, end], ordered by start ascending.
type Source interface {
	FetchBusyIntervals(ctx context.Context, start, end time.Time) []focus.BusyInterval
}

// Instrumented records fetch latency and result size for a Source.
type Instrumented struct {
	Source   Source
	Provider string
	Recorder metrics.Recorder
}

func (i Instrumented) FetchBusyIntervals(ctx context.Context, start, end time.Time) []focus.BusyInterval {
	began := time.Now()
	out := i.Source.FetchBusyIntervals(ctx, start, end)
	if i.Recorder != nil {
		i.Recorder.ObserveSignalFetch(i.Provider, time.Since(began), len(out))
	}
	return out
}
