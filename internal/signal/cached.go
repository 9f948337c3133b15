package signal

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"git.home.luguber.info/inful/focusd/internal/focus"
	"git.home.luguber.info/inful/focusd/internal/logfields"
)

const intervalsKey = "busy-intervals"

// Cached memoizes a Source's last result for ttl. Ticks call Refresh to always hit the
// upstream; manual toggles use FetchBusyIntervals and usually get the cached copy.
type Cached struct {
	src   Source
	cache *gocache.Cache
}

// NewCached wraps src. A non-positive ttl defaults to one minute.
func NewCached(src Source, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cached{src: src, cache: gocache.New(ttl, 2*ttl)}
}

// FetchBusyIntervals returns the cached intervals, fetching on a miss.
func (c *Cached) FetchBusyIntervals(ctx context.Context, start, end time.Time) []focus.BusyInterval {
	if v, ok := c.cache.Get(intervalsKey); ok {
		if intervals, ok := v.([]focus.BusyInterval); ok {
			return intervals
		}
	}
	return c.Refresh(ctx, start, end)
}

// Refresh fetches from the wrapped source and replaces the cached copy.
func (c *Cached) Refresh(ctx context.Context, start, end time.Time) []focus.BusyInterval {
	intervals := c.src.FetchBusyIntervals(ctx, start, end)
	c.cache.SetDefault(intervalsKey, intervals)
	slog.Debug("Busy intervals refreshed", logfields.Intervals(len(intervals)))
	return intervals
}

// Invalidate drops the cached copy.
func (c *Cached) Invalidate() {
	c.cache.Delete(intervalsKey)
}
