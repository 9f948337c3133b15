package signal

import (
	"context"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

// Simulated returns a fixed pair of meetings relative to the window start: one already
// running, one an hour out. Useful for exercising the controller without a calendar.
type Simulated struct{}

func (Simulated) FetchBusyIntervals(_ context.Context, start, _ time.Time) []focus.BusyInterval {
	return []focus.BusyInterval{
		{Label: "Deep Work Session", Start: start.Add(-5 * time.Minute), End: start.Add(2 * time.Minute)},
		{Label: "Team Sync", Start: start.Add(60 * time.Minute), End: start.Add(90 * time.Minute)},
	}
}
