package signal

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// DefaultSummary labels events that have no title.
const DefaultSummary = "Busy"

// GoogleCalendar reads busy intervals from one Google calendar.
type GoogleCalendar struct {
	svc        *calendar.Service
	calendarID string
	timeout    time.Duration
	loc        *time.Location
}

// NewGoogleCalendar builds a client authorized by ts. Extra options (endpoint, HTTP
// client) are appended after the token source.
func NewGoogleCalendar(ctx context.Context, ts oauth2.TokenSource, calendarID string, timeout time.Duration, opts ...option.ClientOption) (*GoogleCalendar, error) {
	all := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := calendar.NewService(ctx, all...)
	if err != nil {
		return nil, ferrors.SignalError("failed to create calendar client").WithCause(err).Build()
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleCalendar{svc: svc, calendarID: calendarID, timeout: timeout, loc: time.Local}, nil
}

// FetchBusyIntervals lists single events in the window ordered by start time.
func (g *GoogleCalendar) FetchBusyIntervals(ctx context.Context, start, end time.Time) []focus.BusyInterval {
	intervals, err := g.list(ctx, start, end, 0)
	if err != nil {
		slog.Warn("Calendar fetch failed; treating calendar as free", logfields.Provider("google"), logfields.Error(err))
		return nil
	}
	return intervals
}

// Probe checks that the credentials work with a one-event listing.
func (g *GoogleCalendar) Probe(ctx context.Context) error {
	now := time.Now()
	_, err := g.list(ctx, now, now.Add(time.Hour), 1)
	return err
}

func (g *GoogleCalendar) list(ctx context.Context, start, end time.Time, limit int64) ([]focus.BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	call := g.svc.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)
	var out []focus.BusyInterval
	collect := func(events *calendar.Events) error {
		for _, ev := range events.Items {
			iv, ok := g.convert(ev)
			if !ok {
				slog.Debug("Skipping calendar event without usable times", slog.String("event_id", ev.Id))
				continue
			}
			out = append(out, iv)
		}
		return nil
	}

	var err error
	if limit > 0 {
		var events *calendar.Events
		if events, err = call.MaxResults(limit).Do(); err == nil {
			err = collect(events)
		}
	} else {
		err = call.Pages(ctx, collect)
	}
	if err != nil {
		return nil, ferrors.SignalError("calendar events list failed").
			WithCause(err).
			WithContext("calendar_id", g.calendarID).
			Build()
	}
	return out, nil
}

func (g *GoogleCalendar) convert(ev *calendar.Event) (focus.BusyInterval, bool) {
	if ev == nil || ev.Start == nil || ev.End == nil {
		return focus.BusyInterval{}, false
	}
	start, ok := parseEventTime(ev.Start, g.loc)
	if !ok {
		return focus.BusyInterval{}, false
	}
	end, ok := parseEventTime(ev.End, g.loc)
	if !ok {
		return focus.BusyInterval{}, false
	}
	label := ev.Summary
	if label == "" {
		label = DefaultSummary
	}
	return focus.BusyInterval{Label: label, Start: start, End: end}, true
}

// parseEventTime reads dateTime, falling back to the all-day date.
func parseEventTime(t *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if t.DateTime != "" {
		v, err := time.Parse(time.RFC3339, t.DateTime)
		return v, err == nil
	}
	if t.Date != "" {
		v, err := time.ParseInLocation(time.DateOnly, t.Date, loc)
		return v, err == nil
	}
	return time.Time{}, false
}
