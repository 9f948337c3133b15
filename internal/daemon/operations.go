package daemon

import (
	"context"
	"slices"

	"git.home.luguber.info/inful/focusd/internal/focus"
	"git.home.luguber.info/inful/focusd/internal/history"
)

// SetManualFocus turns manual focus on or off and returns the stored flag. The cached
// calendar signal is used so the toggle answers without a calendar round trip.
func (d *Daemon) SetManualFocus(ctx context.Context, enabled bool) (bool, error) {
	intervals := d.intervals(ctx, d.clock(), false)
	return call(ctx, d.loop, func(ch chan bool) Command {
		return SetManualFocusCommand{Enabled: enabled, Intervals: intervals, Reply: ch}
	})
}

// RecordBlockedNavigation counts one navigation that landed on the blocked page.
func (d *Daemon) RecordBlockedNavigation(ctx context.Context) (uint64, error) {
	return call(ctx, d.loop, func(ch chan uint64) Command {
		return RecordBlockedNavigationCommand{Reply: ch}
	})
}

// FocusStatus returns the display projection of the current state.
func (d *Daemon) FocusStatus(ctx context.Context) (focus.StatusSnapshot, error) {
	return call(ctx, d.loop, func(ch chan focus.StatusSnapshot) Command {
		return GetStatusCommand{Reply: ch}
	})
}

// Stats returns today's counters.
func (d *Daemon) Stats(ctx context.Context) (focus.Stats, error) {
	return call(ctx, d.loop, func(ch chan focus.Stats) Command {
		return GetStatsCommand{Reply: ch}
	})
}

// ResetStats zeroes today's counters and returns the day key they were reset for.
func (d *Daemon) ResetStats(ctx context.Context) (focus.DateKey, error) {
	res, err := call(ctx, d.loop, func(ch chan ResetResult) Command {
		return ResetStatsCommand{Reply: ch}
	})
	if err != nil {
		return "", err
	}
	return res.Day, res.Err
}

// Rules returns the rule set compiled from the active configuration.
func (d *Daemon) Rules() []focus.Rule {
	cfg := d.Config()
	return focus.CompileRules(cfg.Focus.Domains, cfg.Focus.RedirectPath)
}

// History returns the most recent events, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Event, error) {
	return d.history.Recent(ctx, limit)
}

// Sessions folds recent history into per-session summaries.
func (d *Daemon) Sessions(ctx context.Context, limit int) ([]history.SessionSummary, error) {
	events, err := d.history.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return history.Summarize(events), nil
}
