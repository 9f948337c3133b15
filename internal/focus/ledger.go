package focus

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// Persister writes a snapshot. Implementations handle their own retries; an error
// returned here means every attempt failed.
type Persister interface {
	Persist(ctx context.Context, snap Snapshot) error
}

// Ledger owns the daily counters in State.Stats. Each mutation is followed by one
// snapshot write. A failed write is logged and the in-memory value stays canonical.
type Ledger struct {
	state     *State
	persister Persister
	loc       *time.Location
}

// NewLedger returns a Ledger mutating state. loc defines day boundaries; nil means local time.
func NewLedger(state *State, persister Persister, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{state: state, persister: persister, loc: loc}
}

// Location returns the zone used for day keys.
func (l *Ledger) Location() *time.Location { return l.loc }

// RolloverIfNewDay zeroes the stats when now falls on a later day than the last reset.
// Day keys only move forward: a timestamp from an earlier day is a no-op. Counters and
// the new day key are written in a single snapshot.
func (l *Ledger) RolloverIfNewDay(ctx context.Context, now time.Time) bool {
	today := DateKeyOf(now, l.loc)
	if today <= l.state.LastResetDateKey {
		return false
	}
	prev := l.state.LastResetDateKey
	l.zero(today)
	slog.Info("Stats rolled over", logfields.DateKey(string(today)), slog.String("previous", string(prev)))
	_ = l.persist(ctx)
	return true
}

// RecordBlockedNavigation counts one navigation that hit the redirect and returns the
// new count.
func (l *Ledger) RecordBlockedNavigation(ctx context.Context, now time.Time) uint64 {
	l.RolloverIfNewDay(ctx, now)
	l.state.Stats.BlockedCount++
	_ = l.persist(ctx)
	return l.state.Stats.BlockedCount
}

// RecordFocusTick adds one blocked minute.
func (l *Ledger) RecordFocusTick(ctx context.Context) {
	l.state.Stats.FocusMinutes++
	l.state.Stats.FocusTime = FormatFocusTime(l.state.Stats.FocusMinutes)
	_ = l.persist(ctx)
}

// Reset zeroes the stats for the day containing now. Unlike the other mutations the
// persistence error is returned, since the caller waits on the outcome.
func (l *Ledger) Reset(ctx context.Context, now time.Time) (DateKey, error) {
	today := max(DateKeyOf(now, l.loc), l.state.LastResetDateKey)
	l.zero(today)
	slog.Info("Stats reset", logfields.DateKey(string(today)))
	return today, l.persist(ctx)
}

// PersistState writes the current snapshot; used when a non-stats field (the manual
// flag) changes.
func (l *Ledger) PersistState(ctx context.Context) error {
	return l.persist(ctx)
}

func (l *Ledger) zero(today DateKey) {
	l.state.Stats = Stats{FocusTime: FormatFocusTime(0), DayKey: today}
	l.state.LastResetDateKey = today
}

func (l *Ledger) persist(ctx context.Context) error {
	if l.persister == nil {
		return nil
	}
	if err := l.persister.Persist(ctx, l.state.Snapshot()); err != nil {
		slog.Error("Failed to persist stats",
			logfields.BlockedCount(l.state.Stats.BlockedCount),
			logfields.FocusMinutes(l.state.Stats.FocusMinutes),
			logfields.Error(err))
		return err
	}
	return nil
}
