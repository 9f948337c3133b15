package focus

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// Signals is the input to one reconciliation pass.
type Signals struct {
	Now time.Time
	// ExternalEnabled is false when no calendar source is authenticated; Intervals is then ignored.
	ExternalEnabled bool
	// Intervals ordered by start ascending.
	Intervals []BusyInterval
}

// Outcome reports what a reconciliation pass changed.
type Outcome struct {
	Started    bool
	Stopped    bool
	Replaced   bool
	RolledOver bool
	// Session is the session after the pass (nil when idle).
	Session *Session
	// Previous is the session that was stopped or replaced.
	Previous  *Session
	RuleError error
}

// Reconciler merges the manual flag and the calendar signal into the blocking decision
// and drives session and rule transitions.
type Reconciler struct {
	state   *State
	ledger  *Ledger
	applier *RuleApplier
	rules   []Rule
	newID   func() string
}

// NewReconciler wires a reconciler around state. The ledger must wrap the same state.
func NewReconciler(state *State, ledger *Ledger, applier *RuleApplier, rules []Rule) *Reconciler {
	return &Reconciler{
		state:   state,
		ledger:  ledger,
		applier: applier,
		rules:   rules,
		newID:   uuid.NewString,
	}
}

// Rules returns the compiled rule set in use.
func (r *Reconciler) Rules() []Rule { return r.rules }

// RulesInSync reports whether the last rule update succeeded.
func (r *Reconciler) RulesInSync() bool { return !r.applier.Failed() }

// DisableRules removes every rule unconditionally. Called once at start-up so nothing
// from a previous run survives until the first pass.
func (r *Reconciler) DisableRules(ctx context.Context) error {
	return r.applyRules(ctx, false)
}

// SetRules swaps the compiled rule set. While blocking the new set is applied at once.
func (r *Reconciler) SetRules(ctx context.Context, rules []Rule) error {
	r.rules = rules
	if !r.state.Blocking {
		return nil
	}
	return r.applyRules(ctx, true)
}

// SetManualFocus stores the manual flag, persists it, and reconciles immediately.
func (r *Reconciler) SetManualFocus(ctx context.Context, enabled bool, sig Signals) Outcome {
	r.state.ManualFocus = enabled
	slog.Info("Manual focus toggled", slog.Bool("enabled", enabled))
	_ = r.ledger.PersistState(ctx)
	return r.Reconcile(ctx, sig)
}

// Reconcile runs one pass.
func (r *Reconciler) Reconcile(ctx context.Context, sig Signals) Outcome {
	var out Outcome
	now := sig.Now

	// Rollover completes before this pass's increment.
	out.RolledOver = r.ledger.RolloverIfNewDay(ctx, now)

	var current, next *BusyInterval
	if sig.ExternalEnabled {
		current, next = locateIntervals(sig.Intervals, now)
	}
	shouldBlock := r.state.ManualFocus || current != nil

	switch {
	case shouldBlock && !r.state.Blocking:
		r.state.Session = r.newSession(current, now)
		r.state.Blocking = true
		out.Started = true
		slog.Info("Focus session started",
			logfields.SessionID(r.state.Session.ID),
			logfields.Source(string(r.state.Session.Source)),
			logfields.Label(r.state.Session.Label))
		out.RuleError = r.applyRules(ctx, true)

	case shouldBlock:
		if repl := r.replacement(current, now); repl != nil {
			out.Previous = r.state.Session
			out.Replaced = true
			r.state.Session = repl
			slog.Info("Focus session replaced",
				logfields.SessionID(repl.ID),
				logfields.Source(string(repl.Source)),
				logfields.Label(repl.Label))
		}
		if r.applier.Failed() {
			out.RuleError = r.applyRules(ctx, true)
		}

	case r.state.Blocking:
		out.Previous = r.state.Session
		out.Stopped = true
		r.state.Session = nil
		r.state.Blocking = false
		slog.Info("Focus session stopped", logfields.SessionID(out.Previous.ID))
		out.RuleError = r.applyRules(ctx, false)

	default:
		if r.applier.Failed() {
			out.RuleError = r.applyRules(ctx, false)
		}
	}

	r.state.NextEvent = nil
	if next != nil {
		r.state.NextEvent = &NextEvent{
			Label: next.Label,
			Start: next.Start,
			Time:  next.Start.In(r.ledger.Location()).Format("15:04"),
		}
	}

	if r.state.Blocking {
		r.ledger.RecordFocusTick(ctx)
	}

	if r.state.Session != nil {
		s := *r.state.Session
		out.Session = &s
	}
	return out
}

// replacement returns the session that should supersede the current one, or nil.
// Manual intent wins the label; a calendar session only takes over from a manual one
// once manual focus is off, and a calendar session follows the interval that covers now.
func (r *Reconciler) replacement(current *BusyInterval, now time.Time) *Session {
	sess := r.state.Session
	switch {
	case r.state.ManualFocus && sess.Source != SourceManual:
		return r.newSession(nil, now)
	case !r.state.ManualFocus && current != nil && sess.Source == SourceManual:
		return r.newSession(current, now)
	case !r.state.ManualFocus && current != nil && sess.Source == SourceCalendar && !sameInterval(sess, current):
		return r.newSession(current, now)
	}
	return nil
}

func (r *Reconciler) newSession(current *BusyInterval, now time.Time) *Session {
	if r.state.ManualFocus || current == nil {
		return &Session{
			ID:        r.newID(),
			Source:    SourceManual,
			Label:     ManualSessionLabel,
			StartedAt: now,
		}
	}
	end := current.End
	return &Session{
		ID:        r.newID(),
		Source:    SourceCalendar,
		Label:     current.Label,
		StartedAt: now,
		EndsAt:    &end,
	}
}

func (r *Reconciler) applyRules(ctx context.Context, enable bool) error {
	if err := r.applier.Apply(ctx, r.rules, enable); err != nil {
		return ferrors.EnforcementError("failed to update blocking rules").
			WithCause(err).
			WithContext("enable", enable).
			Build()
	}
	return nil
}

func sameInterval(sess *Session, iv *BusyInterval) bool {
	return sess.Label == iv.Label && sess.EndsAt != nil && sess.EndsAt.Equal(iv.End)
}

// locateIntervals finds the first interval covering now and the first starting after it.
func locateIntervals(intervals []BusyInterval, now time.Time) (current, next *BusyInterval) {
	for i := range intervals {
		iv := &intervals[i]
		if current == nil && iv.Covers(now) {
			current = iv
		}
		if next == nil && iv.Start.After(now) {
			next = iv
		}
		if current != nil && next != nil {
			break
		}
	}
	return current, next
}
