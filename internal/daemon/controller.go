package daemon

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
	"git.home.luguber.info/inful/focusd/internal/history"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/metrics"
	"git.home.luguber.info/inful/focusd/internal/notify"
)

// Controller owns the focus state and everything that mutates it. It is confined to the
// loop goroutine; nothing here is safe for concurrent use.
type Controller struct {
	state      *focus.State
	ledger     *focus.Ledger
	reconciler *focus.Reconciler
	history    history.Store
	notifier   *Notifier
	recorder   metrics.Recorder
	clock      func() time.Time
}

// NewController builds a controller around a restored state. rules are applied through
// sink; persister receives every snapshot write.
func NewController(state *focus.State, rules []focus.Rule, sink focus.RuleSink, persister focus.Persister,
	loc *time.Location, hist history.Store, notifier *Notifier, recorder metrics.Recorder,
) *Controller {
	if hist == nil {
		hist = history.NopStore{}
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	ledger := focus.NewLedger(state, persister, loc)
	return &Controller{
		state:      state,
		ledger:     ledger,
		reconciler: focus.NewReconciler(state, ledger, focus.NewRuleApplier(sink), rules),
		history:    hist,
		notifier:   notifier,
		recorder:   recorder,
		clock:      time.Now,
	}
}

// at stamps a command. Commands submitted without a timestamp take the loop's clock at
// execution, so passes observe time in the order they run.
func (c *Controller) at(now time.Time) time.Time {
	if now.IsZero() {
		return c.clock()
	}
	return now
}

// prepare clears leftover rules and rolls the day over before the first pass.
func (c *Controller) prepare(ctx context.Context, now time.Time) {
	if err := c.reconciler.DisableRules(ctx); err != nil {
		c.recorder.IncRuleApply(metrics.ResultFailed)
		slog.Warn("Failed to clear blocking rules at start-up", logfields.Error(err))
	}
	if c.ledger.RolloverIfNewDay(ctx, now) {
		c.appendStats(ctx, history.DayRolledOver, now)
	}
	c.recorder.SetFocusMinutes(c.state.Stats.FocusMinutes)
	c.recorder.SetBlocking(false)
}

// reconcile runs one pass. A non-nil manual sets the manual flag first.
func (c *Controller) reconcile(ctx context.Context, now time.Time, intervals []focus.BusyInterval, manual *bool) focus.Outcome {
	began := time.Now()
	sig := focus.Signals{
		Now:             now,
		ExternalEnabled: c.state.Authenticated,
		Intervals:       intervals,
	}

	var out focus.Outcome
	if manual != nil {
		out = c.reconciler.SetManualFocus(ctx, *manual, sig)
		if e, err := history.NewManualToggled(*manual, now); err == nil {
			c.append(ctx, e)
		}
	} else {
		out = c.reconciler.Reconcile(ctx, sig)
	}
	c.recorder.ObserveReconcileDuration(time.Since(began))
	c.observe(ctx, now, out)
	return out
}

// observe fans an outcome out to metrics, history and subscribers.
func (c *Controller) observe(ctx context.Context, now time.Time, out focus.Outcome) {
	c.recorder.SetBlocking(c.state.Blocking)
	c.recorder.SetFocusMinutes(c.state.Stats.FocusMinutes)

	if out.RolledOver {
		c.appendStats(ctx, history.DayRolledOver, now)
	}

	switch {
	case out.RuleError != nil:
		c.recorder.IncRuleApply(metrics.ResultFailed)
		slog.Error("Blocking rules are out of sync; retrying on the next pass", logfields.Error(out.RuleError))
	case out.Started || out.Stopped:
		c.recorder.IncRuleApply(metrics.ResultSuccess)
	}

	var (
		events     []history.Event
		transition notify.Transition
	)
	build := func(e history.Event, err error) {
		if err != nil {
			slog.Warn("Failed to build history event", logfields.Error(err))
			return
		}
		events = append(events, e)
	}
	switch {
	case out.Started:
		c.recorder.IncSessionTransition("started", string(out.Session.Source))
		build(history.NewFocusStarted(out.Session, now))
		transition = notify.TransitionStarted
	case out.Stopped:
		c.recorder.IncSessionTransition("stopped", string(out.Previous.Source))
		build(history.NewFocusStopped(out.Previous, now))
		transition = notify.TransitionStopped
	case out.Replaced:
		c.recorder.IncSessionTransition("replaced", string(out.Session.Source))
		build(history.NewSessionReplaced(out.Previous, out.Session, now))
		build(history.NewFocusStarted(out.Session, now))
		transition = notify.TransitionReplaced
	default:
		return
	}
	for _, e := range events {
		c.append(ctx, e)
	}
	c.publish(transition, now)
}

func (c *Controller) recordBlockedNavigation(ctx context.Context, now time.Time) uint64 {
	count := c.ledger.RecordBlockedNavigation(ctx, now)
	c.recorder.IncBlockedNavigation()
	sessionID := ""
	if c.state.Session != nil {
		sessionID = c.state.Session.ID
	}
	if e, err := history.NewStatsEvent(history.NavigationBlocked, sessionID, c.state.Stats, now); err == nil {
		c.append(ctx, e)
	}
	return count
}

func (c *Controller) resetStats(ctx context.Context, now time.Time) (focus.DateKey, error) {
	day, err := c.ledger.Reset(ctx, now)
	c.recorder.SetFocusMinutes(0)
	c.appendStats(ctx, history.StatsReset, now)
	c.publish(notify.TransitionReset, now)
	return day, err
}

func (c *Controller) reloadRules(ctx context.Context, rules []focus.Rule) error {
	err := c.reconciler.SetRules(ctx, rules)
	if err != nil {
		c.recorder.IncRuleApply(metrics.ResultFailed)
		return err
	}
	slog.Info("Blocking rules reloaded", logfields.RuleCount(len(rules)), slog.Bool("blocking", c.state.Blocking))
	return nil
}

func (c *Controller) appendStats(ctx context.Context, typ history.EventType, now time.Time) {
	e, err := history.NewStatsEvent(typ, "", c.state.Stats, now)
	if err != nil {
		slog.Warn("Failed to build history event", logfields.Error(err))
		return
	}
	c.append(ctx, e)
}

// append records an event. History is best-effort and never blocks a transition.
func (c *Controller) append(ctx context.Context, e history.Event) {
	if err := c.history.Append(ctx, e); err != nil {
		slog.Warn("Failed to append history event", slog.String("type", string(e.Type)), logfields.Error(err))
	}
}

func (c *Controller) publish(t notify.Transition, now time.Time) {
	if c.notifier == nil {
		return
	}
	c.notifier.Enqueue(notify.StateChange{
		Transition: t,
		Status:     focus.Project(c.state, now),
		Timestamp:  now,
	})
}
