package daemon

import (
	"context"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

// Command is a unit of work executed on the loop goroutine. Only commands may touch
// the controller's state.
type Command interface {
	Name() string
	execute(ctx context.Context, c *Controller)
}

// TickCommand runs one scheduled reconciliation with intervals fetched off-loop.
// Now is normally left zero and taken from the loop clock; see Controller.at.
type TickCommand struct {
	Now       time.Time
	Intervals []focus.BusyInterval
	Reply     chan focus.Outcome
}

func (TickCommand) Name() string { return "tick" }
func (cmd TickCommand) execute(ctx context.Context, c *Controller) {
	c.recorder.IncTick()
	reply(cmd.Reply, c.reconcile(ctx, c.at(cmd.Now), cmd.Intervals, nil))
}

// SetManualFocusCommand stores the manual flag and reconciles immediately.
type SetManualFocusCommand struct {
	Enabled   bool
	Now       time.Time
	Intervals []focus.BusyInterval
	Reply     chan bool
}

func (SetManualFocusCommand) Name() string { return "set_manual_focus" }
func (cmd SetManualFocusCommand) execute(ctx context.Context, c *Controller) {
	enabled := cmd.Enabled
	c.reconcile(ctx, c.at(cmd.Now), cmd.Intervals, &enabled)
	reply(cmd.Reply, c.state.ManualFocus)
}

// RecordBlockedNavigationCommand counts one redirected navigation.
type RecordBlockedNavigationCommand struct {
	Now   time.Time
	Reply chan uint64
}

func (RecordBlockedNavigationCommand) Name() string { return "record_blocked_navigation" }
func (cmd RecordBlockedNavigationCommand) execute(ctx context.Context, c *Controller) {
	reply(cmd.Reply, c.recordBlockedNavigation(ctx, c.at(cmd.Now)))
}

// GetStatusCommand projects the state for display.
type GetStatusCommand struct {
	Now   time.Time
	Reply chan focus.StatusSnapshot
}

func (GetStatusCommand) Name() string { return "get_status" }
func (cmd GetStatusCommand) execute(_ context.Context, c *Controller) {
	reply(cmd.Reply, focus.Project(c.state, c.at(cmd.Now)))
}

// GetStatsCommand returns the current counters.
type GetStatsCommand struct {
	Reply chan focus.Stats
}

func (GetStatsCommand) Name() string { return "get_stats" }
func (cmd GetStatsCommand) execute(_ context.Context, c *Controller) {
	reply(cmd.Reply, c.state.Stats)
}

// ResetResult is the outcome of a ResetStatsCommand.
type ResetResult struct {
	Day focus.DateKey
	Err error
}

// ResetStatsCommand zeroes today's counters.
type ResetStatsCommand struct {
	Now   time.Time
	Reply chan ResetResult
}

func (ResetStatsCommand) Name() string { return "reset_stats" }
func (cmd ResetStatsCommand) execute(ctx context.Context, c *Controller) {
	day, err := c.resetStats(ctx, c.at(cmd.Now))
	reply(cmd.Reply, ResetResult{Day: day, Err: err})
}

// AuthenticateCommand marks the calendar signal available (or not) and reconciles. On
// success the pass uses the intervals fetched during authentication; on failure a running
// calendar session is reconciled away at once.
type AuthenticateCommand struct {
	Authenticated bool
	Now           time.Time
	Intervals     []focus.BusyInterval
	Reply         chan bool
}

func (AuthenticateCommand) Name() string { return "authenticate" }
func (cmd AuthenticateCommand) execute(ctx context.Context, c *Controller) {
	c.state.Authenticated = cmd.Authenticated
	switch {
	case cmd.Authenticated:
		c.reconcile(ctx, c.at(cmd.Now), cmd.Intervals, nil)
	case c.state.Session != nil && c.state.Session.Source == focus.SourceCalendar:
		c.reconcile(ctx, c.at(cmd.Now), nil, nil)
	}
	reply(cmd.Reply, c.state.Authenticated)
}

// ReloadDomainsCommand swaps the compiled rule set.
type ReloadDomainsCommand struct {
	Rules []focus.Rule
	Reply chan error
}

func (ReloadDomainsCommand) Name() string { return "reload_domains" }
func (cmd ReloadDomainsCommand) execute(ctx context.Context, c *Controller) {
	reply(cmd.Reply, c.reloadRules(ctx, cmd.Rules))
}

// ControllerHealth is what the loop reports about itself for health checks.
type ControllerHealth struct {
	Blocking      bool
	RulesInSync   bool
	Authenticated bool
}

// HealthCommand probes the loop and reports rule and signal state.
type HealthCommand struct {
	Reply chan ControllerHealth
}

func (HealthCommand) Name() string { return "health" }
func (cmd HealthCommand) execute(_ context.Context, c *Controller) {
	reply(cmd.Reply, ControllerHealth{
		Blocking:      c.state.Blocking,
		RulesInSync:   c.reconciler.RulesInSync(),
		Authenticated: c.state.Authenticated,
	})
}

// reply delivers v without blocking; a nil channel means fire-and-forget.
func reply[T any](ch chan T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}
