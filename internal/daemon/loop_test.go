package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/enforce"
	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/history"
	"git.home.luguber.info/inful/focusd/internal/notify"
)

func newTestController(hist history.Store, n *Notifier) (*Controller, *enforce.MemoryTable) {
	table := enforce.NewMemoryTable()
	rules := focus.CompileRules([]string{"example.com"}, "/blocked")
	state := focus.Restore(focus.Snapshot{})
	return NewController(state, rules, table, nil, time.UTC, hist, n, nil), table
}

func TestLoopSerializesCommands(t *testing.T) {
	ctrl, table := newTestController(nil, nil)
	ctrl.prepare(context.Background(), day1)
	loop := NewLoop(ctrl, 4)
	go loop.Run(context.Background())
	defer loop.Stop()

	ctx := context.Background()
	manual, err := call(ctx, loop, func(ch chan bool) Command {
		return SetManualFocusCommand{Enabled: true, Now: day1, Reply: ch}
	})
	require.NoError(t, err)
	assert.True(t, manual)
	assert.Len(t, table.Rules(), 2)

	for i := 1; i <= 3; i++ {
		count, err := call(ctx, loop, func(ch chan uint64) Command {
			return RecordBlockedNavigationCommand{Now: day1, Reply: ch}
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), count)
	}

	out, err := call(ctx, loop, func(ch chan focus.Outcome) Command {
		return TickCommand{Now: day1.Add(time.Minute), Reply: ch}
	})
	require.NoError(t, err)
	assert.False(t, out.Started)
	assert.NotNil(t, out.Session)

	stats, err := call(ctx, loop, func(ch chan focus.Stats) Command { return GetStatsCommand{Reply: ch} })
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.FocusMinutes)
	assert.Equal(t, uint64(3), stats.BlockedCount)
}

func TestSubmitAfterStop(t *testing.T) {
	ctrl, _ := newTestController(nil, nil)
	loop := NewLoop(ctrl, 1)
	go loop.Run(context.Background())
	loop.Stop()

	err := loop.Submit(context.Background(), GetStatsCommand{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryDaemon))

	_, err = call(context.Background(), loop, func(ch chan focus.Stats) Command { return GetStatsCommand{Reply: ch} })
	require.Error(t, err)
}

func TestSubmitHonoursContext(t *testing.T) {
	ctrl, _ := newTestController(nil, nil)
	loop := NewLoop(ctrl, 1) // never run: the buffer fills after one command

	require.NoError(t, loop.Submit(context.Background(), GetStatsCommand{}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := loop.Submit(ctx, GetStatsCommand{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryDaemon))
}

func TestControllerRecordsHistoryAndNotifications(t *testing.T) {
	hist := &memHistory{}
	pub := &recordingPublisher{}
	n := NewNotifier(pub, 8)
	ctrl, _ := newTestController(hist, n)
	ctx := context.Background()

	on := true
	ctrl.reconcile(ctx, day1, nil, &on)
	_, err := ctrl.resetStats(ctx, day1)
	require.NoError(t, err)
	off := false
	ctrl.reconcile(ctx, day1.Add(time.Minute), nil, &off)
	require.NoError(t, n.Close())

	assert.Equal(t, []history.EventType{
		history.ManualToggled,
		history.DayRolledOver,
		history.FocusStarted,
		history.StatsReset,
		history.ManualToggled,
		history.FocusStopped,
	}, hist.types())
	assert.Equal(t, []notify.Transition{
		notify.TransitionStarted,
		notify.TransitionReset,
		notify.TransitionStopped,
	}, pub.transitions())
	assert.True(t, pub.closed)
}

func TestAuthenticateCommandWithoutSignal(t *testing.T) {
	ctrl, table := newTestController(nil, nil)
	loop := NewLoop(ctrl, 1)
	go loop.Run(context.Background())
	defer loop.Stop()

	iv := focus.BusyInterval{Label: "Sync", Start: day1, End: day1.Add(time.Hour)}
	ok, err := call(context.Background(), loop, func(ch chan bool) Command {
		return AuthenticateCommand{Authenticated: false, Now: day1, Intervals: []focus.BusyInterval{iv}, Reply: ch}
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, table.Rules())

	ok, err = call(context.Background(), loop, func(ch chan bool) Command {
		return AuthenticateCommand{Authenticated: true, Now: day1, Intervals: []focus.BusyInterval{iv}, Reply: ch}
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, table.Rules(), 2)
}

func TestAuthenticateFailureEndsCalendarSession(t *testing.T) {
	ctrl, table := newTestController(nil, nil)
	loop := NewLoop(ctrl, 1)
	go loop.Run(context.Background())
	defer loop.Stop()
	ctx := context.Background()

	iv := focus.BusyInterval{Label: "Sync", Start: day1, End: day1.Add(time.Hour)}
	_, err := call(ctx, loop, func(ch chan bool) Command {
		return AuthenticateCommand{Authenticated: true, Now: day1, Intervals: []focus.BusyInterval{iv}, Reply: ch}
	})
	require.NoError(t, err)
	require.Len(t, table.Rules(), 2)

	_, err = call(ctx, loop, func(ch chan bool) Command {
		return AuthenticateCommand{Authenticated: false, Now: day1.Add(time.Minute), Reply: ch}
	})
	require.NoError(t, err)
	assert.Empty(t, table.Rules())

	status, err := call(ctx, loop, func(ch chan focus.StatusSnapshot) Command {
		return GetStatusCommand{Now: day1.Add(time.Minute), Reply: ch}
	})
	require.NoError(t, err)
	assert.False(t, status.Blocking)
	assert.False(t, status.Authenticated)
}

func TestAuthenticateFailureKeepsManualSession(t *testing.T) {
	ctrl, table := newTestController(nil, nil)
	loop := NewLoop(ctrl, 1)
	go loop.Run(context.Background())
	defer loop.Stop()
	ctx := context.Background()

	_, err := call(ctx, loop, func(ch chan bool) Command {
		return SetManualFocusCommand{Enabled: true, Now: day1, Reply: ch}
	})
	require.NoError(t, err)
	_, err = call(ctx, loop, func(ch chan bool) Command {
		return AuthenticateCommand{Authenticated: false, Now: day1, Reply: ch}
	})
	require.NoError(t, err)
	assert.Len(t, table.Rules(), 2)

	stats, err := call(ctx, loop, func(ch chan focus.Stats) Command { return GetStatsCommand{Reply: ch} })
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.FocusMinutes)
}

func TestUnstampedCommandsUseLoopClock(t *testing.T) {
	ctrl, _ := newTestController(nil, nil)
	clock := newFakeClock(time.Date(2025, 3, 10, 23, 59, 58, 0, time.UTC))
	ctrl.clock = clock.Now
	ctx := context.Background()
	ctrl.prepare(ctx, clock.Now())
	loop := NewLoop(ctrl, 4)
	go loop.Run(ctx)
	defer loop.Stop()

	// A tick whose fetch began before midnight is executed after a navigation on the
	// next day; it must see the later time.
	clock.Set(time.Date(2025, 3, 11, 0, 0, 3, 0, time.UTC))
	count, err := call(ctx, loop, func(ch chan uint64) Command {
		return RecordBlockedNavigationCommand{Reply: ch}
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	out, err := call(ctx, loop, func(ch chan focus.Outcome) Command { return TickCommand{Reply: ch} })
	require.NoError(t, err)
	assert.False(t, out.RolledOver)

	stats, err := call(ctx, loop, func(ch chan focus.Stats) Command { return GetStatsCommand{Reply: ch} })
	require.NoError(t, err)
	assert.Equal(t, focus.DateKey("2025-03-11"), stats.DayKey)
	assert.Equal(t, uint64(1), stats.BlockedCount)
}

func TestStaleTickDoesNotRollDayBack(t *testing.T) {
	ctrl, _ := newTestController(nil, nil)
	ctx := context.Background()
	ctrl.prepare(ctx, day1)
	loop := NewLoop(ctrl, 4)
	go loop.Run(ctx)
	defer loop.Stop()

	next := time.Date(2025, 3, 11, 0, 0, 3, 0, time.UTC)
	_, err := call(ctx, loop, func(ch chan bool) Command {
		return SetManualFocusCommand{Enabled: true, Now: next, Reply: ch}
	})
	require.NoError(t, err)
	_, err = call(ctx, loop, func(ch chan uint64) Command {
		return RecordBlockedNavigationCommand{Now: next, Reply: ch}
	})
	require.NoError(t, err)

	stale := time.Date(2025, 3, 10, 23, 59, 58, 0, time.UTC)
	out, err := call(ctx, loop, func(ch chan focus.Outcome) Command { return TickCommand{Now: stale, Reply: ch} })
	require.NoError(t, err)
	assert.False(t, out.RolledOver)

	out, err = call(ctx, loop, func(ch chan focus.Outcome) Command {
		return TickCommand{Now: next.Add(time.Minute), Reply: ch}
	})
	require.NoError(t, err)
	assert.False(t, out.RolledOver)

	stats, err := call(ctx, loop, func(ch chan focus.Stats) Command { return GetStatsCommand{Reply: ch} })
	require.NoError(t, err)
	assert.Equal(t, focus.DateKey("2025-03-11"), stats.DayKey)
	assert.Equal(t, uint64(1), stats.BlockedCount)
	assert.Equal(t, uint64(3), stats.FocusMinutes)
}
