package daemon

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/focus"
	"git.home.luguber.info/inful/focusd/internal/history"
	"git.home.luguber.info/inful/focusd/internal/notify"
	"git.home.luguber.info/inful/focusd/internal/snapshot"
)

func waitFor(t *testing.T, d *Daemon, cond func(focus.StatusSnapshot) bool) focus.StatusSnapshot {
	t.Helper()
	var last focus.StatusSnapshot
	require.Eventually(t, func() bool {
		s, err := d.FocusStatus(context.Background())
		if err != nil {
			return false
		}
		last = s
		return cond(s)
	}, 2*time.Second, 10*time.Millisecond)
	return last
}

func TestCalendarSessionFollowsTicks(t *testing.T) {
	clock := newFakeClock(day1)
	src := &staticSource{}
	src.set(
		focus.BusyInterval{Label: "Standup", Start: day1.Add(-5 * time.Minute), End: day1.Add(30 * time.Minute)},
		focus.BusyInterval{Label: "Review", Start: day1.Add(2 * time.Hour), End: day1.Add(3 * time.Hour)},
	)
	pub := &recordingPublisher{}
	d := startDaemon(t, testConfig(), Options{Clock: clock.Now, Source: src, Publisher: pub})

	status := waitFor(t, d, func(s focus.StatusSnapshot) bool { return s.Authenticated && s.Blocking })
	assert.Equal(t, "Standup", status.SessionLabel)
	assert.Equal(t, focus.SourceCalendar, status.SessionSource)
	assert.Equal(t, "30:00", status.TimeRemaining)
	assert.Equal(t, "Review", status.NextEventLabel)
	assert.Equal(t, "11:00", status.NextEventTime)

	clock.Set(day1.Add(31 * time.Minute))
	d.tick()

	status, err := d.FocusStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Blocking)
	assert.Equal(t, uint64(1), status.Stats.FocusMinutes)
	assert.Empty(t, d.Table().Rules())

	require.Eventually(t, func() bool {
		got := pub.transitions()
		return len(got) == 2 && got[0] == notify.TransitionStarted && got[1] == notify.TransitionStopped
	}, time.Second, 10*time.Millisecond)
}

func TestManualToggleUsesCachedSignal(t *testing.T) {
	src := &staticSource{}
	d := startDaemon(t, testConfig(), Options{Source: src})
	waitFor(t, d, func(s focus.StatusSnapshot) bool { return s.Authenticated })

	src.mu.Lock()
	before := src.calls
	src.mu.Unlock()

	_, err := d.SetManualFocus(context.Background(), true)
	require.NoError(t, err)
	_, err = d.SetManualFocus(context.Background(), false)
	require.NoError(t, err)

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, before, src.calls, "toggles should be served from the cache")
}

func TestRestoresManualFocusFromSnapshot(t *testing.T) {
	store := snapshot.NewMemoryStore(focus.Snapshot{
		ManualFocus:   true,
		LastResetDate: "2025-03-10",
		Stats:         focus.Stats{BlockedCount: 3, FocusMinutes: 10, DayKey: "2025-03-10"},
	})
	d := startDaemon(t, testConfig(), Options{Store: store})

	status := waitFor(t, d, func(s focus.StatusSnapshot) bool { return s.Blocking })
	assert.True(t, status.ManualFocus)
	assert.Equal(t, uint64(3), status.Stats.BlockedCount)
	assert.Equal(t, uint64(11), status.Stats.FocusMinutes)
	assert.Len(t, d.Table().Rules(), 4)
}

func TestStaleSnapshotRollsOverAtStart(t *testing.T) {
	store := snapshot.NewMemoryStore(focus.Snapshot{
		LastResetDate: "2025-03-09",
		Stats:         focus.Stats{BlockedCount: 7, FocusMinutes: 42, DayKey: "2025-03-09"},
	})
	hist := &memHistory{}
	d := startDaemon(t, testConfig(), Options{Store: store, History: hist})

	stats, err := d.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, focus.DateKey("2025-03-10"), stats.DayKey)
	assert.Zero(t, stats.BlockedCount)
	assert.Zero(t, stats.FocusMinutes)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, focus.DateKey("2025-03-10"), snap.LastResetDate)
	assert.Contains(t, hist.types(), history.DayRolledOver)
}

func TestReloadConfigSwapsRules(t *testing.T) {
	d := startDaemon(t, testConfig(), Options{})
	_, err := d.SetManualFocus(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, d.Table().Rules(), 4)

	next := testConfig()
	next.Focus.Domains = []string{"only.test"}
	next.Focus.TickInterval = 30 * time.Minute
	require.NoError(t, d.ReloadConfig(context.Background(), next))

	rules := d.Table().Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "www.only.test", rules[0].Host())
	assert.Equal(t, 30*time.Minute, d.Config().Focus.TickInterval)

	_, err = d.SetManualFocus(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, d.Table().Rules())
}

func TestReloadConfigKeepsRunningRedirectPath(t *testing.T) {
	d := startDaemon(t, testConfig(), Options{})
	h := d.httpServer.AdminHandler()
	_, err := d.SetManualFocus(context.Background(), true)
	require.NoError(t, err)

	next := testConfig()
	next.Focus.RedirectPath = "/moved"
	require.NoError(t, d.ReloadConfig(context.Background(), next))

	assert.Equal(t, "/blocked", d.Config().Focus.RedirectPath)
	for _, r := range d.Table().Rules() {
		assert.Equal(t, "/blocked", r.RedirectPath)
	}
	assert.Equal(t, http.StatusOK, request(t, h, http.MethodGet, "/blocked", "").Code)
}

func TestStartTwiceAndStop(t *testing.T) {
	d := startDaemon(t, testConfig(), Options{})
	assert.Equal(t, StatusRunning, d.GetStatus())
	require.Error(t, d.Start(context.Background()))

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, StatusStopped, d.GetStatus())
	require.NoError(t, d.Stop(context.Background()))

	_, err := d.Stats(context.Background())
	require.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	d := New(cfg, "", Options{Store: snapshot.NewMemoryStore(focus.Snapshot{}), History: &memHistory{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.GetStatus() == StatusRunning }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, StatusStopped, d.GetStatus())
}
