package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

func TestSummarize(t *testing.T) {
	end := base.Add(30 * time.Minute)
	cal := &focus.Session{ID: "cal", Source: focus.SourceCalendar, Label: "Review", StartedAt: base, EndsAt: &end}
	man := &focus.Session{ID: "man", Source: focus.SourceManual, Label: focus.ManualSessionLabel, StartedAt: base.Add(10 * time.Minute)}

	mk := func(e Event, err error) Event {
		require.NoError(t, err)
		return e
	}
	events := []Event{
		mk(NewFocusStarted(cal, base)),
		mk(NewStatsEvent(NavigationBlocked, "cal", focus.Stats{BlockedCount: 1}, base.Add(time.Minute))),
		mk(NewSessionReplaced(cal, man, base.Add(10*time.Minute))),
		mk(NewFocusStarted(man, base.Add(10*time.Minute))),
		mk(NewManualToggled(true, base.Add(10*time.Minute))),
	}

	got := Summarize(events)
	require.Len(t, got, 2)

	assert.Equal(t, "man", got[0].SessionID)
	assert.Equal(t, "running", got[0].Status)
	assert.Nil(t, got[0].EndedAt)

	assert.Equal(t, "cal", got[1].SessionID)
	assert.Equal(t, "replaced", got[1].Status)
	assert.Equal(t, "Review", got[1].Label)
	assert.Equal(t, 10*time.Minute, got[1].Duration)
	assert.Equal(t, 1, got[1].Blocked)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
}
