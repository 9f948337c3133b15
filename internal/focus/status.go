package focus

import (
	"fmt"
	"time"
)

// NoTime is shown when there is no running clock to display.
const NoTime = "--:--"

// StatusSnapshot is the read-only view served to display clients.
type StatusSnapshot struct {
	Blocking       bool          `json:"is_blocking"`
	SessionID      string        `json:"session_id,omitempty"`
	SessionLabel   string        `json:"session_label,omitempty"`
	SessionSource  SessionSource `json:"session_source,omitempty"`
	NextEventLabel string        `json:"next_event_label,omitempty"`
	NextEventTime  string        `json:"next_event_time,omitempty"`
	TimeRemaining  string        `json:"time_remaining"`
	ManualFocus    bool          `json:"manual_focus"`
	Authenticated  bool          `json:"is_authenticated"`
	Stats          Stats         `json:"stats"`
}

// Project renders state at now. It never mutates state.
func Project(state *State, now time.Time) StatusSnapshot {
	snap := StatusSnapshot{
		Blocking:      state.Blocking,
		TimeRemaining: NoTime,
		ManualFocus:   state.ManualFocus,
		Authenticated: state.Authenticated,
		Stats:         state.Stats,
	}
	if state.NextEvent != nil {
		snap.NextEventLabel = state.NextEvent.Label
		snap.NextEventTime = state.NextEvent.Time
	}
	sess := state.Session
	if !state.Blocking || sess == nil {
		return snap
	}
	snap.SessionID = sess.ID
	snap.SessionLabel = sess.Label
	snap.SessionSource = sess.Source

	switch {
	case sess.Source == SourceManual || sess.EndsAt == nil:
		snap.TimeRemaining = FormatClock(now.Sub(sess.StartedAt))
	default:
		if remaining := sess.EndsAt.Sub(now); remaining > 0 {
			snap.TimeRemaining = FormatClock(remaining)
		}
	}
	return snap
}

// FormatClock renders d as M:SS, truncated to whole seconds. Minutes are not capped.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
