package focus

import (
	"fmt"
	"time"
)

// SessionSource names what started a focus session.
type SessionSource string

const (
	SourceManual   SessionSource = "manual"
	SourceCalendar SessionSource = "calendar"
)

// ManualSessionLabel is the label every manual session carries.
const ManualSessionLabel = "Manual Focus Session"

// DateKey identifies a calendar day (YYYY-MM-DD) in the controller's time zone.
type DateKey string

// DateKeyOf returns the day key of t in loc.
func DateKeyOf(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.Local
	}
	return DateKey(t.In(loc).Format(time.DateOnly))
}

// Session describes the active focus period. EndsAt is nil for manual sessions.
type Session struct {
	ID        string        `json:"id"`
	Source    SessionSource `json:"source"`
	Label     string        `json:"label"`
	StartedAt time.Time     `json:"started_at"`
	EndsAt    *time.Time    `json:"ends_at,omitempty"`
}

// Stats are the daily usage counters.
type Stats struct {
	BlockedCount uint64  `json:"blocked_count"`
	FocusMinutes uint64  `json:"focus_minutes"`
	FocusTime    string  `json:"focus_time"`
	DayKey       DateKey `json:"day_key"`
}

// FormatFocusTime renders minutes as "{h}h {m}m".
func FormatFocusTime(minutes uint64) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// NextEvent is the earliest upcoming busy interval, for display only.
type NextEvent struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Time  string    `json:"time"` // HH:MM in the controller's zone
}

// BusyInterval is one calendar entry during which focus mode should be on.
type BusyInterval struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Covers reports whether t falls inside the interval, bounds included.
func (b BusyInterval) Covers(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}

// State is the controller's single mutable record.
// Invariant: Blocking == (Session != nil).
type State struct {
	Blocking      bool       `json:"is_blocking"`
	Session       *Session   `json:"current_session,omitempty"`
	ManualFocus   bool       `json:"manual_focus"`
	Authenticated bool       `json:"is_authenticated"`
	NextEvent     *NextEvent `json:"next_event,omitempty"`
	Stats         Stats      `json:"stats"`
	// LastResetDateKey is the day the stats were last zeroed. It always equals Stats.DayKey.
	LastResetDateKey DateKey `json:"last_reset_date"`
}

// Clone returns a deep copy, safe to hand to readers outside the owner.
func (s *State) Clone() State {
	cp := *s
	if s.Session != nil {
		sess := *s.Session
		if s.Session.EndsAt != nil {
			end := *s.Session.EndsAt
			sess.EndsAt = &end
		}
		cp.Session = &sess
	}
	if s.NextEvent != nil {
		ev := *s.NextEvent
		cp.NextEvent = &ev
	}
	return cp
}

// Snapshot is the persisted subset of State.
type Snapshot struct {
	Stats         Stats   `json:"stats"`
	ManualFocus   bool    `json:"manual_focus"`
	LastResetDate DateKey `json:"last_reset_date"`
}

// Snapshot extracts the persisted fields.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Stats:         s.Stats,
		ManualFocus:   s.ManualFocus,
		LastResetDate: s.LastResetDateKey,
	}
}

// Restore builds the start-up state from a persisted snapshot. A zero snapshot (first
// run) yields zeroed stats and manual focus off. Blocking always starts false; the first
// reconciliation decides.
func Restore(snap Snapshot) *State {
	st := &State{ManualFocus: snap.ManualFocus, Stats: snap.Stats}
	if snap.LastResetDate != "" {
		st.Stats.DayKey = snap.LastResetDate
	}
	st.LastResetDateKey = st.Stats.DayKey
	st.Stats.FocusTime = FormatFocusTime(st.Stats.FocusMinutes)
	return st
}
