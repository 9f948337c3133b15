// Package history keeps an append-only log of focus events (sessions starting and
// stopping, blocked navigations, resets) in SQLite.
package history

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

// EventType names a kind of history event.
type EventType string

const (
	FocusStarted      EventType = "FocusStarted"
	FocusStopped      EventType = "FocusStopped"
	SessionReplaced   EventType = "SessionReplaced"
	NavigationBlocked EventType = "NavigationBlocked"
	StatsReset        EventType = "StatsReset"
	DayRolledOver     EventType = "DayRolledOver"
	ManualToggled     EventType = "ManualToggled"
)

// Event is one row of the log.
type Event struct {
	ID        int64             `json:"id"`
	SessionID string            `json:"session_id,omitempty"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SessionPayload is carried by FocusStarted, FocusStopped and SessionReplaced.
type SessionPayload struct {
	Source    focus.SessionSource `json:"source"`
	Label     string              `json:"label"`
	StartedAt time.Time           `json:"started_at"`
	EndsAt    *time.Time          `json:"ends_at,omitempty"`
	// ReplacedBy is set on SessionReplaced.
	ReplacedBy string `json:"replaced_by,omitempty"`
}

// StatsPayload is carried by NavigationBlocked, StatsReset and DayRolledOver.
type StatsPayload struct {
	BlockedCount uint64        `json:"blocked_count"`
	FocusMinutes uint64        `json:"focus_minutes"`
	DayKey       focus.DateKey `json:"day_key"`
}

func newEvent(sessionID string, typ EventType, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, ferrors.HistoryError("failed to marshal event payload").
			WithCause(err).
			WithContext("type", string(typ)).
			Build()
	}
	return Event{SessionID: sessionID, Type: typ, Timestamp: at, Payload: data}, nil
}

func sessionPayload(s *focus.Session) SessionPayload {
	return SessionPayload{Source: s.Source, Label: s.Label, StartedAt: s.StartedAt, EndsAt: s.EndsAt}
}

// NewFocusStarted records a session start.
func NewFocusStarted(s *focus.Session, at time.Time) (Event, error) {
	return newEvent(s.ID, FocusStarted, at, sessionPayload(s))
}

// NewFocusStopped records a session end.
func NewFocusStopped(s *focus.Session, at time.Time) (Event, error) {
	return newEvent(s.ID, FocusStopped, at, sessionPayload(s))
}

// NewSessionReplaced records prev being superseded by next.
func NewSessionReplaced(prev, next *focus.Session, at time.Time) (Event, error) {
	p := sessionPayload(prev)
	p.ReplacedBy = next.ID
	return newEvent(prev.ID, SessionReplaced, at, p)
}

// NewStatsEvent records a stats-affecting event (NavigationBlocked, StatsReset, DayRolledOver).
func NewStatsEvent(typ EventType, sessionID string, stats focus.Stats, at time.Time) (Event, error) {
	return newEvent(sessionID, typ, at, StatsPayload{
		BlockedCount: stats.BlockedCount,
		FocusMinutes: stats.FocusMinutes,
		DayKey:       stats.DayKey,
	})
}

// NewManualToggled records a manual focus toggle.
func NewManualToggled(enabled bool, at time.Time) (Event, error) {
	return newEvent("", ManualToggled, at, map[string]bool{"enabled": enabled})
}
