package history

import (
	"encoding/json"
	"slices"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

const (
	sessionRunning  = "running"
	sessionStopped  = "stopped"
	sessionReplaced = "replaced"
)

// SessionSummary is a read model of one focus session reconstructed from events.
type SessionSummary struct {
	SessionID string              `json:"session_id"`
	Source    focus.SessionSource `json:"source"`
	Label     string              `json:"label"`
	Status    string              `json:"status"` // running|stopped|replaced
	StartedAt time.Time           `json:"started_at"`
	EndedAt   *time.Time          `json:"ended_at,omitempty"`
	Duration  time.Duration       `json:"duration,omitempty"`
	Blocked   int                 `json:"blocked"` // navigations blocked during the session
}

// Summarize folds events (oldest first) into per-session summaries, newest first.
// Events without a session ID are ignored except NavigationBlocked, which is attributed
// to the session it names.
func Summarize(events []Event) []SessionSummary {
	byID := map[string]*SessionSummary{}
	var order []string

	for _, e := range events {
		if e.SessionID == "" {
			continue
		}
		s, ok := byID[e.SessionID]
		if !ok {
			s = &SessionSummary{SessionID: e.SessionID, Status: sessionRunning, StartedAt: e.Timestamp}
			byID[e.SessionID] = s
			order = append(order, e.SessionID)
		}
		switch e.Type {
		case FocusStarted:
			var p SessionPayload
			if json.Unmarshal(e.Payload, &p) == nil {
				s.Source, s.Label, s.StartedAt = p.Source, p.Label, p.StartedAt
			}
		case FocusStopped, SessionReplaced:
			var p SessionPayload
			if json.Unmarshal(e.Payload, &p) == nil && s.Label == "" {
				s.Source, s.Label, s.StartedAt = p.Source, p.Label, p.StartedAt
			}
			end := e.Timestamp
			s.EndedAt = &end
			s.Duration = end.Sub(s.StartedAt)
			s.Status = sessionStopped
			if e.Type == SessionReplaced {
				s.Status = sessionReplaced
			}
		case NavigationBlocked:
			s.Blocked++
		}
	}

	out := make([]SessionSummary, 0, len(order))
	for _, id := range slices.Backward(order) {
		out = append(out, *byID[id])
	}
	return out
}
