package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySessionID    = "session_id"
	KeySource       = "source"
	KeyLabel        = "label"
	KeyRuleCount    = "rule_count"
	KeyBlockedCount = "blocked_count"
	KeyFocusMinutes = "focus_minutes"
	KeyDateKey      = "date_key"
	KeyCommand      = "command"
	KeyBackend      = "backend"
	KeyProvider     = "provider"
	KeyIntervals    = "intervals"
	KeyHost         = "host"
	KeyAttempt      = "attempt"
	KeyJobID        = "job_id"
	KeyDurationMS   = "duration_ms"
	KeyPath         = "path"
	KeyMethod       = "method"
	KeyStatus       = "status"
	KeyUserAgent    = "user_agent"
	KeyRemoteAddr   = "remote_addr"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SessionID(id string) slog.Attr      { return slog.String(KeySessionID, id) }
func Source(s string) slog.Attr          { return slog.String(KeySource, s) }
func Label(l string) slog.Attr           { return slog.String(KeyLabel, l) }
func RuleCount(n int) slog.Attr          { return slog.Int(KeyRuleCount, n) }
func BlockedCount(n uint64) slog.Attr    { return slog.Uint64(KeyBlockedCount, n) }
func FocusMinutes(n uint64) slog.Attr    { return slog.Uint64(KeyFocusMinutes, n) }
func DateKey(k string) slog.Attr         { return slog.String(KeyDateKey, k) }
func Command(c string) slog.Attr         { return slog.String(KeyCommand, c) }
func Backend(b string) slog.Attr         { return slog.String(KeyBackend, b) }
func Provider(p string) slog.Attr        { return slog.String(KeyProvider, p) }
func Intervals(n int) slog.Attr          { return slog.Int(KeyIntervals, n) }
func Host(h string) slog.Attr            { return slog.String(KeyHost, h) }
func Attempt(n int) slog.Attr            { return slog.Int(KeyAttempt, n) }
func JobID(id string) slog.Attr          { return slog.String(KeyJobID, id) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr          { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr      { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr   { return slog.String(KeyRemoteAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
