package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines the controller's observability hooks. Implementations may forward
// to Prometheus or elsewhere; all must be safe for concurrent use.
type Recorder interface {
	ObserveReconcileDuration(d time.Duration)
	IncTick()
	SetBlocking(blocking bool)
	IncSessionTransition(transition, source string) // transition: started|stopped|replaced
	IncBlockedNavigation()
	SetFocusMinutes(minutes uint64)
	IncRuleApply(result ResultLabel)
	IncPersistRetry()
	IncPersistFailure()
	ObserveSignalFetch(provider string, d time.Duration, intervals int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveReconcileDuration(time.Duration)            {}
func (NoopRecorder) IncTick()                                          {}
func (NoopRecorder) SetBlocking(bool)                                  {}
func (NoopRecorder) IncSessionTransition(string, string)               {}
func (NoopRecorder) IncBlockedNavigation()                             {}
func (NoopRecorder) SetFocusMinutes(uint64)                            {}
func (NoopRecorder) IncRuleApply(ResultLabel)                          {}
func (NoopRecorder) IncPersistRetry()                                  {}
func (NoopRecorder) IncPersistFailure()                                {}
func (NoopRecorder) ObserveSignalFetch(string, time.Duration, int)     {}
