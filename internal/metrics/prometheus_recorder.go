package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "focusd"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	reconcileDuration prom.Histogram
	ticks             prom.Counter
	blocking          prom.Gauge
	sessions          *prom.CounterVec
	blockedNavs       prom.Counter
	focusMinutes      prom.Gauge
	ruleApplies       *prom.CounterVec
	persistRetries    prom.Counter
	persistFailures   prom.Counter
	signalDuration    *prom.HistogramVec
	signalIntervals   *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.reconcileDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation passes",
			Buckets:   prom.DefBuckets,
		})
		pr.ticks = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduled reconciliation ticks",
		})
		pr.blocking = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "blocking",
			Help:      "1 while focus mode is engaged",
		})
		pr.sessions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Focus session transitions by kind and source",
		}, []string{"transition", "source"})
		pr.blockedNavs = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_navigations_total",
			Help:      "Navigations redirected to the blocked page",
		})
		pr.focusMinutes = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "focus_minutes",
			Help:      "Focus minutes accumulated today",
		})
		pr.ruleApplies = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rule_apply_total",
			Help:      "Rule table updates by result",
		}, []string{"result"})
		pr.persistRetries = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_retries_total",
			Help:      "Snapshot writes retried after a transient failure",
		})
		pr.persistFailures = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Snapshot writes that failed after all retries",
		})
		pr.signalDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "signal_fetch_duration_seconds",
			Help:      "Duration of busy-interval fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"provider"})
		pr.signalIntervals = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "signal_intervals",
			Help:      "Busy intervals returned by the last fetch",
		}, []string{"provider"})
		reg.MustRegister(pr.reconcileDuration, pr.ticks, pr.blocking, pr.sessions, pr.blockedNavs,
			pr.focusMinutes, pr.ruleApplies, pr.persistRetries, pr.persistFailures,
			pr.signalDuration, pr.signalIntervals)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveReconcileDuration(d time.Duration) {
	if p == nil || p.reconcileDuration == nil {
		return
	}
	p.reconcileDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTick() {
	if p == nil || p.ticks == nil {
		return
	}
	p.ticks.Inc()
}

func (p *PrometheusRecorder) SetBlocking(blocking bool) {
	if p == nil || p.blocking == nil {
		return
	}
	v := 0.0
	if blocking {
		v = 1
	}
	p.blocking.Set(v)
}

func (p *PrometheusRecorder) IncSessionTransition(transition, source string) {
	if p == nil || p.sessions == nil {
		return
	}
	p.sessions.WithLabelValues(transition, source).Inc()
}

func (p *PrometheusRecorder) IncBlockedNavigation() {
	if p == nil || p.blockedNavs == nil {
		return
	}
	p.blockedNavs.Inc()
}

func (p *PrometheusRecorder) SetFocusMinutes(minutes uint64) {
	if p == nil || p.focusMinutes == nil {
		return
	}
	p.focusMinutes.Set(float64(minutes))
}

func (p *PrometheusRecorder) IncRuleApply(result ResultLabel) {
	if p == nil || p.ruleApplies == nil {
		return
	}
	p.ruleApplies.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncPersistRetry() {
	if p == nil || p.persistRetries == nil {
		return
	}
	p.persistRetries.Inc()
}

func (p *PrometheusRecorder) IncPersistFailure() {
	if p == nil || p.persistFailures == nil {
		return
	}
	p.persistFailures.Inc()
}

func (p *PrometheusRecorder) ObserveSignalFetch(provider string, d time.Duration, intervals int) {
	if p == nil || p.signalDuration == nil {
		return
	}
	p.signalDuration.WithLabelValues(provider).Observe(d.Seconds())
	p.signalIntervals.WithLabelValues(provider).Set(float64(intervals))
}
