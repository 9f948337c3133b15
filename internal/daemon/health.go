package daemon

import (
	"context"
	"time"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/version"
)

// HealthStatus represents the overall health of the daemon
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string        `json:"name"`
	Status      HealthStatus  `json:"status"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
	LastChecked time.Time     `json:"last_checked"`
}

// HealthResponse represents the complete health check response
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Version   string        `json:"version"`
	Checks    []HealthCheck `json:"checks"`
}

const healthProbeTimeout = 2 * time.Second

// PerformHealthChecks executes all health checks and returns the overall status.
// The loop and snapshot store are critical; rules and the calendar signal only degrade.
func (d *Daemon) PerformHealthChecks(ctx context.Context) *HealthResponse {
	overall := HealthStatusHealthy
	worsen := func(s HealthStatus) {
		switch {
		case s == HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case s == HealthStatusDegraded && overall == HealthStatusHealthy:
			overall = HealthStatusDegraded
		}
	}

	daemonCheck := d.checkDaemonHealth()
	worsen(daemonCheck.Status)
	checks := []HealthCheck{daemonCheck}

	loopCheck, ctrl := d.checkLoopHealth(ctx)
	worsen(loopCheck.Status)
	checks = append(checks, loopCheck)

	if ctrl != nil {
		rules := d.checkRulesHealth(*ctrl)
		signal := d.checkSignalHealth(*ctrl)
		// Never let these two make the daemon look dead.
		worsen(capDegraded(rules.Status))
		worsen(capDegraded(signal.Status))
		checks = append(checks, rules, signal)
	}

	storeCheck := d.checkStorageHealth(ctx)
	worsen(storeCheck.Status)
	checks = append(checks, storeCheck)

	return &HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Uptime:    time.Since(d.GetStartTime()).Truncate(time.Second).String(),
		Version:   version.Version,
		Checks:    checks,
	}
}

func capDegraded(s HealthStatus) HealthStatus {
	if s == HealthStatusUnhealthy {
		return HealthStatusDegraded
	}
	return s
}

func (d *Daemon) checkDaemonHealth() HealthCheck {
	check := HealthCheck{Name: "daemon_status", LastChecked: time.Now()}
	switch d.GetStatus() {
	case StatusRunning:
		check.Status = HealthStatusHealthy
		check.Message = "Daemon is running normally"
	case StatusStarting:
		check.Status = HealthStatusDegraded
		check.Message = "Daemon is still starting up"
	case StatusStopping:
		check.Status = HealthStatusDegraded
		check.Message = "Daemon is shutting down"
	default:
		check.Status = HealthStatusUnhealthy
		check.Message = "Daemon is not running"
	}
	return check
}

func (d *Daemon) checkLoopHealth(ctx context.Context) (HealthCheck, *ControllerHealth) {
	start := time.Now()
	check := HealthCheck{Name: "controller_loop", LastChecked: start}
	if d.loop == nil {
		check.Status = HealthStatusUnhealthy
		check.Message = "Controller loop not initialized"
		return check, nil
	}
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	ch, err := call(ctx, d.loop, func(ch chan ControllerHealth) Command { return HealthCommand{Reply: ch} })
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = "Controller loop is not responding: " + err.Error()
		return check, nil
	}
	check.Status = HealthStatusHealthy
	check.Message = "Controller loop is responsive"
	return check, &ch
}

func (d *Daemon) checkRulesHealth(ctrl ControllerHealth) HealthCheck {
	check := HealthCheck{Name: "blocking_rules", LastChecked: time.Now()}
	if !ctrl.RulesInSync {
		check.Status = HealthStatusDegraded
		check.Message = "Last rule update failed; retrying on the next tick"
		return check
	}
	check.Status = HealthStatusHealthy
	if ctrl.Blocking {
		check.Message = "Blocking rules active"
	} else {
		check.Message = "No blocking rules active"
	}
	return check
}

func (d *Daemon) checkSignalHealth(ctrl ControllerHealth) HealthCheck {
	check := HealthCheck{Name: "calendar_signal", LastChecked: time.Now()}
	provider := d.Config().Signal.Provider
	switch {
	case provider == config.SignalProviderNone && d.opts.Source == nil:
		check.Status = HealthStatusHealthy
		check.Message = "No calendar provider configured"
	case ctrl.Authenticated:
		check.Status = HealthStatusHealthy
		check.Message = "Calendar signal connected"
	default:
		check.Status = HealthStatusDegraded
		check.Message = "Calendar provider configured but not authenticated"
	}
	return check
}

func (d *Daemon) checkStorageHealth(ctx context.Context) HealthCheck {
	start := time.Now()
	check := HealthCheck{Name: "snapshot_store", LastChecked: start}
	if d.store == nil {
		check.Status = HealthStatusUnhealthy
		check.Message = "Snapshot store not initialized"
		return check
	}
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	_, err := d.store.Load(ctx)
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = HealthStatusDegraded
		check.Message = "Snapshot store unreadable: " + err.Error()
		return check
	}
	check.Status = HealthStatusHealthy
	check.Message = "Snapshot store readable"
	return check
}
