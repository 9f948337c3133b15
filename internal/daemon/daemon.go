// Package daemon runs the focus controller: the reconciliation loop, the periodic
// tick, the admin and gateway HTTP listeners, and configuration hot reload.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/enforce"
	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/history"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/metrics"
	"git.home.luguber.info/inful/focusd/internal/notify"
	"git.home.luguber.info/inful/focusd/internal/retry"
	"git.home.luguber.info/inful/focusd/internal/signal"
	"git.home.luguber.info/inful/focusd/internal/snapshot"
	"git.home.luguber.info/inful/focusd/internal/version"
)

const (
	commandTimeout = 5 * time.Second
	loopBuffer     = 64
)

// Options override the components Start would otherwise build from the configuration.
type Options struct {
	Clock     func() time.Time
	Store     snapshot.Store
	History   history.Store
	Publisher notify.Publisher
	// Source replaces the configured calendar provider.
	Source signal.Source
	// SignalOptions are passed to the Google Calendar client.
	SignalOptions    []option.ClientOption
	Registry         *prometheus.Registry
	GatewayTransport http.RoundTripper
	// ReloadDebounce overrides the config watcher's debounce window.
	ReloadDebounce time.Duration
}

// Daemon represents the main daemon service
type Daemon struct {
	mu         sync.Mutex // serializes Start, Stop and ReloadConfig
	config     atomic.Pointer[config.Config]
	configPath string
	opts       Options
	status     atomic.Value // Status
	startTime  atomic.Int64 // unix nanoseconds
	clock      func() time.Time

	registry *prometheus.Registry
	recorder metrics.Recorder
	table    *enforce.MemoryTable

	store         snapshot.Store
	history       history.Store
	notifier      *Notifier
	loop          *Loop
	scheduler     *Scheduler
	tickJobID     string
	httpServer    *HTTPServer
	configWatcher *ConfigWatcher

	signalMu sync.RWMutex
	source   *signal.Cached
	authMu   sync.Mutex

	runCtx context.Context
	cancel context.CancelFunc
}

// New creates a daemon for cfg. configPath enables hot reload; empty disables it.
func New(cfg *config.Config, configPath string, opts Options) *Daemon {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	d := &Daemon{
		configPath: configPath,
		opts:       opts,
		clock:      opts.Clock,
		registry:   opts.Registry,
		recorder:   metrics.NewPrometheusRecorder(opts.Registry),
		table:      enforce.NewMemoryTable(),
	}
	d.config.Store(cfg)
	d.status.Store(StatusStopped)
	return d
}

// Start restores state, starts the loop, the tick, the HTTP listeners and the config
// watcher. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.GetStatus() != StatusStopped {
		return ferrors.DaemonError(fmt.Sprintf("daemon is not in stopped state: %s", d.GetStatus())).Build()
	}
	d.status.Store(StatusStarting)
	d.startTime.Store(time.Now().UnixNano())
	cfg := d.Config()
	slog.Info("Starting focusd daemon", slog.String("version", version.Version))

	if err := d.openStores(ctx, cfg); err != nil {
		d.status.Store(StatusError)
		return err
	}

	snap, err := d.store.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load snapshot; starting from empty state", logfields.Error(err))
		snap = focus.Snapshot{}
	}
	state := focus.Restore(snap)
	persister := snapshot.NewPersister(d.store, retry.FromStorage(cfg.Storage), d.recorder)
	rules := focus.CompileRules(cfg.Focus.Domains, cfg.Focus.RedirectPath)

	ctrl := NewController(state, rules, d.table, persister, cfg.Focus.Location(), d.history, d.notifier, d.recorder)
	ctrl.clock = d.clock
	now := d.clock()
	ctrl.prepare(ctx, now)

	d.runCtx, d.cancel = context.WithCancel(context.Background())
	d.loop = NewLoop(ctrl, loopBuffer)
	go d.loop.Run(d.runCtx)

	if state.ManualFocus {
		// Restores the manual session; calendar intervals arrive after authentication.
		if err := d.loop.Submit(ctx, TickCommand{Now: now}); err != nil {
			slog.Warn("Failed to restore manual focus", logfields.Error(err))
		}
	}

	if err := d.startScheduler(ctx, cfg.Focus.TickInterval); err != nil {
		d.abortStart()
		return err
	}

	d.httpServer = NewHTTPServer(cfg, d)
	if err := d.httpServer.Start(ctx); err != nil {
		d.abortStart()
		return ferrors.DaemonError("failed to start HTTP server").WithCause(err).Build()
	}

	if d.configPath != "" {
		cw, err := NewConfigWatcher(d.configPath, d)
		if err == nil {
			if d.opts.ReloadDebounce > 0 {
				cw.debounceTime = d.opts.ReloadDebounce
			}
			err = cw.Start(d.runCtx)
		}
		if err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		} else {
			d.configWatcher = cw
		}
	}

	if cfg.Signal.Provider != config.SignalProviderNone || d.opts.Source != nil {
		go func() {
			if _, err := d.Authenticate(d.runCtx); err != nil {
				slog.Warn("Calendar signal unavailable; continuing with manual focus only", logfields.Error(err))
			}
		}()
	}

	d.status.Store(StatusRunning)
	slog.Info("focusd daemon started",
		logfields.RuleCount(len(rules)),
		logfields.Backend(string(cfg.Storage.Backend)),
		logfields.Provider(string(cfg.Signal.Provider)),
		slog.Int("admin_port", cfg.HTTP.AdminPort),
		slog.Int("gateway_port", cfg.HTTP.GatewayPort),
		slog.Bool("manual_focus", state.ManualFocus))
	return nil
}

func (d *Daemon) openStores(ctx context.Context, cfg *config.Config) error {
	d.store = d.opts.Store
	if d.store == nil {
		store, err := snapshot.Open(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		d.store = store
	}

	d.history = d.opts.History
	if d.history == nil {
		d.history = openHistory(cfg.Storage)
	}

	pub := d.opts.Publisher
	if pub == nil {
		pub = notify.NopPublisher{}
		if cfg.Notify.NATSURL != "" {
			np, err := notify.NewNATSPublisher(ctx, cfg.Notify.NATSURL, cfg.Notify.Subject)
			if err != nil {
				slog.Warn("State change publishing disabled", logfields.Error(err))
			} else {
				pub = np
			}
		}
	}
	d.notifier = NewNotifier(pub, 0)
	return nil
}

// openHistory opens the SQLite history log. Failures degrade to no history.
func openHistory(cfg config.StorageConfig) history.Store {
	if cfg.HistoryDB == "" {
		return history.NopStore{}
	}
	path := cfg.HistoryDB
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.DataDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Warn("History disabled", logfields.Path(path), logfields.Error(err))
		return history.NopStore{}
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		slog.Warn("History disabled", logfields.Path(path), logfields.Error(err))
		return history.NopStore{}
	}
	return store
}

func (d *Daemon) startScheduler(ctx context.Context, interval time.Duration) error {
	sched, err := NewScheduler()
	if err != nil {
		return ferrors.DaemonError("failed to create scheduler").WithCause(err).Build()
	}
	id, err := sched.ScheduleTick(interval, false, d.tick)
	if err != nil {
		_ = sched.Stop(ctx)
		return ferrors.DaemonError("failed to schedule reconcile tick").WithCause(err).Build()
	}
	d.scheduler = sched
	d.tickJobID = id
	sched.Start(ctx)
	return nil
}

// abortStart unwinds a partially started daemon. Callers hold d.mu.
func (d *Daemon) abortStart() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	d.shutdown(ctx)
	d.status.Store(StatusError)
}

// Stop gracefully shuts down the daemon
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.GetStatus()
	if current == StatusStopped || current == StatusStopping {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("Stopping focusd daemon")

	d.shutdown(ctx)

	d.status.Store(StatusStopped)
	slog.Info("focusd daemon stopped", slog.Duration("uptime", time.Since(d.GetStartTime())))
	return nil
}

// shutdown stops components in reverse start order. Callers hold d.mu.
func (d *Daemon) shutdown(ctx context.Context) {
	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
		d.configWatcher = nil
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			slog.Error("Failed to stop scheduler", logfields.Error(err))
		}
		d.scheduler = nil
	}
	if d.httpServer != nil {
		if err := d.httpServer.Stop(ctx); err != nil {
			slog.Error("Failed to stop HTTP server", logfields.Error(err))
		}
		d.httpServer = nil
	}
	if d.loop != nil {
		d.loop.Stop()
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.notifier != nil {
		if err := d.notifier.Close(); err != nil {
			slog.Error("Failed to close publisher", logfields.Error(err))
		}
	}
	if d.history != nil {
		if err := d.history.Close(); err != nil {
			slog.Error("Failed to close history store", logfields.Error(err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			slog.Error("Failed to close snapshot store", logfields.Error(err))
		}
	}
}

// Run starts the daemon and blocks until ctx is cancelled, then stops it.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return d.Stop(stopCtx)
}

// GetStatus returns the current daemon status
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStartTime returns when the daemon last started.
func (d *Daemon) GetStartTime() time.Time {
	return time.Unix(0, d.startTime.Load())
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	return d.config.Load()
}

// Registry returns the Prometheus registry the daemon records into.
func (d *Daemon) Registry() *prometheus.Registry { return d.registry }

// Table returns the live rule table the gateway consults.
func (d *Daemon) Table() *enforce.MemoryTable { return d.table }

// ReloadConfig applies the reloadable parts of newConfig: the domain list and the tick
// interval. The redirect path is bound to the admin mux and the gateway at Start, so a
// changed path is kept at its running value until restart.
func (d *Daemon) ReloadConfig(ctx context.Context, newConfig *config.Config) error {
	if d.GetStatus() != StatusRunning {
		return ferrors.DaemonError("daemon is not running").Build()
	}
	current := d.Config()
	if newConfig.Focus.RedirectPath != current.Focus.RedirectPath {
		slog.Warn("Redirect path change detected - restart required for it to take effect",
			logfields.Path(newConfig.Focus.RedirectPath),
			slog.String("active", current.Focus.RedirectPath))
		pinned := *newConfig
		pinned.Focus.RedirectPath = current.Focus.RedirectPath
		newConfig = &pinned
	}

	rules := focus.CompileRules(newConfig.Focus.Domains, newConfig.Focus.RedirectPath)
	err, callErr := call(ctx, d.loop, func(ch chan error) Command {
		return ReloadDomainsCommand{Rules: rules, Reply: ch}
	})
	if callErr != nil {
		return callErr
	}
	if err != nil {
		// The rule set was swapped; the next pass retries the apply.
		slog.Warn("New rules saved but not yet applied", logfields.Error(err))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if newConfig.Focus.TickInterval != current.Focus.TickInterval && d.scheduler != nil {
		if err := d.scheduler.Reschedule(d.tickJobID, newConfig.Focus.TickInterval, d.tick); err != nil {
			return err
		}
	}
	d.config.Store(newConfig)
	return nil
}
