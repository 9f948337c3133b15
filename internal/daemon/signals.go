package daemon

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/signal"
)

// tick is the scheduled job. Intervals are fetched here, off the loop, so a slow
// calendar never stalls commands; the job waits for its pass so ticks cannot overlap.
// The pass itself is stamped on the loop, after any command that overtook the fetch.
func (d *Daemon) tick() {
	ctx, cancel := context.WithTimeout(d.runCtx, d.Config().Signal.Timeout+commandTimeout)
	defer cancel()

	intervals := d.intervals(ctx, d.clock(), true)
	if _, err := call(ctx, d.loop, func(ch chan focus.Outcome) Command {
		return TickCommand{Intervals: intervals, Reply: ch}
	}); err != nil {
		slog.Warn("Reconcile tick failed", logfields.Error(err))
	}
}

// intervals returns busy intervals for [now, now+window]. fresh bypasses the cache.
func (d *Daemon) intervals(ctx context.Context, now time.Time, fresh bool) []focus.BusyInterval {
	d.signalMu.RLock()
	src := d.source
	d.signalMu.RUnlock()
	if src == nil {
		return nil
	}
	end := now.Add(d.Config().Signal.Window)
	if fresh {
		return src.Refresh(ctx, now, end)
	}
	return src.FetchBusyIntervals(ctx, now, end)
}

// Authenticate connects the configured calendar provider and, on success, enables the
// external signal and reconciles against it. A failure leaves the signal disabled.
func (d *Daemon) Authenticate(ctx context.Context) (bool, error) {
	d.authMu.Lock()
	defer d.authMu.Unlock()

	cfg := d.Config().Signal
	src, err := d.connect(ctx, cfg)
	if err != nil {
		d.setSource(nil)
		if _, callErr := call(ctx, d.loop, func(ch chan bool) Command {
			return AuthenticateCommand{Authenticated: false, Reply: ch}
		}); callErr != nil {
			slog.Warn("Failed to record authentication failure", logfields.Error(callErr))
		}
		return false, err
	}

	cached := signal.NewCached(signal.Instrumented{
		Source:   src,
		Provider: string(cfg.Provider),
		Recorder: d.recorder,
	}, cfg.CacheTTL)
	d.setSource(cached)

	now := d.clock()
	intervals := cached.Refresh(ctx, now, now.Add(cfg.Window))
	ok, err := call(ctx, d.loop, func(ch chan bool) Command {
		return AuthenticateCommand{Authenticated: true, Intervals: intervals, Reply: ch}
	})
	if err != nil {
		return false, err
	}
	slog.Info("Calendar signal connected", logfields.Provider(string(cfg.Provider)), logfields.Intervals(len(intervals)))
	return ok, nil
}

func (d *Daemon) connect(ctx context.Context, cfg config.SignalConfig) (signal.Source, error) {
	if d.opts.Source != nil {
		return d.opts.Source, nil
	}
	switch cfg.Provider {
	case config.SignalProviderSimulated:
		return signal.Simulated{}, nil
	case config.SignalProviderGoogle:
		connector := signal.Connector{Signal: cfg, Options: d.opts.SignalOptions}
		cal, err := connector.Connect(ctx)
		if err != nil {
			return nil, err
		}
		return cal, nil
	default:
		return nil, ferrors.AuthError("no calendar provider configured").
			WithContext("provider", string(cfg.Provider)).
			UserAction().
			Build()
	}
}

func (d *Daemon) setSource(src *signal.Cached) {
	d.signalMu.Lock()
	d.source = src
	d.signalMu.Unlock()
}
