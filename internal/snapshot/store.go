// Package snapshot persists the controller's flat key-value snapshot
// ({stats, manual_focus, last_reset_date}) to a pluggable backend.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/metrics"
	"git.home.luguber.info/inful/focusd/internal/retry"
)

// Key is the single key the snapshot is stored under.
const Key = "focus-state"

// Store reads and writes the snapshot. A missing snapshot loads as the zero value.
type Store interface {
	Load(ctx context.Context) (focus.Snapshot, error)
	Save(ctx context.Context, snap focus.Snapshot) error
	Close() error
}

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageBackendNATS:
		return NewKVStore(ctx, cfg.NATSURL, cfg.KVBucket)
	case config.StorageBackendDiskv, "":
		return NewDiskvStore(cfg.DataDir)
	default:
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported storage backend: %s", cfg.Backend)).Build()
	}
}

func encode(snap focus.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "failed to encode snapshot").Build()
	}
	return data, nil
}

func decode(data []byte) (focus.Snapshot, error) {
	var snap focus.Snapshot
	if len(data) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return focus.Snapshot{}, ferrors.WrapError(err, ferrors.CategoryStorage, "failed to decode snapshot").Build()
	}
	return snap, nil
}

// Persister adapts a Store to focus.Persister, retrying failed writes per policy.
type Persister struct {
	store    Store
	policy   retry.Policy
	recorder metrics.Recorder
}

// NewPersister wraps store. A nil recorder means no metrics.
func NewPersister(store Store, policy retry.Policy, recorder metrics.Recorder) *Persister {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Persister{store: store, policy: policy, recorder: recorder}
}

// Persist implements focus.Persister.
func (p *Persister) Persist(ctx context.Context, snap focus.Snapshot) error {
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		return p.store.Save(ctx, snap)
	}, func(attempt int, err error) {
		p.recorder.IncPersistRetry()
		slog.Warn("Retrying snapshot write", logfields.Attempt(attempt), logfields.Error(err))
	})
	if err != nil {
		p.recorder.IncPersistFailure()
		if ferrors.IsClassified(err) {
			return err
		}
		return ferrors.StorageError("failed to persist snapshot").WithCause(err).Build()
	}
	return nil
}

var _ focus.Persister = (*Persister)(nil)
