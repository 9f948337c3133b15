package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

// DiskvStore keeps the snapshot as one JSON file under a data directory. Writes go
// through a temp file and rename, so a crash never leaves a torn snapshot.
type DiskvStore struct {
	mu sync.Mutex
	d  *diskv.Diskv
}

// NewDiskvStore opens (creating if needed) a store rooted at dir.
func NewDiskvStore(dir string) (*DiskvStore, error) {
	if dir == "" {
		return nil, ferrors.ValidationError("data directory is required").Build()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "failed to create data directory").
			WithContext("path", dir).
			Build()
	}
	return &DiskvStore{d: diskv.New(diskv.Options{
		BasePath:     dir,
		TempDir:      filepath.Join(dir, ".tmp"),
		CacheSizeMax: 64 * 1024,
		FilePerm:     0o600,
		PathPerm:     0o750,
	})}, nil
}

// Load reads the snapshot; a missing file yields the zero snapshot.
func (s *DiskvStore) Load(_ context.Context) (focus.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(Key) {
		return focus.Snapshot{}, nil
	}
	data, err := s.d.Read(Key)
	if err != nil {
		return focus.Snapshot{}, ferrors.WrapError(err, ferrors.CategoryStorage, "failed to read snapshot").
			WithContext("path", filepath.Join(s.d.BasePath, Key)).
			Build()
	}
	return decode(data)
}

// Save writes the snapshot atomically.
func (s *DiskvStore) Save(ctx context.Context, snap focus.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.d.Write(Key, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, fmt.Sprintf("failed to write snapshot %s", Key)).
			Retryable().
			Build()
	}
	return nil
}

// Close is a no-op; diskv holds no open handles.
func (s *DiskvStore) Close() error { return nil }
