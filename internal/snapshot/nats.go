package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// KVStore keeps the snapshot in a NATS JetStream key-value bucket.
type KVStore struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	bucket string
}

// NewKVStore connects to url and opens (or creates) bucket.
func NewKVStore(ctx context.Context, url, bucket string) (*KVStore, error) {
	if url == "" || bucket == "" {
		return nil, ferrors.ConfigError("nats_url and kv_bucket are required for the nats backend").Build()
	}
	conn, err := nats.Connect(url, nats.Name("focusd"))
	if err != nil {
		return nil, ferrors.NetworkError("failed to connect to NATS").WithCause(err).WithContext("url", url).Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.NetworkError("failed to create JetStream context").WithCause(err).Build()
	}
	kv, err := openBucket(ctx, js, bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}
	slog.Info("NATS snapshot store initialized", logfields.Backend("nats"), slog.String("bucket", bucket))
	return &KVStore{conn: conn, kv: kv, bucket: bucket}, nil
}

func openBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "focusd state snapshot",
		History:     1,
	})
	if err != nil {
		return nil, ferrors.StorageError(fmt.Sprintf("failed to create KV bucket %s", bucket)).WithCause(err).Build()
	}
	slog.Info("Created KV bucket for snapshot", slog.String("bucket", bucket))
	return kv, nil
}

// Load reads the snapshot; a missing key yields the zero snapshot.
func (s *KVStore) Load(ctx context.Context) (focus.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry, err := s.kv.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return focus.Snapshot{}, nil
		}
		return focus.Snapshot{}, ferrors.StorageError("failed to get snapshot").WithCause(err).Retryable().Build()
	}
	return decode(entry.Value())
}

// Save puts the snapshot under Key.
func (s *KVStore) Save(ctx context.Context, snap focus.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := s.kv.Put(ctx, Key, data); err != nil {
		return ferrors.StorageError("failed to put snapshot").WithCause(err).Retryable().Build()
	}
	return nil
}

// Close closes the NATS connection.
func (s *KVStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
