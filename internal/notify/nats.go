package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// StreamName is the JetStream stream that retains state changes.
const StreamName = "FOCUSD_STATE"

// NATSPublisher publishes state changes to a JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to url and ensures a stream covers subject.
func NewNATSPublisher(ctx context.Context, url, subject string) (*NATSPublisher, error) {
	if url == "" || subject == "" {
		return nil, ferrors.ConfigError("notify.nats_url and notify.subject are required").Build()
	}
	conn, err := nats.Connect(url, nats.Name("focusd-notify"))
	if err != nil {
		return nil, ferrors.NetworkError("failed to connect to NATS").WithCause(err).WithContext("url", url).Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.NetworkError("failed to create JetStream context").WithCause(err).Build()
	}

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(sctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "focusd state changes",
		Subjects:    []string{subject},
		MaxMsgs:     10_000,
		Discard:     jetstream.DiscardOld,
	}); err != nil {
		conn.Close()
		return nil, ferrors.NetworkError("failed to ensure notification stream").WithCause(err).Build()
	}

	slog.Info("NATS notifier initialized", slog.String("url", url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, js: js, subject: subject}, nil
}

// Publish sends change to the configured subject.
func (p *NATSPublisher) Publish(ctx context.Context, change StateChange) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := json.Marshal(change)
	if err != nil {
		return ferrors.InternalError("failed to marshal state change").WithCause(err).Build()
	}
	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return ferrors.NetworkError("failed to publish state change").WithCause(err).Retryable().Build()
	}
	slog.Debug("Published state change",
		slog.String("transition", string(change.Transition)),
		logfields.Label(change.Status.SessionLabel))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil && !strings.Contains(err.Error(), "closed") {
		return err
	}
	return nil
}
