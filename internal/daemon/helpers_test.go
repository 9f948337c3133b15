package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/focus"
	"git.home.luguber.info/inful/focusd/internal/history"
	"git.home.luguber.info/inful/focusd/internal/notify"
	"git.home.luguber.info/inful/focusd/internal/snapshot"
)

var day1 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type staticSource struct {
	mu        sync.Mutex
	intervals []focus.BusyInterval
	calls     int
}

func (s *staticSource) FetchBusyIntervals(context.Context, time.Time, time.Time) []focus.BusyInterval {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]focus.BusyInterval(nil), s.intervals...)
}

func (s *staticSource) set(intervals ...focus.BusyInterval) {
	s.mu.Lock()
	s.intervals = intervals
	s.mu.Unlock()
}

// memHistory is an in-memory history.Store.
type memHistory struct {
	history.NopStore
	mu     sync.Mutex
	events []history.Event
}

func (m *memHistory) Append(_ context.Context, e history.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, e)
	return nil
}

func (m *memHistory) Recent(_ context.Context, limit int) ([]history.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.events) {
		limit = len(m.events)
	}
	out := make([]history.Event, 0, limit)
	for i := len(m.events) - 1; i >= len(m.events)-limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

func (m *memHistory) types() []history.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]history.EventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []notify.StateChange
	closed  bool
}

func (p *recordingPublisher) Publish(_ context.Context, c notify.StateChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) transitions() []notify.Transition {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.Transition, 0, len(p.changes))
	for _, c := range p.changes {
		out = append(out, c.Transition)
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTP.AdminPort = 0
	cfg.HTTP.GatewayPort = 0
	cfg.Focus.Timezone = "UTC"
	cfg.Focus.Domains = []string{"example.com", "news.test"}
	cfg.Focus.TickInterval = time.Hour
	cfg.Storage.HistoryDB = ""
	return cfg
}

func startDaemon(t *testing.T, cfg *config.Config, opts Options) *Daemon {
	t.Helper()
	if opts.Store == nil {
		opts.Store = snapshot.NewMemoryStore(focus.Snapshot{})
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return day1 }
	}
	if opts.History == nil {
		opts.History = &memHistory{}
	}
	d := New(cfg, "", opts)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})
	return d
}

func request(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
