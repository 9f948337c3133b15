package history

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestSQLiteStore_AppendAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	sess := &focus.Session{ID: "s1", Source: focus.SourceManual, Label: focus.ManualSessionLabel, StartedAt: base}
	started, err := NewFocusStarted(sess, base)
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	started.Metadata = map[string]string{"trigger": "api"}
	if err := store.Append(ctx, started); err != nil {
		t.Fatalf("append: %v", err)
	}
	stopped, _ := NewFocusStopped(sess, base.Add(25*time.Minute))
	if err := store.Append(ctx, stopped); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != FocusStopped || events[1].Type != FocusStarted {
		t.Fatalf("expected newest first, got %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].Metadata["trigger"] != "api" {
		t.Errorf("metadata lost: %v", events[1].Metadata)
	}
	if !events[1].Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", events[1].Timestamp, base)
	}
	var p SessionPayload
	if err := json.Unmarshal(events[1].Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Label != focus.ManualSessionLabel || p.Source != focus.SourceManual {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestSQLiteStore_RecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	for i := range 5 {
		e, _ := NewStatsEvent(NavigationBlocked, "", focus.Stats{BlockedCount: uint64(i + 1)}, base.Add(time.Duration(i)*time.Second))
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	events, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	var p StatsPayload
	_ = json.Unmarshal(events[0].Payload, &p)
	if p.BlockedCount != 5 {
		t.Errorf("newest blocked count = %d, want 5", p.BlockedCount)
	}
}

func TestSQLiteStore_BySessionAndRange(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	a := &focus.Session{ID: "a", Source: focus.SourceCalendar, Label: "Sync", StartedAt: base}
	b := &focus.Session{ID: "b", Source: focus.SourceManual, Label: focus.ManualSessionLabel, StartedAt: base.Add(time.Hour)}
	for _, build := range []func() (Event, error){
		func() (Event, error) { return NewFocusStarted(a, base) },
		func() (Event, error) { return NewSessionReplaced(a, b, base.Add(time.Hour)) },
		func() (Event, error) { return NewFocusStopped(b, base.Add(2*time.Hour)) },
	} {
		e, err := build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.BySession(ctx, "a")
	if err != nil {
		t.Fatalf("by session: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events for session a, got %d", len(got))
	}

	got, err = store.Range(ctx, base.Add(30*time.Minute), base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 1 || got[0].Type != SessionReplaced {
		t.Fatalf("expected only the replacement in range, got %+v", got)
	}
}

func TestSQLiteStore_FilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e, _ := NewManualToggled(true, base)
	if err := store.Append(t.Context(), e); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	events, err := reopened.Recent(t.Context(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 1 || events[0].Type != ManualToggled {
		t.Fatalf("expected the toggle event after reopen, got %+v", events)
	}
}
