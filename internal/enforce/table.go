// Package enforce implements the rule sink: an in-memory, priority-ordered rule table
// and an HTTP gateway that redirects navigations to blocked hosts.
package enforce

import (
	"context"
	"net"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

// MemoryTable is a concurrency-safe rule table keyed by rule ID.
type MemoryTable struct {
	mu    sync.RWMutex
	rules map[int]focus.Rule
	hosts map[string]focus.Rule
}

// NewMemoryTable returns an empty table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{rules: map[int]focus.Rule{}, hosts: map[string]focus.Rule{}}
}

// ReplaceRules removes removeIDs then adds add, under one lock.
func (t *MemoryTable) ReplaceRules(ctx context.Context, removeIDs []int, add []focus.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range removeIDs {
		delete(t.rules, id)
	}
	for _, r := range add {
		t.rules[r.ID] = r
	}
	t.reindex()
	return nil
}

// RemoveRules deletes ids; unknown IDs are ignored.
func (t *MemoryTable) RemoveRules(ctx context.Context, ids []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.rules, id)
	}
	t.reindex()
	return nil
}

// Rules lists active rules by priority (highest first), then ID.
func (t *MemoryTable) Rules() []focus.Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]focus.Rule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b focus.Rule) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return a.ID - b.ID
	})
	return out
}

// Match returns the rule that blocks host, if any. host may carry a port.
func (t *MemoryTable) Match(host string) (focus.Rule, bool) {
	host = canonicalHost(host)
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.hosts[host]
	return r, ok
}

// reindex rebuilds the host lookup; the highest-priority, lowest-ID rule wins a host.
func (t *MemoryTable) reindex() {
	clear(t.hosts)
	for _, r := range t.rules {
		h := r.Host()
		cur, ok := t.hosts[h]
		if !ok || r.Priority > cur.Priority || (r.Priority == cur.Priority && r.ID < cur.ID) {
			t.hosts[h] = r
		}
	}
}

func canonicalHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

var _ focus.RuleSink = (*MemoryTable)(nil)
