package focus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// memSink is an in-memory RuleSink keyed by rule ID.
type memSink struct {
	rules    map[int]Rule
	calls    int
	failNext int
}

func newMemSink() *memSink { return &memSink{rules: map[int]Rule{}} }

var errSinkDown = errors.New("sink unavailable")

func (s *memSink) ReplaceRules(_ context.Context, removeIDs []int, add []Rule) error {
	s.calls++
	if s.failNext > 0 {
		s.failNext--
		return errSinkDown
	}
	for _, id := range removeIDs {
		delete(s.rules, id)
	}
	for _, r := range add {
		s.rules[r.ID] = r
	}
	return nil
}

func (s *memSink) RemoveRules(_ context.Context, ids []int) error {
	s.calls++
	if s.failNext > 0 {
		s.failNext--
		return errSinkDown
	}
	for _, id := range ids {
		delete(s.rules, id)
	}
	return nil
}

func (s *memSink) activeIDs() []int {
	ids := make([]int, 0, len(s.rules))
	for id := range s.rules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

type memPersister struct {
	writes []Snapshot
	err    error
}

func (p *memPersister) Persist(_ context.Context, snap Snapshot) error {
	if p.err != nil {
		return p.err
	}
	p.writes = append(p.writes, snap)
	return nil
}

func (p *memPersister) last() Snapshot {
	if len(p.writes) == 0 {
		return Snapshot{}
	}
	return p.writes[len(p.writes)-1]
}

type harness struct {
	state      *State
	sink       *memSink
	persister  *memPersister
	ledger     *Ledger
	reconciler *Reconciler
}

func newHarness(domains ...string) *harness {
	if len(domains) == 0 {
		domains = []string{"a.com", "b.com"}
	}
	h := &harness{state: &State{}, sink: newMemSink(), persister: &memPersister{}}
	h.ledger = NewLedger(h.state, h.persister, time.UTC)
	h.reconciler = NewReconciler(h.state, h.ledger, NewRuleApplier(h.sink), CompileRules(domains, "/blocked"))
	n := 0
	h.reconciler.newID = func() string {
		n++
		return fmt.Sprintf("session-%d", n)
	}
	return h
}

var day1 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
