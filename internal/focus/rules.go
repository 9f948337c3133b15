package focus

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// RuleVariant distinguishes the two host forms blocked per domain.
type RuleVariant string

const (
	VariantWWW  RuleVariant = "www"
	VariantBare RuleVariant = "bare"
)

// Rule redirects main-frame navigation to one host onto the blocked page.
type Rule struct {
	ID           int         `json:"id"`
	Priority     int         `json:"priority"`
	Domain       string      `json:"domain"`
	Variant      RuleVariant `json:"variant"`
	RedirectPath string      `json:"redirect_path"`
}

// Host is the exact host name the rule matches.
func (r Rule) Host() string {
	if r.Variant == VariantWWW {
		return "www." + r.Domain
	}
	return r.Domain
}

// URLFilter renders the rule as a wildcard URL pattern.
func (r Rule) URLFilter() string {
	return fmt.Sprintf("*://%s/*", r.Host())
}

// CompileRules derives the rule set for domains: two rules per domain, www first, with
// 1-based IDs assigned by position. The same input always yields the same output.
func CompileRules(domains []string, redirectPath string) []Rule {
	rules := make([]Rule, 0, len(domains)*2)
	id := 1
	for _, d := range domains {
		for _, v := range []RuleVariant{VariantWWW, VariantBare} {
			rules = append(rules, Rule{
				ID:           id,
				Priority:     1,
				Domain:       d,
				Variant:      v,
				RedirectPath: redirectPath,
			})
			id++
		}
	}
	return rules
}

// RuleIDs lists the IDs of rules in order.
func RuleIDs(rules []Rule) []int {
	ids := make([]int, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}

// RuleSink is the externally owned redirect-rule table. Both calls must be idempotent.
type RuleSink interface {
	// ReplaceRules removes removeIDs and adds add as one operation.
	ReplaceRules(ctx context.Context, removeIDs []int, add []Rule) error
	RemoveRules(ctx context.Context, ids []int) error
}

// RuleApplier pushes compiled rule sets into a RuleSink.
type RuleApplier struct {
	sink RuleSink
	// IDs this applier may have installed; cleared on a successful removal.
	installed []int
	lastErr   error
}

// NewRuleApplier wraps sink.
func NewRuleApplier(sink RuleSink) *RuleApplier {
	return &RuleApplier{sink: sink}
}

// Apply enables (replace) or disables (remove) rules. IDs installed by an earlier, larger
// rule set are removed as well, so a shrinking domain list leaves nothing behind.
func (a *RuleApplier) Apply(ctx context.Context, rules []Rule, enable bool) error {
	ids := RuleIDs(rules)
	remove := mergeIDs(a.installed, ids)

	var err error
	if enable {
		slog.Info("Enabling blocking rules", logfields.RuleCount(len(rules)))
		err = a.sink.ReplaceRules(ctx, remove, rules)
	} else {
		slog.Info("Disabling blocking rules", logfields.RuleCount(len(remove)))
		err = a.sink.RemoveRules(ctx, remove)
	}
	a.lastErr = err
	if err != nil {
		slog.Error("Failed to update blocking rules", slog.Bool("enable", enable), logfields.Error(err))
		// Keep the union so the retry still clears stale IDs.
		a.installed = remove
		return err
	}
	if enable {
		a.installed = ids
	} else {
		a.installed = nil
	}
	return nil
}

// Failed reports whether the last Apply call failed.
func (a *RuleApplier) Failed() bool { return a.lastErr != nil }

func mergeIDs(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}
