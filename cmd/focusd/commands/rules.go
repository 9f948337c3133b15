package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/focusd/internal/daemon"
	"git.home.luguber.info/inful/focusd/internal/focus"
	"git.home.luguber.info/inful/focusd/internal/history"
)

// RulesCmd implements the 'rules' command.
type RulesCmd struct {
	Active bool `help:"Only list rules currently installed"`
}

func (r *RulesCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	var resp daemon.RulesResponse
	if err := newAPIClient(root).get(ctx, "/api/rules", &resp); err != nil {
		return err
	}
	active := make(map[int]bool, len(resp.Active))
	for _, rule := range resp.Active {
		active[rule.ID] = true
	}
	rules := resp.Configured
	if r.Active {
		rules = resp.Active
	}
	printRules(g.Out, rules, active)
	return nil
}

func printRules(out io.Writer, rules []focus.Rule, active map[int]bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPRIORITY\tFILTER\tREDIRECT\tACTIVE")
	for _, rule := range rules {
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", rule.ID, rule.Priority, rule.URLFilter(), rule.RedirectPath, yesNo(active[rule.ID]))
	}
	_ = tw.Flush()
}

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit    int  `short:"n" help:"Number of entries" default:"20"`
	Sessions bool `help:"Summarize by session instead of listing raw events"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()
	client := newAPIClient(root)
	query := fmt.Sprintf("?limit=%d", h.Limit)

	if h.Sessions {
		var sessions []history.SessionSummary
		if err := client.get(ctx, "/api/sessions"+query, &sessions); err != nil {
			return err
		}
		printSessions(g.Out, sessions)
		return nil
	}
	var events []history.Event
	if err := client.get(ctx, "/api/history"+query, &events); err != nil {
		return err
	}
	printEvents(g.Out, events)
	return nil
}

func printEvents(out io.Writer, events []history.Event) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tEVENT\tSESSION\tDETAILS")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Type, shortID(e.SessionID), string(e.Payload))
	}
	_ = tw.Flush()
}

func printSessions(out io.Writer, sessions []history.SessionSummary) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tLABEL\tSOURCE\tSTATUS\tDURATION\tBLOCKED")
	for _, s := range sessions {
		dur := "-"
		if s.EndedAt != nil {
			dur = s.Duration.Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			s.StartedAt.Local().Format(time.DateTime), s.Label, s.Source, s.Status, dur, s.Blocked)
	}
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
