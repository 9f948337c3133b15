package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/focusd/internal/daemon"
	"git.home.luguber.info/inful/focusd/internal/focus"
)

// FocusCmd implements the 'focus' command.
type FocusCmd struct {
	State string `arg:"" enum:"on,off" help:"on or off"`
}

func (f *FocusCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	client := newAPIClient(root)
	enabled := f.State == "on"
	var resp daemon.FocusResponse
	if err := client.post(ctx, "/api/focus", daemon.FocusRequest{Enabled: &enabled}, &resp); err != nil {
		return err
	}
	var snap focus.StatusSnapshot
	if err := client.get(ctx, "/api/status", &snap); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Manual focus %s\n", onOff(resp.ManualFocus))
	renderStatus(g.Out, snap)
	return nil
}

// StatsCmd implements the 'stats' command.
type StatsCmd struct {
	JSON bool `name:"json" help:"Print the raw stats JSON"`
}

func (s *StatsCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	var stats focus.Stats
	if err := newAPIClient(root).get(ctx, "/api/stats", &stats); err != nil {
		return err
	}
	if s.JSON {
		return printJSON(g.Out, stats)
	}
	_, _ = fmt.Fprintf(g.Out, "Day:        %s\n", stats.DayKey)
	_, _ = fmt.Fprintf(g.Out, "Blocked:    %d\n", stats.BlockedCount)
	_, _ = fmt.Fprintf(g.Out, "Focus time: %s\n", stats.FocusTime)
	return nil
}

// ResetCmd implements the 'reset' command.
type ResetCmd struct{}

func (r *ResetCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	var resp daemon.ResetResponse
	if err := newAPIClient(root).post(ctx, "/api/stats/reset", nil, &resp); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Out, resp.Message)
	return nil
}
