package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Watch    bool          `short:"w" help:"Keep polling and redraw"`
	Interval time.Duration `help:"Polling interval for --watch" default:"1s"`
	JSON     bool          `name:"json" help:"Print the raw status JSON"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	client := newAPIClient(root)
	if !s.Watch {
		ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
		defer cancel()
		return s.once(ctx, g.Out, client, false)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		if err := s.once(ctx, g.Out, client, true); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *StatusCmd) once(ctx context.Context, out io.Writer, client *apiClient, clear bool) error {
	var snap focus.StatusSnapshot
	if err := client.get(ctx, "/api/status", &snap); err != nil {
		return err
	}
	if clear {
		_, _ = io.WriteString(out, "\033[H\033[2J")
	}
	if s.JSON {
		return printJSON(out, snap)
	}
	renderStatus(out, snap)
	return nil
}

func renderStatus(out io.Writer, s focus.StatusSnapshot) {
	state := "OFF"
	if s.Blocking {
		state = fmt.Sprintf("ON  %s (%s, %s)", s.SessionLabel, s.SessionSource, s.TimeRemaining)
	}
	calendar := "not connected"
	if s.Authenticated {
		calendar = "connected"
	}
	next := "none"
	if s.NextEventLabel != "" {
		next = fmt.Sprintf("%s at %s", s.NextEventLabel, s.NextEventTime)
	}

	_, _ = fmt.Fprintf(out, "Focus:        %s\n", state)
	_, _ = fmt.Fprintf(out, "Manual focus: %s\n", onOff(s.ManualFocus))
	_, _ = fmt.Fprintf(out, "Calendar:     %s\n", calendar)
	_, _ = fmt.Fprintf(out, "Next event:   %s\n", next)
	_, _ = fmt.Fprintf(out, "Blocked:      %d\n", s.Stats.BlockedCount)
	_, _ = fmt.Fprintf(out, "Focus time:   %s\n", s.Stats.FocusTime)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
