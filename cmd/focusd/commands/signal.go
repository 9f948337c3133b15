package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/daemon"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	calsignal "git.home.luguber.info/inful/focusd/internal/signal"
)

// ConnectCmd implements the 'connect' command.
type ConnectCmd struct{}

func (c *ConnectCmd) Run(g *Global, root *CLI) error {
	// Authentication includes a calendar round trip.
	ctx, cancel := context.WithTimeout(context.Background(), 2*clientTimeout)
	defer cancel()

	var resp daemon.AuthResponse
	if err := newAPIClient(root).post(ctx, "/api/auth", nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return ferrors.AuthError("calendar connection failed: " + resp.Error).UserAction().Build()
	}
	_, _ = fmt.Fprintln(g.Out, "Calendar connected")
	return nil
}

// AuthCmd implements the 'auth' command: an interactive OAuth consent flow whose token
// the daemon picks up on its next connect.
type AuthCmd struct{}

func (a *AuthCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return ferrors.ConfigError(fmt.Sprintf("load config: %v", err)).WithCause(err).Build()
	}
	if cfg.Signal.Provider != config.SignalProviderGoogle {
		return ferrors.ConfigError("signal.provider must be google to authorize calendar access").
			WithContext("provider", string(cfg.Signal.Provider)).
			UserAction().
			Build()
	}

	oc, err := calsignal.LoadOAuthConfig(cfg.Signal.CredentialsFile)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tok, err := calsignal.LoopbackFlow(ctx, oc, g.Out)
	if err != nil {
		return err
	}
	if err := calsignal.SaveToken(cfg.Signal.TokenFile, tok); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Token saved to %s. Run `focusd connect` if the daemon is already running.\n", cfg.Signal.TokenFile)
	return nil
}
