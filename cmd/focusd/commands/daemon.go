package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/daemon"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	NoWatch bool `name:"no-watch" help:"Do not reload the configuration file on change"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return ferrors.ConfigError(fmt.Sprintf("load config: %v", err)).WithCause(err).UserAction().Build()
	}
	g.Logger = SetupLogging(cfg.Logging, root.Verbose)

	configPath := root.Config
	if d.NoWatch {
		configPath = ""
	}
	return RunDaemon(cfg, configPath)
}

// RunDaemon runs the daemon until SIGINT or SIGTERM.
func RunDaemon(cfg *config.Config, configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d := daemon.New(cfg, configPath, daemon.Options{})
	slog.Info("Daemon starting, waiting for shutdown signal...")
	if err := d.Run(ctx); err != nil {
		return err
	}
	slog.Info("Daemon stopped successfully")
	return nil
}
