// Package commands implements the focusd command line: the daemon itself and the thin
// clients that talk to its admin API.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/focusd/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"focusd.yaml" env:"FOCUSD_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Addr    string           `help:"Admin URL of a running daemon (defaults to the configured admin port)" env:"FOCUSD_ADDR"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Daemon  DaemonCmd  `cmd:"" help:"Run the focus controller in the foreground"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Status  StatusCmd  `cmd:"" help:"Show the current focus state"`
	Focus   FocusCmd   `cmd:"" help:"Turn manual focus on or off"`
	Stats   StatsCmd   `cmd:"" help:"Show today's counters"`
	Reset   ResetCmd   `cmd:"" help:"Reset today's counters"`
	Connect ConnectCmd `cmd:"" help:"Ask the daemon to (re)connect the calendar signal"`
	Auth    AuthCmd    `cmd:"" help:"Authorize Google Calendar access and store the token"`
	Rules   RulesCmd   `cmd:"" help:"List configured and active blocking rules"`
	History HistoryCmd `cmd:"" help:"Show recent focus history"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// SetupLogging replaces the default logger with one built from the configuration.
// The verbose flag wins over the configured level.
func SetupLogging(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfigOrDefault loads the config file, falling back to defaults when it does not
// exist. Client commands only need the admin port.
func loadConfigOrDefault(path string) *config.Config {
	if _, err := os.Stat(path); err != nil {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Debug("Using default configuration", slog.String("path", path), slog.Any("error", err))
		return config.Default()
	}
	return cfg
}
