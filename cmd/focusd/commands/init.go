package commands

import (
	"fmt"

	"git.home.luguber.info/inful/focusd/internal/config"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return ferrors.ConfigError(err.Error()).WithCause(err).UserAction().Build()
	}
	_, _ = fmt.Fprintf(g.Out, "Wrote example configuration to %s\n", root.Config)
	return nil
}
