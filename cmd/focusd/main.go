package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/focusd/cmd/focusd/commands"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Out: os.Stdout}
	ctx := kong.Parse(&cli,
		kong.Name("focusd"),
		kong.Description("Blocks distracting sites while you are in a focus session."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global, &cli),
	)
	global.Logger = slog.Default()

	if err := ctx.Run(); err != nil {
		os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).Report(err))
	}
}
