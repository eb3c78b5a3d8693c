// Command sitegen builds markdown sites into static HTML trees.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/cmd/sitegen/commands"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitegen"),
		kong.Description("Markdown static site generator."),
		kong.UsageOnError(),
		kong.Vars{"version": "sitegen " + version.Version},
	)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}); err != nil {
		adapter := sgerrors.NewCLIErrorAdapter(cli.LogLevel == "debug", slog.Default())
		os.Exit(adapter.HandleError(err))
	}
}
