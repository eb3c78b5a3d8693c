package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir string `arg:"" default:"." help:"Directory to scaffold the site in"`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	// Provide friendly user-facing messages on stdout for CLI integration tests.
	fmt.Printf("Scaffolding site in %s\n", i.Dir)
	created, err := scaffold.Init(i.Dir)
	if err != nil {
		return fmt.Errorf("scaffold site: %w", err)
	}
	if created == 0 {
		fmt.Println("All starter files already exist; nothing written")
		return nil
	}
	fmt.Printf("Wrote %d files\n", created)
	fmt.Println("Edit site.toml, then run 'sitegen build'")
	return nil
}
