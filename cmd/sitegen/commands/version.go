package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(_ *Global, _ *CLI) error {
	fmt.Println(versionString())
	return nil
}

// versionString formats the release metadata baked in via ldflags.
func versionString() string {
	return fmt.Sprintf("sitegen %s (commit %s, built %s)", version.Version, version.GitCommit, version.BuildTime)
}
