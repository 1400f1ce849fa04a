package cmd

import (
	"fmt"

	"github.com/mitchellh/cli"
)

type VersionCommand struct {
	UI   cli.Ui
	Info VersionInfo
}

func (c *VersionCommand) Synopsis() string {
	return "Print the version"
}

func (c *VersionCommand) Help() string {
	return "Usage: cloudmc version"
}

func (c *VersionCommand) Run(args []string) int {
	c.UI.Output(fmt.Sprintf("cloudmc %s (commit: %s, built: %s)", c.Info.Version, c.Info.Commit, c.Info.Date))
	return 0
}
