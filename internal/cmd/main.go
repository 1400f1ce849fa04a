package cmd

import (
	"bufio"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// VersionInfo is stamped into the binary at build time.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string, version VersionInfo) int {
	cliName := "cloudmc"
	if len(args) > 0 {
		args = args[1:]
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:   cliName,
		Output: os.Stderr,
	})

	if len(args) == 1 && (args[0] == "-version" || args[0] == "--version" || args[0] == "-v") {
		args = []string{"version"}
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := &cli.CLI{
		Name:     cliName,
		Args:     args,
		Version:  version.Version,
		Commands: Commands(log, ui, version),
	}

	exitCode, err := c.Run()
	if err != nil {
		log.Error("error running command", "error", err)
		return 1
	}
	return exitCode
}

// Commands returns the subcommand factories.
func Commands(log hclog.Logger, ui cli.Ui, version VersionInfo) map[string]cli.CommandFactory {
	base := func() *baseCommand {
		return &baseCommand{Log: log, UI: ui}
	}
	return map[string]cli.CommandFactory{
		"call": func() (cli.Command, error) {
			return &CallCommand{baseCommand: base()}, nil
		},
		"serve": func() (cli.Command, error) {
			return &ServeCommand{baseCommand: base()}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{UI: ui, Info: version}, nil
		},
	}
}
