package main

import (
	"os"

	"github.com/rflorenc/cloudmc-client/internal/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(cmd.Main(os.Args, cmd.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}))
}
