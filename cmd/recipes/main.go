package main

import (
	"os"

	"github.com/newslynx/recipes/internal/cli/commands"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	commands.Version = Version
	commands.GitCommit = GitCommit
	commands.BuildDate = BuildDate

	os.Exit(commands.ExitCode(commands.Execute()))
}
