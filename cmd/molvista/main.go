// Command molvista is the MolVista CLI entry point.
package main

import (
	"os"

	"github.com/turtacn/MolVista/internal/interfaces/cli"
	"github.com/turtacn/MolVista/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes configuration mistakes from runtime failures so
// scripts can tell a typo from a broken input file.
func exitCode(err error) int {
	switch errors.ModuleForCode(errors.GetCode(err)) {
	case "CFG":
		return 2
	case "IO":
		return 3
	default:
		return 1
	}
}
