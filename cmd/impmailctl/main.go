package main

import (
	"os"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	root := cli.NewRootCmd(version)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
