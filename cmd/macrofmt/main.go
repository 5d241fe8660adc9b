package main

import (
	"fmt"
	"os"

	"github.com/r9s-ai/macrofmt/cli"
)

// Set via -ldflags at release time.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	err := cli.Run(os.Args[1:], cli.Options{
		BuildInfo: cli.BuildInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "macrofmt: %v\n", err)
		os.Exit(1)
	}
}
