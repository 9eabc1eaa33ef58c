package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/thalesraymond/walland/lib/backend"
	"github.com/thalesraymond/walland/lib/proc"
	"github.com/thalesraymond/walland/lib/source"
)

// Completion for the root command: subcommands plus the values -s and -b take.
func completeApp(c *cli.Context) {
	cli.DefaultAppComplete(c)
	completeRunValues(c)
}

// Prints every source and backend name, one per line.
func completeRunValues(c *cli.Context) {
	fmt.Fprintln(c.App.Writer, source.Random)
	for _, id := range source.NewRegistry(source.NewWallhaven(nil, nil)).IDs() {
		fmt.Fprintln(c.App.Writer, id)
	}
	for _, name := range backend.NewDispatcher(proc.ExecRunner{}, 0).Names() {
		fmt.Fprintln(c.App.Writer, name)
	}
}
