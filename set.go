package main

import (
	"github.com/urfave/cli/v2"

	"github.com/thalesraymond/walland/lib/proc"
)

func setCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "set"
	cmd.Usage = "Download today's image and set it as the wallpaper (default)"
	cmd.Before = beforeFunc
	cmd.Flags = runFlags()
	cmd.BashComplete = completeRunValues

	cmd.Action = setAction

	return cmd
}

func setAction(c *cli.Context) error {
	w := newWalland(conf, nil, proc.ExecRunner{})

	_, err := w.set(c.Context, c.Bool(saveFlag))
	return exitErr(err)
}
