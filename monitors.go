package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/thalesraymond/walland/lib/log"
	"github.com/thalesraymond/walland/lib/proc"
)

func monitorsCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "monitors"
	cmd.Usage = "List the monitors the backend would set a wallpaper on"
	cmd.Before = beforeFunc
	cmd.Flags = append(commonFlags(), &cli.StringFlag{
		Name:    backendFlag,
		Aliases: []string{"b"},
		Usage:   "Wallpaper backend, hyprpaper when unset",
	})

	cmd.Action = monitorsAction

	return cmd
}

func monitorsAction(c *cli.Context) error {
	w := newWalland(conf, nil, proc.ExecRunner{})

	monitors, err := w.dispatcher.Monitors(c.Context, conf.Backend)
	if err != nil {
		return exitErr(err)
	}

	if len(monitors) == 0 {
		log.Println("No monitors detected.")
		return nil
	}
	for _, m := range monitors {
		fmt.Fprintln(c.App.Writer, m)
	}
	return nil
}
