package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/thalesraymond/walland/lib/proc"
)

func previewCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "preview"
	cmd.Usage = "Download today's image without setting it"
	cmd.Description = "Prints the resolved URL and the downloaded file. " +
		"Combine with --save to keep the image in the current directory."
	cmd.Before = beforeFunc
	cmd.Flags = runFlags()
	cmd.BashComplete = completeRunValues

	cmd.Action = previewAction

	return cmd
}

func previewAction(c *cli.Context) error {
	w := newWalland(conf, nil, proc.ExecRunner{})

	ref, img, err := w.fetchImage(c.Context, c.Bool(saveFlag))
	if err != nil {
		return exitErr(err)
	}

	fmt.Fprintf(c.App.Writer, "%s\t%s\n%s\n", ref.Source, ref.URL, img.Path)
	return nil
}
