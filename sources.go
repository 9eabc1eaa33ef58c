package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/thalesraymond/walland/lib/source"
)

var (
	nameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Width(22)
	kindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Width(6)
	urlStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noteStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11"))
)

func sourcesCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "sources"
	cmd.Usage = "List the available image sources"

	cmd.Action = sourcesAction

	return cmd
}

func sourcesAction(c *cli.Context) error {
	// Listing needs no config or network, nothing is fetched
	registry := source.NewRegistry(source.NewWallhaven(nil, nil))
	printSources(c.App.Writer, registry)
	return nil
}

func printSources(w io.Writer, r *source.Registry) {
	for _, s := range r.Sources() {
		line := nameStyle.Render(s.ID()) + kindStyle.Render(s.Kind().String()) + urlStyle.Render(s.Endpoint())
		if _, ok := s.(source.Scraper); !ok {
			line += " " + noteStyle.Render("(needs --api-key)")
		}
		fmt.Fprintln(w, line)
	}
}
