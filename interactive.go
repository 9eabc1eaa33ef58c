package main

import (
	"errors"
	"fmt"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/urfave/cli/v2"

	"github.com/thalesraymond/walland/lib/proc"
	"github.com/thalesraymond/walland/lib/source"
)

var errAborted = errors.New("aborted")

func interactiveCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "interactive"
	cmd.Usage = "Choose the source and backend from a prompt, then set the wallpaper"
	cmd.Before = beforeFunc
	cmd.Flags = runFlags()
	cmd.BashComplete = completeRunValues

	cmd.Action = interactiveAction

	return cmd
}

func interactiveAction(c *cli.Context) error {
	w := newWalland(conf, nil, proc.ExecRunner{})

	sources := sourceSuggestions(w.registry)
	src, err := ask("source", conf.Source, sources)
	if err != nil {
		return nil
	}

	backends := make([]prompt.Suggest, 0, len(w.dispatcher.Names()))
	for _, b := range w.dispatcher.Names() {
		backends = append(backends, prompt.Suggest{Text: b})
	}
	be, err := ask("backend", conf.Backend, backends)
	if err != nil {
		return nil
	}

	conf.Source = src
	conf.Backend = be

	if src == source.WallhavenID {
		if conf.WallhavenAPIKey == "" {
			if conf.WallhavenAPIKey, err = ask("api key", "", nil); err != nil {
				return nil
			}
		}
		if conf.WallhavenTag, err = ask("tag", conf.WallhavenTag, nil); err != nil {
			return nil
		}
	}

	path, err := w.set(c.Context, c.Bool(saveFlag))
	if err != nil {
		return exitErr(err)
	}
	fmt.Fprintln(c.App.Writer, "Wallpaper set to", path)
	return nil
}

func sourceSuggestions(r *source.Registry) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: source.Random, Description: "Any source that needs no API key"},
	}
	for _, src := range r.Sources() {
		s = append(s, prompt.Suggest{Text: src.ID(), Description: src.Endpoint()})
	}
	return s
}

func completerFor(s []prompt.Suggest) prompt.Completer {
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(s, d.TextBeforeCursor(), true)
	}
}

// ask prompts for one value. An empty answer keeps def.
func ask(what, def string, suggestions []prompt.Suggest) (string, error) {
	inputChan := make(chan string, 2)
	exit := prompt.OptionAddKeyBind(prompt.KeyBind{
		Key: prompt.ControlC,
		Fn: func(b *prompt.Buffer) {
			select {
			case inputChan <- "exit":
			default:
			}
		},
	})

	label := what
	if def != "" {
		label += " [" + def + "]"
	}

	go func() {
		// prompt.Input blocks and cannot be cancelled from outside
		inputChan <- prompt.Input(label+"> ", completerFor(suggestions), exit)
	}()

	in := strings.TrimSpace(<-inputChan)
	if in == "exit" {
		return "", errAborted
	}
	if in == "" {
		return def, nil
	}
	return in, nil
}
