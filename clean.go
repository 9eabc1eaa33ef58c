package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awused/go-strpick/persistent"
	"github.com/urfave/cli/v2"

	"github.com/thalesraymond/walland/lib/fetch"
	"github.com/thalesraymond/walland/lib/log"
	"github.com/thalesraymond/walland/lib/proc"
)

const dryRunFlag = "dry-run"

func cleanCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "clean"
	cmd.Usage = "Remove downloads from earlier days out of the temp directory"
	cmd.Description = "Only files named after a source and a day other than " +
		"today are removed. Images saved with --save are never touched."
	cmd.Before = beforeFunc
	cmd.Flags = append(commonFlags(), &cli.BoolFlag{
		Name:    dryRunFlag,
		Aliases: []string{"n"},
		Usage:   "Print what would be removed",
	})

	cmd.Action = cleanAction

	return cmd
}

func cleanAction(c *cli.Context) error {
	w := newWalland(conf, nil, proc.ExecRunner{})
	dir := w.downloader.TempDir()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	lock, ok, err := fetch.TryLockDir(dir)
	if err != nil {
		return exitErr(err)
	}
	if !ok {
		log.Println("Another walland run is using", dir, "- not cleaning")
		return nil
	}
	defer lock.Unlock()

	stale, err := staleDownloads(dir, w.registry.IDs(), time.Now())
	if err != nil {
		return exitErr(err)
	}

	for _, f := range stale {
		if c.Bool(dryRunFlag) {
			fmt.Fprintln(c.App.Writer, f)
			continue
		}
		log.Debugf("Removing [%s]", f)
		if err := os.Remove(f); err != nil {
			return exitErr(err)
		}
	}

	if conf.DatabaseDir != "" && !c.Bool(dryRunFlag) {
		return exitErr(pruneSourceDB(conf.DatabaseDir, w.registry.Scrapable()))
	}
	return nil
}

// staleDownloads lists the files in dir downloaded for one of ids on a day
// other than today.
func staleDownloads(dir string, ids []string, today time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !downloadedBySource(name, ids) || fetch.IsDated(name, today) {
			continue
		}
		stale = append(stale, filepath.Join(dir, name))
	}
	return stale, nil
}

func downloadedBySource(name string, ids []string) bool {
	for _, id := range ids {
		if strings.HasPrefix(name, id+"_") {
			return true
		}
	}
	return false
}

// pruneSourceDB drops sources from the picker database that walland no
// longer offers.
func pruneSourceDB(dir string, ids []string) error {
	picker, err := persistent.NewPicker(dir)
	if err != nil {
		return err
	}
	defer picker.Close()

	if err := picker.AddAll(ids); err != nil {
		return err
	}
	return picker.CleanDB()
}
