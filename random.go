package main

import (
	"errors"

	"github.com/awused/go-strpick/persistent"
)

// pickSource chooses among the sources that need no credentials. With a
// DatabaseDir the choice is persisted so consecutive runs rotate through
// every source instead of repeating one.
func (w *walland) pickSource() (string, error) {
	ids := w.registry.Scrapable()
	if len(ids) == 0 {
		return "", errors.New("no sources available")
	}

	if w.conf.DatabaseDir == "" {
		return ids[w.rng.Intn(len(ids))], nil
	}

	picker, err := persistent.NewPicker(w.conf.DatabaseDir)
	if err != nil {
		return "", err
	}
	defer picker.Close()

	if err := picker.AddAll(ids); err != nil {
		return "", err
	}

	picked, err := picker.TryUniqueN(1)
	if err != nil {
		return "", err
	}
	if len(picked) == 0 {
		return "", errors.New("source picker returned nothing")
	}
	return picked[0], nil
}
