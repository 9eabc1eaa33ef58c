package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/thalesraymond/walland/lib/backend"
	"github.com/thalesraymond/walland/lib/config"
	"github.com/thalesraymond/walland/lib/convert"
	"github.com/thalesraymond/walland/lib/fetch"
	"github.com/thalesraymond/walland/lib/log"
	"github.com/thalesraymond/walland/lib/proc"
	"github.com/thalesraymond/walland/lib/source"
)

// walland holds everything one run needs. It is built once from the config
// and never modified.
type walland struct {
	conf *config.Config

	registry   *source.Registry
	wallhaven  *source.Wallhaven
	client     *fetch.Client
	browser    *fetch.BrowserFetcher
	downloader *fetch.Downloader
	converter  *convert.Converter
	dispatcher *backend.Dispatcher

	rng *rand.Rand
}

// newWalland wires the components. transport may be nil to use the default
// HTTP transport.
func newWalland(c *config.Config, transport http.RoundTripper, runner proc.Runner) *walland {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	client := fetch.NewClient(c.UserAgent, transport)
	wallhaven := source.NewWallhaven(client, rng)

	return &walland{
		conf:       c,
		registry:   source.NewRegistry(wallhaven),
		wallhaven:  wallhaven,
		client:     client,
		browser:    &fetch.BrowserFetcher{UserAgent: c.UserAgent},
		downloader: fetch.NewDownloader(client, c.TempDirectory),
		converter: &convert.Converter{
			Mode:        c.Converter,
			ImageMagick: c.ImageMagick,
			Runner:      runner,
		},
		dispatcher: backend.NewDispatcher(runner, c.ReadyTimeout()),
		rng:        rng,
	}
}

// getter picks how a source's document is fetched.
func (w *walland) getter(s source.Source) source.Getter {
	if w.conf.FetchMode == config.FetchBrowser && s.Kind() == source.HTML {
		return w.browser
	}
	return w.client
}

// sourceID returns the configured source, picking one when it is random.
func (w *walland) sourceID() (string, error) {
	if w.conf.Source != source.Random {
		return w.conf.Source, nil
	}
	id, err := w.pickSource()
	if err != nil {
		return "", err
	}
	log.Debugf("Picked source %s", id)
	return id, nil
}

// resolve finds the image URL offered today by source id.
func (w *walland) resolve(ctx context.Context, id string) (source.ImageReference, error) {
	s, err := w.registry.Lookup(id)
	if err != nil {
		return source.ImageReference{}, err
	}

	switch s := s.(type) {
	case *source.Wallhaven:
		return s.Search(ctx, source.WallhavenQuery{
			APIKey: w.conf.WallhavenAPIKey,
			Tag:    w.conf.WallhavenTag,
			Top:    w.conf.Top(),
		})
	case source.Scraper:
		return source.Fetch(ctx, w.getter(s), s)
	default:
		return source.ImageReference{}, fmt.Errorf("%w: %s cannot be fetched", source.ErrUnknownSource, id)
	}
}

// acquire downloads ref. Concurrent runs sharing the temp directory take
// turns.
func (w *walland) acquire(ctx context.Context, ref source.ImageReference, save bool) (fetch.DownloadedImage, error) {
	if !save {
		lock, err := fetch.LockDir(w.downloader.TempDir())
		if err != nil {
			return fetch.DownloadedImage{}, err
		}
		defer lock.Unlock()
	}

	img, err := w.downloader.Download(ctx, ref.Source, ref.URL, save)
	if err != nil {
		return fetch.DownloadedImage{}, err
	}

	if info, err := convert.Inspect(img.Path); err == nil {
		log.Debugf("Downloaded %s", info)
	} else {
		log.Debugf("Could not read image header of [%s]: %v", img.Path, err)
	}
	return img, nil
}

// prepare converts path when backend cannot display it.
func (w *walland) prepare(ctx context.Context, path, backendName string) (string, error) {
	if !convert.NeedsConversion(path, backendName) {
		return path, nil
	}
	return w.converter.ToPNG(ctx, path)
}

// fetchImage resolves and downloads today's image of the configured source.
func (w *walland) fetchImage(ctx context.Context, save bool) (source.ImageReference, fetch.DownloadedImage, error) {
	id, err := w.sourceID()
	if err != nil {
		return source.ImageReference{}, fetch.DownloadedImage{}, err
	}

	ref, err := w.resolve(ctx, id)
	if err != nil {
		return source.ImageReference{}, fetch.DownloadedImage{}, err
	}

	img, err := w.acquire(ctx, ref, save)
	return ref, img, err
}

// set runs the whole pipeline and returns the path handed to the backend.
func (w *walland) set(ctx context.Context, save bool) (string, error) {
	// Fail before any request when the backend cannot work
	if err := w.dispatcher.Check(w.conf.Backend); err != nil {
		return "", err
	}

	_, img, err := w.fetchImage(ctx, save)
	if err != nil {
		return "", err
	}

	path, err := w.prepare(ctx, img.Path, w.conf.Backend)
	if err != nil {
		return "", err
	}

	spec := backend.Spec{Name: w.conf.Backend, Args: w.conf.BackendArgs}
	if err := w.dispatcher.Apply(ctx, spec, path); err != nil {
		return "", err
	}
	log.Debugf("Wallpaper set to [%s] with %s", path, spec.Name)
	return path, nil
}
