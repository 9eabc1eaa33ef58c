package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/thalesraymond/walland/lib/fetch"
	"github.com/thalesraymond/walland/lib/log"
)

// WallhavenQuery is one toplist search.
type WallhavenQuery struct {
	APIKey string
	Tag    string
	// Top bounds how many leading results are eligible for the random pick.
	// Values below 1 leave only the first result eligible.
	Top int
}

// wallhavenResponse is the subset of the search API response walland reads.
type wallhavenResponse struct {
	Data []wallhavenImage `json:"data"`
	Meta struct {
		LastPage int `json:"last_page"`
	} `json:"meta"`
}

type wallhavenImage struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	ShortURL   string `json:"short_url"`
	FileType   string `json:"file_type"`
	Resolution string `json:"resolution"`
}

// Wallhaven queries the wallhaven.cc search API instead of scraping a page.
type Wallhaven struct {
	getter   Getter
	endpoint string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWallhaven returns a client issuing requests through g. rng may be nil.
func NewWallhaven(g Getter, rng *rand.Rand) *Wallhaven {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Wallhaven{getter: g, endpoint: WallhavenSearchURL, rng: rng}
}

func (w *Wallhaven) ID() string       { return WallhavenID }
func (w *Wallhaven) Endpoint() string { return w.endpoint }
func (w *Wallhaven) Kind() Kind       { return JSON }

// SearchURL builds the toplist request for q.
func (w *Wallhaven) SearchURL(q WallhavenQuery) string {
	params := url.Values{}
	params.Set("apikey", q.APIKey)
	params.Set("q", strings.ReplaceAll(q.Tag, " ", "+"))
	params.Set("sorting", WallhavenSorting)
	params.Set("page", strconv.Itoa(WallhavenPage))
	return w.endpoint + "?" + params.Encode()
}

// Search runs q and picks one of the top results at random.
func (w *Wallhaven) Search(ctx context.Context, q WallhavenQuery) (ImageReference, error) {
	if q.APIKey == "" {
		return ImageReference{}, fmt.Errorf("%w: an API key is required for wallhaven", ErrMissingCredential)
	}

	body, err := w.getter.Get(ctx, w.SearchURL(q))
	if err != nil {
		return ImageReference{}, err
	}

	var response wallhavenResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ImageReference{}, fmt.Errorf("%w: failed to parse wallhaven JSON: %v", fetch.ErrFetchFailed, err)
	}
	if len(response.Data) == 0 {
		return ImageReference{}, fmt.Errorf("%w: no images found for tag %q", ErrNoResults, q.Tag)
	}

	candidates := response.Data[:eligible(q.Top, len(response.Data))]
	chosen := candidates[w.intn(len(candidates))]
	log.Debugf("Wallhaven picked %s (%s) out of %d candidates", chosen.ID, chosen.Resolution, len(candidates))

	if err := checkImageURL(chosen.Path); err != nil {
		return ImageReference{}, fmt.Errorf("%w: wallhaven [data.path]: %v", ErrExtractionFailed, err)
	}
	return ImageReference{URL: chosen.Path, Source: WallhavenID}, nil
}

func eligible(top, n int) int {
	if top < 1 {
		top = 1
	}
	return min(top, n)
}

func (w *Wallhaven) intn(n int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rng.Intn(n)
}

var _ Source = (*Wallhaven)(nil)
