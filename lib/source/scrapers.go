package source

import (
	"net/url"
	"strings"
)

// page holds what every scraped source shares: where its document lives and
// how to pull the raw reference out of it.
type page struct {
	id       string
	endpoint string
	kind     Kind
	rule     Rule
}

func (p page) ID() string       { return p.id }
func (p page) Endpoint() string { return p.endpoint }
func (p page) Kind() Kind       { return p.kind }
func (p page) Rule() Rule       { return p.rule }

func (p page) Extract(doc []byte) (string, error) {
	if p.kind == XML {
		return extractXML(p.id, p.rule, doc)
	}
	return extractHTML(p.id, p.rule, doc)
}

// absolute returns raw when it already is an absolute URL and resolves it
// against the endpoint otherwise, which covers protocol-relative links.
func (p page) absolute(raw string) (ImageReference, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ImageReference{}, extractionError(p.id, p.rule, "bad URL %q: %v", raw, err)
	}
	if u.IsAbs() {
		return ImageReference{URL: raw, Source: p.id}, nil
	}
	base, err := url.Parse(p.endpoint)
	if err != nil {
		return ImageReference{}, extractionError(p.id, p.rule, "bad endpoint: %v", err)
	}
	return ImageReference{URL: base.ResolveReference(u).String(), Source: p.id}, nil
}

// BingSource reads the archive feed's urlBase, a host-relative path that
// takes a resolution suffix.
type BingSource struct{ page }

func NewBing() *BingSource {
	return &BingSource{page{
		id:       Bing,
		endpoint: BingURL,
		kind:     XML,
		rule:     Rule{Selector: "urlBase"},
	}}
}

func (s *BingSource) Resolve(raw string) (ImageReference, error) {
	return ImageReference{URL: bingDownloadPrefix + raw + bingQualitySuffix, Source: s.id}, nil
}

// UnsplashSource takes the first wallpaper thumbnail that is not an
// Unsplash+ image.
type UnsplashSource struct{ page }

func NewUnsplash() *UnsplashSource {
	return &UnsplashSource{page{
		id:       Unsplash,
		endpoint: UnsplashURL,
		kind:     HTML,
		rule: Rule{
			Selector: `img[itemprop="thumbnailUrl"][src]:not([src*="plus."])`,
			Field:    "src",
		},
	}}
}

func (s *UnsplashSource) Resolve(raw string) (ImageReference, error) {
	return s.absolute(raw)
}

// NASASource reads the image of the day RSS enclosure.
type NASASource struct{ page }

func NewNASA() *NASASource {
	return &NASASource{page{
		id:       NASA,
		endpoint: NASAURL,
		kind:     XML,
		rule: Rule{
			Selector: "enclosure",
			Attrs:    map[string]string{"type": "image/jpeg"},
			Field:    "url",
		},
	}}
}

func (s *NASASource) Resolve(raw string) (ImageReference, error) {
	return s.absolute(raw)
}

// APODSource links to the full image with a path relative to /apod/.
type APODSource struct{ page }

func NewAPOD() *APODSource {
	return &APODSource{page{
		id:       APOD,
		endpoint: APODURL,
		kind:     HTML,
		rule:     Rule{Selector: `a[href^="image/"]`, Field: "href"},
	}}
}

func (s *APODSource) Resolve(raw string) (ImageReference, error) {
	return ImageReference{URL: apodDownloadPrefix + strings.TrimPrefix(raw, "/"), Source: s.id}, nil
}

// EarthObservatorySource reads the feed's media:thumbnail.
type EarthObservatorySource struct{ page }

func NewEarthObservatory() *EarthObservatorySource {
	return &EarthObservatorySource{page{
		id:       EarthObservatory,
		endpoint: EarthObservatoryURL,
		kind:     XML,
		rule:     Rule{Selector: "media:thumbnail", Field: "url"},
	}}
}

func (s *EarthObservatorySource) Resolve(raw string) (ImageReference, error) {
	return s.absolute(raw)
}

// EPODSource takes the first post image.
type EPODSource struct{ page }

func NewEPOD() *EPODSource {
	return &EPODSource{page{
		id:       EPOD,
		endpoint: EPODURL,
		kind:     HTML,
		rule:     Rule{Selector: "img.asset-image", Field: "src"},
	}}
}

func (s *EPODSource) Resolve(raw string) (ImageReference, error) {
	return s.absolute(raw)
}

// NationalGeographicSource takes the full width photo of the day.
type NationalGeographicSource struct{ page }

func NewNationalGeographic() *NationalGeographicSource {
	return &NationalGeographicSource{page{
		id:       NationalGeographic,
		endpoint: NationalGeographicURL,
		kind:     HTML,
		rule:     Rule{Selector: `img[width="940"]`, Field: "src"},
	}}
}

func (s *NationalGeographicSource) Resolve(raw string) (ImageReference, error) {
	return s.absolute(raw)
}

var (
	_ Scraper = (*BingSource)(nil)
	_ Scraper = (*UnsplashSource)(nil)
	_ Scraper = (*NASASource)(nil)
	_ Scraper = (*APODSource)(nil)
	_ Scraper = (*EarthObservatorySource)(nil)
	_ Scraper = (*EPODSource)(nil)
	_ Scraper = (*NationalGeographicSource)(nil)
)
