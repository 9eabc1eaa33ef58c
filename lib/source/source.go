// Package source turns the pages, feeds and APIs of daily-image providers into
// a fetchable image URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrUnknownSource is returned for identifiers outside the registry.
	ErrUnknownSource = errors.New("unknown source")
	// ErrExtractionFailed is returned when a document lacks the expected
	// element or field, or yields something that is not an image URL.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrMissingCredential is returned when Wallhaven is queried without an API key.
	ErrMissingCredential = errors.New("missing credential")
	// ErrNoResults is returned when a Wallhaven search matches nothing.
	ErrNoResults = errors.New("no results")
)

// Kind is the format of a source's document.
type Kind int

const (
	// HTML documents are parsed leniently.
	HTML Kind = iota
	// XML documents are parsed strictly.
	XML
	// JSON is used by API sources.
	JSON
)

func (k Kind) String() string {
	switch k {
	case HTML:
		return "html"
	case XML:
		return "xml"
	case JSON:
		return "json"
	default:
		return "unknown"
	}
}

// ImageReference is a resolved, absolute http(s) image URL.
type ImageReference struct {
	URL    string
	Source string
}

// Getter performs a single GET and returns the body.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Source is one provider of a daily image.
type Source interface {
	// ID is the identifier users select the source by.
	ID() string
	// Endpoint is the URL walland requests.
	Endpoint() string
	// Kind is the format of the document behind Endpoint.
	Kind() Kind
}

// Scraper is a Source whose image is found inside a fetched document.
type Scraper interface {
	Source
	// Rule describes the element and field Extract looks for.
	Rule() Rule
	// Extract returns the raw image reference held by doc.
	Extract(doc []byte) (string, error)
	// Resolve turns a raw reference into an absolute image URL.
	Resolve(raw string) (ImageReference, error)
}

// Rule describes where a scraper finds its raw reference.
type Rule struct {
	// Selector is a CSS selector for HTML documents or an element name for
	// XML documents.
	Selector string
	// Attrs filters XML elements by exact attribute values.
	Attrs map[string]string
	// Field is the attribute holding the reference. Empty means the
	// element's text.
	Field string
}

func (r Rule) String() string {
	field := "text"
	if r.Field != "" {
		field = "@" + r.Field
	}
	return fmt.Sprintf("%s %s", r.Selector, field)
}

// Fetch downloads the scraper's document with g and resolves its image.
func Fetch(ctx context.Context, g Getter, s Scraper) (ImageReference, error) {
	doc, err := g.Get(ctx, s.Endpoint())
	if err != nil {
		return ImageReference{}, err
	}

	raw, err := s.Extract(doc)
	if err != nil {
		return ImageReference{}, err
	}
	return Resolve(s, raw)
}

// Resolve applies the scraper's URL rule to raw and checks the result is an
// absolute http(s) URL. It performs no I/O.
func Resolve(s Scraper, raw string) (ImageReference, error) {
	ref, err := s.Resolve(raw)
	if err != nil {
		return ImageReference{}, err
	}
	if err := checkImageURL(ref.URL); err != nil {
		return ImageReference{}, fmt.Errorf("%w: %s: %v", ErrExtractionFailed, s.ID(), err)
	}
	return ref, nil
}

func checkImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

func extractionError(id string, rule Rule, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s [%s]: %s", ErrExtractionFailed, id, rule, fmt.Sprintf(format, args...))
}
