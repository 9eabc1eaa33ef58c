package source

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// extractHTML returns the field of the first element matching rule.Selector.
func extractHTML(id string, rule Rule, doc []byte) (string, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return "", extractionError(id, rule, "parse html: %v", err)
	}

	sel := d.Find(rule.Selector).First()
	if sel.Length() == 0 {
		return "", extractionError(id, rule, "no element matches")
	}

	if rule.Field == "" {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return "", extractionError(id, rule, "element has no text")
		}
		return text, nil
	}

	v, ok := sel.Attr(rule.Field)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", extractionError(id, rule, "element has no %q attribute", rule.Field)
	}
	return v, nil
}

// xmlElement names an XML element. Spaces lists the namespaces the element
// may live in; an undeclared prefix is reported by encoding/xml as the
// namespace itself, so the prefix is accepted as well.
type xmlElement struct {
	Local  string
	Spaces []string
}

func parseXMLSelector(sel string) xmlElement {
	prefix, local, found := strings.Cut(sel, ":")
	if !found {
		return xmlElement{Local: sel}
	}
	e := xmlElement{Local: local, Spaces: []string{prefix}}
	if prefix == "media" {
		e.Spaces = append(e.Spaces, mediaRSSNamespace)
	}
	return e
}

func (e xmlElement) matches(name xml.Name) bool {
	if name.Local != e.Local {
		return false
	}
	if len(e.Spaces) == 0 {
		return true
	}
	for _, s := range e.Spaces {
		if name.Space == s {
			return true
		}
	}
	return false
}

// extractXML streams doc and returns the field of the first element named by
// rule.Selector whose attributes include rule.Attrs.
func extractXML(id string, rule Rule, doc []byte) (string, error) {
	want := parseXMLSelector(rule.Selector)

	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", extractionError(id, rule, "no element matches")
		}
		if err != nil {
			return "", extractionError(id, rule, "parse xml: %v", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !want.matches(start.Name) || !hasAttrs(start, rule.Attrs) {
			continue
		}

		if rule.Field == "" {
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return "", extractionError(id, rule, "read element text: %v", err)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return "", extractionError(id, rule, "element has no text")
			}
			return text, nil
		}

		v := strings.TrimSpace(attr(start, rule.Field))
		if v == "" {
			return "", extractionError(id, rule, "element has no %q attribute", rule.Field)
		}
		return v, nil
	}
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func hasAttrs(start xml.StartElement, want map[string]string) bool {
	for k, v := range want {
		if attr(start, k) != v {
			return false
		}
	}
	return true
}
