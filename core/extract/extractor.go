// Package extract isolates the main content of a page before conversion:
//  1. Noise elements (navigation, scripts, forms, ads) are removed.
//  2. The best content container (<main>, <article>, or <body>) is kept.
//
// Images are left in place so the Markdown keeps its figure references.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed before the container is picked.
var noiseSelectors = []string{
	"script", "style", "noscript", "template",
	"nav", "footer", "header", "aside",
	"iframe", "video", "audio", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement", ".cookie-banner",
	"[role=navigation]", "[aria-hidden=true]",
}

// containers in priority order.
var containers = []string{"main", "[role=main]", "article", "body"}

// HTMLExtractor strips noise from HTML and returns the main content fragment.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract returns the outer HTML of the main content container.
func (e *HTMLExtractor) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	for _, sel := range containers {
		if found := doc.Find(sel); found.Length() > 0 {
			out, err := goquery.OuterHtml(found.First())
			if err != nil {
				return "", fmt.Errorf("serializing content: %w", err)
			}
			return out, nil
		}
	}
	return "", fmt.Errorf("no content container found in HTML")
}
