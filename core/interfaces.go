// Package core defines the capture pipeline types and the capability
// interfaces each stage depends on. Collaborators (browser, converter,
// network) are injected through these interfaces so every stage can be
// exercised with fakes.
package core

import (
	"context"
	"net/url"
)

// PageSnapshot is an already-loaded page handed over by a PageLoader.
type PageSnapshot struct {
	URL   string
	Title string
	HTML  string
}

// RefKind classifies a raw image reference. It is decided once, at scan time.
type RefKind int

const (
	// RefInline is a data:image URI carried in the src attribute.
	RefInline RefKind = iota
	// RefURL is an absolute or relative URL in the src attribute.
	RefURL
	// RefSrcset is a responsive candidate list (e.g. data-srcset).
	RefSrcset
)

func (k RefKind) String() string {
	switch k {
	case RefInline:
		return "inline"
	case RefURL:
		return "url"
	case RefSrcset:
		return "srcset"
	default:
		return "unknown"
	}
}

// ImageReference is one raw image reference found in the markup.
type ImageReference struct {
	Kind RefKind
	Raw  string
}

// DescriptorKind tells the fetcher how to obtain the bytes of an asset.
type DescriptorKind int

const (
	DescInline DescriptorKind = iota
	DescRemote
)

// Descriptor is the resolved, fetchable form of an ImageReference.
// Inline is set for DescInline, URL for DescRemote.
type Descriptor struct {
	Kind   DescriptorKind
	Inline string
	URL    *url.URL
}

// Source returns a printable form of the descriptor for logs and failures.
// Inline payloads are truncated.
func (d Descriptor) Source() string {
	if d.Kind == DescRemote && d.URL != nil {
		return d.URL.String()
	}
	if len(d.Inline) > 48 {
		return d.Inline[:48] + "..."
	}
	return d.Inline
}

// Asset is a fetched or decoded image. Only successful fetches produce one.
type Asset struct {
	Filename string
	Data     []byte
}

// FetchFailure records an image that was dropped during resolution or fetch.
// Failures are logged and kept in memory; they are never persisted.
type FetchFailure struct {
	Source string
	Err    error
}

// Metadata is the summary record persisted as informations.json.
type Metadata struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	NbMdWords int    `json:"nb_md_words"`
	NbImages  int    `json:"nb_images"`
}

// Bundle is the complete set of artifacts for one captured page.
// It is built once by the assembler and not mutated afterwards.
type Bundle struct {
	URL      string
	Title    string
	Date     string
	HTML     string
	Markdown string
	Assets   []Asset
	Metadata Metadata
	Failures []FetchFailure
}

// PageLoader produces a snapshot of a loaded page.
type PageLoader interface {
	Load(ctx context.Context, url string) (PageSnapshot, error)
}

// Converter turns page markup into Markdown.
type Converter interface {
	Convert(ctx context.Context, html string) (string, error)
}

// AssetFetcher fetches or decodes a single descriptor.
type AssetFetcher interface {
	Fetch(ctx context.Context, d Descriptor) (*Asset, error)
}

// Renderer produces an additional bundle artifact (e.g. a PDF).
type Renderer interface {
	Render(b *Bundle) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".pdf").
	Extension() string
}
