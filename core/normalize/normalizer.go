// Package normalize implements the Converter interface.
// It converts page markup into Markdown, the portable text artifact of a
// capture bundle.
package normalize

import (
	"context"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/gaurav-prasanna/pagecapture/core"
	"github.com/gaurav-prasanna/pagecapture/core/extract"
	"github.com/microcosm-cc/bluemonday"
)

// Options tune the built-in converter.
type Options struct {
	// MainContentOnly converts only the main content container
	// (<main>, <article> or <body>) with navigation noise removed.
	MainContentOnly bool
	// Sanitize passes the markup through a bluemonday UGC policy first.
	Sanitize bool
}

// MarkdownNormalizer converts HTML to Markdown using html-to-markdown.
type MarkdownNormalizer struct {
	conv      *converter.Converter
	extractor *extract.HTMLExtractor
	policy    *bluemonday.Policy
}

// New creates a MarkdownNormalizer.
func New(opts Options) *MarkdownNormalizer {
	n := &MarkdownNormalizer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	if opts.MainContentOnly {
		n.extractor = extract.New()
	}
	if opts.Sanitize {
		n.policy = bluemonday.UGCPolicy()
	}
	return n
}

// Convert turns the page markup into Markdown.
func (n *MarkdownNormalizer) Convert(ctx context.Context, html string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", core.Errorf(core.ErrConversion, err, "converting HTML to markdown")
	}

	if n.extractor != nil {
		content, err := n.extractor.Extract(html)
		if err != nil {
			return "", core.Errorf(core.ErrConversion, err, "extracting main content")
		}
		html = content
	}
	if n.policy != nil {
		html = n.policy.Sanitize(html)
	}

	markdown, err := n.conv.ConvertString(html)
	if err != nil {
		return "", core.Errorf(core.ErrConversion, err, "converting HTML to markdown")
	}
	return markdown, nil
}

var _ core.Converter = (*MarkdownNormalizer)(nil)

// String names the engine in logs.
func (n *MarkdownNormalizer) String() string {
	return fmt.Sprintf("html-to-markdown(main_only=%t, sanitize=%t)", n.extractor != nil, n.policy != nil)
}
