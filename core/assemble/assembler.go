// Package assemble builds a capture bundle from a page snapshot.
//
// Markdown conversion and the image fan-out start together; the bundle is
// finalized only after both have settled. A conversion failure aborts the
// capture, an image failure only removes that image.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagecapture/core"
	"golang.org/x/sync/errgroup"
)

// DateLayout is the capture date format written to informations.json.
const DateLayout = "2006-01-02"

// Resolver yields the fetchable descriptors of a page.
type Resolver interface {
	ResolveAll(html, rawBase string) ([]core.Descriptor, []core.FetchFailure, error)
}

// Fetcher runs the image fan-out and returns once every task settled.
type Fetcher interface {
	FetchAll(ctx context.Context, descs []core.Descriptor) ([]core.Asset, []core.FetchFailure)
}

// Config wires the assembler's collaborators.
type Config struct {
	Resolver  Resolver
	Fetcher   Fetcher
	Converter core.Converter
	// Now returns the capture time. Default: time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Assembler produces bundles.
type Assembler struct {
	cfg Config
}

// New creates an Assembler. Resolver, Fetcher and Converter are required.
func New(cfg Config) (*Assembler, error) {
	if cfg.Resolver == nil || cfg.Fetcher == nil || cfg.Converter == nil {
		return nil, fmt.Errorf("assemble: resolver, fetcher and converter are required")
	}
	cfg.defaults()
	return &Assembler{cfg: cfg}, nil
}

// Assemble resolves, fetches and converts the snapshot and returns the
// finalized bundle.
func (a *Assembler) Assemble(ctx context.Context, snap core.PageSnapshot) (*core.Bundle, error) {
	log := a.cfg.Logger.With("url", snap.URL)
	date := a.cfg.Now().Local().Format(DateLayout)

	descs, failures, err := a.cfg.Resolver.ResolveAll(snap.HTML, snap.URL)
	if err != nil {
		return nil, fmt.Errorf("resolving images: %w", err)
	}
	for _, f := range failures {
		log.Warn("assemble: image reference dropped", "source", f.Source, "error", f.Err)
	}
	log.Debug("assemble: images resolved", "descriptors", len(descs), "dropped", len(failures))

	var (
		markdown      string
		assets        []core.Asset
		fetchFailures []core.FetchFailure
	)

	// No shared context: a failed conversion does not cancel fetches,
	// they are joined and discarded.
	var g errgroup.Group
	g.Go(func() error {
		md, err := a.cfg.Converter.Convert(ctx, snap.HTML)
		if err != nil {
			if errors.Is(err, core.ErrConversion) {
				return err
			}
			return core.Errorf(core.ErrConversion, err, "converting markup")
		}
		markdown = md
		return nil
	})
	g.Go(func() error {
		assets, fetchFailures = a.cfg.Fetcher.FetchAll(ctx, descs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failures = append(failures, fetchFailures...)
	meta := core.Metadata{
		URL:       snap.URL,
		Title:     snap.Title,
		Date:      date,
		NbMdWords: CountWords(markdown),
		NbImages:  len(assets),
	}
	log.Info("assemble: bundle ready",
		"words", meta.NbMdWords, "images", meta.NbImages, "failed_images", len(failures))

	return &core.Bundle{
		URL:      snap.URL,
		Title:    snap.Title,
		Date:     date,
		HTML:     snap.HTML,
		Markdown: markdown,
		Assets:   assets,
		Metadata: meta,
		Failures: failures,
	}, nil
}

// CountWords counts whitespace-delimited tokens.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
