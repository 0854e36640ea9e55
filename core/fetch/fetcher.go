// Package fetch implements the AssetFetcher interface.
// Remote images are downloaded with a desktop browser User-Agent; inline
// data URIs are decoded in place.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagecapture/core"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxConcurrency = 8
	// DefaultUserAgent mimics a desktop Chrome; some CDNs refuse unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
)

// Config configures the fetcher.
type Config struct {
	// UserAgent sent with every image request. Default: DefaultUserAgent.
	UserAgent string
	// Timeout bounds a single image request. Default: 30s.
	Timeout time.Duration
	// MaxConcurrency bounds in-flight fetches in FetchAll. Default: 8.
	MaxConcurrency int
	// Client overrides the HTTP client. Timeout is ignored when set.
	Client *http.Client
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: c.Timeout}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// HTTPFetcher fetches remote images and decodes inline ones.
type HTTPFetcher struct {
	client *http.Client
	cfg    Config
}

// New creates an HTTPFetcher.
func New(cfg Config) *HTTPFetcher {
	cfg.defaults()
	return &HTTPFetcher{client: cfg.Client, cfg: cfg}
}

// Fetch obtains the bytes behind one descriptor.
func (f *HTTPFetcher) Fetch(ctx context.Context, d core.Descriptor) (*core.Asset, error) {
	switch d.Kind {
	case core.DescInline:
		return DecodeDataURI(d.Inline)
	case core.DescRemote:
		return f.fetchRemote(ctx, d.URL)
	default:
		return nil, fmt.Errorf("unknown descriptor kind %d", d.Kind)
	}
}

// fetchRemote buffers the whole response body in memory. Very large images
// are held entirely until written.
func (f *HTTPFetcher) fetchRemote(ctx context.Context, u *url.URL) (*core.Asset, error) {
	if u == nil {
		return nil, core.Errorf(core.ErrURLParse, nil, "remote descriptor without URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &core.HTTPStatusError{URL: u.String(), Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.Asset{Filename: FilenameFromURL(u), Data: body}, nil
}

// FilenameFromURL returns the last path segment of u, or "image" when that
// segment is empty (root or trailing slash) or a dot segment.
func FilenameFromURL(u *url.URL) string {
	p := u.EscapedPath()
	seg := p[strings.LastIndex(p, "/")+1:]
	if seg == "" || seg == "." || seg == ".." {
		return "image"
	}
	return seg
}
