// Package browser implements core.PageLoader on top of a headless Chrome
// driven through Rod. It only navigates and snapshots; everything after the
// snapshot is browser-independent.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gaurav-prasanna/pagecapture/core"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const defaultNavigationTimeout = 60 * time.Second

// Config configures the loader.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an existing Chrome.
	// Empty = launch a local headless Chrome.
	RemoteURL string
	// Stealth opens pages with go-rod/stealth evasions applied.
	Stealth bool
	// NavigationTimeout bounds navigation plus load. Default: 60s.
	NavigationTimeout time.Duration
	Logger            *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = defaultNavigationTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Loader opens one tab per Load call on a lazily started browser.
type Loader struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// New creates a Loader. Chrome is started on the first Load.
func New(cfg Config) *Loader {
	cfg.defaults()
	return &Loader{cfg: cfg}
}

// Load navigates to pageURL, waits for the load event and returns the
// final URL, title and serialized DOM.
func (l *Loader) Load(ctx context.Context, pageURL string) (core.PageSnapshot, error) {
	b, err := l.connect()
	if err != nil {
		return core.PageSnapshot{}, err
	}

	var page *rod.Page
	if l.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return core.PageSnapshot{}, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, l.cfg.NavigationTimeout)
	defer cancel()
	page = page.Context(navCtx)

	if err := page.Navigate(pageURL); err != nil {
		return core.PageSnapshot{}, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return core.PageSnapshot{}, fmt.Errorf("browser: wait load %s: %w", pageURL, err)
	}

	info, err := page.Info()
	if err != nil {
		return core.PageSnapshot{}, fmt.Errorf("browser: page info: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return core.PageSnapshot{}, fmt.Errorf("browser: get DOM: %w", err)
	}

	l.cfg.Logger.Debug("browser: page loaded", "url", info.URL, "title", info.Title, "bytes", len(html))
	return core.PageSnapshot{URL: info.URL, Title: info.Title, HTML: html}, nil
}

// Close shuts the browser down (and the local Chrome process, if launched).
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if l.browser != nil {
		err = l.browser.Close()
		l.browser = nil
	}
	if l.lnch != nil {
		l.lnch.Cleanup()
		l.lnch = nil
	}
	return err
}

func (l *Loader) connect() (*rod.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser != nil {
		return l.browser, nil
	}

	wsURL := l.cfg.RemoteURL
	if wsURL == "" {
		lnch := launcher.New().Headless(true).Set("disable-blink-features", "AutomationControlled")
		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		l.lnch = lnch
		l.cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	} else {
		l.cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	l.browser = b
	return b, nil
}

var _ core.PageLoader = (*Loader)(nil)
