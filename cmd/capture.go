// Package cmd — capture commands.
// Both commands share the pipeline: resolve → fetch ∥ convert → assemble → write.
// "capture" obtains the page from a headless browser, "capture-file" from a
// saved HTML file.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagecapture/config"
	"github.com/gaurav-prasanna/pagecapture/core"
	"github.com/gaurav-prasanna/pagecapture/core/assemble"
	"github.com/gaurav-prasanna/pagecapture/core/browser"
	"github.com/gaurav-prasanna/pagecapture/core/capture"
	"github.com/gaurav-prasanna/pagecapture/core/fetch"
	"github.com/gaurav-prasanna/pagecapture/core/normalize"
	"github.com/gaurav-prasanna/pagecapture/core/output"
	"github.com/gaurav-prasanna/pagecapture/core/render"
	"github.com/gaurav-prasanna/pagecapture/core/resolve"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

// Flag variables.
var (
	flagPDF         bool
	flagEngine      string
	flagMainOnly    bool
	flagSanitize    bool
	flagConcurrency int
	flagTimeout     time.Duration
	flagRemoteURL   string
	flagStealth     bool
	flagBaseURL     string
	flagTitle       string
)

var captureCmd = &cobra.Command{
	Use:   "capture <url> [output_dir]",
	Short: "Capture a live page through a headless browser",
	Long: `Capture opens the URL in headless Chrome, waits for the page to load and
writes the capture bundle. output_dir must not exist; it defaults to the page title.

Examples:
  pagecapture capture https://example.com
  pagecapture capture https://example.com ./example --pdf
  pagecapture capture https://example.com --engine pandoc --concurrency 4`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCapture,
}

var captureFileCmd = &cobra.Command{
	Use:   "capture-file <page.html> [output_dir]",
	Short: "Capture a saved HTML file",
	Long: `Capture-file reads page markup from disk instead of a browser. Relative
image references are resolved against --base-url.

Examples:
  pagecapture capture-file saved.html --base-url https://example.com/post/
  pagecapture capture-file saved.html --base-url https://example.com/ --title "Post" ./post`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCaptureFile,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(captureFileCmd)

	for _, c := range []*cobra.Command{captureCmd, captureFileCmd} {
		c.Flags().BoolVar(&flagPDF, "pdf", false, "Also render <title>.pdf from the Markdown and images")
		c.Flags().StringVar(&flagEngine, "engine", "", "Markdown converter: builtin or pandoc")
		c.Flags().BoolVar(&flagMainOnly, "main-only", false, "Convert only the main content container")
		c.Flags().BoolVar(&flagSanitize, "sanitize", false, "Sanitize markup before conversion")
		c.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Maximum concurrent image fetches")
		c.Flags().DurationVar(&flagTimeout, "timeout", 0, "Per-image fetch timeout")
	}

	captureCmd.Flags().StringVar(&flagRemoteURL, "remote-url", "", "DevTools WebSocket URL of a running Chrome")
	captureCmd.Flags().BoolVar(&flagStealth, "stealth", false, "Apply stealth evasions to the tab")

	captureFileCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Address the page was saved from (required)")
	captureFileCmd.Flags().StringVar(&flagTitle, "title", "", "Page title (default: the document <title>)")
	_ = captureFileCmd.MarkFlagRequired("base-url")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, logger, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("remote-url") {
		cfg.Browser.RemoteURL = flagRemoteURL
	}
	if cmd.Flags().Changed("stealth") {
		cfg.Browser.Stealth = flagStealth
	}

	loader := browser.New(browser.Config{
		RemoteURL:         cfg.Browser.RemoteURL,
		Stealth:           cfg.Browser.Stealth,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Logger:            logger,
	})
	defer loader.Close()

	svc, err := newService(cfg, loader, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := svc.CaptureURL(ctx, args[0], outputDir(args))
	if err != nil {
		return err
	}
	report(cmd, res)
	return nil
}

func runCaptureFile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	markup := string(data)

	title := flagTitle
	if title == "" {
		title = documentTitle(markup)
	}

	svc, err := newService(cfg, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	snap := core.PageSnapshot{URL: flagBaseURL, Title: title, HTML: markup}
	res, err := svc.Capture(ctx, snap, outputDir(args))
	if err != nil {
		return err
	}
	report(cmd, res)
	return nil
}

// commandConfig loads the file configuration and applies shared flags.
func commandConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("pdf") {
		cfg.Output.PDF = flagPDF
	}
	if flags.Changed("engine") {
		cfg.Convert.Engine = flagEngine
	}
	if flags.Changed("main-only") {
		cfg.Convert.MainContentOnly = flagMainOnly
	}
	if flags.Changed("sanitize") {
		cfg.Convert.Sanitize = flagSanitize
	}
	if flags.Changed("concurrency") {
		cfg.Fetch.MaxConcurrency = flagConcurrency
	}
	if flags.Changed("timeout") {
		cfg.Fetch.Timeout = flagTimeout
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, logger, nil
}

// newService wires the pipeline from the configuration.
func newService(cfg config.Config, loader core.PageLoader, logger *slog.Logger) (*capture.Service, error) {
	var conv core.Converter
	switch cfg.Convert.Engine {
	case config.EnginePandoc:
		conv = normalize.NewPandoc(cfg.Convert.PandocPath)
	default:
		conv = normalize.New(normalize.Options{
			MainContentOnly: cfg.Convert.MainContentOnly,
			Sanitize:        cfg.Convert.Sanitize,
		})
	}
	logger.Debug("converter selected", "engine", conv)

	asm, err := assemble.New(assemble.Config{
		Resolver: resolve.New(cfg.Fetch.SrcsetAttributes...),
		Fetcher: fetch.New(fetch.Config{
			UserAgent:      cfg.Fetch.UserAgent,
			Timeout:        cfg.Fetch.Timeout,
			MaxConcurrency: cfg.Fetch.MaxConcurrency,
			Logger:         logger,
		}),
		Converter: conv,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	var renderers []core.Renderer
	if cfg.Output.PDF {
		renderers = append(renderers, render.NewPDFRenderer())
	}
	return capture.New(loader, asm, output.New(logger, renderers...), logger), nil
}

func outputDir(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}

func report(cmd *cobra.Command, res *capture.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Written: %s\n", res.Dir)
	fmt.Fprintf(out, "  %d words, %d images", res.Bundle.Metadata.NbMdWords, res.Bundle.Metadata.NbImages)
	if n := len(res.Bundle.Failures); n > 0 {
		fmt.Fprintf(out, " (%d images skipped)", n)
	}
	fmt.Fprintln(out)
}

// documentTitle returns the text of the first <title> element.
func documentTitle(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				return strings.TrimSpace(n.FirstChild.Data)
			}
			return ""
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc)
}
