// Package output materializes a capture bundle as a directory:
//
//	<title>.html
//	<title>.md
//	informations.json
//	images/<filename>
//
// plus one <title><ext> per configured renderer.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/pagecapture/core"
	"golang.org/x/sync/errgroup"
)

const (
	// MetadataFile is the summary record written at the bundle root.
	MetadataFile = "informations.json"
	// ImagesDir holds one file per fetched asset.
	ImagesDir = "images"

	defaultName = "page"
	dirPerm     = 0755
	filePerm    = 0644
)

// Writer writes bundles to disk.
type Writer struct {
	renderers []core.Renderer
	logger    *slog.Logger
}

// New creates a Writer. Renderers add artifacts next to the HTML and
// Markdown files.
func New(logger *slog.Logger, renderers ...core.Renderer) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{renderers: renderers, logger: logger}
}

// WriteBundle creates dir and writes every artifact of b into it.
// dir must not exist. All writes are attempted before the first error is
// returned; nothing is rolled back, so a failure may leave a partially
// populated directory. Assets sharing a filename overwrite each other.
func (w *Writer) WriteBundle(ctx context.Context, b *core.Bundle, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Lstat(dir); err == nil {
		return core.Errorf(core.ErrPathExists, nil, "output path %s already exists", dir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return core.Errorf(core.ErrIO, err, "checking output path %s", dir)
	}

	if err := createDir(dir); err != nil {
		return err
	}

	name := SafeName(b.Title)
	log := w.logger.With("dir", dir)

	// errgroup without a context: one failing write does not stop the others.
	var g errgroup.Group
	g.Go(func() error {
		return writeFile(filepath.Join(dir, name+".html"), []byte(b.HTML))
	})
	g.Go(func() error {
		return writeFile(filepath.Join(dir, name+".md"), []byte(b.Markdown))
	})
	g.Go(func() error {
		return writeMetadata(dir, b.Metadata)
	})
	g.Go(func() error {
		return writeImages(filepath.Join(dir, ImagesDir), b.Assets)
	})
	for _, r := range w.renderers {
		g.Go(func() error {
			data, err := r.Render(b)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", r.Extension(), err)
			}
			return writeFile(filepath.Join(dir, name+r.Extension()), data)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("output: bundle incomplete", "error", err)
		return err
	}
	log.Info("output: bundle written", "images", len(b.Assets))
	return nil
}

// createDir creates the bundle root. A path created by someone else since
// the Lstat check still reports ErrPathExists.
func createDir(dir string) error {
	err := os.Mkdir(dir, dirPerm)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return core.Errorf(core.ErrPathExists, err, "output path %s already exists", dir)
	default:
		return core.Errorf(core.ErrIO, err, "creating output directory %s", dir)
	}
}

// writeImages writes every asset concurrently. The directory is only created
// when there is at least one asset. Of several assets with the same
// filename only the last one is written.
func writeImages(dir string, assets []core.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	if err := os.Mkdir(dir, dirPerm); err != nil {
		return core.Errorf(core.ErrIO, err, "creating images directory")
	}

	latest := make(map[string][]byte, len(assets))
	for _, a := range assets {
		latest[a.Filename] = a.Data
	}

	var g errgroup.Group
	for filename, data := range latest {
		g.Go(func() error {
			return writeFile(filepath.Join(dir, filename), data)
		})
	}
	return g.Wait()
}

func writeMetadata(dir string, meta core.Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return core.Errorf(core.ErrIO, err, "encoding %s", MetadataFile)
	}
	return writeFile(filepath.Join(dir, MetadataFile), data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return core.Errorf(core.ErrIO, err, "writing file %s", path)
	}
	return nil
}

// ReadMetadata loads informations.json from a bundle directory.
func ReadMetadata(dir string) (core.Metadata, error) {
	var meta core.Metadata
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return meta, core.Errorf(core.ErrIO, err, "reading %s", MetadataFile)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decoding %s: %w", MetadataFile, err)
	}
	return meta, nil
}

// DefaultDir is the output directory used when none is given: the page
// title, made safe for the filesystem.
func DefaultDir(title string) string {
	return SafeName(title)
}

// SafeName turns a page title into a single path element. Path separators
// and NUL are replaced, surrounding blanks trimmed, and dot-only names
// replaced by "page".
func SafeName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if strings.Trim(name, ".") == "" {
		return defaultName
	}
	return name
}
