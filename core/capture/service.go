// Package capture ties the stages together: load (optional), assemble,
// write.
package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gaurav-prasanna/pagecapture/core"
	"github.com/gaurav-prasanna/pagecapture/core/output"
	"github.com/google/uuid"
)

// Assembler builds a bundle from a snapshot.
type Assembler interface {
	Assemble(ctx context.Context, snap core.PageSnapshot) (*core.Bundle, error)
}

// BundleWriter persists a bundle into a new directory.
type BundleWriter interface {
	WriteBundle(ctx context.Context, b *core.Bundle, dir string) error
}

// Result describes a finished capture.
type Result struct {
	ID     string
	Dir    string
	Bundle *core.Bundle
}

// Service runs captures.
type Service struct {
	loader    core.PageLoader
	assembler Assembler
	writer    BundleWriter
	logger    *slog.Logger
}

// New creates a Service. loader may be nil when only snapshots are captured.
func New(loader core.PageLoader, assembler Assembler, writer BundleWriter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{loader: loader, assembler: assembler, writer: writer, logger: logger}
}

// CaptureURL loads pageURL through the page loader and captures it.
func (s *Service) CaptureURL(ctx context.Context, pageURL, dir string) (*Result, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("capture: no page loader configured")
	}
	snap, err := s.loader.Load(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}
	return s.Capture(ctx, snap, dir)
}

// Capture assembles snap and writes it to dir. An empty dir defaults to
// the page title. Either the whole capture succeeds or an error is
// returned; a write error may leave a partial directory behind.
func (s *Service) Capture(ctx context.Context, snap core.PageSnapshot, dir string) (*Result, error) {
	id := uuid.NewString()
	log := s.logger.With("capture_id", id, "url", snap.URL)

	if dir == "" {
		dir = output.DefaultDir(snap.Title)
	}
	log.Info("capture: started", "dir", dir)

	b, err := s.assembler.Assemble(ctx, snap)
	if err != nil {
		log.Error("capture: assemble failed", "error", err)
		return nil, err
	}
	if err := s.writer.WriteBundle(ctx, b, dir); err != nil {
		log.Error("capture: write failed", "error", err)
		return nil, err
	}

	log.Info("capture: done", "dir", dir, "words", b.Metadata.NbMdWords, "images", b.Metadata.NbImages)
	return &Result{ID: id, Dir: dir, Bundle: b}, nil
}
