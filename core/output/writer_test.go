package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/pagecapture/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBundle() *core.Bundle {
	meta := core.Metadata{
		URL:       "https://example.org/post",
		Title:     "A Post",
		Date:      "2026-10-18",
		NbMdWords: 3,
		NbImages:  2,
	}
	return &core.Bundle{
		URL:      meta.URL,
		Title:    meta.Title,
		Date:     meta.Date,
		HTML:     "<html><body><p>one two three</p></body></html>",
		Markdown: "one two three",
		Assets: []core.Asset{
			{Filename: "a.png", Data: []byte("A")},
			{Filename: "inline.jpeg", Data: []byte("B")},
		},
		Metadata: meta,
	}
}

type stubRenderer struct {
	ext string
	err error
}

func (r stubRenderer) Render(b *core.Bundle) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("rendered:" + b.Title), nil
}

func (r stubRenderer) Extension() string { return r.ext }

func TestWriteBundle_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := sampleBundle()

	require.NoError(t, New(nil).WriteBundle(context.Background(), b, dir))

	html, err := os.ReadFile(filepath.Join(dir, "A Post.html"))
	require.NoError(t, err)
	assert.Equal(t, b.HTML, string(html))

	md, err := os.ReadFile(filepath.Join(dir, "A Post.md"))
	require.NoError(t, err)
	assert.Equal(t, b.Markdown, string(md))

	img, err := os.ReadFile(filepath.Join(dir, ImagesDir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "A", string(img))
	assert.FileExists(t, filepath.Join(dir, ImagesDir, "inline.jpeg"))
}

func TestWriteBundle_MetadataRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := sampleBundle()
	require.NoError(t, New(nil).WriteBundle(context.Background(), b, dir))

	got, err := ReadMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, b.Metadata, got)

	raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"url": "https://example.org/post",
		"title": "A Post",
		"date": "2026-10-18",
		"nb_md_words": 3,
		"nb_images": 2
	}`, string(raw))
}

func TestWriteBundle_ExistingDirUntouched(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("original"), 0644))

	err := New(nil).WriteBundle(context.Background(), sampleBundle(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPathExists)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(keep)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestWriteBundle_ExistingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := New(nil).WriteBundle(context.Background(), sampleBundle(), file)
	assert.ErrorIs(t, err, core.ErrPathExists)
}

func TestWriteBundle_NoImagesDirWhenNoAssets(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := sampleBundle()
	b.Assets = nil

	require.NoError(t, New(nil).WriteBundle(context.Background(), b, dir))
	assert.NoDirExists(t, filepath.Join(dir, ImagesDir))
}

func TestWriteBundle_CollidingFilenames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := sampleBundle()
	b.Assets = []core.Asset{
		{Filename: "image", Data: []byte("first")},
		{Filename: "image", Data: []byte("second")},
	}

	require.NoError(t, New(nil).WriteBundle(context.Background(), b, dir))
	entries, err := os.ReadDir(filepath.Join(dir, ImagesDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteBundle_Renderers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	w := New(nil, stubRenderer{ext: ".pdf"})
	require.NoError(t, w.WriteBundle(context.Background(), sampleBundle(), dir))

	data, err := os.ReadFile(filepath.Join(dir, "A Post.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "rendered:A Post", string(data))
}

func TestWriteBundle_FailureStillWritesSiblings(t *testing.T) {
	// WHAT: A failing artifact is reported after the other writes landed.
	// WHY: Writes are joined, not short-circuited; there is no rollback.
	dir := filepath.Join(t.TempDir(), "out")

	renderErr := errors.New("renderer down")
	w := New(nil, stubRenderer{ext: ".pdf", err: renderErr})
	err := w.WriteBundle(context.Background(), sampleBundle(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, renderErr)
	assert.NotErrorIs(t, err, core.ErrIO)
	assert.ErrorContains(t, err, "rendering .pdf")

	assert.FileExists(t, filepath.Join(dir, "A Post.html"))
	assert.FileExists(t, filepath.Join(dir, "A Post.md"))
	assert.FileExists(t, filepath.Join(dir, MetadataFile))
	assert.NoFileExists(t, filepath.Join(dir, "A Post.pdf"))
}

func TestCreateDir_ExistingPath(t *testing.T) {
	// WHAT: A directory that shows up after the existence check is still a
	// path-exists error, not an I/O error.
	dir := t.TempDir()

	err := createDir(dir)
	assert.ErrorIs(t, err, core.ErrPathExists)
	assert.NotErrorIs(t, err, core.ErrIO)
}

func TestCreateDir_MissingParent(t *testing.T) {
	err := createDir(filepath.Join(t.TempDir(), "missing", "out"))
	assert.ErrorIs(t, err, core.ErrIO)
	assert.NotErrorIs(t, err, core.ErrPathExists)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Docs_Intro", SafeName("Docs/Intro"))
	assert.Equal(t, "a_b", SafeName(`a\b`))
	assert.Equal(t, "page", SafeName("   "))
	assert.Equal(t, "page", SafeName(".."))
	assert.Equal(t, "Hello, World", SafeName(" Hello, World "))
	assert.Equal(t, "page", DefaultDir(""))
}
