package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/gaurav-prasanna/pagecapture/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPDFRenderer_Render(t *testing.T) {
	b := &core.Bundle{
		URL:   "https://example.org/café",
		Title: "Café notes",
		Date:  "2026-10-18",
		Markdown: "# Heading\n\nSome **bold** and `code` with a [link](https://x.org).\n\n" +
			"- item\n1. first\n\n```\nfmt.Println(1)\n```\n",
		Assets: []core.Asset{
			{Filename: "dot.png", Data: tinyPNG(t)},
			{Filename: "broken.png", Data: []byte("not a png")},
			{Filename: "vector.svg", Data: []byte("<svg/>")},
		},
	}

	data, err := NewPDFRenderer().Render(b)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDFRenderer_Extension(t *testing.T) {
	assert.Equal(t, ".pdf", NewPDFRenderer().Extension())
}

func TestCleanInline(t *testing.T) {
	assert.Equal(t, "bold and code", cleanInline("**bold** and `code`"))
	assert.Equal(t, "see docs", cleanInline("see [docs](https://x.org)"))
	assert.Equal(t, "alt", cleanInline("![alt](a.png)"))
}
