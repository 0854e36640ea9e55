// Package render provides optional extra artifacts for a capture bundle.
// The PDF renderer lays out the converted Markdown with gofpdf: headings at
// variable sizes, paragraphs, code blocks and lists, followed by the
// captured raster images.
package render

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/pagecapture/core"
	"github.com/jung-kurt/gofpdf"
)

var (
	numberedItem = regexp.MustCompile(`^\d+\.\s`)
	italicRe     = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	linkRe       = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]+\)`)
)

// imageTypes maps asset extensions to the types gofpdf can embed.
var imageTypes = map[string]string{
	".jpg": "jpg", ".jpeg": "jpg", ".png": "png", ".gif": "gif",
}

// PDFRenderer renders a bundle as a PDF document.
type PDFRenderer struct {
	// SkipImages leaves the captured images out of the document.
	SkipImages bool
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// Render converts the bundle's Markdown (and images) into PDF bytes.
func (r *PDFRenderer) Render(b *core.Bundle) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if b.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, tr(b.Title), "", "L", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("Source: %s (captured %s)", b.URL, b.Date)), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	writeMarkdown(pdf, tr, b.Markdown)

	if !r.SkipImages {
		writeImages(pdf, b.Assets)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeMarkdown(pdf *gofpdf.Fpdf, tr func(string) string, markdown string) {
	inCode := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			pdf.Ln(2)
			continue
		}
		if inCode {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		switch {
		case trimmed == "":
			pdf.Ln(3)
		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			renderHeading(pdf, tr(cleanInline(strings.TrimLeft(trimmed, "# "))), level)
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr("• "+cleanInline(trimmed[2:])), "", "L", false)
		case numberedItem.MatchString(trimmed):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInline(trimmed)), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInline(line)), "", "L", false)
		}
	}
}

// writeImages appends each embeddable asset scaled to the text width.
// Assets gofpdf cannot decode are skipped.
func writeImages(pdf *gofpdf.Fpdf, assets []core.Asset) {
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	maxW := pageW - left - right

	for i, a := range assets {
		tp, ok := imageTypes[strings.ToLower(path.Ext(a.Filename))]
		if !ok {
			continue
		}
		name := fmt.Sprintf("asset-%d-%s", i, a.Filename)
		opts := gofpdf.ImageOptions{ImageType: tp, ReadDpi: true}
		info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(a.Data))
		if !pdf.Ok() || info == nil {
			pdf.ClearError()
			continue
		}

		w, h := info.Width(), info.Height()
		if w <= 0 || h <= 0 {
			continue
		}
		if w > maxW {
			h = h * maxW / w
			w = maxW
		}
		pdf.Ln(4)
		pdf.ImageOptions(name, left, 0, w, h, true, opts, 0, "")
	}
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}

// cleanInline strips inline Markdown formatting. Image and link syntax keep
// only their text.
func cleanInline(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = italicRe.ReplaceAllString(text, " $1 ")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
