package normalize

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/gaurav-prasanna/pagecapture/core"
)

const (
	defaultPandocPath = "pandoc"
	pandocOutput      = "gfm-raw_html"
)

// PandocConverter pipes markup through an external pandoc binary and reads
// GitHub-flavoured Markdown (without raw HTML) back.
type PandocConverter struct {
	Path string
}

// NewPandoc creates a PandocConverter. An empty path looks pandoc up in PATH.
func NewPandoc(path string) *PandocConverter {
	if path == "" {
		path = defaultPandocPath
	}
	return &PandocConverter{Path: path}
}

// Convert runs pandoc once for the given markup.
func (p *PandocConverter) Convert(ctx context.Context, html string) (string, error) {
	bin, err := exec.LookPath(p.Path)
	if err != nil {
		return "", core.Errorf(core.ErrConversion, err, "pandoc not found")
	}

	cmd := exec.CommandContext(ctx, bin, "-f", "html", "-t", pandocOutput)
	cmd.Stdin = strings.NewReader(html)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", core.Errorf(core.ErrConversion, err, "pandoc: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (p *PandocConverter) String() string {
	return "pandoc(" + p.Path + ")"
}
