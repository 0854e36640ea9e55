// Package resolve finds image references in page markup and turns them
// into fetchable descriptors.
package resolve

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/pagecapture/core"
)

// inlinePrefix marks a src attribute carrying the image itself.
const inlinePrefix = "data:image"

// defaultSrcsetAttrs are the candidate-list attributes read on each <img>,
// in priority order. Only the first one present is used.
var defaultSrcsetAttrs = []string{"data-srcset"}

// imageExtensions are the candidate path suffixes accepted from a srcset.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Resolver scans markup for images and resolves each reference.
type Resolver struct {
	srcsetAttrs []string
}

// New creates a Resolver. srcsetAttrs overrides the candidate-list
// attributes; when empty, data-srcset is used.
func New(srcsetAttrs ...string) *Resolver {
	if len(srcsetAttrs) == 0 {
		srcsetAttrs = defaultSrcsetAttrs
	}
	return &Resolver{srcsetAttrs: srcsetAttrs}
}

// Scan returns every image reference in document order. An <img> with both
// a src and a candidate list yields two references.
func (r *Resolver) Scan(html string) ([]core.ImageReference, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var refs []core.ImageReference
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			kind := core.RefURL
			if strings.HasPrefix(src, inlinePrefix) {
				kind = core.RefInline
			}
			refs = append(refs, core.ImageReference{Kind: kind, Raw: src})
		}
		for _, attr := range r.srcsetAttrs {
			if set, ok := s.Attr(attr); ok && set != "" {
				refs = append(refs, core.ImageReference{Kind: core.RefSrcset, Raw: set})
				break
			}
		}
	})
	return refs, nil
}

// Resolve turns one reference into a descriptor.
func (r *Resolver) Resolve(ref core.ImageReference, base *url.URL) (core.Descriptor, error) {
	switch ref.Kind {
	case core.RefInline:
		return core.Descriptor{Kind: core.DescInline, Inline: ref.Raw}, nil
	case core.RefURL:
		u, err := join(base, ref.Raw)
		if err != nil {
			return core.Descriptor{}, err
		}
		return core.Descriptor{Kind: core.DescRemote, URL: u}, nil
	case core.RefSrcset:
		candidate, err := LastImageCandidate(ref.Raw)
		if err != nil {
			return core.Descriptor{}, err
		}
		u, err := join(base, candidate)
		if err != nil {
			return core.Descriptor{}, err
		}
		return core.Descriptor{Kind: core.DescRemote, URL: u}, nil
	default:
		return core.Descriptor{}, fmt.Errorf("unknown reference kind %d", ref.Kind)
	}
}

// ResolveAll scans html and resolves every reference against rawBase.
// An invalid base aborts with ErrURLParse; a reference that cannot be
// resolved is reported as a failure and skipped.
func (r *Resolver) ResolveAll(html, rawBase string) ([]core.Descriptor, []core.FetchFailure, error) {
	base, err := ParseBase(rawBase)
	if err != nil {
		return nil, nil, err
	}

	refs, err := r.Scan(html)
	if err != nil {
		return nil, nil, err
	}

	descs := make([]core.Descriptor, 0, len(refs))
	var failures []core.FetchFailure
	for _, ref := range refs {
		d, err := r.Resolve(ref, base)
		if err != nil {
			failures = append(failures, core.FetchFailure{Source: ref.Raw, Err: err})
			continue
		}
		descs = append(descs, d)
	}
	return descs, failures, nil
}

// ParseBase parses the page address used to resolve relative references.
// The address must be absolute; http and https addresses also need a host,
// while file:///... is accepted as is.
func ParseBase(rawBase string) (*url.URL, error) {
	base, err := url.Parse(rawBase)
	if err != nil {
		return nil, core.Errorf(core.ErrURLParse, err, "parsing base URL %q", rawBase)
	}
	if !base.IsAbs() {
		return nil, core.Errorf(core.ErrURLParse, nil, "base URL %q is not absolute", rawBase)
	}
	switch strings.ToLower(base.Scheme) {
	case "http", "https":
		if base.Host == "" {
			return nil, core.Errorf(core.ErrURLParse, nil, "base URL %q has no host", rawBase)
		}
	}
	return base, nil
}

// LastImageCandidate picks the last candidate of a srcset whose path ends
// in a raster image extension. Candidate lists are usually written in
// ascending size, so the last match is taken as the largest; this is a
// heuristic, nothing in the attribute guarantees the ordering.
func LastImageCandidate(srcset string) (string, error) {
	var last string
	for _, entry := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(entry))
		if len(fields) == 0 {
			continue
		}
		if hasImageExtension(fields[0]) {
			last = fields[0]
		}
	}
	if last == "" {
		return "", core.Errorf(core.ErrSrcsetFormat, nil, "no image candidate in %q", srcset)
	}
	return last, nil
}

func hasImageExtension(candidate string) bool {
	p := candidate
	if u, err := url.Parse(cleanReference(candidate)); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// join resolves ref against base with RFC 3986 semantics.
func join(base *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(cleanReference(ref))
	if err != nil {
		return nil, core.Errorf(core.ErrURLParse, err, "parsing image URL %q", ref)
	}
	resolved := base.ResolveReference(u)
	if !resolved.IsAbs() {
		return nil, core.Errorf(core.ErrURLParse, nil, "resolved URL %q is not absolute", resolved)
	}
	return resolved, nil
}

// cleanReference does the input cleanup browsers apply before parsing a
// URL and net/url does not. Tab and newline characters are dropped; a '%'
// that does not start an escape sequence is escaped itself.
func cleanReference(ref string) string {
	ref = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return -1
		}
		return r
	}, strings.TrimSpace(ref))
	if !strings.Contains(ref, "%") {
		return ref
	}

	var b strings.Builder
	b.Grow(len(ref) + 4)
	for i := 0; i < len(ref); i++ {
		if ref[i] == '%' && (i+2 >= len(ref) || !isHex(ref[i+1]) || !isHex(ref[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(ref[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}
