package assemble

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gaurav-prasanna/pagecapture/core"
	"github.com/gaurav-prasanna/pagecapture/core/fetch"
	"github.com/gaurav-prasanna/pagecapture/core/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConverter returns a fixed result after an optional delay and records
// whether it ran concurrently with the fetch phase.
type fakeConverter struct {
	out     string
	err     error
	started chan struct{}
	release chan struct{}
}

func (c *fakeConverter) Convert(ctx context.Context, html string) (string, error) {
	if c.started != nil {
		close(c.started)
	}
	if c.release != nil {
		<-c.release
	}
	return c.out, c.err
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 15, 9, 26, 0, time.Local)
}

func newAssembler(t *testing.T, conv core.Converter, f Fetcher) *Assembler {
	t.Helper()
	a, err := New(Config{
		Resolver:  resolve.New(),
		Fetcher:   f,
		Converter: conv,
		Now:       fixedNow,
	})
	require.NoError(t, err)
	return a
}

func imageServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path == "/fail.png" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("img:" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAssemble_Bundle(t *testing.T) {
	srv := imageServer(t, nil)
	html := `<html><body>
<p>hello</p>
<img src="a.png">
<img src="/fail.png">
<img src="data:image/png;base64,iVBORw0KGgo=">
<img data-srcset="` + srv.URL + `/s.jpg 1x, ` + srv.URL + `/l.jpg 2x">
</body></html>`

	conv := &fakeConverter{out: "# Title\n\nOne two  three\tfour\nfive"}
	a := newAssembler(t, conv, fetch.New(fetch.Config{}))

	b, err := a.Assemble(context.Background(), core.PageSnapshot{
		URL:   srv.URL + "/page/",
		Title: "My Page",
		HTML:  html,
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14", b.Date)
	assert.Equal(t, html, b.HTML)
	assert.Equal(t, conv.out, b.Markdown)
	require.Len(t, b.Assets, 3)
	assert.Len(t, b.Failures, 1)

	assert.Equal(t, core.Metadata{
		URL:       srv.URL + "/page/",
		Title:     "My Page",
		Date:      "2026-03-14",
		NbMdWords: 7,
		NbImages:  3,
	}, b.Metadata)
}

func TestAssemble_ConversionRunsConcurrentlyWithFetches(t *testing.T) {
	// WHAT: Fetches complete while the converter is still blocked.
	// WHY: Conversion must overlap the image phase, not follow it.
	var hits atomic.Int32
	srv := imageServer(t, &hits)

	conv := &fakeConverter{
		out:     "a b",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	a := newAssembler(t, conv, fetch.New(fetch.Config{}))

	done := make(chan error, 1)
	go func() {
		_, err := a.Assemble(context.Background(), core.PageSnapshot{
			URL:  srv.URL + "/",
			HTML: `<img src="x.png"><img src="y.png">`,
		})
		done <- err
	}()

	<-conv.started
	require.Eventually(t, func() bool { return hits.Load() == 2 }, 2*time.Second, 5*time.Millisecond)

	select {
	case <-done:
		t.Fatal("assemble returned before conversion settled")
	default:
	}

	close(conv.release)
	require.NoError(t, <-done)
}

func TestAssemble_ConversionFailureAborts(t *testing.T) {
	var hits atomic.Int32
	srv := imageServer(t, &hits)

	conv := &fakeConverter{err: errors.New("boom")}
	a := newAssembler(t, conv, fetch.New(fetch.Config{}))

	b, err := a.Assemble(context.Background(), core.PageSnapshot{
		URL:  srv.URL + "/",
		HTML: `<img src="x.png">`,
	})
	assert.Nil(t, b)
	assert.ErrorIs(t, err, core.ErrConversion)
	// fetches were still joined before the error surfaced
	assert.Equal(t, int32(1), hits.Load())
}

func TestAssemble_InvalidBase(t *testing.T) {
	a := newAssembler(t, &fakeConverter{}, fetch.New(fetch.Config{}))

	_, err := a.Assemble(context.Background(), core.PageSnapshot{URL: "not-a-url", HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, core.ErrURLParse)
}

func TestAssemble_NoImages(t *testing.T) {
	a := newAssembler(t, &fakeConverter{out: ""}, fetch.New(fetch.Config{}))

	b, err := a.Assemble(context.Background(), core.PageSnapshot{URL: "https://example.org/", HTML: "<p></p>"})
	require.NoError(t, err)
	assert.Empty(t, b.Assets)
	assert.Equal(t, 0, b.Metadata.NbImages)
	assert.Equal(t, 0, b.Metadata.NbMdWords)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{Resolver: resolve.New()})
	assert.Error(t, err)
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords(" \n\t "))
	assert.Equal(t, 3, CountWords("  a b\n\nc "))
	assert.Equal(t, 4, CountWords("# Heading\n- item one"))
}
