package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PrefersMain(t *testing.T) {
	html := `<html><body>
<nav><a href="/">Home</a></nav>
<main><h1>Title</h1><p>Body text</p><img src="a.png"><script>track()</script></main>
<footer>Copyright</footer>
</body></html>`

	out, err := New().Extract(html)
	require.NoError(t, err)
	assert.Contains(t, out, "<main>")
	assert.Contains(t, out, "Body text")
	assert.Contains(t, out, `<img src="a.png"/>`)
	assert.NotContains(t, out, "Home")
	assert.NotContains(t, out, "Copyright")
	assert.NotContains(t, out, "track()")
}

func TestExtract_FallsBackToBody(t *testing.T) {
	out, err := New().Extract(`<div class="sidebar">links</div><p>Only paragraph</p>`)
	require.NoError(t, err)
	assert.Contains(t, out, "<body>")
	assert.Contains(t, out, "Only paragraph")
	assert.NotContains(t, out, "links")
}
