package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a browser")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no local Chrome found")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Fixture</title></head><body><p id="p">static</p>
<script>document.getElementById("p").textContent = "rendered";</script></body></html>`))
	}))
	defer srv.Close()

	l := New(Config{})
	defer l.Close()

	snap, err := l.Load(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "Fixture", snap.Title)
	assert.Equal(t, srv.URL+"/", snap.URL)
	assert.Contains(t, snap.HTML, "rendered")
}
