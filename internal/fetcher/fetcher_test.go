package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><head><title>t</title>
<style>body { color: red; }</style>
<script>alert("nope");</script></head>
<body><nav>menu</nav>
<h1>Moby Dick</h1>
<p>Call me Ishmael. Some years ago &amp; never mind how long precisely.</p>
<footer>copyright</footer></body></html>`

func TestStripHTML(t *testing.T) {
	text := StripHTML(samplePage)
	assert.Contains(t, text, "Call me Ishmael")
	assert.Contains(t, text, "Some years ago & never mind")
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "copyright")
}

func TestStripHTMLEntities(t *testing.T) {
	text := StripHTML(`<p>&quot;Aye&quot; &lt;said&gt; the captain&#39;s mate&nbsp;loudly</p>`)
	assert.Equal(t, `"Aye" <said> the captain's mate loudly`, text)
}

func TestFetchSourceSavesStrippedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "books", "moby.txt")
	f := New(5*time.Second, 10, 0)
	url, err := f.FetchSource(context.Background(), Source{
		Name:       "moby",
		URLs:       []string{srv.URL},
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, srv.URL, url)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Call me Ishmael")
	assert.NotContains(t, string(data), "<p>")
}

func TestFetchSourceFallsBackToNextURL(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer good.Close()

	out := filepath.Join(t.TempDir(), "bill.txt")
	f := New(5*time.Second, 10, 0)
	url, err := f.FetchSource(context.Background(), Source{
		Name:       "bill",
		URLs:       []string{bad.URL, good.URL},
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, good.URL, url)
}

func TestFetchSourceRejectsShortContent(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>nope</body></html>"))
	}))
	defer stub.Close()

	f := New(5*time.Second, 100, 0)
	_, err := f.FetchSource(context.Background(), Source{
		Name:       "stub",
		URLs:       []string{stub.URL},
		OutputPath: filepath.Join(t.TempDir(), "stub.txt"),
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "too short"))
}

func TestFetchSourceNoURLs(t *testing.T) {
	f := New(time.Second, 10, 0)
	_, err := f.FetchSource(context.Background(), Source{Name: "none"})
	require.Error(t, err)
}
