package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Source describes one public document and the URLs it can be fetched from.
// URLs are tried in order until one yields usable content.
type Source struct {
	Name       string
	URLs       []string
	OutputPath string
}

// Fetcher downloads HTML documents and saves them as plain text.
type Fetcher struct {
	client        *http.Client
	minContentLen int
	delay         time.Duration
}

// New creates a fetcher. minContentLen rejects pages that returned a stub or
// an error page instead of the document body.
func New(timeout time.Duration, minContentLen int, delay time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if minContentLen <= 0 {
		minContentLen = 100
	}
	return &Fetcher{
		client:        &http.Client{Timeout: timeout},
		minContentLen: minContentLen,
		delay:         delay,
	}
}

// FetchSource tries each URL of the source in order, strips the HTML to plain
// text and writes it to the source's output path. It returns the URL that
// produced the saved content.
func (f *Fetcher) FetchSource(ctx context.Context, src Source) (string, error) {
	if len(src.URLs) == 0 {
		return "", errors.New("source has no urls")
	}
	var lastErr error
	for i, url := range src.URLs {
		if i > 0 && f.delay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.delay):
			}
		}
		text, err := f.fetchURL(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		if len(text) < f.minContentLen {
			lastErr = fmt.Errorf("content from %s too short (%d bytes)", url, len(text))
			continue
		}
		if err := writeFile(src.OutputPath, text); err != nil {
			return "", err
		}
		return url, nil
	}
	return "", fmt.Errorf("all urls failed for %s: %w", src.Name, lastErr)
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	// congress.gov rejects requests without browser-like headers
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: http %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return StripHTML(string(body)), nil
}

func writeFile(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
