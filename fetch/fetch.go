// Package fetch issues single rate-limited page requests and returns parsed
// documents. It never retries; callers decide whether to abort or continue.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/vrclife/catalogd/config"
)

// Fetcher performs polite single-shot GETs against the target site. The
// limiter enforces the minimum inter-request interval on the failure path,
// where no post-fetch pause happens.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	ua      string
	delay   time.Duration
	jitter  time.Duration
}

// New builds a fetcher from cfg.
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.Delay), 1),
		ua:      cfg.UserAgent,
		delay:   cfg.Delay,
		jitter:  cfg.RandomDelay,
	}
}

// WithTransport swaps the underlying transport. Used by tests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.client.Transport = rt
}

// Fetch retrieves one URL and returns the parsed document. A non-2xx
// response or transport error yields a typed fetch error; the mandatory
// pause runs after every successful fetch.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", rawURL, err)
	}

	f.pause(ctx)
	return doc, nil
}

// Get retrieves one URL as raw bytes. Used for CSV exports, which are not
// HTML documents but follow the same politeness contract.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", rawURL, err)
	}

	f.pause(ctx)
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.7,en;q=0.3")

	slog.Debug("fetching", slog.String("url", rawURL))
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, Classify(err, 0)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, Classify(nil, resp.StatusCode)
	}
	return resp.Body, nil
}

// pause sleeps for the configured delay plus uniform jitter, honoring
// cancellation. Runs only after successful fetches.
func (f *Fetcher) pause(ctx context.Context) {
	wait := f.delay
	if f.jitter > 0 {
		wait += time.Duration(rand.Int64N(int64(f.jitter)))
	}
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
