// Package fetch retrieves raw HTML through the scraping proxy.
//
// Every request goes out via the proxy service (the target URL is passed
// as a query parameter), which handles rendering and IP rotation. The
// only retry loop in the system lives here: rate-limit-class responses
// (429 and the proxy's 403) are retried a bounded number of times with a
// fixed backoff. Everything else fails immediately.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/isaacgw/parkrun-sync/internal/config"
	"github.com/isaacgw/parkrun-sync/internal/metrics"
)

// Fetcher performs single-page GETs via a Colly collector.
type Fetcher struct {
	cfg     config.ScraperConfig
	base    *colly.Collector
	logger  *zap.Logger
	backoff time.Duration
}

// New builds a Fetcher from the scraper configuration.
func New(cfg config.ScraperConfig, logger *zap.Logger) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:     cfg,
		base:    c,
		logger:  logger,
		backoff: time.Duration(cfg.BackoffSeconds) * time.Second,
	}
}

// Fetch retrieves the page at pageURL, returning the response body.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	target, err := f.proxyURL(pageURL)
	if err != nil {
		return nil, err
	}

	attempts := f.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metrics.ObserveFetchRetry()
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
			case <-time.After(f.backoff):
			}
		}

		body, status, err := f.visit(ctx, target)
		if err == nil {
			metrics.ObservePageFetch(pageURL, status)
			return body, nil
		}
		lastErr = err

		if !rateLimited(status) {
			metrics.ObservePageFetch(pageURL, status)
			return nil, err
		}
		f.logger.Warn("Rate limited, backing off",
			zap.String("url", pageURL),
			zap.Int("status", status),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, fmt.Errorf("fetch %s: retries exhausted: %w", pageURL, lastErr)
}

// proxyURL wraps the target page in a proxy request.
func (f *Fetcher) proxyURL(pageURL string) (string, error) {
	base, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse proxy base url: %w", err)
	}
	q := url.Values{}
	q.Set("api_key", f.cfg.APIKey)
	q.Set("url", pageURL)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// visit runs one collector pass and captures body and status.
func (f *Fetcher) visit(ctx context.Context, target string) ([]byte, int, error) {
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := time.Duration(f.cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 70 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return nil, status, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, status, fmt.Errorf("visit failed (status %d): %w", status, err)
		}
		if fetchErr != nil {
			return nil, status, fmt.Errorf("response failed (status %d): %w", status, fetchErr)
		}
		return body, status, nil
	}
}

// rateLimited reports whether the status deserves a retry. The proxy
// answers 403 when its own quota is exhausted, so it is treated the same
// as 429.
func rateLimited(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusForbidden
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
