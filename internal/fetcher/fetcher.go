// Package fetcher issues single HTTP GETs through a Colly collector with a
// bounded exponential-backoff retry budget. It is the primitive every higher
// crawl layer builds on.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/toonstats/toonstats/internal/metrics"
)

// ErrUnreachable marks a fetch whose whole retry budget was spent. Callers
// treat it as fatal to the run: sustained unreachability means the remaining
// work would fail the same way.
var ErrUnreachable = errors.New("retry budget exhausted")

// Config controls collector and retry behavior.
type Config struct {
	UserAgent string
	// Referer is attached to every request; the target site rejects
	// referer-less scripted requests.
	Referer     string
	Timeout     time.Duration
	MaxRetries  uint
	BackoffBase time.Duration
	HostRPS     float64
	HostBurst   int
}

// Response is a received HTTP response, returned un-interpreted: status
// handling is the caller's concern.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher executes GETs with per-host rate limiting and retry.
type Fetcher struct {
	cfg           Config
	limiter       *hostLimiter
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		limiter:       newHostLimiter(cfg.HostRPS, cfg.HostBurst),
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch GETs a URL. Transient transport failures are retried with delays of
// BackoffBase*2^attempt; once MaxRetries retries fail the error wraps
// ErrUnreachable. Any received response, including non-2xx, is a success.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Response, error) {
	var resp Response
	err := retry.Do(
		func() error {
			var attemptErr error
			resp, attemptErr = f.fetchOnce(ctx, url)
			return attemptErr
		},
		retry.Attempts(f.cfg.MaxRetries+1),
		retry.Delay(f.cfg.BackoffBase),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(attempt uint, err error) {
			metrics.ObserveRetry(url)
			f.logger.Warn("fetch attempt failed, backing off",
				zap.String("url", url),
				zap.Uint("attempt", attempt),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
		return Response{}, fmt.Errorf("fetch %s: %w", url, errors.Join(ErrUnreachable, err))
	}
	return resp, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (Response, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return Response{}, err
	}

	var (
		result   Response
		fetchErr error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.ParseHTTPErrorResponse = true
	collector.SetRequestTimeout(f.cfg.Timeout)
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}

	collector.OnRequest(func(r *colly.Request) {
		if f.cfg.Referer != "" {
			r.Headers.Set("Referer", f.cfg.Referer)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		return Response{}, err
	}

	metrics.ObserveFetch(url, result.StatusCode, result.Duration)
	return result, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("request failed: %w", *fetchErr)
		}
		return nil
	}
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
