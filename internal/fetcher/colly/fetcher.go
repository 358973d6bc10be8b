// Package collyfetcher implements content.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/metrics"
	"github.com/JakeFAU/cityhall/internal/policy/ratelimit"
)

const defaultTimeout = 10 * time.Second

// Config controls collector behavior.
type Config struct {
	BaseURL           string
	Source            content.SourceMode
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
}

// Fetcher implements content.Fetcher against the CMS content API.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	limiter       *ratelimit.Limiter
	retry         *ExponentialRetryPolicy
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("collyfetcher: base url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	// The same feed URLs are requested on every sync.
	c.AllowURLRevisit = true
	// Non-2xx bodies are surfaced as TransportError instead of colly errors.
	c.ParseHTTPErrorResponse = true

	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	// Clones share the backend client, so transport and timeout are set once here.
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		limiter:       ratelimit.New(ratelimit.Config{DefaultRPS: cfg.RequestsPerSecond, DefaultBurst: cfg.Burst}),
		retry:         NewExponentialRetryPolicy(cfg.MaxRetries + 1),
		logger:        logger.Named("fetcher"),
	}, nil
}

// URL returns the absolute request URL for a content API path. The JSON
// format parameter is always added; staging additionally asks for the latest
// revision so upstream caches are bypassed.
func (f *Fetcher) URL(path string) string {
	base := strings.TrimRight(f.cfg.BaseURL, "/")
	path = "/" + strings.TrimLeft(path, "/")
	param := "_format=json"
	if f.cfg.Source == content.SourceStaging {
		param += "&latest"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return base + path + sep + param
}

// Fetch retrieves path from the content API. Failures, including non-200
// statuses, are returned as *content.TransportError.
func (f *Fetcher) Fetch(ctx context.Context, path string) (content.Response, error) {
	target := f.URL(path)
	for attempt := 0; ; attempt++ {
		if err := f.limiter.Wait(ctx, target); err != nil {
			return content.Response{}, &content.TransportError{Path: path, Err: err}
		}
		resp, err := f.fetchOnce(ctx, path, target)
		if err == nil {
			return resp, nil
		}
		if !f.retry.ShouldRetry(err, attempt+1) {
			return resp, err
		}
		wait := f.retry.Backoff(attempt)
		f.logger.Debug("retrying upstream request",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return content.Response{}, &content.TransportError{Path: path, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, path, target string) (content.Response, error) {
	var (
		result   content.Response
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(ctx)
	f.configureCollectorHooks(collector, path, start, &result, &fetchErr)

	f.logger.Debug("requesting uri", zap.String("url", target))
	if err := f.runCollector(ctx, collector, target, &fetchErr); err != nil {
		if ctx.Err() != nil {
			metrics.ObserveUpstream(0)
			return content.Response{}, &content.TransportError{Path: path, Err: err}
		}
		metrics.ObserveUpstream(result.StatusCode)
		return result, &content.TransportError{Path: path, StatusCode: result.StatusCode, Err: err}
	}
	metrics.ObserveUpstream(result.StatusCode)
	if result.StatusCode != http.StatusOK {
		return result, &content.TransportError{Path: path, StatusCode: result.StatusCode}
	}
	return result, nil
}

func (f *Fetcher) buildCollector(ctx context.Context) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.AllowURLRevisit = true
	collector.ParseHTTPErrorResponse = true
	collector.Context = ctx
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	path string,
	start time.Time,
	result *content.Response,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})

	hooks.OnResponse(func(r *colly.Response) {
		*result = content.Response{
			Path:       path,
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		// The hooks write through result until Visit returns.
		<-done
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
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
