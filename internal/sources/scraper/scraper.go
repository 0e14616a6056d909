// Package scraper fetches the target page and summarizes its content:
// policy pages, pricing, documentation, testimonials, outbound links and
// requested permissions. The raw HTML is kept for the pattern collector.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/httpclient"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
)

func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "Page content analysis (policies, testimonials, links, permissions)",
		Stage:       0,
		Priority:    10,
	})
}

const (
	collectorName  = "scraper"
	defaultTimeout = 15 * time.Second
)

var requestHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

// Collector implements ports.Collector.
type Collector struct {
	client *httpclient.Client
	logger logx.Logger
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return New(httpclient.Config{
		Service:    collectorName,
		Timeout:    timeout,
		MaxRetries: cfg.Retries,
		RateLimit:  float64(cfg.RateLimit),
		UserAgent:  registry.GetStringConfig(cfg.Custom, "user_agent", httpclient.BrowserUserAgent),
	}, logger), nil
}

// New creates the collector.
func New(httpConfig httpclient.Config, logger logx.Logger) *Collector {
	if httpConfig.UserAgent == "" {
		httpConfig.UserAgent = httpclient.BrowserUserAgent
	}
	return &Collector{
		client: httpclient.New(httpConfig, logger),
		logger: logger.With("source", collectorName),
	}
}

// Name implements ports.Collector.
func (c *Collector) Name() string { return collectorName }

// Stage implements ports.Collector.
func (c *Collector) Stage() int { return 0 }

// Collect implements ports.Collector.
func (c *Collector) Collect(ctx context.Context, target domain.Target, _ *domain.CheckResults) (domain.Evidence, error) {
	if target.URL == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "target has no URL")
	}

	resp, err := c.client.Get(ctx, target.String(), requestHeaders)
	if err != nil {
		return nil, err
	}
	if err := c.client.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %w", resp.StatusCode, err)
	}

	body, err := c.client.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "parse html: %v", err)
	}

	// Los enlaces relativos se resuelven contra la URL final tras redirecciones
	base := target.URL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	data := extract(doc, base)
	data.HTML = string(body)

	c.logger.Debug("page scraped",
		"url", target.String(),
		"bytes", len(body),
		"limited", data.ScraperLimited,
		"testimonials", len(data.Testimonials),
	)
	return data, nil
}

// Close implements ports.Collector.
func (c *Collector) Close() error { return nil }
