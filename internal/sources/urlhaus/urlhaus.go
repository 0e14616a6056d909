// Package urlhaus checks the target URL against the abuse.ch URLhaus
// malware URL database. Verdicts are cached through ports.ThreatCache
// when one is injected under the "threat_cache" custom key.
package urlhaus

import (
	"context"
	"net/url"
	"time"

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
		Description: "URLhaus malware URL database (abuse.ch)",
		Stage:       0,
		Priority:    7,
	})
}

const (
	collectorName  = "urlhaus"
	defaultBaseURL = "https://urlhaus-api.abuse.ch/v1/url/"
	defaultThreat  = "malware"
)

// response is the URLhaus url lookup payload.
type response struct {
	QueryStatus string `json:"query_status"`
	URLInfo     struct {
		URLStatus string   `json:"url_status"`
		Threat    string   `json:"threat"`
		Tags      []string `json:"tags"`
	} `json:"url_info"`
	Threat string   `json:"threat"`
	Tags   []string `json:"tags"`
}

// Collector implements ports.Collector.
type Collector struct {
	client  *httpclient.Client
	baseURL string
	cache   ports.ThreatCache
	logger  logx.Logger
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	c := New(httpclient.Config{
		Service:    collectorName,
		Timeout:    timeout,
		MaxRetries: cfg.Retries,
		RateLimit:  float64(cfg.RateLimit),
	}, logger)

	c.baseURL = registry.GetStringConfig(cfg.Custom, "base_url", defaultBaseURL)
	if tc, ok := registry.GetValue[ports.ThreatCache](cfg.Custom, "threat_cache"); ok {
		c.cache = tc
	}
	return c, nil
}

// New creates the collector without a cache.
func New(httpConfig httpclient.Config, logger logx.Logger) *Collector {
	return &Collector{
		client:  httpclient.New(httpConfig, logger),
		baseURL: defaultBaseURL,
		logger:  logger.With("source", collectorName),
	}
}

// WithCache sets the verdict cache.
func (c *Collector) WithCache(cache ports.ThreatCache) *Collector {
	c.cache = cache
	return c
}

// Name implements ports.Collector.
func (c *Collector) Name() string { return collectorName }

// Stage implements ports.Collector.
func (c *Collector) Stage() int { return 0 }

// Collect implements ports.Collector.
func (c *Collector) Collect(ctx context.Context, target domain.Target, _ *domain.CheckResults) (domain.Evidence, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, target.Normalized); ok {
			c.logger.Debug("threat cache hit", "url", target.Normalized)
			return cloneThreat(cached), nil
		}
	}

	data, err := c.lookup(ctx, target.String())
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(ctx, target.Normalized, cloneThreat(data))
	}
	return data, nil
}

func (c *Collector) lookup(ctx context.Context, rawURL string) (*domain.ThreatData, error) {
	resp, err := c.client.PostForm(ctx, c.baseURL, url.Values{"url": {rawURL}}, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, errors.Wrap(err, "URLhaus lookup failed")
	}

	var r response
	if err := c.client.DecodeJSON(resp, &r); err != nil {
		return nil, errors.Wrap(err, "URLhaus lookup failed")
	}

	data := &domain.ThreatData{Tags: []string{}}
	switch r.QueryStatus {
	case "ok":
		data.IsMalicious = true
		data.Threat = firstNonEmpty(r.URLInfo.Threat, r.Threat, defaultThreat)
		if tags := append(r.URLInfo.Tags, r.Tags...); len(tags) > 0 {
			data.Tags = tags
		}
	case "no_results", "invalid_url":
	default:
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "URLhaus query_status %q", r.QueryStatus)
	}

	c.logger.Debug("URLhaus verdict", "url", rawURL, "malicious", data.IsMalicious, "status", r.QueryStatus)
	return data, nil
}

// Close implements ports.Collector.
func (c *Collector) Close() error { return nil }

func cloneThreat(t *domain.ThreatData) *domain.ThreatData {
	out := *t
	out.Tags = append([]string{}, t.Tags...)
	return &out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
