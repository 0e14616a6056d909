// Package whois implements the domain registration collector. It queries
// RDAP (Registration Data Access Protocol) servers for the registrable
// domain and derives the domain age, registrar and privacy status.
package whois

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/cache"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/httpclient"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
)

// Auto-registro del colector al importar el package
func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "Domain registration age and registrar via RDAP",
		Stage:       0,
		Priority:    8,
	})
}

const (
	collectorName = "whois"

	// RDAP bootstrap service for TLDs without a direct server
	rdapBootstrapURL = "https://rdap.org/domain/"

	// Cache TTL for RDAP responses (24 hours)
	cacheTTL = 24 * time.Hour
)

// rdapServers are queried directly, skipping the bootstrap redirect.
var rdapServers = map[string]string{
	"com": "https://rdap.verisign.com/com/v1/domain/",
	"net": "https://rdap.verisign.com/net/v1/domain/",
	"org": "https://rdap.publicinterestregistry.org/rdap/domain/",
	"io":  "https://rdap.nic.io/domain/",
}

// Collector implements ports.Collector for RDAP queries.
type Collector struct {
	client      *httpclient.Client
	cache       *cache.MemoryCache[*domain.WhoisData]
	servers     map[string]string
	bootstrap   string
	now         func() time.Time
	logger      logx.Logger
	stopCleanup func()
}

// rdapResponse is the subset of an RDAP domain object we read.
type rdapResponse struct {
	LDHName  string       `json:"ldhName"`
	Status   []string     `json:"status"`
	Entities []rdapEntity `json:"entities"`
	Events   []rdapEvent  `json:"events"`
	Port43   string       `json:"port43"`
}

type rdapEntity struct {
	Roles      []string      `json:"roles"`
	VCardArray []interface{} `json:"vcardArray"`
	Entities   []rdapEntity  `json:"entities"`
}

type rdapEvent struct {
	EventAction string `json:"eventAction"`
	EventDate   string `json:"eventDate"`
}

// factory builds the collector. Custom "base_url" replaces every RDAP
// endpoint (used by tests and private mirrors).
func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	c := New(httpclient.Config{
		Service:    collectorName,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.Retries,
		RateLimit:  float64(cfg.RateLimit),
		UserAgent:  httpclient.DefaultUserAgent + " RDAP Client",
	}, logger)

	if base := registry.GetStringConfig(cfg.Custom, "base_url", ""); base != "" {
		c.servers = map[string]string{}
		c.bootstrap = strings.TrimSuffix(base, "/") + "/"
	}
	return c, nil
}

// New creates a new RDAP collector.
func New(httpConfig httpclient.Config, logger logx.Logger) *Collector {
	if httpConfig.Timeout <= 0 {
		httpConfig.Timeout = 10 * time.Second
	}

	c := &Collector{
		client:    httpclient.New(httpConfig, logger),
		cache:     cache.New[*domain.WhoisData](1000),
		servers:   rdapServers,
		bootstrap: rdapBootstrapURL,
		now:       time.Now,
		logger:    logger.With("source", collectorName),
	}

	c.stopCleanup = c.cache.StartCleanupWorker(1 * time.Hour)
	return c
}

// Name implements ports.Collector.
func (c *Collector) Name() string { return collectorName }

// Stage implements ports.Collector.
func (c *Collector) Stage() int { return 0 }

// Collect implements ports.Collector.
func (c *Collector) Collect(ctx context.Context, target domain.Target, _ *domain.CheckResults) (domain.Evidence, error) {
	domainName := c.extractBaseDomain(target.Domain)
	if domainName == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "could not extract domain name")
	}

	cacheKey := "rdap:" + domainName
	if cached, ok := c.cache.Get(cacheKey); ok {
		c.logger.Debug("RDAP response found in cache", "domain", domainName)
		return c.withAge(cached), nil
	}

	data, err := c.queryRDAP(ctx, domainName)
	if err != nil {
		c.logger.Warn("RDAP query failed", "domain", domainName, "error", err.Error())
		return nil, errors.Wrapf(err, "RDAP query failed for %s", domainName)
	}

	whois := c.toWhoisData(data)
	c.cache.Set(cacheKey, whois, cacheTTL)

	c.logger.Debug("RDAP query completed", "domain", domainName, "registrar", whois.Registrar)
	return c.withAge(whois), nil
}

// queryRDAP asks the TLD's server first and falls back to the bootstrap
// service when there is none or it fails.
func (c *Collector) queryRDAP(ctx context.Context, domainName string) (*rdapResponse, error) {
	headers := map[string]string{"Accept": "application/rdap+json, application/json"}

	tld := domainName[strings.LastIndex(domainName, ".")+1:]
	if server, ok := c.servers[tld]; ok {
		var resp rdapResponse
		err := c.client.GetJSON(ctx, server+domainName, headers, &resp)
		if err == nil {
			return &resp, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		c.logger.Debug("direct RDAP server failed, using bootstrap", "tld", tld, "error", err.Error())
	}

	var resp rdapResponse
	if err := c.client.GetJSON(ctx, c.bootstrap+domainName, headers, &resp); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrapf(err, "domain not found in RDAP: %s", domainName)
		}
		if errors.IsRateLimit(err) {
			return nil, errors.Wrap(err, "RDAP rate limit exceeded")
		}
		return nil, err
	}
	return &resp, nil
}

// toWhoisData maps the RDAP object. DomainAge is filled per request by
// withAge so cached entries keep ageing.
func (c *Collector) toWhoisData(data *rdapResponse) *domain.WhoisData {
	w := &domain.WhoisData{PrivacyProtected: true}

	for _, event := range data.Events {
		switch strings.ToLower(event.EventAction) {
		case "registration":
			w.CreatedDate = event.EventDate
		case "expiration":
			w.ExpiryDate = event.EventDate
		}
	}

	for _, entity := range data.Entities {
		if hasRole(entity.Roles, "registrar") {
			w.Registrar = extractVCardField(entity.VCardArray, "fn")
		}
		if hasRole(entity.Roles, "registrant") {
			org := extractVCardField(entity.VCardArray, "org")
			if org == "" {
				org = extractVCardField(entity.VCardArray, "fn")
			}
			w.PrivacyProtected = org == "" || isRedacted(org)
		}
	}
	if w.Registrar == "" {
		w.Registrar = data.Port43
	}

	return w
}

func (c *Collector) withAge(cached *domain.WhoisData) *domain.WhoisData {
	w := *cached
	w.DomainAge = nil
	if w.CreatedDate == "" {
		return &w
	}
	created, err := time.Parse(time.RFC3339, w.CreatedDate)
	if err != nil {
		c.logger.Debug("unparsable registration date", "date", w.CreatedDate)
		return &w
	}
	w.DomainAge = domain.IntPtr(int(c.now().Sub(created).Hours() / 24))
	return &w
}

// Close implements ports.Collector.
func (c *Collector) Close() error {
	if c.stopCleanup != nil {
		c.stopCleanup()
	}
	return nil
}

// extractBaseDomain extracts the registrable domain (eTLD+1), handling
// multi-label suffixes like .co.uk with the Public Suffix List.
func (c *Collector) extractBaseDomain(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(host)), ".")
	if host == "" {
		return ""
	}

	eTLDPlusOne, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		c.logger.Debug("failed to extract eTLD+1, using host", "host", host, "error", err.Error())
		return host
	}
	return eTLDPlusOne
}

// extractVCardField reads a field from a jCard array:
// ["vcard", [["version", {}, "text", "4.0"], ["fn", {}, "text", "Name"], ...]]
func extractVCardField(vcardArray []interface{}, fieldName string) string {
	if len(vcardArray) < 2 {
		return ""
	}
	vcard, ok := vcardArray[1].([]interface{})
	if !ok {
		return ""
	}

	for _, item := range vcard {
		field, ok := item.([]interface{})
		if !ok || len(field) < 4 {
			continue
		}
		name, ok := field[0].(string)
		if !ok || !strings.EqualFold(name, fieldName) {
			continue
		}
		switch v := field[3].(type) {
		case string:
			return v
		case []interface{}:
			if len(v) > 0 {
				return fmt.Sprint(v[0])
			}
		}
	}
	return ""
}

func isRedacted(value string) bool {
	lower := strings.ToLower(value)
	return strings.Contains(lower, "redacted") || strings.Contains(lower, "privacy") || strings.Contains(lower, "proxy")
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
