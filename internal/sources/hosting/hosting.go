// Package hosting classifies where a site is hosted: free hosting
// platforms by hostname or CNAME, CDNs by CNAME and cloud providers by
// the address the hostname resolves to.
package hosting

import (
	"context"
	"net/netip"
	"strings"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/core/scoring"
	"trustscan/internal/platform/dnsx"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
)

func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "Hosting provider, free hosting and CDN detection via DNS",
		Stage:       0,
		Priority:    9,
	})
}

const collectorName = "hosting"

// Resolver is the DNS surface the collector needs.
type Resolver interface {
	LookupA(ctx context.Context, name string) ([]string, error)
	LookupCNAME(ctx context.Context, name string) (string, error)
}

type freeHost struct {
	suffix   string
	provider string
}

// freeHosting se evalúa por sufijo contra el hostname y luego contra el CNAME.
var freeHosting = []freeHost{
	{".netlify.app", "Netlify (Free)"},
	{".vercel.app", "Vercel (Free)"},
	{".github.io", "GitHub Pages (Free)"},
	{".gitlab.io", "GitLab Pages (Free)"},
	{".pages.dev", "Cloudflare Pages (Free)"},
	{".herokuapp.com", "Heroku (Free)"},
	{".firebaseapp.com", "Firebase (Free)"},
	{".web.app", "Firebase (Free)"},
	{".surge.sh", "Surge (Free)"},
	{".glitch.me", "Glitch (Free)"},
	{".repl.co", "Replit (Free)"},
	{".wixsite.com", "Wix (Free)"},
	{".weebly.com", "Weebly (Free)"},
	{".squarespace.com", "Squarespace"},
	{".wordpress.com", "WordPress.com (Free)"},
	{".blogspot.com", "Blogger (Free)"},
	{".carrd.co", "Carrd (Free)"},
	{".webflow.io", "Webflow (Free)"},
	{".000webhostapp.com", "000webhost (Free)"},
	{".rf.gd", "FreeHosting (Free)"},
}

var cdnMarkers = []struct {
	marker string
	name   string
}{
	{"cloudflare", "Cloudflare"},
	{"fastly", "Fastly"},
	{"akamai", "Akamai"},
	{"cloudfront", "CloudFront (AWS)"},
	{"incapsula", "Incapsula"},
	{"sucuri", "Sucuri"},
}

// hostingNetworks complementa los rangos cloud del motor de scoring con
// proveedores que no comparten IPs de forma relevante para abuso.
var hostingNetworks = []struct {
	prefix   netip.Prefix
	provider string
}{
	{netip.MustParsePrefix("185.199.108.0/22"), "GitHub"},
	{netip.MustParsePrefix("20.0.0.0/11"), "Azure"},
	{netip.MustParsePrefix("40.64.0.0/10"), "Azure"},
}

// Collector implements ports.Collector.
type Collector struct {
	resolver Resolver
	timeout  time.Duration
	logger   logx.Logger
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	servers := registry.GetSliceConfig(cfg.Custom, "dns_servers", nil)
	timeout := registry.GetDurationConfig(cfg.Custom, "dns_timeout", 5*time.Second)
	return New(dnsx.New(dnsx.Config{Servers: servers, Timeout: timeout}, logger), logger), nil
}

// New creates the collector over the given resolver.
func New(resolver Resolver, logger logx.Logger) *Collector {
	return &Collector{
		resolver: resolver,
		logger:   logger.With("source", collectorName),
	}
}

// Name implements ports.Collector.
func (c *Collector) Name() string { return collectorName }

// Stage implements ports.Collector.
func (c *Collector) Stage() int { return 0 }

// Collect implements ports.Collector.
func (c *Collector) Collect(ctx context.Context, target domain.Target, _ *domain.CheckResults) (domain.Evidence, error) {
	host := strings.ToLower(target.Host)

	if provider, ok := matchFreeHosting(host); ok {
		return &domain.HostingData{Provider: provider, IsFreeHosting: true}, nil
	}

	data := &domain.HostingData{}

	cname, err := c.resolver.LookupCNAME(ctx, host)
	if err != nil && !dnsx.IsNXDomain(err) {
		c.logger.Debug("CNAME lookup failed", "host", host, "error", err.Error())
	}
	if cname != "" {
		if provider, ok := matchFreeHosting(cname); ok {
			data.Provider = provider
			data.IsFreeHosting = true
		}
		data.CDN = matchCDN(cname)
	}

	addrs, err := c.resolver.LookupA(ctx, host)
	switch {
	case err != nil && !data.IsFreeHosting:
		return nil, errors.Wrapf(err, "resolve %s", host)
	case len(addrs) > 0:
		data.IPAddress = addrs[0]
	}

	if data.Provider == "" && data.IPAddress != "" {
		data.Provider = providerForIP(data.IPAddress)
	}

	c.logger.Debug("hosting classified",
		"host", host,
		"provider", data.Provider,
		"free", data.IsFreeHosting,
		"cdn", data.CDN,
	)
	return data, nil
}

// Close implements ports.Collector.
func (c *Collector) Close() error { return nil }

func matchFreeHosting(name string) (string, bool) {
	name = strings.TrimSuffix(name, ".")
	for _, fh := range freeHosting {
		if strings.HasSuffix(name, fh.suffix) {
			return fh.provider, true
		}
	}
	if strings.Contains(name, ".infinityfree") {
		return "InfinityFree (Free)", true
	}
	return "", false
}

func matchCDN(cname string) string {
	for _, m := range cdnMarkers {
		if strings.Contains(cname, m.marker) {
			return m.name
		}
	}
	return ""
}

func providerForIP(ip string) string {
	if addr, err := netip.ParseAddr(ip); err == nil {
		for _, n := range hostingNetworks {
			if n.prefix.Contains(addr) {
				return n.provider
			}
		}
	}
	if provider, ok := scoring.CloudProvider(ip); ok {
		return provider
	}
	return ""
}
