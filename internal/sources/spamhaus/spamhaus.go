// internal/sources/spamhaus/spamhaus.go
package spamhaus

import (
	"context"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/dnsx"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
)

// Auto-registro del colector al importar el package
func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "Spamhaus Domain Block List (DNS)",
		Stage:       0,
		Priority:    7,
	})
}

const (
	collectorName = "spamhaus"
	defaultZone   = "dbl.spamhaus.org"
)

// dblReturnCodes significado de las respuestas A de la DBL.
var dblReturnCodes = map[string]string{
	"127.0.1.2":   "spam_domain",
	"127.0.1.4":   "phishing_domain",
	"127.0.1.5":   "malware_domain",
	"127.0.1.6":   "botnet_cc_domain",
	"127.0.1.102": "abused_legit_spam",
	"127.0.1.103": "abused_spammed_redirector",
	"127.0.1.104": "abused_legit_phishing",
	"127.0.1.105": "abused_legit_malware",
	"127.0.1.106": "abused_legit_botnet",
}

// Resolver es la parte del resolver DNS que usa el colector.
type Resolver interface {
	LookupA(ctx context.Context, name string) ([]string, error)
}

// Spamhaus consulta <dominio>.<zona>; NXDOMAIN significa no listado.
type Spamhaus struct {
	resolver Resolver
	zone     string
	logger   logx.Logger
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	servers := registry.GetSliceConfig(cfg.Custom, "dns_servers", nil)
	timeout := registry.GetDurationConfig(cfg.Custom, "dns_timeout", 5*time.Second)

	s := New(dnsx.New(dnsx.Config{Servers: servers, Timeout: timeout}, logger), logger)
	s.zone = registry.GetStringConfig(cfg.Custom, "zone", defaultZone)
	return s, nil
}

// New crea el colector sobre la zona pública de la DBL.
func New(resolver Resolver, logger logx.Logger) *Spamhaus {
	return &Spamhaus{
		resolver: resolver,
		zone:     defaultZone,
		logger:   logger.With("source", collectorName),
	}
}

// Name implements ports.Collector.
func (s *Spamhaus) Name() string { return collectorName }

// Stage implements ports.Collector.
func (s *Spamhaus) Stage() int { return 0 }

// Collect implements ports.Collector.
func (s *Spamhaus) Collect(ctx context.Context, target domain.Target, _ *domain.CheckResults) (domain.Evidence, error) {
	query := target.Domain + "." + s.zone

	addrs, err := s.resolver.LookupA(ctx, query)
	if err != nil {
		if dnsx.IsNXDomain(err) {
			return &domain.SpamhausData{Listed: false}, nil
		}
		return nil, errors.Wrapf(err, "DBL lookup for %s", target.Domain)
	}
	if len(addrs) == 0 {
		return &domain.SpamhausData{Listed: false}, nil
	}

	code := addrs[0]
	data := &domain.SpamhausData{
		Listed:     true,
		ReturnCode: code,
		ListType:   dblReturnCodes[code],
	}
	if data.ListType == "" {
		data.ListType = code
	}

	s.logger.Info("domain listed in Spamhaus DBL", "domain", target.Domain, "code", code, "type", data.ListType)
	return data, nil
}

// Close implements ports.Collector.
func (s *Spamhaus) Close() error { return nil }
