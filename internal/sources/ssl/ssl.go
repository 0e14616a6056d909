// Package ssl inspects the TLS certificate served by the target host.
// The handshake skips verification so that invalid certificates can still
// be described; the chain is verified afterwards against the system roots.
package ssl

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
)

func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "TLS certificate validity, issuer and expiry",
		Stage:       0,
		Priority:    9,
	})
}

const (
	collectorName  = "ssl"
	defaultPort    = "443"
	defaultTimeout = 10 * time.Second
)

// Collector implements ports.Collector with a raw TLS handshake.
type Collector struct {
	port    string
	timeout time.Duration
	logger  logx.Logger

	// roots nil means the system pool.
	roots *x509.CertPool
	now   func() time.Time
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	c := New(logger)
	c.port = registry.GetStringConfig(cfg.Custom, "port", defaultPort)
	if cfg.Timeout > 0 && cfg.Timeout < c.timeout {
		c.timeout = cfg.Timeout
	}
	return c, nil
}

// New creates the collector with a 10s handshake timeout.
func New(logger logx.Logger) *Collector {
	return &Collector{
		port:    defaultPort,
		timeout: defaultTimeout,
		logger:  logger.With("source", collectorName),
		now:     time.Now,
	}
}

// Name implements ports.Collector.
func (c *Collector) Name() string { return collectorName }

// Stage implements ports.Collector.
func (c *Collector) Stage() int { return 0 }

// Collect implements ports.Collector. Connection failures are errors;
// a certificate that fails verification is a result with Valid=false.
func (c *Collector) Collect(ctx context.Context, target domain.Target, _ *domain.CheckResults) (domain.Evidence, error) {
	host := target.Host
	if host == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "target has no host")
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.timeout},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true, //nolint:gosec // verified manually below
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, c.port))
	if err != nil {
		if errors.IsTimeout(err) {
			return nil, errors.Wrap(errors.ErrTimeout, "Connection timeout")
		}
		return nil, errors.Wrapf(errors.ErrConnectionFailed, "tls dial %s: %v", host, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "No certificate found")
	}

	data := c.describe(host, state)
	c.logger.Debug("certificate inspected",
		"host", host,
		"valid", data.Valid,
		"issuer", data.Issuer,
		"protocol", data.Protocol,
	)
	return data, nil
}

// describe builds SSLData from the handshake state.
func (c *Collector) describe(host string, state tls.ConnectionState) *domain.SSLData {
	leaf := state.PeerCertificates[0]
	now := c.now()

	data := &domain.SSLData{
		Issuer:        issuerName(leaf),
		ValidFrom:     leaf.NotBefore.UTC().Format(time.RFC3339),
		ValidTo:       leaf.NotAfter.UTC().Format(time.RFC3339),
		DaysRemaining: domain.IntPtr(int(leaf.NotAfter.Sub(now).Hours() / 24)),
		Protocol:      tls.VersionName(state.Version),
	}

	intermediates := x509.NewCertPool()
	for _, cert := range state.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}

	_, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         c.roots,
		Intermediates: intermediates,
		CurrentTime:   now,
	})
	if err != nil {
		data.ValidationError = err.Error()
		return data
	}

	data.Valid = true
	return data
}

func issuerName(cert *x509.Certificate) string {
	if len(cert.Issuer.Organization) > 0 {
		return cert.Issuer.Organization[0]
	}
	return cert.Issuer.CommonName
}

// Close implements ports.Collector.
func (c *Collector) Close() error { return nil }
