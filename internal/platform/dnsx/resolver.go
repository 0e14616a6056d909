// Package dnsx is a small DNS stub resolver used by the hosting and
// Spamhaus collectors. Unlike net.Resolver it reports NXDOMAIN as a
// distinct error, which DNS blocklists rely on.
package dnsx

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
)

// ErrNXDomain is returned when the name does not exist.
var ErrNXDomain = errors.New("no such domain")

// DefaultServers are used when /etc/resolv.conf cannot be read.
var DefaultServers = []string{"1.1.1.1:53", "8.8.8.8:53"}

// Config configures a Resolver.
type Config struct {
	// Servers in host:port form. Empty means system resolvers.
	Servers []string

	// Timeout per exchange. Default 5s.
	Timeout time.Duration
}

// Resolver queries the configured servers in order until one answers.
type Resolver struct {
	servers []string
	udp     *dns.Client
	tcp     *dns.Client
	logger  logx.Logger
}

// New creates a Resolver.
func New(cfg Config, logger logx.Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	servers := cfg.Servers
	if len(servers) == 0 {
		servers = systemServers()
	}

	return &Resolver{
		servers: servers,
		udp:     &dns.Client{Net: "udp", Timeout: cfg.Timeout},
		tcp:     &dns.Client{Net: "tcp", Timeout: cfg.Timeout},
		logger:  logger.With("component", "dnsx"),
	}
}

func systemServers() []string {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return DefaultServers
	}
	out := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		out = append(out, net.JoinHostPort(s, conf.Port))
	}
	return out
}

// Servers returns the resolver addresses in query order.
func (r *Resolver) Servers() []string {
	out := make([]string, len(r.servers))
	copy(out, r.servers)
	return out
}

// LookupA returns the IPv4 addresses of name, following CNAMEs the
// recursive server included in the answer.
func (r *Resolver) LookupA(ctx context.Context, name string) ([]string, error) {
	msg, err := r.query(ctx, name, dns.TypeA)
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	return addrs, nil
}

// LookupCNAME returns the canonical name of name without the trailing
// dot, or "" when name has no CNAME record.
func (r *Resolver) LookupCNAME(ctx context.Context, name string) (string, error) {
	msg, err := r.query(ctx, name, dns.TypeCNAME)
	if err != nil {
		return "", err
	}

	for _, rr := range msg.Answer {
		if c, ok := rr.(*dns.CNAME); ok {
			return strings.TrimSuffix(strings.ToLower(c.Target), "."), nil
		}
	}
	return "", nil
}

// query sends one question, trying each server and retrying over TCP
// when the UDP answer is truncated.
func (r *Resolver) query(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "dns query aborted")
		}

		resp, _, err := r.udp.ExchangeContext(ctx, m, server)
		if err == nil && resp.Truncated {
			resp, _, err = r.tcp.ExchangeContext(ctx, m, server)
		}
		if err != nil {
			r.logger.Debug("dns exchange failed", "server", server, "name", name, "error", err.Error())
			lastErr = err
			continue
		}

		switch resp.Rcode {
		case dns.RcodeSuccess:
			return resp, nil
		case dns.RcodeNameError:
			return nil, fmt.Errorf("%s: %w", name, ErrNXDomain)
		default:
			lastErr = fmt.Errorf("%s: rcode %s", name, dns.RcodeToString[resp.Rcode])
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no dns servers configured")
	}
	if errors.IsTimeout(lastErr) {
		return nil, errors.Wrap(errors.ErrTimeout, lastErr.Error())
	}
	return nil, errors.Wrap(errors.ErrConnectionFailed, lastErr.Error())
}

// IsNXDomain reports whether err means the name does not exist.
func IsNXDomain(err error) bool {
	return errors.Is(err, ErrNXDomain)
}
