package ssl

import (
	"context"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
	"trustscan/internal/testutil"
)

// newTLSTarget levanta un servidor TLS y retorna un colector que apunta
// a su puerto; el host del target es "example.com" resuelto vía 127.0.0.1.
func newTLSCollector(t *testing.T) (*Collector, *httptest.Server) {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(server.Close)

	u, _ := url.Parse(server.URL)
	_, port, _ := net.SplitHostPort(u.Host)

	c := New(logx.Nop())
	c.port = port
	c.timeout = 2 * time.Second
	return c, server
}

func localTarget(t *testing.T) domain.Target {
	t.Helper()
	// 127.0.0.1 es rechazado por la validación de URLs, se construye a mano
	u, _ := url.Parse("https://127.0.0.1/")
	return domain.Target{URL: u, Normalized: "https://127.0.0.1", Host: "127.0.0.1", Domain: "127.0.0.1"}
}

func TestCollector_SelfSignedIsInvalid(t *testing.T) {
	c, _ := newTLSCollector(t)

	ev, err := c.Collect(context.Background(), localTarget(t), nil)
	testutil.AssertNoError(t, err, "handshake should succeed")

	data := ev.(*domain.SSLData)
	testutil.AssertFalse(t, data.Valid, "untrusted certificate")
	testutil.AssertTrue(t, data.ValidationError != "", "validation error should be reported")
	testutil.AssertTrue(t, data.DaysRemaining != nil && *data.DaysRemaining > 0, "days remaining is still computed")
	testutil.AssertTrue(t, data.Protocol != "", "protocol should be set")
}

func TestCollector_TrustedRoot(t *testing.T) {
	c, server := newTLSCollector(t)

	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())
	c.roots = pool

	ev, err := c.Collect(context.Background(), localTarget(t), nil)
	testutil.AssertNoError(t, err, "collect")

	data := ev.(*domain.SSLData)
	testutil.AssertTrue(t, data.Valid, "certificate signed by trusted root should be valid")
	testutil.AssertEqual(t, data.ValidationError, "", "no validation error")
	testutil.AssertEqual(t, data.Issuer, "Acme Co", "httptest issuer organization")
}

func TestCollector_ExpiredAtCheckTime(t *testing.T) {
	c, server := newTLSCollector(t)

	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())
	c.roots = pool
	c.now = func() time.Time { return server.Certificate().NotAfter.Add(48 * time.Hour) }

	ev, err := c.Collect(context.Background(), localTarget(t), nil)
	testutil.AssertNoError(t, err, "collect")

	data := ev.(*domain.SSLData)
	testutil.AssertFalse(t, data.Valid, "expired certificate")
	testutil.AssertTrue(t, *data.DaysRemaining < 0, "negative runway")
}

func TestCollector_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	c := New(logx.Nop())
	c.port = port
	c.timeout = time.Second

	ev, err := c.Collect(context.Background(), localTarget(t), nil)
	testutil.AssertError(t, err, "closed port")
	testutil.AssertNil(t, ev, "no evidence")
	testutil.AssertTrue(t, errors.IsConnectionFailed(err) || errors.IsTimeout(err), "classified transport error")
}
