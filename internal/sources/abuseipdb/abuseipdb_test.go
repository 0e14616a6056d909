package abuseipdb

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/logx"
	"trustscan/internal/testutil"
)

func newTestCollector(t *testing.T, handler http.HandlerFunc, apiKey string) (*AbuseIPDB, *testutil.RecordingServer) {
	t.Helper()
	server := testutil.NewRecordingServer(t, handler)
	c, err := factory(ports.CollectorConfig{
		Timeout: 2 * time.Second,
		Custom:  map[string]interface{}{"base_url": server.URL + "/", "api_key": apiKey},
	}, logx.Nop())
	testutil.AssertNoError(t, err, "factory")
	return c.(*AbuseIPDB), server
}

func withIP(ip string) *domain.CheckResults {
	r := domain.NewCheckResults("example.com")
	r.Hosting = &domain.HostingData{IPAddress: ip}
	return r
}

func TestCollect_ReportedIP(t *testing.T) {
	body := `{"data":{"ipAddress":"203.0.113.7","abuseConfidenceScore":87,"totalReports":412,
"countryCode":"NL","usageType":"Data Center/Web Hosting/Transit","isp":"Bad Host BV","domain":"badhost.example",
"lastReportedAt":"2024-05-01T10:00:00+00:00"}}`
	c, server := newTestCollector(t, testutil.StaticHandler(http.StatusOK, "application/json", body), "k3y")

	ev, err := c.Collect(context.Background(), domain.Target{}, withIP("203.0.113.7"))
	testutil.AssertNoError(t, err, "collect")

	data := ev.(*domain.AbuseIPDBData)
	testutil.AssertTrue(t, data.IsMalicious, "score above threshold")
	testutil.AssertEqual(t, data.AbuseScore, 87, "score")
	testutil.AssertEqual(t, data.TotalReports, 412, "reports")
	testutil.AssertEqual(t, data.ISP, "Bad Host BV", "isp")

	req := server.Requests()[0]
	testutil.AssertEqual(t, req.Path, "/check", "path")
	q, _ := url.ParseQuery(req.Query)
	testutil.AssertEqual(t, q.Get("ipAddress"), "203.0.113.7", "ip")
	testutil.AssertEqual(t, q.Get("maxAgeInDays"), "90", "window")
	testutil.AssertEqual(t, req.Header.Get("Key"), "k3y", "api key header")
}

func TestCollect_ThresholdIsExclusive(t *testing.T) {
	body := `{"data":{"abuseConfidenceScore":50,"totalReports":3}}`
	c, _ := newTestCollector(t, testutil.StaticHandler(http.StatusOK, "application/json", body), "k3y")

	ev, err := c.Collect(context.Background(), domain.Target{}, withIP("198.51.100.1"))
	testutil.AssertNoError(t, err, "collect")
	testutil.AssertFalse(t, ev.(*domain.AbuseIPDBData).IsMalicious, "50 is not malicious")
}

func TestCollect_APIErrorDetail(t *testing.T) {
	body := `{"errors":[{"detail":"Authentication failed. Your API key is either missing, incorrect, or revoked.","status":401}]}`
	c, _ := newTestCollector(t, testutil.StaticHandler(http.StatusUnauthorized, "application/json", body), "bad")

	ev, err := c.Collect(context.Background(), domain.Target{}, withIP("198.51.100.1"))
	testutil.AssertError(t, err, "api error")
	testutil.AssertNil(t, ev, "no evidence")
	testutil.AssertContains(t, err.Error(), "Authentication failed", "detail surfaced")
}

func TestCollect_NoAPIKey(t *testing.T) {
	c, server := newTestCollector(t, testutil.StaticHandler(http.StatusOK, "application/json", `{}`), "")

	_, err := c.Collect(context.Background(), domain.Target{}, withIP("198.51.100.1"))
	testutil.AssertTrue(t, errors.Is(err, ErrNoAPIKey), "missing key")
	testutil.AssertEqual(t, server.CallCount(), 0, "no request without key")
}

func TestCollect_MissingHostingIP(t *testing.T) {
	c, _ := newTestCollector(t, testutil.StaticHandler(http.StatusOK, "application/json", `{}`), "k3y")

	for name, prior := range map[string]*domain.CheckResults{
		"nil prior":   nil,
		"nil hosting": domain.NewCheckResults("example.com"),
		"empty ip":    withIP(""),
		"invalid ip":  withIP("not-an-ip"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Collect(context.Background(), domain.Target{}, prior)
			testutil.AssertTrue(t, errors.Is(err, domain.ErrMissingInput), "missing input")
		})
	}
}

func TestApply_AttachesToThreat(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	(&domain.AbuseIPDBData{IsMalicious: true, AbuseScore: 90}).Apply(r)

	testutil.AssertNotNil(t, r.Threat, "threat record created")
	testutil.AssertTrue(t, r.Threat.Malicious(), "any source flags malicious")
}
