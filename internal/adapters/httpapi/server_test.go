package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"trustscan/internal/core/domain"
	"trustscan/internal/platform/validator"
	"trustscan/internal/testutil"
)

// stubScanner implementa Scanner con respuestas fijas.
type stubScanner struct {
	mu      sync.Mutex
	scanned []string
	scanErr error
	reports map[string]*domain.ScanReport
	badges  map[string]*domain.VerifiedBadge
}

func newStubScanner() *stubScanner {
	return &stubScanner{
		reports: make(map[string]*domain.ScanReport),
		badges:  make(map[string]*domain.VerifiedBadge),
	}
}

func (s *stubScanner) Scan(ctx context.Context, rawURL string) (*domain.ScanReport, error) {
	s.mu.Lock()
	s.scanned = append(s.scanned, rawURL)
	s.mu.Unlock()

	if s.scanErr != nil {
		return nil, s.scanErr
	}
	target, err := domain.NewTarget(rawURL)
	if err != nil {
		return nil, err
	}
	r := domain.NewScanReport(*target, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	r.RiskScore = 35
	r.RiskLevel = domain.RiskLevelMedium
	return r, nil
}

func (s *stubScanner) Report(ctx context.Context, id string) (*domain.ScanReport, error) {
	if r, ok := s.reports[id]; ok {
		return r, nil
	}
	return nil, domain.ErrReportNotFound
}

func (s *stubScanner) VerifiedBadge(domainName string) (*domain.VerifiedBadge, bool) {
	b, ok := s.badges[domainName]
	return b, ok
}

func newTestServer(scanner Scanner, perMinute int) *Server {
	return New(scanner, Config{RateLimitPerMinute: perMinute, Logger: testutil.NewTestLogger()})
}

func postScan(t *testing.T, srv http.Handler, body, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "decode error body")
	testutil.AssertFalse(t, body.Success, "success flag")
	return body.Error
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(newStubScanner(), 10)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status")
	testutil.AssertContains(t, rec.Body.String(), `"ok"`, "body")
}

func TestPostScan(t *testing.T) {
	scanner := newStubScanner()
	srv := newTestServer(scanner, 10)

	rec := postScan(t, srv, `{"url":"  https://shop.example/deals  "}`, "")
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "status")
	testutil.AssertEqual(t, rec.Header().Get("Content-Type"), "application/json", "content type")

	var report domain.ScanReport
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &report), "decode report")
	testutil.AssertEqual(t, report.Domain, "shop.example", "domain")
	testutil.AssertEqual(t, report.RiskScore, 35, "score")
	testutil.AssertEqual(t, scanner.scanned[0], "https://shop.example/deals", "url trimmed")
}

func TestPostScan_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		scanErr error
		want    string
	}{
		{"invalid json", `{"url":`, nil, msgInvalidJSON},
		{"missing url", `{}`, nil, msgURLRequired},
		{"blank url", `{"url":"   "}`, nil, msgURLRequired},
		{"private address", `{"url":"http://10.0.0.1"}`, fmt.Errorf("validate: %w", validator.ErrPrivateAddress), "Private IP addresses are not allowed"},
		{"scheme", `{"url":"ftp://x.example"}`, validator.ErrUnsupportedScheme, "Only HTTP and HTTPS URLs are allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := newStubScanner()
			scanner.scanErr = tt.scanErr
			srv := newTestServer(scanner, 100)

			rec := postScan(t, srv, tt.body, "")
			testutil.AssertEqual(t, rec.Code, http.StatusBadRequest, "status")
			testutil.AssertContains(t, decodeError(t, rec), tt.want, "error message")
		})
	}
}

func TestPostScan_InternalError(t *testing.T) {
	scanner := newStubScanner()
	scanner.scanErr = errors.New("worker pool stopped")
	srv := newTestServer(scanner, 10)

	rec := postScan(t, srv, `{"url":"https://shop.example"}`, "")
	testutil.AssertEqual(t, rec.Code, http.StatusInternalServerError, "status")
	testutil.AssertEqual(t, decodeError(t, rec), msgScanFailed, "generic message")
}

func TestPostScan_RateLimitPerClient(t *testing.T) {
	srv := newTestServer(newStubScanner(), 2)

	for i := 0; i < 2; i++ {
		rec := postScan(t, srv, `{"url":"https://shop.example"}`, "198.51.100.7, 10.0.0.1")
		testutil.AssertEqual(t, rec.Code, http.StatusOK, "within limit")
		testutil.AssertEqual(t, rec.Header().Get("X-RateLimit-Limit"), "2", "limit header")
	}

	rec := postScan(t, srv, `{"url":"https://shop.example"}`, "198.51.100.7")
	testutil.AssertEqual(t, rec.Code, http.StatusTooManyRequests, "limited")
	testutil.AssertEqual(t, decodeError(t, rec), "Rate limit exceeded. Please try again later.", "message")
	testutil.AssertNotEqual(t, rec.Header().Get("Retry-After"), "", "retry after")

	rec = postScan(t, srv, `{"url":"https://shop.example"}`, "203.0.113.9")
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "other client unaffected")
}

func TestGetScan(t *testing.T) {
	scanner := newStubScanner()
	scanner.reports["abc"] = &domain.ScanReport{ID: "abc", Domain: "shop.example", RiskLevel: domain.RiskLevelHigh}
	srv := newTestServer(scanner, 10)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scan/abc", nil))
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "found")
	testutil.AssertContains(t, rec.Body.String(), `"riskLevel":"high"`, "report body")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scan/missing", nil))
	testutil.AssertEqual(t, rec.Code, http.StatusNotFound, "not found")
	testutil.AssertEqual(t, decodeError(t, rec), msgNotFound, "message")
}

func TestGetVerified(t *testing.T) {
	scanner := newStubScanner()
	scanner.badges["shop.example"] = &domain.VerifiedBadge{Category: "E-commerce", DaysUntilExpiry: 12}
	srv := newTestServer(scanner, 10)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/verified/WWW.Shop.Example", nil))
	testutil.AssertEqual(t, rec.Code, http.StatusOK, "verified")

	var body verifiedResponse
	testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "decode")
	testutil.AssertTrue(t, body.Verified, "verified flag")
	testutil.AssertEqual(t, body.Badge.DaysUntilExpiry, 12, "days")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/verified/other.example", nil))
	testutil.AssertEqual(t, rec.Code, http.StatusNotFound, "unverified")
}

func TestCORS(t *testing.T) {
	srv := New(newStubScanner(), Config{CORSOrigin: "https://app.example", Logger: testutil.NewTestLogger()})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/scan", nil))

	testutil.AssertEqual(t, rec.Code, http.StatusNoContent, "preflight")
	testutil.AssertEqual(t, rec.Header().Get("Access-Control-Allow-Origin"), "https://app.example", "origin")
	testutil.AssertContains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST", "methods")
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "192.0.2.1:5000", "198.51.100.1"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "198.51.100.1", "X-Real-IP": "198.51.100.2"}, "192.0.2.1:5000", "198.51.100.1"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "192.0.2.1:5000", "198.51.100.2"},
		{"true client ip", map[string]string{"True-Client-IP": "198.51.100.3"}, "192.0.2.1:5000", "198.51.100.3"},
		{"remote addr", nil, "192.0.2.1:5000", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := middleware.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = clientKey(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			testutil.AssertEqual(t, got, tt.want, "client key")
		})
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	srv := newTestServer(newStubScanner(), 10)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.AssertNoError(t, err, "listen")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serve(ctx, srv.HTTPServer(), ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	testutil.AssertNoError(t, err, "request while serving")
	resp.Body.Close()
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "status")

	cancel()
	select {
	case err := <-done:
		testutil.AssertNoError(t, err, "clean shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
