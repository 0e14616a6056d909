// internal/sources/abuseipdb/abuseipdb.go
package abuseipdb

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/httpclient"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
	"trustscan/internal/platform/validator"
)

// Auto-registro del colector al importar el package
func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "AbuseIPDB reputation of the hosting IP",
		Stage:       1,
		Requires:    []string{"hosting"},
		Priority:    6,
	})
}

const (
	collectorName  = "abuseipdb"
	defaultBaseURL = "https://api.abuseipdb.com/api/v2/"

	// maxAgeInDays ventana de reportes considerada
	maxAgeInDays = "90"

	// maliciousThreshold puntuación a partir de la cual la IP se marca
	maliciousThreshold = 50
)

// ErrNoAPIKey se devuelve cuando no hay clave configurada.
var ErrNoAPIKey = errors.New("No AbuseIPDB API key configured")

type checkResponse struct {
	Data *struct {
		AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
		TotalReports         int    `json:"totalReports"`
		CountryCode          string `json:"countryCode"`
		UsageType            string `json:"usageType"`
		ISP                  string `json:"isp"`
		Domain               string `json:"domain"`
		LastReportedAt       string `json:"lastReportedAt"`
	} `json:"data"`
	Errors []struct {
		Detail string `json:"detail"`
		Status int    `json:"status"`
	} `json:"errors"`
}

// AbuseIPDB consulta la reputación de la IP resuelta por el colector hosting.
type AbuseIPDB struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	logger  logx.Logger
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	a := New(httpclient.Config{
		Service:    collectorName,
		Timeout:    timeout,
		MaxRetries: cfg.Retries,
		RateLimit:  float64(cfg.RateLimit),
	}, registry.GetStringConfig(cfg.Custom, "api_key", ""), logger)
	a.baseURL = registry.GetStringConfig(cfg.Custom, "base_url", defaultBaseURL)
	return a, nil
}

// New crea el colector. Sin apiKey cada consulta falla con ErrNoAPIKey.
func New(httpConfig httpclient.Config, apiKey string, logger logx.Logger) *AbuseIPDB {
	return &AbuseIPDB{
		client:  httpclient.New(httpConfig, logger),
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		logger:  logger.With("source", collectorName),
	}
}

// Name implementa ports.Collector.
func (a *AbuseIPDB) Name() string { return collectorName }

// Stage implementa ports.Collector.
func (a *AbuseIPDB) Stage() int { return 1 }

// Collect implementa ports.Collector.
func (a *AbuseIPDB) Collect(ctx context.Context, _ domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
	if prior == nil || prior.Hosting == nil || prior.Hosting.IPAddress == "" {
		return nil, errors.Wrap(domain.ErrMissingInput, "hosting IP unavailable")
	}
	if a.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	ip := validator.NormalizeIP(prior.Hosting.IPAddress)
	if ip == "" {
		return nil, errors.Wrapf(domain.ErrMissingInput, "invalid hosting IP %q", prior.Hosting.IPAddress)
	}
	return a.check(ctx, ip)
}

func (a *AbuseIPDB) check(ctx context.Context, ip string) (*domain.AbuseIPDBData, error) {
	query := url.Values{}
	query.Set("ipAddress", ip)
	query.Set("maxAgeInDays", maxAgeInDays)
	query.Set("verbose", "")

	resp, err := a.client.Get(ctx, a.baseURL+"check?"+query.Encode(), map[string]string{
		"Key":    a.apiKey,
		"Accept": "application/json",
	})
	if err != nil {
		return nil, errors.Wrap(err, "AbuseIPDB lookup failed")
	}
	status := a.client.CheckStatus(resp)

	body, err := a.client.ReadBody(resp)
	if err != nil {
		return nil, errors.Wrap(err, "AbuseIPDB lookup failed")
	}

	var r checkResponse
	if err := json.Unmarshal(body, &r); err != nil {
		if status != nil {
			return nil, status
		}
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "AbuseIPDB: decode json: %v", err)
	}

	// La API informa de claves inválidas o cuota agotada en "errors"
	if len(r.Errors) > 0 {
		detail := r.Errors[0].Detail
		if detail == "" {
			detail = "AbuseIPDB API error"
		}
		if errors.IsUnauthorized(status) {
			a.logger.Warn("AbuseIPDB rejected the API key", "detail", detail)
		}
		return nil, errors.Errorf("%s", detail)
	}
	if status != nil {
		return nil, status
	}

	data := &domain.AbuseIPDBData{}
	if r.Data != nil {
		data.AbuseScore = r.Data.AbuseConfidenceScore
		data.TotalReports = r.Data.TotalReports
		data.CountryCode = r.Data.CountryCode
		data.UsageType = r.Data.UsageType
		data.ISP = r.Data.ISP
		data.Domain = r.Data.Domain
		data.LastReportedAt = r.Data.LastReportedAt
	}
	data.IsMalicious = data.AbuseScore > maliciousThreshold

	a.logger.Debug("AbuseIPDB verdict", "ip", ip, "score", data.AbuseScore, "reports", data.TotalReports)
	return data, nil
}

// Close implementa ports.Collector.
func (a *AbuseIPDB) Close() error { return nil }
