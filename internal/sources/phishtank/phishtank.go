// internal/sources/phishtank/phishtank.go
package phishtank

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/httpclient"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
)

// Auto-registro del colector al importar el package
func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "PhishTank community phishing database",
		Stage:       0,
		Priority:    7,
	})
}

const (
	collectorName = "phishtank"

	// PhishTank solo expone el endpoint por HTTP
	defaultBaseURL = "http://checkurl.phishtank.com/checkurl/"
	userAgent      = "phishtank/trustscan"
)

// result es el bloque "results" de la respuesta, común a JSON y XML.
type result struct {
	InDatabase bool        `json:"in_database" xml:"in_database"`
	PhishID    phishID     `json:"phish_id" xml:"-"`
	PhishIDXML string      `json:"-" xml:"phish_id"`
	Verified   bool        `json:"verified" xml:"verified"`
	VerifiedAt string      `json:"verified_at" xml:"verified_at"`
	Valid      bool        `json:"valid" xml:"valid"`
}

// phishID acepta phish_id como número o como string.
type phishID string

func (p *phishID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = phishID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("phish_id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*p = phishID(strconv.FormatInt(i, 10))
		return nil
	}
	*p = phishID(n.String())
	return nil
}

type jsonResponse struct {
	Results *result `json:"results"`
}

type xmlResponse struct {
	XMLName xml.Name `xml:"response"`
	Results struct {
		URL0 result `xml:"url0"`
	} `xml:"results"`
}

// PhishTank consulta checkurl con la API key opcional.
type PhishTank struct {
	client  *httpclient.Client
	baseURL string
	appKey  string
	logger  logx.Logger
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	p := New(httpclient.Config{
		Service:    collectorName,
		Timeout:    timeout,
		MaxRetries: cfg.Retries,
		RateLimit:  float64(cfg.RateLimit),
		UserAgent:  userAgent,
	}, registry.GetStringConfig(cfg.Custom, "api_key", ""), logger)
	p.baseURL = registry.GetStringConfig(cfg.Custom, "base_url", defaultBaseURL)
	return p, nil
}

// New crea el colector. appKey puede estar vacía (límite anónimo).
func New(httpConfig httpclient.Config, appKey string, logger logx.Logger) *PhishTank {
	if httpConfig.UserAgent == "" {
		httpConfig.UserAgent = userAgent
	}
	return &PhishTank{
		client:  httpclient.New(httpConfig, logger),
		baseURL: defaultBaseURL,
		appKey:  appKey,
		logger:  logger.With("source", collectorName),
	}
}

// Name implements ports.Collector.
func (p *PhishTank) Name() string { return collectorName }

// Stage implements ports.Collector.
func (p *PhishTank) Stage() int { return 0 }

// Collect implements ports.Collector.
func (p *PhishTank) Collect(ctx context.Context, target domain.Target, _ *domain.CheckResults) (domain.Evidence, error) {
	form := url.Values{}
	form.Set("url", target.String())
	form.Set("format", "json")
	if p.appKey != "" {
		form.Set("app_key", p.appKey)
	}

	resp, err := p.client.PostForm(ctx, p.baseURL, form, nil)
	if err != nil {
		return nil, errors.Wrap(err, "PhishTank lookup failed")
	}
	if err := p.client.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, errors.Wrap(err, "PhishTank lookup failed")
	}

	body, err := p.client.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	r, err := parse(body)
	if err != nil {
		return nil, err
	}

	data := &domain.PhishTankData{
		IsPhishing: r.Valid && r.Verified,
		InDatabase: r.InDatabase,
		Verified:   r.Verified,
		VerifiedAt: r.VerifiedAt,
		PhishID:    r.PhishIDXML,
	}
	if r.PhishID != "" {
		data.PhishID = string(r.PhishID)
	}

	p.logger.Debug("PhishTank verdict", "url", target.String(), "in_database", data.InDatabase, "phishing", data.IsPhishing)
	return data, nil
}

// parse acepta JSON y, como a veces responde XML aunque se pida JSON,
// cae a XML si el JSON no es válido.
func parse(body []byte) (*result, error) {
	var jr jsonResponse
	jsonErr := json.Unmarshal(body, &jr)
	if jsonErr == nil && jr.Results != nil {
		return jr.Results, nil
	}

	var xr xmlResponse
	if err := xml.Unmarshal(body, &xr); err != nil {
		if jsonErr == nil {
			jsonErr = errors.New("missing results")
		}
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "PhishTank response is neither JSON (%v) nor XML (%v)", jsonErr, err)
	}
	return &xr.Results.URL0, nil
}

// Close implements ports.Collector.
func (p *PhishTank) Close() error { return nil }
