// internal/sources/archive/archive.go
package archive

import (
	"context"
	"net/url"
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
		Description: "Historical presence on the Wayback Machine (CDX API)",
		Stage:       0,
		Priority:    6,
	})
}

const (
	collectorName  = "archive"
	defaultBaseURL = "https://web.archive.org/cdx/search/cdx"
	snapshotLimit  = "1000"

	// cdxTimestamp formato YYYYMMDDhhmmss de la CDX API
	cdxTimestamp = "20060102150405"
)

// Archive consulta la CDX API de archive.org para el hostname del target.
type Archive struct {
	client  *httpclient.Client
	baseURL string
	now     func() time.Time
	logger  logx.Logger
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	a := New(httpclient.Config{
		Service:    collectorName,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.Retries,
		RateLimit:  float64(cfg.RateLimit),
	}, logger)
	a.baseURL = registry.GetStringConfig(cfg.Custom, "base_url", defaultBaseURL)
	return a, nil
}

// New crea una instancia con la URL pública de la CDX API.
func New(httpConfig httpclient.Config, logger logx.Logger) *Archive {
	if httpConfig.Timeout <= 0 {
		httpConfig.Timeout = 15 * time.Second
	}
	return &Archive{
		client:  httpclient.New(httpConfig, logger),
		baseURL: defaultBaseURL,
		now:     time.Now,
		logger:  logger.With("source", collectorName),
	}
}

// Name implements ports.Collector.
func (a *Archive) Name() string { return collectorName }

// Stage implements ports.Collector.
func (a *Archive) Stage() int { return 0 }

// Collect implements ports.Collector. Consulta el hostname completo con
// matchType=prefix para contar capturas de todo el sitio.
func (a *Archive) Collect(ctx context.Context, target domain.Target, _ *domain.CheckResults) (domain.Evidence, error) {
	q := url.Values{}
	q.Set("url", target.Host)
	q.Set("matchType", "prefix")
	q.Set("output", "json")
	q.Set("limit", snapshotLimit)
	q.Set("fl", "timestamp")

	// La primera fila es la cabecera ["timestamp"]
	var rows [][]string
	if err := a.client.GetJSON(ctx, a.baseURL+"?"+q.Encode(), nil, &rows); err != nil {
		return nil, errors.Wrap(err, "wayback CDX query failed")
	}

	return a.summarize(rows), nil
}

func (a *Archive) summarize(rows [][]string) *domain.ArchiveData {
	if len(rows) < 2 {
		return &domain.ArchiveData{Found: false}
	}

	var timestamps []string
	for _, row := range rows[1:] {
		if len(row) > 0 && row[0] != "" {
			timestamps = append(timestamps, row[0])
		}
	}
	if len(timestamps) == 0 {
		return &domain.ArchiveData{Found: false}
	}

	data := &domain.ArchiveData{
		Found:         true,
		SnapshotCount: domain.IntPtr(len(timestamps)),
	}

	// La CDX API devuelve las capturas en orden cronológico
	first, err := parseTimestamp(timestamps[0])
	if err != nil {
		a.logger.Debug("unparsable CDX timestamp", "timestamp", timestamps[0])
		return data
	}
	data.FirstSnapshot = first.Format(time.RFC3339)
	data.OldestSnapshotAgeDays = domain.IntPtr(int(a.now().Sub(first).Hours() / 24))

	return data
}

// parseTimestamp acepta timestamps truncados (YYYYMMDD) rellenando con ceros.
func parseTimestamp(ts string) (time.Time, error) {
	if len(ts) < 8 {
		return time.Time{}, errors.Errorf("timestamp %q too short", ts)
	}
	for len(ts) < len(cdxTimestamp) {
		ts += "0"
	}
	return time.Parse(cdxTimestamp, ts[:len(cdxTimestamp)])
}

// Close implements ports.Collector.
func (a *Archive) Close() error { return nil }
