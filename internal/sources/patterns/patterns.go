// internal/sources/patterns/patterns.go
package patterns

import (
	"context"

	"trustscan/internal/core/detect"
	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
)

// Auto-registro del colector al importar el package
func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "Scam and phishing language detection on the scraped page",
		Stage:       1,
		Requires:    []string{"scraper"},
		Priority:    10,
	})
}

const collectorName = "patterns"

// ErrNoContent indica que el scraper no obtuvo el HTML de la página.
var ErrNoContent = errors.New("page content unavailable")

// Patterns ejecuta el detector de contenido sobre el HTML del scraper.
type Patterns struct {
	logger logx.Logger
}

func factory(_ ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	return New(logger), nil
}

// New crea el colector.
func New(logger logx.Logger) *Patterns {
	return &Patterns{logger: logger.With("source", collectorName)}
}

// Name implements ports.Collector.
func (p *Patterns) Name() string { return collectorName }

// Stage implements ports.Collector.
func (p *Patterns) Stage() int { return 1 }

// Collect implements ports.Collector.
func (p *Patterns) Collect(ctx context.Context, _ domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
	if prior == nil || prior.Scraper == nil || prior.Scraper.HTML == "" {
		return nil, errors.Wrap(domain.ErrMissingInput, ErrNoContent.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := detect.CheckPatterns(prior.Scraper.HTML)
	if data.Error != "" {
		p.logger.Warn("pattern preprocessing failed", "error", data.Error)
	}

	p.logger.Debug("content patterns analyzed", "matches", len(data.Matches))
	return &data, nil
}

// Close implements ports.Collector.
func (p *Patterns) Close() error { return nil }
