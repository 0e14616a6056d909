// internal/core/usecases/report.go
package usecases

import (
	"time"

	"github.com/google/uuid"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/entities"
	"trustscan/internal/platform/ui"
)

// KnownEntityScore puntuación fija de las entidades conocidas.
const KnownEntityScore = 5

// knownEntityReport construye el resultado abreviado de una entidad
// establecida. No se ejecutan colectores ni se persiste.
func knownEntityReport(target domain.Target, now time.Time, ttl time.Duration) *domain.ScanReport {
	return &domain.ScanReport{
		ID:             "known-" + uuid.New().String(),
		URL:            target.String(),
		NormalizedURL:  target.Normalized,
		Domain:         target.Domain,
		RiskScore:      KnownEntityScore,
		RiskLevel:      domain.RiskLevelLow,
		RedFlags:       []domain.RedFlag{},
		Checks:         domain.NewCheckResults(target.Domain),
		ScanConfidence: domain.ConfidenceHigh,
		ScanNotes: []string{
			entities.KnownEntityNote,
			"Category: " + entities.Category(target.Domain),
		},
		IsKnownEntity: true,
		ScannedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

// AssessConfidence deriva la confianza del escaneo a partir del scraper.
func AssessConfidence(checks *domain.CheckResults) (domain.ScanConfidence, []string) {
	scraper := checks.Scraper
	switch {
	case scraper != nil && scraper.ScraperLimited:
		notes := append([]string{}, scraper.ScraperNotes...)
		return domain.ConfidenceLow, notes
	case scraper == nil || scraper.Error != "":
		return domain.ConfidenceMedium, []string{IncompleteNote}
	default:
		return domain.ConfidenceHigh, []string{}
	}
}

// verifiedBadge construye la insignia vigente del dominio.
func verifiedBadge(registry *entities.VerifiedRegistry, domainName string) (*domain.VerifiedBadge, bool) {
	if registry == nil {
		return nil, false
	}
	site, ok := registry.Lookup(domainName)
	if !ok {
		return nil, false
	}
	days, ok := registry.DaysUntilExpiry(site)
	if !ok {
		return nil, false
	}
	return &domain.VerifiedBadge{
		Category:        site.Category,
		VerifiedAt:      site.VerifiedAt,
		ExpiresAt:       site.ExpiresAt,
		DaysUntilExpiry: days,
		Note:            site.Note,
	}, true
}

// Summarize convierte un reporte en el resumen que muestran los presenters.
// stageResults puede ser nil (reportes en caché o entidades conocidas).
func Summarize(report *domain.ScanReport, stageResults []StageResult, duration time.Duration) ui.ScanSummary {
	summary := ui.ScanSummary{
		ReportID:    report.ID,
		URL:         report.URL,
		Domain:      report.Domain,
		RiskScore:   report.RiskScore,
		RiskLevel:   report.RiskLevel.String(),
		Confidence:  report.ScanConfidence.String(),
		Flags:       make([]ui.FlagLine, 0, len(report.RedFlags)),
		Notes:       report.ScanNotes,
		Warnings:    report.Warnings,
		Cached:      report.Cached,
		KnownEntity: report.IsKnownEntity,
		Duration:    duration,
	}

	if report.VerifiedBadge != nil {
		summary.Verified = report.VerifiedBadge.Category
		if summary.Verified == "" {
			summary.Verified = "verified"
		}
	}

	for _, f := range report.RedFlags {
		summary.Flags = append(summary.Flags, ui.FlagLine{
			Severity: f.Severity.String(),
			Category: f.Category.String(),
			Message:  f.Title,
		})
	}

	for _, sr := range stageResults {
		summary.CollectorsOK += sr.Succeeded()
		summary.CollectorsFailed += sr.Failed()
		summary.CollectorsSkipped += sr.Skipped()
	}

	return summary
}
