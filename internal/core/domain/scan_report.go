// internal/core/domain/scan_report.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportTTL tiempo de vida de un reporte persistido.
const ReportTTL = 24 * time.Hour

// ScanReport representa el resultado completo de un escaneo de URL.
type ScanReport struct {
	// ID identificador único del reporte
	ID string `json:"id"`

	// URL analizada y su forma normalizada
	URL           string `json:"url"`
	NormalizedURL string `json:"normalizedUrl"`
	Domain        string `json:"domain"`

	RiskScore int       `json:"riskScore"`
	RiskLevel RiskLevel `json:"riskLevel"`
	RedFlags  []RedFlag `json:"redFlags"`

	// Breakdown detalle del cálculo (nil para entidades conocidas)
	Breakdown *RiskBreakdown `json:"breakdown,omitempty"`

	// Checks evidencia recolectada por los colectores
	Checks *CheckResults `json:"checks"`

	ScanConfidence ScanConfidence `json:"scanConfidence"`
	ScanNotes      []string       `json:"scanNotes"`

	// Warnings colectores que fallaron ("nombre: error")
	Warnings []string `json:"warnings,omitempty"`

	IsKnownEntity bool           `json:"isKnownEntity"`
	VerifiedBadge *VerifiedBadge `json:"verifiedBadge,omitempty"`

	// Cached indica que el reporte se sirvió desde el almacenamiento
	Cached bool `json:"cached"`

	ScannedAt time.Time `json:"scannedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifiedBadge marca un sitio verificado manualmente.
type VerifiedBadge struct {
	Category        string `json:"category"`
	VerifiedAt      string `json:"verifiedAt"`
	ExpiresAt       string `json:"expiresAt"`
	DaysUntilExpiry int    `json:"daysUntilExpiry"`
	Note            string `json:"note,omitempty"`
}

// NewScanReport crea un reporte vacío para el target.
func NewScanReport(target Target, now time.Time) *ScanReport {
	return &ScanReport{
		ID:            uuid.New().String(),
		URL:           target.String(),
		NormalizedURL: target.Normalized,
		Domain:        target.Domain,
		RiskLevel:     RiskLevelLow,
		RedFlags:      []RedFlag{},
		Checks:        NewCheckResults(target.Domain),
		ScanNotes:     []string{},
		ScannedAt:     now,
		ExpiresAt:     now.Add(ReportTTL),
	}
}

// ApplyScoring copia el resultado del motor al reporte.
func (r *ScanReport) ApplyScoring(s ScoringResult) {
	r.RiskScore = s.RiskScore
	r.RiskLevel = s.RiskLevel
	r.RedFlags = s.RedFlags
	if r.RedFlags == nil {
		r.RedFlags = []RedFlag{}
	}
}

// AddWarning registra un colector fallido.
func (r *ScanReport) AddWarning(source, message string) {
	r.Warnings = append(r.Warnings, source+": "+message)
}

// AddNote añade una nota de escaneo.
func (r *ScanReport) AddNote(note string) {
	r.ScanNotes = append(r.ScanNotes, note)
}

// IsExpired indica si el reporte ya no debe servirse desde caché.
func (r *ScanReport) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Summary retorna un resumen legible del reporte.
func (r *ScanReport) Summary() string {
	return fmt.Sprintf(
		"ScanReport{url=%s, score=%d, level=%s, flags=%d, confidence=%s}",
		r.URL,
		r.RiskScore,
		r.RiskLevel,
		len(r.RedFlags),
		r.ScanConfidence,
	)
}
