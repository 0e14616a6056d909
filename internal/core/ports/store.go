// internal/core/ports/store.go
package ports

import (
	"context"
	"time"

	"trustscan/internal/core/domain"
)

// ReportStore es el port de persistencia de reportes de escaneo.
// Las implementaciones retornan domain.ErrReportNotFound cuando no hay
// un reporte vigente.
type ReportStore interface {
	// Get recupera un reporte por ID
	Get(ctx context.Context, id string) (*domain.ScanReport, error)

	// FindByURL recupera el reporte vigente (no expirado a now) de una URL normalizada
	FindByURL(ctx context.Context, normalizedURL string, now time.Time) (*domain.ScanReport, error)

	// Save persiste un reporte reemplazando cualquier otro de la misma URL
	Save(ctx context.Context, report *domain.ScanReport) error

	// DeleteByURL elimina los reportes de una URL normalizada
	DeleteByURL(ctx context.Context, normalizedURL string) error

	// PurgeExpired elimina reportes expirados y retorna cuántos se borraron
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	// Close cierra la conexión con el almacenamiento
	Close() error
}

// ThreatCache guarda veredictos de inteligencia de amenazas por URL.
type ThreatCache interface {
	// Get retorna el veredicto cacheado para la URL normalizada
	Get(ctx context.Context, normalizedURL string) (*domain.ThreatData, bool)

	// Set guarda el veredicto; el TTL depende de si es malicioso
	Set(ctx context.Context, normalizedURL string, data *domain.ThreatData)
}
