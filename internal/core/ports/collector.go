// internal/core/ports/collector.go
package ports

import (
	"context"
	"time"

	"trustscan/internal/core/domain"
)

// Collector es el port primario de las fuentes de evidencia.
// Cada colector consulta un servicio externo y devuelve un payload tipado
// que se aplica sobre CheckResults.
type Collector interface {
	// Name retorna el nombre único del colector (ej: "whois", "ssl", "urlhaus")
	Name() string

	// Stage retorna la etapa de ejecución: 0 no depende de nadie, 1 usa
	// resultados de la etapa 0
	Stage() int

	// Collect ejecuta la consulta. prior contiene los resultados de etapas
	// anteriores (vacío en la etapa 0).
	Collect(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error)

	// Close libera recursos (conexiones, caches, goroutines)
	Close() error
}

// CollectorConfig contiene la configuración específica de un colector.
type CollectorConfig struct {
	// Enabled indica si el colector está habilitado
	Enabled bool

	// Timeout tiempo máximo por consulta
	Timeout time.Duration

	// Retries número de reintentos ante errores transitorios
	Retries int

	// RateLimit peticiones por segundo (0 = sin límite)
	RateLimit int

	// Priority prioridad dentro de su etapa (mayor = antes)
	Priority int

	// Custom opciones propias del colector (api_key, base_url, token...)
	Custom map[string]interface{}
}

// DefaultCollectorConfig retorna una configuración por defecto.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Enabled:   true,
		Timeout:   15 * time.Second,
		Retries:   1,
		RateLimit: 0,
		Priority:  5,
		Custom:    make(map[string]interface{}),
	}
}

// CollectorMetadata describe un colector registrado.
type CollectorMetadata struct {
	Name        string
	Description string

	// Stage etapa de ejecución (0 o 1)
	Stage int

	// Requires nombres de colectores cuyos resultados consume
	Requires []string

	// RequiresAuth indica si necesita API key para funcionar
	RequiresAuth bool

	// RateLimit límite recomendado de requests/segundo
	RateLimit int

	// Priority prioridad por defecto
	Priority int
}
