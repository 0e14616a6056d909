// internal/adapters/store/threat_cache.go
package store

import (
	"context"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/cache"
)

// TTLs de los veredictos de amenazas. Un veredicto limpio caduca antes
// para detectar pronto URLs recién listadas.
const (
	CleanVerdictTTL     = time.Hour
	MaliciousVerdictTTL = 24 * time.Hour

	threatKeyPrefix = "threat:"
)

// ThreatCache implementa ports.ThreatCache sobre el cache LRU de la plataforma.
type ThreatCache struct {
	entries *cache.MemoryCache[domain.ThreatData]
}

var _ ports.ThreatCache = (*ThreatCache)(nil)

// NewThreatCache crea el cache de veredictos.
func NewThreatCache(capacity int, opts ...cache.Option) *ThreatCache {
	return &ThreatCache{entries: cache.New[domain.ThreatData](capacity, opts...)}
}

// Get implementa ports.ThreatCache.
func (c *ThreatCache) Get(_ context.Context, normalizedURL string) (*domain.ThreatData, bool) {
	v, ok := c.entries.Get(threatKeyPrefix + normalizedURL)
	if !ok {
		return nil, false
	}
	return &v, true
}

// Set implementa ports.ThreatCache.
func (c *ThreatCache) Set(_ context.Context, normalizedURL string, data *domain.ThreatData) {
	if data == nil {
		return
	}
	ttl := CleanVerdictTTL
	if data.IsMalicious {
		ttl = MaliciousVerdictTTL
	}
	c.entries.Set(threatKeyPrefix+normalizedURL, *data, ttl)
}

// StartCleanup purga entradas expiradas periódicamente hasta que se
// invoque la función retornada.
func (c *ThreatCache) StartCleanup(interval time.Duration) func() {
	return c.entries.StartCleanupWorker(interval)
}

// Len entradas almacenadas.
func (c *ThreatCache) Len() int {
	return c.entries.Size()
}
