// internal/adapters/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/cache"
)

// DefaultMemoryCapacity reportes retenidos por el store en memoria.
const DefaultMemoryCapacity = 1000

// MemoryStore implementa ports.ReportStore sobre el cache LRU de la
// plataforma. Los reportes se indexan por ID y la URL normalizada apunta
// al ID vigente.
type MemoryStore struct {
	mu      sync.Mutex
	reports *cache.MemoryCache[*domain.ScanReport]
	byURL   map[string]string
}

var _ ports.ReportStore = (*MemoryStore)(nil)

// NewMemoryStore crea un store en memoria. capacity <= 0 usa DefaultMemoryCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		reports: cache.New[*domain.ScanReport](capacity),
		byURL:   make(map[string]string),
	}
}

// Get implementa ports.ReportStore.
func (s *MemoryStore) Get(_ context.Context, id string) (*domain.ScanReport, error) {
	report, ok := s.reports.Get(id)
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return clone(report), nil
}

// FindByURL implementa ports.ReportStore.
func (s *MemoryStore) FindByURL(_ context.Context, normalizedURL string, now time.Time) (*domain.ScanReport, error) {
	s.mu.Lock()
	id, ok := s.byURL[normalizedURL]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrReportNotFound
	}

	report, ok := s.reports.Get(id)
	if !ok || report.IsExpired(now) {
		return nil, domain.ErrReportNotFound
	}
	return clone(report), nil
}

// Save implementa ports.ReportStore.
func (s *MemoryStore) Save(_ context.Context, report *domain.ScanReport) error {
	if report == nil || report.ID == "" || report.NormalizedURL == "" {
		return domain.ErrInvalidReport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byURL[report.NormalizedURL]; ok && prev != report.ID {
		s.reports.Delete(prev)
	}
	s.byURL[report.NormalizedURL] = report.ID
	s.reports.Set(report.ID, clone(report), 0)
	return nil
}

// DeleteByURL implementa ports.ReportStore.
func (s *MemoryStore) DeleteByURL(_ context.Context, normalizedURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byURL[normalizedURL]; ok {
		s.reports.Delete(id)
		delete(s.byURL, normalizedURL)
	}
	return nil
}

// PurgeExpired implementa ports.ReportStore.
func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	s.reports.Range(func(id string, r *domain.ScanReport) bool {
		if r.IsExpired(now) {
			expired = append(expired, id)
		}
		return true
	})

	for _, id := range expired {
		if r, ok := s.reports.Get(id); ok && s.byURL[r.NormalizedURL] == id {
			delete(s.byURL, r.NormalizedURL)
		}
		s.reports.Delete(id)
	}
	return len(expired), nil
}

// Close implementa ports.ReportStore.
func (s *MemoryStore) Close() error {
	s.reports.Clear()
	return nil
}

// clone copia el reporte para que los llamadores no modifiquen el
// almacenado (Cached, VerifiedBadge se ajustan al servirlo).
func clone(r *domain.ScanReport) *domain.ScanReport {
	cp := *r
	cp.Cached = false
	return &cp
}
