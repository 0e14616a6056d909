// internal/core/usecases/mocks_test.go
package usecases

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
)

// mockCollector es un mock de ports.Collector para tests del scan service
type mockCollector struct {
	name        string
	stage       int
	collectFunc func(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error)
	calls       atomic.Int32
	closed      atomic.Bool
}

func newMockCollector(name string, stage int) *mockCollector {
	return &mockCollector{name: name, stage: stage}
}

func (m *mockCollector) Name() string { return m.name }
func (m *mockCollector) Stage() int   { return m.stage }

func (m *mockCollector) Collect(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
	m.calls.Add(1)
	if m.collectFunc != nil {
		return m.collectFunc(ctx, target, prior)
	}
	return &domain.ArchiveData{}, nil
}

func (m *mockCollector) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *mockCollector) callCount() int {
	return int(m.calls.Load())
}

// mockCollectorWithEvidence retorna siempre la misma evidencia
func mockCollectorWithEvidence(name string, stage int, ev domain.Evidence) *mockCollector {
	mock := newMockCollector(name, stage)
	mock.collectFunc = func(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
		return ev, nil
	}
	return mock
}

// mockCollectorWithError falla siempre con err
func mockCollectorWithError(name string, stage int, err error) *mockCollector {
	mock := newMockCollector(name, stage)
	mock.collectFunc = func(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
		return nil, err
	}
	return mock
}

// memStore es un ports.ReportStore en memoria para tests
type memStore struct {
	mu      sync.Mutex
	reports map[string]*domain.ScanReport
	saves   int
	findErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{reports: make(map[string]*domain.ScanReport)}
}

func (s *memStore) Get(ctx context.Context, id string) (*domain.ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrReportNotFound
}

func (s *memStore) FindByURL(ctx context.Context, normalizedURL string, now time.Time) (*domain.ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	r, ok := s.reports[normalizedURL]
	if !ok || r.IsExpired(now) {
		return nil, domain.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, report *domain.ScanReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *report
	s.reports[report.NormalizedURL] = &cp
	return nil
}

func (s *memStore) DeleteByURL(ctx context.Context, normalizedURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, normalizedURL)
	return nil
}

func (s *memStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, r := range s.reports {
		if r.IsExpired(now) {
			delete(s.reports, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

var _ ports.ReportStore = (*memStore)(nil)

// mockNotifier es un mock de ports.Notifier para tests
type mockNotifier struct {
	mu              sync.Mutex
	notifyFunc      func(ctx context.Context, event ports.Event) error
	closeFunc       func() error
	notifyCallCount int
	events          []ports.Event
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{
		notifyCallCount: 0,
		events:          []ports.Event{},
	}
}

func (m *mockNotifier) Notify(ctx context.Context, event ports.Event) error {
	m.mu.Lock()
	m.notifyCallCount++
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, event)
	}
	return nil
}

func (m *mockNotifier) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

// getEventsByType returns events filtered by type
func (m *mockNotifier) getEventsByType(eventType ports.EventType) []ports.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []ports.Event
	for _, e := range m.events {
		if e.Type == eventType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// getNotifyCallCount returns the number of times Notify was called (thread-safe)
func (m *mockNotifier) getNotifyCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifyCallCount
}
