package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/testutil"
)

var baseTime = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func newReport(t *testing.T, rawURL string, scannedAt time.Time) *domain.ScanReport {
	t.Helper()
	target, err := domain.NewTarget(rawURL)
	testutil.AssertNoError(t, err, "target")

	r := domain.NewScanReport(*target, scannedAt)
	r.RiskScore = 42
	r.RiskLevel = domain.RiskLevelMedium
	r.RedFlags = []domain.RedFlag{{
		Category: domain.CategoryMissingInfo,
		Severity: domain.SeverityMedium,
		Title:    "No privacy policy",
	}}
	r.Checks.Whois = &domain.WhoisData{DomainAge: domain.IntPtr(30), Registrar: "Example Registrar"}
	r.ScanConfidence = domain.ConfidenceHigh
	return r
}

// storeFactories implementaciones sobre las que corre el contrato común.
func storeFactories(t *testing.T) map[string]func(t *testing.T) ports.ReportStore {
	factories := map[string]func(t *testing.T) ports.ReportStore{
		"memory": func(t *testing.T) ports.ReportStore {
			return NewMemoryStore(0)
		},
		"sqlite": func(t *testing.T) ports.ReportStore {
			s, err := NewSQLiteStore(context.Background(), ":memory:", testutil.NewTestLogger())
			testutil.AssertNoError(t, err, "open sqlite")
			return s
		},
	}

	if dsn := os.Getenv("TRUSTSCAN_TEST_POSTGRES_DSN"); dsn != "" {
		factories["postgres"] = func(t *testing.T) ports.ReportStore {
			s, err := NewPostgresStore(context.Background(), dsn, testutil.NewTestLogger())
			testutil.AssertNoError(t, err, "open postgres")
			_, err = s.pool.Exec(context.Background(), `TRUNCATE scans`)
			testutil.AssertNoError(t, err, "truncate")
			return s
		}
	}
	return factories
}

func TestReportStore_Contract(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("save and get", func(t *testing.T) {
				s := factory(t)
				defer s.Close()
				ctx := context.Background()

				r := newReport(t, "https://shop.example/checkout", baseTime)
				testutil.AssertNoError(t, s.Save(ctx, r), "save")

				got, err := s.Get(ctx, r.ID)
				testutil.AssertNoError(t, err, "get")
				testutil.AssertEqual(t, got.NormalizedURL, "https://shop.example/checkout", "url")
				testutil.AssertEqual(t, got.RiskScore, 42, "score")
				testutil.AssertEqual(t, got.RiskLevel, domain.RiskLevelMedium, "level")
				testutil.AssertLen(t, []string{got.RedFlags[0].Title}, 1, "flags")
				testutil.AssertEqual(t, got.Checks.Whois.Registrar, "Example Registrar", "checks survive")
				testutil.AssertEqual(t, *got.Checks.Whois.DomainAge, 30, "domain age")
				testutil.AssertTrue(t, got.ScannedAt.Equal(baseTime), "scanned at")
				testutil.AssertFalse(t, got.Cached, "stored reports are never cached")
			})

			t.Run("get missing", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				_, err := s.Get(context.Background(), "nope")
				testutil.AssertTrue(t, errors.Is(err, domain.ErrReportNotFound), "not found")
			})

			t.Run("find by url respects expiry", func(t *testing.T) {
				s := factory(t)
				defer s.Close()
				ctx := context.Background()

				r := newReport(t, "https://shop.example/", baseTime)
				testutil.AssertNoError(t, s.Save(ctx, r), "save")

				got, err := s.FindByURL(ctx, r.NormalizedURL, baseTime.Add(time.Hour))
				testutil.AssertNoError(t, err, "fresh report")
				testutil.AssertEqual(t, got.ID, r.ID, "id")

				_, err = s.FindByURL(ctx, r.NormalizedURL, r.ExpiresAt)
				testutil.AssertTrue(t, errors.Is(err, domain.ErrReportNotFound), "expired at boundary")

				_, err = s.FindByURL(ctx, "https://other.example", baseTime)
				testutil.AssertTrue(t, errors.Is(err, domain.ErrReportNotFound), "unknown url")
			})

			t.Run("save replaces previous report for url", func(t *testing.T) {
				s := factory(t)
				defer s.Close()
				ctx := context.Background()

				first := newReport(t, "https://shop.example/", baseTime)
				second := newReport(t, "https://shop.example/", baseTime.Add(2*time.Hour))
				second.RiskScore = 77

				testutil.AssertNoError(t, s.Save(ctx, first), "save first")
				testutil.AssertNoError(t, s.Save(ctx, second), "save second")

				got, err := s.FindByURL(ctx, "https://shop.example", baseTime.Add(3*time.Hour))
				testutil.AssertNoError(t, err, "find")
				testutil.AssertEqual(t, got.ID, second.ID, "latest report")
				testutil.AssertEqual(t, got.RiskScore, 77, "latest score")

				_, err = s.Get(ctx, first.ID)
				testutil.AssertTrue(t, errors.Is(err, domain.ErrReportNotFound), "previous report removed")
			})

			t.Run("delete by url", func(t *testing.T) {
				s := factory(t)
				defer s.Close()
				ctx := context.Background()

				r := newReport(t, "https://shop.example/", baseTime)
				testutil.AssertNoError(t, s.Save(ctx, r), "save")
				testutil.AssertNoError(t, s.DeleteByURL(ctx, r.NormalizedURL), "delete")

				_, err := s.Get(ctx, r.ID)
				testutil.AssertTrue(t, errors.Is(err, domain.ErrReportNotFound), "deleted")
			})

			t.Run("purge expired", func(t *testing.T) {
				s := factory(t)
				defer s.Close()
				ctx := context.Background()

				old := newReport(t, "https://old.example/", baseTime)
				fresh := newReport(t, "https://fresh.example/", baseTime.Add(20*time.Hour))
				testutil.AssertNoError(t, s.Save(ctx, old), "save old")
				testutil.AssertNoError(t, s.Save(ctx, fresh), "save fresh")

				n, err := s.PurgeExpired(ctx, baseTime.Add(30*time.Hour))
				testutil.AssertNoError(t, err, "purge")
				testutil.AssertEqual(t, n, 1, "purged count")

				_, err = s.Get(ctx, fresh.ID)
				testutil.AssertNoError(t, err, "fresh report kept")
			})

			t.Run("rejects invalid report", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				err := s.Save(context.Background(), &domain.ScanReport{})
				testutil.AssertTrue(t, errors.Is(err, domain.ErrInvalidReport), "invalid report")
			})
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scans.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, path, testutil.NewTestLogger())
	testutil.AssertNoError(t, err, "open")
	r := newReport(t, "https://shop.example/", baseTime)
	testutil.AssertNoError(t, s.Save(ctx, r), "save")
	testutil.AssertNoError(t, s.Close(), "close")

	reopened, err := NewSQLiteStore(ctx, path, testutil.NewTestLogger())
	testutil.AssertNoError(t, err, "reopen runs migrations idempotently")
	defer reopened.Close()

	got, err := reopened.Get(ctx, r.ID)
	testutil.AssertNoError(t, err, "get after reopen")
	testutil.AssertEqual(t, got.Domain, "shop.example", "domain")
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory", "", testutil.NewTestLogger())
	testutil.AssertNoError(t, err, "memory")
	_, ok := s.(*MemoryStore)
	testutil.AssertTrue(t, ok, "memory store type")

	s, err = Open(ctx, "sqlite", ":memory:", testutil.NewTestLogger())
	testutil.AssertNoError(t, err, "sqlite")
	defer s.Close()

	_, err = Open(ctx, "mongo", "", testutil.NewTestLogger())
	testutil.AssertTrue(t, errors.Is(err, domain.ErrInvalidConfig), "unknown driver")

	_, err = Open(ctx, "postgres", "", testutil.NewTestLogger())
	testutil.AssertTrue(t, errors.Is(err, domain.ErrInvalidConfig), "postgres without dsn")
}
