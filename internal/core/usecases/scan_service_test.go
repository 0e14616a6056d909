package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/entities"
	"trustscan/internal/core/ports"
	perrors "trustscan/internal/platform/errors"
	"trustscan/internal/testutil"
)

const testURL = "https://acmewidgets.example/pricing"

func newTestService(t *testing.T, store ports.ReportStore, collectors ...ports.Collector) *ScanService {
	t.Helper()
	return newTestServiceWith(t, ScanServiceOptions{Collectors: collectors, Store: store})
}

func newTestServiceWith(t *testing.T, opts ScanServiceOptions) *ScanService {
	t.Helper()
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	opts.Logger = testutil.NewTestLogger()

	svc, err := NewScanService(opts)
	testutil.AssertNoError(t, err, "new scan service")
	t.Cleanup(func() { svc.Close() })
	return svc
}

func scraperOK() *mockCollector {
	return mockCollectorWithEvidence("scraper", 0, &domain.ScraperData{
		Title:            "Acme Widgets",
		HasContactPage:   true,
		HasPrivacyPolicy: true,
	})
}

func TestNewScanService_NoCollectors(t *testing.T) {
	_, err := NewScanService(ScanServiceOptions{Logger: testutil.NewTestLogger()})
	testutil.AssertTrue(t, errors.Is(err, domain.ErrNoCollectors), "expected ErrNoCollectors")
}

func TestScan_InvalidURL(t *testing.T) {
	whois := newMockCollector("whois", 0)
	svc := newTestService(t, nil, whois)

	_, err := svc.Scan(context.Background(), "not a url")
	testutil.AssertError(t, err, "invalid url must fail")
	testutil.AssertEqual(t, whois.callCount(), 0, "no collectors run")
}

func TestScan_KnownEntityShortCircuits(t *testing.T) {
	whois := newMockCollector("whois", 0)
	store := newMemStore()
	svc := newTestService(t, store, whois)

	report, err := svc.Scan(context.Background(), "https://www.github.com/features")
	testutil.AssertNoError(t, err, "scan")

	testutil.AssertTrue(t, report.IsKnownEntity, "known entity")
	testutil.AssertEqual(t, report.RiskScore, KnownEntityScore, "fixed score")
	testutil.AssertEqual(t, report.RiskLevel, domain.RiskLevelLow, "level")
	testutil.AssertEqual(t, report.ScanConfidence, domain.ConfidenceHigh, "confidence")
	testutil.AssertContains(t, report.ScanNotes, entities.KnownEntityNote, "note")
	testutil.AssertEqual(t, report.ID[:6], "known-", "id prefix")
	testutil.AssertEqual(t, whois.callCount(), 0, "collectors skipped")
	testutil.AssertEqual(t, store.saveCount(), 0, "known entities are not persisted")
}

func TestScan_RunsStagesWithPriorEvidence(t *testing.T) {
	hosting := mockCollectorWithEvidence("hosting", 0, &domain.HostingData{IPAddress: "203.0.113.7"})

	var seenIP string
	abuse := newMockCollector("abuseipdb", 1)
	abuse.collectFunc = func(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
		if prior.Hosting != nil {
			seenIP = prior.Hosting.IPAddress
		}
		return &domain.AbuseIPDBData{AbuseScore: 3}, nil
	}

	store := newMemStore()
	svc := newTestServiceWith(t, ScanServiceOptions{
		Collectors: []ports.Collector{abuse, hosting, scraperOK()},
		Metadata: map[string]ports.CollectorMetadata{
			"abuseipdb": {Stage: 1, Requires: []string{"hosting"}, Priority: 6},
		},
		Store: store,
	})

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "scan")

	testutil.AssertEqual(t, seenIP, "203.0.113.7", "stage 1 sees stage 0 evidence")
	testutil.AssertNotNil(t, report.Checks.Threat, "threat container created")
	testutil.AssertNotNil(t, report.Breakdown, "breakdown attached")
	testutil.AssertEqual(t, report.Domain, "acmewidgets.example", "domain")
	testutil.AssertEqual(t, report.ScanConfidence, domain.ConfidenceHigh, "confidence")
	testutil.AssertEqual(t, len(report.Warnings), 0, "no warnings")
	testutil.AssertFalse(t, report.Cached, "fresh scan")
	testutil.AssertEqual(t, store.saveCount(), 1, "report persisted")
}

func TestScan_MaliciousVerdictIsCritical(t *testing.T) {
	urlhaus := mockCollectorWithEvidence("urlhaus", 0, &domain.ThreatData{
		IsMalicious: true,
		Threat:      "malware_download",
		Tags:        []string{"exe"},
	})
	svc := newTestService(t, nil, urlhaus, scraperOK())

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "scan")
	testutil.AssertEqual(t, report.RiskLevel, domain.RiskLevelCritical, "critical level")
	testutil.AssertTrue(t, len(report.RedFlags) > 0, "red flags present")
}

func TestScan_CollectorFailureBecomesWarning(t *testing.T) {
	ssl := mockCollectorWithError("ssl", 0, errors.New("connection refused"))
	whois := mockCollectorWithEvidence("whois", 0, &domain.WhoisData{DomainAge: domain.IntPtr(2000)})
	svc := newTestService(t, nil, ssl, whois)

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "collector failures never fail the scan")

	testutil.AssertContains(t, report.Warnings, "ssl: connection refused", "warning")
	testutil.AssertNil(t, report.Checks.SSL, "failed collector leaves field empty")
	testutil.AssertNotNil(t, report.Checks.Whois, "other evidence kept")
	testutil.AssertEqual(t, report.ScanConfidence, domain.ConfidenceMedium, "no scraper means medium")
	testutil.AssertContains(t, report.ScanNotes, IncompleteNote, "incomplete note")
}

func TestScan_CircuitOpenCountsAsSkipped(t *testing.T) {
	ssl := mockCollectorWithError("ssl", 0, perrors.Wrap(perrors.ErrCircuitOpen, "ssl"))
	svc := newTestService(t, nil, ssl, scraperOK())

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "scan")
	testutil.AssertLen(t, report.Warnings, 1, "warning recorded")

	summary := Summarize(report, []StageResult{{
		Executions: []CollectorExecution{
			{Name: "scraper"},
			{Name: "ssl", Error: perrors.ErrCircuitOpen, Skipped: true},
		},
	}}, time.Second)
	testutil.AssertEqual(t, summary.CollectorsOK, 1, "ok")
	testutil.AssertEqual(t, summary.CollectorsFailed, 0, "failed")
	testutil.AssertEqual(t, summary.CollectorsSkipped, 1, "skipped")
}

func TestScan_ScraperLimitedLowersConfidence(t *testing.T) {
	scraper := mockCollectorWithEvidence("scraper", 0, &domain.ScraperData{
		ScraperLimited: true,
		ScraperNotes:   []string{"Page appears to be rendered client-side"},
	})
	svc := newTestService(t, nil, scraper)

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "scan")
	testutil.AssertEqual(t, report.ScanConfidence, domain.ConfidenceLow, "confidence")
	testutil.AssertContains(t, report.ScanNotes, "Page appears to be rendered client-side", "scraper note")
}

func TestScan_ServesCachedReport(t *testing.T) {
	whois := mockCollectorWithEvidence("whois", 0, &domain.WhoisData{DomainAge: domain.IntPtr(900)})
	store := newMemStore()
	svc := newTestService(t, store, whois)

	first, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "first scan")

	second, err := svc.Scan(context.Background(), "https://AcmeWidgets.example/pricing/")
	testutil.AssertNoError(t, err, "second scan")

	testutil.AssertTrue(t, second.Cached, "served from store")
	testutil.AssertEqual(t, second.ID, first.ID, "same report")
	testutil.AssertEqual(t, whois.callCount(), 1, "collectors ran once")
}

func TestScan_ExpiredReportIsRescanned(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	whois := newMockCollector("whois", 0)
	store := newMemStore()
	svc := newTestServiceWith(t, ScanServiceOptions{
		Collectors: []ports.Collector{whois},
		Store:      store,
		Clock:      clock,
	})

	_, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "first scan")

	now = now.Add(domain.ReportTTL + time.Minute)
	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "second scan")

	testutil.AssertFalse(t, report.Cached, "expired report not served")
	testutil.AssertEqual(t, whois.callCount(), 2, "collectors ran again")
	testutil.AssertEqual(t, report.ExpiresAt, now.Add(domain.ReportTTL), "new expiry")
}

func TestScan_StoreFailuresAreNotFatal(t *testing.T) {
	store := newMemStore()
	store.findErr = errors.New("database is locked")
	store.saveErr = errors.New("disk full")
	svc := newTestService(t, store, scraperOK())

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "store errors are logged only")
	testutil.AssertNotNil(t, report, "report returned")
	testutil.AssertEqual(t, store.saveCount(), 1, "save attempted")
}

func TestScan_TimeoutProducesPartialReport(t *testing.T) {
	slow := newMockCollector("archive", 0)
	slow.collectFunc = func(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	svc := newTestServiceWith(t, ScanServiceOptions{
		Collectors: []ports.Collector{slow, scraperOK()},
		Timeout:    50 * time.Millisecond,
	})

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "deadline yields a partial report")
	testutil.AssertContains(t, report.ScanNotes, TimeoutNote, "timeout note")
	testutil.AssertLen(t, report.Warnings, 1, "slow collector warned")
	testutil.AssertNotNil(t, report.Checks.Scraper, "fast evidence kept")
}

func TestScan_CanceledByCaller(t *testing.T) {
	svc := newTestService(t, nil, scraperOK())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Scan(ctx, testURL)
	testutil.AssertTrue(t, errors.Is(err, domain.ErrScanCanceled), "expected ErrScanCanceled")
}

func TestScan_AttachesVerifiedBadge(t *testing.T) {
	registry, err := entities.NewVerifiedRegistry(entities.VerifiedSite{
		Domain:     "acmewidgets.example",
		VerifiedAt: "2026-01-01",
		ExpiresAt:  "2026-04-01",
		Category:   "SaaS",
	})
	testutil.AssertNoError(t, err, "registry")
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	registry.SetClock(func() time.Time { return now })

	svc := newTestServiceWith(t, ScanServiceOptions{
		Collectors: []ports.Collector{scraperOK()},
		Verified:   registry,
	})

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "scan")
	testutil.AssertNotNil(t, report.VerifiedBadge, "badge")
	testutil.AssertEqual(t, report.VerifiedBadge.Category, "SaaS", "category")
	testutil.AssertEqual(t, report.VerifiedBadge.DaysUntilExpiry, 31, "days")

	_, ok := svc.VerifiedBadge("unknown.example")
	testutil.AssertFalse(t, ok, "unverified domain")
}

func TestScan_NotifiesObservers(t *testing.T) {
	notifier := newMockNotifier()
	svc := newTestServiceWith(t, ScanServiceOptions{
		Collectors: []ports.Collector{scraperOK(), mockCollectorWithError("ssl", 0, errors.New("boom"))},
		Observers:  []ports.Notifier{notifier},
	})

	_, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "scan")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(notifier.getEventsByType(ports.EventTypeScanCompleted)) == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	testutil.AssertEqual(t, len(notifier.getEventsByType(ports.EventTypeScanStarted)), 1, "scan.started")
	testutil.AssertEqual(t, len(notifier.getEventsByType(ports.EventTypeCollectorFailed)), 1, "collector.failed")

	completed := notifier.getEventsByType(ports.EventTypeScanCompleted)
	testutil.AssertEqual(t, len(completed), 1, "scan.completed")
	data, ok := completed[0].Data.(ports.ScanCompletedEvent)
	testutil.AssertTrue(t, ok, "completed payload")
	testutil.AssertFalse(t, data.Cached, "fresh scan")
}

func TestReport_ByID(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, scraperOK())

	report, err := svc.Scan(context.Background(), testURL)
	testutil.AssertNoError(t, err, "scan")

	got, err := svc.Report(context.Background(), report.ID)
	testutil.AssertNoError(t, err, "report by id")
	testutil.AssertEqual(t, got.NormalizedURL, report.NormalizedURL, "same url")

	_, err = svc.Report(context.Background(), "missing")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrReportNotFound), "not found")
}

func TestClose_ClosesCollectors(t *testing.T) {
	whois := newMockCollector("whois", 0)
	svc, err := NewScanService(ScanServiceOptions{
		Collectors: []ports.Collector{whois},
		Logger:     testutil.NewTestLogger(),
	})
	testutil.AssertNoError(t, err, "new")
	testutil.AssertNoError(t, svc.Close(), "close")
	testutil.AssertTrue(t, whois.closed.Load(), "collector closed")
}
