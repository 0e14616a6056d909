package patterns

import (
	"context"
	"testing"

	"trustscan/internal/core/domain"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
	"trustscan/internal/testutil"
)

func TestCollect_FromScraperHTML(t *testing.T) {
	prior := domain.NewCheckResults("rewards.example")
	prior.Scraper = &domain.ScraperData{HTML: testutil.FixtureHTML}

	ev, err := New(logx.Nop()).Collect(context.Background(), domain.Target{}, prior)
	testutil.AssertNoError(t, err, "collect")

	data := ev.(*domain.PatternsData)
	testutil.AssertTrue(t, data.HasCategory(domain.CategoryFreeHostingEnterprise), "enterprise claim detected")
	testutil.AssertTrue(t, data.HasCategory(domain.CategoryImpossibleClaims), "100% secure detected")

	for _, m := range data.Matches {
		if m.Description == "Guarantees financial returns" {
			t.Error("script contents must not be analyzed")
		}
	}
}

func TestCollect_MissingContent(t *testing.T) {
	tests := []struct {
		name  string
		prior *domain.CheckResults
	}{
		{"no prior results", nil},
		{"scraper failed", domain.NewCheckResults("x.example")},
		{"empty html", &domain.CheckResults{Scraper: &domain.ScraperData{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := New(logx.Nop()).Collect(context.Background(), domain.Target{}, tt.prior)
			testutil.AssertError(t, err, "missing content")
			testutil.AssertContains(t, err.Error(), "page content unavailable", "message")
			testutil.AssertTrue(t, errors.Is(err, domain.ErrMissingInput), "missing input sentinel")
			testutil.AssertNil(t, ev, "no evidence")
		})
	}
}

func TestMetadata(t *testing.T) {
	p := New(logx.Nop())
	testutil.AssertEqual(t, p.Name(), "patterns", "name")
	testutil.AssertEqual(t, p.Stage(), 1, "runs after the scraper")
}
