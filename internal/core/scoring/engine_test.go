// internal/core/scoring/engine_test.go
package scoring

import (
	"reflect"
	"testing"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/testutil"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewEngine(WithClock(func() time.Time { return fixedNow }))
}

// establishedSite evidencia de un sitio antiguo y limpio.
func establishedSite() *domain.CheckResults {
	r := domain.NewCheckResults("example.com")
	r.Whois = &domain.WhoisData{DomainAge: domain.IntPtr(2000), Registrar: "Example Registrar"}
	r.SSL = &domain.SSLData{Valid: true, DaysRemaining: domain.IntPtr(60)}
	r.Hosting = &domain.HostingData{Provider: "Hetzner", IPAddress: "203.0.113.10"}
	r.Scraper = &domain.ScraperData{
		HasPrivacyPolicy:  true,
		HasTermsOfService: true,
		HasContactPage:    true,
		HasDocumentation:  true,
	}
	r.Patterns = &domain.PatternsData{Matches: []domain.PatternMatch{}}
	r.Github = &domain.GithubData{RepoFound: false}
	r.Archive = &domain.ArchiveData{Found: false}
	r.Threat = &domain.ThreatData{
		Tags:      []string{},
		PhishTank: &domain.PhishTankData{},
		Spamhaus:  &domain.SpamhausData{},
		AbuseIPDB: &domain.AbuseIPDBData{},
	}
	return r
}

func enterpriseMatch() domain.PatternMatch {
	return domain.PatternMatch{
		Pattern:     "enterprise[- ]grade",
		Category:    domain.CategoryFreeHostingEnterprise,
		Severity:    domain.SeverityHigh,
		Description: "Claims enterprise-level service",
		Matched:     "enterprise-grade",
	}
}

// freshFreeHostedSite dominio nuevo, SSL inválido y hosting gratuito con
// afirmaciones empresariales.
func freshFreeHostedSite() *domain.CheckResults {
	r := domain.NewCheckResults("newproject.com")
	r.Whois = &domain.WhoisData{DomainAge: domain.IntPtr(10)}
	r.SSL = &domain.SSLData{Valid: false}
	r.Hosting = &domain.HostingData{Provider: "Vercel", IsFreeHosting: true}
	r.Patterns = &domain.PatternsData{Matches: []domain.PatternMatch{enterpriseMatch()}}
	return r
}

func findFlag(flags []domain.RedFlag, title string) (domain.RedFlag, bool) {
	for _, f := range flags {
		if f.Title == title {
			return f, true
		}
	}
	return domain.RedFlag{}, false
}

func TestScore_EstablishedSite(t *testing.T) {
	res, breakdown := testEngine().Score(establishedSite())

	testutil.AssertEqual(t, res.RiskScore, 0, "risk score")
	testutil.AssertEqual(t, res.RiskLevel, domain.RiskLevelLow, "risk level")
	testutil.AssertEqual(t, len(res.RedFlags), 0, "no red flags")
	testutil.AssertEqual(t, breakdown.BaseScore, -75, "base score")
	testutil.AssertEqual(t, breakdown.RawScore, -75, "raw score")
	testutil.AssertEqual(t, len(breakdown.Adjustments), 7, "applied signals")
}

func TestScore_FreshFreeHostedSite(t *testing.T) {
	res, breakdown := testEngine().Score(freshFreeHostedSite())

	testutil.AssertEqual(t, len(res.RedFlags), 3, "flag count")
	testutil.AssertEqual(t, breakdown.RawScore, 55, "raw score")
	testutil.AssertEqual(t, res.RiskScore, 67, "smoothed score")
	testutil.AssertEqual(t, res.RiskLevel, domain.RiskLevelCritical, "critical flag forces level")

	testutil.AssertEqual(t, res.RedFlags[0].Title, "Invalid SSL Certificate", "critical first")
	testutil.AssertEqual(t, res.RedFlags[1].Title, "Free Hosting with Enterprise Claims", "high second")
	testutil.AssertEqual(t, res.RedFlags[2].Title, "New Domain", "low last")

	combined := res.RedFlags[1]
	testutil.AssertEqual(t, combined.Evidence, "Hosting: Vercel", "combined evidence")
	_, dup := findFlag(res.RedFlags, "Claims enterprise-level service")
	testutil.AssertFalse(t, dup, "enterprise pattern folded into combined flag")
}

func TestScore_EnterprisePatternWithoutFreeHosting(t *testing.T) {
	r := freshFreeHostedSite()
	r.Hosting.IsFreeHosting = false

	res := CalculateRiskScore(r)
	f, ok := findFlag(res.RedFlags, "Claims enterprise-level service")
	testutil.AssertTrue(t, ok, "pattern surfaces on its own")
	testutil.AssertEqual(t, f.Severity, domain.SeverityHigh, "pattern severity")
	testutil.AssertEqual(t, f.Evidence, `Matched: "enterprise-grade"`, "pattern evidence")

	_, combined := findFlag(res.RedFlags, "Free Hosting with Enterprise Claims")
	testutil.AssertFalse(t, combined, "no combined flag on paid hosting")
}

func TestScore_FreeHostingAloneIsNotFlagged(t *testing.T) {
	r := domain.NewCheckResults("myapp.com")
	r.Hosting = &domain.HostingData{Provider: "Netlify", IsFreeHosting: true}

	res := CalculateRiskScore(r)
	testutil.AssertEqual(t, len(res.RedFlags), 0, "free hosting alone")
	testutil.AssertEqual(t, res.RiskScore, 0, "score")
}

func TestScore_AllAbsent(t *testing.T) {
	for name, r := range map[string]*domain.CheckResults{
		"nil":         nil,
		"empty":       domain.NewCheckResults(""),
		"domain only": domain.NewCheckResults("example.com"),
	} {
		t.Run(name, func(t *testing.T) {
			res := CalculateRiskScore(r)
			testutil.AssertEqual(t, res.RiskScore, 0, "score")
			testutil.AssertEqual(t, res.RiskLevel, domain.RiskLevelLow, "level")
			testutil.AssertEqual(t, len(res.RedFlags), 0, "flags")
		})
	}
}

func TestScore_ErroredCollectorsAreNeutral(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.Whois = &domain.WhoisData{DomainAge: domain.IntPtr(3), Error: "rdap timeout"}
	r.SSL = &domain.SSLData{Valid: false, Error: "connection refused"}
	r.Scraper = &domain.ScraperData{Error: "fetch failed"}
	r.Patterns = &domain.PatternsData{Error: "parse html"}
	r.Threat = &domain.ThreatData{IsMalicious: true, Error: "urlhaus unavailable"}

	res := CalculateRiskScore(r)
	testutil.AssertEqual(t, len(res.RedFlags), 0, "errors never become findings")
	testutil.AssertEqual(t, res.RiskScore, 0, "score")
}

func TestScore_AbsenceNeverDecreasesScore(t *testing.T) {
	base := CalculateRiskScore(freshFreeHostedSite()).RiskScore

	drops := map[string]func(r *domain.CheckResults){
		"whois":    func(r *domain.CheckResults) { r.Whois = nil },
		"ssl":      func(r *domain.CheckResults) { r.SSL = nil },
		"hosting":  func(r *domain.CheckResults) { r.Hosting = nil },
		"patterns": func(r *domain.CheckResults) { r.Patterns = nil },
	}
	// Sin señales positivas, quitar evidencia solo puede quitar hallazgos.
	for name, drop := range drops {
		t.Run(name, func(t *testing.T) {
			r := freshFreeHostedSite()
			drop(r)
			got := CalculateRiskScore(r).RiskScore
			testutil.AssertTrue(t, got <= base, "dropping evidence does not raise score")
		})
	}

	establishedBase := CalculateRiskScore(establishedSite()).RiskScore
	r := establishedSite()
	r.Whois = nil
	testutil.AssertTrue(t, CalculateRiskScore(r).RiskScore >= establishedBase, "losing positive credit never lowers score")
}

func TestScore_NewDomainBoundary(t *testing.T) {
	for _, tc := range []struct {
		age  int
		want bool
	}{
		{0, true},
		{29, true},
		{30, false},
		{150, false},
	} {
		r := domain.NewCheckResults("example.com")
		r.Whois = &domain.WhoisData{DomainAge: domain.IntPtr(tc.age)}

		f, ok := findFlag(CalculateRiskScore(r).RedFlags, "New Domain")
		testutil.AssertEqual(t, ok, tc.want, "new domain flag")
		if ok {
			testutil.AssertEqual(t, f.Severity, domain.SeverityLow, "severity")
			testutil.AssertEqual(t, f.Category, domain.CategoryYoungDomainFunding, "category")
		}
	}
}

func TestScore_SSLExpiringSoon(t *testing.T) {
	for _, tc := range []struct {
		days int
		want bool
	}{
		{3, true},
		{6, true},
		{7, false},
		{45, false},
	} {
		r := domain.NewCheckResults("example.com")
		r.SSL = &domain.SSLData{Valid: true, DaysRemaining: domain.IntPtr(tc.days)}

		f, ok := findFlag(CalculateRiskScore(r).RedFlags, "SSL Certificate Expiring Very Soon")
		testutil.AssertEqual(t, ok, tc.want, "expiring flag")
		if ok {
			testutil.AssertEqual(t, f.Severity, domain.SeverityLow, "severity")
		}
	}
}

func TestScore_InvalidSSLEvidence(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.SSL = &domain.SSLData{Valid: false, ValidationError: "x509: certificate has expired"}

	f, ok := findFlag(CalculateRiskScore(r).RedFlags, "Invalid SSL Certificate")
	testutil.AssertTrue(t, ok, "flag present")
	testutil.AssertEqual(t, f.Evidence, "x509: certificate has expired", "validation error as evidence")

	r.SSL.ValidationError = ""
	f, _ = findFlag(CalculateRiskScore(r).RedFlags, "Invalid SSL Certificate")
	testutil.AssertEqual(t, f.Evidence, "Certificate validation failed", "fallback evidence")
}

func TestScore_MissingInformation(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.Scraper = &domain.ScraperData{HasContactPage: true}

	f, ok := findFlag(CalculateRiskScore(r).RedFlags, "Missing Essential Information")
	testutil.AssertTrue(t, ok, "two pages missing")
	testutil.AssertEqual(t, f.Evidence, "Could not find: Privacy Policy, Terms of Service", "missing set")

	r.Scraper.HasPrivacyPolicy = true
	_, ok = findFlag(CalculateRiskScore(r).RedFlags, "Missing Essential Information")
	testutil.AssertFalse(t, ok, "one missing page is tolerated")

	r.Scraper = &domain.ScraperData{ScraperLimited: true}
	_, ok = findFlag(CalculateRiskScore(r).RedFlags, "Missing Essential Information")
	testutil.AssertFalse(t, ok, "limited scrape is not trusted for absences")
}

func TestScore_Permissions(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.Scraper = &domain.ScraperData{
		HasPrivacyPolicy: true, HasTermsOfService: true, HasContactPage: true,
		PermissionsRequested: []string{"read:user", "repo"},
	}

	f, _ := findFlag(CalculateRiskScore(r).RedFlags, "Requests Sensitive Permissions")
	testutil.AssertEqual(t, f.Severity, domain.SeverityHigh, "two permissions")
	testutil.AssertEqual(t, f.Evidence, "Permissions: read:user, repo", "evidence")

	r.Scraper.PermissionsRequested = append(r.Scraper.PermissionsRequested, "admin:org")
	f, _ = findFlag(CalculateRiskScore(r).RedFlags, "Requests Sensitive Permissions")
	testutil.AssertEqual(t, f.Severity, domain.SeverityCritical, "three permissions")
}

func TestScore_GenericTestimonials(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.Scraper = &domain.ScraperData{
		HasPrivacyPolicy: true, HasTermsOfService: true, HasContactPage: true,
		Testimonials: []domain.Testimonial{
			{Text: "Best product ever!", IsGeneric: true},
			{Text: "Detailed review of the API latency", IsGeneric: false},
		},
	}
	_, ok := findFlag(CalculateRiskScore(r).RedFlags, "Generic Testimonials")
	testutil.AssertFalse(t, ok, "single generic testimonial")

	r.Scraper.Testimonials = append(r.Scraper.Testimonials, domain.Testimonial{Text: "Amazing!", IsGeneric: true})
	f, ok := findFlag(CalculateRiskScore(r).RedFlags, "Generic Testimonials")
	testutil.AssertTrue(t, ok, "two generic testimonials")
	testutil.AssertEqual(t, f.Evidence, "Found 2 potentially fake testimonials", "evidence")
}

func TestScore_Github(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.Github = &domain.GithubData{
		RepoFound:  true,
		IsArchived: true,
		LastCommit: fixedNow.AddDate(0, 0, -400).Format(time.RFC3339),
		Stars:      domain.IntPtr(2),
	}

	flags := testEngine().mustScore(r).RedFlags
	archived, ok := findFlag(flags, "Archived Repository")
	testutil.AssertTrue(t, ok, "archived")
	testutil.AssertEqual(t, archived.Severity, domain.SeverityMedium, "archived severity")

	inactive, ok := findFlag(flags, "Inactive Repository")
	testutil.AssertTrue(t, ok, "inactive")
	testutil.AssertEqual(t, inactive.Description, "Last commit was 400 days ago. Project may be abandoned.", "inactive description")

	_, ok = findFlag(flags, "Low Stars")
	testutil.AssertFalse(t, ok, "low stars never flagged")

	r.Github.IsArchived = false
	r.Github.LastCommit = fixedNow.AddDate(0, 0, -10).Format(time.RFC3339)
	testutil.AssertEqual(t, len(testEngine().mustScore(r).RedFlags), 0, "active repo")
}

func TestScore_ThreatSourcesAreAdditive(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.Hosting = &domain.HostingData{Provider: "Unknown", IPAddress: "203.0.113.7"}
	r.Threat = &domain.ThreatData{
		IsMalicious: true,
		Threat:      "malware_download",
		Tags:        []string{"exe", "trojan"},
		PhishTank:   &domain.PhishTankData{IsPhishing: true, VerifiedAt: "2026-01-02"},
		Spamhaus:    &domain.SpamhausData{Listed: true, ReturnCode: "127.0.1.4", ListType: "phishing_domain"},
		AbuseIPDB:   &domain.AbuseIPDBData{IsMalicious: true, AbuseScore: 80, TotalReports: 12},
	}

	res := CalculateRiskScore(r)
	testutil.AssertEqual(t, res.RiskLevel, domain.RiskLevelCritical, "level")

	urlhaus, ok := findFlag(res.RedFlags, "Known Malicious URL")
	testutil.AssertTrue(t, ok, "urlhaus")
	testutil.AssertEqual(t, urlhaus.Evidence, "Threat type: malware_download, Tags: exe, trojan", "urlhaus evidence")

	phish, ok := findFlag(res.RedFlags, "Confirmed Phishing Site")
	testutil.AssertTrue(t, ok, "phishtank")
	testutil.AssertEqual(t, phish.Severity, domain.SeverityCritical, "phishtank severity")

	spam, ok := findFlag(res.RedFlags, "Listed on Spamhaus Domain Blocklist")
	testutil.AssertTrue(t, ok, "spamhaus")
	testutil.AssertEqual(t, spam.Evidence, "Listing: phishing_domain (127.0.1.4)", "spamhaus evidence")

	abuse, ok := findFlag(res.RedFlags, "Suspicious IP Address")
	testutil.AssertTrue(t, ok, "abuseipdb")
	testutil.AssertEqual(t, abuse.Severity, domain.SeverityHigh, "abuseipdb severity")
	testutil.AssertEqual(t, abuse.Evidence, "Abuse confidence: 80%, 12 reports", "abuseipdb evidence")
}

func TestScore_CloudIPSuppression(t *testing.T) {
	build := func(score int) *domain.CheckResults {
		r := domain.NewCheckResults("example.com")
		r.Hosting = &domain.HostingData{Provider: "Cloudflare", IPAddress: "104.16.1.1"}
		r.Threat = &domain.ThreatData{
			AbuseIPDB: &domain.AbuseIPDBData{IsMalicious: true, AbuseScore: score, TotalReports: 40},
		}
		return r
	}

	res := CalculateRiskScore(build(60))
	testutil.AssertFalse(t, res.HasSeverity(domain.SeverityHigh), "no high flag on shared IP")
	testutil.AssertEqual(t, len(res.RedFlags), 0, "below threshold produces nothing")

	res = CalculateRiskScore(build(95))
	testutil.AssertEqual(t, len(res.RedFlags), 1, "exactly one flag")
	testutil.AssertEqual(t, res.RedFlags[0].Severity, domain.SeverityLow, "downgraded severity")
	testutil.AssertEqual(t, res.RedFlags[0].Title, "Cloud IP Has High Abuse Reports", "title")
}

func TestScore_CloudIPFromErroredHosting(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.Hosting = &domain.HostingData{IPAddress: "151.101.1.1", Error: "provider lookup failed"}
	r.Threat = &domain.ThreatData{
		AbuseIPDB: &domain.AbuseIPDBData{IsMalicious: true, AbuseScore: 70},
	}
	testutil.AssertEqual(t, len(CalculateRiskScore(r).RedFlags), 0, "ip still recognized as cloud")
}

func TestScore_KeywordFlags(t *testing.T) {
	res := CalculateRiskScore(domain.NewCheckResults("chatgpt-support.com"))

	var impersonation []domain.RedFlag
	for _, f := range res.RedFlags {
		if f.Severity == domain.SeverityCritical {
			impersonation = append(impersonation, f)
		}
	}
	testutil.AssertEqual(t, len(impersonation), 1, "one critical impersonation flag")
	testutil.AssertEqual(t, impersonation[0].Description, "Suspicious keyword detected in domain name", "description")
	testutil.AssertEqual(t, impersonation[0].Evidence, "Domain: chatgpt-support.com", "evidence")
	testutil.AssertEqual(t, res.RiskLevel, domain.RiskLevelCritical, "level")
}

func TestScore_DedupFirstWins(t *testing.T) {
	r := domain.NewCheckResults("example.com")
	r.Patterns = &domain.PatternsData{Matches: []domain.PatternMatch{
		{Category: domain.CategorySuspiciousPatterns, Severity: domain.SeverityHigh, Description: "Same title", Matched: "first"},
		{Category: domain.CategorySuspiciousPatterns, Severity: domain.SeverityLow, Description: "Same title", Matched: "second"},
	}}

	res, breakdown := testEngine().Score(r)
	testutil.AssertEqual(t, len(res.RedFlags), 1, "deduplicated")
	testutil.AssertEqual(t, res.RedFlags[0].Evidence, `Matched: "first"`, "first wins")
	testutil.AssertEqual(t, breakdown.FlagPoints, 20, "only surviving flag counts")
}

func TestScore_Idempotent(t *testing.T) {
	e := testEngine()
	for _, r := range []*domain.CheckResults{establishedSite(), freshFreeHostedSite(), nil} {
		a, ab := e.Score(r)
		b, bb := e.Score(r)
		testutil.AssertTrue(t, reflect.DeepEqual(a, b), "same result")
		testutil.AssertTrue(t, reflect.DeepEqual(ab, bb), "same breakdown")
	}
}

func TestScore_BreakdownMatchesResult(t *testing.T) {
	res, breakdown := testEngine().Score(freshFreeHostedSite())

	testutil.AssertEqual(t, breakdown.FinalScore, res.RiskScore, "final score")
	testutil.AssertEqual(t, breakdown.FlagPoints, 55, "flag points")
	testutil.AssertEqual(t, breakdown.BaseScore, 0, "no positive signals")
	testutil.AssertEqual(t, len(breakdown.Adjustments), 0, "no adjustments")
}

func TestSmooth(t *testing.T) {
	testutil.AssertEqual(t, Smooth(-75), 0, "negative")
	testutil.AssertEqual(t, Smooth(0), 0, "zero")
	testutil.AssertEqual(t, Smooth(5), 10, "single low flag")
	testutil.AssertEqual(t, Smooth(55), 67, "scenario raw")
	testutil.AssertEqual(t, Smooth(10000), 100, "upper bound")

	prev := 0
	for raw := -50; raw <= 500; raw++ {
		got := Smooth(raw)
		testutil.AssertTrue(t, got >= prev, "monotonic")
		testutil.AssertTrue(t, got >= 0 && got <= 100, "bounded")
		prev = got
	}
}

func TestScore_AddingFlagNeverLowersScore(t *testing.T) {
	r := freshFreeHostedSite()
	before := CalculateRiskScore(r).RiskScore

	for _, sev := range []domain.Severity{domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical} {
		r.Patterns.Matches = append(r.Patterns.Matches, domain.PatternMatch{
			Category:    domain.CategoryImpossibleClaims,
			Severity:    sev,
			Description: "extra " + sev.String(),
		})
		after := CalculateRiskScore(r).RiskScore
		testutil.AssertTrue(t, after >= before, "monotonic in flags")
		before = after
	}
}

func TestLevelFor(t *testing.T) {
	low := []domain.RedFlag{{Severity: domain.SeverityLow}}
	crit := []domain.RedFlag{{Severity: domain.SeverityCritical}}

	testutil.AssertEqual(t, LevelFor(0, nil), domain.RiskLevelLow, "zero")
	testutil.AssertEqual(t, LevelFor(19, low), domain.RiskLevelLow, "below medium")
	testutil.AssertEqual(t, LevelFor(20, low), domain.RiskLevelMedium, "medium")
	testutil.AssertEqual(t, LevelFor(40, low), domain.RiskLevelHigh, "high")
	testutil.AssertEqual(t, LevelFor(70, low), domain.RiskLevelCritical, "critical by score")
	testutil.AssertEqual(t, LevelFor(26, crit), domain.RiskLevelCritical, "critical by flag")
}

func (e *Engine) mustScore(r *domain.CheckResults) domain.ScoringResult {
	res, _ := e.Score(r)
	return res
}
