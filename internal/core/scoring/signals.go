// internal/core/scoring/signals.go
package scoring

// Puntos de las señales positivas. Valores ajustados a mano.
const (
	PointsDomainOver5Years  = -40
	PointsDomainOver1Year   = -20
	PointsDomainOver6Months = -10
	PointsValidSSL          = -10
	PointsPolicyPage        = -5
	PointsPaidHosting       = -5
	PointsPopularRepo       = -10
	PointsManyContributors  = -5
	PointsArchiveHistory    = -10
)

// Umbrales de las señales positivas.
const (
	fiveYearsDays        = 1825
	oneYearDays          = 365
	sixMonthsDays        = 180
	sslRunwayDays        = 30
	popularRepoStars     = 10
	manyContributors     = 5
	archiveSnapshotDepth = 10
)

// positiveSignal reduce el riesgo cuando su condición se cumple.
type positiveSignal struct {
	reason  string
	points  int
	applies func(ev evidence) bool
}

func domainAge(ev evidence) (int, bool) {
	if ev.whois == nil || ev.whois.DomainAge == nil {
		return 0, false
	}
	return *ev.whois.DomainAge, true
}

// positiveSignals lista ordenada de señales de confianza. Los tramos de
// edad son mutuamente excluyentes.
var positiveSignals = []positiveSignal{
	{"Domain older than 5 years", PointsDomainOver5Years, func(ev evidence) bool {
		age, ok := domainAge(ev)
		return ok && age > fiveYearsDays
	}},
	{"Domain older than 1 year", PointsDomainOver1Year, func(ev evidence) bool {
		age, ok := domainAge(ev)
		return ok && age > oneYearDays && age <= fiveYearsDays
	}},
	{"Domain older than 6 months", PointsDomainOver6Months, func(ev evidence) bool {
		age, ok := domainAge(ev)
		return ok && age > sixMonthsDays && age <= oneYearDays
	}},
	{"Valid SSL certificate", PointsValidSSL, func(ev evidence) bool {
		return ev.ssl != nil && ev.ssl.Valid && ev.ssl.DaysRemaining != nil && *ev.ssl.DaysRemaining > sslRunwayDays
	}},
	{"Has privacy policy", PointsPolicyPage, func(ev evidence) bool {
		return ev.scraper != nil && ev.scraper.HasPrivacyPolicy
	}},
	{"Has terms of service", PointsPolicyPage, func(ev evidence) bool {
		return ev.scraper != nil && ev.scraper.HasTermsOfService
	}},
	{"Has contact information", PointsPolicyPage, func(ev evidence) bool {
		return ev.scraper != nil && ev.scraper.HasContactPage
	}},
	{"Has documentation", PointsPolicyPage, func(ev evidence) bool {
		return ev.scraper != nil && ev.scraper.HasDocumentation
	}},
	{"Paid hosting provider", PointsPaidHosting, func(ev evidence) bool {
		return ev.hosting != nil && !ev.hosting.IsFreeHosting
	}},
	{"Popular GitHub repository", PointsPopularRepo, func(ev evidence) bool {
		return ev.github != nil && ev.github.RepoFound && ev.github.Stars != nil && *ev.github.Stars > popularRepoStars
	}},
	{"Multiple GitHub contributors", PointsManyContributors, func(ev evidence) bool {
		return ev.github != nil && ev.github.RepoFound && ev.github.Contributors != nil && *ev.github.Contributors > manyContributors
	}},
	{"Established archive.org history", PointsArchiveHistory, func(ev evidence) bool {
		return ev.archive != nil && ev.archive.SnapshotCount != nil && *ev.archive.SnapshotCount > archiveSnapshotDepth
	}},
}
