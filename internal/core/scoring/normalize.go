// internal/core/scoring/normalize.go
package scoring

import "trustscan/internal/core/domain"

// evidence es la vista normalizada de CheckResults: cada campo es nil
// cuando el colector no aportó datos utilizables.
type evidence struct {
	domain   string
	whois    *domain.WhoisData
	ssl      *domain.SSLData
	hosting  *domain.HostingData
	scraper  *domain.ScraperData
	patterns *domain.PatternsData
	github   *domain.GithubData
	archive  *domain.ArchiveData

	// urlhaus veredicto de URLhaus (nil si la consulta falló)
	urlhaus   *domain.ThreatData
	phishTank *domain.PhishTankData
	spamhaus  *domain.SpamhausData
	abuseIPDB *domain.AbuseIPDBData

	// serverIP IP del servidor aunque la clasificación de hosting fallara
	serverIP string
}

// normalize descarta la evidencia ausente o con error.
func normalize(r *domain.CheckResults) evidence {
	if r == nil {
		return evidence{}
	}

	ev := evidence{domain: r.Domain}

	if r.Whois != nil && r.Whois.Error == "" {
		ev.whois = r.Whois
	}
	if r.SSL != nil && r.SSL.Error == "" {
		ev.ssl = r.SSL
	}
	if r.Hosting != nil {
		ev.serverIP = r.Hosting.IPAddress
		if r.Hosting.Error == "" {
			ev.hosting = r.Hosting
		}
	}
	if r.Scraper != nil && r.Scraper.Error == "" {
		ev.scraper = r.Scraper
	}
	if r.Patterns != nil && r.Patterns.Error == "" {
		ev.patterns = r.Patterns
	}
	if r.Github != nil && r.Github.Error == "" {
		ev.github = r.Github
	}
	if r.Archive != nil && r.Archive.Error == "" {
		ev.archive = r.Archive
	}

	if t := r.Threat; t != nil {
		if t.Error == "" {
			ev.urlhaus = t
		}
		if t.PhishTank != nil && t.PhishTank.Error == "" {
			ev.phishTank = t.PhishTank
		}
		if t.Spamhaus != nil && t.Spamhaus.Error == "" {
			ev.spamhaus = t.Spamhaus
		}
		if t.AbuseIPDB != nil && t.AbuseIPDB.Error == "" {
			ev.abuseIPDB = t.AbuseIPDB
		}
	}

	return ev
}
