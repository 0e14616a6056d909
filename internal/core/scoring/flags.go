// internal/core/scoring/flags.go
package scoring

import (
	"fmt"
	"strings"
	"time"

	"trustscan/internal/core/domain"
)

// Umbrales de los hallazgos.
const (
	newDomainDays            = 30
	sslExpiringDays          = 7
	missingPagesThreshold    = 2
	criticalPermissionCount  = 3
	genericTestimonialCount  = 2
	inactiveRepoDays         = 365
	cloudAbuseScoreThreshold = 90
)

// flagSet acumula hallazgos y conserva el primero de cada Category+Title.
type flagSet struct {
	order []domain.RedFlag
	seen  map[string]struct{}
}

func newFlagSet() *flagSet {
	return &flagSet{seen: make(map[string]struct{})}
}

func (s *flagSet) add(f domain.RedFlag) {
	key := f.Key()
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	s.order = append(s.order, f)
}

func (s *flagSet) flags() []domain.RedFlag {
	out := make([]domain.RedFlag, len(s.order))
	copy(out, s.order)
	return out
}

// keywordFlags convierte las coincidencias del dominio en hallazgos.
func keywordFlags(s *flagSet, matches []domain.PatternMatch) {
	for _, m := range matches {
		s.add(domain.RedFlag{
			Category:    m.Category,
			Severity:    m.Severity,
			Title:       m.Description,
			Description: "Suspicious keyword detected in domain name",
			Evidence:    "Domain: " + m.Matched,
		})
	}
}

func whoisFlags(s *flagSet, ev evidence) {
	age, ok := domainAge(ev)
	if !ok || age >= newDomainDays {
		return
	}
	s.add(domain.RedFlag{
		Category:    domain.CategoryYoungDomainFunding,
		Severity:    domain.SeverityLow,
		Title:       "New Domain",
		Description: fmt.Sprintf("Domain is %d days old. This alone is not suspicious - many legitimate projects are new.", age),
		Evidence:    fmt.Sprintf("Registered %d days ago", age),
	})
}

func sslFlags(s *flagSet, ev evidence) {
	if ev.ssl == nil {
		return
	}
	if !ev.ssl.Valid {
		evidence := ev.ssl.ValidationError
		if evidence == "" {
			evidence = "Certificate validation failed"
		}
		s.add(domain.RedFlag{
			Category:    domain.CategorySSLIssues,
			Severity:    domain.SeverityCritical,
			Title:       "Invalid SSL Certificate",
			Description: "The site has an invalid or untrusted SSL certificate. Your connection may not be secure.",
			Evidence:    evidence,
		})
		return
	}
	if ev.ssl.DaysRemaining != nil && *ev.ssl.DaysRemaining < sslExpiringDays {
		s.add(domain.RedFlag{
			Category:    domain.CategorySSLIssues,
			Severity:    domain.SeverityLow,
			Title:       "SSL Certificate Expiring Very Soon",
			Description: fmt.Sprintf("SSL certificate expires in %d days.", *ev.ssl.DaysRemaining),
		})
	}
}

// hostingFlags solo reporta hosting gratuito combinado con afirmaciones
// de nivel empresarial. Retorna true si el hallazgo combinado se emitió.
func hostingFlags(s *flagSet, ev evidence) bool {
	if ev.hosting == nil || !ev.hosting.IsFreeHosting {
		return false
	}
	if !ev.patterns.HasCategory(domain.CategoryFreeHostingEnterprise) {
		return false
	}
	s.add(domain.RedFlag{
		Category:    domain.CategoryFreeHostingEnterprise,
		Severity:    domain.SeverityHigh,
		Title:       "Free Hosting with Enterprise Claims",
		Description: fmt.Sprintf("Site is hosted on %s but claims enterprise-level services.", ev.hosting.Provider),
		Evidence:    "Hosting: " + ev.hosting.Provider,
	})
	return true
}

func scraperFlags(s *flagSet, ev evidence) {
	sc := ev.scraper
	if sc == nil {
		return
	}

	// Las ausencias solo son fiables si la página no depende de JS
	if !sc.ScraperLimited {
		var missing []string
		if !sc.HasPrivacyPolicy {
			missing = append(missing, "Privacy Policy")
		}
		if !sc.HasTermsOfService {
			missing = append(missing, "Terms of Service")
		}
		if !sc.HasContactPage {
			missing = append(missing, "Contact Information")
		}
		if len(missing) >= missingPagesThreshold {
			s.add(domain.RedFlag{
				Category:    domain.CategoryMissingInfo,
				Severity:    domain.SeverityLow,
				Title:       "Missing Essential Information",
				Description: "Site may lack important pages.",
				Evidence:    "Could not find: " + strings.Join(missing, ", "),
			})
		}
	}

	if n := len(sc.PermissionsRequested); n > 0 {
		severity := domain.SeverityHigh
		if n >= criticalPermissionCount {
			severity = domain.SeverityCritical
		}
		s.add(domain.RedFlag{
			Category:    domain.CategoryDangerousPermissions,
			Severity:    severity,
			Title:       "Requests Sensitive Permissions",
			Description: "This app requests permissions that could compromise your security or privacy.",
			Evidence:    "Permissions: " + strings.Join(sc.PermissionsRequested, ", "),
		})
	}

	if n := sc.GenericTestimonialCount(); n >= genericTestimonialCount {
		s.add(domain.RedFlag{
			Category:    domain.CategoryGenericTestimonials,
			Severity:    domain.SeverityMedium,
			Title:       "Generic Testimonials",
			Description: "Testimonials appear generic and may be fabricated.",
			Evidence:    fmt.Sprintf("Found %d potentially fake testimonials", n),
		})
	}
}

func patternFlags(s *flagSet, ev evidence, enterpriseFolded bool) {
	if ev.patterns == nil {
		return
	}
	for _, m := range ev.patterns.Matches {
		if enterpriseFolded && m.Category == domain.CategoryFreeHostingEnterprise {
			continue
		}
		s.add(domain.RedFlag{
			Category:    m.Category,
			Severity:    m.Severity,
			Title:       m.Description,
			Description: "Detected suspicious pattern in site content.",
			Evidence:    fmt.Sprintf("Matched: %q", m.Matched),
		})
	}
}

func githubFlags(s *flagSet, ev evidence, now time.Time) {
	gh := ev.github
	if gh == nil || !gh.RepoFound {
		return
	}
	if gh.IsArchived {
		s.add(domain.RedFlag{
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityMedium,
			Title:       "Archived Repository",
			Description: "The linked GitHub repository is archived and no longer maintained.",
		})
	}
	if gh.LastCommit == "" {
		return
	}
	last, err := time.Parse(time.RFC3339, gh.LastCommit)
	if err != nil {
		return
	}
	days := int(now.Sub(last).Hours() / 24)
	if days > inactiveRepoDays {
		s.add(domain.RedFlag{
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityLow,
			Title:       "Inactive Repository",
			Description: fmt.Sprintf("Last commit was %d days ago. Project may be abandoned.", days),
		})
	}
}

// threatFlags evalúa cada fuente de inteligencia de forma independiente.
func threatFlags(s *flagSet, ev evidence) {
	if t := ev.urlhaus; t != nil && t.IsMalicious {
		evidence := "Flagged by URLhaus threat database"
		if t.Threat != "" {
			evidence = "Threat type: " + t.Threat
			if len(t.Tags) > 0 {
				evidence += ", Tags: " + strings.Join(t.Tags, ", ")
			}
		}
		s.add(domain.RedFlag{
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityCritical,
			Title:       "Known Malicious URL",
			Description: "This URL has been flagged as malicious by threat intelligence databases.",
			Evidence:    evidence,
		})
	}

	if p := ev.phishTank; p != nil && p.IsPhishing {
		evidence := "Verified by PhishTank"
		if p.VerifiedAt != "" {
			evidence += " on " + p.VerifiedAt
		}
		s.add(domain.RedFlag{
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityCritical,
			Title:       "Confirmed Phishing Site",
			Description: "This URL is listed as a verified phishing site in the PhishTank database.",
			Evidence:    evidence,
		})
	}

	if sp := ev.spamhaus; sp != nil && sp.Listed {
		evidence := fmt.Sprintf("Listing: %s (%s)", sp.ListType, sp.ReturnCode)
		s.add(domain.RedFlag{
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityCritical,
			Title:       "Listed on Spamhaus Domain Blocklist",
			Description: "This domain appears on the Spamhaus Domain Block List (DBL).",
			Evidence:    evidence,
		})
	}

	if a := ev.abuseIPDB; a != nil && a.IsMalicious {
		evidence := fmt.Sprintf("Abuse confidence: %d%%, %d reports", a.AbuseScore, a.TotalReports)
		if provider, cloud := CloudProvider(ev.serverIP); cloud {
			// IP compartida: solo se reporta con confianza de abuso muy alta
			if a.AbuseScore > cloudAbuseScoreThreshold {
				s.add(domain.RedFlag{
					Category:    domain.CategorySuspiciousPatterns,
					Severity:    domain.SeverityLow,
					Title:       "Cloud IP Has High Abuse Reports",
					Description: fmt.Sprintf("The server shares a %s IP address with many other sites and that address has a high abuse score.", provider),
					Evidence:    evidence,
				})
			}
			return
		}
		s.add(domain.RedFlag{
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityHigh,
			Title:       "Suspicious IP Address",
			Description: "The server IP address has been reported for abusive activity.",
			Evidence:    evidence,
		})
	}
}
