// internal/core/detect/keywords.go
package detect

import (
	"fmt"
	"regexp"
	"strings"

	"trustscan/internal/core/domain"
	"trustscan/internal/platform/validator"
)

// aiBrand asocia una marca de IA con sus dominios oficiales.
type aiBrand struct {
	keyword         string
	officialDomains []string
}

// aiBrands marcas de IA suplantadas con frecuencia (orden significativo).
var aiBrands = []aiBrand{
	{"chatgpt", []string{"chatgpt.com", "chat.openai.com", "openai.com"}},
	{"chat-gpt", nil},
	{"openai", []string{"openai.com"}},
	{"midjourney", []string{"midjourney.com"}},
	{"claude", []string{"claude.ai", "anthropic.com"}},
	{"gemini", []string{"gemini.google.com"}},
	{"copilot", []string{"copilot.microsoft.com", "github.com"}},
	{"bard", []string{"bard.google.com"}},
	{"gpt-4", []string{"openai.com"}},
	{"gpt4", []string{"openai.com"}},
	{"dall-e", []string{"openai.com"}},
	{"dalle", []string{"openai.com"}},
	{"sora", []string{"openai.com"}},
}

var suspiciousAIPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^ai-?pro\.`),
	regexp.MustCompile(`(?i)^ai-?[a-z]+-?ai\.`),
	regexp.MustCompile(`(?i)-ai-?(pro|premium|plus|free)\.`),
}

// suspiciousTLDs TLDs sobrerrepresentados en sitios fraudulentos.
var suspiciousTLDs = map[string]struct{}{
	".online": {}, ".top": {}, ".xyz": {}, ".site": {}, ".click": {},
	".link": {}, ".work": {}, ".fun": {}, ".icu": {},
}

// veryBadTLDs subconjunto que por sí solo genera un hallazgo.
var veryBadTLDs = map[string]struct{}{
	".top": {}, ".click": {}, ".icu": {},
}

var suspiciousSuffixes = []string{
	"-pc", "-pro", "-go", "-app", "-free", "-download", "-official", "-support",
}

// scamKeywords vocabulario de estafa, dinero fácil, cripto, confianza
// forzada, urgencia y suplantación de soporte.
var scamKeywords = []string{
	"scam", "legit", "real", "official", "verify",
	"free-money", "freemoney", "free-cash", "freecash", "instant-cash",
	"get-rich", "getrich", "make-money", "makemoney", "easy-money",
	"crypto-free", "free-crypto", "airdrop", "double-your", "doubleyour",
	"guaranteed-profit", "guaranteed-returns", "free-btc", "free-eth",
	"trust-me", "trustme", "definitely-not", "definitelynot", "totally-real",
	"legit-not-scam", "not-a-scam", "notascam", "safe-and-secure",
	"limited-time", "act-now", "dont-miss", "last-chance",
	"official-support", "helpdesk-login", "account-verify", "secure-login",
}

// keywordTLDCombos se evalúan sobre el dominio en minúsculas.
var keywordTLDCombos = []*regexp.Regexp{
	regexp.MustCompile(`free.*\.(app|io|dev|site|online|xyz)$`),
	regexp.MustCompile(`crypto.*\.(app|io|dev|site|online|xyz)$`),
	regexp.MustCompile(`money.*\.(app|io|dev|site|online|xyz)$`),
	regexp.MustCompile(`profit.*\.(app|io|dev|site|online|xyz)$`),
}

// excessiveHyphens umbral de guiones a partir del cual se reporta.
const excessiveHyphens = 4

// CheckDomainKeywords inspecciona el nombre de dominio en busca de
// suplantación de marcas de IA, TLDs y sufijos sospechosos, vocabulario
// de estafa y guiones excesivos. Es una función pura.
func CheckDomainKeywords(domainName string) []domain.PatternMatch {
	matches := []domain.PatternMatch{}
	lower := strings.ToLower(domainName)

	labels := strings.Split(lower, ".")
	tld := "." + labels[len(labels)-1]
	registrable := lower
	if len(labels) >= 2 {
		registrable = strings.Join(labels[len(labels)-2:], ".")
	}

	// 1. Suplantación de marcas de IA
	for _, brand := range aiBrands {
		if !strings.Contains(lower, brand.keyword) {
			continue
		}
		if isOfficialDomain(lower, registrable, brand.officialDomains) {
			continue
		}

		matches = append(matches, domain.PatternMatch{
			Pattern:     "ai-impersonator-" + brand.keyword,
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityCritical,
			Description: impersonationDescription(lower, tld, strings.ToUpper(brand.keyword)),
			Matched:     domainName,
		})
		break
	}

	// 2. Patrones genéricos de nombres "AI"
	for _, re := range suspiciousAIPatterns {
		if re.MatchString(lower) {
			matches = append(matches, domain.PatternMatch{
				Pattern:     "suspicious-ai-pattern",
				Category:    domain.CategorySuspiciousPatterns,
				Severity:    domain.SeverityHigh,
				Description: "Domain matches suspicious AI-related naming pattern",
				Matched:     domainName,
			})
			break
		}
	}

	// 3. TLD muy sospechoso
	if _, bad := veryBadTLDs[tld]; bad {
		matches = append(matches, domain.PatternMatch{
			Pattern:     "suspicious-tld-" + tld,
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Domain uses suspicious TLD (%s) commonly associated with scam sites", tld),
			Matched:     domainName,
		})
	}

	// 4. Sufijo sospechoso (solo el primero)
	for _, suffix := range suspiciousSuffixes {
		if !strings.Contains(lower, suffix) {
			continue
		}
		m := domain.PatternMatch{
			Pattern:     "suspicious-suffix-" + suffix,
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("Domain contains suspicious suffix %q", suffix),
			Matched:     domainName,
		}
		if suffix == "-pc" {
			m.Severity = domain.SeverityHigh
			m.Description = `Domain contains "-pc" suffix (common in malware distribution sites)`
		}
		matches = append(matches, m)
		break
	}

	// 5. Vocabulario de estafa (todas las coincidencias)
	for _, kw := range scamKeywords {
		if !strings.Contains(lower, kw) && !strings.Contains(lower, strings.ReplaceAll(kw, "-", "")) {
			continue
		}
		severity := domain.SeverityMedium
		if strings.Contains(kw, "scam") || strings.Contains(kw, "verify") {
			severity = domain.SeverityHigh
		}
		matches = append(matches, domain.PatternMatch{
			Pattern:     kw,
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    severity,
			Description: fmt.Sprintf("Suspicious keyword %q in domain name", kw),
			Matched:     domainName,
		})
	}

	// 6. Guiones excesivos
	if strings.Count(lower, "-") >= excessiveHyphens {
		matches = append(matches, domain.PatternMatch{
			Pattern:     "excessive-hyphens",
			Category:    domain.CategorySuspiciousPatterns,
			Severity:    domain.SeverityMedium,
			Description: "Domain has many hyphens (common in scam domains)",
			Matched:     domainName,
		})
	}

	// 7. Palabra clave + TLD genérico
	for _, re := range keywordTLDCombos {
		if re.MatchString(lower) {
			matches = append(matches, domain.PatternMatch{
				Pattern:     re.String(),
				Category:    domain.CategorySuspiciousPatterns,
				Severity:    domain.SeverityMedium,
				Description: "Suspicious keyword combined with generic TLD",
				Matched:     domainName,
			})
			break
		}
	}

	return matches
}

// isOfficialDomain indica si el dominio pertenece a alguno de los oficiales.
func isOfficialDomain(lower, registrable string, official []string) bool {
	for _, o := range official {
		if validator.MatchesDomain(lower, o) || registrable == o {
			return true
		}
	}
	return false
}

func impersonationDescription(lower, tld, brand string) string {
	if strings.Contains(lower, "-pc") {
		return fmt.Sprintf(`MALWARE RISK: Domain impersonates %s with "-pc" suffix (known malware distribution pattern)`, brand)
	}
	if _, ok := suspiciousTLDs[tld]; ok {
		return fmt.Sprintf("Domain impersonates %s on suspicious TLD (%s)", brand, tld)
	}
	return fmt.Sprintf("Domain impersonates %s (not an official domain)", brand)
}
