// internal/core/detect/rules.go
package detect

import (
	"regexp"

	"trustscan/internal/core/domain"
)

// Rule es un detector de contenido con supresión contextual.
// Dispara si Pattern coincide, ningún Unless coincide y, si OnlyIf no
// está vacío, al menos uno de OnlyIf coincide.
type Rule struct {
	// Source expresión original, reportada en PatternMatch.Pattern
	Source      string
	Pattern     *regexp.Regexp
	Category    domain.Category
	Severity    domain.Severity
	Description string
	Unless      []*regexp.Regexp
	OnlyIf      []*regexp.Regexp
}

// ruleOption modifica una regla en construcción.
type ruleOption func(*Rule)

func unless(patterns ...string) ruleOption {
	return func(r *Rule) {
		for _, p := range patterns {
			r.Unless = append(r.Unless, regexp.MustCompile("(?i)"+p))
		}
	}
}

func onlyIf(patterns ...string) ruleOption {
	return func(r *Rule) {
		for _, p := range patterns {
			r.OnlyIf = append(r.OnlyIf, regexp.MustCompile("(?i)"+p))
		}
	}
}

// caseSensitive recompila el patrón sin la bandera (?i).
func caseSensitive() ruleOption {
	return func(r *Rule) {
		r.Pattern = regexp.MustCompile(r.Source)
	}
}

func rule(source string, category domain.Category, severity domain.Severity, description string, opts ...ruleOption) Rule {
	r := Rule{
		Source:      source,
		Pattern:     regexp.MustCompile("(?i)" + source),
		Category:    category,
		Severity:    severity,
		Description: description,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

const (
	catFreeHosting  = domain.CategoryFreeHostingEnterprise
	catImpossible   = domain.CategoryImpossibleClaims
	catFunding      = domain.CategoryYoungDomainFunding
	catSuspicious   = domain.CategorySuspiciousPatterns
	catUnverifiable = domain.CategoryUnverifiableCompany
	catPermissions  = domain.CategoryDangerousPermissions
	catTestimonials = domain.CategoryGenericTestimonials

	sevLow      = domain.SeverityLow
	sevMedium   = domain.SeverityMedium
	sevHigh     = domain.SeverityHigh
	sevCritical = domain.SeverityCritical
)

// patternRules tabla ordenada de detectores. Para un mismo par
// (categoría, severidad) gana la primera regla que dispara.
var patternRules = []Rule{
	// Inflado de servicio y financiación
	rule(`enterprise[- ]grade|enterprise[- ]level|fortune 500|trusted by.*companies`, catFreeHosting, sevHigh, "Claims enterprise-level service"),
	rule(`bank[- ]level security|military[- ]grade encryption`, catImpossible, sevHigh, "Makes unverifiable security claims"),
	rule(`raised \$?\d+[mk]|funded by|backed by.*investors|series [a-d] funding`, catFunding, sevMedium, "Claims significant funding"),
	rule(`y combinator|yc [ws]\d{2}|techstars|500 startups`, catFunding, sevMedium, "Claims accelerator participation"),

	// Garantías imposibles
	rule(`100% (secure|safe|guaranteed|uptime)`, catImpossible, sevHigh, "Makes impossible guarantees"),
	rule(`unhackable|unbreakable|impossible to (hack|crack|breach)`, catImpossible, sevCritical, "Claims impossible security"),
	rule(`never (been hacked|experienced.*breach)|zero.*breaches`, catImpossible, sevMedium, "Makes unverifiable security history claims"),

	// Palabras de moda
	rule(`ai[- ]powered|using (gpt|chatgpt|openai|artificial intelligence)`, catSuspicious, sevLow, "AI buzzword usage (verify actual implementation)"),
	rule(`blockchain[- ]based|web3|decentralized|crypto`, catSuspicious, sevLow, "Blockchain/Web3 buzzwords (verify necessity)"),

	// Afirmaciones de empresa no verificables
	rule(`trusted by (millions|thousands|hundreds of thousands)`, catUnverifiable, sevMedium, "Claims large user base without evidence"),
	rule(`used by.*google|facebook|microsoft|amazon|apple`, catUnverifiable, sevHigh, "Claims major tech company as customer",
		unless(
			`apple\s*pay`,
			`google\s*pay`,
			`pay\s*with\s*(apple|google)`,
			`sign\s*in\s*with\s*(apple|google|facebook|microsoft)`,
			`(available\s*on|download\s*(on|from))\s*(the\s*)?(app\s*store|google\s*play)`,
			`app\s*store|google\s*play|microsoft\s*store`,
			`apple\s*tv|apple\s*watch|apple\s*music`,
			`amazon\s*(prime|alexa|echo|aws|web\s*services)`,
			`facebook\s*(login|pixel|sdk)`,
			`microsoft\s*(azure|365|office|teams)`,
			`google\s*(analytics|cloud|maps|ads|adsense)`,
		)),
	rule(`featured (in|on).*forbes|techcrunch|wired|verge`, catUnverifiable, sevMedium, "Claims media coverage (verify links)"),
	rule(`award[- ]winning|best\s+\w+\s+(of\s+)?\d{4}|#1 rated`, catUnverifiable, sevLow, "Claims awards without specifics"),

	// Urgencia y escasez
	rule(`limited time|act now|don't miss|hurry|expires soon`, catSuspicious, sevMedium, "Uses urgency tactics"),
	rule(`only \d+ (spots|seats|slots) left`, catSuspicious, sevMedium, "Creates artificial scarcity"),
	rule(`exclusive (access|offer)|vip|early (access|bird)`, catSuspicious, sevLow, "Uses exclusivity marketing"),

	// Dinero fácil
	rule(`get rich|make money (fast|quick)|passive income|financial freedom`, catSuspicious, sevCritical, "Get-rich-quick language"),
	rule(`guaranteed (returns|profit|income)|risk[- ]free (investment|return)`, catImpossible, sevCritical, "Guarantees financial returns"),

	// Recolección de credenciales y datos
	rule(`connect (your )?(bank|paypal|venmo|crypto wallet)`, catPermissions, sevHigh, "Requests financial account connection"),
	rule(`enter (your )?(ssn|social security|tax id|ein)`, catPermissions, sevCritical, "Requests sensitive identification"),
	rule(`api[- ]key|secret[- ]key|access[- ]token`, catPermissions, sevLow, "Requests API credentials",
		unless(`developer`, `documentation`, `api reference`, `sdk`, `docs`, `getting started`)),
	rule(`grant (full |all )?access|authorize (all|full)`, catPermissions, sevHigh, "Requests broad authorization"),

	// Señales de empresa
	rule(`contact.*@gmail\.com|contact.*@yahoo\.com|contact.*@hotmail\.com`, catUnverifiable, sevMedium, "Uses free email for business contact"),
	rule(`verified (user|buyer|customer|review)`, catTestimonials, sevLow, `Uses unverifiable "verified" labels`),

	// Phishing
	rule(`verify your (account|identity|payment|information)`, catSuspicious, sevHigh, "Phishing verification language",
		unless(`sign up`, `create account`, `register`, `new user`, `welcome`)),
	rule(`account (has been |is )?(suspended|limited|restricted|locked)`, catSuspicious, sevHigh, "Account threat language"),
	rule(`confirm your (details|identity|credentials)`, catSuspicious, sevHigh, "Credential confirmation request"),
	rule(`unusual (activity|login|sign-?in) detected`, catSuspicious, sevHigh, "Fake security alert"),
	rule(`update your (payment|billing|card) (info|information|details)`, catPermissions, sevHigh, "Payment update request"),
	rule(`re-?enter your (password|credentials|login)`, catPermissions, sevCritical, "Credential re-entry request"),

	// Cripto
	rule(`airdrop|free (tokens?|coins?|crypto|nft)`, catSuspicious, sevHigh, "Crypto airdrop language"),
	rule(`connect (your )?wallet|web3 (login|connect)`, catPermissions, sevMedium, "Wallet connection request",
		unless(`ethereum`, `metamask`, `coinbase`, `ledger`, `trust wallet`, `rainbow`)),
	rule(`0x[a-fA-F0-9]{40}`, catSuspicious, sevMedium, "Ethereum wallet address found", caseSensitive()),
	rule(`claim your (tokens?|rewards?|crypto|nft)`, catSuspicious, sevHigh, "Crypto claim language"),
	rule(`guaranteed (roi|returns?|profits?|apy)`, catImpossible, sevCritical, "Guaranteed crypto returns"),
	rule(`double your (crypto|bitcoin|eth|money)`, catImpossible, sevCritical, "Crypto doubling scam"),
	rule(`send.*receive.*double|2x your`, catImpossible, sevCritical, "Doubling/multiplier scam"),

	// Amenazas y presión temporal
	rule(`your (account|order|subscription) will be (closed|cancelled|terminated)`, catSuspicious, sevHigh, "Termination threat"),
	rule(`within \d+\s*(hours?|minutes?)|immediate action required`, catSuspicious, sevMedium, "Artificial time pressure"),
	rule(`last (chance|warning|notice)`, catSuspicious, sevMedium, "Last chance pressure"),
	rule(`act (now|immediately|fast) (or|before)`, catSuspicious, sevMedium, "Urgency language"),
	rule(`offer expires|deal ends|sale ends`, catSuspicious, sevLow, "Time-limited offer pressure"),

	// Suplantación
	rule(`official (support|helpdesk|help desk)`, catUnverifiable, sevMedium, "Claims official support status"),
	rule(`(customer|technical) support (portal|center|desk)`, catSuspicious, sevLow, "Support portal language"),
	rule(`authorized (dealer|reseller|partner)`, catUnverifiable, sevMedium, "Claims authorized status"),
	rule(`official website|official site`, catSuspicious, sevLow, "Claims to be official site"),

	// Descargas maliciosas
	rule(`download (now|free|here).*\.(exe|msi|dmg|apk)`, catPermissions, sevCritical, "Prompts executable download"),
	rule(`install (this|our) (extension|plugin|add-?on|app)`, catPermissions, sevMedium, "Prompts software installation"),
	rule(`your (computer|device|system) (is|has been) (infected|compromised)`, catSuspicious, sevCritical, "Fake malware warning"),
	rule(`call (this number|us now|immediately)`, catSuspicious, sevHigh, "Tech support scam language"),
}

// Rules retorna una copia de la tabla de reglas de contenido.
func Rules() []Rule {
	out := make([]Rule, len(patternRules))
	copy(out, patternRules)
	return out
}

// fires evalúa la regla contra el texto y retorna el fragmento coincidente.
func (r Rule) fires(text string) (string, bool) {
	loc := r.Pattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	for _, u := range r.Unless {
		if u.MatchString(text) {
			return "", false
		}
	}
	if len(r.OnlyIf) > 0 {
		required := false
		for _, o := range r.OnlyIf {
			if o.MatchString(text) {
				required = true
				break
			}
		}
		if !required {
			return "", false
		}
	}
	return text[loc[0]:loc[1]], true
}
