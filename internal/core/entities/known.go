// internal/core/entities/known.go
package entities

import "trustscan/internal/platform/validator"

// DefaultCategory categoría de una entidad conocida sin clasificación.
const DefaultCategory = "Established Service"

// KnownEntityNote nota fija del resultado abreviado.
const KnownEntityNote = "Recognized established service"

// knownLegitDomains servicios establecidos que no requieren análisis.
var knownLegitDomains = []string{
	// Big tech
	"google.com", "apple.com", "microsoft.com", "amazon.com", "meta.com",
	"facebook.com", "instagram.com", "twitter.com", "x.com", "linkedin.com",

	// Hosting / infraestructura
	"godaddy.com", "namecheap.com", "cloudflare.com", "vercel.com", "netlify.com",
	"railway.app", "heroku.com", "digitalocean.com", "linode.com", "vultr.com",
	"fly.io", "render.com", "supabase.com", "planetscale.com", "neon.tech",

	// Herramientas de desarrollo
	"github.com", "gitlab.com", "bitbucket.org", "linear.app", "notion.so",
	"figma.com", "slack.com", "discord.com", "atlassian.com", "jira.com",
	"trello.com", "asana.com", "monday.com",

	// Pagos
	"stripe.com", "paypal.com", "square.com", "braintree.com", "paddle.com",
	"lemonsqueezy.com", "gumroad.com",

	// Autenticación
	"auth0.com", "clerk.com", "okta.com",

	// Analítica / monitoreo
	"sentry.io", "datadog.com", "newrelic.com", "logrocket.com", "mixpanel.com",
	"amplitude.com", "plausible.io", "posthog.com",

	// Email
	"sendgrid.com", "mailgun.com", "postmark.com", "resend.com", "mailchimp.com",

	// CDN / media
	"akamai.com", "fastly.com", "bunny.net", "imgix.com", "cloudinary.com",

	// Ecosistema propio
	"undeadlist.com",
}

// entityCategory agrupa dominios conocidos para presentación.
type entityCategory struct {
	name    string
	domains []string
}

// knownCategories se evalúa en orden; la primera coincidencia gana.
var knownCategories = []entityCategory{
	{"Big Tech", []string{"google.com", "apple.com", "microsoft.com", "amazon.com", "meta.com", "facebook.com"}},
	{"Hosting Provider", []string{"godaddy.com", "namecheap.com", "cloudflare.com", "vercel.com", "netlify.com", "heroku.com", "digitalocean.com"}},
	{"Developer Tools", []string{"github.com", "gitlab.com", "bitbucket.org", "linear.app", "notion.so", "figma.com"}},
	{"Payment Processor", []string{"stripe.com", "paypal.com", "square.com", "paddle.com"}},
	{"Communication", []string{"slack.com", "discord.com", "twitter.com", "x.com", "linkedin.com"}},
}

func matchesAny(d string, list []string) bool {
	for _, known := range list {
		if validator.MatchesDomain(d, known) {
			return true
		}
	}
	return false
}

// IsKnownLegitDomain indica si el dominio (o un subdominio suyo) está en
// la lista de servicios establecidos.
func IsKnownLegitDomain(domainName string) bool {
	d := validator.NormalizeDomain(domainName)
	if d == "" {
		return false
	}
	return matchesAny(d, knownLegitDomains)
}

// Category retorna la categoría de presentación de una entidad conocida.
func Category(domainName string) string {
	d := validator.NormalizeDomain(domainName)
	for _, c := range knownCategories {
		if matchesAny(d, c.domains) {
			return c.name
		}
	}
	return DefaultCategory
}

// KnownDomains retorna una copia de la lista de servicios establecidos.
func KnownDomains() []string {
	out := make([]string, len(knownLegitDomains))
	copy(out, knownLegitDomains)
	return out
}
