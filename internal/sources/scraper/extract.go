// internal/sources/scraper/extract.go
package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"trustscan/internal/core/domain"
	"trustscan/internal/platform/validator"
)

const (
	maxSocialLinks   = 10
	maxExternalLinks = 20
	maxTestimonials  = 5
	maxTestimonialLn = 200

	// minBodyText por debajo, sin otras señales, la página se considera renderizada con JS
	minBodyText = 200

	noteJSRendered = "Could not detect standard pages (may be JS-rendered)"
	noteLimited    = "Limited content detected - results may be incomplete"
)

// dangerousPermissions frases que indican permisos excesivos solicitados.
var dangerousPermissions = []string{
	"read all your data",
	"access all websites",
	"modify all data",
	"read and change all your data",
	"manage your downloads",
	"access your tabs",
	"read your browsing history",
	"access your clipboard",
	"capture screen",
	"access webcam",
	"access microphone",
	"access location",
	"read your contacts",
	"send emails",
	"access your files",
	"manage your apps",
	"system administrator",
	"root access",
	"sudo",
	"full disk access",
}

var genericTestimonialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)amazing (product|tool|app|service)`),
	regexp.MustCompile(`(?i)changed my life`),
	regexp.MustCompile(`(?i)best (product|tool|app|service) ever`),
	regexp.MustCompile(`(?i)highly recommend`),
	regexp.MustCompile(`(?i)game changer`),
	regexp.MustCompile(`(?i)10/10 would recommend`),
	regexp.MustCompile(`(?i)can't live without`),
	regexp.MustCompile(`(?i)must have`),
	regexp.MustCompile(`(?i)love this (product|tool|app|service)`),
	regexp.MustCompile(`- [A-Z]\.[A-Z]\.$`),
	regexp.MustCompile(`- [A-Z][a-z]+ [A-Z]\.$`),
	regexp.MustCompile(`(?i)verified (user|buyer|customer)`),
}

var socialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`twitter\.com|x\.com`),
	regexp.MustCompile(`github\.com`),
	regexp.MustCompile(`linkedin\.com`),
	regexp.MustCompile(`facebook\.com`),
	regexp.MustCompile(`instagram\.com`),
	regexp.MustCompile(`youtube\.com`),
	regexp.MustCompile(`discord\.(gg|com)`),
}

// pageCheck detecta una página por sus enlaces o por el texto del body.
type pageCheck struct {
	link *regexp.Regexp
	text *regexp.Regexp
}

func (p pageCheck) found(links []string, text string) bool {
	for _, l := range links {
		if p.link.MatchString(l) {
			return true
		}
	}
	return p.text.MatchString(text)
}

var (
	contactCheck = pageCheck{regexp.MustCompile(`(?i)contact|support|help`), regexp.MustCompile(`contact us|get in touch|support@`)}
	privacyCheck = pageCheck{regexp.MustCompile(`(?i)privacy`), regexp.MustCompile(`privacy policy`)}
	termsCheck   = pageCheck{regexp.MustCompile(`(?i)terms|tos|legal`), regexp.MustCompile(`terms of service|terms and conditions|terms of use`)}
	pricingCheck = pageCheck{regexp.MustCompile(`(?i)pricing|plans|subscribe`), regexp.MustCompile(`pricing|our plans|\$\d+|per month|per year`)}
	docsCheck    = pageCheck{regexp.MustCompile(`(?i)docs|documentation|guide|tutorial|api`), regexp.MustCompile(`documentation|getting started|api reference`)}

	authorSuffix = regexp.MustCompile(`[-–—]\s*([^,\n]+)$`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// extract analiza el documento. base se usa para resolver enlaces relativos.
func extract(doc *goquery.Document, base *url.URL) *domain.ScraperData {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	if description == "" {
		description, _ = doc.Find(`meta[property="og:description"]`).Attr("content")
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			links = append(links, href)
		}
	})

	rawText := doc.Find("body").Text()
	text := strings.ToLower(rawText)

	data := &domain.ScraperData{
		Title:                title,
		HasContactPage:       contactCheck.found(links, text),
		HasPrivacyPolicy:     privacyCheck.found(links, text),
		HasTermsOfService:    termsCheck.found(links, text),
		HasPricing:           pricingCheck.found(links, text),
		HasDocumentation:     docsCheck.found(links, text),
		PermissionsRequested: []string{},
		Testimonials:         extractTestimonials(doc),
		SocialLinks:          socialLinks(links),
		ExternalLinks:        externalLinks(links, base),
	}

	for _, perm := range dangerousPermissions {
		if strings.Contains(text, perm) {
			data.PermissionsRequested = append(data.PermissionsRequested, perm)
		}
	}

	meaningful := data.HasPrivacyPolicy || data.HasTermsOfService || data.HasContactPage ||
		data.HasPricing || data.HasDocumentation ||
		title != "" || description != "" || len(data.SocialLinks) > 0
	bodyText := strings.TrimSpace(whitespace.ReplaceAllString(rawText, " "))
	jsRendered := len(bodyText) < minBodyText && !meaningful

	switch {
	case jsRendered:
		data.ScraperLimited = true
		data.ScraperNotes = []string{noteJSRendered}
	case !meaningful:
		data.ScraperLimited = true
		data.ScraperNotes = []string{noteLimited}
	}

	return data
}

func extractTestimonials(doc *goquery.Document) []domain.Testimonial {
	out := []domain.Testimonial{}
	selector := `.testimonial, .review, .quote, [class*="testimonial"], [class*="review"], blockquote`

	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) <= 20 || len(text) >= 500 {
			return true
		}

		t := domain.Testimonial{Text: text}
		if m := authorSuffix.FindStringSubmatch(text); m != nil {
			t.Author = strings.TrimSpace(m[1])
			t.Text = strings.TrimSpace(strings.TrimSuffix(text, m[0]))
		}
		for _, re := range genericTestimonialPatterns {
			if re.MatchString(t.Text) || (t.Author != "" && re.MatchString(t.Author)) {
				t.IsGeneric = true
				break
			}
		}
		if runes := []rune(t.Text); len(runes) > maxTestimonialLn {
			t.Text = string(runes[:maxTestimonialLn])
		}

		out = append(out, t)
		return len(out) < maxTestimonials
	})
	return out
}

func socialLinks(links []string) []string {
	out := []string{}
	for _, l := range links {
		for _, re := range socialPatterns {
			if re.MatchString(l) {
				out = append(out, l)
				break
			}
		}
		if len(out) == maxSocialLinks {
			break
		}
	}
	return out
}

// externalLinks descarta los enlaces al propio sitio o a sus subdominios.
func externalLinks(links []string, base *url.URL) []string {
	siteHost := validator.NormalizeDomain(base.Hostname())
	out := []string{}
	for _, l := range links {
		u, err := base.Parse(l)
		if err != nil || u.Hostname() == "" {
			continue
		}
		if !validator.MatchesDomain(validator.NormalizeDomain(u.Hostname()), siteHost) {
			out = append(out, l)
		}
		if len(out) == maxExternalLinks {
			break
		}
	}
	return out
}
