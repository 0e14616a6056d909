// internal/core/domain/checks.go
package domain

// CheckResults agrupa la evidencia de todos los colectores para un escaneo.
// Cada campo es independiente: nil o con Error significa "sin evidencia".
type CheckResults struct {
	// Domain es el hostname analizado (sin www.)
	Domain string `json:"domain"`

	Whois    *WhoisData    `json:"whoisData"`
	SSL      *SSLData      `json:"sslData"`
	Hosting  *HostingData  `json:"hostingData"`
	Scraper  *ScraperData  `json:"scraperData"`
	Patterns *PatternsData `json:"patternsData"`
	Github   *GithubData   `json:"githubData"`
	Archive  *ArchiveData  `json:"archiveData"`
	Threat   *ThreatData   `json:"threatData"`
}

// NewCheckResults crea un bundle vacío para el dominio dado.
func NewCheckResults(domainName string) *CheckResults {
	return &CheckResults{Domain: domainName}
}

// Evidence es el resultado de un colector, capaz de volcarse en CheckResults.
type Evidence interface {
	Apply(r *CheckResults)
}

// threat garantiza que exista el contenedor de inteligencia de amenazas.
func (r *CheckResults) threat() *ThreatData {
	if r.Threat == nil {
		r.Threat = &ThreatData{Tags: []string{}}
	}
	return r.Threat
}

// WhoisData contiene los datos de registro del dominio.
type WhoisData struct {
	// DomainAge edad del dominio en días (nil si se desconoce)
	DomainAge        *int   `json:"domainAge"`
	Registrar        string `json:"registrar,omitempty"`
	CreatedDate      string `json:"createdDate,omitempty"`
	ExpiryDate       string `json:"expiryDate,omitempty"`
	PrivacyProtected bool   `json:"privacyProtected"`
	Error            string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (w *WhoisData) Apply(r *CheckResults) { r.Whois = w }

// SSLData describe el certificado TLS presentado por el sitio.
type SSLData struct {
	Valid         bool   `json:"valid"`
	Issuer        string `json:"issuer,omitempty"`
	ValidFrom     string `json:"validFrom,omitempty"`
	ValidTo       string `json:"validTo,omitempty"`
	DaysRemaining *int   `json:"daysRemaining"`
	Protocol      string `json:"protocol,omitempty"`

	// ValidationError motivo por el que el certificado no es válido
	ValidationError string `json:"validationError,omitempty"`

	// Error indica que no se pudo completar la conexión
	Error string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (s *SSLData) Apply(r *CheckResults) { r.SSL = s }

// HostingData clasifica el proveedor de hosting del sitio.
type HostingData struct {
	Provider      string `json:"provider"`
	IsFreeHosting bool   `json:"isFreeHosting"`
	IPAddress     string `json:"ipAddress,omitempty"`
	CDN           string `json:"cdn,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (h *HostingData) Apply(r *CheckResults) { r.Hosting = h }

// Testimonial es un testimonio extraído de la página.
type Testimonial struct {
	Text      string `json:"text"`
	Author    string `json:"author,omitempty"`
	IsGeneric bool   `json:"isGeneric"`
}

// ScraperData resume el contenido de la página principal.
type ScraperData struct {
	Title                string        `json:"title,omitempty"`
	HasContactPage       bool          `json:"hasContactPage"`
	HasPrivacyPolicy     bool          `json:"hasPrivacyPolicy"`
	HasTermsOfService    bool          `json:"hasTermsOfService"`
	HasPricing           bool          `json:"hasPricing"`
	HasDocumentation     bool          `json:"hasDocumentation"`
	PermissionsRequested []string      `json:"permissionsRequested"`
	Testimonials         []Testimonial `json:"testimonials"`
	SocialLinks          []string      `json:"socialLinks"`
	ExternalLinks        []string      `json:"externalLinks"`

	// ScraperLimited indica que la página probablemente se renderiza con JS
	// y las ausencias detectadas no son fiables
	ScraperLimited bool     `json:"scraperLimited,omitempty"`
	ScraperNotes   []string `json:"scraperNotes,omitempty"`

	// HTML crudo para el detector de patrones (no se serializa)
	HTML string `json:"-"`

	Error string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (s *ScraperData) Apply(r *CheckResults) { r.Scraper = s }

// GenericTestimonialCount cuenta los testimonios marcados como genéricos.
func (s *ScraperData) GenericTestimonialCount() int {
	n := 0
	for _, t := range s.Testimonials {
		if t.IsGeneric {
			n++
		}
	}
	return n
}

// GithubData describe el repositorio público asociado al sitio.
type GithubData struct {
	RepoFound    bool   `json:"repoFound"`
	Owner        string `json:"owner,omitempty"`
	Repo         string `json:"repo,omitempty"`
	URL          string `json:"url,omitempty"`
	Stars        *int   `json:"stars"`
	Forks        int    `json:"forks,omitempty"`
	OpenIssues   int    `json:"openIssues,omitempty"`
	Contributors *int   `json:"contributors"`
	LastCommit   string `json:"lastCommit,omitempty"`
	IsArchived   bool   `json:"isArchived"`
	Error        string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (g *GithubData) Apply(r *CheckResults) { r.Github = g }

// ArchiveData resume la presencia del sitio en archive.org.
type ArchiveData struct {
	Found                 bool   `json:"found"`
	FirstSnapshot         string `json:"firstSnapshot,omitempty"`
	SnapshotCount         *int   `json:"snapshotCount"`
	OldestSnapshotAgeDays *int   `json:"oldestSnapshotAge,omitempty"`
	Error                 string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (a *ArchiveData) Apply(r *CheckResults) { r.Archive = a }

// ThreatData fusiona las fuentes de inteligencia de amenazas.
// IsMalicious, Threat y Tags provienen de URLhaus; el resto de fuentes
// tienen su propio registro.
type ThreatData struct {
	IsMalicious bool           `json:"isMalicious"`
	Threat      string         `json:"threat,omitempty"`
	Tags        []string       `json:"tags"`
	PhishTank   *PhishTankData `json:"phishTank,omitempty"`
	Spamhaus    *SpamhausData  `json:"spamhaus,omitempty"`
	AbuseIPDB   *AbuseIPDBData `json:"abuseIPDB,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Apply implementa Evidence preservando los registros de otras fuentes.
func (t *ThreatData) Apply(r *CheckResults) {
	dst := r.threat()
	dst.IsMalicious = t.IsMalicious
	dst.Threat = t.Threat
	dst.Tags = t.Tags
	dst.Error = t.Error
	if dst.Tags == nil {
		dst.Tags = []string{}
	}
}

// Malicious indica si alguna fuente reporta el sitio.
func (t *ThreatData) Malicious() bool {
	if t == nil {
		return false
	}
	if t.IsMalicious {
		return true
	}
	if t.PhishTank != nil && t.PhishTank.IsPhishing {
		return true
	}
	if t.Spamhaus != nil && t.Spamhaus.Listed {
		return true
	}
	return t.AbuseIPDB != nil && t.AbuseIPDB.IsMalicious
}

// PhishTankData resultado de la consulta a PhishTank.
type PhishTankData struct {
	IsPhishing bool   `json:"isPhishing"`
	InDatabase bool   `json:"inDatabase"`
	Verified   bool   `json:"verified"`
	VerifiedAt string `json:"verifiedAt,omitempty"`
	PhishID    string `json:"phishId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (p *PhishTankData) Apply(r *CheckResults) { r.threat().PhishTank = p }

// SpamhausData resultado de la consulta DNS a Spamhaus DBL.
type SpamhausData struct {
	Listed     bool   `json:"listed"`
	ReturnCode string `json:"returnCode,omitempty"`
	ListType   string `json:"listType,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (s *SpamhausData) Apply(r *CheckResults) { r.threat().Spamhaus = s }

// AbuseIPDBData reputación de la IP del servidor.
type AbuseIPDBData struct {
	IsMalicious    bool   `json:"isMalicious"`
	AbuseScore     int    `json:"abuseScore"`
	TotalReports   int    `json:"totalReports"`
	CountryCode    string `json:"countryCode,omitempty"`
	UsageType      string `json:"usageType,omitempty"`
	ISP            string `json:"isp,omitempty"`
	Domain         string `json:"domain,omitempty"`
	LastReportedAt string `json:"lastReportedAt,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (a *AbuseIPDBData) Apply(r *CheckResults) { r.threat().AbuseIPDB = a }

// IntPtr es un helper para construir campos numéricos opcionales.
func IntPtr(v int) *int {
	return &v
}
