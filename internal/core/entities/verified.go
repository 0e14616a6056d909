// internal/core/entities/verified.go
package entities

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"trustscan/internal/platform/validator"
)

// VerificationPeriod vigencia de una insignia de sitio verificado.
const VerificationPeriod = 90 * 24 * time.Hour

// DateLayout formato de fechas del archivo de sitios verificados.
const DateLayout = "2006-01-02"

// VerifiedSite entrada del registro de sitios verificados.
type VerifiedSite struct {
	Domain     string `yaml:"domain" json:"domain"`
	VerifiedAt string `yaml:"verifiedAt" json:"verifiedAt"`
	ExpiresAt  string `yaml:"expiresAt" json:"expiresAt"`
	Category   string `yaml:"category,omitempty" json:"category,omitempty"`
	Note       string `yaml:"note,omitempty" json:"note,omitempty"`
}

// Expiry interpreta ExpiresAt (fecha o RFC3339).
func (s VerifiedSite) Expiry() (time.Time, error) {
	return parseDate(s.ExpiresAt)
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return t, nil
}

// verifiedFile forma del documento YAML.
type verifiedFile struct {
	Sites []VerifiedSite `yaml:"sites"`
}

// VerifiedRegistry registro de sitios verificados indexado por dominio.
// Seguro para uso concurrente.
type VerifiedRegistry struct {
	mu    sync.RWMutex
	sites map[string]VerifiedSite
	now   func() time.Time
}

// NewVerifiedRegistry crea un registro con las entradas dadas.
func NewVerifiedRegistry(sites ...VerifiedSite) (*VerifiedRegistry, error) {
	r := &VerifiedRegistry{
		sites: make(map[string]VerifiedSite, len(sites)),
		now:   time.Now,
	}
	for _, s := range sites {
		if err := r.Add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadVerifiedSites lee el registro desde un archivo YAML.
// Un path vacío produce un registro vacío.
func LoadVerifiedSites(path string) (*VerifiedRegistry, error) {
	if path == "" {
		return NewVerifiedRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read verified sites: %w", err)
	}
	return ParseVerifiedSites(data)
}

// ParseVerifiedSites decodifica el documento YAML del registro.
func ParseVerifiedSites(data []byte) (*VerifiedRegistry, error) {
	var f verifiedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse verified sites: %w", err)
	}
	return NewVerifiedRegistry(f.Sites...)
}

// SetClock reemplaza el reloj (tests).
func (r *VerifiedRegistry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Add valida y agrega (o reemplaza) una entrada.
func (r *VerifiedRegistry) Add(s VerifiedSite) error {
	s.Domain = validator.NormalizeDomain(s.Domain)
	if s.Domain == "" {
		return fmt.Errorf("verified site without domain")
	}
	if _, err := parseDate(s.VerifiedAt); err != nil {
		return fmt.Errorf("verified site %s: verifiedAt: %w", s.Domain, err)
	}
	if _, err := s.Expiry(); err != nil {
		return fmt.Errorf("verified site %s: expiresAt: %w", s.Domain, err)
	}

	r.mu.Lock()
	r.sites[s.Domain] = s
	r.mu.Unlock()
	return nil
}

// Lookup retorna la entrada vigente para el dominio.
// Las entradas expiradas se tratan como inexistentes.
func (r *VerifiedRegistry) Lookup(domainName string) (VerifiedSite, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sites[validator.NormalizeDomain(domainName)]
	if !ok {
		return VerifiedSite{}, false
	}
	expiry, err := s.Expiry()
	if err != nil || expiry.Before(r.now()) {
		return VerifiedSite{}, false
	}
	return s, true
}

// DaysUntilExpiry días completos restantes redondeando hacia arriba.
// Retorna false si la verificación ya expiró.
func (r *VerifiedRegistry) DaysUntilExpiry(s VerifiedSite) (int, bool) {
	r.mu.RLock()
	now := r.now()
	r.mu.RUnlock()
	return DaysUntilExpiry(s, now)
}

// DaysUntilExpiry calcula los días restantes respecto a now.
func DaysUntilExpiry(s VerifiedSite, now time.Time) (int, bool) {
	expiry, err := s.Expiry()
	if err != nil || expiry.Before(now) {
		return 0, false
	}
	days := math.Ceil(expiry.Sub(now).Hours() / 24)
	return int(days), true
}

// Len cantidad de entradas registradas.
func (r *VerifiedRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sites)
}

// NewVerifiedSiteEntry crea una entrada válida por 90 días desde now.
func NewVerifiedSiteEntry(domainName, category, note string, now time.Time) VerifiedSite {
	now = now.UTC()
	return VerifiedSite{
		Domain:     validator.NormalizeDomain(domainName),
		VerifiedAt: now.Format(DateLayout),
		ExpiresAt:  now.Add(VerificationPeriod).Format(DateLayout),
		Category:   category,
		Note:       note,
	}
}

// MarshalEntry serializa una entrada como documento YAML del registro.
func MarshalEntry(s VerifiedSite) ([]byte, error) {
	return yaml.Marshal(verifiedFile{Sites: []VerifiedSite{s}})
}
