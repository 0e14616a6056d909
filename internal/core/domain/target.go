// internal/core/domain/target.go
package domain

import (
	"net/url"

	"trustscan/internal/platform/validator"
)

// Target representa la URL a analizar.
type Target struct {
	// URL validada (esquema http/https, host en ASCII)
	URL *url.URL

	// Normalized origin + path sin barra final; clave de caché y persistencia
	Normalized string

	// Host hostname tal cual aparece en la URL
	Host string

	// Domain hostname en minúsculas sin "www."
	Domain string
}

// NewTarget valida la URL cruda y construye el target.
func NewTarget(raw string) (*Target, error) {
	u, err := validator.ValidateScanURL(raw)
	if err != nil {
		return nil, err
	}

	return &Target{
		URL:        u,
		Normalized: validator.NormalizeScanURL(u),
		Host:       u.Hostname(),
		Domain:     validator.NormalizeDomain(u.Hostname()),
	}, nil
}

// String retorna la URL del target.
func (t Target) String() string {
	if t.URL == nil {
		return ""
	}
	return t.URL.String()
}

// Origin retorna scheme://host[:port].
func (t Target) Origin() string {
	if t.URL == nil {
		return ""
	}
	return t.URL.Scheme + "://" + t.URL.Host
}
