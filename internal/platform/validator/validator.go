// internal/platform/validator/validator.go
package validator

import (
	"net"
	"regexp"
	"strings"
)

var domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)

// Domain validators

// IsDomain verifica si un string es un hostname válido en forma ASCII.
// Los dominios internacionales deben llegar ya convertidos a punycode.
func IsDomain(domain string) bool {
	if len(domain) == 0 || len(domain) > 253 {
		return false
	}
	if !domainRegex.MatchString(domain) {
		return false
	}
	return net.ParseIP(domain) == nil
}

// MatchesDomain indica si host es igual a base o subdominio de base.
func MatchesDomain(host, base string) bool {
	return host == base || strings.HasSuffix(host, "."+base)
}

// NormalizeDomain normaliza un dominio a su forma canónica:
// minúsculas, sin punto final y sin prefijo "www.".
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}

// Network validators

// NormalizeIP normaliza una IP a su forma canónica.
// Si la IP es inválida, retorna string vacío.
func NormalizeIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return ""
	}
	return parsed.String()
}
