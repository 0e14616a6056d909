// internal/core/domain/enums.go
package domain

// Severity define la gravedad de un hallazgo.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid verifica si la severidad es válida.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank retorna el orden de la severidad (critical primero).
// Valores desconocidos se ordenan al final.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Weight retorna los puntos de riesgo que aporta un hallazgo de esta severidad.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 30
	case SeverityHigh:
		return 20
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 5
	default:
		return 0
	}
}

// String retorna la representación string de la severidad.
func (s Severity) String() string {
	return string(s)
}

// Category agrupa hallazgos por tipo de señal.
type Category string

const (
	CategoryFreeHostingEnterprise Category = "free_hosting_enterprise"
	CategoryImpossibleClaims      Category = "impossible_claims"
	CategoryYoungDomainFunding    Category = "young_domain_funding"
	CategorySuspiciousPatterns    Category = "suspicious_patterns"
	CategoryUnverifiableCompany   Category = "unverifiable_company"
	CategoryDangerousPermissions  Category = "dangerous_permissions"
	CategoryGenericTestimonials   Category = "generic_testimonials"
	CategoryMissingInfo           Category = "missing_info"
	CategorySSLIssues             Category = "ssl_issues"
)

// AllCategories lista las categorías conocidas en orden estable.
func AllCategories() []Category {
	return []Category{
		CategoryFreeHostingEnterprise,
		CategoryImpossibleClaims,
		CategoryYoungDomainFunding,
		CategorySuspiciousPatterns,
		CategoryUnverifiableCompany,
		CategoryDangerousPermissions,
		CategoryGenericTestimonials,
		CategoryMissingInfo,
		CategorySSLIssues,
	}
}

// IsValid verifica si la categoría es conocida.
func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// String retorna la representación string de la categoría.
func (c Category) String() string {
	return string(c)
}

// RiskLevel es el veredicto categórico de un escaneo.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// IsValid verifica si el nivel de riesgo es válido.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	default:
		return false
	}
}

// String retorna la representación string del nivel.
func (l RiskLevel) String() string {
	return string(l)
}

// ScanConfidence indica cuánto confiar en los datos recolectados.
type ScanConfidence string

const (
	ConfidenceLow    ScanConfidence = "low"
	ConfidenceMedium ScanConfidence = "medium"
	ConfidenceHigh   ScanConfidence = "high"
)

// String retorna la representación string de la confianza.
func (c ScanConfidence) String() string {
	return string(c)
}
