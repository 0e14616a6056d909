// internal/core/domain/findings.go
package domain

// PatternMatch es una coincidencia de los detectores de dominio o de contenido.
type PatternMatch struct {
	Pattern     string   `json:"pattern"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`

	// Matched texto que disparó la regla (máximo 100 caracteres + "...")
	Matched string `json:"matched"`
}

// PatternsData es la salida del detector de patrones de contenido.
type PatternsData struct {
	Matches []PatternMatch `json:"matches"`
	Error   string         `json:"error,omitempty"`
}

// Apply implementa Evidence.
func (p *PatternsData) Apply(r *CheckResults) { r.Patterns = p }

// HasCategory indica si alguna coincidencia pertenece a la categoría dada.
func (p *PatternsData) HasCategory(c Category) bool {
	if p == nil {
		return false
	}
	for _, m := range p.Matches {
		if m.Category == c {
			return true
		}
	}
	return false
}

// RedFlag es un hallazgo legible por el usuario.
// La clave de unicidad es Category + Title.
type RedFlag struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Evidence    string   `json:"evidence,omitempty"`
}

// Key retorna la clave de deduplicación del hallazgo.
func (f RedFlag) Key() string {
	return string(f.Category) + f.Title
}

// ScoringResult es la salida del motor de fusión de riesgo.
type ScoringResult struct {
	RiskScore int       `json:"riskScore"`
	RiskLevel RiskLevel `json:"riskLevel"`
	RedFlags  []RedFlag `json:"redFlags"`
}

// HasSeverity indica si algún hallazgo tiene la severidad dada.
func (s ScoringResult) HasSeverity(sev Severity) bool {
	for _, f := range s.RedFlags {
		if f.Severity == sev {
			return true
		}
	}
	return false
}

// Adjustment es una señal positiva aplicada al score base.
type Adjustment struct {
	Reason string `json:"reason"`
	Points int    `json:"points"`
}

// RiskBreakdown expone cómo se llegó al score final.
type RiskBreakdown struct {
	// BaseScore suma de señales positivas (<= 0)
	BaseScore int `json:"baseScore"`

	// Adjustments señales positivas que se aplicaron, en orden
	Adjustments []Adjustment `json:"adjustments"`

	// FlagPoints suma de pesos de los hallazgos deduplicados
	FlagPoints int `json:"flagPoints"`

	// RawScore BaseScore + FlagPoints, antes del suavizado
	RawScore int `json:"rawScore"`

	// FinalScore score suavizado en [0,100]
	FinalScore int `json:"finalScore"`
}
