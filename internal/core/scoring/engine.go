// internal/core/scoring/engine.go
package scoring

import (
	"math"
	"sort"
	"time"

	"trustscan/internal/core/detect"
	"trustscan/internal/core/domain"
)

// SmoothingDivisor controla la curvatura de la compresión exponencial.
const SmoothingDivisor = 50.0

// Umbrales de nivel de riesgo sobre el puntaje suavizado.
const (
	CriticalThreshold = 70
	HighThreshold     = 40
	MediumThreshold   = 20
)

// Engine fusiona la evidencia de los colectores en un puntaje acotado,
// un nivel de riesgo y una lista ordenada de hallazgos.
// Es seguro para uso concurrente: no mantiene estado mutable.
type Engine struct {
	now func() time.Time
}

// Option configura el Engine.
type Option func(*Engine)

// WithClock fija el reloj usado para antigüedades relativas (commits).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine crea un motor de fusión.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// CalculateRiskScore puntúa los resultados con el motor por defecto.
func CalculateRiskScore(results *domain.CheckResults) domain.ScoringResult {
	res, _ := defaultEngine.Score(results)
	return res
}

// Score ejecuta la fusión completa y retorna además el desglose del
// cálculo. Un results nil se trata como evidencia vacía.
func (e *Engine) Score(results *domain.CheckResults) (domain.ScoringResult, domain.RiskBreakdown) {
	ev := normalize(results)
	breakdown := domain.RiskBreakdown{Adjustments: []domain.Adjustment{}}

	// 1. Señales positivas
	for _, sig := range positiveSignals {
		if sig.applies(ev) {
			breakdown.BaseScore += sig.points
			breakdown.Adjustments = append(breakdown.Adjustments, domain.Adjustment{
				Reason: sig.reason,
				Points: sig.points,
			})
		}
	}

	// 2-10. Hallazgos por fuente
	set := newFlagSet()
	if ev.domain != "" {
		keywordFlags(set, detect.CheckDomainKeywords(ev.domain))
	}
	whoisFlags(set, ev)
	sslFlags(set, ev)
	folded := hostingFlags(set, ev)
	scraperFlags(set, ev)
	patternFlags(set, ev, folded)
	githubFlags(set, ev, e.now())
	threatFlags(set, ev)

	// 11. Lista deduplicada
	flags := set.flags()

	// 12. Puntaje bruto
	for _, f := range flags {
		breakdown.FlagPoints += f.Severity.Weight()
	}
	breakdown.RawScore = breakdown.BaseScore + breakdown.FlagPoints

	// 13-14. Suavizado y nivel
	score := Smooth(breakdown.RawScore)
	breakdown.FinalScore = score

	// 15. Orden final
	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].Severity.Rank() < flags[j].Severity.Rank()
	})

	return domain.ScoringResult{
		RiskScore: score,
		RiskLevel: LevelFor(score, flags),
		RedFlags:  flags,
	}, breakdown
}

// Smooth comprime el puntaje bruto a [0,100] con rendimientos decrecientes.
func Smooth(raw int) int {
	if raw <= 0 {
		return 0
	}
	smoothed := int(math.Round(100 * (1 - math.Exp(-float64(raw)/SmoothingDivisor))))
	return min(100, smoothed)
}

// LevelFor mapea el puntaje a un nivel. Cualquier hallazgo critical
// fuerza el nivel critical.
func LevelFor(score int, flags []domain.RedFlag) domain.RiskLevel {
	for _, f := range flags {
		if f.Severity == domain.SeverityCritical {
			return domain.RiskLevelCritical
		}
	}
	switch {
	case score >= CriticalThreshold:
		return domain.RiskLevelCritical
	case score >= HighThreshold:
		return domain.RiskLevelHigh
	case score >= MediumThreshold:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}
