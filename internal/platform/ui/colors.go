// internal/platform/ui/colors.go
package ui

import (
	"strings"

	"github.com/pterm/pterm"
)

// Paleta del semáforo de riesgo

var (
	// SafeGreen - Riesgo bajo, colectores correctos
	SafeGreen = pterm.NewRGB(46, 204, 113)

	// CautionAmber - Riesgo medio, advertencias
	CautionAmber = pterm.NewRGB(243, 156, 18)

	// DangerOrange - Riesgo alto
	DangerOrange = pterm.NewRGB(230, 126, 34)

	// AlertRed - Riesgo crítico, errores
	AlertRed = pterm.NewRGB(231, 76, 60)

	// SlateGray - Texto secundario, elementos pendientes
	SlateGray = pterm.NewRGB(127, 140, 141)

	// SignalBlue - Acentos e información
	SignalBlue = pterm.NewRGB(52, 152, 219)
)

// Estilos preconfigurados para diferentes contextos
var (
	StyleSuccess   = SafeGreen.ToRGBStyle()
	StyleWarning   = CautionAmber.ToRGBStyle()
	StyleHigh      = DangerOrange.ToRGBStyle()
	StyleError     = AlertRed.ToRGBStyle()
	StyleSecondary = SlateGray.ToRGBStyle()
	StyleAccent    = SignalBlue.ToRGBStyle()
)

// LevelStyle retorna el estilo de un nivel de riesgo o de una severidad
// (low, medium, high, critical).
func LevelStyle(level string) pterm.RGBStyle {
	switch strings.ToLower(level) {
	case "low":
		return StyleSuccess
	case "medium":
		return StyleWarning
	case "high":
		return StyleHigh
	case "critical":
		return StyleError
	default:
		return StyleSecondary
	}
}
