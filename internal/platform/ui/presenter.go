// internal/platform/ui/presenter.go
package ui

import (
	"time"
)

// UIMode define el modo de visualización
type UIMode string

const (
	UIModePretty UIMode = "pretty" // Spinners y paneles pterm (default)
	UIModeRaw    UIMode = "raw"    // Líneas logfmt/JSON, apto para CI
	UIModeQuiet  UIMode = "quiet"  // Sin UI visual
)

// Presenter define la interfaz para presentar el progreso de un escaneo
// y el reporte final de riesgo.
type Presenter interface {
	// Start inicia la presentación con información del escaneo
	Start(info ScanInfo)

	// StartStage notifica el inicio de un stage de colectores
	StartStage(stage StageInfo)

	// FinishStage notifica la finalización de un stage
	FinishStage(stageNum int, duration time.Duration)

	// StartCollector notifica el inicio de ejecución de un colector
	StartCollector(stageNum int, name string)

	// FinishCollector notifica la finalización de un colector. detail
	// contiene el error cuando status es StatusError.
	FinishCollector(name string, status Status, duration time.Duration, detail string)

	// Info muestra un mensaje informativo
	Info(msg string)

	// Warning muestra una advertencia
	Warning(msg string)

	// Error muestra un error
	Error(msg string)

	// Finish finaliza la presentación con el resumen del reporte
	Finish(summary ScanSummary)

	// Close limpia recursos del presenter
	Close() error
}

// ScanInfo contiene información inicial del escaneo
type ScanInfo struct {
	Target         string
	Workers        int
	TimeoutSeconds int
	TotalStages    int
	Collectors     int
}

// StageInfo contiene información de un stage
type StageInfo struct {
	Number      int
	TotalStages int
	Name        string
	Collectors  []string
}

// FlagLine es una señal de riesgo lista para mostrar.
type FlagLine struct {
	Severity string
	Category string
	Message  string
}

// ScanSummary contiene el resultado final del escaneo
type ScanSummary struct {
	ReportID    string
	URL         string
	Domain      string
	RiskScore   int
	RiskLevel   string
	Confidence  string
	Flags       []FlagLine
	Notes       []string
	Warnings    []string
	Cached      bool
	KnownEntity bool
	Verified    string // categoría del badge, vacío si no está verificado

	Duration          time.Duration
	CollectorsOK      int
	CollectorsFailed  int
	CollectorsSkipped int
}
