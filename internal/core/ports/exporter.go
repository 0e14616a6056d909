// internal/core/ports/exporter.go
package ports

import (
	"io"

	"trustscan/internal/core/domain"
)

// Exporter es el port para exportar reportes en diferentes formatos.
type Exporter interface {
	// Name retorna el nombre del exporter (ej: "json", "yaml", "table")
	Name() string

	// Export escribe el reporte en disco y retorna la ruta generada
	Export(report *domain.ScanReport, opts ExportOptions) (string, error)
}

// WriterExporter permite exportar a cualquier io.Writer.
type WriterExporter interface {
	Exporter

	// ExportToWriter escribe el reporte en un Writer personalizado
	ExportToWriter(report *domain.ScanReport, w io.Writer) error
}

// ExportOptions configura las opciones de exportación.
type ExportOptions struct {
	// OutputDir directorio base de salida
	OutputDir string

	// Pretty indica si el output debe ser indentado
	Pretty bool

	// IncludeChecks incluye la evidencia cruda de cada colector
	IncludeChecks bool
}

// DefaultExportOptions retorna opciones por defecto.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		OutputDir:     "scans",
		Pretty:        true,
		IncludeChecks: true,
	}
}
