// internal/adapters/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
)

// filePrefix prefijo de los archivos de reporte.
const filePrefix = "trustscan"

// sanitizeDomainName convierte un nombre de dominio en un nombre de carpeta válido.
// Ejemplo: "example.com" -> "example_com"
func sanitizeDomainName(domain string) string {
	// Reemplazar puntos por guiones bajos
	sanitized := strings.ReplaceAll(domain, ".", "_")
	// Remover cualquier otro carácter que no sea alfanumérico, guión bajo o guión
	sanitized = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, sanitized)
	if sanitized == "" {
		return "unknown"
	}
	return sanitized
}

// createReportFile crea <dir>/<dominio_saneado>/trustscan_<dominio>_<timestamp>.<ext>.
func createReportFile(dir, domainName, ext string, now time.Time) (*os.File, string, error) {
	if dir == "" {
		dir = "."
	}

	// Crear subdirectorio específico para el dominio
	fullDir := filepath.Join(dir, sanitizeDomainName(domainName))
	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("%w: failed to create output directory: %v", domain.ErrExportFailed, err)
	}

	// Generar nombre de archivo con timestamp
	timestamp := now.Format("20060102_150405")
	name := fmt.Sprintf("%s_%s_%s.%s", filePrefix, sanitizeFileComponent(domainName), timestamp, ext)
	path := filepath.Join(fullDir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to create output file: %v", domain.ErrExportFailed, err)
	}
	return f, path, nil
}

// sanitizeFileComponent conserva los puntos del dominio pero elimina
// separadores de ruta.
func sanitizeFileComponent(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "unknown"
	}
	return s
}

// exportable aplica las opciones de exportación sobre una copia del reporte.
func exportable(report *domain.ScanReport, opts ports.ExportOptions) *domain.ScanReport {
	if opts.IncludeChecks {
		return report
	}
	cp := *report
	cp.Checks = nil
	return &cp
}

// writeToFile crea el archivo del reporte y delega la escritura en write.
func writeToFile(report *domain.ScanReport, opts ports.ExportOptions, ext string, write func(io.Writer) error) (string, error) {
	if report == nil {
		return "", domain.ErrInvalidReport
	}

	f, path, err := createReportFile(opts.OutputDir, report.Domain, ext, time.Now())
	if err != nil {
		return "", err
	}

	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
	}
	return path, nil
}

// JSONExporter exporta reportes en formato JSON.
type JSONExporter struct{}

var _ ports.WriterExporter = JSONExporter{}

// Name implementa ports.Exporter.
func (JSONExporter) Name() string { return "json" }

// Export implementa ports.Exporter.
func (e JSONExporter) Export(report *domain.ScanReport, opts ports.ExportOptions) (string, error) {
	return writeToFile(report, opts, "json", func(w io.Writer) error {
		return encodeJSON(w, exportable(report, opts), opts.Pretty)
	})
}

// ExportToWriter implementa ports.WriterExporter (indentado, con evidencia).
func (JSONExporter) ExportToWriter(report *domain.ScanReport, w io.Writer) error {
	return encodeJSON(w, report, true)
}

func encodeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: failed to encode JSON: %v", domain.ErrExportFailed, err)
	}
	return nil
}

// OutputJSON exporta el reporte en formato JSON indentado dentro de dir.
func OutputJSON(dir string, report *domain.ScanReport) (string, error) {
	return JSONExporter{}.Export(report, ports.ExportOptions{OutputDir: dir, Pretty: true, IncludeChecks: true})
}

// OutputJSONStdout exporta el reporte a stdout en formato JSON.
func OutputJSONStdout(report *domain.ScanReport, pretty bool) error {
	return encodeJSON(os.Stdout, report, pretty)
}
