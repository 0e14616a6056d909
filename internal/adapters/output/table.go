// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
)

// maxDescriptionWidth recorte de la descripción en la tabla de hallazgos.
const maxDescriptionWidth = 80

// OutputTable imprime una tabla legible en terminal.
func OutputTable(report *domain.ScanReport) error {
	return WriteTable(os.Stdout, report)
}

// WriteTable escribe el reporte como tabla de texto en w.
func WriteTable(out io.Writer, report *domain.ScanReport) error {
	if report == nil {
		return domain.ErrInvalidReport
	}

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	// Header con información del scan
	fmt.Fprintf(w, "\n=== TrustScan Report ===\n")
	fmt.Fprintf(w, "URL:\t%s\n", report.URL)
	fmt.Fprintf(w, "Domain:\t%s\n", report.Domain)
	fmt.Fprintf(w, "Risk Score:\t%d/100\n", report.RiskScore)
	fmt.Fprintf(w, "Risk Level:\t%s\n", strings.ToUpper(report.RiskLevel.String()))
	fmt.Fprintf(w, "Confidence:\t%s\n", report.ScanConfidence)
	fmt.Fprintf(w, "Scanned At:\t%s\n", report.ScannedAt.Format("2006-01-02 15:04:05 MST"))
	if report.Cached {
		fmt.Fprintf(w, "Cached:\tyes (expires %s)\n", report.ExpiresAt.Format("2006-01-02 15:04"))
	}
	if report.IsKnownEntity {
		fmt.Fprintf(w, "Known Entity:\tyes\n")
	}
	if b := report.VerifiedBadge; b != nil {
		fmt.Fprintf(w, "Verified:\t%s (%d days left)\n", b.Category, b.DaysUntilExpiry)
	}
	fmt.Fprintln(w)

	// Tabla de hallazgos
	if len(report.RedFlags) > 0 {
		fmt.Fprintln(w, "SEVERITY\tCATEGORY\tTITLE\tDESCRIPTION")
		fmt.Fprintln(w, "--------\t--------\t-----\t-----------")

		for _, f := range report.RedFlags {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.ToUpper(f.Severity.String()),
				f.Category,
				f.Title,
				truncate(f.Description, maxDescriptionWidth),
			)
		}
	} else {
		fmt.Fprintln(w, "No red flags found.")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	// Desglose del puntaje
	if b := report.Breakdown; b != nil && len(b.Adjustments) > 0 {
		fmt.Fprintf(out, "\nScore Breakdown (base %d, flags %d, raw %d):\n", b.BaseScore, b.FlagPoints, b.RawScore)
		for _, adj := range b.Adjustments {
			fmt.Fprintf(out, "  %+d  %s\n", adj.Points, adj.Reason)
		}
	}

	// Notas
	if len(report.ScanNotes) > 0 {
		fmt.Fprintf(out, "\nNotes (%d):\n", len(report.ScanNotes))
		for _, note := range report.ScanNotes {
			fmt.Fprintf(out, "  - %s\n", note)
		}
	}

	// Warnings
	if len(report.Warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings (%d):\n", len(report.Warnings))
		for i, warning := range report.Warnings {
			fmt.Fprintf(out, "  %d. %s\n", i+1, warning)
		}
	}

	fmt.Fprintln(out)
	return nil
}

// truncate recorta s a max runas añadiendo "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// TableExporter exporta el reporte como texto tabulado.
type TableExporter struct{}

var _ ports.WriterExporter = TableExporter{}

// Name implementa ports.Exporter.
func (TableExporter) Name() string { return "table" }

// Export implementa ports.Exporter.
func (TableExporter) Export(report *domain.ScanReport, opts ports.ExportOptions) (string, error) {
	return writeToFile(report, opts, "txt", func(w io.Writer) error {
		return WriteTable(w, report)
	})
}

// ExportToWriter implementa ports.WriterExporter.
func (TableExporter) ExportToWriter(report *domain.ScanReport, w io.Writer) error {
	return WriteTable(w, report)
}

// ForFormat retorna el exporter para el formato indicado.
func ForFormat(format string) (ports.WriterExporter, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return JSONExporter{}, nil
	case "yaml", "yml":
		return YAMLExporter{}, nil
	case "table", "text", "txt":
		return TableExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}
