// internal/adapters/output/yaml.go
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
)

// YAMLExporter exporta reportes en YAML con las mismas claves que el JSON.
type YAMLExporter struct{}

var _ ports.WriterExporter = YAMLExporter{}

// Name implementa ports.Exporter.
func (YAMLExporter) Name() string { return "yaml" }

// Export implementa ports.Exporter.
func (YAMLExporter) Export(report *domain.ScanReport, opts ports.ExportOptions) (string, error) {
	return writeToFile(report, opts, "yaml", func(w io.Writer) error {
		return encodeYAML(w, exportable(report, opts))
	})
}

// ExportToWriter implementa ports.WriterExporter.
func (YAMLExporter) ExportToWriter(report *domain.ScanReport, w io.Writer) error {
	return encodeYAML(w, report)
}

// encodeYAML pasa por JSON para reutilizar los tags json (camelCase,
// omitempty) y conservar el orden de los campos.
func encodeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: failed to encode report: %v", domain.ErrExportFailed, err)
	}

	// Un documento JSON es YAML válido; el nodo conserva el orden de claves
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("%w: failed to convert report: %v", domain.ErrExportFailed, err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("%w: failed to encode YAML: %v", domain.ErrExportFailed, err)
	}
	return enc.Close()
}

// blockStyle elimina el estilo flow/comillas heredado del JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
