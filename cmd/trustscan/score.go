// cmd/trustscan/score.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"trustscan/internal/adapters/output"
	"trustscan/internal/core/domain"
	"trustscan/internal/core/scoring"
	"trustscan/internal/core/usecases"
)

func newScoreCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "score <checkresults.json|->",
		Short: "Score a stored CheckResults bundle without running collectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := output.ForFormat(format)
			if err != nil {
				return newUsageError("--print: %w", err)
			}

			results, err := readCheckResults(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			report, err := scoreOffline(results, time.Now())
			if err != nil {
				return err
			}
			return exporter.ExportToWriter(report, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "print", "table", "output format: table|json|yaml")

	return cmd
}

// readCheckResults decodifica el bundle desde un archivo o stdin ("-").
func readCheckResults(stdin io.Reader, path string) (*domain.CheckResults, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, newUsageError("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var results domain.CheckResults
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, newUsageError("decode check results: %w", err)
	}
	if results.Domain == "" {
		return nil, newUsageError("check results have no domain")
	}
	return &results, nil
}

// scoreOffline ejecuta el motor de fusión y arma un reporte con el resultado.
func scoreOffline(results *domain.CheckResults, now time.Time) (*domain.ScanReport, error) {
	target, err := domain.NewTarget(results.Domain)
	if err != nil {
		return nil, fmt.Errorf("domain %q: %w", results.Domain, err)
	}

	engine := scoring.NewEngine(scoring.WithClock(func() time.Time { return now }))
	scored, breakdown := engine.Score(results)

	report := domain.NewScanReport(*target, now)
	report.Checks = results
	report.ApplyScoring(scored)
	report.Breakdown = &breakdown
	report.ScanConfidence, report.ScanNotes = usecases.AssessConfidence(results)
	return report, nil
}
