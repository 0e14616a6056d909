// cmd/trustscan/scan.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trustscan/internal/adapters/output"
	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/config"
	"trustscan/internal/platform/ui"
)

type scanOptions struct {
	JSONLogs    bool
	NoReport    bool
	SkipChecks  bool
	PrintFormat string
}

func newScanCommand() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Scan a URL and print its risk report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSONLogs, "json-logs", false, "with --no-ui, emit progress as JSON lines")
	cmd.Flags().BoolVar(&opts.NoReport, "no-report", false, "do not write the report file")
	cmd.Flags().BoolVar(&opts.SkipChecks, "skip-checks", false, "omit raw collector evidence from the report file")
	cmd.Flags().StringVar(&opts.PrintFormat, "print", "", "with --no-ui, print the report to stdout as table|json|yaml (default table)")

	return cmd
}

func runScan(cmd *cobra.Command, rawURL string, opts *scanOptions) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	// Validación temprana: no se abre el store para una URL inválida
	if _, err := domain.NewTarget(rawURL); err != nil {
		return err
	}

	printer, err := output.ForFormat(opts.printFormat())
	if err != nil {
		return newUsageError("--print: %w", err)
	}

	presenter := newScanPresenter(cfg, opts)
	defer presenter.Close()

	logger := newLogger(cfg, !cfg.Output.UIDisabled)
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger, presenter)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("cleanup failed", "error", err.Error())
		}
	}()

	report, err := a.service.Scan(ctx, rawURL)
	if err != nil {
		presenter.Error(err.Error())
		return err
	}

	if cfg.Output.UIDisabled {
		if err := printer.ExportToWriter(report, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("print report: %w", err)
		}
	}

	if opts.NoReport {
		return nil
	}

	exporter, err := output.ForFormat(cfg.Output.Format)
	if err != nil {
		return newUsageError("%w", err)
	}
	path, err := exporter.Export(report, ports.ExportOptions{
		OutputDir:     cfg.Output.Dir,
		Pretty:        true,
		IncludeChecks: !opts.SkipChecks,
	})
	if err != nil {
		return fmt.Errorf("%s output: %w", exporter.Name(), err)
	}

	presenter.Info("Report saved to " + path)
	logger.Info("report written", "path", path, "format", exporter.Name())
	return nil
}

func (o *scanOptions) printFormat() string {
	if o.PrintFormat == "" {
		return "table"
	}
	return o.PrintFormat
}

// newScanPresenter elige la UI: pterm por defecto, líneas de log en
// stderr con --no-ui.
func newScanPresenter(cfg config.Config, opts *scanOptions) ui.Presenter {
	if !cfg.Output.UIDisabled {
		return ui.New(ui.UIModePretty)
	}
	if opts.JSONLogs {
		return ui.NewRawPresenter(ui.LogFormatJSON)
	}
	return ui.New(ui.UIModeRaw)
}
