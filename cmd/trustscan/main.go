// cmd/trustscan/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trustscan/internal/core/domain"
	"trustscan/internal/platform/config"
	"trustscan/internal/platform/validator"

	// Import collectors for auto-registration via init()
	_ "trustscan/internal/sources/abuseipdb"
	_ "trustscan/internal/sources/archive"
	_ "trustscan/internal/sources/github"
	_ "trustscan/internal/sources/hosting"
	_ "trustscan/internal/sources/patterns"
	_ "trustscan/internal/sources/phishtank"
	_ "trustscan/internal/sources/scraper"
	_ "trustscan/internal/sources/spamhaus"
	_ "trustscan/internal/sources/ssl"
	_ "trustscan/internal/sources/urlhaus"
	_ "trustscan/internal/sources/whois"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Códigos de salida
const (
	exitRuntime = 1
	exitUsage   = 2
)

func main() {
	ctx, cancel := rootContextWithSignals(context.Background())
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "trustscan",
		Short:         "URL trust scanner",
		Long:          "trustscan collects evidence about a URL and fuses it into a 0-100 risk score with explained red flags.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	config.RegisterFlags(cmd.PersistentFlags())
	cmd.SetHelpTemplate(cmd.HelpTemplate() + config.EnvironmentHelp)

	cmd.AddCommand(
		newScanCommand(),
		newServeCommand(),
		newScoreCommand(),
		newVerifySiteCommand(),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.PrintVersion(cmd.OutOrStdout(), version, commit, date)
			return nil
		},
	}
}

// usageError marca errores de configuración o entrada del usuario.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// exitCode traduce un error al código de salida del proceso:
// 2 para configuración o validación, 1 para fallos de ejecución.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue),
		validator.IsScanValidationError(err),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrConfigLoadFailed),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return exitUsage
	default:
		return exitRuntime
	}
}

// rootContextWithSignals crea un contexto que se cancela con SIGINT/SIGTERM.
// La función retornada libera el handler de señales.
func rootContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	base, baseCancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	cleanup := func() {
		signal.Stop(ch)
		baseCancel()
	}

	return base, cleanup
}
