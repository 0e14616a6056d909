// cmd/trustscan/verify_site.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/entities"
)

func newVerifySiteCommand() *cobra.Command {
	var category, note string

	cmd := &cobra.Command{
		Use:   "verify-site <domain>",
		Short: "Print a verified-site entry valid for 90 days",
		Long: "Prints a YAML entry for the verified sites file. Append it to the file\n" +
			"referenced by --verified-sites (or TRUSTSCAN_VERIFIED_SITES).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := domain.NewTarget(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			entry := entities.NewVerifiedSiteEntry(target.Domain, category, note, time.Now())
			data, err := entities.MarshalEntry(entry)
			if err != nil {
				return fmt.Errorf("marshal entry: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "site category (e.g. SaaS, Developer Tools)")
	cmd.Flags().StringVar(&note, "note", "", "free-form verification note")

	return cmd
}
