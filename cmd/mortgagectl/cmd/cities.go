package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boddenberg/mortgage-estimator-go/internal/catalog"
)

func newCitiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List supported cities by tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validateFormat(); err != nil {
				return err
			}
			groups := catalog.Groups()
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"groups": groups})
			}
			for _, g := range groups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", g.Label, strings.Join(g.Cities, " "))
			}
			return nil
		},
	}
}
