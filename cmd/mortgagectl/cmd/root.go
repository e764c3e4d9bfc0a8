// Package cmd provides the CLI commands for mortgagectl.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boddenberg/mortgage-estimator-go/internal/app"
	"github.com/boddenberg/mortgage-estimator-go/internal/config"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/observability"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	envFile string
	backend string
	format  string
	verbose bool
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mortgagectl",
		Short: "Estimate mortgage payments with AI-sourced local assumptions",
		Long: `mortgagectl prices a home loan: it asks the configured assumption
backend for local rates and household figures, then prints the payment,
totals and a yearly amortization schedule.

Examples:
  mortgagectl estimate --city 上海 --price 3000000
  mortgagectl estimate --city 杭州 --price 2500000 --rate 3.05 --term 25
  mortgagectl compare --price 3000000 北京 成都 厦门
  mortgagectl cities`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "assumption backend (deepseek, openai, gemini, static); overrides ASSUMPTION_BACKEND")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "table", "output format (table, json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newEstimateCmd(opts))
	root.AddCommand(newCompareCmd(opts))
	root.AddCommand(newCitiesCmd(opts))
	return root
}

// build loads configuration and wires the estimator.
func (o *rootOptions) build(ctx context.Context) (*app.App, *zap.Logger, error) {
	if o.envFile != "" {
		_ = config.LoadDotEnv(o.envFile)
	}
	cfg := config.Load()
	if o.backend != "" {
		cfg.AssumptionBackend = o.backend
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger := observability.NewLogger(level, "mortgagectl")

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func (o *rootOptions) validateFormat() error {
	switch o.format {
	case "table", "json":
		return nil
	}
	return fmt.Errorf("unknown format %q (want table or json)", o.format)
}
