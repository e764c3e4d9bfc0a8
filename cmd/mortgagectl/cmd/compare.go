package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/engine"
)

func newCompareCmd(root *rootOptions) *cobra.Command {
	in := domain.DefaultUserInput()
	var secondHome bool

	c := &cobra.Command{
		Use:   "compare CITY [CITY...]",
		Short: "Price the same purchase in several cities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, cities []string) error {
			if err := root.validateFormat(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, logger, err := root.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync()

			req := &domain.CompareRequest{Input: in, Cities: cities}
			req.Input.IsFirstHome = !secondHome
			out, err := a.Estimator.Compare(ctx, req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if root.format == "json" {
				return writeJSON(w, map[string]any{"comparisons": out})
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "城市\t级别\t利率\t月供\t总利息\t")
			for _, row := range out {
				if row.Result == nil {
					fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t-\t%s\t\n", row.City, row.Tier, row.Params.InterestRate, row.Error)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%s\t%s\t\n",
					row.City, row.Tier, row.Params.InterestRate,
					engine.FormatCurrency(row.Result.MonthlyPayment),
					engine.FormatCurrency(row.Result.TotalInterest),
				)
			}
			return tw.Flush()
		},
	}

	f := c.Flags()
	f.Float64Var(&in.Price, "price", domain.DefaultPrice, "total price in CNY")
	f.Float64Var(&in.DownPaymentRatio, "ratio", domain.DefaultDownPaymentRatio, "down-payment ratio (0.15-0.80)")
	f.Float64Var(&in.AnnualSalary, "salary", 0, "pre-tax annual salary in CNY")
	f.BoolVar(&secondHome, "second-home", false, "buyer already owns a home")
	return c
}
