package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/engine"
)

type estimateOptions struct {
	input      domain.UserInput
	secondHome bool

	// explicit assumptions; a positive rate skips the provider
	rate       float64
	term       int
	netIncome  float64
	fund       float64
	livingCost float64
}

func newEstimateCmd(root *rootOptions) *cobra.Command {
	opts := &estimateOptions{input: domain.DefaultUserInput()}

	c := &cobra.Command{
		Use:   "estimate",
		Short: "Price a mortgage for one city",
		Long: `Fetch assumptions for the city and print the payment summary and the
yearly amortization schedule.

Passing --rate prices the loan from the given figures without calling the
assumption backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEstimate(cmd, root, opts)
		},
	}

	f := c.Flags()
	f.StringVar(&opts.input.City, "city", domain.DefaultCity, "city name")
	f.Float64Var(&opts.input.Price, "price", domain.DefaultPrice, "total price in CNY")
	f.Float64Var(&opts.input.DownPaymentRatio, "ratio", domain.DefaultDownPaymentRatio, "down-payment ratio (0.15-0.80)")
	f.Float64Var(&opts.input.AnnualSalary, "salary", 0, "pre-tax annual salary in CNY")
	f.BoolVar(&opts.secondHome, "second-home", false, "buyer already owns a home")

	f.Float64Var(&opts.rate, "rate", 0, "annual interest rate in percent, e.g. 3.1")
	f.IntVar(&opts.term, "term", 30, "loan term in years (with --rate)")
	f.Float64Var(&opts.netIncome, "net-income", 0, "monthly net income (with --rate)")
	f.Float64Var(&opts.fund, "housing-fund", 0, "monthly housing fund (with --rate)")
	f.Float64Var(&opts.livingCost, "living-cost", 0, "monthly living cost (with --rate)")
	return c
}

func runEstimate(cmd *cobra.Command, root *rootOptions, opts *estimateOptions) error {
	if err := root.validateFormat(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	in := opts.input
	in.IsFirstHome = !opts.secondHome

	a, logger, err := root.build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer logger.Sync()

	var params domain.AIMortgageParams
	if opts.rate > 0 {
		params = domain.AIMortgageParams{
			InterestRate:       opts.rate,
			DownPaymentRatio:   in.DownPaymentRatio,
			LoanTermYears:      opts.term,
			NetMonthlyIncome:   opts.netIncome,
			MonthlyHousingFund: opts.fund,
			MonthlyLivingCost:  opts.livingCost,
		}
	} else {
		p, err := a.Estimator.Assumptions(ctx, in)
		if err != nil {
			return err
		}
		params = *p
	}

	resp, err := a.Estimator.Compute(ctx, &domain.ComputeRequest{
		Price:            in.Price,
		DownPaymentRatio: in.DownPaymentRatio,
		AnnualSalary:     in.AnnualSalary,
		Params:           params,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if root.format == "json" {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%s  总价 %s  首付 %.0f%%\n", in.City, engine.FormatCurrency(in.Price), in.DownPaymentRatio*100)
	renderParams(w, params)
	fmt.Fprintln(w)
	return renderResult(w, resp.Result)
}
