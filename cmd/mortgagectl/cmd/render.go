package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/engine"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderParams(w io.Writer, p domain.AIMortgageParams) {
	fmt.Fprintf(w, "利率: %.2f%%  期限: %d 年\n", p.InterestRate, p.LoanTermYears)
	if p.MarketAnalysis != "" {
		fmt.Fprintf(w, "分析: %s\n", p.MarketAnalysis)
	}
	if p.CityTrend != "" {
		fmt.Fprintf(w, "走势: %s\n", p.CityTrend)
	}
}

func renderResult(w io.Writer, r *domain.CalculationResult) error {
	s := engine.Summarize(r)
	fmt.Fprintf(w, "首付: %s  贷款: %s\n", s.DownPayment, s.LoanAmount)
	fmt.Fprintf(w, "月供: %s  总还款: %s  总利息: %s\n", s.MonthlyPayment, s.TotalPayment, s.TotalInterest)
	if r.HasWealthData {
		fmt.Fprintf(w, "每月结余: %s\n", s.MonthlyNetSavings)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := "月份\t本金\t利息\t剩余本金\t累计还款\t"
	if r.HasWealthData {
		header += "累计结余\t"
	}
	fmt.Fprintln(tw, header)
	for _, it := range r.Schedule {
		row := fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t",
			it.Month,
			engine.FormatCurrency(it.Principal),
			engine.FormatCurrency(it.Interest),
			engine.FormatCurrency(it.Balance),
			engine.FormatCurrency(it.TotalPaid),
		)
		if it.WealthAccumulation != nil {
			row += engine.FormatCurrency(*it.WealthAccumulation) + "\t"
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}
