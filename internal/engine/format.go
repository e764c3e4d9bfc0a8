package engine

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
)

// Round rounds to the nearest whole currency unit, halves toward +Inf.
func Round(v float64) float64 {
	return math.Floor(v + 0.5)
}

var printer = message.NewPrinter(language.SimplifiedChinese)

// FormatCurrency renders an amount as CNY with locale grouping and no
// fraction digits, e.g. ¥3,000,000. Display only.
func FormatCurrency(amount float64) string {
	v := int64(Round(amount))
	if v < 0 {
		return printer.Sprintf("-¥%d", -v)
	}
	return printer.Sprintf("¥%d", v)
}

// Summarize returns display strings for the summary figures of r.
func Summarize(r *domain.CalculationResult) *domain.FormattedSummary {
	if r == nil {
		return nil
	}
	return &domain.FormattedSummary{
		MonthlyPayment:    FormatCurrency(r.MonthlyPayment),
		TotalPayment:      FormatCurrency(r.TotalPayment),
		TotalInterest:     FormatCurrency(r.TotalInterest),
		LoanAmount:        FormatCurrency(r.LoanAmount),
		DownPayment:       FormatCurrency(r.DownPayment),
		MonthlyNetSavings: FormatCurrency(r.MonthlyNetSavings),
	}
}
