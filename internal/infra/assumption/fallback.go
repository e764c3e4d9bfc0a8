package assumption

import (
	"fmt"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
)

const (
	fallbackTrend   = "数据获取失败"
	fallbackTerm    = 30
	netIncomeShare  = 0.75
	housingFundRate = 0.24
)

// FallbackPolicy describes the parameter set returned when a backend fails.
type FallbackPolicy struct {
	InterestRate float64
	LivingCost   float64
	// IncludeReason puts the failure message into MarketAnalysis.
	IncludeReason bool
}

// DefaultFallback returns the fallback figures for a backend.
func DefaultFallback(backend string) FallbackPolicy {
	if backend == "gemini" {
		return FallbackPolicy{InterestRate: 3.6, LivingCost: 3000}
	}
	return FallbackPolicy{InterestRate: 3.1, LivingCost: 3000, IncludeReason: true}
}

// estimateIncome fills the income fields from the salary, or leaves them
// zero when no salary was given. Living cost is always set.
func estimateIncome(in domain.UserInput, livingCost float64) domain.AIMortgageParams {
	p := domain.AIMortgageParams{MonthlyLivingCost: livingCost}
	if in.AnnualSalary > 0 {
		monthly := in.AnnualSalary / 12
		p.NetMonthlyIncome = monthly * netIncomeShare
		p.MonthlyHousingFund = monthly * housingFundRate
	}
	return p
}

// Params builds a complete parameter set for in after cause.
func (f FallbackPolicy) Params(in domain.UserInput, cause error) domain.AIMortgageParams {
	p := estimateIncome(in, f.LivingCost)
	p.InterestRate = f.InterestRate
	p.DownPaymentRatio = in.DownPaymentRatio
	p.LoanTermYears = fallbackTerm
	p.CityTrend = fallbackTrend
	if f.IncludeReason && cause != nil {
		p.MarketAnalysis = fmt.Sprintf("AI 服务暂时不可用: %v", cause)
	} else {
		p.MarketAnalysis = "AI 服务暂时不可用。已应用通用估算值。"
	}
	return p
}
