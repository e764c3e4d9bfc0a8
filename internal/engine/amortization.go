// Package engine turns a price, a down-payment ratio and a set of mortgage
// assumptions into an amortization schedule and a savings projection.
//
// Everything here is pure: no I/O, no shared state. Identical inputs always
// produce identical rounded output, so callers may recompute freely.
package engine

import (
	"fmt"
	"math"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
)

// MaxLoanTermYears bounds the term so the monthly walk stays finite.
const MaxLoanTermYears = 100

// Plan holds the derived loan figures before the monthly walk.
// Values are unrounded.
type Plan struct {
	TotalPrice        float64
	Ratio             float64
	DownPayment       float64
	LoanAmount        float64
	MonthlyRate       float64
	TotalMonths       int
	MonthlyPayment    float64
	MonthlyNetSavings float64
}

// Month is one unrounded step of the full simulation.
type Month struct {
	Month         int
	Principal     float64
	Interest      float64
	Balance       float64
	TotalPaid     float64
	TotalInterest float64
	Wealth        float64
}

// ResolveRatio picks the ratio the engine prices with. A zero effective
// ratio counts as "not provided" and falls back to the suggested one.
func ResolveRatio(effectiveRatio float64, params domain.AIMortgageParams) float64 {
	if effectiveRatio != 0 {
		return effectiveRatio
	}
	return params.DownPaymentRatio
}

// NewPlan validates the inputs and derives the loan figures.
func NewPlan(totalPrice, effectiveRatio float64, params domain.AIMortgageParams) (*Plan, error) {
	if !finite(totalPrice) || totalPrice <= 0 {
		return nil, &domain.ErrEngineDomain{Field: "price", Message: "must be a positive amount"}
	}
	if params.LoanTermYears < 1 {
		return nil, &domain.ErrEngineDomain{Field: "loanTermYears", Message: "must be at least 1 year"}
	}
	if params.LoanTermYears > MaxLoanTermYears {
		return nil, &domain.ErrEngineDomain{Field: "loanTermYears", Message: fmt.Sprintf("must be at most %d years", MaxLoanTermYears)}
	}
	if !finite(params.InterestRate) || params.InterestRate < 0 {
		return nil, &domain.ErrEngineDomain{Field: "interestRate", Message: "must be a non-negative percentage"}
	}

	ratio := ResolveRatio(effectiveRatio, params)
	if !finite(ratio) || ratio < 0 || ratio > 1 {
		return nil, &domain.ErrEngineDomain{Field: "downPaymentRatio", Message: "must be between 0 and 1"}
	}

	downPayment := totalPrice * ratio
	loanAmount := totalPrice - downPayment
	if loanAmount < 0 {
		return nil, &domain.ErrEngineDomain{Field: "loanAmount", Message: "must not be negative"}
	}

	monthlyRate := (params.InterestRate / 100) / 12
	totalMonths := params.LoanTermYears * 12

	p := &Plan{
		TotalPrice:     totalPrice,
		Ratio:          ratio,
		DownPayment:    downPayment,
		LoanAmount:     loanAmount,
		MonthlyRate:    monthlyRate,
		TotalMonths:    totalMonths,
		MonthlyPayment: MonthlyPayment(loanAmount, monthlyRate, totalMonths),
	}

	// Savings are constant for the whole term: no income growth, rate
	// changes or cost inflation.
	p.MonthlyNetSavings = (params.NetMonthlyIncome + params.MonthlyHousingFund) -
		p.MonthlyPayment - params.MonthlyLivingCost

	return p, nil
}

// MonthlyPayment is the fixed annuity payment retiring loanAmount over
// totalMonths at monthlyRate. A zero rate falls back to straight-line.
// totalMonths must be at least 1.
func MonthlyPayment(loanAmount, monthlyRate float64, totalMonths int) float64 {
	if monthlyRate == 0 {
		return loanAmount / float64(totalMonths)
	}
	growth := math.Pow(1+monthlyRate, float64(totalMonths))
	return loanAmount * monthlyRate * growth / (growth - 1)
}

// Walk runs the month-by-month simulation and calls fn for every month.
func (p *Plan) Walk(fn func(m Month)) {
	var (
		balance       = p.LoanAmount
		totalInterest float64
		totalPaid     float64
		wealth        float64
	)

	for month := 1; month <= p.TotalMonths; month++ {
		interest := balance * p.MonthlyRate
		principal := p.MonthlyPayment - interest
		balance -= principal
		if balance < 0 {
			balance = 0
		}

		totalInterest += interest
		totalPaid += p.MonthlyPayment
		wealth += p.MonthlyNetSavings

		fn(Month{
			Month:         month,
			Principal:     principal,
			Interest:      interest,
			Balance:       balance,
			TotalPaid:     totalPaid,
			TotalInterest: totalInterest,
			Wealth:        wealth,
		})
	}
}

// Months returns the full, unsampled simulation.
func (p *Plan) Months() []Month {
	months := make([]Month, 0, p.TotalMonths)
	p.Walk(func(m Month) {
		months = append(months, m)
	})
	return months
}

// Sampled reports whether a month is emitted into the schedule:
// the first month, every twelfth month, and the last month.
func Sampled(month, totalMonths int) bool {
	return month == 1 || month == totalMonths || month%12 == 0
}

// Compute prices the loan and returns the rounded result with a yearly
// sampled schedule. params is echoed back unchanged. The wealth curve is
// only emitted when withWealth is set, which callers derive from the
// buyer's salary; MonthlyNetSavings is always filled.
func Compute(totalPrice, effectiveRatio float64, params domain.AIMortgageParams, withWealth bool) (*domain.CalculationResult, error) {
	plan, err := NewPlan(totalPrice, effectiveRatio, params)
	if err != nil {
		return nil, err
	}

	hasWealth := withWealth
	schedule := make([]domain.AmortizationItem, 0, plan.TotalMonths/12+2)

	var last Month
	plan.Walk(func(m Month) {
		last = m
		if !Sampled(m.Month, plan.TotalMonths) {
			return
		}
		item := domain.AmortizationItem{
			Month:     m.Month,
			Principal: Round(m.Principal),
			Interest:  Round(m.Interest),
			Balance:   Round(math.Max(m.Balance, 0)),
			TotalPaid: Round(m.TotalPaid),
		}
		if hasWealth {
			w := Round(m.Wealth)
			item.WealthAccumulation = &w
		}
		schedule = append(schedule, item)
	})

	return &domain.CalculationResult{
		MonthlyPayment:    Round(plan.MonthlyPayment),
		TotalPayment:      Round(last.TotalPaid),
		TotalInterest:     Round(last.TotalInterest),
		LoanAmount:        Round(plan.LoanAmount),
		DownPayment:       Round(plan.DownPayment),
		Schedule:          schedule,
		Params:            params,
		MonthlyNetSavings: Round(plan.MonthlyNetSavings),
		HasWealthData:     hasWealth,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
