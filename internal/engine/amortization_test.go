package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/engine"
)

func shanghaiParams() domain.AIMortgageParams {
	return domain.AIMortgageParams{
		InterestRate:     3.1,
		DownPaymentRatio: 0.3,
		LoanTermYears:    30,
		MarketAnalysis:   "LPR minus 30bp",
		CityTrend:        "stable",
	}
}

func TestCompute_ThirtyYearExample(t *testing.T) {
	res, err := engine.Compute(3_000_000, 0.30, shanghaiParams(), false)
	require.NoError(t, err)

	assert.Equal(t, 2_100_000.0, res.LoanAmount)
	assert.Equal(t, 900_000.0, res.DownPayment)
	assert.Equal(t, 8967.0, res.MonthlyPayment)
	assert.Equal(t, 3_228_244.0, res.TotalPayment)
	assert.Equal(t, 1_128_244.0, res.TotalInterest)

	// month 1, then every 12th month up to 360
	require.Len(t, res.Schedule, 31)
	first := res.Schedule[0]
	assert.Equal(t, 1, first.Month)
	assert.Equal(t, 3542.0, first.Principal)
	assert.Equal(t, 5425.0, first.Interest)

	last := res.Schedule[len(res.Schedule)-1]
	assert.Equal(t, 360, last.Month)
	assert.Equal(t, 0.0, last.Balance)
	assert.Equal(t, res.TotalPayment, last.TotalPaid)
}

func TestCompute_LoanPlusDownPaymentEqualsPrice(t *testing.T) {
	prices := []float64{850_000, 1_234_567, 3_000_000, 12_500_000.5}
	for _, price := range prices {
		for ratio := domain.MinDownPaymentRatio; ratio <= domain.MaxDownPaymentRatio+1e-9; ratio += 0.05 {
			res, err := engine.Compute(price, ratio, shanghaiParams(), false)
			require.NoError(t, err)
			assert.InDelta(t, price, res.LoanAmount+res.DownPayment, 1.0,
				"price=%.2f ratio=%.2f", price, ratio)
		}
	}
}

func TestPlan_FullSimulationRetiresLoan(t *testing.T) {
	params := shanghaiParams()
	params.InterestRate = 4.35
	params.LoanTermYears = 25

	plan, err := engine.NewPlan(2_000_000, 0.35, params)
	require.NoError(t, err)

	months := plan.Months()
	require.Len(t, months, 300)

	var principal, interest float64
	for _, m := range months {
		principal += m.Principal
		interest += m.Interest
	}
	last := months[len(months)-1]

	assert.InDelta(t, plan.LoanAmount, principal, 0.01)
	assert.InDelta(t, last.TotalInterest, interest, 1e-6)
	assert.InDelta(t, 0.0, last.Balance, 1e-6)
}

func TestCompute_ScheduleOrderingAndBalance(t *testing.T) {
	res, err := engine.Compute(5_000_000, 0.2, shanghaiParams(), false)
	require.NoError(t, err)
	require.NotEmpty(t, res.Schedule)

	for i := 1; i < len(res.Schedule); i++ {
		prev, cur := res.Schedule[i-1], res.Schedule[i]
		assert.Greater(t, cur.Month, prev.Month)
		assert.LessOrEqual(t, cur.Balance, prev.Balance)
		assert.GreaterOrEqual(t, cur.Balance, 0.0)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	params := shanghaiParams()
	params.NetMonthlyIncome = 18_750
	params.MonthlyHousingFund = 6_000
	params.MonthlyLivingCost = 3_000

	a, err := engine.Compute(3_000_000, 0.3, params, false)
	require.NoError(t, err)
	b, err := engine.Compute(3_000_000, 0.3, params, false)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCompute_ZeroRateIsStraightLine(t *testing.T) {
	params := shanghaiParams()
	params.InterestRate = 0
	params.LoanTermYears = 10

	plan, err := engine.NewPlan(1_200_000, 0.5, params)
	require.NoError(t, err)
	assert.Equal(t, plan.LoanAmount/120, plan.MonthlyPayment)

	res, err := engine.Compute(1_200_000, 0.5, params, false)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, res.MonthlyPayment)
	assert.Equal(t, 0.0, res.TotalInterest)
	assert.Equal(t, 600_000.0, res.TotalPayment)
}

func TestCompute_ZeroRatioFallsBackToSuggestedRatio(t *testing.T) {
	params := shanghaiParams()
	params.DownPaymentRatio = 0.4

	res, err := engine.Compute(3_000_000, 0, params, false)
	require.NoError(t, err)
	assert.Equal(t, 1_200_000.0, res.DownPayment)
	assert.Equal(t, 1_800_000.0, res.LoanAmount)
}

func TestCompute_FullDownPaymentMeansNoLoan(t *testing.T) {
	res, err := engine.Compute(3_000_000, 1, shanghaiParams(), false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.LoanAmount)
	assert.Equal(t, 0.0, res.MonthlyPayment)
	assert.Equal(t, 0.0, res.TotalInterest)
}

func TestCompute_WealthProjectionIsConstantPerMonth(t *testing.T) {
	params := shanghaiParams()
	params.NetMonthlyIncome = 300_000.0 / 12 * 0.75
	params.MonthlyHousingFund = 300_000.0 / 12 * 0.24
	params.MonthlyLivingCost = 3_000

	res, err := engine.Compute(3_000_000, 0.3, params, true)
	require.NoError(t, err)

	savings := (18_750.0 + 6_000.0) - 8967.344377 - 3_000
	assert.Equal(t, engine.Round(savings), res.MonthlyNetSavings)
	assert.True(t, res.HasWealthData)

	for _, item := range res.Schedule {
		require.NotNil(t, item.WealthAccumulation, "month %d", item.Month)
		assert.InDelta(t, float64(item.Month)*savings, *item.WealthAccumulation, 1.0, "month %d", item.Month)
	}
}

func TestCompute_WithoutSalaryOmitsWealth(t *testing.T) {
	// fallback params carry a living cost even when no salary was given
	params := shanghaiParams()
	params.MonthlyLivingCost = 3_000

	res, err := engine.Compute(3_000_000, 0.3, params, false)
	require.NoError(t, err)

	assert.False(t, res.HasWealthData)
	for _, item := range res.Schedule {
		assert.Nil(t, item.WealthAccumulation)
	}
	assert.Equal(t, -res.MonthlyPayment-3_000, res.MonthlyNetSavings)
}

func TestCompute_ShortTermSchedule(t *testing.T) {
	params := shanghaiParams()
	params.LoanTermYears = 1

	res, err := engine.Compute(600_000, 0.5, params, false)
	require.NoError(t, err)
	require.Len(t, res.Schedule, 2)
	assert.Equal(t, 1, res.Schedule[0].Month)
	assert.Equal(t, 12, res.Schedule[1].Month)
	assert.Equal(t, 0.0, res.Schedule[1].Balance)
}

func TestCompute_EchoesParams(t *testing.T) {
	params := shanghaiParams()
	res, err := engine.Compute(3_000_000, 0.25, params, false)
	require.NoError(t, err)
	assert.Equal(t, params, res.Params)
}

func TestCompute_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		price  float64
		ratio  float64
		mutate func(p *domain.AIMortgageParams)
		field  string
	}{
		{name: "zero term", price: 3_000_000, ratio: 0.3, mutate: func(p *domain.AIMortgageParams) { p.LoanTermYears = 0 }, field: "loanTermYears"},
		{name: "term above limit", price: 3_000_000, ratio: 0.3, mutate: func(p *domain.AIMortgageParams) { p.LoanTermYears = engine.MaxLoanTermYears + 1 }, field: "loanTermYears"},
		{name: "huge term", price: 3_000_000, ratio: 0.3, mutate: func(p *domain.AIMortgageParams) { p.LoanTermYears = 1 << 50 }, field: "loanTermYears"},
		{name: "negative price", price: -1, ratio: 0.3, field: "price"},
		{name: "zero price", price: 0, ratio: 0.3, field: "price"},
		{name: "ratio above one", price: 3_000_000, ratio: 1.2, field: "downPaymentRatio"},
		{name: "negative rate", price: 3_000_000, ratio: 0.3, mutate: func(p *domain.AIMortgageParams) { p.InterestRate = -1 }, field: "interestRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := shanghaiParams()
			if tt.mutate != nil {
				tt.mutate(&params)
			}
			_, err := engine.Compute(tt.price, tt.ratio, params, false)
			require.Error(t, err)

			var domainErr *domain.ErrEngineDomain
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.field, domainErr.Field)
		})
	}
}

func TestCompute_MaxTermIsPriced(t *testing.T) {
	params := shanghaiParams()
	params.LoanTermYears = engine.MaxLoanTermYears

	res, err := engine.Compute(3_000_000, 0.3, params, false)
	require.NoError(t, err)
	assert.Len(t, res.Schedule, engine.MaxLoanTermYears+1)
	assert.Equal(t, 0.0, res.Schedule[len(res.Schedule)-1].Balance)
}

func TestSampled(t *testing.T) {
	assert.True(t, engine.Sampled(1, 360))
	assert.True(t, engine.Sampled(12, 360))
	assert.True(t, engine.Sampled(360, 360))
	assert.True(t, engine.Sampled(7, 7))
	assert.False(t, engine.Sampled(2, 360))
	assert.False(t, engine.Sampled(359, 360))
}
