package assumption

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
)

// wireParams is the LLM reply. Numbers may arrive as JSON numbers or
// quoted strings; decimal.NullDecimal accepts both and tracks presence.
type wireParams struct {
	InterestRate       decimal.NullDecimal `json:"interestRate"`
	DownPaymentRatio   decimal.NullDecimal `json:"downPaymentRatio"`
	LoanTermYears      decimal.NullDecimal `json:"loanTermYears"`
	NetMonthlyIncome   decimal.NullDecimal `json:"netMonthlyIncome"`
	MonthlyHousingFund decimal.NullDecimal `json:"monthlyHousingFund"`
	MonthlyLivingCost  decimal.NullDecimal `json:"monthlyLivingCost"`
	MarketAnalysis     string              `json:"marketAnalysis"`
	CityTrend          string              `json:"cityTrend"`
}

var (
	errMissingRate = errors.New("reply has no interestRate")
	errMissingTerm = errors.New("reply has no loanTermYears")
)

// stripFences removes a surrounding markdown code block, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func orZero(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return 0
	}
	return d.Decimal.InexactFloat64()
}

// DecodeParams parses an LLM reply into params. Missing income fields
// become 0; a missing ratio becomes the user's ratio; a missing rate or
// term is an error.
func DecodeParams(content string, in domain.UserInput) (domain.AIMortgageParams, error) {
	var w wireParams
	if err := json.Unmarshal([]byte(stripFences(content)), &w); err != nil {
		return domain.AIMortgageParams{}, err
	}
	if !w.InterestRate.Valid {
		return domain.AIMortgageParams{}, errMissingRate
	}
	if !w.LoanTermYears.Valid {
		return domain.AIMortgageParams{}, errMissingTerm
	}

	ratio := in.DownPaymentRatio
	if w.DownPaymentRatio.Valid {
		ratio = w.DownPaymentRatio.Decimal.InexactFloat64()
	}

	return domain.AIMortgageParams{
		InterestRate:       w.InterestRate.Decimal.InexactFloat64(),
		DownPaymentRatio:   ratio,
		LoanTermYears:      int(w.LoanTermYears.Decimal.Round(0).IntPart()),
		MarketAnalysis:     w.MarketAnalysis,
		CityTrend:          w.CityTrend,
		NetMonthlyIncome:   orZero(w.NetMonthlyIncome),
		MonthlyHousingFund: orZero(w.MonthlyHousingFund),
		MonthlyLivingCost:  orZero(w.MonthlyLivingCost),
	}, nil
}
