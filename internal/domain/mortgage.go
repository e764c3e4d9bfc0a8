package domain

// ============================================================
// Mortgage estimation models
// ============================================================

// Default user input at session start.
const (
	DefaultCity             = "上海"
	DefaultPrice            = 3_000_000
	DefaultDownPaymentRatio = 0.30

	MinDownPaymentRatio = 0.15
	MaxDownPaymentRatio = 0.80
)

// UserInput is the user-controlled part of a session.
// DownPaymentRatio always overrides the ratio suggested by the provider.
type UserInput struct {
	City             string  `json:"city"`
	Price            float64 `json:"price"`
	IsFirstHome      bool    `json:"isFirstHome"`
	AnnualSalary     float64 `json:"annualSalary"` // 0 = not provided
	DownPaymentRatio float64 `json:"downPaymentRatio"`
}

// HasSalary reports whether income-dependent analysis applies.
func (in UserInput) HasSalary() bool {
	return in.AnnualSalary > 0
}

// DefaultUserInput returns the input a fresh session starts with.
func DefaultUserInput() UserInput {
	return UserInput{
		City:             DefaultCity,
		Price:            DefaultPrice,
		IsFirstHome:      true,
		DownPaymentRatio: DefaultDownPaymentRatio,
	}
}

// AIMortgageParams are the locale-specific assumptions returned by the
// assumption provider. After the first fetch they become an editable copy.
type AIMortgageParams struct {
	InterestRate     float64 `json:"interestRate"`     // annual percent, 3.1 = 3.1%
	DownPaymentRatio float64 `json:"downPaymentRatio"` // informational after the first fetch
	LoanTermYears    int     `json:"loanTermYears"`
	MarketAnalysis   string  `json:"marketAnalysis"`
	CityTrend        string  `json:"cityTrend"`

	NetMonthlyIncome   float64 `json:"netMonthlyIncome"`
	MonthlyHousingFund float64 `json:"monthlyHousingFund"`
	MonthlyLivingCost  float64 `json:"monthlyLivingCost"`
}

// ParamsEdit is a partial update of the editable parameter copy.
// Nil fields are left untouched; commentary fields are not editable.
type ParamsEdit struct {
	InterestRate       *float64 `json:"interestRate,omitempty"`
	LoanTermYears      *int     `json:"loanTermYears,omitempty"`
	NetMonthlyIncome   *float64 `json:"netMonthlyIncome,omitempty"`
	MonthlyHousingFund *float64 `json:"monthlyHousingFund,omitempty"`
	MonthlyLivingCost  *float64 `json:"monthlyLivingCost,omitempty"`
}

// Apply returns a copy of p with the edit applied.
func (e ParamsEdit) Apply(p AIMortgageParams) AIMortgageParams {
	if e.InterestRate != nil {
		p.InterestRate = *e.InterestRate
	}
	if e.LoanTermYears != nil {
		p.LoanTermYears = *e.LoanTermYears
	}
	if e.NetMonthlyIncome != nil {
		p.NetMonthlyIncome = *e.NetMonthlyIncome
	}
	if e.MonthlyHousingFund != nil {
		p.MonthlyHousingFund = *e.MonthlyHousingFund
	}
	if e.MonthlyLivingCost != nil {
		p.MonthlyLivingCost = *e.MonthlyLivingCost
	}
	return p
}

// AmortizationItem is one sampled point of the schedule.
// Monetary values are rounded to whole currency units.
type AmortizationItem struct {
	Month              int      `json:"month"`
	Principal          float64  `json:"principal"`
	Interest           float64  `json:"interest"`
	Balance            float64  `json:"balance"`
	TotalPaid          float64  `json:"totalPaid"`
	WealthAccumulation *float64 `json:"wealthAccumulation,omitempty"`
}

// CalculationResult is the engine output. It is never mutated after creation.
type CalculationResult struct {
	MonthlyPayment    float64            `json:"monthlyPayment"`
	TotalPayment      float64            `json:"totalPayment"`
	TotalInterest     float64            `json:"totalInterest"`
	LoanAmount        float64            `json:"loanAmount"`
	DownPayment       float64            `json:"downPayment"`
	Schedule          []AmortizationItem `json:"schedule"`
	Params            AIMortgageParams   `json:"params"`
	MonthlyNetSavings float64            `json:"monthlyNetSavings"`
	HasWealthData     bool               `json:"hasWealthData"`
}

// ============================================================
// Session state
// ============================================================

// LoadingState is the controller state.
type LoadingState string

const (
	StateIdle    LoadingState = "IDLE"
	StateLoading LoadingState = "LOADING"
	StateSuccess LoadingState = "SUCCESS"
	StateError   LoadingState = "ERROR"
)

// ============================================================
// API request / response
// ============================================================

// ComputeRequest is the body of POST /v1/mortgage/compute.
// A positive AnnualSalary turns on the wealth projection.
type ComputeRequest struct {
	Price            float64          `json:"price"`
	DownPaymentRatio float64          `json:"downPaymentRatio"`
	AnnualSalary     float64          `json:"annualSalary,omitempty"`
	Params           AIMortgageParams `json:"params"`
}

// RatioRequest is the body of PUT /v1/sessions/{id}/ratio.
type RatioRequest struct {
	DownPaymentRatio float64 `json:"downPaymentRatio"`
}

// FormattedSummary carries display strings for the summary figures.
type FormattedSummary struct {
	MonthlyPayment    string `json:"monthlyPayment"`
	TotalPayment      string `json:"totalPayment"`
	TotalInterest     string `json:"totalInterest"`
	LoanAmount        string `json:"loanAmount"`
	DownPayment       string `json:"downPayment"`
	MonthlyNetSavings string `json:"monthlyNetSavings"`
}

// ComputeResponse wraps a result with its display strings.
type ComputeResponse struct {
	Result    *CalculationResult `json:"result"`
	Formatted *FormattedSummary  `json:"formatted"`
}

// SessionView is the externally visible snapshot of a session.
type SessionView struct {
	SessionID      string             `json:"sessionId"`
	Status         LoadingState       `json:"status"`
	Input          UserInput          `json:"input"`
	EditableParams *AIMortgageParams  `json:"editableParams"`
	Result         *CalculationResult `json:"result"`
	Formatted      *FormattedSummary  `json:"formatted,omitempty"`
	Error          string             `json:"error,omitempty"`
	Generation     uint64             `json:"generation"`
}

// SessionCreated is returned by POST /v1/sessions.
type SessionCreated struct {
	SessionID string       `json:"sessionId"`
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expiresIn"`
	Session   *SessionView `json:"session"`
}

// CityGroup is one labelled group of the city catalog.
type CityGroup struct {
	Label  string   `json:"label"`
	Cities []string `json:"cities"`
}

// CompareRequest is the body of POST /v1/mortgage/compare.
type CompareRequest struct {
	Input  UserInput `json:"input"`
	Cities []string  `json:"cities"`
}

// CityComparison is one priced city of a comparison.
type CityComparison struct {
	City      string             `json:"city"`
	Tier      string             `json:"tier"`
	Params    AIMortgageParams   `json:"params"`
	Result    *CalculationResult `json:"result,omitempty"`
	Formatted *FormattedSummary  `json:"formatted,omitempty"`
	Error     string             `json:"error,omitempty"`
}
