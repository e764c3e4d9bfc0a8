package assumption

import (
	"context"
	"fmt"

	"github.com/boddenberg/mortgage-estimator-go/internal/catalog"
	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/port"
)

// Static answers from fixed figures without any remote call.
// Used for offline runs and as a predictable backend in demos.
type Static struct {
	InterestRate float64
	LivingCost   float64
}

func (s *Static) Name() string { return "static" }

func (s *Static) Generate(ctx context.Context, in domain.UserInput) (*port.BackendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail(s.Name(), domain.FailureTimeout, err)
	}
	tier := catalog.Tier(in.City)
	if tier == "" {
		tier = "未收录城市"
	}
	params := estimateIncome(in, s.LivingCost)
	params.InterestRate = s.InterestRate
	params.DownPaymentRatio = in.DownPaymentRatio
	params.LoanTermYears = 30
	params.MarketAnalysis = fmt.Sprintf("静态估算（%s）：按固定利率 %.2f%% 计算，未调用 AI 服务。", tier, s.InterestRate)
	params.CityTrend = "暂无走势数据"
	return &port.BackendResult{Params: params}, nil
}
