package assumption

import (
	"fmt"
	"strings"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
)

func homeLabel(first bool) string {
	if first {
		return "首套房"
	}
	return "二套房"
}

func ratioPercent(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}

// profile renders the buyer block shared by every prompt.
func profile(in domain.UserInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "角色: 中国房地产金融专家。\n")
	fmt.Fprintf(&b, "任务: 为用户在 %q 购买总价 %.0f 元的房产估算按揭贷款，并分析家庭收支。\n", in.City, in.Price)
	fmt.Fprintf(&b, "买家类型: %s。\n", homeLabel(in.IsFirstHome))
	fmt.Fprintf(&b, "税前年薪: %.0f 元。\n", in.AnnualSalary)
	fmt.Fprintf(&b, "用户选择的首付比例: %s。\n", ratioPercent(in.DownPaymentRatio))
	return b.String()
}

// ChatPrompt is the compact prompt sent to OpenAI-compatible chat backends.
func ChatPrompt(in domain.UserInput) string {
	var b strings.Builder
	b.WriteString(profile(in))
	fmt.Fprintf(&b, `
要求:
1. interestRate: %q 当前商业贷款执行年利率，单位为百分比（例如 3.0-3.3）。
2. 估算税后月入 netMonthlyIncome、每月公积金 monthlyHousingFund、每月生活支出 monthlyLivingCost。

只输出 JSON，不要使用 markdown 代码块。字段:
{
  "interestRate": number,
  "downPaymentRatio": number,
  "loanTermYears": number,
  "netMonthlyIncome": number,
  "monthlyHousingFund": number,
  "monthlyLivingCost": number,
  "marketAnalysis": string,
  "cityTrend": string
}
`, in.City)
	return b.String()
}

// DetailedPrompt spells out city-tier policy and the income rules. The
// output shape is enforced separately by a response schema.
func DetailedPrompt(in domain.UserInput) string {
	var b strings.Builder
	b.WriteString(profile(in))
	fmt.Fprintf(&b, `
要求（必须区分城市政策）:
1. interestRate: 一线城市（北上广深）利率通常较高；新一线及二线城市政策较宽松（约 3.0-3.3）。
   请给出 %q 最接近真实的商业贷款执行年利率。
2. 收支估算:
   - 年薪大于 0 时，按 %q 的社保公积金政策估算:
     netMonthlyIncome 为扣除五险一金和个税后的月入账现金；
     monthlyHousingFund 为个人加单位双边公积金月总额；
     monthlyLivingCost 为该城市中等生活水平的月支出。
   - 年薪为 0 时，以上三项返回 0。
3. marketAnalysis: 简述利率来源和生活成本估算依据。
4. cityTrend: 一句话描述市场走势。
5. downPaymentRatio 使用 %v，loanTermYears 通常为 30。
`, in.City, in.City, in.DownPaymentRatio)
	return b.String()
}
