// Package catalog lists the cities the estimator accepts, grouped by tier.
package catalog

import "github.com/boddenberg/mortgage-estimator-go/internal/domain"

var groups = []domain.CityGroup{
	{Label: "一线城市", Cities: []string{"北京", "上海", "广州", "深圳"}},
	{Label: "新一线城市", Cities: []string{
		"成都", "杭州", "重庆", "武汉", "苏州", "西安", "南京", "长沙",
		"天津", "郑州", "东莞", "青岛", "昆明", "宁波", "合肥",
	}},
	{Label: "二线城市", Cities: []string{
		"佛山", "沈阳", "无锡", "济南", "厦门", "福州", "温州", "哈尔滨",
		"石家庄", "大连", "南宁", "泉州", "金华", "贵阳", "常州", "长春",
		"南昌", "惠州", "嘉兴", "太原", "珠海", "海口", "兰州", "乌鲁木齐",
	}},
}

var index = func() map[string]string {
	m := make(map[string]string)
	for _, g := range groups {
		for _, c := range g.Cities {
			m[c] = g.Label
		}
	}
	return m
}()

// Groups returns a copy of the city groups in display order.
func Groups() []domain.CityGroup {
	out := make([]domain.CityGroup, len(groups))
	for i, g := range groups {
		out[i] = domain.CityGroup{Label: g.Label, Cities: append([]string(nil), g.Cities...)}
	}
	return out
}

// Contains reports whether city is in the catalog.
func Contains(city string) bool {
	_, ok := index[city]
	return ok
}

// Tier returns the group label for city, or "" if unknown.
func Tier(city string) string {
	return index[city]
}
