package normalize

// 对extracted层数据计算派生列并过滤明显不合理的记录，得到formatted层

import (
	"strings"

	"github.com/dszqbsm/rentmonitor/listing"
)

// 商用房源的类型关键词，与listing_type做不区分大小写的包含匹配
var CommercialKeywords = []string{
	"loja", "lote", "galpão", "depósito", "armazém", "prédio", "edifício", "terreno",
	"sala", "comercial", "ponto", "conjunto", "andar corrido", "garagem", "box",
}

// 按日计价的价格换算为月价格时使用的天数
const daysPerMonth = 30

// 合理性过滤的阈值
const (
	MinPricePerArea = 1.0
	MaxPricePerArea = 500.0
	MaxArea         = 2000.0
	MaxCondoPerArea = 40.0
)

func Category(listingType *string) string {
	if listingType == nil {
		return listing.CategoryResidential
	}
	t := strings.ToLower(*listingType)
	for _, k := range CommercialKeywords {
		if strings.Contains(t, k) {
			return listing.CategoryCommercial
		}
	}
	return listing.CategoryResidential
}

/*
输入一条extracted记录，输出带派生列的formatted记录

计算顺序：空的物业费视为0；按房源类型判断商用或住宅；总费用为价格加物业费；
单位面积价格与单位面积物业费按面积计算，按日计价时再除以30。缺少价格或面积时对应的派生列为空
*/
func Derive(l listing.Listing) listing.Formatted {
	f := l.ToFormatted()
	condo := 0.0
	if f.CondoFee != nil {
		condo = *f.CondoFee
	}
	f.CondoFee = listing.Float(condo)
	f.Category = Category(f.ListingType)

	if f.Price == nil {
		return f
	}
	price := *f.Price
	f.TotalCost = listing.Float(price + condo)

	if f.Area == nil || *f.Area <= 0 {
		return f
	}
	divisor := *f.Area
	if f.PricePeriod != nil && *f.PricePeriod == listing.PeriodDay {
		divisor *= daysPerMonth
	}
	f.PricePerArea = listing.Float(price / divisor)
	f.CondoPerArea = listing.Float(condo / divisor)
	return f
}

// Plausible 判断记录是否通过合理性过滤，任何需要的值为空时不通过
func Plausible(f listing.Formatted) bool {
	if f.PricePerArea == nil || f.Area == nil || f.CondoPerArea == nil || f.PricePeriod == nil {
		return false
	}
	ppa := *f.PricePerArea
	if ppa < MinPricePerArea || ppa >= MaxPricePerArea {
		return false
	}
	if *f.Area > MaxArea || *f.CondoPerArea > MaxCondoPerArea {
		return false
	}
	switch *f.PricePeriod {
	case listing.PeriodDay, listing.PeriodMonth:
		return true
	}
	return false
}

// Filter 保留通过过滤的记录，对自身的输出再次过滤结果不变
func Filter(rows []listing.Formatted) []listing.Formatted {
	out := make([]listing.Formatted, 0, len(rows))
	for _, r := range rows {
		if Plausible(r) {
			out = append(out, r)
		}
	}
	return out
}

// Apply 依次计算派生列和过滤
func Apply(rows []listing.Listing) []listing.Formatted {
	derived := make([]listing.Formatted, len(rows))
	for i, r := range rows {
		derived[i] = Derive(r)
	}
	return Filter(derived)
}
