// Package report 报表视图
//
// 所有函数都是纯函数:只读取库存表/交易日志,不做任何修改,
// 对同一输入总是返回相同结果。
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
)

// MonthLayout 月份格式
const MonthLayout = "2006-01"

var hundred = decimal.NewFromInt(100)

// LowStock 低库存预警:库存≤安全库存的行,保持库存表顺序
func LowStock(table *inventory.Table) []inventory.Item {
	var out []inventory.Item
	for _, item := range table.Items() {
		if item.IsLowStock() {
			out = append(out, item)
		}
	}
	return out
}

// SalesPivot 月度销量透视表
// Quantities[i][j] 为 Months[i] 月份 Titles[j] 的出库总量,没有出库记录的格子为0
type SalesPivot struct {
	Months     []string `json:"months"`
	Titles     []string `json:"titles"`
	Quantities [][]int  `json:"quantities"`
}

// Total 某月合计
func (p *SalesPivot) Total(month int) int {
	sum := 0
	for _, q := range p.Quantities[month] {
		sum += q
	}
	return sum
}

// MonthlySales 按月份×书名汇总出库数量(只统计SHIP)
// 月份、书名都按升序排列
func MonthlySales(log *inventory.Log) *SalesPivot {
	type key struct{ month, title string }
	sums := make(map[key]int)
	monthSet := make(map[string]struct{})
	titleSet := make(map[string]struct{})

	for _, rec := range log.Records() {
		if rec.Kind != inventory.KindShip {
			continue
		}
		m := rec.Timestamp.Format(MonthLayout)
		sums[key{m, rec.Title}] += rec.Quantity
		monthSet[m] = struct{}{}
		titleSet[rec.Title] = struct{}{}
	}

	p := &SalesPivot{
		Months: sortedKeys(monthSet),
		Titles: sortedKeys(titleSet),
	}
	p.Quantities = make([][]int, len(p.Months))
	for i, m := range p.Months {
		row := make([]int, len(p.Titles))
		for j, title := range p.Titles {
			row[j] = sums[key{m, title}]
		}
		p.Quantities[i] = row
	}
	return p
}

// ValuationLine 单本书的库存资产
type ValuationLine struct {
	Title     string          `json:"title"`
	OnHand    int             `json:"on_hand"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// ValuationReport 库存资产估值
type ValuationReport struct {
	Lines []ValuationLine `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Valuation 库存资产 = Σ 库存 × 单价
func Valuation(table *inventory.Table) *ValuationReport {
	r := &ValuationReport{Total: decimal.Zero}
	for _, item := range table.Items() {
		v := item.Value()
		r.Lines = append(r.Lines, ValuationLine{
			Title:     item.Title,
			OnHand:    item.OnHand,
			UnitPrice: item.UnitPrice,
			Value:     v,
		})
		r.Total = r.Total.Add(v)
	}
	return r
}

// ClientReturns 单个交易方的出库/退货汇总
type ClientReturns struct {
	Client   string          `json:"client"`
	Shipped  int             `json:"shipped"`
	Returned int             `json:"returned"`
	Rate     decimal.Decimal `json:"rate"` // 退货率(百分比)
}

// ReturnRateReport 退货率报表
// 出库为0的交易方无法计算退货率,单独列在Uncomputable中
type ReturnRateReport struct {
	Rates        []ClientReturns `json:"rates"`
	Uncomputable []ClientReturns `json:"uncomputable"`
}

// ReturnRates 按交易方计算退货率 = 退货 / 出库 × 100
func ReturnRates(log *inventory.Log) *ReturnRateReport {
	byClient := make(map[string]*ClientReturns)
	for _, rec := range log.Records() {
		if rec.Kind != inventory.KindShip && rec.Kind != inventory.KindReturn {
			continue
		}
		c, ok := byClient[rec.Client]
		if !ok {
			c = &ClientReturns{Client: rec.Client}
			byClient[rec.Client] = c
		}
		if rec.Kind == inventory.KindShip {
			c.Shipped += rec.Quantity
		} else {
			c.Returned += rec.Quantity
		}
	}

	names := make([]string, 0, len(byClient))
	for name := range byClient {
		names = append(names, name)
	}
	sort.Strings(names)

	r := &ReturnRateReport{}
	for _, name := range names {
		c := *byClient[name]
		if c.Shipped == 0 {
			r.Uncomputable = append(r.Uncomputable, c)
			continue
		}
		c.Rate = decimal.NewFromInt(int64(c.Returned)).
			Div(decimal.NewFromInt(int64(c.Shipped))).
			Mul(hundred)
		r.Rates = append(r.Rates, c)
	}
	return r
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
