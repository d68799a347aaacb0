// Package report 报表用例
//
// 所有用例都在会话锁内一次性读取数据,调用领域层的纯函数计算,
// 然后把金额和百分比转换为定长字符串。
package report

import (
	"context"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	"github.com/xiebiao/pressledger/internal/domain/inventory"
	domain "github.com/xiebiao/pressledger/internal/domain/report"
)

// RateDecimals 退货率保留的小数位数
const RateDecimals = 2

// LowStockUseCase 低库存预警用例
type LowStockUseCase struct{}

// NewLowStockUseCase 创建低库存预警用例
func NewLowStockUseCase() *LowStockUseCase { return &LowStockUseCase{} }

// LowStockResponse 低库存预警响应DTO
type LowStockResponse struct {
	List []ledger.ItemView `json:"list"`
}

// Execute 返回库存≤安全库存的书
func (uc *LowStockUseCase) Execute(_ context.Context, sess *inventory.Session) (*LowStockResponse, error) {
	var items []inventory.Item
	sess.View(func(table *inventory.Table, _ *inventory.Log) {
		items = domain.LowStock(table)
	})
	return &LowStockResponse{List: ledger.NewItemViews(items)}, nil
}

// MonthlySalesUseCase 月度销量用例
type MonthlySalesUseCase struct{}

// NewMonthlySalesUseCase 创建月度销量用例
func NewMonthlySalesUseCase() *MonthlySalesUseCase { return &MonthlySalesUseCase{} }

// MonthlySalesResponse 月度销量响应DTO
type MonthlySalesResponse struct {
	Months     []string `json:"months"`
	Titles     []string `json:"titles"`
	Quantities [][]int  `json:"quantities"`
	Totals     []int    `json:"totals"` // 每月合计
}

// Execute 按月份×书名汇总出库数量
func (uc *MonthlySalesUseCase) Execute(_ context.Context, sess *inventory.Session) (*MonthlySalesResponse, error) {
	var pivot *domain.SalesPivot
	sess.View(func(_ *inventory.Table, history *inventory.Log) {
		pivot = domain.MonthlySales(history)
	})

	totals := make([]int, len(pivot.Months))
	for i := range pivot.Months {
		totals[i] = pivot.Total(i)
	}
	return &MonthlySalesResponse{
		Months:     pivot.Months,
		Titles:     pivot.Titles,
		Quantities: pivot.Quantities,
		Totals:     totals,
	}, nil
}

// ValuationUseCase 库存估值用例
type ValuationUseCase struct{}

// NewValuationUseCase 创建库存估值用例
func NewValuationUseCase() *ValuationUseCase { return &ValuationUseCase{} }

// ValuationLine 估值行DTO
type ValuationLine struct {
	Title     string `json:"title"`
	OnHand    int    `json:"on_hand"`
	UnitPrice string `json:"unit_price"`
	Value     string `json:"value"`
}

// ValuationResponse 库存估值响应DTO
type ValuationResponse struct {
	Lines []ValuationLine `json:"lines"`
	Total string          `json:"total"`
}

// Execute 计算库存资产
func (uc *ValuationUseCase) Execute(_ context.Context, sess *inventory.Session) (*ValuationResponse, error) {
	var r *domain.ValuationReport
	sess.View(func(table *inventory.Table, _ *inventory.Log) {
		r = domain.Valuation(table)
	})

	lines := make([]ValuationLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = ValuationLine{
			Title:     l.Title,
			OnHand:    l.OnHand,
			UnitPrice: l.UnitPrice.String(),
			Value:     l.Value.String(),
		}
	}
	return &ValuationResponse{Lines: lines, Total: r.Total.String()}, nil
}

// ReturnRatesUseCase 退货率用例
type ReturnRatesUseCase struct{}

// NewReturnRatesUseCase 创建退货率用例
func NewReturnRatesUseCase() *ReturnRatesUseCase { return &ReturnRatesUseCase{} }

// ClientRate 交易方退货率DTO
type ClientRate struct {
	Client   string `json:"client"`
	Shipped  int    `json:"shipped"`
	Returned int    `json:"returned"`
	Rate     string `json:"rate,omitempty"` // 百分比,保留两位小数;无法计算时为空
}

// ReturnRatesResponse 退货率响应DTO
type ReturnRatesResponse struct {
	Rates        []ClientRate `json:"rates"`
	Uncomputable []ClientRate `json:"uncomputable"`
}

// Execute 按交易方计算退货率
func (uc *ReturnRatesUseCase) Execute(_ context.Context, sess *inventory.Session) (*ReturnRatesResponse, error) {
	var r *domain.ReturnRateReport
	sess.View(func(_ *inventory.Table, history *inventory.Log) {
		r = domain.ReturnRates(history)
	})

	resp := &ReturnRatesResponse{
		Rates:        make([]ClientRate, 0, len(r.Rates)),
		Uncomputable: make([]ClientRate, 0, len(r.Uncomputable)),
	}
	for _, c := range r.Rates {
		resp.Rates = append(resp.Rates, ClientRate{
			Client:   c.Client,
			Shipped:  c.Shipped,
			Returned: c.Returned,
			Rate:     c.Rate.StringFixed(RateDecimals),
		})
	}
	for _, c := range r.Uncomputable {
		resp.Uncomputable = append(resp.Uncomputable, ClientRate{
			Client:   c.Client,
			Shipped:  c.Shipped,
			Returned: c.Returned,
		})
	}
	return resp, nil
}
