package ledger

import (
	"github.com/xiebiao/pressledger/internal/domain/inventory"
)

// =========================================
// 应用层DTO
// =========================================

// ItemView 库存行
// 金额统一用字符串表示,避免JSON浮点误差
type ItemView struct {
	Title       string `json:"title"`
	UnitPrice   string `json:"unit_price"`
	ISBN        string `json:"isbn"`
	OnHand      int    `json:"on_hand"`
	SafetyStock int    `json:"safety_stock"`
	LowStock    bool   `json:"low_stock"`
}

// RecordView 交易记录
type RecordView struct {
	Timestamp string `json:"timestamp"`
	Client    string `json:"client"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

// PersistView 保存结果
type PersistView struct {
	Status   inventory.PersistStatus `json:"status"`
	Warnings []string                `json:"warnings,omitempty"`
}

// NewItemView 转换库存行
func NewItemView(item inventory.Item) ItemView {
	return ItemView{
		Title:       item.Title,
		UnitPrice:   item.UnitPrice.String(),
		ISBN:        item.ISBN,
		OnHand:      item.OnHand,
		SafetyStock: item.SafetyStock,
		LowStock:    item.IsLowStock(),
	}
}

// NewItemViews 批量转换库存行
func NewItemViews(items []inventory.Item) []ItemView {
	out := make([]ItemView, len(items))
	for i, item := range items {
		out[i] = NewItemView(item)
	}
	return out
}

// NewRecordView 转换交易记录
func NewRecordView(rec inventory.Record) RecordView {
	return RecordView{
		Timestamp: rec.Timestamp.Format(inventory.TimeLayout),
		Client:    rec.Client,
		Title:     rec.Title,
		Kind:      string(rec.Kind),
		Quantity:  rec.Quantity,
		UnitPrice: rec.UnitPrice.String(),
		Amount:    rec.Amount().String(),
	}
}

// NewPersistView 转换保存报告
// 保存本身失败(本地写入失败)时report可能为nil
func NewPersistView(report *inventory.SaveReport, err error) PersistView {
	view := PersistView{Status: inventory.StatusDegraded}
	if report != nil {
		view.Status = report.Status
		for _, f := range report.Failures {
			view.Warnings = append(view.Warnings, f.Target+" "+f.Table+": "+errString(f.Err))
		}
	}
	if err != nil && (report == nil || len(report.Failures) == 0) {
		view.Warnings = append(view.Warnings, errString(err))
	}
	return view
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
