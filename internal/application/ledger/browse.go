package ledger

import (
	"context"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
)

// ListItemsUseCase 库存浏览用例
type ListItemsUseCase struct{}

// NewListItemsUseCase 创建库存浏览用例
func NewListItemsUseCase() *ListItemsUseCase {
	return &ListItemsUseCase{}
}

// ListItemsRequest 库存浏览请求DTO
type ListItemsRequest struct {
	Keyword string // 匹配书名或ISBN的子串,为空返回全部
}

// ListItemsResponse 库存浏览响应DTO
type ListItemsResponse struct {
	List  []ItemView `json:"list"`
	Total int        `json:"total"`
}

// Execute 执行库存浏览
func (uc *ListItemsUseCase) Execute(_ context.Context, sess *inventory.Session, req ListItemsRequest) (*ListItemsResponse, error) {
	var items []inventory.Item
	sess.View(func(table *inventory.Table, _ *inventory.Log) {
		items = table.Search(req.Keyword)
	})
	return &ListItemsResponse{List: NewItemViews(items), Total: len(items)}, nil
}

// ListTransactionsUseCase 交易流水用例
type ListTransactionsUseCase struct{}

// NewListTransactionsUseCase 创建交易流水用例
func NewListTransactionsUseCase() *ListTransactionsUseCase {
	return &ListTransactionsUseCase{}
}

// ListTransactionsRequest 交易流水请求DTO
type ListTransactionsRequest struct {
	Limit int // 最多返回条数,<=0表示全部
}

// ListTransactionsResponse 交易流水响应DTO
type ListTransactionsResponse struct {
	List  []RecordView `json:"list"`
	Total int          `json:"total"`
}

// Execute 按时间倒序返回交易流水
func (uc *ListTransactionsUseCase) Execute(_ context.Context, sess *inventory.Session, req ListTransactionsRequest) (*ListTransactionsResponse, error) {
	var records []inventory.Record
	sess.View(func(_ *inventory.Table, history *inventory.Log) {
		records = history.SortedByTime()
	})

	total := len(records)
	if req.Limit > 0 && req.Limit < total {
		records = records[:req.Limit]
	}

	list := make([]RecordView, len(records))
	for i, rec := range records {
		list[i] = NewRecordView(rec)
	}
	return &ListTransactionsResponse{List: list, Total: total}, nil
}
