package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	"github.com/xiebiao/pressledger/internal/interface/http/dto"
	"github.com/xiebiao/pressledger/internal/interface/http/middleware"
	"github.com/xiebiao/pressledger/pkg/response"
)

// LedgerHandler 过账与浏览HTTP处理器
type LedgerHandler struct {
	postUseCase         *ledger.PostUseCase
	listItemsUseCase    *ledger.ListItemsUseCase
	listTransactionsUse *ledger.ListTransactionsUseCase
}

// NewLedgerHandler 创建过账处理器
func NewLedgerHandler(
	postUseCase *ledger.PostUseCase,
	listItemsUseCase *ledger.ListItemsUseCase,
	listTransactionsUse *ledger.ListTransactionsUseCase,
) *LedgerHandler {
	return &LedgerHandler{
		postUseCase:         postUseCase,
		listItemsUseCase:    listItemsUseCase,
		listTransactionsUse: listTransactionsUse,
	}
}

// Post 过账
// @Summary      过账
// @Description  入库(RECEIVE)、出库(SHIP)或退货(RETURN),成功后保存整个会话
// @Tags         过账
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PostingRequest true "过账信息"
// @Success      200 {object} response.Response{data=ledger.PostResponse}
// @Failure      200 {object} response.Response "40900 参数错误 / 40001 库存不足"
// @Router       /api/v1/postings [post]
func (h *LedgerHandler) Post(c *gin.Context) {
	// 1. 参数绑定
	var req dto.PostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40901, "参数格式错误: "+err.Error())
		return
	}

	// 2. 调用应用层用例
	result, err := h.postUseCase.Execute(c.Request.Context(), middleware.MustGetSession(c), ledger.PostRequest{
		Kind:     req.Kind,
		Title:    req.Title,
		Client:   req.Client,
		Quantity: req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListItems 库存浏览
// @Summary      库存浏览
// @Description  按书名或ISBN子串搜索,keyword为空返回全部
// @Tags         浏览
// @Produce      json
// @Security     BearerAuth
// @Param        keyword query string false "搜索关键词"
// @Success      200 {object} response.Response{data=ledger.ListItemsResponse}
// @Router       /api/v1/items [get]
func (h *LedgerHandler) ListItems(c *gin.Context) {
	var q dto.ItemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithCode(c, 40901, "参数格式错误: "+err.Error())
		return
	}

	result, err := h.listItemsUseCase.Execute(c.Request.Context(), middleware.MustGetSession(c), ledger.ListItemsRequest{Keyword: q.Keyword})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithList(c, result.List, result.Total)
}

// ListTransactions 交易流水
// @Summary      交易流水
// @Description  按时间倒序返回交易记录
// @Tags         浏览
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "最多返回条数"
// @Success      200 {object} response.Response{data=ledger.ListTransactionsResponse}
// @Router       /api/v1/transactions [get]
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	var q dto.TransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithCode(c, 40901, "参数格式错误: "+err.Error())
		return
	}

	result, err := h.listTransactionsUse.Execute(c.Request.Context(), middleware.MustGetSession(c), ledger.ListTransactionsRequest{Limit: q.Limit})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithList(c, result.List, result.Total)
}
