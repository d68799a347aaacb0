package handler

import (
	"github.com/gin-gonic/gin"

	appreport "github.com/xiebiao/pressledger/internal/application/report"
	"github.com/xiebiao/pressledger/internal/interface/http/middleware"
	"github.com/xiebiao/pressledger/pkg/response"
)

// ReportHandler 报表HTTP处理器
type ReportHandler struct {
	lowStock     *appreport.LowStockUseCase
	monthlySales *appreport.MonthlySalesUseCase
	valuation    *appreport.ValuationUseCase
	returnRates  *appreport.ReturnRatesUseCase
}

// NewReportHandler 创建报表处理器
func NewReportHandler(
	lowStock *appreport.LowStockUseCase,
	monthlySales *appreport.MonthlySalesUseCase,
	valuation *appreport.ValuationUseCase,
	returnRates *appreport.ReturnRatesUseCase,
) *ReportHandler {
	return &ReportHandler{
		lowStock:     lowStock,
		monthlySales: monthlySales,
		valuation:    valuation,
		returnRates:  returnRates,
	}
}

// LowStock 低库存预警
// @Summary      低库存预警
// @Description  库存小于等于安全库存的书
// @Tags         报表
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appreport.LowStockResponse}
// @Router       /api/v1/alerts/low-stock [get]
func (h *ReportHandler) LowStock(c *gin.Context) {
	result, err := h.lowStock.Execute(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// MonthlySales 月度销量
// @Summary      月度销量
// @Description  月份×书名的出库数量透视表
// @Tags         报表
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appreport.MonthlySalesResponse}
// @Router       /api/v1/reports/monthly-sales [get]
func (h *ReportHandler) MonthlySales(c *gin.Context) {
	result, err := h.monthlySales.Execute(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Valuation 库存估值
// @Summary      库存估值
// @Tags         报表
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appreport.ValuationResponse}
// @Router       /api/v1/reports/valuation [get]
func (h *ReportHandler) Valuation(c *gin.Context) {
	result, err := h.valuation.Execute(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ReturnRates 退货率
// @Summary      退货率
// @Description  按交易方统计,出库为0的交易方列在uncomputable中
// @Tags         报表
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appreport.ReturnRatesResponse}
// @Router       /api/v1/reports/return-rates [get]
func (h *ReportHandler) ReturnRates(c *gin.Context) {
	result, err := h.returnRates.Execute(c.Request.Context(), middleware.MustGetSession(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
