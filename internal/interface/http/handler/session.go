package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	"github.com/xiebiao/pressledger/internal/interface/http/middleware"
	"github.com/xiebiao/pressledger/pkg/response"
)

// SessionHandler 会话HTTP处理器
type SessionHandler struct {
	openUseCase   *ledger.OpenSessionUseCase
	reloadUseCase *ledger.ReloadSessionUseCase
	closeUseCase  *ledger.CloseSessionUseCase
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(
	openUseCase *ledger.OpenSessionUseCase,
	reloadUseCase *ledger.ReloadSessionUseCase,
	closeUseCase *ledger.CloseSessionUseCase,
) *SessionHandler {
	return &SessionHandler{
		openUseCase:   openUseCase,
		reloadUseCase: reloadUseCase,
		closeUseCase:  closeUseCase,
	}
}

// Open 打开会话
// @Summary      打开会话
// @Description  加载库存表和交易流水,返回会话令牌和加载报告
// @Tags         会话
// @Produce      json
// @Success      200 {object} response.Response{data=ledger.OpenSessionResponse}
// @Failure      200 {object} response.Response "50003 本地数据文件损坏"
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	result, err := h.openUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Reload 重新加载
// @Summary      重新加载
// @Description  丢弃会话中的数据,重新从远程仓库/本地文件加载
// @Tags         会话
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=inventory.LoadReport}
// @Router       /api/v1/sessions/reload [post]
func (h *SessionHandler) Reload(c *gin.Context) {
	report, err := h.reloadUseCase.Execute(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}

// Close 关闭会话
// @Summary      关闭会话
// @Tags         会话
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/v1/sessions [delete]
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.closeUseCase.Execute(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
