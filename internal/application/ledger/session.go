package ledger

import (
	"context"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	"github.com/xiebiao/pressledger/pkg/jwt"
	"github.com/xiebiao/pressledger/pkg/logger"
)

// OpenSessionUseCase 打开会话用例
// 设计说明:
// 1. 从存储加载两张表(远程 → 本地 → 示例数据)
// 2. 注册会话并签发会话令牌
// 3. 本地文件损坏时加载失败,不创建会话
type OpenSessionUseCase struct {
	registry *Registry
	tokens   *jwt.Manager
	log      *logger.Logger
}

// NewOpenSessionUseCase 创建打开会话用例
func NewOpenSessionUseCase(registry *Registry, tokens *jwt.Manager, log *logger.Logger) *OpenSessionUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &OpenSessionUseCase{registry: registry, tokens: tokens, log: log}
}

// OpenSessionResponse 打开会话响应DTO
type OpenSessionResponse struct {
	SessionID string                `json:"session_id"`
	Token     string                `json:"token"`
	ExpiresIn int64                 `json:"expires_in"`
	Load      *inventory.LoadReport `json:"load"`
}

// Execute 执行打开会话
func (uc *OpenSessionUseCase) Execute(ctx context.Context) (*OpenSessionResponse, error) {
	// 1. 加载并注册
	id, _, report, err := uc.registry.Open(ctx)
	if err != nil {
		uc.log.Error(ctx, "session load failed", err)
		return nil, err
	}

	// 2. 签发令牌
	token, err := uc.tokens.GenerateToken(id)
	if err != nil {
		_ = uc.registry.Close(id)
		return nil, err
	}

	uc.log.From(ctx).Info().
		Str("session_id", id).
		Str("inventory_source", report.Inventory.Source).
		Str("history_source", report.History.Source).
		Msg("session opened")

	return &OpenSessionResponse{
		SessionID: id,
		Token:     token.Value,
		ExpiresIn: token.ExpiresIn,
		Load:      report,
	}, nil
}

// ReloadSessionUseCase 重新加载用例(手动"从远程重新加载")
type ReloadSessionUseCase struct {
	registry *Registry
	log      *logger.Logger
}

// NewReloadSessionUseCase 创建重新加载用例
func NewReloadSessionUseCase(registry *Registry, log *logger.Logger) *ReloadSessionUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReloadSessionUseCase{registry: registry, log: log}
}

// Execute 执行重新加载
// 加载失败时会话保持原数据
func (uc *ReloadSessionUseCase) Execute(ctx context.Context, sessionID string) (*inventory.LoadReport, error) {
	report, err := uc.registry.Reload(ctx, sessionID)
	if err != nil {
		uc.log.Warn(ctx, "session reload failed", err)
		return nil, err
	}
	uc.log.Info(ctx, "session reloaded")
	return report, nil
}

// CloseSessionUseCase 关闭会话用例
type CloseSessionUseCase struct {
	registry *Registry
}

// NewCloseSessionUseCase 创建关闭会话用例
func NewCloseSessionUseCase(registry *Registry) *CloseSessionUseCase {
	return &CloseSessionUseCase{registry: registry}
}

// Execute 执行关闭会话
func (uc *CloseSessionUseCase) Execute(_ context.Context, sessionID string) error {
	return uc.registry.Close(sessionID)
}
