package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	"github.com/xiebiao/pressledger/internal/domain/inventory"
	"github.com/xiebiao/pressledger/internal/infrastructure/config"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence"
	"github.com/xiebiao/pressledger/internal/interface/http/router"
	"github.com/xiebiao/pressledger/pkg/jwt"
	"github.com/xiebiao/pressledger/pkg/logger"
)

// 以下Provider同时供main.go手动组装和wire.go使用
// config.Config包含多个配置段,构造函数只需要其中一部分,所以需要手写Provider

// provideLogger 从配置创建日志
func provideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: cfg.Tracing.ServiceName,
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      cfg.Log.Format,
		WarnStack:   cfg.Log.WarnStack,
	})
}

// provideStore 创建持久化管理器(本地文件 + 可选远程仓库)
func provideStore(cfg *config.Config, log *logger.Logger) (*persistence.Manager, func(), error) {
	return persistence.NewFromConfig(context.Background(), cfg, log)
}

// provideRegistry 创建会话注册表
func provideRegistry(store *persistence.Manager, cfg *config.Config) *ledger.Registry {
	return ledger.NewRegistry(store, cfg.Session.TTL)
}

// provideService 创建交易处理服务,每次过账后保存整个会话
func provideService(store *persistence.Manager) inventory.Service {
	return inventory.NewService(store)
}

// provideTokens 创建会话令牌管理器
func provideTokens(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.Session.JWTSecret, cfg.Session.TTL)
}

// provideEngine 创建Gin引擎
func provideEngine(cfg *config.Config, h router.Handlers, log *logger.Logger) *gin.Engine {
	return router.New(router.Options{
		Mode:    cfg.Server.Mode,
		Metrics: cfg.Metrics.Enabled,
		Swagger: cfg.Server.Mode != gin.ReleaseMode,
		CORS:    cfg.Server.CORS,
	}, h, log)
}
