//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 运行 `wire gen ./cmd/api` 生成wire_gen.go,
// 生成的InitializeApp与main.go中的手动组装等价。

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	appreport "github.com/xiebiao/pressledger/internal/application/report"
	"github.com/xiebiao/pressledger/internal/infrastructure/config"
	"github.com/xiebiao/pressledger/internal/interface/http/handler"
	"github.com/xiebiao/pressledger/internal/interface/http/middleware"
	"github.com/xiebiao/pressledger/internal/interface/http/router"
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,
	provideLogger,
	provideStore,
	provideRegistry,
	provideTokens,
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	provideService,
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	ledger.NewOpenSessionUseCase,
	ledger.NewReloadSessionUseCase,
	ledger.NewCloseSessionUseCase,
	ledger.NewPostUseCase,
	ledger.NewListItemsUseCase,
	ledger.NewListTransactionsUseCase,
	appreport.NewLowStockUseCase,
	appreport.NewMonthlySalesUseCase,
	appreport.NewValuationUseCase,
	appreport.NewReturnRatesUseCase,
)

// interfaceSet 接口层依赖
var interfaceSet = wire.NewSet(
	middleware.NewSessionAuth,
	handler.NewSessionHandler,
	handler.NewLedgerHandler,
	handler.NewReportHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideEngine,
)

// InitializeApp 初始化整个应用
// configPath为空时在./config和当前目录查找config.yaml
func InitializeApp(configPath string) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}
