package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	appreport "github.com/xiebiao/pressledger/internal/application/report"
	"github.com/xiebiao/pressledger/internal/infrastructure/config"
	"github.com/xiebiao/pressledger/internal/interface/http/handler"
	"github.com/xiebiao/pressledger/internal/interface/http/middleware"
	"github.com/xiebiao/pressledger/internal/interface/http/router"
	"github.com/xiebiao/pressledger/pkg/metrics"
	"github.com/xiebiao/pressledger/pkg/tracing"
)

// @title        出版社库存账本API
// @version      1.0
// @description  库存表、交易流水和报表
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in           header
// @name         Authorization

// main 主程序入口
// 说明:手动依赖注入,wire.go中有等价的Wire配置
func main() {
	configPath := flag.String("config", "", "配置文件路径(默认查找./config/config.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("%v", err)
	}
}

// run 组装并运行服务,返回前执行所有清理
func run(configPath string) error {
	// 1. 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logg := provideLogger(cfg)
	ctx := context.Background()

	remoteDesc := "未配置(local_only)"
	if cfg.Remote.Enabled() {
		remoteDesc = cfg.Remote.Backend
	}
	logg.From(ctx).Info().
		Int("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Str("storage_dir", cfg.Storage.Dir).
		Str("remote", remoteDesc).
		Msg("配置加载成功")

	// 2. 指标与链路追踪
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logg.Warn(ctx, "tracing disabled", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// 3. 依赖注入(手动组装)
	// Repository ← Service ← UseCase ← Handler

	// 基础设施层
	store, cleanup, err := provideStore(cfg, logg)
	if err != nil {
		return fmt.Errorf("初始化存储失败: %w", err)
	}
	defer cleanup()

	// 启动时先加载一次,本地文件损坏直接退出
	_, report, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("加载数据失败: %w", err)
	}
	logg.From(ctx).Info().
		Str("inventory_source", report.Inventory.Source).
		Str("history_source", report.History.Source).
		Msg("数据加载成功")

	registry := provideRegistry(store, cfg)
	tokens := provideTokens(cfg)

	// 领域层
	svc := provideService(store)

	// 应用层 + 接口层
	h := router.Handlers{
		Session: handler.NewSessionHandler(
			ledger.NewOpenSessionUseCase(registry, tokens, logg),
			ledger.NewReloadSessionUseCase(registry, logg),
			ledger.NewCloseSessionUseCase(registry),
		),
		Ledger: handler.NewLedgerHandler(
			ledger.NewPostUseCase(svc, logg),
			ledger.NewListItemsUseCase(),
			ledger.NewListTransactionsUseCase(),
		),
		Report: handler.NewReportHandler(
			appreport.NewLowStockUseCase(),
			appreport.NewMonthlySalesUseCase(),
			appreport.NewValuationUseCase(),
			appreport.NewReturnRatesUseCase(),
		),
		SessionAuth: middleware.NewSessionAuth(tokens, registry, logg),
	}
	engine := provideEngine(cfg, h, logg)

	// 4. 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		logg.From(ctx).Info().Str("addr", srv.Addr).Msg("服务启动成功")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 5. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("启动服务失败: %w", err)
	case <-quit:
	}

	logg.Info(ctx, "正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "服务器强制关闭", err)
	}
	return nil
}
