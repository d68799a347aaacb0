package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/pressledger/internal/infrastructure/config"
	"github.com/xiebiao/pressledger/internal/interface/http/handler"
	"github.com/xiebiao/pressledger/internal/interface/http/middleware"
	"github.com/xiebiao/pressledger/pkg/logger"
	"github.com/xiebiao/pressledger/pkg/response"
)

// Options 路由选项
type Options struct {
	Mode    string // debug | release | test
	Metrics bool   // 是否暴露/metrics
	Swagger bool   // 是否暴露/swagger
	CORS    config.CORSConfig
}

// Handlers 路由依赖的处理器
type Handlers struct {
	Session     *handler.SessionHandler
	Ledger      *handler.LedgerHandler
	Report      *handler.ReportHandler
	SessionAuth *middleware.SessionAuth
}

// New 创建Gin引擎并注册所有路由
func New(opts Options, h Handlers, log *logger.Logger) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Tracing(), middleware.Logger(log), middleware.CORS(opts.CORS), middleware.Metrics())

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	if opts.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Swagger文档:访问 /swagger/index.html
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		// 打开会话(公开接口)
		v1.POST("/sessions", h.Session.Open)

		// 需要会话令牌的路由
		authorized := v1.Group("")
		authorized.Use(h.SessionAuth.RequireSession())
		{
			authorized.POST("/sessions/reload", h.Session.Reload)
			authorized.DELETE("/sessions", h.Session.Close)

			authorized.POST("/postings", h.Ledger.Post)
			authorized.GET("/items", h.Ledger.ListItems)
			authorized.GET("/transactions", h.Ledger.ListTransactions)

			authorized.GET("/alerts/low-stock", h.Report.LowStock)

			reports := authorized.Group("/reports")
			{
				reports.GET("/monthly-sales", h.Report.MonthlySales)
				reports.GET("/valuation", h.Report.Valuation)
				reports.GET("/return-rates", h.Report.ReturnRates)
			}
		}
	}

	return r
}
