package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xiebiao/pressledger/pkg/logger"
	"github.com/xiebiao/pressledger/pkg/tracing"
)

// HeaderRequestID 请求ID响应头
const HeaderRequestID = "X-Request-ID"

// SlowRequestThreshold 超过该耗时的请求以warn级别记录
const SlowRequestThreshold = 3 * time.Second

// Logger 请求日志中间件
// 1. 沿用客户端传入的X-Request-ID,没有则生成uuid
// 2. request_id和trace_id绑定到请求context,后续日志自动携带
// 3. 请求结束后输出一条结构化日志
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		ctx := log.WithRequestID(c.Request.Context(), requestID)
		if traceID := tracing.ExtractTraceID(ctx); traceID != "" {
			ctx = log.WithField(ctx, "trace_id", traceID)
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		// 会话中间件可能替换过context,这里取最新的
		entry := log.From(c.Request.Context())
		event := entry.Info()
		switch {
		case len(c.Errors) > 0:
			event = entry.Warn().Str("errors", c.Errors.String())
		case latency > SlowRequestThreshold:
			event = entry.Warn().Bool("slow", true)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
