package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	"github.com/xiebiao/pressledger/internal/domain/inventory"
	"github.com/xiebiao/pressledger/pkg/jwt"
	"github.com/xiebiao/pressledger/pkg/logger"
	"github.com/xiebiao/pressledger/pkg/response"
)

const (
	keySessionID = "session_id"
	keySession   = "session"
)

// SessionAuth 会话认证中间件
// 设计说明:
// 1. 从Header提取会话令牌
// 2. 验证令牌并取出会话ID
// 3. 在注册表中查找会话(会话关闭或过期后令牌随之失效)
// 4. 将会话注入Context
type SessionAuth struct {
	tokens   *jwt.Manager
	registry *ledger.Registry
	log      *logger.Logger
}

// NewSessionAuth 创建会话认证中间件
func NewSessionAuth(tokens *jwt.Manager, registry *ledger.Registry, log *logger.Logger) *SessionAuth {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionAuth{tokens: tokens, registry: registry, log: log}
}

// RequireSession 要求已打开会话
// 使用方式:
//
//	authorized := r.Group("/api/v1")
//	authorized.Use(sessionAuth.RequireSession())
//	authorized.POST("/postings", handler.Post)
func (m *SessionAuth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从Header提取令牌
		// 格式:Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.ErrorWithCode(c, 40100, "请先打开会话")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.ErrorWithCode(c, 40101, "Token格式错误")
			c.Abort()
			return
		}

		// 2. 验证令牌
		claims, err := m.tokens.ParseToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		// 3. 查找会话
		sess, err := m.registry.Get(claims.SessionID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		// 4. 注入Context
		c.Set(keySessionID, claims.SessionID)
		c.Set(keySession, sess)
		c.Request = c.Request.WithContext(m.log.WithSessionID(c.Request.Context(), claims.SessionID))

		c.Next()
	}
}

// =========================================
// Context辅助函数(供Handler使用)
// =========================================

// GetSessionID 从Context获取当前会话ID
func GetSessionID(c *gin.Context) string {
	return c.GetString(keySessionID)
}

// MustGetSession 从Context获取当前会话(如果不存在则panic)
// 说明:用于已经通过RequireSession中间件的Handler
func MustGetSession(c *gin.Context) *inventory.Session {
	v, ok := c.Get(keySession)
	if !ok {
		panic("session not found in context")
	}
	return v.(*inventory.Session)
}
