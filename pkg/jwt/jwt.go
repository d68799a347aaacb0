package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/pressledger/pkg/errors"
)

// Issuer 会话令牌签发者
const Issuer = "pressledger"

// Manager 会话令牌管理器
// 设计说明:
// 1. 令牌只携带会话ID,会话数据保存在服务端Registry中
// 2. 令牌有效期与会话TTL一致,两者都从打开会话时起算,不续期
type Manager struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager 创建令牌管理器
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: secret, ttl: ttl, now: time.Now}
}

// Claims 会话令牌Claims
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Token 签发结果
type Token struct {
	Value     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // 秒
}

// GenerateToken 为会话签发令牌
func (m *Manager) GenerateToken(sessionID string) (*Token, error) {
	now := m.now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   sessionID,
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.secret))
	if err != nil {
		return nil, apperrors.Wrap(err, "生成会话令牌失败")
	}
	return &Token{Value: value, ExpiresIn: int64(m.ttl.Seconds())}, nil
}

// ParseToken 解析并验证令牌
// 过期返回ErrTokenExpired,签名错误或格式错误返回ErrInvalidToken
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
