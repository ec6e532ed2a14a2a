// Package service 提供管理员会话凭证的签发与校验功能。
package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/freshfinds/catalog_server/internal/config"
	"github.com/freshfinds/catalog_server/internal/domain"
)

// 会话相关错误定义
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrSessionExpired     = errors.New("session expired")
)

// SessionClaims 定义会话令牌的载荷结构
// 继承jwt.RegisteredClaims以获得标准声明字段
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionService 定义管理员会话网关接口
// 登录成功签发带过期时间的会话凭证；所有管理操作在进入业务层前由该凭证把关。
// 凭证是自包含的bearer令牌，没有服务端吊销列表，登出即调用方丢弃令牌。
type SessionService interface {
	Login(req *domain.LoginRequest) (*domain.AdminSession, error)
	Validate(tokenString string) (*SessionClaims, error)
}

// sessionService 是SessionService接口的实现
type sessionService struct {
	config *config.Config
	logger *zap.Logger
}

// NewSessionService 创建会话服务实例
func NewSessionService(cfg *config.Config, logger *zap.Logger) SessionService {
	return &sessionService{
		config: cfg,
		logger: logger,
	}
}

// Login 校验共享管理员凭证并签发会话凭证
// 业务规则：
// 1. 邮箱比较忽略大小写与首尾空白，密码精确比较
// 2. 邮箱或密码任一不匹配都返回同一个错误，避免凭证枚举
func (s *sessionService) Login(req *domain.LoginRequest) (*domain.AdminSession, error) {
	emailOK := strings.EqualFold(
		strings.TrimSpace(req.Email),
		strings.TrimSpace(s.config.Admin.Email),
	)

	if !emailOK || !s.passwordMatches(req.Password) {
		s.logger.Warn("admin login rejected")
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.config.Session.TTL)

	claims := &SessionClaims{
		Email: strings.ToLower(strings.TrimSpace(s.config.Admin.Email)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.App.Name,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Session.Secret))
	if err != nil {
		s.logger.Error("failed to sign session token", zap.Error(err))
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("admin session issued",
		zap.Time("issued_at", now),
		zap.Time("expires_at", expiresAt),
		zap.Duration("ttl", s.config.Session.TTL),
	)

	return &domain.AdminSession{
		Token:     tokenString,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate 校验会话凭证
// 过期的凭证返回 ErrSessionExpired，其余一切异常统一为 ErrInvalidSession
func (s *sessionService) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Session.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		s.logger.Warn("session validation failed", zap.Error(err))
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}

	// 验证发行者
	if claims.Issuer != s.config.App.Name {
		s.logger.Warn("session issuer mismatch",
			zap.String("expected", s.config.App.Name),
			zap.String("actual", claims.Issuer),
		)
		return nil, ErrInvalidSession
	}

	return claims, nil
}

// passwordMatches 比较提交的密码与配置的管理员密码
// 配置了bcrypt哈希时优先用哈希比较，否则对明文做恒定时间比较
func (s *sessionService) passwordMatches(password string) bool {
	if s.config.Admin.PasswordHash != "" {
		err := bcrypt.CompareHashAndPassword([]byte(s.config.Admin.PasswordHash), []byte(password))
		return err == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.config.Admin.Password)) == 1
}
