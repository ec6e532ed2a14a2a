// Package api 提供管理员认证相关的HTTP API处理器实现。
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/freshfinds/catalog_server/internal/domain"
	"github.com/freshfinds/catalog_server/internal/middleware"
	"github.com/freshfinds/catalog_server/internal/resp"
	"github.com/freshfinds/catalog_server/internal/service"
)

// AuthHandler 管理员认证相关的HTTP处理器
type AuthHandler struct {
	sessionService service.SessionService
	logger         *zap.Logger
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(sessionService service.SessionService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessionService: sessionService,
		logger:         logger,
	}
}

// Login 处理管理员登录请求
// POST /api/v1/auth/login
// 凭证不匹配时只返回一个统一的错误，不区分邮箱与密码
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "email and password are required", reqID, "")
		return
	}

	session, err := h.sessionService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid credentials", reqID, "")
			return
		}

		h.logger.Error("login failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "login failed", reqID, "")
		return
	}

	// 管理后台走Cookie，API调用方也可以直接使用返回的令牌
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	resp.OK(w, session, reqID, "")
}

// Logout 处理管理员登出请求
// POST /api/v1/auth/logout
// 会话凭证自包含且无服务端吊销列表，登出即清除Cookie并由调用方丢弃令牌
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	result := map[string]any{"logged_out": true}
	resp.OK(w, &result, reqID, "")
}
