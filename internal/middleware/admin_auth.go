package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/freshfinds/catalog_server/internal/resp"
	"github.com/freshfinds/catalog_server/internal/service"
)

// SessionCookieName 管理后台登录时下发的会话Cookie名
const SessionCookieName = "admin_session"

// AdminAuth 管理会话校验中间件
// 所有管理路径的唯一入口闸门：请求必须携带有效且未过期的会话凭证，
// 否则在到达目录服务的任何变更操作之前被拒绝。
// 凭证从 Authorization: Bearer 头或 admin_session Cookie 中提取。
// 过期会话不会产生独立的错误流程，仅表现为退回未认证状态。
func AdminAuth(sessionService service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())

			tokenString := extractSessionToken(r)
			if tokenString == "" {
				logger.Warn("missing session token", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "admin session required", reqID, "")
				return
			}

			claims, err := sessionService.Validate(tokenString)
			if err != nil {
				logger.Warn("session validation failed",
					zap.String("request_id", reqID),
					zap.Error(err),
				)

				switch err {
				case service.ErrSessionExpired:
					resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "session expired", reqID, "")
				default:
					resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid session", reqID, "")
				}
				return
			}

			ctx := context.WithValue(r.Context(), contextKeySession, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext 从请求上下文中获取当前管理会话声明
func SessionFromContext(ctx context.Context) *service.SessionClaims {
	if claims, ok := ctx.Value(contextKeySession).(*service.SessionClaims); ok {
		return claims
	}
	return nil
}

// extractSessionToken 依次尝试 Authorization 头与会话Cookie
func extractSessionToken(r *http.Request) string {
	const bearerPrefix = "Bearer "
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
