// Package limiter 限流中间件实现
package limiter

import (
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/freshfinds/catalog_server/internal/middleware"
	"github.com/freshfinds/catalog_server/internal/resp"
)

// RateLimit 基于客户端IP的限流中间件
// 用于保护匿名可写的公开接口（如意向记录），被限流的请求返回429并携带Retry-After。
func RateLimit(l Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			result, err := l.Allow(r.Context(), key)
			if err != nil {
				// 限流器异常时放行而不是拒绝，避免限流组件故障放大为服务不可用
				logger.Error("rate limiter failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

			if !result.Allowed {
				reqID := middleware.RequestIDFromContext(r.Context())
				if result.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.FormatInt(int64(result.RetryAfter.Seconds())+1, 10))
				}
				logger.Warn("request rate limited",
					zap.String("request_id", reqID),
					zap.String("client_ip", key),
					zap.String("path", r.URL.Path),
				)
				resp.Error(w, http.StatusTooManyRequests, resp.CodeTooManyRequests, "too many requests", reqID, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP 提取客户端IP，优先使用反向代理传递的首个X-Forwarded-For条目
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
