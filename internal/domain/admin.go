package domain

import "time"

// LoginRequest 表示管理员登录请求
// 系统只有一对共享的管理员凭证，不存在多用户体系
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminSession 表示一次已认证的管理员会话
// 会话凭证本身是带过期时间的不透明令牌，这里只承载返回给调用方的元信息
type AdminSession struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
