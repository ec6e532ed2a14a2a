// Package limiter 令牌桶限流器实现
package limiter

import (
	"context"
	"sync"
	"time"
)

// bucket 单个key的令牌桶状态
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter 进程内令牌桶限流器
// 每个key维护独立的桶：容量为capacity，每经过interval补充一个令牌。
// 服务是单进程部署，无需跨实例共享限流状态。
type TokenBucketLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int64
	interval time.Duration
	now      func() time.Time // 测试时可替换的时钟
}

// NewTokenBucketLimiter 创建令牌桶限流器
// capacity 为突发容量，interval 为补充一个令牌所需的时间
func NewTokenBucketLimiter(capacity int64, interval time.Duration) *TokenBucketLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &TokenBucketLimiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		interval: interval,
		now:      time.Now,
	}
}

// Allow 检查是否允许请求通过
func (tb *TokenBucketLimiter) Allow(_ context.Context, key string) (*LimitResult, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(tb.capacity), lastRefill: now}
		tb.buckets[key] = b
	}

	// 按经过的时间补充令牌，封顶到容量
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		b.tokens += float64(elapsed) / float64(tb.interval)
		if b.tokens > float64(tb.capacity) {
			b.tokens = float64(tb.capacity)
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return &LimitResult{
			Allowed:   true,
			Remaining: int64(b.tokens),
		}, nil
	}

	// 令牌不足，计算补满一个令牌还需要的时间
	deficit := 1 - b.tokens
	retryAfter := time.Duration(deficit * float64(tb.interval))

	return &LimitResult{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: retryAfter,
	}, nil
}

// Reset 重置指定key的令牌桶
func (tb *TokenBucketLimiter) Reset(_ context.Context, key string) error {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	delete(tb.buckets, key)
	return nil
}
