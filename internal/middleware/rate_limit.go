package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/kataras/iris/v12"
)

// TokenBucket 令牌桶限流器
type TokenBucket struct {
	capacity   int64      // 桶容量
	tokens     int64      // 当前令牌数
	refillRate int64      // 每秒补充的令牌数
	lastRefill time.Time  // 上次补充时间
	mu         sync.Mutex // 互斥锁
}

// NewTokenBucket 创建令牌桶
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	// 补充令牌
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int64(elapsed.Seconds()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens = tb.tokens + tokensToAdd
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	// 检查是否有可用令牌
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// full 桶已补满，可以回收
func (tb *TokenBucket) full(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.tokens+int64(now.Sub(tb.lastRefill).Seconds())*tb.refillRate >= tb.capacity
}

// KeyedLimiter 按客户端 IP 分桶
type KeyedLimiter struct {
	capacity   int64
	refillRate int64

	mu      sync.Mutex
	buckets map[string]*TokenBucket
	swept   time.Time
}

func NewKeyedLimiter(capacity, refillRate int64) *KeyedLimiter {
	return &KeyedLimiter{
		capacity:   capacity,
		refillRate: refillRate,
		buckets:    make(map[string]*TokenBucket),
		swept:      time.Now(),
	}
}

func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := time.Now()
	if now.Sub(l.swept) > time.Minute {
		for k, b := range l.buckets {
			if b.full(now) {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}
	b, ok := l.buckets[key]
	if !ok {
		b = NewTokenBucket(l.capacity, l.refillRate)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

// RateLimitMiddleware 限流中间件；页面请求提示后返回上一页
func RateLimitMiddleware(limiter *KeyedLimiter) iris.Handler {
	return func(ctx iris.Context) {
		if !limiter.Allow(ctx.RemoteAddr()) {
			if WantsJSON(ctx) {
				ctx.StopWithJSON(http.StatusTooManyRequests, iris.Map{
					"success": false,
					"message": Translate(ctx, "error.rate_limited"),
				})
				return
			}
			FlashT(ctx, "error", "error.rate_limited")
			back := ctx.GetHeader("Referer")
			if back == "" {
				back = "/"
			}
			ctx.Redirect(back, iris.StatusSeeOther)
			ctx.StopExecution()
			return
		}
		ctx.Next()
	}
}

// 全局限流器
var (
	loginRateLimiter    = NewKeyedLimiter(10, 1) // 每个 IP 突发 10 次，每秒补 1 次
	registerRateLimiter = NewKeyedLimiter(5, 1)
	cartRateLimiter     = NewKeyedLimiter(30, 10)
)

// LoginRateLimit 登录提交限流
func LoginRateLimit() iris.Handler {
	return RateLimitMiddleware(loginRateLimiter)
}

// RegisterRateLimit 注册提交限流
func RegisterRateLimit() iris.Handler {
	return RateLimitMiddleware(registerRateLimiter)
}

// CartRateLimit 加购/改购物车限流
func CartRateLimit() iris.Handler {
	return RateLimitMiddleware(cartRateLimiter)
}
