package middleware

import (
	"net/http"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimit 限制单进程同时处理的请求数，等待期间客户端断开则返回 503
func ConcurrencyLimit(n int64) iris.Handler {
	if n <= 0 {
		n = 1
	}
	sem := semaphore.NewWeighted(n)
	return func(ctx iris.Context) {
		if err := sem.Acquire(ctx.Request().Context(), 1); err != nil {
			zap.L().Warn("request dropped while waiting for a slot", zap.String("path", ctx.Path()))
			ctx.StopWithStatus(http.StatusServiceUnavailable)
			return
		}
		defer sem.Release(1)
		ctx.Next()
	}
}
