package middleware

import (
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// RequestLogger 每个请求一条访问日志
func RequestLogger() iris.Handler {
	return func(ctx iris.Context) {
		start := time.Now()
		ctx.Next()

		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", ctx.GetStatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", ctx.RemoteAddr()),
		}
		if p := CurrentPrincipal(ctx); p != nil {
			fields = append(fields, zap.Int64("user_id", p.UserID))
		}
		if ctx.GetStatusCode() >= 500 {
			zap.L().Error("request", fields...)
			return
		}
		zap.L().Info("request", fields...)
	}
}
