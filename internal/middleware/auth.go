package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/auth"
)

// TokenCookie 登录 token 所在 cookie
const TokenCookie = "token"

const principalKey = "principal"

// Authenticate 有合法 token 时把 Principal 放进请求上下文，没有也放行
func Authenticate(gate *auth.Gate) iris.Handler {
	return func(ctx iris.Context) {
		token := ctx.GetCookie(TokenCookie)
		if token != "" {
			p, err := gate.Resolve(ctx.Request().Context(), token)
			switch {
			case err == nil:
				ctx.Values().Set(principalKey, p)
			case apperr.KindOf(err) == apperr.Unauthorized:
				ClearToken(ctx)
			default:
				zap.L().Error("resolve principal failed", zap.Error(err))
			}
		}
		ctx.Next()
	}
}

// CurrentPrincipal 未登录返回 nil
func CurrentPrincipal(ctx iris.Context) *auth.Principal {
	p, _ := ctx.Values().Get(principalKey).(*auth.Principal)
	return p
}

// RequireLogin 未登录：页面跳转登录页并带上 next，AJAX 返回 401
func RequireLogin(ctx iris.Context) {
	if CurrentPrincipal(ctx) != nil {
		ctx.Next()
		return
	}
	if WantsJSON(ctx) {
		ctx.StopWithJSON(http.StatusUnauthorized, iris.Map{
			"success": false,
			"message": Translate(ctx, "auth.login_required"),
		})
		return
	}
	FlashT(ctx, "warning", "auth.login_required")
	ctx.Redirect("/login?next="+url.QueryEscape(ctx.Request().URL.RequestURI()), iris.StatusFound)
	ctx.StopExecution()
}

// RequireAdmin 需要在 RequireLogin 之后使用；非管理员回首页
func RequireAdmin(ctx iris.Context) {
	p := CurrentPrincipal(ctx)
	if p == nil {
		RequireLogin(ctx)
		return
	}
	if !p.IsAdmin {
		if WantsJSON(ctx) {
			ctx.StopWithJSON(http.StatusForbidden, iris.Map{
				"success": false,
				"message": Translate(ctx, "auth.admin_required"),
			})
			return
		}
		FlashT(ctx, "error", "auth.admin_required")
		ctx.Redirect("/", iris.StatusFound)
		ctx.StopExecution()
		return
	}
	ctx.Next()
}

// SetToken 写入 HttpOnly 的 token cookie
func SetToken(ctx iris.Context, token string, ttl time.Duration) {
	ctx.SetCookie(&http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
}

// ClearToken 清理 token cookie
func ClearToken(ctx iris.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:    TokenCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
}

// WantsJSON AJAX 或 JSON 请求返回 JSON 而不是跳转
func WantsJSON(ctx iris.Context) bool {
	if ctx.IsAjax() {
		return true
	}
	if strings.Contains(ctx.GetHeader("Content-Type"), "application/json") {
		return true
	}
	return strings.Contains(ctx.GetHeader("Accept"), "application/json")
}
