package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/middleware"
)

// Base 页面渲染与错误提示的公共部分，各控制器内嵌使用
type Base struct {
	Languages       []string
	DefaultLanguage string
}

// Lang 当前请求使用的语言
func (b *Base) Lang(ctx iris.Context) string {
	return middleware.Language(ctx, b.DefaultLanguage)
}

// Render 合并布局需要的公共数据后渲染模板
func (b *Base) Render(ctx iris.Context, view string, data iris.Map) {
	if data == nil {
		data = iris.Map{}
	}
	data["Lang"] = b.Lang(ctx)
	data["Languages"] = b.Languages
	data["Principal"] = middleware.CurrentPrincipal(ctx)
	data["Flashes"] = middleware.PopFlashes(ctx)
	if c, err := middleware.CartStore(ctx).Load(ctx.Request().Context()); err == nil {
		data["CartCount"] = c.TotalCount()
	}
	if err := ctx.View(view, data); err != nil {
		zap.L().Error("render view failed", zap.String("view", view), zap.Error(err))
		ctx.StopWithStatus(http.StatusInternalServerError)
	}
}

// Message 把错误转成当前语言的提示；非业务错误记日志并给出通用提示
func (b *Base) Message(ctx iris.Context, err error) string {
	e := apperr.As(err)
	if e.Kind == apperr.Internal {
		zap.L().Error("request failed",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Error(err),
		)
		return middleware.Translate(ctx, "error.generic")
	}
	return middleware.Translate(ctx, e.Key, e.Args...)
}

// Fail 提示错误后跳转
func (b *Base) Fail(ctx iris.Context, err error, to string) {
	middleware.AddFlash(ctx, "error", b.Message(ctx, err))
	ctx.Redirect(to, iris.StatusSeeOther)
}

// Success 翻译提示后跳转
func (b *Base) Success(ctx iris.Context, to, key string, args ...interface{}) {
	middleware.FlashT(ctx, "success", key, args...)
	ctx.Redirect(to, iris.StatusSeeOther)
}

// NotFound 记录详情后交给统一的错误页
func (b *Base) NotFound(ctx iris.Context, err error) {
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		b.Message(ctx, err)
		ctx.StopWithStatus(http.StatusInternalServerError)
		return
	}
	ctx.StopWithStatus(http.StatusNotFound)
}

// ErrorPage OnAnyErrorCode 的处理器
func (b *Base) ErrorPage(ctx iris.Context) {
	code := ctx.GetStatusCode()
	key := "error.generic"
	switch code {
	case http.StatusNotFound:
		key = "error.not_found"
	case http.StatusForbidden:
		key = "error.forbidden"
	case http.StatusTooManyRequests:
		key = "error.rate_limited"
	case http.StatusServiceUnavailable:
		key = "error.unavailable"
	}
	if middleware.WantsJSON(ctx) {
		ctx.JSON(iris.Map{"success": false, "message": middleware.Translate(ctx, key)})
		return
	}
	b.Render(ctx, "error.html", iris.Map{
		"Code":    code,
		"Message": middleware.Translate(ctx, key),
	})
}

// JSONResult 购物车接口统一的 {success, message} 结构
func JSONResult(ctx iris.Context, success bool, message string) {
	body := iris.Map{"success": success}
	if message != "" {
		body["message"] = message
	}
	ctx.JSON(body)
}

// Pager 分页链接，保留当前的查询参数
type Pager struct {
	Page    int
	Pages   int
	PrevURL string
	NextURL string
}

func NewPager(u *url.URL, page, pages int) Pager {
	p := Pager{Page: page, Pages: pages}
	link := func(n int) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		return u.Path + "?" + q.Encode()
	}
	if page > 1 {
		p.PrevURL = link(page - 1)
	}
	if page < pages {
		p.NextURL = link(page + 1)
	}
	return p
}

func paramID(ctx iris.Context) int64 {
	return ctx.Params().GetInt64Default("id", 0)
}

func pageParam(ctx iris.Context) int {
	return ctx.URLParamIntDefault("page", 1)
}

// safeNext 只允许站内跳转
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

