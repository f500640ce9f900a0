package controllers

import (
	"time"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/middleware"
	"github.com/example/velours/internal/service"
)

// UserController 负责登录、注册、退出与个人中心。
type UserController struct {
	*Base
	userService *service.UserService
	tokenTTL    time.Duration
}

// NewUserController 构造函数，供路由层复用同一套逻辑。
func NewUserController(base *Base, userSvc *service.UserService, tokenTTL time.Duration) *UserController {
	return &UserController{Base: base, userService: userSvc, tokenTTL: tokenTTL}
}

// ShowLogin 渲染登录表单，已登录直接回首页。
func (c *UserController) ShowLogin(ctx iris.Context) {
	if middleware.CurrentPrincipal(ctx) != nil {
		ctx.Redirect("/", iris.StatusFound)
		return
	}
	c.Render(ctx, "login.html", iris.Map{"Next": ctx.URLParam("next")})
}

// PostLogin 处理登录表单提交，成功后写 cookie 并跳到 next 或首页。
func (c *UserController) PostLogin(ctx iris.Context) {
	next := ctx.URLParamDefault("next", ctx.FormValue("next"))

	var in service.LoginInput
	if err := ctx.ReadForm(&in); err != nil {
		middleware.FlashT(ctx, "error", "auth.invalid_credentials")
		c.Render(ctx, "login.html", iris.Map{"Next": next, "Email": in.Email})
		return
	}

	token, u, err := c.userService.Login(ctx.Request().Context(), in)
	if err != nil {
		middleware.AddFlash(ctx, "error", c.Message(ctx, err))
		c.Render(ctx, "login.html", iris.Map{"Next": next, "Email": in.Email})
		return
	}

	middleware.SetToken(ctx, token, c.tokenTTL)
	zap.L().Info("user logged in", zap.Int64("user_id", u.ID))
	c.Success(ctx, safeNext(next), "auth.login_success")
}

// ShowRegister 渲染注册表单。
func (c *UserController) ShowRegister(ctx iris.Context) {
	c.Render(ctx, "register.html", iris.Map{"Form": service.RegisterInput{}})
}

// PostRegister 处理注册表单提交，成功后跳转到登录页。
func (c *UserController) PostRegister(ctx iris.Context) {
	var in service.RegisterInput
	if err := ctx.ReadForm(&in); err != nil {
		middleware.FlashT(ctx, "error", "auth.register_invalid")
		in.Password = ""
		c.Render(ctx, "register.html", iris.Map{"Form": in})
		return
	}

	if _, err := c.userService.Register(ctx.Request().Context(), in); err != nil {
		middleware.AddFlash(ctx, "error", c.Message(ctx, err))
		in.Password = ""
		c.Render(ctx, "register.html", iris.Map{"Form": in})
		return
	}

	c.Success(ctx, "/login", "auth.register_success")
}

// Logout 清理 cookie 并回到首页。
func (c *UserController) Logout(ctx iris.Context) {
	c.userService.Logout(ctx.Request().Context(), ctx.GetCookie(middleware.TokenCookie))
	middleware.ClearToken(ctx)
	middleware.FlashT(ctx, "info", "auth.logged_out")
	ctx.Redirect("/", iris.StatusFound)
}

// Profile 个人中心：账号信息与历史订单。
func (c *UserController) Profile(ctx iris.Context) {
	p := middleware.CurrentPrincipal(ctx)
	u, orders, err := c.userService.Profile(ctx.Request().Context(), p.UserID)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "profile.html", iris.Map{"User": u, "Orders": orders, "TotalSpent": totalSpent(orders)})
}

func totalSpent(orders []*order.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}
	return total
}
