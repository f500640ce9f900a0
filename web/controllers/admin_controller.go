package controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/middleware"
	"github.com/example/velours/internal/service"
)

// AdminController 后台：仪表盘、订单、用户与运行指标
type AdminController struct {
	*Base
	admin  *service.AdminService
	orders *service.OrderService
}

func NewAdminController(base *Base, admin *service.AdminService, orders *service.OrderService) *AdminController {
	return &AdminController{Base: base, admin: admin, orders: orders}
}

// Dashboard GET /admin
func (c *AdminController) Dashboard(ctx iris.Context) {
	d, err := c.admin.Dashboard(ctx.Request().Context())
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "admin/dashboard.html", iris.Map{"Dashboard": d})
}

// Metrics GET /admin/api/metrics
func (c *AdminController) Metrics(ctx iris.Context) {
	ctx.JSON(service.GetMonitor().GetStats())
}

// Orders 订单列表，可按状态筛选
func (c *AdminController) Orders(ctx iris.Context) {
	status := ctx.URLParamTrim("status")
	page, err := c.orders.List(ctx.Request().Context(), status, pageParam(ctx))
	if err != nil {
		c.Fail(ctx, err, "/admin/orders")
		return
	}
	c.Render(ctx, "admin/orders.html", iris.Map{
		"Page":     page,
		"Pager":    NewPager(ctx.Request().URL, page.Page, page.Pages()),
		"Status":   status,
		"Statuses": order.Statuses,
	})
}

// Order 订单详情
func (c *AdminController) Order(ctx iris.Context) {
	o, err := c.orders.Get(ctx.Request().Context(), paramID(ctx))
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "admin/order_detail.html", iris.Map{"Order": o, "Statuses": order.Statuses})
}

// UpdateOrderStatus POST /admin/orders/{id}/update-status
func (c *AdminController) UpdateOrderStatus(ctx iris.Context) {
	id := paramID(ctx)
	back := fmt.Sprintf("/admin/orders/%d", id)
	if err := c.orders.UpdateStatus(ctx.Request().Context(), id, ctx.FormValue("status")); err != nil {
		c.Fail(ctx, err, back)
		return
	}
	c.Success(ctx, back, "order.status_updated")
}

// ExportOrders 下载订单 Excel
func (c *AdminController) ExportOrders(ctx iris.Context) {
	var buf bytes.Buffer
	if err := c.admin.ExportOrders(ctx.Request().Context(), &buf); err != nil {
		c.Fail(ctx, err, "/admin/orders")
		return
	}
	sendXLSX(ctx, "commandes", buf.Bytes())
}

// Users 用户列表，filter=admin|regular
func (c *AdminController) Users(ctx iris.Context) {
	screen, err := c.admin.Users(ctx.Request().Context(), ctx.URLParamTrim("filter"), pageParam(ctx))
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "admin/users.html", iris.Map{
		"Screen": screen,
		"Pager":  NewPager(ctx.Request().URL, screen.Users.Page, screen.Users.Pages()),
	})
}

// User 用户详情
func (c *AdminController) User(ctx iris.Context) {
	d, err := c.admin.UserDetail(ctx.Request().Context(), paramID(ctx))
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "admin/user_detail.html", iris.Map{"Detail": d})
}

// ToggleAdmin 不能修改自己的管理员权限
func (c *AdminController) ToggleAdmin(ctx iris.Context) {
	actor := middleware.CurrentPrincipal(ctx)
	u, err := c.admin.ToggleAdmin(ctx.Request().Context(), actor.UserID, paramID(ctx))
	if err != nil {
		c.Fail(ctx, err, "/admin/users")
		return
	}
	key := "user.admin_revoked"
	if u.IsAdmin {
		key = "user.admin_granted"
	}
	c.Success(ctx, "/admin/users", key, u.Username)
}

// DeleteUser 连同订单一起删除
func (c *AdminController) DeleteUser(ctx iris.Context) {
	actor := middleware.CurrentPrincipal(ctx)
	res, err := c.admin.DeleteUser(ctx.Request().Context(), actor.UserID, paramID(ctx))
	if err != nil {
		c.Fail(ctx, err, "/admin/users")
		return
	}
	if res.Orders > 0 {
		c.Success(ctx, "/admin/users", "user.deleted_with_orders",
			res.Username, res.Email, res.Orders, res.OrderItems, res.TotalSpent.StringFixed(2))
		return
	}
	c.Success(ctx, "/admin/users", "user.deleted", res.Username, res.Email)
}

// sendXLSX 以附件形式返回，文件名带日期
func sendXLSX(ctx iris.Context, prefix string, body []byte) {
	name := fmt.Sprintf("%s_%s.xlsx", prefix, time.Now().Format("20060102_150405"))
	ctx.ContentType(service.XLSXContentType)
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if _, err := ctx.Write(body); err != nil {
		zap.L().Warn("write export failed", zap.String("file", name), zap.Error(err))
	}
}
