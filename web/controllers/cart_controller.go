package controllers

import (
	"errors"
	"fmt"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/middleware"
	"github.com/example/velours/internal/service"
)

// CartController 购物车、下单与订单查看，全部需要登录
type CartController struct {
	*Base
	carts    *service.CartService
	checkout *service.CheckoutService
	orders   *service.OrderService
}

func NewCartController(base *Base, carts *service.CartService, checkout *service.CheckoutService, orders *service.OrderService) *CartController {
	return &CartController{Base: base, carts: carts, checkout: checkout, orders: orders}
}

// cartRequest 购物车 AJAX 请求体
type cartRequest struct {
	ProductID int64  `json:"product_id"`
	Quantity  *int64 `json:"quantity"`
}

func (r cartRequest) quantity(def int64) int64 {
	if r.Quantity == nil {
		return def
	}
	return *r.Quantity
}

// Show 购物车页面
func (c *CartController) Show(ctx iris.Context) {
	cart, err := middleware.CartStore(ctx).Load(ctx.Request().Context())
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	totals, err := c.carts.ComputeTotals(ctx.Request().Context(), cart)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "cart.html", iris.Map{"Totals": totals})
}

// Add POST /add-to-cart
func (c *CartController) Add(ctx iris.Context) {
	var req cartRequest
	if err := ctx.ReadJSON(&req); err != nil {
		JSONResult(ctx, false, middleware.Translate(ctx, "cart.invalid_product"))
		return
	}
	store := middleware.CartStore(ctx)
	rctx := ctx.Request().Context()
	cart, err := store.Load(rctx)
	if err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}

	res, err := c.carts.AddItem(rctx, cart, req.ProductID, req.quantity(1))
	if err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}
	if err := store.Save(rctx, cart); err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}
	if res.Adjusted {
		JSONResult(ctx, false, middleware.Translate(ctx, "cart.adjusted", res.Available))
		return
	}
	JSONResult(ctx, true, middleware.Translate(ctx, "cart.added"))
}

// Count GET /cart-count
func (c *CartController) Count(ctx iris.Context) {
	cart, err := middleware.CartStore(ctx).Load(ctx.Request().Context())
	if err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}
	ctx.JSON(iris.Map{"count": c.carts.TotalCount(cart)})
}

// Update POST /update-cart，数量小于等于 0 时移除
func (c *CartController) Update(ctx iris.Context) {
	var req cartRequest
	if err := ctx.ReadJSON(&req); err != nil {
		JSONResult(ctx, false, middleware.Translate(ctx, "cart.invalid_product"))
		return
	}
	store := middleware.CartStore(ctx)
	rctx := ctx.Request().Context()
	cart, err := store.Load(rctx)
	if err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}
	if err := c.carts.UpdateItem(rctx, cart, req.ProductID, req.quantity(0)); err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}
	if err := store.Save(rctx, cart); err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}
	JSONResult(ctx, true, "")
}

// Remove POST /remove-from-cart，商品不在购物车中也算成功
func (c *CartController) Remove(ctx iris.Context) {
	var req cartRequest
	if err := ctx.ReadJSON(&req); err != nil {
		JSONResult(ctx, false, middleware.Translate(ctx, "cart.invalid_product"))
		return
	}
	store := middleware.CartStore(ctx)
	rctx := ctx.Request().Context()
	cart, err := store.Load(rctx)
	if err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}
	c.carts.RemoveItem(cart, req.ProductID)
	if err := store.Save(rctx, cart); err != nil {
		JSONResult(ctx, false, c.Message(ctx, err))
		return
	}
	JSONResult(ctx, true, "")
}

// ShowCheckout 下单页：收货信息表单与订单汇总
func (c *CartController) ShowCheckout(ctx iris.Context) {
	rctx := ctx.Request().Context()
	cart, err := middleware.CartStore(ctx).Load(rctx)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	if cart.IsEmpty() {
		middleware.FlashT(ctx, "warning", "checkout.empty_cart")
		ctx.Redirect("/cart", iris.StatusFound)
		return
	}
	totals, err := c.carts.ComputeTotals(rctx, cart)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "checkout.html", iris.Map{"Totals": totals, "Form": service.CheckoutInput{}})
}

// PostCheckout 创建订单；库存不足回到购物车，购物车保持不变
func (c *CartController) PostCheckout(ctx iris.Context) {
	var in service.CheckoutInput
	if err := ctx.ReadForm(&in); err != nil {
		middleware.FlashT(ctx, "error", "checkout.missing_fields")
		ctx.Redirect("/checkout", iris.StatusSeeOther)
		return
	}

	store := middleware.CartStore(ctx)
	rctx := ctx.Request().Context()
	cart, err := store.Load(rctx)
	if err != nil {
		c.Fail(ctx, err, "/cart")
		return
	}

	p := middleware.CurrentPrincipal(ctx)
	o, err := c.checkout.Checkout(rctx, p.UserID, cart, in)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrInsufficientStock):
		c.Fail(ctx, err, "/cart")
		return
	case errors.Is(err, apperr.ErrInvalidInput) && cart.IsEmpty():
		middleware.FlashT(ctx, "warning", "checkout.empty_cart")
		ctx.Redirect("/cart", iris.StatusSeeOther)
		return
	default:
		c.Fail(ctx, err, "/checkout")
		return
	}

	if err := store.Clear(rctx); err != nil {
		zap.L().Warn("clear cart after checkout failed", zap.Int64("order_id", o.ID), zap.Error(err))
	}
	c.Success(ctx, fmt.Sprintf("/order-confirmation/%d", o.ID), "checkout.success")
}

// Confirmation 只能查看自己的订单
func (c *CartController) Confirmation(ctx iris.Context) {
	p := middleware.CurrentPrincipal(ctx)
	o, err := c.orders.GetForUser(ctx.Request().Context(), ctx.Params().GetInt64Default("order_id", 0), p.UserID)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "order_confirmation.html", iris.Map{"Order": o})
}

// Orders 我的订单，按时间倒序
func (c *CartController) Orders(ctx iris.Context) {
	p := middleware.CurrentPrincipal(ctx)
	orders, err := c.orders.ListForUser(ctx.Request().Context(), p.UserID)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "orders.html", iris.Map{"Orders": orders})
}
