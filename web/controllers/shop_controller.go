package controllers

import (
	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"

	"github.com/example/velours/internal/middleware"
	"github.com/example/velours/internal/service"
)

// ShopController 前台商品浏览页面
type ShopController struct {
	*Base
	catalog *service.CatalogService
}

func NewShopController(base *Base, catalog *service.CatalogService) *ShopController {
	return &ShopController{Base: base, catalog: catalog}
}

// Index 首页：推荐商品与分类
func (c *ShopController) Index(ctx iris.Context) {
	rctx := ctx.Request().Context()
	products, err := c.catalog.Featured(rctx, service.FeaturedCount)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	categories, err := c.catalog.Categories(rctx)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "index.html", iris.Map{"Products": products, "Categories": categories})
}

// Products 商品列表，支持关键字、分类与价格区间筛选
func (c *ShopController) Products(ctx iris.Context) {
	q := service.ProductQuery{
		Query:      ctx.URLParamTrim("search"),
		CategoryID: ctx.URLParamInt64Default("category", 0),
		MinPrice:   priceParam(ctx, "min_price"),
		MaxPrice:   priceParam(ctx, "max_price"),
		Page:       pageParam(ctx),
	}
	rctx := ctx.Request().Context()
	page, err := c.catalog.Search(rctx, q)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	categories, err := c.catalog.Categories(rctx)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "products.html", iris.Map{
		"Page":             page,
		"Pager":            NewPager(ctx.Request().URL, page.Page, page.Pages()),
		"Categories":       categories,
		"Search":           q.Query,
		"SelectedCategory": q.CategoryID,
		"MinPrice":         ctx.URLParamTrim("min_price"),
		"MaxPrice":         ctx.URLParamTrim("max_price"),
	})
}

// Product 商品详情与同类推荐
func (c *ShopController) Product(ctx iris.Context) {
	rctx := ctx.Request().Context()
	p, err := c.catalog.Get(rctx, paramID(ctx))
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	related, err := c.catalog.Related(rctx, p, service.RelatedCount)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "product.html", iris.Map{"Product": p, "Related": related})
}

// SetLanguage 切换语言后回到来源页
func (c *ShopController) SetLanguage(ctx iris.Context) {
	middleware.SetLanguage(ctx, ctx.Params().Get("lang"), c.Languages)
	back := ctx.GetHeader("Referer")
	if back == "" {
		back = "/"
	}
	ctx.Redirect(back, iris.StatusFound)
}

// priceParam 非法或缺省的价格视为不筛选
func priceParam(ctx iris.Context, name string) *decimal.Decimal {
	raw := ctx.URLParamTrim(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}
