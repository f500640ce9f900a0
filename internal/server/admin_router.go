package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/velours/internal/middleware"
	webcontrollers "github.com/example/velours/web/controllers"
)

// RegisterAdminRoutes 注册 /admin 下的后台路由，仅管理员可访问。
// 可与前台共用一个进程，也可由 cmd/admin 单独在 ADMIN_PORT 上提供。
func RegisterAdminRoutes(app iris.Party, d *Deps) {
	base := d.base()
	admin := app.Party("/admin", middleware.RequireLogin, middleware.RequireAdmin, func(ctx iris.Context) {
		ctx.ViewLayout("admin/layout.html")
		ctx.Next()
	})

	dashboard := webcontrollers.NewAdminController(base, d.Admin, d.Orders)
	admin.Get("/", dashboard.Dashboard)
	admin.Get("/api/metrics", dashboard.Metrics)

	// ---------- 商品管理 ----------
	catalog := webcontrollers.NewAdminCatalogController(base, d.Admin)
	admin.Get("/products", catalog.Products)
	admin.Get("/products/add", catalog.NewProduct)
	admin.Post("/products/add", catalog.CreateProduct)
	admin.Get("/products/edit/{id:int64}", catalog.EditProduct)
	admin.Post("/products/edit/{id:int64}", catalog.UpdateProduct)
	admin.Post("/products/delete/{id:int64}", catalog.DeleteProduct)
	admin.Post("/products/toggle/{id:int64}", catalog.ToggleProduct)
	admin.Post("/products/delete-all", catalog.DeleteAllProducts)
	admin.Get("/products/export", catalog.ExportProducts)

	// ---------- 订单管理 ----------
	admin.Get("/orders", dashboard.Orders)
	admin.Get("/orders/export", dashboard.ExportOrders)
	admin.Get("/orders/{id:int64}", dashboard.Order)
	admin.Post("/orders/{id:int64}/update-status", dashboard.UpdateOrderStatus)

	// ---------- 分类管理 ----------
	admin.Get("/categories", catalog.Categories)
	admin.Get("/categories/add", catalog.NewCategory)
	admin.Post("/categories/add", catalog.CreateCategory)
	admin.Get("/categories/edit/{id:int64}", catalog.EditCategory)
	admin.Post("/categories/edit/{id:int64}", catalog.UpdateCategory)
	admin.Post("/categories/delete/{id:int64}", catalog.DeleteCategory)

	// ---------- 用户管理 ----------
	admin.Get("/users", dashboard.Users)
	admin.Get("/users/{id:int64}", dashboard.User)
	admin.Post("/users/{id:int64}/toggle-admin", dashboard.ToggleAdmin)
	admin.Post("/users/{id:int64}/delete", dashboard.DeleteUser)
}
