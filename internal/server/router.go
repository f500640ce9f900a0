package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/velours/internal/middleware"
	webcontrollers "github.com/example/velours/web/controllers"
)

// RegisterAuthRoutes 登录、注册与退出，前台和独立后台都需要
func RegisterAuthRoutes(app iris.Party, d *Deps) {
	userController := webcontrollers.NewUserController(d.base(), d.Users, d.Config.JWT.TokenTTL)
	app.Get("/login", userController.ShowLogin)
	app.Post("/login", middleware.LoginRateLimit(), userController.PostLogin)
	app.Get("/register", userController.ShowRegister)
	app.Post("/register", middleware.RegisterRateLimit(), userController.PostRegister)
	app.Get("/logout", middleware.RequireLogin, userController.Logout)
	app.Get("/profile", middleware.RequireLogin, userController.Profile)
}

// RegisterRoutes 注册前台页面与购物车接口
func RegisterRoutes(app iris.Party, d *Deps) {
	base := d.base()
	RegisterAuthRoutes(app, d)

	shop := webcontrollers.NewShopController(base, d.Catalog)
	app.Get("/", shop.Index)
	app.Get("/products", shop.Products)
	app.Get("/product/{id:int64}", shop.Product)
	app.Get("/set_language/{lang:string}", shop.SetLanguage)

	// 购物车与订单需要登录
	cart := webcontrollers.NewCartController(base, d.Carts, d.Checkout, d.Orders)
	app.Get("/cart", middleware.RequireLogin, cart.Show)
	app.Post("/add-to-cart", middleware.RequireLogin, middleware.CartRateLimit(), cart.Add)
	app.Get("/cart-count", middleware.RequireLogin, cart.Count)
	app.Post("/update-cart", middleware.RequireLogin, middleware.CartRateLimit(), cart.Update)
	app.Post("/remove-from-cart", middleware.RequireLogin, cart.Remove)
	app.Get("/checkout", middleware.RequireLogin, cart.ShowCheckout)
	app.Post("/checkout", middleware.RequireLogin, cart.PostCheckout)
	app.Get("/order-confirmation/{order_id:int64}", middleware.RequireLogin, cart.Confirmation)
	app.Get("/orders", middleware.RequireLogin, cart.Orders)
}
