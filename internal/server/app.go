package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/recover"
	"github.com/kataras/iris/v12/sessions"
	"github.com/kataras/iris/v12/sessions/sessiondb/redis"
	"github.com/kataras/iris/v12/view"
	radix "github.com/mediocregopher/radix/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/velours/internal/auth"
	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/infra/mq"
	redisinfra "github.com/example/velours/internal/infra/redis"
	"github.com/example/velours/internal/middleware"
	"github.com/example/velours/internal/repository/sqldb"
	"github.com/example/velours/internal/service"
	"github.com/example/velours/internal/storage"
	"github.com/example/velours/web"
	"github.com/example/velours/web/controllers"
)

// Deps 进程内共享的基础设施与服务
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     radix.Client
	Publisher mq.Publisher
	Images    *storage.Images
	Gate      *auth.Gate

	Users    *service.UserService
	Catalog  *service.CatalogService
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Admin    *service.AdminService
}

// NewDeps 组装仓储与服务；Redis、RabbitMQ 未配置或连不上时降级运行
func NewDeps(cfg *config.Config, db *gorm.DB) (*Deps, error) {
	d := &Deps{Config: cfg, DB: db}

	client, err := redisinfra.Dial(&cfg.Redis, cfg.Concurrency*4)
	if err != nil {
		service.GetMonitor().RecordRedisError()
		zap.L().Warn("redis unavailable, token cache disabled", zap.Error(err))
	}
	d.Redis = client

	var cache *auth.TokenCache
	if d.Redis != nil {
		ring := auth.NewShardRing(cfg.Auth.Shards, cfg.Auth.ShardPoints)
		cache = auth.NewTokenCache(d.Redis, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)
	}

	d.Publisher = mq.NewPublisher(&cfg.RabbitMQ)

	d.Images, err = storage.NewImages(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("prepare upload dir: %w", err)
	}

	userRepo := sqldb.NewUserRepository(db)
	productRepo := sqldb.NewProductRepository(db)
	categoryRepo := sqldb.NewCategoryRepository(db)
	orderRepo := sqldb.NewOrderRepository(db)

	d.Gate = auth.NewGate(&cfg.JWT, userRepo, cache)
	d.Users = service.NewUserService(userRepo, orderRepo, d.Gate)
	d.Catalog = service.NewCatalogService(productRepo, categoryRepo)
	d.Carts = service.NewCartService(productRepo)
	d.Checkout = service.NewCheckoutService(db, d.Publisher)
	d.Orders = service.NewOrderService(orderRepo)
	d.Admin = service.NewAdminService(db, productRepo, categoryRepo, orderRepo, userRepo, d.Images)
	return d, nil
}

// Close 释放外部连接
func (d *Deps) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			zap.L().Warn("close publisher failed", zap.Error(err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			zap.L().Warn("close redis failed", zap.Error(err))
		}
	}
}

func (d *Deps) base() *controllers.Base {
	return &controllers.Base{Languages: d.Config.Languages, DefaultLanguage: d.Config.DefaultLanguage()}
}

// NewApp 创建带公共中间件、模板、翻译与会话的 iris 应用，路由由调用方注册
func NewApp(d *Deps) (*iris.Application, error) {
	cfg := d.Config
	app := iris.New()
	app.Logger().SetLevel(cfg.LogLevel)
	app.Validator = validator.New()

	if err := setupI18n(app, cfg); err != nil {
		return nil, err
	}
	app.RegisterView(newViewEngine(app))

	app.UseRouter(recover.New())
	app.UseRouter(middleware.RequestLogger())
	app.UseRouter(middleware.ConcurrencyLimit(int64(cfg.Concurrency)))

	// 静态资源不经过会话与鉴权
	app.HandleDir("/static", iris.PrefixDir("static", http.FS(web.Static)))
	app.HandleDir("/uploads", iris.Dir(d.Images.Dir()))

	sess := newSessions(cfg)
	app.Use(sess.Handler())
	app.Use(middleware.LanguageSwitch(cfg.Languages))
	app.Use(middleware.Authenticate(d.Gate))

	app.OnAnyErrorCode(d.base().ErrorPage)

	// 健康检查
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})
	return app, nil
}

func setupI18n(app *iris.Application, cfg *config.Config) error {
	if err := app.I18n.LoadFS(web.Locales, "./locales/*/*.yml", cfg.Languages...); err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	app.I18n.SetDefault(cfg.DefaultLanguage())
	app.I18n.PathRedirect = false
	app.I18n.Subdomain = false
	def := cfg.DefaultLanguage()
	app.I18n.ExtractFunc = func(ctx iris.Context) string {
		return middleware.Language(ctx, def)
	}
	return nil
}

func newViewEngine(app *iris.Application) *view.HTMLEngine {
	tmpl := iris.HTML(web.Views, ".html").RootDir("views").Layout("layout.html")
	tmpl.AddFunc("t", func(lang, key string, args ...interface{}) string {
		if msg := app.I18n.Tr(lang, key, args...); msg != "" {
			return msg
		}
		return key
	})
	// 价格统一保留两位小数
	tmpl.AddFunc("price", func(d decimal.Decimal) string {
		return d.StringFixed(2) + " €"
	})
	tmpl.AddFunc("image", func(name string) string {
		if name == "" {
			return "/static/img/placeholder.svg"
		}
		return "/uploads/" + name
	})
	tmpl.AddFunc("date", func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	})
	// dict 给局部模板传多个参数
	tmpl.AddFunc("dict", func(kv ...interface{}) (map[string]interface{}, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict: odd number of arguments")
		}
		m := make(map[string]interface{}, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
			}
			m[key] = kv[i+1]
		}
		return m, nil
	})
	return tmpl
}

// newSessions 配置了 Redis 时会话存入 Redis，多进程共享购物车
func newSessions(cfg *config.Config) *sessions.Sessions {
	sess := sessions.New(sessions.Config{
		Cookie:                      cfg.Session.Cookie,
		Expires:                     cfg.Session.Expires,
		AllowReclaim:                true,
		DisableSubdomainPersistence: true,
	})
	if cfg.Redis.Addr == "" {
		return sess
	}
	db := redis.New(redis.Config{
		Network:   "tcp",
		Addr:      cfg.Redis.Addr,
		Timeout:   30 * time.Second,
		MaxActive: cfg.Concurrency * 4,
		Prefix:    "velours:session:",
		Driver:    redis.GoRedis(),
	})
	if db == nil {
		service.GetMonitor().RecordRedisError()
		zap.L().Warn("redis session store unavailable, using memory sessions", zap.String("addr", cfg.Redis.Addr))
		return sess
	}
	iris.RegisterOnInterrupt(func() {
		_ = db.Close()
	})
	sess.UseDatabase(db)
	return sess
}
