package main

import (
	"context"
	"log"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/logging"
	"github.com/example/velours/internal/repository/sqldb"
	"github.com/example/velours/internal/server"
)

// 独立的后台进程，只提供登录与 /admin
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.Init(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db := sqldb.Init(&cfg.Database, cfg.Concurrency*2)
	deps, err := server.NewDeps(cfg, db)
	if err != nil {
		zap.L().Fatal("init dependencies failed", zap.Error(err))
	}
	defer deps.Close()

	if err := deps.Users.EnsureAdmin(context.Background(), &cfg.Admin); err != nil {
		zap.L().Fatal("ensure default admin failed", zap.Error(err))
	}

	app, err := server.NewApp(deps)
	if err != nil {
		zap.L().Fatal("init admin app failed", zap.Error(err))
	}
	server.RegisterAuthRoutes(app, deps)
	server.RegisterAdminRoutes(app, deps)
	app.Get("/", func(ctx iris.Context) {
		ctx.Redirect("/admin", iris.StatusFound)
	})

	addr := cfg.AdminServer.Addr()
	zap.L().Info("admin server listening", zap.String("addr", addr))
	if err := app.Listen(addr, iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		zap.L().Fatal("failed to run admin server", zap.Error(err))
	}
}
