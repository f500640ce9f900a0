package sqldb

import (
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/datamodels/category"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/product"
	"github.com/example/velours/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init 初始化全局 GORM 实例并自动迁移表结构，失败直接退出
func Init(cfg *config.DatabaseConfig, maxConns int) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = Open(cfg.DSN, maxConns)
		if err != nil {
			zap.L().Fatal("failed to open database", zap.Error(err))
		}
		if err = Migrate(db); err != nil {
			zap.L().Fatal("auto migrate failed", zap.Error(err))
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}

// Open 按 DSN 前缀选择驱动：postgres:// → postgres，sqlite:/file: → sqlite，其余按 mysql
func Open(dsn string, maxConns int) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return conn, nil
}

func dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn)
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn)
	default:
		return mysql.Open(strings.TrimPrefix(dsn, "mysql://"))
	}
}

// Migrate 自动迁移全部表结构
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&user.User{},
		&category.Category{},
		&product.Product{},
		&order.Order{},
		&order.OrderItem{},
	)
}

// notFound 把 gorm 的记录不存在转换为业务错误，其余错误原样返回
func notFound(err error, key string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.NotFound, err, key, id)
	}
	return err
}
