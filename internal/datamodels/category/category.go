package category

import (
	"context"
	"time"
)

// Category 商品分类
type Category struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"size:100;not null"`
	Description string    `gorm:"size:500"`
	CreatedAt   time.Time
}

// Repository 分类仓储接口（删除在后台服务的事务里完成）
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Category, error)
	ListAll(ctx context.Context) ([]*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
}
