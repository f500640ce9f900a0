package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/velours/internal/datamodels/category"
)

// Gender 香水适用人群
type Gender string

const (
	GenderMen    Gender = "homme"
	GenderWomen  Gender = "femme"
	GenderUnisex Gender = "unisexe"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex:
		return true
	}
	return false
}

// Product 商品模型
type Product struct {
	ID            int64              `gorm:"primaryKey"`
	Name          string             `gorm:"size:200;not null"`
	Description   string             `gorm:"type:text"`
	Price         decimal.Decimal    `gorm:"type:decimal(10,2);not null"`
	Stock         int64              `gorm:"not null"` // 只在下单时扣减，不会小于 0
	Brand         string             `gorm:"size:100"`
	Volume        string             `gorm:"size:50"`
	Gender        Gender             `gorm:"size:20"`
	CategoryID    *int64             `gorm:"index"`
	Category      *category.Category `gorm:"foreignKey:CategoryID"`
	IsActive      bool               `gorm:"not null;index"`
	ImageFilename string             `gorm:"size:255"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Available 上架且有库存
func (p *Product) Available() bool {
	return p.IsActive && p.Stock > 0
}

// Filter 前台商品搜索条件
type Filter struct {
	Query      string
	CategoryID int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	ActiveOnly bool
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error)
	ListFeatured(ctx context.Context, limit int) ([]*Product, error)
	ListRelated(ctx context.Context, p *Product, limit int) ([]*Product, error)
	Search(ctx context.Context, f Filter, page, perPage int) ([]*Product, int64, error)
	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
}
