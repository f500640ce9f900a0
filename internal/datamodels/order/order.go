package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/velours/internal/datamodels/product"
	"github.com/example/velours/internal/datamodels/user"
)

// Status 订单状态
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses 按流程顺序排列，后台下拉框使用
var Statuses = []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Order 订单模型，只在结算时整体创建
type Order struct {
	ID              int64           `gorm:"primaryKey"`
	UserID          int64           `gorm:"index;not null"`
	User            *user.User      `gorm:"foreignKey:UserID"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status          Status          `gorm:"size:20;index;not null"`
	ShippingAddress string          `gorm:"type:text;not null"`
	Phone           string          `gorm:"size:20;not null"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time       `gorm:"index"`
	UpdatedAt       time.Time
}

// OrderItem 订单明细，Price 为下单时的商品价格快照，之后不再修改
type OrderItem struct {
	ID        int64            `gorm:"primaryKey"`
	OrderID   int64            `gorm:"index;not null"`
	ProductID int64            `gorm:"index;not null"`
	Product   *product.Product `gorm:"foreignKey:ProductID"`
	Quantity  int64            `gorm:"not null"`
	Price     decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// ItemsTotal 明细合计，结算成功的订单恒等于 TotalAmount
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Repository 订单仓储接口（创建与删除都在服务层事务里完成）
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	List(ctx context.Context, status Status, page, perPage int) ([]*Order, int64, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
	CountItemsByProduct(ctx context.Context, productID int64) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
