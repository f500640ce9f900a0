package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/cart"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/product"
	"github.com/example/velours/internal/infra/mq"
)

// CheckoutInput 结算表单
type CheckoutInput struct {
	Address string `form:"address" validate:"required,max=500"`
	Phone   string `form:"phone" validate:"required,max=20"`
}

// CheckoutService 把购物车原子地转换为订单
type CheckoutService struct {
	db        *gorm.DB
	publisher mq.Publisher
}

func NewCheckoutService(db *gorm.DB, publisher mq.Publisher) *CheckoutService {
	if publisher == nil {
		publisher = mq.NopPublisher{}
	}
	return &CheckoutService{db: db, publisher: publisher}
}

// Checkout 在一个事务内按购物车顺序锁定商品、校验库存、写订单与明细并扣减库存。
// 任一步失败整体回滚，购物车由调用方保留；成功后由调用方清空购物车
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, c *cart.Cart, in CheckoutInput) (*order.Order, error) {
	GetMonitor().RecordCheckoutRequest()
	if c == nil || c.IsEmpty() {
		return nil, apperr.New(apperr.InvalidInput, "checkout.empty_cart")
	}
	address := strings.TrimSpace(in.Address)
	phone := strings.TrimSpace(in.Phone)
	if address == "" || phone == "" {
		return nil, apperr.New(apperr.InvalidInput, "checkout.missing_fields")
	}

	var created *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := c.Lines()
		items := make([]order.OrderItem, 0, len(lines))
		total := decimal.Zero

		// 1) 逐行加锁并校验库存
		for _, l := range lines {
			var p product.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&p, l.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Wrap(apperr.InsufficientStock, err, "checkout.insufficient_stock", l.ProductID)
				}
				return err
			}
			if p.Stock < l.Quantity {
				return apperr.New(apperr.InsufficientStock, "checkout.insufficient_stock", p.Name)
			}
			items = append(items, order.OrderItem{
				ProductID: p.ID,
				Quantity:  l.Quantity,
				Price:     p.Price,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(l.Quantity)))
		}

		// 2) 订单头
		o := &order.Order{
			UserID:          userID,
			TotalAmount:     total,
			Status:          order.StatusPending,
			ShippingAddress: address,
			Phone:           phone,
		}
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return err
		}

		// 3) 明细，价格为当前快照
		for i := range items {
			items[i].OrderID = o.ID
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}

		// 4) 条件扣减，防止锁不生效的库出现超卖
		for _, it := range items {
			res := tx.Model(&product.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return apperr.New(apperr.InsufficientStock, "checkout.insufficient_stock", it.ProductID)
			}
		}

		o.Items = items
		created = o
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInsufficientStock) {
			GetMonitor().RecordCheckoutNoStock()
			zap.L().Info("checkout rolled back", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			GetMonitor().RecordCheckoutFailed()
			GetMonitor().RecordDBError()
			zap.L().Error("checkout rolled back", zap.Int64("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	GetMonitor().RecordCheckoutSuccess()
	zap.L().Info("order placed",
		zap.Int64("order_id", created.ID),
		zap.Int64("user_id", userID),
		zap.String("total", created.TotalAmount.StringFixed(2)))
	s.publish(ctx, created)
	return created, nil
}

// publish 事件投递失败不影响已提交的订单
func (s *CheckoutService) publish(ctx context.Context, o *order.Order) {
	ev := &mq.OrderPlaced{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.TotalAmount.StringFixed(2),
		Items:     len(o.Items),
		CreatedAt: time.Now(),
	}
	if err := s.publisher.PublishOrderPlaced(ctx, ev); err != nil {
		GetMonitor().RecordMQError()
		zap.L().Warn("publish order event failed", zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}
	GetMonitor().RecordOrderEvent()
}
