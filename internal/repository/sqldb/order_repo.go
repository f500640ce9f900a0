package sqldb

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/paging"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

// GetByID 带出明细、明细商品与下单用户
func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Preload("User").
		First(&o, id).Error; err != nil {
		return nil, notFound(err, "order.not_found", id)
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// List 后台订单列表，status 为空表示全部
func (r *orderRepo) List(ctx context.Context, status order.Status, page, perPage int) ([]*order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*order.Order
	if err := query.
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Offset(paging.Offset(page, perPage)).
		Limit(perPage).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListAll(ctx context.Context) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Items").
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Count(&n).Error
	return n, err
}

func (r *orderRepo) CountByStatus(ctx context.Context, status order.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *orderRepo) CountItemsByProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&order.OrderItem{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	res := r.db.WithContext(ctx).Model(&order.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "order.not_found", id)
	}
	return nil
}
