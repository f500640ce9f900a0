package service

import (
	"context"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/paging"
)

// AdminPerPage 后台列表每页条数
const AdminPerPage = 10

// OrderService 订单查询与状态流转
type OrderService struct {
	repo order.Repository
}

// NewOrderService 创建订单服务
func NewOrderService(repo order.Repository) *OrderService {
	return &OrderService{repo: repo}
}

// ListForUser 我的订单，最新的在前
func (s *OrderService) ListForUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetForUser 不是本人的订单按不存在处理
func (s *OrderService) GetForUser(ctx context.Context, orderID, userID int64) (*order.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.New(apperr.NotFound, "order.not_found", orderID)
	}
	return o, nil
}

// List 后台订单列表，status 为空表示全部
func (s *OrderService) List(ctx context.Context, status string, page int) (paging.Page[*order.Order], error) {
	var st order.Status
	if status != "" {
		var ok bool
		if st, ok = order.ParseStatus(status); !ok {
			return paging.Page[*order.Order]{}, apperr.New(apperr.InvalidInput, "order.invalid_status")
		}
	}
	page, perPage := paging.Normalize(page, AdminPerPage)
	list, total, err := s.repo.List(ctx, st, page, perPage)
	if err != nil {
		return paging.Page[*order.Order]{}, err
	}
	return paging.New(list, page, perPage, total), nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (*order.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus 未知状态返回 InvalidInput
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) error {
	st, ok := order.ParseStatus(status)
	if !ok {
		return apperr.New(apperr.InvalidInput, "order.invalid_status")
	}
	return s.repo.UpdateStatus(ctx, id, st)
}

// Recent 查询最新的订单记录
func (s *OrderService) Recent(ctx context.Context, limit int) ([]*order.Order, error) {
	return s.repo.ListRecent(ctx, limit)
}
