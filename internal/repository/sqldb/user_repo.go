package sqldb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/paging"
	"github.com/example/velours/internal/datamodels/user"
)

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user.not_found", id)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err, "user.not_found", email)
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "user.not_found", username)
	}
	return &u, nil
}

// Create 唯一索引冲突转换为 Conflict
func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.Conflict, err, "auth.account_taken")
	}
	return err
}

func (r *userRepo) Update(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *userRepo) List(ctx context.Context, filter user.Filter, page, perPage int) ([]*user.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&user.User{})
	switch filter {
	case user.FilterAdmin:
		query = query.Where("is_admin = ?", true)
	case user.FilterRegular:
		query = query.Where("is_admin = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*user.User
	if err := query.
		Order("created_at DESC").Order("id DESC").
		Offset(paging.Offset(page, perPage)).
		Limit(perPage).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Count(&n).Error
	return n, err
}

func (r *userRepo) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Where("is_admin = ?", true).Count(&n).Error
	return n, err
}

// CountWithOrders 至少下过一单的用户数
func (r *userRepo) CountWithOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&user.User{}).
		Where("id IN (?)", r.db.Model(&order.Order{}).Select("user_id")).
		Count(&n).Error
	return n, err
}

func (r *userRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}
