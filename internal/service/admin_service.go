package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/datamodels/category"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/paging"
	"github.com/example/velours/internal/datamodels/product"
	"github.com/example/velours/internal/datamodels/user"
	"github.com/example/velours/internal/storage"
)

// BulkDeleteResult 一键清空商品的结果
type BulkDeleteResult struct {
	Products   int64
	Orders     int64
	OrderItems int64
	Images     int
	Empty      bool
}

// UserDeleteResult 删除用户的结果，字段在删除前取得
type UserDeleteResult struct {
	Username   string
	Email      string
	Orders     int64
	OrderItems int64
	TotalSpent decimal.Decimal
}

// Dashboard 后台首页统计
type Dashboard struct {
	Products      int64
	Orders        int64
	Users         int64
	PendingOrders int64
	RecentOrders  []*order.Order
}

// UsersScreen 后台用户列表与统计
type UsersScreen struct {
	Users       paging.Page[*user.User]
	Filter      user.Filter
	AdminCount  int64
	WithOrders  int64
	RecentUsers int64
}

// UserDetail 后台用户详情
type UserDetail struct {
	User                  *user.User
	Orders                []*order.Order
	TotalSpent            decimal.Decimal
	DaysSinceRegistration int
}

// AdminService 后台管理：级联删除、权限切换、统计与商品/分类维护
type AdminService struct {
	db         *gorm.DB
	products   product.Repository
	categories category.Repository
	orders     order.Repository
	users      user.Repository
	images     *storage.Images
}

func NewAdminService(
	db *gorm.DB,
	products product.Repository,
	categories category.Repository,
	orders order.Repository,
	users user.Repository,
	images *storage.Images,
) *AdminService {
	return &AdminService{
		db:         db,
		products:   products,
		categories: categories,
		orders:     orders,
		users:      users,
		images:     images,
	}
}

// DeleteProduct 被订单引用的商品不能删除，只能下架
func (s *AdminService) DeleteProduct(ctx context.Context, id int64) error {
	var image string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p product.Product
		if err := tx.First(&p, id).Error; err != nil {
			return notFoundErr(err, "product.not_found", id)
		}
		var refs int64
		if err := tx.Model(&order.OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return apperr.New(apperr.Conflict, "product.in_orders", refs)
		}
		if err := tx.Delete(&product.Product{}, id).Error; err != nil {
			return err
		}
		image = p.ImageFilename
		return nil
	})
	if err != nil {
		logRollback("delete product", err, zap.Int64("product_id", id))
		return err
	}
	s.removeImage(image)
	zap.L().Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// DeleteCategory 仍有商品的分类不能删除
func (s *AdminService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c category.Category
		if err := tx.First(&c, id).Error; err != nil {
			return notFoundErr(err, "category.not_found", id)
		}
		var n int64
		if err := tx.Model(&product.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.New(apperr.Conflict, "category.has_products", n)
		}
		return tx.Delete(&category.Category{}, id).Error
	})
	if err != nil {
		logRollback("delete category", err, zap.Int64("category_id", id))
		return err
	}
	return nil
}

// DeleteAllProducts 依次删除全部订单明细、订单与商品，提交后再删图片文件
func (s *AdminService) DeleteAllProducts(ctx context.Context) (BulkDeleteResult, error) {
	var res BulkDeleteResult
	var images []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&product.Product{}).Count(&res.Products).Error; err != nil {
			return err
		}
		if res.Products == 0 {
			res.Empty = true
			return nil
		}
		if err := tx.Model(&product.Product{}).
			Where("image_filename <> ''").
			Pluck("image_filename", &images).Error; err != nil {
			return err
		}

		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		d := all.Delete(&order.OrderItem{})
		if d.Error != nil {
			return d.Error
		}
		res.OrderItems = d.RowsAffected
		if d = all.Delete(&order.Order{}); d.Error != nil {
			return d.Error
		}
		res.Orders = d.RowsAffected
		return all.Delete(&product.Product{}).Error
	})
	if err != nil {
		logRollback("delete all products", err)
		return BulkDeleteResult{}, err
	}
	if res.Empty {
		return res, nil
	}
	if s.images != nil {
		res.Images = s.images.RemoveAll(images)
	}
	GetMonitor().RecordCascadeDelete()
	zap.L().Info("all products deleted",
		zap.Int64("products", res.Products),
		zap.Int64("orders", res.Orders),
		zap.Int64("order_items", res.OrderItems),
		zap.Int("images", res.Images))
	return res, nil
}

// DeleteUser 不能删除自己；连同其订单与明细一起删除
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id int64) (UserDeleteResult, error) {
	if actorID == id {
		return UserDeleteResult{}, apperr.New(apperr.Forbidden, "user.cannot_delete_self")
	}
	var res UserDeleteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u user.User
		if err := tx.First(&u, id).Error; err != nil {
			return notFoundErr(err, "user.not_found", id)
		}
		res.Username = u.Username
		res.Email = u.Email
		res.TotalSpent = decimal.Zero

		var orders []order.Order
		if err := tx.Where("user_id = ?", id).Find(&orders).Error; err != nil {
			return err
		}
		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
			res.TotalSpent = res.TotalSpent.Add(o.TotalAmount)
		}
		if len(ids) > 0 {
			d := tx.Where("order_id IN ?", ids).Delete(&order.OrderItem{})
			if d.Error != nil {
				return d.Error
			}
			res.OrderItems = d.RowsAffected
			d = tx.Where("user_id = ?", id).Delete(&order.Order{})
			if d.Error != nil {
				return d.Error
			}
			res.Orders = d.RowsAffected
		}
		return tx.Delete(&user.User{}, id).Error
	})
	if err != nil {
		logRollback("delete user", err, zap.Int64("user_id", id))
		return UserDeleteResult{}, err
	}
	GetMonitor().RecordCascadeDelete()
	zap.L().Info("user deleted",
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", id),
		zap.Int64("orders", res.Orders),
		zap.Int64("order_items", res.OrderItems))
	return res, nil
}

// ToggleAdmin 切换管理员标记，不能修改自己
func (s *AdminService) ToggleAdmin(ctx context.Context, actorID, id int64) (*user.User, error) {
	if actorID == id {
		return nil, apperr.New(apperr.Forbidden, "user.cannot_toggle_self")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = !u.IsAdmin
	if err := s.db.WithContext(ctx).Model(u).Update("is_admin", u.IsAdmin).Error; err != nil {
		return nil, err
	}
	zap.L().Info("admin flag toggled",
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", id),
		zap.Bool("is_admin", u.IsAdmin))
	return u, nil
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	var err error
	if d.Products, err = s.products.Count(ctx); err != nil {
		return nil, err
	}
	if d.Orders, err = s.orders.Count(ctx); err != nil {
		return nil, err
	}
	if d.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if d.PendingOrders, err = s.orders.CountByStatus(ctx, order.StatusPending); err != nil {
		return nil, err
	}
	if d.RecentOrders, err = s.orders.ListRecent(ctx, 5); err != nil {
		return nil, err
	}
	return d, nil
}

// Users 未知的筛选值按全部处理
func (s *AdminService) Users(ctx context.Context, filter string, page int) (*UsersScreen, error) {
	f := user.Filter(filter)
	if f != user.FilterAdmin && f != user.FilterRegular {
		f = user.FilterAll
	}
	page, perPage := paging.Normalize(page, AdminPerPage)
	list, total, err := s.users.List(ctx, f, page, perPage)
	if err != nil {
		return nil, err
	}
	out := &UsersScreen{Users: paging.New(list, page, perPage, total), Filter: f}
	if out.AdminCount, err = s.users.CountAdmins(ctx); err != nil {
		return nil, err
	}
	if out.WithOrders, err = s.users.CountWithOrders(ctx); err != nil {
		return nil, err
	}
	if out.RecentUsers, err = s.users.CountSince(ctx, time.Now().AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) UserDetail(ctx context.Context, id int64) (*UserDetail, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}
	return &UserDetail{
		User:                  u,
		Orders:                orders,
		TotalSpent:            total,
		DaysSinceRegistration: int(time.Since(u.CreatedAt).Hours() / 24),
	}, nil
}

func (s *AdminService) removeImage(name string) {
	if name == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(name); err != nil {
		zap.L().Warn("remove image failed", zap.String("file", name), zap.Error(err))
	}
}

func notFoundErr(err error, key string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.NotFound, err, key, id)
	}
	return err
}

// logRollback 业务拒绝记 info，其余记 error
func logRollback(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if apperr.KindOf(err) == apperr.Internal {
		GetMonitor().RecordDBError()
		zap.L().Error("transaction rolled back", fields...)
		return
	}
	zap.L().Info("transaction rolled back", fields...)
}
