// Package sqldbtest 为各包测试提供独立的内存 sqlite 库与常用数据构造
package sqldbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/velours/internal/datamodels/category"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/product"
	"github.com/example/velours/internal/datamodels/user"
	"github.com/example/velours/internal/repository/sqldb"
)

var seq atomic.Int64

// New 每次调用得到一个全新的库；单连接让并发事务串行执行
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:velours_test_%d?mode=memory&cache=shared&_foreign_keys=1", seq.Add(1))
	conn, err := sqldb.Open(dsn, 1)
	require.NoError(t, err)
	require.NoError(t, sqldb.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func CreateUser(t testing.TB, db *gorm.DB, username string, admin bool) *user.User {
	t.Helper()
	u := &user.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsAdmin:      admin,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateCategory(t testing.TB, db *gorm.DB, name string) *category.Category {
	t.Helper()
	c := &category.Category{Name: name, Description: name + " description"}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateProduct 创建上架商品，price 形如 "49.90"
func CreateProduct(t testing.TB, db *gorm.DB, name, price string, stock int64, cat *category.Category) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Brand:    "Velours",
		Volume:   "50ml",
		Gender:   product.GenderUnisex,
		IsActive: true,
	}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateOrder 直接写入一笔订单及明细，不经过结算流程
func CreateOrder(t testing.TB, db *gorm.DB, u *user.User, items map[*product.Product]int64) *order.Order {
	t.Helper()
	o := &order.Order{
		UserID:          u.ID,
		Status:          order.StatusPending,
		ShippingAddress: "1 rue de la Paix, Paris",
		Phone:           "0102030405",
	}
	total := decimal.Zero
	for p, qty := range items {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(qty)))
	}
	o.TotalAmount = total
	require.NoError(t, db.Omit("Items").Create(o).Error)
	for p, qty := range items {
		it := &order.OrderItem{OrderID: o.ID, ProductID: p.ID, Quantity: qty, Price: p.Price}
		require.NoError(t, db.Create(it).Error)
		o.Items = append(o.Items, *it)
	}
	return o
}
