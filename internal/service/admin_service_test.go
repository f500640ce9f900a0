package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/datamodels/category"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/product"
	"github.com/example/velours/internal/datamodels/user"
	"github.com/example/velours/internal/repository/sqldb/sqldbtest"
)

type AdminServiceSuite struct {
	serviceSuite
}

func (s *AdminServiceSuite) count(model interface{}) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Count(&n).Error)
	return n
}

func (s *AdminServiceSuite) withImage(p *product.Product) string {
	name, err := s.images.Save("flacon.png", strings.NewReader("png"))
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(p).Update("image_filename", name).Error)
	return name
}

func (s *AdminServiceSuite) imageExists(name string) bool {
	_, err := os.Stat(filepath.Join(s.images.Dir(), name))
	return err == nil
}

func (s *AdminServiceSuite) TestDeleteReferencedProductConflicts() {
	u := sqldbtest.CreateUser(s.T(), s.db, "jean", false)
	p := sqldbtest.CreateProduct(s.T(), s.db, "Ambre", "70.00", 5, nil)
	sqldbtest.CreateOrder(s.T(), s.db, u, map[*product.Product]int64{p: 1})

	err := s.admin.DeleteProduct(s.ctx, p.ID)
	s.Require().ErrorIs(err, apperr.ErrConflict)
	s.Require().Equal("product.in_orders", apperr.As(err).Key)
	s.Require().EqualValues(1, s.count(&product.Product{}))
}

func (s *AdminServiceSuite) TestDeleteProductRemovesImage() {
	p := sqldbtest.CreateProduct(s.T(), s.db, "Musc", "30.00", 5, nil)
	img := s.withImage(p)

	s.Require().NoError(s.admin.DeleteProduct(s.ctx, p.ID))
	s.Require().Zero(s.count(&product.Product{}))
	s.Require().False(s.imageExists(img))

	s.Require().ErrorIs(s.admin.DeleteProduct(s.ctx, p.ID), apperr.ErrNotFound)
}

func (s *AdminServiceSuite) TestDeleteCategory() {
	full := sqldbtest.CreateCategory(s.T(), s.db, "Homme")
	sqldbtest.CreateProduct(s.T(), s.db, "Bois", "50.00", 1, full)
	empty := sqldbtest.CreateCategory(s.T(), s.db, "Enfant")

	s.Require().ErrorIs(s.admin.DeleteCategory(s.ctx, full.ID), apperr.ErrConflict)
	s.Require().NoError(s.admin.DeleteCategory(s.ctx, empty.ID))
	s.Require().EqualValues(1, s.count(&category.Category{}))
}

func (s *AdminServiceSuite) TestDeleteAllProductsCascades() {
	u := sqldbtest.CreateUser(s.T(), s.db, "jean", false)
	var ps []*product.Product
	var imgs []string
	for i := 0; i < 12; i++ {
		p := sqldbtest.CreateProduct(s.T(), s.db, fmt.Sprintf("Parfum %d", i), "40.00", 10, nil)
		ps = append(ps, p)
		if i < 2 {
			imgs = append(imgs, s.withImage(p))
		}
	}
	sqldbtest.CreateOrder(s.T(), s.db, u, map[*product.Product]int64{ps[0]: 1, ps[1]: 1})
	sqldbtest.CreateOrder(s.T(), s.db, u, map[*product.Product]int64{ps[2]: 1})
	sqldbtest.CreateOrder(s.T(), s.db, u, map[*product.Product]int64{ps[3]: 2})

	res, err := s.admin.DeleteAllProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(BulkDeleteResult{Products: 12, Orders: 3, OrderItems: 4, Images: 2}, res)
	s.Require().Zero(s.count(&product.Product{}))
	s.Require().Zero(s.count(&order.Order{}))
	s.Require().Zero(s.count(&order.OrderItem{}))
	for _, img := range imgs {
		s.Require().False(s.imageExists(img))
	}
	s.Require().EqualValues(1, s.count(&user.User{}))

	res, err = s.admin.DeleteAllProducts(s.ctx)
	s.Require().NoError(err)
	s.Require().True(res.Empty)
	s.Require().Zero(res.Products)
}

func (s *AdminServiceSuite) TestDeleteUser() {
	admin := sqldbtest.CreateUser(s.T(), s.db, "admin", true)
	victim := sqldbtest.CreateUser(s.T(), s.db, "paul", false)
	other := sqldbtest.CreateUser(s.T(), s.db, "anne", false)
	a := sqldbtest.CreateProduct(s.T(), s.db, "Ambre", "70.00", 10, nil)
	b := sqldbtest.CreateProduct(s.T(), s.db, "Musc", "20.00", 10, nil)
	sqldbtest.CreateOrder(s.T(), s.db, victim, map[*product.Product]int64{a: 1, b: 2})
	sqldbtest.CreateOrder(s.T(), s.db, victim, map[*product.Product]int64{b: 1})
	sqldbtest.CreateOrder(s.T(), s.db, other, map[*product.Product]int64{a: 1})

	_, err := s.admin.DeleteUser(s.ctx, admin.ID, admin.ID)
	s.Require().ErrorIs(err, apperr.ErrForbidden)

	res, err := s.admin.DeleteUser(s.ctx, admin.ID, victim.ID)
	s.Require().NoError(err)
	s.Require().Equal("paul", res.Username)
	s.Require().Equal("paul@example.com", res.Email)
	s.Require().EqualValues(2, res.Orders)
	s.Require().EqualValues(3, res.OrderItems)
	s.Require().Equal("130.00", res.TotalSpent.StringFixed(2))

	s.Require().EqualValues(2, s.count(&user.User{}))
	s.Require().EqualValues(1, s.count(&order.Order{}))
	s.Require().EqualValues(1, s.count(&order.OrderItem{}))

	_, err = s.admin.DeleteUser(s.ctx, admin.ID, victim.ID)
	s.Require().ErrorIs(err, apperr.ErrNotFound)
}

func (s *AdminServiceSuite) TestToggleAdmin() {
	admin := sqldbtest.CreateUser(s.T(), s.db, "admin", true)
	u := sqldbtest.CreateUser(s.T(), s.db, "lucie", false)

	_, err := s.admin.ToggleAdmin(s.ctx, admin.ID, admin.ID)
	s.Require().ErrorIs(err, apperr.ErrForbidden)

	got, err := s.admin.ToggleAdmin(s.ctx, admin.ID, u.ID)
	s.Require().NoError(err)
	s.Require().True(got.IsAdmin)

	got, err = s.admin.ToggleAdmin(s.ctx, admin.ID, u.ID)
	s.Require().NoError(err)
	s.Require().False(got.IsAdmin)

	stored, err := s.users.Get(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().False(stored.IsAdmin)
}

func (s *AdminServiceSuite) TestDashboardAndUserScreens() {
	sqldbtest.CreateUser(s.T(), s.db, "admin", true)
	buyer := sqldbtest.CreateUser(s.T(), s.db, "jean", false)
	p := sqldbtest.CreateProduct(s.T(), s.db, "Ambre", "70.00", 10, nil)
	o := sqldbtest.CreateOrder(s.T(), s.db, buyer, map[*product.Product]int64{p: 2})

	d, err := s.admin.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Require().EqualValues(1, d.Products)
	s.Require().EqualValues(1, d.Orders)
	s.Require().EqualValues(2, d.Users)
	s.Require().EqualValues(1, d.PendingOrders)
	s.Require().Len(d.RecentOrders, 1)

	screen, err := s.admin.Users(s.ctx, "regular", 1)
	s.Require().NoError(err)
	s.Require().EqualValues(1, screen.Users.Total)
	s.Require().EqualValues(1, screen.AdminCount)
	s.Require().EqualValues(1, screen.WithOrders)
	s.Require().EqualValues(2, screen.RecentUsers)

	screen, err = s.admin.Users(s.ctx, "bogus", 1)
	s.Require().NoError(err)
	s.Require().Equal(user.FilterAll, screen.Filter)
	s.Require().EqualValues(2, screen.Users.Total)

	detail, err := s.admin.UserDetail(s.ctx, buyer.ID)
	s.Require().NoError(err)
	s.Require().Len(detail.Orders, 1)
	s.Require().True(detail.TotalSpent.Equal(o.TotalAmount))
	s.Require().Zero(detail.DaysSinceRegistration)
}

func (s *AdminServiceSuite) TestProductCRUD() {
	cat := sqldbtest.CreateCategory(s.T(), s.db, "Femme")
	in := ProductInput{
		Name:       "Rose de Mai",
		Price:      "64.50",
		Stock:      8,
		Brand:      "Velours",
		Volume:     "100ml",
		Gender:     "femme",
		CategoryID: cat.ID,
	}

	_, err := s.admin.CreateProduct(s.ctx, ProductInput{Name: "x", Price: "-1", Gender: "femme"}, nil)
	s.Require().ErrorIs(err, apperr.ErrInvalidInput)
	_, err = s.admin.CreateProduct(s.ctx, ProductInput{Name: "x", Price: "1", Gender: "femme", CategoryID: 999}, nil)
	s.Require().ErrorIs(err, apperr.ErrInvalidInput)

	p, err := s.admin.CreateProduct(s.ctx, in, &ImageUpload{Filename: "rose.jpg", Body: strings.NewReader("a")})
	s.Require().NoError(err)
	s.Require().True(p.IsActive)
	s.Require().NotEmpty(p.ImageFilename)
	first := p.ImageFilename

	in.Price = "59.00"
	in.IsActive = true
	p, err = s.admin.UpdateProduct(s.ctx, p.ID, in, &ImageUpload{Filename: "rose2.webp", Body: strings.NewReader("b")})
	s.Require().NoError(err)
	s.Require().Equal("59.00", p.Price.StringFixed(2))
	s.Require().NotEqual(first, p.ImageFilename)
	s.Require().False(s.imageExists(first))
	s.Require().True(s.imageExists(p.ImageFilename))

	p, err = s.admin.ToggleProductActive(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().False(p.IsActive)

	page, err := s.catalog.Search(s.ctx, ProductQuery{})
	s.Require().NoError(err)
	s.Require().Zero(page.Total)

	all, err := s.admin.Products(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().EqualValues(1, all.Total)
}

func (s *AdminServiceSuite) TestCategoryCRUD() {
	c, err := s.admin.CreateCategory(s.ctx, CategoryInput{Name: " Unisexe ", Description: "Pour tous"})
	s.Require().NoError(err)
	s.Require().Equal("Unisexe", c.Name)

	_, err = s.admin.UpdateCategory(s.ctx, c.ID, CategoryInput{Name: ""})
	s.Require().ErrorIs(err, apperr.ErrInvalidInput)

	c, err = s.admin.UpdateCategory(s.ctx, c.ID, CategoryInput{Name: "Mixte"})
	s.Require().NoError(err)
	list, err := s.admin.Categories(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Require().Equal("Mixte", list[0].Name)
}

func (s *AdminServiceSuite) TestExports() {
	u := sqldbtest.CreateUser(s.T(), s.db, "jean", false)
	p := sqldbtest.CreateProduct(s.T(), s.db, "Ambre", "70.00", 10, nil)
	sqldbtest.CreateOrder(s.T(), s.db, u, map[*product.Product]int64{p: 1})

	var buf bytes.Buffer
	s.Require().NoError(s.admin.ExportProducts(s.ctx, &buf))
	s.Require().True(bytes.HasPrefix(buf.Bytes(), []byte("PK")))

	buf.Reset()
	s.Require().NoError(s.admin.ExportOrders(s.ctx, &buf))
	s.Require().True(bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}
