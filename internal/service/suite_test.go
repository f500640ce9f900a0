package service

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/example/velours/internal/auth"
	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/infra/mq"
	"github.com/example/velours/internal/repository/sqldb"
	"github.com/example/velours/internal/repository/sqldb/sqldbtest"
	"github.com/example/velours/internal/storage"
)

// recordingPublisher 记录投递的事件，fail 为 true 时模拟 MQ 故障
type recordingPublisher struct {
	mu     sync.Mutex
	events []*mq.OrderPlaced
	fail   bool
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, ev *mq.OrderPlaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unreachable")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type serviceSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	images *storage.Images
	pub    *recordingPublisher

	users    *UserService
	catalog  *CatalogService
	carts    *CartService
	checkout *CheckoutService
	orders   *OrderService
	admin    *AdminService
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = sqldbtest.New(s.T())
	imgs, err := storage.NewImages(s.T().TempDir())
	s.Require().NoError(err)
	s.images = imgs
	s.pub = &recordingPublisher{}

	userRepo := sqldb.NewUserRepository(s.db)
	productRepo := sqldb.NewProductRepository(s.db)
	categoryRepo := sqldb.NewCategoryRepository(s.db)
	orderRepo := sqldb.NewOrderRepository(s.db)
	gate := auth.NewGate(&config.JWTConfig{Secret: "test"}, userRepo, nil)

	s.users = NewUserService(userRepo, orderRepo, gate)
	s.catalog = NewCatalogService(productRepo, categoryRepo)
	s.carts = NewCartService(productRepo)
	s.checkout = NewCheckoutService(s.db, s.pub)
	s.orders = NewOrderService(orderRepo)
	s.admin = NewAdminService(s.db, productRepo, categoryRepo, orderRepo, userRepo, imgs)
	GetMonitor().Reset()
}
