package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/example/velours/internal/datamodels/category"
	"github.com/example/velours/internal/datamodels/paging"
	"github.com/example/velours/internal/datamodels/product"
)

const (
	ShopPerPage   = 12
	FeaturedCount = 8
	RelatedCount  = 4
)

// ProductQuery 前台商品列表参数
type ProductQuery struct {
	Query      string
	CategoryID int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Page       int
}

// CatalogService 前台浏览
type CatalogService struct {
	products   product.Repository
	categories category.Repository
}

func NewCatalogService(products product.Repository, categories category.Repository) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

// Featured 首页推荐
func (s *CatalogService) Featured(ctx context.Context, limit int) ([]*product.Product, error) {
	if limit <= 0 {
		limit = FeaturedCount
	}
	return s.products.ListFeatured(ctx, limit)
}

// Search 只返回上架商品，每页 12 个
func (s *CatalogService) Search(ctx context.Context, q ProductQuery) (paging.Page[*product.Product], error) {
	page, perPage := paging.Normalize(q.Page, ShopPerPage)
	list, total, err := s.products.Search(ctx, product.Filter{
		Query:      q.Query,
		CategoryID: q.CategoryID,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		ActiveOnly: true,
	}, page, perPage)
	if err != nil {
		return paging.Page[*product.Product]{}, err
	}
	return paging.New(list, page, perPage, total), nil
}

// Get 商品详情，已下架的商品仍可访问，页面上显示不可购买
func (s *CatalogService) Get(ctx context.Context, id int64) (*product.Product, error) {
	return s.products.GetByID(ctx, id)
}

// Related 同分类的其它上架商品
func (s *CatalogService) Related(ctx context.Context, p *product.Product, limit int) ([]*product.Product, error) {
	if limit <= 0 {
		limit = RelatedCount
	}
	return s.products.ListRelated(ctx, p, limit)
}

func (s *CatalogService) Categories(ctx context.Context) ([]*category.Category, error) {
	return s.categories.ListAll(ctx)
}
