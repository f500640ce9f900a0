package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/datamodels/category"
	"github.com/example/velours/internal/datamodels/paging"
	"github.com/example/velours/internal/datamodels/product"
)

// ProductInput 后台商品表单
type ProductInput struct {
	Name        string `form:"name" validate:"required,max=200"`
	Description string `form:"description"`
	Price       string `form:"price" validate:"required,numeric"`
	Stock       int64  `form:"stock" validate:"gte=0"`
	Brand       string `form:"brand" validate:"max=100"`
	Volume      string `form:"volume" validate:"max=50"`
	Gender      string `form:"gender" validate:"required,oneof=homme femme unisexe"`
	CategoryID  int64  `form:"category_id" validate:"gte=0"`
	IsActive    bool   `form:"is_active"`
}

// CategoryInput 后台分类表单
type CategoryInput struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description"`
}

// ImageUpload 上传的图片，Body 由调用方负责关闭
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

func (s *AdminService) Products(ctx context.Context, page int) (paging.Page[*product.Product], error) {
	page, perPage := paging.Normalize(page, AdminPerPage)
	list, total, err := s.products.Search(ctx, product.Filter{}, page, perPage)
	if err != nil {
		return paging.Page[*product.Product]{}, err
	}
	return paging.New(list, page, perPage, total), nil
}

func (s *AdminService) Product(ctx context.Context, id int64) (*product.Product, error) {
	return s.products.GetByID(ctx, id)
}

// CreateProduct 新商品默认上架
func (s *AdminService) CreateProduct(ctx context.Context, in ProductInput, img *ImageUpload) (*product.Product, error) {
	p := &product.Product{IsActive: true}
	if err := s.applyProductInput(ctx, p, in); err != nil {
		return nil, err
	}
	name, err := s.saveImage(img)
	if err != nil {
		return nil, err
	}
	p.ImageFilename = name
	if err := s.products.Create(ctx, p); err != nil {
		s.removeImage(name)
		return nil, err
	}
	zap.L().Info("product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct 上传了新图片时，保存成功后删除旧图片
func (s *AdminService) UpdateProduct(ctx context.Context, id int64, in ProductInput, img *ImageUpload) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyProductInput(ctx, p, in); err != nil {
		return nil, err
	}
	p.IsActive = in.IsActive

	name, err := s.saveImage(img)
	if err != nil {
		return nil, err
	}
	old := p.ImageFilename
	if name != "" {
		p.ImageFilename = name
	}
	p.Category = nil
	if err := s.products.Update(ctx, p); err != nil {
		s.removeImage(name)
		return nil, err
	}
	if name != "" {
		s.removeImage(old)
	}
	return p, nil
}

// ToggleProductActive 上下架切换
func (s *AdminService) ToggleProductActive(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = !p.IsActive
	if err := s.db.WithContext(ctx).Model(p).Update("is_active", p.IsActive).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *AdminService) applyProductInput(ctx context.Context, p *product.Product, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.New(apperr.InvalidInput, "product.name_required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || price.IsNegative() {
		return apperr.New(apperr.InvalidInput, "product.invalid_price")
	}
	if in.Stock < 0 {
		return apperr.New(apperr.InvalidInput, "product.invalid_stock")
	}
	gender := product.Gender(in.Gender)
	if !gender.Valid() {
		return apperr.New(apperr.InvalidInput, "product.invalid_gender")
	}
	p.CategoryID = nil
	if in.CategoryID > 0 {
		if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.New(apperr.InvalidInput, "category.not_found", in.CategoryID)
			}
			return err
		}
		cid := in.CategoryID
		p.CategoryID = &cid
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = price.Round(2)
	p.Stock = in.Stock
	p.Brand = in.Brand
	p.Volume = in.Volume
	p.Gender = gender
	return nil
}

func (s *AdminService) saveImage(img *ImageUpload) (string, error) {
	if img == nil || img.Filename == "" || s.images == nil {
		return "", nil
	}
	return s.images.Save(img.Filename, img.Body)
}

func (s *AdminService) Categories(ctx context.Context) ([]*category.Category, error) {
	return s.categories.ListAll(ctx)
}

func (s *AdminService) Category(ctx context.Context, id int64) (*category.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *AdminService) CreateCategory(ctx context.Context, in CategoryInput) (*category.Category, error) {
	c := &category.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}
	if c.Name == "" {
		return nil, apperr.New(apperr.InvalidInput, "category.name_required")
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *AdminService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*category.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	if c.Name == "" {
		return nil, apperr.New(apperr.InvalidInput, "category.name_required")
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
