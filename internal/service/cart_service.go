package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/cart"
	"github.com/example/velours/internal/datamodels/product"
)

// AddResult Adjusted 表示累计数量超过库存，已按库存截断
type AddResult struct {
	Adjusted  bool
	Available int64
}

// LineView 购物车展示行，价格取实时值
type LineView struct {
	Product  *product.Product
	Quantity int64
	Subtotal decimal.Decimal
}

type Totals struct {
	Lines []LineView
	Total decimal.Decimal
}

// CartService 购物车规则，购物车本身由调用方从会话读写
type CartService struct {
	products product.Repository
}

func NewCartService(products product.Repository) *CartService {
	return &CartService{products: products}
}

// AddItem 单次数量超过库存直接拒绝；累计超过库存时截断到库存并返回 Adjusted
func (s *CartService) AddItem(ctx context.Context, c *cart.Cart, productID, qty int64) (AddResult, error) {
	if qty <= 0 {
		return AddResult{}, apperr.New(apperr.InvalidInput, "cart.invalid_quantity")
	}
	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return AddResult{}, err
	}
	if p.Stock < qty {
		return AddResult{Available: p.Stock}, apperr.New(apperr.InsufficientStock, "cart.insufficient_stock", p.Name)
	}
	want := c.Quantity(productID) + qty
	if want > p.Stock {
		c.Set(productID, p.Stock)
		return AddResult{Adjusted: true, Available: p.Stock}, nil
	}
	c.Set(productID, want)
	return AddResult{Available: p.Stock}, nil
}

// UpdateItem qty <= 0 删除该行
func (s *CartService) UpdateItem(ctx context.Context, c *cart.Cart, productID, qty int64) error {
	if qty <= 0 {
		c.Remove(productID)
		return nil
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.InsufficientStock, "cart.insufficient_stock", productID)
		}
		return err
	}
	if qty > p.Stock {
		return apperr.New(apperr.InsufficientStock, "cart.insufficient_stock", p.Name)
	}
	c.Set(productID, qty)
	return nil
}

func (s *CartService) RemoveItem(c *cart.Cart, productID int64) {
	c.Remove(productID)
}

func (s *CartService) TotalCount(c *cart.Cart) int64 {
	return c.TotalCount()
}

// ComputeTotals 按实时价格计算，已不存在的商品跳过
func (s *CartService) ComputeTotals(ctx context.Context, c *cart.Cart) (Totals, error) {
	out := Totals{Total: decimal.Zero}
	if c.IsEmpty() {
		return out, nil
	}
	byID, err := s.products.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return out, err
	}
	for _, l := range c.Lines() {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(l.Quantity))
		out.Lines = append(out.Lines, LineView{Product: p, Quantity: l.Quantity, Subtotal: sub})
		out.Total = out.Total.Add(sub)
	}
	return out, nil
}

func (s *CartService) activeProduct(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, err, "cart.invalid_product")
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.New(apperr.NotFound, "cart.invalid_product")
	}
	return p, nil
}
