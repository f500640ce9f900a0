package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/kataras/iris/v12"

	"github.com/example/velours/internal/datamodels/product"
	"github.com/example/velours/internal/middleware"
	"github.com/example/velours/internal/service"
)

// AdminCatalogController 后台商品与分类管理
type AdminCatalogController struct {
	*Base
	admin *service.AdminService
}

func NewAdminCatalogController(base *Base, admin *service.AdminService) *AdminCatalogController {
	return &AdminCatalogController{Base: base, admin: admin}
}

var genders = []product.Gender{product.GenderMen, product.GenderWomen, product.GenderUnisex}

// Products 商品列表，包含已下架商品
func (c *AdminCatalogController) Products(ctx iris.Context) {
	page, err := c.admin.Products(ctx.Request().Context(), pageParam(ctx))
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "admin/products.html", iris.Map{
		"Page":  page,
		"Pager": NewPager(ctx.Request().URL, page.Page, page.Pages()),
	})
}

// NewProduct GET /admin/products/add
func (c *AdminCatalogController) NewProduct(ctx iris.Context) {
	c.productForm(ctx, "/admin/products/add", service.ProductInput{Gender: string(product.GenderUnisex), IsActive: true}, nil)
}

// CreateProduct POST /admin/products/add
func (c *AdminCatalogController) CreateProduct(ctx iris.Context) {
	var in service.ProductInput
	if err := ctx.ReadForm(&in); err != nil {
		middleware.FlashT(ctx, "error", "product.invalid_form")
		c.productForm(ctx, "/admin/products/add", in, nil)
		return
	}
	img, closeImg, err := imageUpload(ctx)
	if err != nil {
		c.Fail(ctx, err, "/admin/products/add")
		return
	}
	defer closeImg()

	p, err := c.admin.CreateProduct(ctx.Request().Context(), in, img)
	if err != nil {
		middleware.AddFlash(ctx, "error", c.Message(ctx, err))
		c.productForm(ctx, "/admin/products/add", in, nil)
		return
	}
	c.Success(ctx, "/admin/products", "product.created", p.Name)
}

// EditProduct GET /admin/products/edit/{id}
func (c *AdminCatalogController) EditProduct(ctx iris.Context) {
	p, err := c.admin.Product(ctx.Request().Context(), paramID(ctx))
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	in := service.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		Brand:       p.Brand,
		Volume:      p.Volume,
		Gender:      string(p.Gender),
		IsActive:    p.IsActive,
	}
	if p.CategoryID != nil {
		in.CategoryID = *p.CategoryID
	}
	c.productForm(ctx, fmt.Sprintf("/admin/products/edit/%d", p.ID), in, p)
}

// UpdateProduct POST /admin/products/edit/{id}
func (c *AdminCatalogController) UpdateProduct(ctx iris.Context) {
	id := paramID(ctx)
	action := fmt.Sprintf("/admin/products/edit/%d", id)
	rctx := ctx.Request().Context()
	current, err := c.admin.Product(rctx, id)
	if err != nil {
		c.NotFound(ctx, err)
		return
	}

	var in service.ProductInput
	if err := ctx.ReadForm(&in); err != nil {
		middleware.FlashT(ctx, "error", "product.invalid_form")
		c.productForm(ctx, action, in, current)
		return
	}
	img, closeImg, err := imageUpload(ctx)
	if err != nil {
		c.Fail(ctx, err, action)
		return
	}
	defer closeImg()

	p, err := c.admin.UpdateProduct(rctx, id, in, img)
	if err != nil {
		middleware.AddFlash(ctx, "error", c.Message(ctx, err))
		c.productForm(ctx, action, in, current)
		return
	}
	c.Success(ctx, "/admin/products", "product.updated", p.Name)
}

// ToggleProduct 上下架
func (c *AdminCatalogController) ToggleProduct(ctx iris.Context) {
	p, err := c.admin.ToggleProductActive(ctx.Request().Context(), paramID(ctx))
	if err != nil {
		c.Fail(ctx, err, "/admin/products")
		return
	}
	key := "product.deactivated"
	if p.IsActive {
		key = "product.activated"
	}
	c.Success(ctx, "/admin/products", key, p.Name)
}

// DeleteProduct 被订单引用的商品不能删除
func (c *AdminCatalogController) DeleteProduct(ctx iris.Context) {
	if err := c.admin.DeleteProduct(ctx.Request().Context(), paramID(ctx)); err != nil {
		c.Fail(ctx, err, "/admin/products")
		return
	}
	c.Success(ctx, "/admin/products", "product.deleted")
}

// DeleteAllProducts 清空商品、订单与图片
func (c *AdminCatalogController) DeleteAllProducts(ctx iris.Context) {
	res, err := c.admin.DeleteAllProducts(ctx.Request().Context())
	if err != nil {
		c.Fail(ctx, err, "/admin/products")
		return
	}
	if res.Empty {
		middleware.FlashT(ctx, "info", "product.nothing_to_delete")
		ctx.Redirect("/admin/products", iris.StatusSeeOther)
		return
	}
	c.Success(ctx, "/admin/products", "product.all_deleted", res.Products, res.Orders, res.OrderItems, res.Images)
}

// ExportProducts 下载商品 Excel
func (c *AdminCatalogController) ExportProducts(ctx iris.Context) {
	var buf bytes.Buffer
	if err := c.admin.ExportProducts(ctx.Request().Context(), &buf); err != nil {
		c.Fail(ctx, err, "/admin/products")
		return
	}
	sendXLSX(ctx, "produits", buf.Bytes())
}

func (c *AdminCatalogController) productForm(ctx iris.Context, action string, in service.ProductInput, p *product.Product) {
	categories, err := c.admin.Categories(ctx.Request().Context())
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "admin/product_form.html", iris.Map{
		"Action":     action,
		"Form":       in,
		"Product":    p,
		"Categories": categories,
		"Genders":    genders,
	})
}

// imageUpload 没有选择文件时返回 nil
func imageUpload(ctx iris.Context) (*service.ImageUpload, func(), error) {
	file, header, err := ctx.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	return &service.ImageUpload{Filename: header.Filename, Body: file}, func() { _ = file.Close() }, nil
}

// Categories 分类列表
func (c *AdminCatalogController) Categories(ctx iris.Context) {
	list, err := c.admin.Categories(ctx.Request().Context())
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "admin/categories.html", iris.Map{"Categories": list})
}

// NewCategory GET /admin/categories/add
func (c *AdminCatalogController) NewCategory(ctx iris.Context) {
	c.Render(ctx, "admin/category_form.html", iris.Map{
		"Action": "/admin/categories/add",
		"Form":   service.CategoryInput{},
	})
}

// CreateCategory POST /admin/categories/add
func (c *AdminCatalogController) CreateCategory(ctx iris.Context) {
	var in service.CategoryInput
	if err := ctx.ReadForm(&in); err != nil {
		middleware.FlashT(ctx, "error", "category.name_required")
		c.Render(ctx, "admin/category_form.html", iris.Map{"Action": "/admin/categories/add", "Form": in})
		return
	}
	cat, err := c.admin.CreateCategory(ctx.Request().Context(), in)
	if err != nil {
		middleware.AddFlash(ctx, "error", c.Message(ctx, err))
		c.Render(ctx, "admin/category_form.html", iris.Map{"Action": "/admin/categories/add", "Form": in})
		return
	}
	c.Success(ctx, "/admin/categories", "category.created", cat.Name)
}

// EditCategory GET /admin/categories/edit/{id}
func (c *AdminCatalogController) EditCategory(ctx iris.Context) {
	cat, err := c.admin.Category(ctx.Request().Context(), paramID(ctx))
	if err != nil {
		c.NotFound(ctx, err)
		return
	}
	c.Render(ctx, "admin/category_form.html", iris.Map{
		"Action":   fmt.Sprintf("/admin/categories/edit/%d", cat.ID),
		"Form":     service.CategoryInput{Name: cat.Name, Description: cat.Description},
		"Category": cat,
	})
}

// UpdateCategory POST /admin/categories/edit/{id}
func (c *AdminCatalogController) UpdateCategory(ctx iris.Context) {
	id := paramID(ctx)
	action := fmt.Sprintf("/admin/categories/edit/%d", id)
	var in service.CategoryInput
	if err := ctx.ReadForm(&in); err != nil {
		middleware.FlashT(ctx, "error", "category.name_required")
		c.Render(ctx, "admin/category_form.html", iris.Map{"Action": action, "Form": in})
		return
	}
	cat, err := c.admin.UpdateCategory(ctx.Request().Context(), id, in)
	if err != nil {
		middleware.AddFlash(ctx, "error", c.Message(ctx, err))
		c.Render(ctx, "admin/category_form.html", iris.Map{"Action": action, "Form": in})
		return
	}
	c.Success(ctx, "/admin/categories", "category.updated", cat.Name)
}

// DeleteCategory 仍有商品的分类不能删除
func (c *AdminCatalogController) DeleteCategory(ctx iris.Context) {
	if err := c.admin.DeleteCategory(ctx.Request().Context(), paramID(ctx)); err != nil {
		c.Fail(ctx, err, "/admin/categories")
		return
	}
	c.Success(ctx, "/admin/categories", "category.deleted")
}
