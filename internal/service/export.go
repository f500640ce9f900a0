package service

import (
	"context"
	"io"

	"github.com/tealeg/xlsx"

	"github.com/example/velours/internal/datamodels/product"
)

// XLSXContentType 导出文件的 Content-Type
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

// ExportProducts 导出全部商品（含下架）
func (s *AdminService) ExportProducts(ctx context.Context, w io.Writer) error {
	var list []*product.Product
	if err := s.db.WithContext(ctx).Preload("Category").Order("id ASC").Find(&list).Error; err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Produits")
	if err != nil {
		return err
	}
	headerRow := sheet.AddRow()
	for _, h := range []string{"ID", "Nom", "Marque", "Volume", "Genre", "Catégorie", "Prix", "Stock", "Actif", "Créé le"} {
		headerRow.AddCell().SetValue(h)
	}
	for _, p := range list {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Brand)
		row.AddCell().SetValue(p.Volume)
		row.AddCell().SetValue(string(p.Gender))
		catName := ""
		if p.Category != nil {
			catName = p.Category.Name
		}
		row.AddCell().SetValue(catName)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(p.IsActive)
		row.AddCell().SetValue(p.CreatedAt.Format(timeLayout))
	}
	return file.Write(w)
}

// ExportOrders 导出全部订单
func (s *AdminService) ExportOrders(ctx context.Context, w io.Writer) error {
	list, err := s.orders.ListAll(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Commandes")
	if err != nil {
		return err
	}
	headerRow := sheet.AddRow()
	for _, h := range []string{"ID", "Client", "Email", "Statut", "Articles", "Total", "Adresse", "Téléphone", "Date"} {
		headerRow.AddCell().SetValue(h)
	}
	for _, o := range list {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		username, email := "", ""
		if o.User != nil {
			username, email = o.User.Username, o.User.Email
		}
		row.AddCell().SetValue(username)
		row.AddCell().SetValue(email)
		row.AddCell().SetValue(string(o.Status))
		var qty int64
		for _, it := range o.Items {
			qty += it.Quantity
		}
		row.AddCell().SetValue(qty)
		row.AddCell().SetValue(o.TotalAmount.StringFixed(2))
		row.AddCell().SetValue(o.ShippingAddress)
		row.AddCell().SetValue(o.Phone)
		row.AddCell().SetValue(o.CreatedAt.Format(timeLayout))
	}
	return file.Write(w)
}
