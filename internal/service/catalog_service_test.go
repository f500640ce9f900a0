package service

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/repository/sqldb/sqldbtest"
)

type CatalogSuite struct {
	serviceSuite
}

func (s *CatalogSuite) TestFeaturedAndPaging() {
	for i := 0; i < 14; i++ {
		sqldbtest.CreateProduct(s.T(), s.db, fmt.Sprintf("Eau %02d", i), "30.00", 3, nil)
	}
	featured, err := s.catalog.Featured(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(featured, FeaturedCount)

	page, err := s.catalog.Search(s.ctx, ProductQuery{Page: 2})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 2)
	s.Require().Equal(2, page.Pages())
	s.Require().False(page.HasNext())
}

func (s *CatalogSuite) TestSearchByQueryAndPrice() {
	cat := sqldbtest.CreateCategory(s.T(), s.db, "Femme")
	sqldbtest.CreateProduct(s.T(), s.db, "Rose Velours", "59.00", 3, cat)
	sqldbtest.CreateProduct(s.T(), s.db, "Bois Noir", "89.00", 3, nil)

	ceiling := decimal.RequireFromString("60")
	page, err := s.catalog.Search(s.ctx, ProductQuery{Query: "ROSE", MaxPrice: &ceiling})
	s.Require().NoError(err)
	s.Require().EqualValues(1, page.Total)

	page, err = s.catalog.Search(s.ctx, ProductQuery{CategoryID: cat.ID})
	s.Require().NoError(err)
	s.Require().EqualValues(1, page.Total)

	cats, err := s.catalog.Categories(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(cats, 1)
}

func (s *CatalogSuite) TestGetAndRelated() {
	cat := sqldbtest.CreateCategory(s.T(), s.db, "Homme")
	p := sqldbtest.CreateProduct(s.T(), s.db, "Cuir", "90.00", 3, cat)
	for i := 0; i < 5; i++ {
		sqldbtest.CreateProduct(s.T(), s.db, fmt.Sprintf("Bois %d", i), "50.00", 3, cat)
	}

	_, err := s.catalog.Get(s.ctx, 9999)
	s.Require().ErrorIs(err, apperr.ErrNotFound)

	got, err := s.catalog.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	related, err := s.catalog.Related(s.ctx, got, 0)
	s.Require().NoError(err)
	s.Require().Len(related, RelatedCount)
	for _, r := range related {
		s.Require().NotEqual(p.ID, r.ID)
	}
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}
