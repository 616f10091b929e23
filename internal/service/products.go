package service

import (
	"context"
	"strings"

	"github.com/telvora/telvora-admin-bff/internal/domain"
	"github.com/telvora/telvora-admin-bff/internal/port"

	"go.uber.org/zap"
)

// ProductService serves the product catalog.
type ProductService struct {
	store  port.ProductStore
	logger *zap.Logger
}

// NewProductService creates a ProductService.
func NewProductService(store port.ProductStore, logger *zap.Logger) *ProductService {
	return &ProductService{store: store, logger: logger}
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Search   string // substring match on name, id, description or category
	Category string // exact match
}

// List returns the catalog in display order. A storage failure degrades to an
// empty catalog.
func (s *ProductService) List(ctx context.Context, filter ProductFilter) []domain.Product {
	ctx, span := tracer.Start(ctx, "ProductService.List")
	defer span.End()

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		s.logger.Error("product list unavailable, serving empty catalog", zap.Error(err))
		return []domain.Product{}
	}

	if filter.Search != "" || filter.Category != "" {
		search := strings.ToLower(filter.Search)
		filtered := make([]domain.Product, 0, len(products))
		for _, p := range products {
			if search != "" && !matchesAny(search, p.Name, p.ProductID, p.Description, p.Category) {
				continue
			}
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			filtered = append(filtered, p)
		}
		products = filtered
	}

	domain.SortProducts(products)
	return products
}

func (s *ProductService) Get(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.Get")
	defer span.End()

	if productID == "" {
		return nil, &domain.ErrValidation{Field: "productId", Message: "required"}
	}
	return s.store.GetProduct(ctx, productID)
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.Create")
	defer span.End()

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	return s.store.CreateProduct(ctx, p)
}

func (s *ProductService) Update(ctx context.Context, productID string, p domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.Update")
	defer span.End()

	if productID == "" {
		return nil, &domain.ErrValidation{Field: "productId", Message: "required"}
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	return s.store.UpdateProduct(ctx, productID, p)
}

func (s *ProductService) Delete(ctx context.Context, productID string) error {
	ctx, span := tracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	if productID == "" {
		return &domain.ErrValidation{Field: "productId", Message: "required"}
	}
	return s.store.DeleteProduct(ctx, productID)
}

// Stats reduces the catalog to its dashboard aggregates.
func (s *ProductService) Stats(ctx context.Context) domain.ProductStats {
	ctx, span := tracer.Start(ctx, "ProductService.Stats")
	defer span.End()

	return domain.ComputeProductStats(s.List(ctx, ProductFilter{}))
}

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return &domain.ErrValidation{Field: "productName", Message: "required"}
	}
	if p.Price < 0 {
		return &domain.ErrValidation{Field: "price", Message: "must not be negative"}
	}
	if p.Category != "" && !validCategory(p.Category) {
		return &domain.ErrValidation{Field: "category", Message: "unknown category"}
	}
	return nil
}

func validCategory(category string) bool {
	for _, c := range domain.ProductCategories {
		if c == category {
			return true
		}
	}
	return false
}
