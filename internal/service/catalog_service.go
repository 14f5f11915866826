package service

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CatalogService struct {
	products repository.ProductRepository
}

func NewCatalogService(products repository.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.GetAllProducts(ctx)
	if err != nil {
		return nil, domain.NewStoreError("products.List", "", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const op = "products.Get"
	product, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, domain.NewNotFoundError(op, id, "product not found")
	}
	if err != nil {
		return nil, domain.NewStoreError(op, id, err)
	}
	return product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, caller domain.Caller, name, description string, price decimal.Decimal, imageURL string) (*domain.Product, error) {
	const op = "products.Create"
	if err := requireAdmin(op, caller); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, domain.NewValidationError(op, name, "price must not be negative")
	}

	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       price,
		ImageURL:    imageURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, domain.NewStoreError(op, product.ID, err)
	}
	return product, nil
}
