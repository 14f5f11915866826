package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

const (
	MinItemQuantity = 1
	MaxItemQuantity = 99
)

// ProductLookup resolves catalog entries for cart lines.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type CartService struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	products ProductLookup
	logger   *slog.Logger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, products ProductLookup, logger *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		cache:    cache,
		products: products,
		logger:   logger,
	}
}

// GetCart returns the owner's server cart. A user without a stored cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "cache get failed", "user_id", userID, "error", err)
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			now := time.Now().UTC()
			return &domain.Cart{
				UserID:    userID,
				Items:     []domain.CartItem{},
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		if errGet != nil {
			return nil, domain.NewStoreError("carts.Get", userID, errGet)
		}

		// Set synchronously so a following invalidation cannot be overtaken by it.
		if errSet := s.cache.Set(ctx, userID, cart); errSet != nil {
			s.logger.WarnContext(ctx, "cache set failed", "user_id", userID, "error", errSet)
		}

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem snapshots the product from the catalog and adds quantity to the owner's cart,
// summing with an existing line for the same product.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	const op = "carts.AddItem"
	if err := validateQuantity(op, productID, quantity); err != nil {
		return err
	}

	product, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return domain.NewNotFoundError(op, productID, "product not found")
	}
	if err != nil {
		return domain.NewStoreError(op, productID, err)
	}

	item := domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
		ImageRef:  product.ImageURL,
	}
	if errAdd := s.repo.AddItem(ctx, userID, item); errAdd != nil {
		s.logger.ErrorContext(ctx, "repo add item failed", "user_id", userID, "product_id", productID, "error", errAdd)
		return domain.NewStoreError(op, userID, errAdd)
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	const op = "carts.UpdateQuantity"
	if err := validateQuantity(op, productID, quantity); err != nil {
		return err
	}

	errUpdate := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity)
	if errors.Is(errUpdate, repository.ErrItemNotFound) {
		return domain.NewNotFoundError(op, productID, "item not in cart")
	}
	if errUpdate != nil {
		s.logger.ErrorContext(ctx, "repo update item quantity failed", "user_id", userID, "product_id", productID, "error", errUpdate)
		return domain.NewStoreError(op, userID, errUpdate)
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) error {
	const op = "carts.RemoveItem"

	errRemove := s.repo.RemoveItem(ctx, userID, productID)
	if errors.Is(errRemove, repository.ErrCartNotFound) {
		return domain.NewNotFoundError(op, userID, "cart not found")
	}
	if errRemove != nil {
		s.logger.ErrorContext(ctx, "repo remove item failed", "user_id", userID, "product_id", productID, "error", errRemove)
		return domain.NewStoreError(op, userID, errRemove)
	}

	s.invalidateCache(userID)
	return nil
}

// ClearCart deletes the owner's cart. Clearing a cart that does not exist succeeds.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		s.logger.ErrorContext(ctx, "repo delete cart failed", "user_id", userID, "error", errDelete)
		return domain.NewStoreError("carts.Clear", userID, errDelete)
	}

	s.invalidateCache(userID)
	return nil
}

// RemoveOrderedItems takes what an order bought out of the owner's cart. Lines
// added or topped up after checkout read the cart survive, and a repeated order id
// is ignored.
func (s *CartService) RemoveOrderedItems(ctx context.Context, userID, orderID string, lines []domain.OrderedLine) error {
	const op = "carts.RemoveOrderedItems"
	if userID == "" || orderID == "" {
		return domain.NewValidationError(op, orderID, "owner and order are required")
	}

	if err := s.repo.RemoveOrderedItems(ctx, userID, orderID, lines); err != nil {
		s.logger.ErrorContext(ctx, "repo remove ordered items failed", "user_id", userID, "order_id", orderID, "error", err)
		return domain.NewStoreError(op, userID, err)
	}

	s.invalidateCache(userID)
	return nil
}

// OrderPlaced takes the order's lines out of the cart it was created from.
func (s *CartService) OrderPlaced(ctx context.Context, order *domain.Order) error {
	return s.RemoveOrderedItems(ctx, order.UserID, order.ID, domain.OrderedLines(order))
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		s.logger.Warn("cache invalidate failed", "user_id", userID, "error", errInvalidate)
	}
}

func validateQuantity(op, productID string, quantity int) error {
	if productID == "" {
		return domain.NewValidationError(op, "", "productId is required")
	}
	if quantity < MinItemQuantity || quantity > MaxItemQuantity {
		return domain.NewValidationError(op, productID, "quantity must be between 1 and 99")
	}
	return nil
}
