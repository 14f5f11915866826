package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
)

// OwnerDirectory resolves order owners for operator listings.
type OwnerDirectory interface {
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

type OrderService struct {
	orders repository.OrderRepository
	owners OwnerDirectory
	logger *slog.Logger
	now    func() time.Time
}

func NewOrderService(orders repository.OrderRepository, owners OwnerDirectory, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		owners: owners,
		logger: logger,
		now:    time.Now,
	}
}

// Create snapshots the cart into a new pending order. The cart itself is left as is.
func (s *OrderService) Create(ctx context.Context, cart *domain.Cart, shippingAddress, ownerID string) (*domain.Order, error) {
	const op = "orders.Create"
	if ownerID == "" {
		return nil, domain.NewUnauthorizedError(op, "owner is required")
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, domain.NewValidationError(op, ownerID, "cart is empty")
	}
	address := strings.TrimSpace(shippingAddress)
	if address == "" {
		return nil, domain.NewValidationError(op, ownerID, "shipping address is required")
	}
	for _, item := range cart.Items {
		if item.Quantity < MinItemQuantity {
			return nil, domain.NewValidationError(op, item.ProductID, "item quantity must be at least 1")
		}
		if item.UnitPrice.IsNegative() {
			return nil, domain.NewValidationError(op, item.ProductID, "item price must not be negative")
		}
	}

	items, total := domain.SnapshotItems(cart.Items)
	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          ownerID,
		Items:           items,
		ShippingAddress: address,
		TotalAmount:     total,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "create order failed", "user_id", ownerID, "error", err)
		return nil, domain.NewStoreError(op, order.ID, err)
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"user_id", ownerID,
		"items", len(items),
		"total", total.StringFixed(2))
	return order, nil
}

// ListForOwner returns the owner's orders, newest first. No orders yields an empty slice.
func (s *OrderService) ListForOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	const op = "orders.ListForOwner"
	if ownerID == "" {
		return nil, domain.NewUnauthorizedError(op, "owner is required")
	}

	orders, err := s.orders.ListOrdersByUserID(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStoreError(op, ownerID, err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

// ListAll returns every order, newest first, with owners resolved. Orders whose owner
// no longer exists carry a nil Owner.
func (s *OrderService) ListAll(ctx context.Context, caller domain.Caller) ([]*domain.OrderWithOwner, error) {
	const op = "orders.ListAll"
	if err := requireAdmin(op, caller); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, domain.NewStoreError(op, "", err)
	}

	seen := make(map[string]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.UserID]; !ok {
			seen[o.UserID] = struct{}{}
			ids = append(ids, o.UserID)
		}
	}

	owners, err := s.owners.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, domain.NewStoreError(op, "", err)
	}

	result := make([]*domain.OrderWithOwner, 0, len(orders))
	for _, o := range orders {
		entry := &domain.OrderWithOwner{Order: o}
		if owner, ok := owners[o.UserID]; ok {
			entry.Owner = owner.Contact()
		}
		result = append(result, entry)
	}
	return result, nil
}

// SetStatus assigns any known status regardless of the current one.
func (s *OrderService) SetStatus(ctx context.Context, caller domain.Caller, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	const op = "orders.SetStatus"
	if err := requireAdmin(op, caller); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.NewValidationError(op, string(status), "unknown order status")
	}
	if !isOrderID(orderID) {
		return nil, domain.NewNotFoundError(op, orderID, "order not found")
	}

	order, err := s.orders.UpdateOrderStatus(ctx, orderID, status)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domain.NewNotFoundError(op, orderID, "order not found")
	}
	if err != nil {
		return nil, domain.NewStoreError(op, orderID, err)
	}

	s.logger.InfoContext(ctx, "order status changed",
		"order_id", orderID,
		"status", status,
		"by", caller.UserID)
	return order, nil
}

// Get returns one order to its owner or to an operator.
func (s *OrderService) Get(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error) {
	const op = "orders.Get"
	if caller.UserID == "" {
		return nil, domain.NewUnauthorizedError(op, "authentication required")
	}
	if !isOrderID(orderID) {
		return nil, domain.NewNotFoundError(op, orderID, "order not found")
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domain.NewNotFoundError(op, orderID, "order not found")
	}
	if err != nil {
		return nil, domain.NewStoreError(op, orderID, err)
	}

	if order.UserID != caller.UserID && !caller.IsAdmin {
		return nil, domain.NewForbiddenError(op, orderID, "order belongs to another user")
	}
	return order, nil
}

func requireAdmin(op string, caller domain.Caller) error {
	if caller.UserID == "" {
		return domain.NewUnauthorizedError(op, "authentication required")
	}
	if !caller.IsAdmin {
		return domain.NewForbiddenError(op, caller.UserID, "admin access required")
	}
	return nil
}

func isOrderID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
