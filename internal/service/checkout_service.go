package service

import (
	"context"
	"log/slog"

	"github.com/fjod/storefront/internal/domain"
)

// OrderPlacedHandler reacts to a freshly created order. Implementations clear the
// source cart, either directly or by publishing an event.
type OrderPlacedHandler interface {
	OrderPlaced(ctx context.Context, order *domain.Order) error
}

type CheckoutService struct {
	carts  *CartService
	orders *OrderService
	placed OrderPlacedHandler
	logger *slog.Logger
}

func NewCheckoutService(carts *CartService, orders *OrderService, placed OrderPlacedHandler, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		carts:  carts,
		orders: orders,
		placed: placed,
		logger: logger,
	}
}

// Checkout turns the owner's server cart into an order. A failure to clear the cart
// afterwards is logged and does not undo the order.
func (s *CheckoutService) Checkout(ctx context.Context, ownerID, shippingAddress string) (*domain.Order, error) {
	cart, err := s.carts.GetCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Create(ctx, cart, shippingAddress, ownerID)
	if err != nil {
		return nil, err
	}

	if errPlaced := s.placed.OrderPlaced(ctx, order); errPlaced != nil {
		s.logger.ErrorContext(ctx, "cart clearing after checkout failed",
			"order_id", order.ID,
			"user_id", ownerID,
			"error", errPlaced)
	}
	return order, nil
}

// FallbackPlacedHandler hands placed orders to a primary handler, usually the
// event publisher, and applies them through the fallback when that fails. The
// cart update is idempotent per order, so an event that was delivered despite a
// reported failure is applied once.
type FallbackPlacedHandler struct {
	primary  OrderPlacedHandler
	fallback OrderPlacedHandler
	logger   *slog.Logger
}

func NewFallbackPlacedHandler(primary, fallback OrderPlacedHandler, logger *slog.Logger) *FallbackPlacedHandler {
	return &FallbackPlacedHandler{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (h *FallbackPlacedHandler) OrderPlaced(ctx context.Context, order *domain.Order) error {
	errPrimary := h.primary.OrderPlaced(ctx, order)
	if errPrimary == nil {
		return nil
	}

	h.logger.WarnContext(ctx, "order placed handler failed, applying in-process",
		"order_id", order.ID,
		"user_id", order.UserID,
		"error", errPrimary)
	return h.fallback.OrderPlaced(ctx, order)
}
