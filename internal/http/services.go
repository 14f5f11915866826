package http

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Caller, error)
}

type AuthAPI interface {
	Authenticator
	Register(ctx context.Context, name, email, password string) (*service.Session, error)
	CreateAdmin(ctx context.Context, name, email, password string) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
}

type CartAPI interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
	ReconcileOnLogin(ctx context.Context, local *domain.Cart, ownerID string) (*domain.Cart, error)
}

type OrderAPI interface {
	ListForOwner(ctx context.Context, ownerID string) ([]*domain.Order, error)
	ListAll(ctx context.Context, caller domain.Caller) ([]*domain.OrderWithOwner, error)
	SetStatus(ctx context.Context, caller domain.Caller, orderID string, status domain.OrderStatus) (*domain.Order, error)
	Get(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error)
}

type CheckoutAPI interface {
	Checkout(ctx context.Context, ownerID, shippingAddress string) (*domain.Order, error)
}

type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, caller domain.Caller, name, description string, price decimal.Decimal, imageURL string) (*domain.Product, error)
}
