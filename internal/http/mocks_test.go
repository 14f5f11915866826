package http

import (
	"context"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// --- Mocks ---

type AuthMock struct {
	session *service.Session
	callers map[string]domain.Caller
	err     error
}

func (m *AuthMock) Authenticate(ctx context.Context, token string) (domain.Caller, error) {
	caller, ok := m.callers[token]
	if !ok {
		return domain.Caller{}, domain.NewUnauthorizedError("auth.Authenticate", "invalid token")
	}
	return caller, nil
}

func (m *AuthMock) Register(ctx context.Context, name, email, password string) (*service.Session, error) {
	return m.session, m.err
}

func (m *AuthMock) CreateAdmin(ctx context.Context, name, email, password string) (*service.Session, error) {
	return m.session, m.err
}

func (m *AuthMock) Login(ctx context.Context, email, password string) (*service.Session, error) {
	return m.session, m.err
}

type CartMock struct {
	cart         *domain.Cart
	err          error
	reconcileErr error
	reconciled   *domain.Cart
	reconcileFor string
	added        []domain.CartItem
}

func (m *CartMock) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	return m.cart, nil
}

func (m *CartMock) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	m.added = append(m.added, domain.CartItem{ProductID: productID, Quantity: quantity})
	return m.err
}

func (m *CartMock) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	return m.err
}

func (m *CartMock) RemoveItem(ctx context.Context, userID, productID string) error {
	return m.err
}

func (m *CartMock) ClearCart(ctx context.Context, userID string) error {
	return m.err
}

func (m *CartMock) ReconcileOnLogin(ctx context.Context, local *domain.Cart, ownerID string) (*domain.Cart, error) {
	m.reconciled = local
	m.reconcileFor = ownerID
	if m.reconcileErr != nil {
		return nil, m.reconcileErr
	}
	server := []domain.CartItem{}
	if m.cart != nil {
		server = m.cart.Items
	}
	return &domain.Cart{
		UserID: ownerID,
		Items:  service.MergeItems(service.NormalizeItems(local.Items), server),
	}, nil
}

type OrdersMock struct {
	order  *domain.Order
	orders []*domain.Order
	all    []*domain.OrderWithOwner
	err    error

	gotStatus domain.OrderStatus
	gotCaller domain.Caller
}

func (m *OrdersMock) ListForOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *OrdersMock) ListAll(ctx context.Context, caller domain.Caller) ([]*domain.OrderWithOwner, error) {
	m.gotCaller = caller
	return m.all, m.err
}

func (m *OrdersMock) SetStatus(ctx context.Context, caller domain.Caller, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	m.gotCaller = caller
	m.gotStatus = status
	if m.err != nil {
		return nil, m.err
	}
	updated := *m.order
	updated.Status = status
	return &updated, nil
}

func (m *OrdersMock) Get(ctx context.Context, caller domain.Caller, orderID string) (*domain.Order, error) {
	m.gotCaller = caller
	return m.order, m.err
}

func (m *OrdersMock) Checkout(ctx context.Context, ownerID, shippingAddress string) (*domain.Order, error) {
	return m.order, m.err
}

type CatalogMock struct {
	products []*domain.Product
	err      error
}

func (m *CatalogMock) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m *CatalogMock) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("catalog.GetProduct", id, "product not found")
}

func (m *CatalogMock) CreateProduct(ctx context.Context, caller domain.Caller, name, description string, price decimal.Decimal, imageURL string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Product{ID: "p-new", Name: name, Description: description, Price: price, ImageURL: imageURL}, nil
}

// --- helpers ---

func withCustomer(r *http.Request) *http.Request {
	return r.WithContext(withCaller(r.Context(), domain.Caller{UserID: "user-1"}))
}

func withAdmin(r *http.Request) *http.Request {
	return r.WithContext(withCaller(r.Context(), domain.Caller{UserID: "admin-1", IsAdmin: true}))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
