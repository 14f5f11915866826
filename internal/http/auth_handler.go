package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type AuthHandler struct {
	auth    AuthAPI
	carts   CartAPI
	timeout time.Duration
}

func NewAuthHandler(auth AuthAPI, carts CartAPI, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		carts:   carts,
		timeout: timeout,
	}
}

type RegisterRequestDTO struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequestDTO struct {
	Email     string         `json:"email" validate:"required,email"`
	Password  string         `json:"password" validate:"required"`
	LocalCart []LocalItemDTO `json:"localCart" validate:"omitempty,max=200,dive"`
}

// LocalItemDTO is a line of the anonymous cart a browser held before login.
type LocalItemDTO struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"gte=0"`
	Quantity  int             `json:"quantity" validate:"min=1,max=99"`
	ImageRef  string          `json:"imageRef"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
	Cart  *domain.Cart `json:"cart,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.auth.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{Token: session.Token, User: session.User})
}

func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.auth.CreateAdmin(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{Token: session.Token, User: session.User})
}

// Login authenticates and folds the anonymous cart into the account's server
// cart. The response carries the merged cart so the client can drop its copy.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	merged, err := h.carts.ReconcileOnLogin(ctx, localCart(req.LocalCart), session.User.ID)
	if err != nil {
		slog.WarnContext(r.Context(), "cart reconciliation failed on login",
			"user_id", session.User.ID,
			"local_items", len(req.LocalCart),
			"error", err)
		if errors.Is(err, domain.ErrValidation) {
			handleError(w, r, err)
			return
		}
		details := "unknown"
		if kind := domain.KindOf(err); kind != nil {
			details = kind.Error()
		}
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "cart reconciliation failed",
			Code:    "reconcile_failed",
			Details: details,
		})
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{
		Token: session.Token,
		User:  session.User,
		Cart:  merged,
	})
}

func localCart(items []LocalItemDTO) *domain.Cart {
	cart := &domain.Cart{Items: make([]domain.CartItem, 0, len(items))}
	for _, item := range items {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageRef:  item.ImageRef,
		})
	}
	return cart
}
