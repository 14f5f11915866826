package service

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

// ReconcileOnLogin merges a locally held cart into the owner's server cart and
// persists the result as the owner's cart of record.
//
// The server cart is read fresh from the store on every call, so retrying after a
// failed persist starts from the stored state. Concurrent logins for the same owner
// are not coordinated: the last write wins.
func (s *CartService) ReconcileOnLogin(ctx context.Context, local *domain.Cart, ownerID string) (*domain.Cart, error) {
	const op = "carts.Reconcile"
	if ownerID == "" {
		return nil, domain.NewUnauthorizedError(op, "owner is required")
	}

	var localItems []domain.CartItem
	if local != nil {
		if !local.IsLocal() && local.UserID != ownerID {
			return nil, domain.NewValidationError(op, local.UserID, "cart belongs to another owner")
		}
		localItems = local.Items
	}
	if err := validateLocalItems(op, localItems); err != nil {
		return nil, err
	}

	server, err := s.repo.GetCart(ctx, ownerID)
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		server = &domain.Cart{UserID: ownerID}
	case err != nil:
		return nil, domain.NewStoreError(op, ownerID, err)
	}

	merged := &domain.Cart{
		ID:        server.ID,
		UserID:    ownerID,
		Items:     MergeItems(NormalizeItems(localItems), NormalizeItems(server.Items)),
		CreatedAt: server.CreatedAt,
	}
	if err := s.repo.UpsertCart(ctx, merged); err != nil {
		s.logger.ErrorContext(ctx, "persist reconciled cart failed", "user_id", ownerID, "error", err)
		return nil, domain.NewStoreError(op, ownerID, err)
	}

	s.invalidateCache(ownerID)
	s.logger.InfoContext(ctx, "cart reconciled",
		"user_id", ownerID,
		"local_items", len(localItems),
		"server_items", len(server.Items),
		"merged_items", len(merged.Items))
	return merged, nil
}

// MergeItems keys both sides by product id. Local lines come first, carrying the
// local fields with the server quantity added; server-only lines follow unchanged.
// Neither input is modified.
func MergeItems(local, server []domain.CartItem) []domain.CartItem {
	serverQty := make(map[string]int, len(server))
	for _, item := range server {
		serverQty[item.ProductID] += item.Quantity
	}

	merged := make([]domain.CartItem, 0, len(local)+len(server))
	inLocal := make(map[string]struct{}, len(local))
	for _, item := range local {
		item.Quantity += serverQty[item.ProductID]
		merged = append(merged, item)
		inLocal[item.ProductID] = struct{}{}
	}

	for _, item := range server {
		if _, ok := inLocal[item.ProductID]; ok {
			continue
		}
		merged = append(merged, item)
	}
	return merged
}

// NormalizeItems folds repeated product ids into their first line by summing quantities.
func NormalizeItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}

func validateLocalItems(op string, items []domain.CartItem) error {
	for _, item := range items {
		if item.ProductID == "" {
			return domain.NewValidationError(op, "", "local cart item is missing productId")
		}
		if item.Quantity < MinItemQuantity {
			return domain.NewValidationError(op, item.ProductID, "local cart item quantity must be at least 1")
		}
		if item.UnitPrice.IsNegative() {
			return domain.NewValidationError(op, item.ProductID, "local cart item has a negative price")
		}
	}
	return nil
}
