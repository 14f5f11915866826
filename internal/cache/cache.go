package cache

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

// ErrCacheMiss means the owner has no cached cart; callers fall back to the store.
var ErrCacheMiss = errors.New("cache miss")

// CartCache holds server carts keyed by owner id. Every cart mutation deletes the
// owner's entry.
type CartCache interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	Set(ctx context.Context, ownerID string, cart *domain.Cart) error
	Delete(ctx context.Context, ownerID string) error
}
