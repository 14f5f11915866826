package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a per-user (or, with an empty UserID, locally held) collection of items pending checkout.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"user_id" json:"userId,omitempty"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`

	// AppliedOrders holds the most recent orders already taken out of this cart.
	AppliedOrders []string `bson:"applied_orders,omitempty" json:"-"`
}

// CartItem is keyed by ProductID; a cart holds at most one item per product.
type CartItem struct {
	ProductID string          `bson:"product_id" json:"productId"`
	Name      string          `bson:"name" json:"name"`
	UnitPrice decimal.Decimal `bson:"unit_price" json:"unitPrice"`
	Quantity  int             `bson:"quantity" json:"quantity"`
	ImageRef  string          `bson:"image_ref" json:"imageRef"`
	AddedAt   time.Time       `bson:"added_at" json:"addedAt"`
}

// IsLocal reports whether the cart is held by an anonymous session.
func (c *Cart) IsLocal() bool {
	return c.UserID == ""
}

// Subtotal is unitPrice × quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
