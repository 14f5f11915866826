package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// OrderStatuses lists every status an operator may assign, in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem is the checkout-time snapshot of a cart item.
type OrderItem struct {
	ProductID string          `bson:"product_id" json:"productId"`
	Name      string          `bson:"name" json:"name"`
	UnitPrice decimal.Decimal `bson:"unit_price" json:"unitPrice"`
	Quantity  int             `bson:"quantity" json:"quantity"`
	ImageRef  string          `bson:"image_ref" json:"imageRef"`
}

// Order is immutable after creation except for Status.
type Order struct {
	ID              string          `bson:"_id" json:"id"`
	UserID          string          `bson:"user_id" json:"userId"`
	Items           []OrderItem     `bson:"items" json:"items"`
	ShippingAddress string          `bson:"shipping_address" json:"shippingAddress"`
	TotalAmount     decimal.Decimal `bson:"total_amount" json:"totalAmount"`
	Status          OrderStatus     `bson:"status" json:"status"`
	CreatedAt       time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updatedAt"`
}

// OwnerContact is the operator-facing view of an order's owner.
type OwnerContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderWithOwner pairs an order with its resolved owner. Owner is nil when the
// account no longer exists.
type OrderWithOwner struct {
	*Order
	Owner *OwnerContact `json:"owner"`
}

// SnapshotItems copies cart items into order items and sums their subtotals.
func SnapshotItems(items []CartItem) ([]OrderItem, decimal.Decimal) {
	snapshot := make([]OrderItem, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		snapshot = append(snapshot, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageRef:  item.ImageRef,
		})
		total = total.Add(item.Subtotal())
	}
	return snapshot, total
}
