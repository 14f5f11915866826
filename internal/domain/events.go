package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventTypeOrderPlaced = "order.placed"

// OrderedLine is the quantity of one product an order took out of the cart.
type OrderedLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderPlacedEvent is published once an order has been stored.
type OrderPlacedEvent struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       int             `json:"items"`
	Lines       []OrderedLine   `json:"lines"`
	PlacedAt    time.Time       `json:"placed_at"`
}

func NewOrderPlacedEvent(order *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       len(order.Items),
		Lines:       OrderedLines(order),
		PlacedAt:    order.CreatedAt,
	}
}

// OrderedLines sums the order's items per product, keeping first-seen order.
func OrderedLines(order *Order) []OrderedLine {
	lines := make([]OrderedLine, 0, len(order.Items))
	index := make(map[string]int, len(order.Items))
	for _, item := range order.Items {
		if i, ok := index[item.ProductID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, OrderedLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
