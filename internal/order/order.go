package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrAlreadyCanceled = errors.New("order already canceled")

	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidShippingFee = errors.New("shipping fee must not be negative")
)

// Order is a placed purchase. Totals are fixed when the order is created;
// cancellation only flips Accepted.
type Order struct {
	ID              int             `json:"orderId"`
	UserID          int             `json:"userId"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	Total           decimal.Decimal `json:"total"`
	Accepted        bool            `json:"accepted"`
	ShippingAddress string          `json:"shippingAddress"`
	Note            string          `json:"note"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Lines           []Line          `json:"lines"`
}

// Line is a snapshot of a cart line taken at checkout.
type Line struct {
	ID        int             `json:"lineId"`
	OrderID   int             `json:"orderId"`
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Accepted  bool            `json:"accepted"`
}

// PlaceInput carries the checkout metadata supplied by the caller.
type PlaceInput struct {
	// ShippingFee overrides the configured default when set.
	ShippingFee *decimal.Decimal `json:"shippingFee"`
	AddressID   int              `json:"addressId"`
	Note        string           `json:"note"`
}
