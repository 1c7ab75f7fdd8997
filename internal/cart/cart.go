package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/product"
)

var (
	ErrNotFound     = errors.New("cart not found")
	ErrLineNotFound = errors.New("cart line not found")

	// ErrInvalidQuantity rejects line quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)

// Cart is a user's single shopping cart. Total caches the sum of
// quantity × price over its lines and is kept current on every line change.
type Cart struct {
	ID        int             `json:"cartId"`
	UserID    int             `json:"userId"`
	Total     decimal.Decimal `json:"total"`
	Lines     []Line          `json:"lines"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Line holds one product of a cart. Product and LineTotal are only set on
// enriched reads.
type Line struct {
	ID        int              `json:"lineId"`
	CartID    int              `json:"cartId"`
	ProductID int              `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
	LineTotal *decimal.Decimal `json:"lineTotal,omitempty"`
}
