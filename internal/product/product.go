package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product maps to the `product` table. Deleted products are hidden from the
// catalog but still referenced by existing cart and order lines.
type Product struct {
	ID          int             `json:"productId"`
	CategoryID  int             `json:"categoryId"`
	Name        string          `json:"productName"`
	Description string          `json:"productDesc"`
	Price       decimal.Decimal `json:"productPrice"`
	Stock       int             `json:"stock"`
	Deleted     bool            `json:"isDeleted"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Filter narrows List. Zero CategoryID matches every category.
type Filter struct {
	CategoryID     int
	IncludeDeleted bool
}
