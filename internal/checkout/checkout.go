// Package checkout runs the workflows that write to more than one store inside
// a single transaction.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
)

var (
	ErrInvalidQuantity    = cart.ErrInvalidQuantity
	ErrEmptyCart          = order.ErrEmptyCart
	ErrInvalidShippingFee = order.ErrInvalidShippingFee
)

// Transactor runs fn inside one storage transaction; nested calls join it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AddressLookup resolves an address owned by a user.
type AddressLookup interface {
	Get(ctx context.Context, userID, addressID int) (address.Address, error)
}

// CategoryChecker fails when a category is missing or deleted.
type CategoryChecker interface {
	RequireCategory(ctx context.Context, id int) error
}

// StockPolicy decides what happens when an order asks for more than is in stock.
type StockPolicy int

const (
	// RejectShortfall fails the checkout with product.ErrInsufficientStock.
	RejectShortfall StockPolicy = iota
	// Backorder lets stock go negative.
	Backorder
)

func ParseStockPolicy(s string) (StockPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectShortfall, nil
	case "backorder":
		return Backorder, nil
	default:
		return RejectShortfall, fmt.Errorf("unknown stock policy %q", s)
	}
}

func (p StockPolicy) String() string {
	if p == Backorder {
		return "backorder"
	}
	return "reject"
}

// Deps are the stores the workflows operate on. Every repository must honour
// the transaction carried by the context Tx hands to its callback.
type Deps struct {
	Tx         Transactor
	Carts      cart.Repository
	Products   product.Repository
	Orders     order.Repository
	Addresses  AddressLookup
	Categories CategoryChecker
}

type Option func(*Service)

func WithStockPolicy(p StockPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithDefaultShippingFee sets the fee charged when PlaceInput leaves it unset.
func WithDefaultShippingFee(fee decimal.Decimal) Option {
	return func(s *Service) { s.defaultFee = fee }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

type Service struct {
	Deps
	policy     StockPolicy
	defaultFee decimal.Decimal
	log        *slog.Logger
}

func NewService(d Deps, opts ...Option) *Service {
	s := &Service{
		Deps:       d,
		policy:     RejectShortfall,
		defaultFee: decimal.Zero,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func lineAmount(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
