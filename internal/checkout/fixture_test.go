package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/infrastructure/database/inmemory"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type fixture struct {
	svc       *Service
	products  *product.InMemoryRepository
	carts     *cart.InMemoryRepository
	orders    *order.InMemoryRepository
	addresses *address.InMemoryRepository
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFixture(t *testing.T, seed []product.Product, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		products: product.NewInMemoryRepository(seed),
		carts:    cart.NewInMemoryRepository(nil, nil),
		orders:   order.NewInMemoryRepository(),
		addresses: address.NewInMemoryRepository([]address.Address{
			{AddressID: 1, UserID: 1, AddressName: "Home", AddressDesc: "12 Main St", Phone: "555-0100"},
		}),
	}
	f.svc = NewService(Deps{
		Tx:        inmemory.NewTransactor(f.products, f.carts, f.orders),
		Carts:     f.carts,
		Products:  f.products,
		Orders:    f.orders,
		Addresses: f.addresses,
	}, opts...)
	return f
}

// cartFor returns the user's cart id, creating the cart when needed.
func (f *fixture) cartFor(t *testing.T, userID int) int {
	t.Helper()
	c, err := f.carts.Ensure(context.Background(), userID)
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) stock(t *testing.T, productID int) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

// expectedTotal recomputes Σ quantity × price from the stored lines.
func (f *fixture) expectedTotal(t *testing.T, cartID int) decimal.Decimal {
	t.Helper()
	ctx := context.Background()
	lines, err := f.carts.Lines(ctx, cartID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, l := range lines {
		p, err := f.products.GetByID(ctx, l.ProductID)
		require.NoError(t, err)
		sum = sum.Add(lineAmount(p.Price, l.Quantity))
	}
	return sum
}

func (f *fixture) storedTotal(t *testing.T, cartID int) decimal.Decimal {
	t.Helper()
	c, err := f.carts.GetByID(context.Background(), cartID)
	require.NoError(t, err)
	return c.Total
}
