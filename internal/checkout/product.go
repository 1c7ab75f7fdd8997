package checkout

import (
	"context"
	"fmt"

	"github.com/wichananm65/storefront-backend/internal/product"
)

// UpdateProduct replaces a product's details and moves the total of every cart
// holding it by the price change. Stock is left untouched.
func (s *Service) UpdateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	var out product.Product
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		// carts before product, matching AddOrUpdateCartLine
		if err := s.Carts.LockByProduct(ctx, p.ID); err != nil {
			return err
		}
		cur, err := s.Products.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if cur.Deleted {
			return fmt.Errorf("product %d: %w", p.ID, product.ErrNotFound)
		}
		if p.CategoryID != cur.CategoryID && s.Categories != nil {
			if err := s.Categories.RequireCategory(ctx, p.CategoryID); err != nil {
				return err
			}
		}

		updated, err := s.Products.Update(ctx, p)
		if err != nil {
			return err
		}
		if delta := updated.Price.Sub(cur.Price); !delta.IsZero() {
			n, err := s.Carts.RepriceProduct(ctx, p.ID, delta)
			if err != nil {
				return err
			}
			s.log.InfoContext(ctx, "carts repriced", "product_id", p.ID, "carts", n, "delta", delta.String())
		}
		out = updated
		return nil
	})
	return out, err
}
