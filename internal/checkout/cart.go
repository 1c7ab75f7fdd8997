package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// AddOrUpdateCartLine sets the quantity of productID in the cart. A product
// already in the cart has its quantity replaced, not added to. The cached
// total moves by the change in line value in the same transaction.
func (s *Service) AddOrUpdateCartLine(ctx context.Context, cartID, productID, quantity int) (cart.Cart, error) {
	if quantity <= 0 {
		return cart.Cart{}, ErrInvalidQuantity
	}

	var out cart.Cart
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Carts.Lock(ctx, cartID); err != nil {
			return err
		}
		p, err := s.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p.Deleted {
			return fmt.Errorf("product %d: %w", productID, product.ErrNotFound)
		}

		line, err := s.Carts.FindLine(ctx, cartID, productID)
		switch {
		case errors.Is(err, cart.ErrLineNotFound):
			if _, err := s.Carts.AdjustTotal(ctx, cartID, lineAmount(p.Price, quantity)); err != nil {
				return err
			}
			if _, err := s.Carts.CreateLine(ctx, cart.Line{CartID: cartID, ProductID: productID, Quantity: quantity}); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if _, err := s.Carts.AdjustTotal(ctx, cartID, lineAmount(p.Price, quantity-line.Quantity)); err != nil {
				return err
			}
			if err := s.Carts.UpdateLineQuantity(ctx, line.ID, quantity); err != nil {
				return err
			}
		}

		out, err = s.loadCart(ctx, cartID)
		return err
	})
	if err != nil {
		return cart.Cart{}, err
	}
	return out, nil
}

// RemoveCartLine drops productID from the cart and takes its value off the total.
func (s *Service) RemoveCartLine(ctx context.Context, cartID, productID int) (cart.Cart, error) {
	var out cart.Cart
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Carts.Lock(ctx, cartID); err != nil {
			return err
		}
		line, err := s.Carts.FindLine(ctx, cartID, productID)
		if err != nil {
			return err
		}
		// deleted products keep their price, so their lines can still be removed
		p, err := s.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if _, err := s.Carts.AdjustTotal(ctx, cartID, lineAmount(p.Price, line.Quantity).Neg()); err != nil {
			return err
		}
		if err := s.Carts.DeleteLine(ctx, line.ID); err != nil {
			return err
		}

		out, err = s.loadCart(ctx, cartID)
		return err
	})
	if err != nil {
		return cart.Cart{}, err
	}
	return out, nil
}

// ClearCart removes every line and zeroes the total.
func (s *Service) ClearCart(ctx context.Context, cartID int) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Carts.Lock(ctx, cartID); err != nil {
			return err
		}
		return s.clearLocked(ctx, cartID)
	})
}

// clearLocked expects the cart row to be locked by the caller.
func (s *Service) clearLocked(ctx context.Context, cartID int) error {
	if _, err := s.Carts.DeleteLines(ctx, cartID); err != nil {
		return err
	}
	return s.Carts.SetTotal(ctx, cartID, decimal.Zero)
}

func (s *Service) loadCart(ctx context.Context, cartID int) (cart.Cart, error) {
	c, err := s.Carts.GetByID(ctx, cartID)
	if err != nil {
		return cart.Cart{}, err
	}
	c.Lines, err = s.Carts.Lines(ctx, cartID)
	if err != nil {
		return cart.Cart{}, err
	}
	return c, nil
}
