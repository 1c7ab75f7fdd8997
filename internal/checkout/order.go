package checkout

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// PlaceOrder turns the user's cart into an order. The order total is the cart
// total plus the shipping fee, the cart is emptied and each line's quantity is
// taken off stock. Nothing is kept if any step fails.
func (s *Service) PlaceOrder(ctx context.Context, userID int, in order.PlaceInput) (order.Order, error) {
	fee := s.defaultFee
	if in.ShippingFee != nil {
		fee = *in.ShippingFee
	}
	if fee.IsNegative() {
		return order.Order{}, ErrInvalidShippingFee
	}

	var out order.Order
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.Carts.LockByUser(ctx, userID)
		if err != nil {
			return err
		}

		shipTo := ""
		if in.AddressID != 0 {
			a, err := s.Addresses.Get(ctx, userID, in.AddressID)
			if err != nil {
				return err
			}
			shipTo = a.Label()
		}

		o, err := s.Orders.Create(ctx, order.Order{
			UserID:          userID,
			Subtotal:        c.Total,
			ShippingFee:     fee,
			Total:           c.Total.Add(fee),
			Accepted:        true,
			ShippingAddress: shipTo,
			Note:            in.Note,
		})
		if err != nil {
			return err
		}

		lines, err := s.Carts.Lines(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		if err := s.clearLocked(ctx, c.ID); err != nil {
			return err
		}

		o.Lines, err = s.takeStock(ctx, o.ID, lines)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		s.log.WarnContext(ctx, "place order failed", "user_id", userID, "error", err)
		return order.Order{}, err
	}

	s.log.InfoContext(ctx, "order placed",
		"order_id", out.ID, "user_id", userID, "lines", len(out.Lines), "total", out.Total.StringFixed(2))
	return out, nil
}

// takeStock decrements stock and records an order line per cart line, in
// product id order so concurrent checkouts lock rows in the same sequence.
func (s *Service) takeStock(ctx context.Context, orderID int, lines []cart.Line) ([]order.Line, error) {
	lines = slices.Clone(lines)
	slices.SortFunc(lines, func(a, b cart.Line) int { return cmp.Compare(a.ProductID, b.ProductID) })

	out := make([]order.Line, 0, len(lines))
	for _, l := range lines {
		p, err := s.Products.GetForUpdate(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p.Deleted {
			return nil, fmt.Errorf("product %d: %w", l.ProductID, product.ErrNotFound)
		}
		if _, err := s.Products.AdjustStock(ctx, l.ProductID, -l.Quantity, s.policy == Backorder); err != nil {
			return nil, err
		}
		ol, err := s.Orders.CreateLine(ctx, order.Line{
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Accepted:  true,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, ol)
	}
	return out, nil
}

// CancelOrder cancels an accepted order and puts its quantities back in stock.
// Only the owner or an admin may cancel; a second cancel fails with
// order.ErrAlreadyCanceled and changes nothing.
func (s *Service) CancelOrder(ctx context.Context, orderID int, p auth.Principal) (order.Order, error) {
	var out order.Order
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !p.CanAccess(o.UserID) {
			return auth.ErrForbidden
		}

		o, err = s.Orders.Cancel(ctx, orderID)
		if err != nil {
			return err
		}
		if _, err := s.Orders.CancelLines(ctx, orderID); err != nil {
			return err
		}
		o.Lines, err = s.Orders.Lines(ctx, orderID)
		if err != nil {
			return err
		}
		for _, l := range o.Lines {
			if _, err := s.Products.AdjustStock(ctx, l.ProductID, l.Quantity, true); err != nil {
				return err
			}
		}
		out = o
		return nil
	})
	if err != nil {
		s.log.WarnContext(ctx, "cancel order failed", "order_id", orderID, "user_id", p.UserID, "error", err)
		return order.Order{}, err
	}

	s.log.InfoContext(ctx, "order canceled", "order_id", out.ID, "user_id", out.UserID, "lines", len(out.Lines))
	return out, nil
}
