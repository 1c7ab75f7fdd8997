package order

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// Workflow places and cancels orders together with their stock and cart effects.
type Workflow interface {
	PlaceOrder(ctx context.Context, userID int, in PlaceInput) (Order, error)
	CancelOrder(ctx context.Context, orderID int, p auth.Principal) (Order, error)
}

type Handler struct {
	service  *Service
	workflow Workflow
}

func NewHandler(s *Service, w Workflow) *Handler {
	return &Handler{service: s, workflow: w}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/api/v1/orders", h.placeOrder)
	r.Get("/api/v1/orders", h.listOwnOrders)
	r.Get("/api/v1/orders/:id<int>", h.getOrder)
	r.Get("/api/v1/orders/:id<int>/lines", h.getOrderLines)
	r.Post("/api/v1/orders/:id<int>/cancel", h.cancelOrder)
	r.Get("/api/v1/users/:id<int>/orders", h.listUserOrders)
}

// placeOrder checks out the caller's cart. With ?return=all the response is
// the caller's full order list instead of the new order.
func (h *Handler) placeOrder(c *fiber.Ctx) error {
	p, err := auth.FromCtx(c)
	if err != nil {
		return writeError(c, err)
	}

	in := PlaceInput{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
	}
	ves := map[string]string{}
	if in.ShippingFee != nil && in.ShippingFee.IsNegative() {
		ves["shippingFee"] = "shippingFee must not be negative"
	}
	if in.AddressID < 0 {
		ves["addressId"] = "invalid addressId"
	}
	if len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ves})
	}

	created, err := h.workflow.PlaceOrder(c.UserContext(), p.UserID, in)
	if err != nil {
		return writeError(c, err)
	}
	if c.Query("return") == "all" {
		orders, err := h.service.ListByUser(c.UserContext(), p.UserID)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(orders)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) listOwnOrders(c *fiber.Ctx) error {
	p, err := auth.FromCtx(c)
	if err != nil {
		return writeError(c, err)
	}
	orders, err := h.service.ListByUser(c.UserContext(), p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) listUserOrders(c *fiber.Ctx) error {
	p, err := auth.FromCtx(c)
	if err != nil {
		return writeError(c, err)
	}
	userID, _ := strconv.Atoi(c.Params("id"))
	if !p.CanAccess(userID) {
		return writeError(c, auth.ErrForbidden)
	}
	orders, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	o, err := h.accessibleOrder(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) getOrderLines(c *fiber.Ctx) error {
	o, err := h.accessibleOrder(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(o.Lines)
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	p, err := auth.FromCtx(c)
	if err != nil {
		return writeError(c, err)
	}
	id, _ := strconv.Atoi(c.Params("id"))
	canceled, err := h.workflow.CancelOrder(c.UserContext(), id, p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(canceled)
}

// accessibleOrder loads the order in :id and checks the caller owns it or is an admin.
func (h *Handler) accessibleOrder(c *fiber.Ctx) (Order, error) {
	p, err := auth.FromCtx(c)
	if err != nil {
		return Order{}, err
	}
	id, _ := strconv.Atoi(c.Params("id"))
	o, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return Order{}, err
	}
	if !p.CanAccess(o.UserID) {
		return Order{}, auth.ErrForbidden
	}
	return o, nil
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, fiber.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	case errors.Is(err, auth.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden"})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
	case errors.Is(err, cart.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "cart not found"})
	case errors.Is(err, address.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "address not found"})
	case errors.Is(err, product.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrAlreadyCanceled), errors.Is(err, product.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidShippingFee):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
