package cart

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// Workflow performs the line mutations that have to keep the cart total consistent.
type Workflow interface {
	AddOrUpdateCartLine(ctx context.Context, cartID, productID, quantity int) (Cart, error)
	RemoveCartLine(ctx context.Context, cartID, productID int) (Cart, error)
	ClearCart(ctx context.Context, cartID int) error
}

// Handler exposes the caller's own cart.
type Handler struct {
	service  *Service
	workflow Workflow
}

func NewHandler(s *Service, w Workflow) *Handler {
	return &Handler{service: s, workflow: w}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/api/v1/cart", h.getCart)
	r.Put("/api/v1/cart/lines", h.putLine)
	r.Delete("/api/v1/cart/lines/:productId<int>", h.deleteLine)
	r.Delete("/api/v1/cart", h.clearCart)
}

type lineRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	cart, err := h.ownCart(c)
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, cart)
}

// putLine sets the quantity of a product in the cart, adding the line when missing.
func (h *Handler) putLine(c *fiber.Ctx) error {
	payload := new(lineRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	ves := map[string]string{}
	if payload.ProductID <= 0 {
		ves["productId"] = "invalid productId"
	}
	if payload.Quantity <= 0 {
		ves["quantity"] = "quantity must be greater than zero"
	}
	if len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ves})
	}

	cart, err := h.ownCart(c)
	if err != nil {
		return writeError(c, err)
	}
	updated, err := h.workflow.AddOrUpdateCartLine(c.UserContext(), cart.ID, payload.ProductID, payload.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, updated)
}

func (h *Handler) deleteLine(c *fiber.Ctx) error {
	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	cart, err := h.ownCart(c)
	if err != nil {
		return writeError(c, err)
	}
	updated, err := h.workflow.RemoveCartLine(c.UserContext(), cart.ID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, updated)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	cart, err := h.ownCart(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.workflow.ClearCart(c.UserContext(), cart.ID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ownCart(c *fiber.Ctx) (Cart, error) {
	p, err := auth.FromCtx(c)
	if err != nil {
		return Cart{}, err
	}
	return h.service.ForUser(c.UserContext(), p.UserID)
}

func (h *Handler) respond(c *fiber.Ctx, cart Cart) error {
	enriched, err := h.service.Enrich(c.UserContext(), cart)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(enriched)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, fiber.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	case errors.Is(err, ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, product.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	case errors.Is(err, ErrLineNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product is not in the cart"})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "cart not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
