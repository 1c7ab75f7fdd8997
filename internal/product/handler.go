package product

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/category"
)

// Editor applies product edits that have to keep open carts consistent.
type Editor interface {
	UpdateProduct(ctx context.Context, p Product) (Product, error)
}

type Handler struct {
	service *Service
	editor  Editor
}

func NewHandler(service *Service, editor Editor) *Handler {
	return &Handler{service: service, editor: editor}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/api/v1/products", h.getProducts)
	r.Get("/api/v1/products/:id<int>", h.getProduct)
	r.Get("/api/v1/categories/:id<int>/products", h.getCategoryProducts)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	admin := auth.RequireRole(auth.RoleAdmin)
	r.Post("/api/v1/categories/:id<int>/products", admin, h.createProduct)
	r.Put("/api/v1/products/:id<int>", admin, h.updateProduct)
	r.Post("/api/v1/products/:id<int>/stock", admin, h.adjustStock)
	r.Delete("/api/v1/products/:id<int>", admin, h.deleteProduct)
}

type productRequest struct {
	CategoryID  int             `json:"categoryId"`
	Name        string          `json:"productName"`
	Description string          `json:"productDesc"`
	Price       decimal.Decimal `json:"productPrice"`
	Stock       int             `json:"stock"`
}

type stockRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	f := Filter{}
	if v := c.Query("categoryId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid categoryId"})
		}
		f.CategoryID = id
	}
	products, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) getCategoryProducts(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.RequireCategory(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	products, err := h.service.List(c.UserContext(), Filter{CategoryID: id})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

func validateProductPayload(p *productRequest) map[string]string {
	errs := map[string]string{}
	if p.Name == "" {
		errs["productName"] = "productName is required"
	}
	if p.Price.IsNegative() {
		errs["productPrice"] = "productPrice must be >= 0"
	}
	if p.Stock < 0 {
		errs["stock"] = "stock must be >= 0"
	}
	return errs
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	categoryID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	payload := new(productRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	// validate payload and return all validation errors together
	if ves := validateProductPayload(payload); len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ves})
	}

	created, err := h.service.Create(c.UserContext(), Product{
		CategoryID:  categoryID,
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Stock:       payload.Stock,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// updateProduct replaces the editable fields. Stock is left alone; it only
// moves through the stock endpoint and the order workflows.
func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	payload := new(productRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	ves := validateProductPayload(payload)
	if payload.CategoryID <= 0 {
		ves["categoryId"] = "categoryId is required"
	}
	if len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ves})
	}

	updated, err := h.editor.UpdateProduct(c.UserContext(), Product{
		ID:          id,
		CategoryID:  payload.CategoryID,
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) adjustStock(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	payload := new(stockRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p, err := h.service.Restock(c.UserContext(), id, payload.Delta)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	case errors.Is(err, category.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "category not found"})
	case errors.Is(err, ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalidStockDelta):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
