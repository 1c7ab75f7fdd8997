package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// fakeWorkflow writes orders straight into the repository.
type fakeWorkflow struct {
	repo   *InMemoryRepository
	err    error
	lastIn PlaceInput
}

func (w *fakeWorkflow) PlaceOrder(ctx context.Context, userID int, in PlaceInput) (Order, error) {
	if w.err != nil {
		return Order{}, w.err
	}
	w.lastIn = in
	fee := decimal.Zero
	if in.ShippingFee != nil {
		fee = *in.ShippingFee
	}
	o, _ := w.repo.Create(ctx, Order{UserID: userID, Subtotal: decimal.NewFromInt(10), ShippingFee: fee, Total: fee.Add(decimal.NewFromInt(10)), Accepted: true, Note: in.Note})
	l, _ := w.repo.CreateLine(ctx, Line{OrderID: o.ID, ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10), Accepted: true})
	o.Lines = []Line{l}
	return o, nil
}

func (w *fakeWorkflow) CancelOrder(ctx context.Context, orderID int, p auth.Principal) (Order, error) {
	o, err := w.repo.GetByID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !p.CanAccess(o.UserID) {
		return Order{}, auth.ErrForbidden
	}
	return w.repo.Cancel(ctx, orderID)
}

func newTestApp() (*fiber.App, *fakeWorkflow) {
	repo := NewInMemoryRepository()
	wf := &fakeWorkflow{repo: repo}
	h := NewHandler(NewService(repo), wf)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app, wf
}

func as(userID int, role, method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.Itoa(userID))
	req.Header.Set("X-Role", role)
	return req
}

func TestPlaceOrder(t *testing.T) {
	app, wf := newTestApp()

	res, _ := app.Test(as(3, "customer", "POST", "/api/v1/orders", `{"shippingFee":"3","note":"leave at door"}`))
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	var o Order
	b, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(b, &o); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if o.UserID != 3 || !o.Total.Equal(decimal.NewFromInt(13)) || len(o.Lines) != 1 {
		t.Fatalf("unexpected order %+v", o)
	}
	if wf.lastIn.Note != "leave at door" {
		t.Fatalf("expected note passed through, got %q", wf.lastIn.Note)
	}

	// empty body uses defaults
	res2, _ := app.Test(as(3, "customer", "POST", "/api/v1/orders?return=all", ""))
	if res2.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res2.StatusCode)
	}
	var all []Order
	b2, _ := io.ReadAll(res2.Body)
	if err := json.Unmarshal(b2, &all); err != nil || len(all) != 2 {
		t.Fatalf("expected the full order list, got %s", b2)
	}
}

func TestPlaceOrder_Errors(t *testing.T) {
	app, wf := newTestApp()

	res, _ := app.Test(as(3, "customer", "POST", "/api/v1/orders", `{"shippingFee":"-1"}`))
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for negative fee, got %d", res.StatusCode)
	}

	cases := []struct {
		err  error
		want int
	}{
		{ErrEmptyCart, fiber.StatusBadRequest},
		{product.ErrInsufficientStock, fiber.StatusConflict},
		{product.ErrNotFound, fiber.StatusNotFound},
	}
	for _, tc := range cases {
		wf.err = tc.err
		res, _ := app.Test(as(3, "customer", "POST", "/api/v1/orders", `{}`))
		if res.StatusCode != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, res.StatusCode)
		}
	}

	res2, _ := app.Test(httptest.NewRequest("POST", "/api/v1/orders", nil))
	if res2.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res2.StatusCode)
	}
}

func TestOrderAccess(t *testing.T) {
	app, _ := newTestApp()
	app.Test(as(3, "customer", "POST", "/api/v1/orders", `{}`))

	cases := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"owner", as(3, "customer", "GET", "/api/v1/orders/1", ""), fiber.StatusOK},
		{"owner lines", as(3, "customer", "GET", "/api/v1/orders/1/lines", ""), fiber.StatusOK},
		{"stranger", as(4, "customer", "GET", "/api/v1/orders/1", ""), fiber.StatusForbidden},
		{"admin", as(9, "admin", "GET", "/api/v1/orders/1", ""), fiber.StatusOK},
		{"missing", as(3, "customer", "GET", "/api/v1/orders/42", ""), fiber.StatusNotFound},
		{"user orders by owner", as(3, "customer", "GET", "/api/v1/users/3/orders", ""), fiber.StatusOK},
		{"user orders by stranger", as(4, "customer", "GET", "/api/v1/users/3/orders", ""), fiber.StatusForbidden},
		{"user orders by admin", as(9, "admin", "GET", "/api/v1/users/3/orders", ""), fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, _ := app.Test(tc.req)
			if res.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.StatusCode)
			}
		})
	}
}

func TestCancelOrder(t *testing.T) {
	app, _ := newTestApp()
	app.Test(as(3, "customer", "POST", "/api/v1/orders", `{}`))

	res, _ := app.Test(as(4, "customer", "POST", "/api/v1/orders/1/cancel", ""))
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.StatusCode)
	}

	res2, _ := app.Test(as(3, "customer", "POST", "/api/v1/orders/1/cancel", ""))
	if res2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res2.StatusCode)
	}
	var o Order
	b, _ := io.ReadAll(res2.Body)
	if err := json.Unmarshal(b, &o); err != nil || o.Accepted {
		t.Fatalf("expected canceled order, got %s", b)
	}

	res3, _ := app.Test(as(3, "customer", "POST", "/api/v1/orders/1/cancel", ""))
	if res3.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d", res3.StatusCode)
	}
}
