package category

import (
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// makeApp injects a jwt.Token into locals when X-User-ID is present so the
// admin routes can be exercised without signing real tokens.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}})
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestCategoryRoutes(t *testing.T) {
	repo := NewInMemoryRepository([]Category{{ID: 1, Name: "Food"}, {ID: 2, Name: "Toys"}})
	app := makeApp(NewHandler(NewService(repo)))

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/categories", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 listing categories, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "Toys") {
		t.Fatalf("list missing category: %s", string(b))
	}

	// customers cannot create categories
	req := httptest.NewRequest("POST", "/api/v1/categories", strings.NewReader(`{"categoryName":"Beds"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "5")
	req.Header.Set("X-Role", "customer")
	res2, _ := app.Test(req)
	if res2.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for customer create, got %d", res2.StatusCode)
	}

	req3 := httptest.NewRequest("POST", "/api/v1/categories", strings.NewReader(`{"categoryName":"Beds"}`))
	req3.Header.Set("Content-Type", "application/json")
	req3.Header.Set("X-User-ID", "1")
	req3.Header.Set("X-Role", "admin")
	res3, _ := app.Test(req3)
	if res3.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201 for admin create, got %d", res3.StatusCode)
	}

	req4 := httptest.NewRequest("POST", "/api/v1/categories", strings.NewReader(`{}`))
	req4.Header.Set("Content-Type", "application/json")
	req4.Header.Set("X-User-ID", "1")
	req4.Header.Set("X-Role", "admin")
	res4, _ := app.Test(req4)
	if res4.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", res4.StatusCode)
	}
}

func TestCategorySoftDelete(t *testing.T) {
	repo := NewInMemoryRepository([]Category{{ID: 1, Name: "Food"}})
	app := makeApp(NewHandler(NewService(repo)))

	req := httptest.NewRequest("DELETE", "/api/v1/categories/1", nil)
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-Role", "admin")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", res.StatusCode)
	}

	res2, _ := app.Test(httptest.NewRequest("GET", "/api/v1/categories/1", nil))
	if res2.StatusCode != fiber.StatusNotFound {
		t.Fatalf("deleted category should be hidden, got %d", res2.StatusCode)
	}

	// the row is kept for products that still reference it
	all, _ := repo.List(t.Context(), true)
	if len(all) != 1 || !all[0].Deleted {
		t.Fatalf("expected soft deleted row to remain, got %+v", all)
	}
}
