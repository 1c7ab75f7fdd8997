package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/storefront-backend/internal/auth"
)

// helper to build an app with a simple "bootstrap" middleware that injects a
// jwt.Token into locals when the X-User-ID header is provided. This avoids
// pulling in the full jwt middleware and keeps tests lightweight.
func makeAppWithUserHandler(uHandler *Handler) *fiber.App {
	app := fiber.New()
	uHandler.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}
				c.Locals("user", &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	})
	uHandler.RegisterProtectedRoutes(app)
	return app
}

func TestProfileRoute_RegistrationAndAuth(t *testing.T) {
	seed := []User{{ID: 7, Email: "j@example.com", Password: "$2a$hash", FirstName: "Jenny", LastName: "Test", Phone: "123", Role: auth.RoleCustomer}}
	repo := NewInMemoryRepository(seed)
	app := makeAppWithUserHandler(NewHandler(NewService(repo), "secret"))

	// route registration check
	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	if !routes["/api/v1/profile"] {
		t.Fatalf("expected route '/api/v1/profile' to be registered")
	}

	// unauthorized request should yield 401
	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/profile", nil))
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected unauthorized status, got %d", res.StatusCode)
	}

	req2 := httptest.NewRequest("GET", "/api/v1/profile", nil)
	req2.Header.Set("X-User-ID", "7")
	res2, err := app.Test(req2)
	if err != nil {
		t.Fatalf("authorized profile request failed: %v", err)
	}
	if res2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 OK for authorized profile, got %d", res2.StatusCode)
	}

	// read body and ensure returned user matches and password is blank
	b, _ := io.ReadAll(res2.Body)
	body := string(b)
	if !strings.Contains(body, "j@example.com") {
		t.Fatalf("response body does not contain expected email, got %s", body)
	}
	if strings.Contains(body, "password") {
		t.Fatalf("response body should not expose password field")
	}
}

func TestSignUpSignIn(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := makeAppWithUserHandler(NewHandler(NewService(repo), "secret"))

	signUp := `{"email":"new@example.com","password":"longenough","firstName":"New","lastName":"User","role":"admin"}`
	req := httptest.NewRequest("POST", "/api/v1/sign-up", strings.NewReader(signUp))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201 on sign-up, got %d", res.StatusCode)
	}

	// the role field in the payload is ignored
	stored, _ := repo.GetByEmail(context.Background(), "new@example.com")
	if stored.Role != auth.RoleCustomer {
		t.Fatalf("sign-up must create customers, got %q", stored.Role)
	}

	dup := httptest.NewRequest("POST", "/api/v1/sign-up", strings.NewReader(signUp))
	dup.Header.Set("Content-Type", "application/json")
	resDup, _ := app.Test(dup)
	if resDup.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resDup.StatusCode)
	}

	login := httptest.NewRequest("POST", "/api/v1/sign-in", strings.NewReader(`{"email":"new@example.com","password":"longenough"}`))
	login.Header.Set("Content-Type", "application/json")
	res2, _ := app.Test(login)
	if res2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on sign-in, got %d", res2.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res2.Body).Decode(&out); err != nil || out.Token == "" {
		t.Fatalf("sign-in response missing token: %v", err)
	}
	tok, err := jwt.Parse(out.Token, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["role"] != "customer" || claims["user_id"] != float64(stored.ID) {
		t.Fatalf("unexpected claims %v", claims)
	}

	bad := httptest.NewRequest("POST", "/api/v1/sign-in", strings.NewReader(`{"email":"new@example.com","password":"nope"}`))
	bad.Header.Set("Content-Type", "application/json")
	res3, _ := app.Test(bad)
	if res3.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", res3.StatusCode)
	}
}

func TestUpdateProfileKeepsRole(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: 3, Email: "a@example.com", FirstName: "Old", Role: auth.RoleAdmin}})
	app := makeAppWithUserHandler(NewHandler(NewService(repo), "secret"))

	for _, method := range []string{"PUT", "PATCH"} {
		req := httptest.NewRequest(method, "/api/v1/profile", strings.NewReader(`{"firstName":"New"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "3")
		res, _ := app.Test(req)
		if res.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 OK on %s update, got %d", method, res.StatusCode)
		}
	}
	u, _ := repo.GetByID(context.Background(), 3)
	if u.FirstName != "New" || u.Role != auth.RoleAdmin {
		t.Fatalf("unexpected user after update: %+v", u)
	}
}

func TestListUsers_AdminOnly(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: 1, Email: "admin@example.com", Role: auth.RoleAdmin}, {ID: 2, Email: "c@example.com", Role: auth.RoleCustomer}})
	app := makeAppWithUserHandler(NewHandler(NewService(repo), "secret"))

	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	req.Header.Set("X-User-ID", "2")
	req.Header.Set("X-Role", "customer")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", res.StatusCode)
	}

	req2 := httptest.NewRequest("GET", "/api/v1/users", nil)
	req2.Header.Set("X-User-ID", "1")
	req2.Header.Set("X-Role", "admin")
	res2, _ := app.Test(req2)
	if res2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", res2.StatusCode)
	}
}
