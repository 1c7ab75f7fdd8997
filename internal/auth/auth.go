package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// ErrForbidden is returned when an authenticated principal acts on a resource it does not own.
var ErrForbidden = errors.New("forbidden")

// Principal is the identity carried by a verified token.
type Principal struct {
	UserID int
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccess reports whether p may read or mutate a resource owned by ownerID.
func (p Principal) CanAccess(ownerID int) bool {
	return p.IsAdmin() || p.UserID == ownerID
}

// NewToken signs an HS256 token carrying the user_id and role claims.
func NewToken(secret string, userID int, role Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Middleware verifies the bearer token and stores it in c.Locals("user").
func Middleware(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	})
}

// FromCtx extracts the principal from the JWT stored in c.Locals("user").
// Tokens issued before roles existed are treated as customers.
func FromCtx(c *fiber.Ctx) (Principal, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return Principal{}, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, fiber.ErrUnauthorized
	}

	id, ok := claimInt(claims["user_id"])
	if !ok || id <= 0 {
		return Principal{}, fiber.ErrUnauthorized
	}

	role := RoleCustomer
	if r, ok := claims["role"].(string); ok && r != "" {
		role = Role(r)
	}
	return Principal{UserID: id, Role: role}, nil
}

// RequireRole rejects requests whose principal holds none of roles.
func RequireRole(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := FromCtx(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": ErrForbidden.Error()})
	}
}

func claimInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		id, err := strconv.Atoi(v)
		return id, err == nil
	default:
		return 0, false
	}
}
