package idempotency

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/auth"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	// maxPendingTTL caps how long a reservation blocks retries when the
	// request never finishes.
	maxPendingTTL = time.Minute
)

// Middleware makes write requests carrying an Idempotency-Key safe to retry.
// Keys are UUIDs scoped to the caller, method and path. Only 2xx responses are
// recorded; any other outcome releases the key.
func Middleware(store Store, ttl time.Duration, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(HeaderKey)
		if raw == "" || c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}
		if _, err := uuid.Parse(raw); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": HeaderKey + " must be a UUID"})
		}
		p, err := auth.FromCtx(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}

		ctx := c.UserContext()
		key := fmt.Sprintf("%d:%s:%s:%s", p.UserID, c.Method(), c.Path(), raw)
		rec, reserved, err := store.Reserve(ctx, key, min(ttl, maxPendingTTL))
		if err != nil {
			log.ErrorContext(ctx, "idempotency reserve failed", "key", raw, "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "idempotency store unavailable"})
		}
		if !reserved {
			if rec.Pending {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "a request with this " + HeaderKey + " is in progress"})
			}
			c.Set(HeaderReplayed, "true")
			if rec.ContentType != "" {
				c.Set(fiber.HeaderContentType, rec.ContentType)
			}
			return c.Status(rec.Status).Send(rec.Body)
		}

		defer func() {
			if r := recover(); r != nil {
				release(c, store, key, log)
				panic(r)
			}
		}()
		if err := c.Next(); err != nil {
			release(c, store, key, log)
			return err
		}
		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			release(c, store, key, log)
			return nil
		}

		done := Record{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Complete(ctx, key, done, ttl); err != nil {
			log.WarnContext(ctx, "idempotency record not saved", "key", raw, "error", err)
		}
		return nil
	}
}

func release(c *fiber.Ctx, store Store, key string, log *slog.Logger) {
	if err := store.Release(c.UserContext(), key); err != nil {
		log.WarnContext(c.UserContext(), "idempotency release failed", "error", err)
	}
}
