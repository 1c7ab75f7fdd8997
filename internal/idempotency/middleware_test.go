package idempotency

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(store Store, handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id}})
			}
		}
		return c.Next()
	})
	app.Use(Middleware(store, time.Hour, slog.New(slog.DiscardHandler)))
	app.Post("/orders", handler)
	return app
}

func post(userID int, key string) *http.Request {
	req := httptest.NewRequest("POST", "/orders", nil)
	req.Header.Set("X-User-ID", strconv.Itoa(userID))
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	return req
}

func TestMiddleware_ReplaysSuccess(t *testing.T) {
	calls := 0
	app := newTestApp(NewMemoryStore(), func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"orderId": calls})
	})
	key := uuid.NewString()

	res, err := app.Test(post(1, key))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	first, _ := io.ReadAll(res.Body)

	res, err = app.Test(post(1, key))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.Equal(t, "true", res.Header.Get(HeaderReplayed))
	second, _ := io.ReadAll(res.Body)
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, 1, calls)

	// same key from another user is a different request
	res, err = app.Test(post(2, key))
	require.NoError(t, err)
	assert.Empty(t, res.Header.Get(HeaderReplayed))
	assert.Equal(t, 2, calls)

	// no key, no dedup
	_, _ = app.Test(post(1, ""))
	assert.Equal(t, 3, calls)
}

func TestMiddleware_FailureReleasesKey(t *testing.T) {
	fail := true
	calls := 0
	app := newTestApp(NewMemoryStore(), func(c *fiber.Ctx) error {
		calls++
		if fail {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "insufficient stock"})
		}
		return c.SendStatus(fiber.StatusCreated)
	})
	key := uuid.NewString()

	res, _ := app.Test(post(1, key))
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)

	fail = false
	res, _ = app.Test(post(1, key))
	assert.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.Equal(t, 2, calls)
}

func TestMiddleware_RejectsBadKeyAndInFlight(t *testing.T) {
	store := NewMemoryStore()
	app := newTestApp(store, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	res, _ := app.Test(post(1, "not-a-uuid"))
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	key := uuid.NewString()
	_, reserved, err := store.Reserve(context.Background(), "1:POST:/orders:"+key, time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)

	res, _ = app.Test(post(1, key))
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, reserved, _ := store.Reserve(ctx, "k", time.Minute)
	require.True(t, reserved)
	require.NoError(t, store.Complete(ctx, "k", Record{Status: 201, Body: []byte("{}")}, time.Minute))

	rec, reserved, _ := store.Reserve(ctx, "k", time.Minute)
	assert.False(t, reserved)
	assert.Equal(t, 201, rec.Status)

	now = now.Add(2 * time.Minute)
	_, reserved, _ = store.Reserve(ctx, "k", time.Minute)
	assert.True(t, reserved)
}

func TestMiddleware_PanicReleasesKey(t *testing.T) {
	calls := 0
	app := newTestApp(NewMemoryStore(), func(c *fiber.Ctx) error {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return c.SendStatus(fiber.StatusCreated)
	})
	key := uuid.NewString()

	res, err := app.Test(post(1, key))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)

	res, err = app.Test(post(1, key))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.Equal(t, 2, calls)
}

type ttlStore struct {
	*MemoryStore
	reserveTTL  time.Duration
	completeTTL time.Duration
}

func (s *ttlStore) Reserve(ctx context.Context, key string, ttl time.Duration) (Record, bool, error) {
	s.reserveTTL = ttl
	return s.MemoryStore.Reserve(ctx, key, ttl)
}

func (s *ttlStore) Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	s.completeTTL = ttl
	return s.MemoryStore.Complete(ctx, key, rec, ttl)
}

func TestMiddleware_PendingReservationIsShortLived(t *testing.T) {
	store := &ttlStore{MemoryStore: NewMemoryStore()}
	app := newTestApp(store, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	res, err := app.Test(post(1, uuid.NewString()))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.Equal(t, maxPendingTTL, store.reserveTTL)
	assert.Equal(t, time.Hour, store.completeTTL)
}

func TestMemoryStore_SweepsExpired(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range 1000 {
		_, reserved, err := store.Reserve(ctx, strconv.Itoa(i), time.Millisecond)
		require.NoError(t, err)
		require.True(t, reserved)
	}
	require.Len(t, store.entries, 1000)

	now = now.Add(time.Hour)
	_, reserved, err := store.Reserve(ctx, "fresh", time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)
	assert.Len(t, store.entries, 1)
}
