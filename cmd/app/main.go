package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/category"
	"github.com/wichananm65/storefront-backend/internal/checkout"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/idempotency"
	"github.com/wichananm65/storefront-backend/internal/infrastructure/database/inmemory"
	"github.com/wichananm65/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// stores groups the repositories for one storage backend. Every workflow
// shares tx so in-memory transactions serialize against each other.
type stores struct {
	tx         checkout.Transactor
	users      user.Repository
	categories category.Repository
	products   product.Repository
	carts      cart.Repository
	orders     order.Repository
	addresses  address.Repository
	close      func() error
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, using in-memory storage")
		products := product.NewInMemoryRepository(nil)
		carts := cart.NewInMemoryRepository(nil, nil)
		orders := order.NewInMemoryRepository()
		return stores{
			tx:         inmemory.NewTransactor(products, carts, orders),
			users:      user.NewInMemoryRepository(nil),
			categories: category.NewInMemoryRepository(nil),
			products:   products,
			carts:      carts,
			orders:     orders,
			addresses:  address.NewInMemoryRepository(nil),
			close:      func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return stores{}, err
	}
	return stores{
		tx:         postgres.NewTransactor(db),
		users:      user.NewPostgresRepository(db),
		categories: category.NewPostgresRepository(db),
		products:   product.NewPostgresRepository(db),
		carts:      cart.NewPostgresRepository(db),
		orders:     order.NewPostgresRepository(db),
		addresses:  address.NewPostgresRepository(db),
		close:      db.Close,
	}, nil
}

func openIdempotencyStore(ctx context.Context, cfg config.Config) (idempotency.Store, func() error, error) {
	if cfg.RedisURL == "" {
		return idempotency.NewMemoryStore(), func() error { return nil }, nil
	}
	s, err := idempotency.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	idem, closeIdem, err := openIdempotencyStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIdem()

	userService := user.NewService(st.users)
	categoryService := category.NewService(st.categories)
	productService := product.NewService(st.products, st.categories, st.tx)
	addressService := address.NewService(st.addresses)
	cartService := cart.NewService(st.carts, productService, st.tx)
	orderService := order.NewService(st.orders)
	workflows := checkout.NewService(checkout.Deps{
		Tx:         st.tx,
		Carts:      st.carts,
		Products:   st.products,
		Orders:     st.orders,
		Addresses:  st.addresses,
		Categories: productService,
	},
		checkout.WithStockPolicy(cfg.StockPolicy),
		checkout.WithDefaultShippingFee(cfg.DefaultShippingFee),
		checkout.WithLogger(log.With("component", "checkout")),
	)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
		log.Info("admin account ready", "email", cfg.AdminEmail)
	}

	userHandler := user.NewHandler(userService, cfg.JWTSecret)
	categoryHandler := category.NewHandler(categoryService)
	productHandler := product.NewHandler(productService, workflows)
	addressHandler := address.NewHandler(addressService)
	cartHandler := cart.NewHandler(cartService, workflows)
	orderHandler := order.NewHandler(orderService, workflows)

	app := fiber.New(fiber.Config{AppName: "storefront-backend"})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + idempotency.HeaderKey,
	}))

	userHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)

	app.Use(auth.Middleware(cfg.JWTSecret))
	app.Use("/api/v1/orders", idempotency.Middleware(idem, cfg.IdempotencyTTL, log))

	userHandler.RegisterProtectedRoutes(app)
	categoryHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "stock_policy", cfg.StockPolicy.String())
		errc <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
