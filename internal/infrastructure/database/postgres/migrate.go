package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order at startup; every statement is idempotent.
// product.stock carries no CHECK so the backorder policy can take it below zero.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'customer',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS category (
		category_id SERIAL PRIMARY KEY,
		category_name TEXT NOT NULL,
		category_img TEXT NOT NULL DEFAULT '',
		is_deleted BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS product (
		product_id SERIAL PRIMARY KEY,
		category_id INT NOT NULL REFERENCES category (category_id),
		product_name TEXT NOT NULL,
		product_desc TEXT NOT NULL DEFAULT '',
		product_price NUMERIC(12, 2) NOT NULL CHECK (product_price >= 0),
		stock INT NOT NULL DEFAULT 0,
		is_deleted BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS product_category_idx ON product (category_id)`,
	`CREATE TABLE IF NOT EXISTS cart (
		cart_id SERIAL PRIMARY KEY,
		user_id INT NOT NULL UNIQUE REFERENCES users (user_id),
		total NUMERIC(14, 2) NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_line (
		line_id SERIAL PRIMARY KEY,
		cart_id INT NOT NULL REFERENCES cart (cart_id),
		product_id INT NOT NULL REFERENCES product (product_id),
		quantity INT NOT NULL CHECK (quantity > 0),
		UNIQUE (cart_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS address (
		address_id SERIAL PRIMARY KEY,
		user_id INT NOT NULL REFERENCES users (user_id),
		address_name TEXT NOT NULL DEFAULT '',
		address_desc TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id SERIAL PRIMARY KEY,
		user_id INT NOT NULL REFERENCES users (user_id),
		subtotal NUMERIC(14, 2) NOT NULL,
		shipping_fee NUMERIC(12, 2) NOT NULL CHECK (shipping_fee >= 0),
		total NUMERIC(14, 2) NOT NULL,
		accepted BOOLEAN NOT NULL DEFAULT true,
		shipping_address TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (user_id)`,
	`CREATE TABLE IF NOT EXISTS order_line (
		line_id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders (order_id),
		product_id INT NOT NULL REFERENCES product (product_id),
		quantity INT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(12, 2) NOT NULL,
		accepted BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE INDEX IF NOT EXISTS order_line_order_idx ON order_line (order_id)`,
}

// Migrate creates the tables the service needs when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
