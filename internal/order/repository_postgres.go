package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/infrastructure/database/postgres"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	orderColumns     = `order_id, user_id, subtotal, shipping_fee, total, accepted, shipping_address, note, created_at, updated_at`
	orderLineColumns = `line_id, order_id, product_id, quantity, unit_price, accepted`
)

const (
	insertOrderQuery = `
		INSERT INTO orders (user_id, subtotal, shipping_fee, total, accepted, shipping_address, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING order_id, created_at, updated_at
	`
	insertOrderLineQuery = `
		INSERT INTO order_line (order_id, product_id, quantity, unit_price, accepted)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING line_id
	`

	getOrderQuery         = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	listOrdersByUserQuery = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY order_id`
	listOrderLinesQuery   = `SELECT ` + orderLineColumns + ` FROM order_line WHERE order_id = $1 ORDER BY product_id`

	// cancelOrderQuery only matches accepted orders so two cancels cannot both succeed
	cancelOrderQuery = `
		UPDATE orders
		SET accepted = false, updated_at = now()
		WHERE order_id = $1 AND accepted
		RETURNING ` + orderColumns

	orderExistsQuery = `SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1)`
	cancelLinesQuery = `UPDATE order_line SET accepted = false WHERE order_id = $1 AND accepted`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (Order, error) {
	var o Order
	err := s.Scan(&o.ID, &o.UserID, &o.Subtotal, &o.ShippingFee, &o.Total, &o.Accepted,
		&o.ShippingAddress, &o.Note, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, insertOrderQuery,
		o.UserID, o.Subtotal, o.ShippingFee, o.Total, o.Accepted, o.ShippingAddress, o.Note,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Lines = nil
	return o, nil
}

func (r *PostgresRepository) CreateLine(ctx context.Context, l Line) (Line, error) {
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, insertOrderLineQuery,
		l.OrderID, l.ProductID, l.Quantity, l.UnitPrice, l.Accepted,
	).Scan(&l.ID)
	if err != nil {
		return Line{}, err
	}
	return l, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	o, err := scanOrder(postgres.Conn(ctx, r.db).QueryRowContext(ctx, getOrderQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, listOrdersByUserQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Lines(ctx context.Context, orderID int) ([]Line, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, listOrderLinesQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Accepted); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Cancel(ctx context.Context, id int) (Order, error) {
	conn := postgres.Conn(ctx, r.db)
	o, err := scanOrder(conn.QueryRowContext(ctx, cancelOrderQuery, id))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Order{}, err
	}

	var exists bool
	if err := conn.QueryRowContext(ctx, orderExistsQuery, id).Scan(&exists); err != nil {
		return Order{}, err
	}
	if !exists {
		return Order{}, ErrNotFound
	}
	return Order{}, ErrAlreadyCanceled
}

func (r *PostgresRepository) CancelLines(ctx context.Context, orderID int) (int, error) {
	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx, cancelLinesQuery, orderID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
