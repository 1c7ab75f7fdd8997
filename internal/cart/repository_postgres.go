package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/infrastructure/database/postgres"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	cartColumns = `cart_id, user_id, total, updated_at`

	// ensureCartQuery touches the existing row on conflict so RETURNING always yields it
	ensureCartQuery = `
		INSERT INTO cart (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + cartColumns

	getCartByIDQuery    = `SELECT ` + cartColumns + ` FROM cart WHERE cart_id = $1`
	getCartByUserQuery  = `SELECT ` + cartColumns + ` FROM cart WHERE user_id = $1`
	lockCartByIDQuery   = getCartByIDQuery + ` FOR UPDATE`
	lockCartByUserQuery = getCartByUserQuery + ` FOR UPDATE`

	lockCartsByProductQuery = `
		SELECT cart_id FROM cart
		WHERE cart_id IN (SELECT cart_id FROM cart_line WHERE product_id = $1)
		ORDER BY cart_id
		FOR UPDATE
	`
	listLinesQuery = `
		SELECT line_id, cart_id, product_id, quantity
		FROM cart_line
		WHERE cart_id = $1
		ORDER BY product_id
	`
	findLineQuery = `
		SELECT line_id, cart_id, product_id, quantity
		FROM cart_line
		WHERE cart_id = $1 AND product_id = $2
	`
	insertLineQuery = `
		INSERT INTO cart_line (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING line_id
	`

	updateLineQuantityQuery = `UPDATE cart_line SET quantity = $2 WHERE line_id = $1`
	deleteLineQuery         = `DELETE FROM cart_line WHERE line_id = $1`
	deleteLinesQuery        = `DELETE FROM cart_line WHERE cart_id = $1`
	setTotalQuery           = `UPDATE cart SET total = $2, updated_at = now() WHERE cart_id = $1`

	adjustTotalQuery = `
		UPDATE cart
		SET total = total + $2, updated_at = now()
		WHERE cart_id = $1
		RETURNING total
	`
	repriceCartsQuery = `
		UPDATE cart c
		SET total = c.total + $2 * l.quantity, updated_at = now()
		FROM cart_line l
		WHERE l.cart_id = c.cart_id AND l.product_id = $1
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Ensure(ctx context.Context, userID int) (Cart, error) {
	return r.one(ctx, ensureCartQuery, userID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Cart, error) {
	return r.one(ctx, getCartByIDQuery, id)
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID int) (Cart, error) {
	return r.one(ctx, getCartByUserQuery, userID)
}

func (r *PostgresRepository) Lock(ctx context.Context, id int) (Cart, error) {
	return r.one(ctx, lockCartByIDQuery, id)
}

func (r *PostgresRepository) LockByUser(ctx context.Context, userID int) (Cart, error) {
	return r.one(ctx, lockCartByUserQuery, userID)
}

func (r *PostgresRepository) LockByProduct(ctx context.Context, productID int) error {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, lockCartsByProductQuery, productID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

func (r *PostgresRepository) one(ctx context.Context, query string, arg int) (Cart, error) {
	var c Cart
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.UserID, &c.Total, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (r *PostgresRepository) Lines(ctx context.Context, cartID int) ([]Line, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, listLinesQuery, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) FindLine(ctx context.Context, cartID, productID int) (Line, error) {
	var l Line
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, findLineQuery, cartID, productID).
		Scan(&l.ID, &l.CartID, &l.ProductID, &l.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return Line{}, ErrLineNotFound
	}
	if err != nil {
		return Line{}, err
	}
	return l, nil
}

func (r *PostgresRepository) CreateLine(ctx context.Context, l Line) (Line, error) {
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, insertLineQuery, l.CartID, l.ProductID, l.Quantity).Scan(&l.ID)
	if err != nil {
		return Line{}, err
	}
	l.Product, l.LineTotal = nil, nil
	return l, nil
}

func (r *PostgresRepository) UpdateLineQuantity(ctx context.Context, lineID, quantity int) error {
	return r.execOne(ctx, updateLineQuantityQuery, lineID, quantity)
}

func (r *PostgresRepository) DeleteLine(ctx context.Context, lineID int) error {
	return r.execOne(ctx, deleteLineQuery, lineID)
}

func (r *PostgresRepository) DeleteLines(ctx context.Context, cartID int) (int, error) {
	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx, deleteLinesQuery, cartID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *PostgresRepository) AdjustTotal(ctx context.Context, cartID int, delta decimal.Decimal) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, adjustTotalQuery, cartID, delta).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *PostgresRepository) SetTotal(ctx context.Context, cartID int, total decimal.Decimal) error {
	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx, setTotalQuery, cartID, total)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) RepriceProduct(ctx context.Context, productID int, priceDelta decimal.Decimal) (int, error) {
	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx, repriceCartsQuery, productID, priceDelta)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// execOne runs a single-row write and maps zero affected rows to ErrLineNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLineNotFound
	}
	return nil
}
