package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/wichananm65/storefront-backend/internal/infrastructure/database/postgres"
)

type PostgresRepository struct {
	db *sql.DB
}

const productColumns = `product_id, category_id, product_name, product_desc, product_price, stock, is_deleted, created_at, updated_at`

const (
	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM product
		WHERE ($1 = 0 OR category_id = $1) AND ($2 OR NOT is_deleted)
		ORDER BY product_id
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM product
		WHERE product_id = $1
	`
	getProductForUpdateQuery = getProductByIDQuery + ` FOR UPDATE`

	listProductsByIDsQuery = `
		SELECT ` + productColumns + `
		FROM product
		WHERE product_id = ANY($1::int[])
		ORDER BY product_id
	`
	insertProductQuery = `
		INSERT INTO product (category_id, product_name, product_desc, product_price, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns
	updateProductQuery = `
		UPDATE product
		SET category_id = $1,
			product_name = $2,
			product_desc = $3,
			product_price = $4,
			updated_at = now()
		WHERE product_id = $5
		RETURNING ` + productColumns
	softDeleteProductQuery = `UPDATE product SET is_deleted = true, updated_at = now() WHERE product_id = $1`
	// adjustStockQuery is a single relative write so concurrent adjustments
	// never lose an update; $3 lifts the non-negative guard.
	adjustStockQuery = `
		UPDATE product
		SET stock = stock + $2,
			updated_at = now()
		WHERE product_id = $1 AND ($3 OR stock + $2 >= 0)
		RETURNING stock
	`
	productExistsQuery = `SELECT EXISTS (SELECT 1 FROM product WHERE product_id = $1)`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Product, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, listProductsQuery, f.CategoryID, f.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	return r.get(ctx, getProductByIDQuery, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id int) (Product, error) {
	return r.get(ctx, getProductForUpdateQuery, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, id int) (Product, error) {
	p, err := scanProduct(postgres.Conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// ListByIDs returns the products whose id is in ids. Returns an empty slice
// without querying when ids is empty.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, listProductsByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	row := postgres.Conn(ctx, r.db).QueryRowContext(ctx, insertProductQuery,
		p.CategoryID,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
	)
	return scanProduct(row)
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) (Product, error) {
	row := postgres.Conn(ctx, r.db).QueryRowContext(ctx, updateProductQuery,
		p.CategoryID,
		p.Name,
		p.Description,
		p.Price,
		p.ID,
	)
	updated, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return updated, err
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id int) error {
	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, softDeleteProductQuery, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AdjustStock(ctx context.Context, id, delta int, allowNegative bool) (int, error) {
	conn := postgres.Conn(ctx, r.db)

	var stock int
	err := conn.QueryRowContext(ctx, adjustStockQuery, id, delta, allowNegative).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// no row matched: either the product is missing or the guard refused the write
	var exists bool
	if err := conn.QueryRowContext(ctx, productExistsQuery, id).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, fmt.Errorf("product %d: %w", id, ErrInsufficientStock)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner) (Product, error) {
	p := Product{}
	if err := scanner.Scan(
		&p.ID,
		&p.CategoryID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Deleted,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Product{}, err
	}
	return p, nil
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
