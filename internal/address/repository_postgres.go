package address

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/infrastructure/database/postgres"
)

type PostgresRepository struct {
	db *sql.DB
}

const addressColumns = `address_id, user_id, address_name, address_desc, phone, created_at, updated_at`

const (
	listAddressesQuery = `
		SELECT ` + addressColumns + `
		FROM address
		WHERE user_id = $1
		ORDER BY address_id
	`
	getAddressQuery = `
		SELECT ` + addressColumns + `
		FROM address
		WHERE user_id = $1 AND address_id = $2
	`
	insertAddressQuery = `
		INSERT INTO address (user_id, address_name, address_desc, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + addressColumns
	updateAddressQuery = `
		UPDATE address
		SET address_name = $3, address_desc = $4, phone = $5, updated_at = now()
		WHERE user_id = $1 AND address_id = $2
		RETURNING ` + addressColumns
	deleteAddressQuery = `DELETE FROM address WHERE user_id = $1 AND address_id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Address, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, listAddressesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, userID, addressID int) (Address, error) {
	return oneAddress(postgres.Conn(ctx, r.db).QueryRowContext(ctx, getAddressQuery, userID, addressID))
}

func (r *PostgresRepository) Create(ctx context.Context, a Address) (Address, error) {
	return oneAddress(postgres.Conn(ctx, r.db).QueryRowContext(ctx, insertAddressQuery,
		a.UserID, a.AddressName, a.AddressDesc, a.Phone))
}

func (r *PostgresRepository) Update(ctx context.Context, a Address) (Address, error) {
	return oneAddress(postgres.Conn(ctx, r.db).QueryRowContext(ctx, updateAddressQuery,
		a.UserID, a.AddressID, a.AddressName, a.AddressDesc, a.Phone))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, addressID int) error {
	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx, deleteAddressQuery, userID, addressID)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddress(s rowScanner) (Address, error) {
	var a Address
	err := s.Scan(&a.AddressID, &a.UserID, &a.AddressName, &a.AddressDesc, &a.Phone, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func oneAddress(row *sql.Row) (Address, error) {
	a, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, ErrNotFound
	}
	if err != nil {
		return Address{}, err
	}
	return a, nil
}
