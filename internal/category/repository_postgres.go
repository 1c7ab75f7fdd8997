package category

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
	listCategoriesQuery = `
		SELECT category_id, category_name, category_img, is_deleted
		FROM category
		WHERE $1 OR NOT is_deleted
		ORDER BY category_id
	`
	getCategoryByIDQuery = `
		SELECT category_id, category_name, category_img, is_deleted
		FROM category
		WHERE category_id = $1
	`
	insertCategoryQuery = `
		INSERT INTO category (category_name, category_img)
		VALUES ($1, $2)
		RETURNING category_id
	`
	updateCategoryQuery = `
		UPDATE category
		SET category_name = $1,
			category_img = $2
		WHERE category_id = $3
		RETURNING is_deleted
	`
	softDeleteCategoryQuery = `UPDATE category SET is_deleted = true WHERE category_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, includeDeleted bool) ([]Category, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, listCategoriesQuery, includeDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageRef, &c.Deleted); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Category, error) {
	var c Category
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, getCategoryByIDQuery, id).
		Scan(&c.ID, &c.Name, &c.ImageRef, &c.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, insertCategoryQuery, c.Name, c.ImageRef).Scan(&c.ID)
	if err != nil {
		return Category{}, err
	}
	c.Deleted = false
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c Category) (Category, error) {
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, updateCategoryQuery, c.Name, c.ImageRef, c.ID).Scan(&c.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id int) error {
	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, softDeleteCategoryQuery, id)
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
