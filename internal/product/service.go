package product

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-backend/internal/category"
)

// Transactor runs fn inside one storage transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var ErrInvalidStockDelta = errors.New("stock delta must not be zero")

type Service struct {
	repo       Repository
	categories category.Repository
	tx         Transactor
}

func NewService(repo Repository, categories category.Repository, tx Transactor) *Service {
	return &Service{repo: repo, categories: categories, tx: tx}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	f.IncludeDeleted = false
	return s.repo.List(ctx, f)
}

// Get returns a live product; soft deleted ones are reported as missing.
func (s *Service) Get(ctx context.Context, id int) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if p.Deleted {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// ListByIDs returns the products with the given ids, deleted ones included,
// so cart and order lines can still show what was bought.
func (s *Service) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	return s.repo.ListByIDs(ctx, ids)
}

// Create adds a product to a live category.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	var created Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.RequireCategory(ctx, p.CategoryID); err != nil {
			return err
		}
		var err error
		created, err = s.repo.Create(ctx, p)
		return err
	})
	return created, err
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.SoftDelete(ctx, id)
	})
}

// Restock applies an administrative stock correction. The result never goes
// below zero, whatever the checkout stock policy is.
func (s *Service) Restock(ctx context.Context, id, delta int) (Product, error) {
	if delta == 0 {
		return Product{}, ErrInvalidStockDelta
	}
	var out Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		if _, err := s.repo.AdjustStock(ctx, id, delta, false); err != nil {
			return err
		}
		var err error
		out, err = s.repo.GetByID(ctx, id)
		return err
	})
	return out, err
}

// RequireCategory reports category.ErrNotFound unless id names a live category.
func (s *Service) RequireCategory(ctx context.Context, id int) error {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Deleted {
		return category.ErrNotFound
	}
	return nil
}
