package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// ProductLister loads product details for line enrichment.
type ProductLister interface {
	ListByIDs(ctx context.Context, ids []int) ([]product.Product, error)
}

// Transactor runs fn inside one storage transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service serves cart reads. Line mutations belong to the checkout workflow.
type Service struct {
	repo     Repository
	products ProductLister
	tx       Transactor
}

func NewService(repo Repository, products ProductLister, tx Transactor) *Service {
	return &Service{repo: repo, products: products, tx: tx}
}

// ForUser returns the user's cart, creating it on first access.
func (s *Service) ForUser(ctx context.Context, userID int) (Cart, error) {
	var c Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.Ensure(ctx, userID)
		return err
	})
	return c, err
}

// Enrich attaches lines with product details and per-line totals to c.
func (s *Service) Enrich(ctx context.Context, c Cart) (Cart, error) {
	lines, err := s.repo.Lines(ctx, c.ID)
	if err != nil {
		return Cart{}, err
	}
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return Cart{}, err
	}
	byID := make(map[int]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for i := range lines {
		p, ok := byID[lines[i].ProductID]
		if !ok {
			continue
		}
		total := p.Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		lines[i].Product = &p
		lines[i].LineTotal = &total
	}
	c.Lines = lines
	return c, nil
}
