package order

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// linesFetchLimit bounds concurrent line queries when listing orders.
const linesFetchLimit = 4

// Service serves order reads. Placing and canceling orders is done by the
// checkout workflow.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Get returns the order with its lines.
func (s *Service) Get(ctx context.Context, id int) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	o.Lines, err = s.repo.Lines(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Service) Lines(ctx context.Context, id int) ([]Line, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Lines(ctx, id)
}

// ListByUser returns every order of the user, lines included.
func (s *Service) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(linesFetchLimit)
	for i := range orders {
		g.Go(func() error {
			lines, err := s.repo.Lines(gctx, orders[i].ID)
			if err != nil {
				return err
			}
			orders[i].Lines = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return orders, nil
}
