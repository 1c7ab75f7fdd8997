package category

import "context"

// Service provides business logic for categories.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx, false)
}

// Get returns a live category; soft deleted ones are reported as missing.
func (s *Service) Get(ctx context.Context, id int) (Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if c.Deleted {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, c Category) (Category, error) {
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, c Category) (Category, error) {
	if _, err := s.Get(ctx, c.ID); err != nil {
		return Category{}, err
	}
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.SoftDelete(ctx, id)
}
