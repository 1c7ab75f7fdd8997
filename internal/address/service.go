package address

import "context"

// Service orchestrates address book operations for one user at a time.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID int) ([]Address, error) {
	return s.repo.List(ctx, userID)
}

// Get returns the address only when it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, addressID int) (Address, error) {
	if addressID <= 0 {
		return Address{}, ErrNotFound
	}
	return s.repo.Get(ctx, userID, addressID)
}

func (s *Service) Add(ctx context.Context, a Address) (Address, error) {
	if a.AddressDesc == "" && a.AddressName == "" {
		return Address{}, ErrInvalid
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Update(ctx context.Context, a Address) (Address, error) {
	if a.AddressID <= 0 {
		return Address{}, ErrNotFound
	}
	if a.AddressDesc == "" && a.AddressName == "" {
		return Address{}, ErrInvalid
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, userID, addressID int) error {
	if addressID <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, userID, addressID)
}
