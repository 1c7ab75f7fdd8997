package product

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	// GetByID returns the product even when soft deleted.
	GetByID(ctx context.Context, id int) (Product, error)
	// GetForUpdate is GetByID that also locks the row until the transaction ends.
	GetForUpdate(ctx context.Context, id int) (Product, error)
	ListByIDs(ctx context.Context, ids []int) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	SoftDelete(ctx context.Context, id int) error
	// AdjustStock adds delta to the stock in one conditional write and returns
	// the new level. Unless allowNegative is set, a write that would take the
	// stock below zero fails with ErrInsufficientStock and changes nothing.
	AdjustStock(ctx context.Context, id, delta int, allowNegative bool) (int, error)
}

// InMemoryRepository keeps products in a slice. It implements Snapshot so it
// can take part in in-memory transactions.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
	nextID  int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]Product, 0, len(seed)),
		nextID:  1,
	}

	maxID := 0
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) Snapshot() func() {
	r.mu.RLock()
	saved := slices.Clone(r.storage)
	nextID := r.nextID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.storage = saved
		r.nextID = nextID
		r.mu.Unlock()
	}
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		if p.Deleted && !f.IncludeDeleted {
			continue
		}
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) GetForUpdate(ctx context.Context, id int) (Product, error) {
	return r.GetByID(ctx, id)
}

func (r *InMemoryRepository) ListByIDs(_ context.Context, ids []int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(ids))
	for _, p := range r.storage {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == p.ID {
			// stock and lifecycle fields are owned by AdjustStock and SoftDelete
			cur := r.storage[i]
			cur.CategoryID = p.CategoryID
			cur.Name = p.Name
			cur.Description = p.Description
			cur.Price = p.Price
			cur.UpdatedAt = time.Now().UTC()
			r.storage[i] = cur
			return cur, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) SoftDelete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].Deleted = true
			r.storage[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) AdjustStock(_ context.Context, id, delta int, allowNegative bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID != id {
			continue
		}
		next := r.storage[i].Stock + delta
		if next < 0 && !allowNegative {
			return r.storage[i].Stock, fmt.Errorf("product %d: %w", id, ErrInsufficientStock)
		}
		r.storage[i].Stock = next
		r.storage[i].UpdatedAt = time.Now().UTC()
		return next, nil
	}
	return 0, ErrNotFound
}
