package user

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

type Repository interface {
	// List returns every account ordered by ID.
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int) (User, error)
	// GetByEmail matches the address case-insensitively.
	GetByEmail(ctx context.Context, email string) (User, error)
	// Create fails with ErrEmailExists when the address is already taken.
	Create(ctx context.Context, u User) (User, error)
	// Update writes the profile fields. Empty Password or Role keep the
	// stored value.
	Update(ctx context.Context, u User) (User, error)
}

// InMemoryRepository indexes accounts by ID and by lower-cased email.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[int]User
	byEmail map[string]int
	nextID  int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	r := &InMemoryRepository{
		byID:    make(map[int]User, len(seed)),
		byEmail: make(map[string]int, len(seed)),
		nextID:  1,
	}
	for _, u := range seed {
		r.byID[u.ID] = u
		r.byEmail[emailKey(u.Email)] = u.ID
		r.nextID = max(r.nextID, u.ID+1)
	}
	return r
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *InMemoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *InMemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(u.Email)
	if _, taken := r.byEmail[key]; taken {
		return User{}, ErrEmailExists
	}
	if u.ID == 0 {
		u.ID = r.nextID
	}
	r.nextID = max(r.nextID, u.ID+1)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt

	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return u, nil
}

func (r *InMemoryRepository) Update(_ context.Context, in User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[in.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	u.FirstName, u.LastName, u.Phone = in.FirstName, in.LastName, in.Phone
	if in.Password != "" {
		u.Password = in.Password
	}
	if in.Role != "" {
		u.Role = in.Role
	}
	u.UpdatedAt = time.Now().UTC()
	r.byID[u.ID] = u
	return u, nil
}
