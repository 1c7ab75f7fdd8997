package order

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// Repository stores orders and their lines. Orders are append-only apart from
// the cancel transition.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	CreateLine(ctx context.Context, l Line) (Line, error)
	GetByID(ctx context.Context, id int) (Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	// Lines returns the order's lines ordered by product id.
	Lines(ctx context.Context, orderID int) ([]Line, error)
	// Cancel flips an accepted order to canceled. It fails with
	// ErrAlreadyCanceled when the order was canceled before.
	Cancel(ctx context.Context, id int) (Order, error)
	CancelLines(ctx context.Context, orderID int) (int, error)
}

type InMemoryRepository struct {
	mu          sync.RWMutex
	orders      []Order
	lines       []Line
	nextOrderID int
	nextLineID  int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextOrderID: 1, nextLineID: 1}
}

func (r *InMemoryRepository) Snapshot() func() {
	r.mu.RLock()
	orders, lines := slices.Clone(r.orders), slices.Clone(r.lines)
	nextOrder, nextLine := r.nextOrderID, r.nextLineID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.orders, r.lines = orders, lines
		r.nextOrderID, r.nextLineID = nextOrder, nextLine
		r.mu.Unlock()
	}
}

func (r *InMemoryRepository) Create(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	o.ID = r.nextOrderID
	r.nextOrderID++
	o.CreatedAt, o.UpdatedAt = now, now
	o.Lines = nil
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *InMemoryRepository) CreateLine(_ context.Context, l Line) (Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.ContainsFunc(r.orders, func(o Order) bool { return o.ID == l.OrderID }) {
		return Line{}, ErrNotFound
	}
	l.ID = r.nextLineID
	r.nextLineID++
	r.lines = append(r.lines, l)
	return l, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Lines(_ context.Context, orderID int) ([]Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Line, 0)
	for _, l := range r.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *InMemoryRepository) Cancel(_ context.Context, id int) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID != id {
			continue
		}
		if !r.orders[i].Accepted {
			return Order{}, ErrAlreadyCanceled
		}
		r.orders[i].Accepted = false
		r.orders[i].UpdatedAt = time.Now().UTC()
		return r.orders[i], nil
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) CancelLines(_ context.Context, orderID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.lines {
		if r.lines[i].OrderID == orderID && r.lines[i].Accepted {
			r.lines[i].Accepted = false
			n++
		}
	}
	return n, nil
}
