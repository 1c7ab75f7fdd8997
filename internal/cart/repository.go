package cart

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Repository provides access to carts and their lines. Lock methods hold the
// cart row until the surrounding transaction ends.
type Repository interface {
	// Ensure returns the user's cart, creating an empty one on first access.
	Ensure(ctx context.Context, userID int) (Cart, error)
	GetByID(ctx context.Context, id int) (Cart, error)
	GetByUserID(ctx context.Context, userID int) (Cart, error)
	Lock(ctx context.Context, id int) (Cart, error)
	LockByUser(ctx context.Context, userID int) (Cart, error)
	// LockByProduct locks, in id order, every cart holding productID.
	LockByProduct(ctx context.Context, productID int) error

	// Lines returns the cart's lines ordered by product id.
	Lines(ctx context.Context, cartID int) ([]Line, error)
	FindLine(ctx context.Context, cartID, productID int) (Line, error)
	CreateLine(ctx context.Context, l Line) (Line, error)
	UpdateLineQuantity(ctx context.Context, lineID, quantity int) error
	DeleteLine(ctx context.Context, lineID int) error
	DeleteLines(ctx context.Context, cartID int) (int, error)

	// AdjustTotal adds delta to the cached total and returns the new value.
	AdjustTotal(ctx context.Context, cartID int, delta decimal.Decimal) (decimal.Decimal, error)
	SetTotal(ctx context.Context, cartID int, total decimal.Decimal) error
	// RepriceProduct adds priceDelta × quantity to every cart holding productID
	// and returns how many carts changed.
	RepriceProduct(ctx context.Context, productID int, priceDelta decimal.Decimal) (int, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.RWMutex
	carts      []Cart
	lines      []Line
	nextCartID int
	nextLineID int
}

func NewInMemoryRepository(carts []Cart, lines []Line) *InMemoryRepository {
	r := &InMemoryRepository{nextCartID: 1, nextLineID: 1}
	for _, c := range carts {
		c.Lines = nil
		r.carts = append(r.carts, c)
		if c.ID >= r.nextCartID {
			r.nextCartID = c.ID + 1
		}
	}
	for _, l := range lines {
		r.lines = append(r.lines, l)
		if l.ID >= r.nextLineID {
			r.nextLineID = l.ID + 1
		}
	}
	return r
}

func (r *InMemoryRepository) Snapshot() func() {
	r.mu.RLock()
	carts, lines := slices.Clone(r.carts), slices.Clone(r.lines)
	nextCart, nextLine := r.nextCartID, r.nextLineID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.carts, r.lines = carts, lines
		r.nextCartID, r.nextLineID = nextCart, nextLine
		r.mu.Unlock()
	}
}

func (r *InMemoryRepository) Ensure(_ context.Context, userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	c := Cart{ID: r.nextCartID, UserID: userID, Total: decimal.Zero, UpdatedAt: time.Now().UTC()}
	r.nextCartID++
	r.carts = append(r.carts, c)
	return c, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.carts {
		if c.ID == id {
			return c, nil
		}
	}
	return Cart{}, ErrNotFound
}

func (r *InMemoryRepository) GetByUserID(_ context.Context, userID int) (Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	return Cart{}, ErrNotFound
}

// Lock is GetByID; in-memory transactions are already serialized.
func (r *InMemoryRepository) Lock(ctx context.Context, id int) (Cart, error) {
	return r.GetByID(ctx, id)
}

func (r *InMemoryRepository) LockByUser(ctx context.Context, userID int) (Cart, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *InMemoryRepository) LockByProduct(context.Context, int) error {
	return nil
}

func (r *InMemoryRepository) Lines(_ context.Context, cartID int) ([]Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Line, 0)
	for _, l := range r.lines {
		if l.CartID == cartID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *InMemoryRepository) FindLine(_ context.Context, cartID, productID int) (Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.lines {
		if l.CartID == cartID && l.ProductID == productID {
			return l, nil
		}
	}
	return Line{}, ErrLineNotFound
}

func (r *InMemoryRepository) CreateLine(_ context.Context, l Line) (Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = r.nextLineID
	r.nextLineID++
	l.Product, l.LineTotal = nil, nil
	r.lines = append(r.lines, l)
	r.touch(l.CartID)
	return l, nil
}

func (r *InMemoryRepository) UpdateLineQuantity(_ context.Context, lineID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lines {
		if r.lines[i].ID == lineID {
			r.lines[i].Quantity = quantity
			r.touch(r.lines[i].CartID)
			return nil
		}
	}
	return ErrLineNotFound
}

func (r *InMemoryRepository) DeleteLine(_ context.Context, lineID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.lines {
		if l.ID == lineID {
			r.lines = slices.Delete(r.lines, i, i+1)
			r.touch(l.CartID)
			return nil
		}
	}
	return ErrLineNotFound
}

func (r *InMemoryRepository) DeleteLines(_ context.Context, cartID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.lines)
	r.lines = slices.DeleteFunc(r.lines, func(l Line) bool { return l.CartID == cartID })
	r.touch(cartID)
	return before - len(r.lines), nil
}

func (r *InMemoryRepository) AdjustTotal(_ context.Context, cartID int, delta decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.carts {
		if r.carts[i].ID == cartID {
			r.carts[i].Total = r.carts[i].Total.Add(delta)
			r.carts[i].UpdatedAt = time.Now().UTC()
			return r.carts[i].Total, nil
		}
	}
	return decimal.Zero, ErrNotFound
}

func (r *InMemoryRepository) SetTotal(_ context.Context, cartID int, total decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.carts {
		if r.carts[i].ID == cartID {
			r.carts[i].Total = total
			r.carts[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) RepriceProduct(_ context.Context, productID int, priceDelta decimal.Decimal) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for _, l := range r.lines {
		if l.ProductID != productID {
			continue
		}
		for i := range r.carts {
			if r.carts[i].ID == l.CartID {
				r.carts[i].Total = r.carts[i].Total.Add(priceDelta.Mul(decimal.NewFromInt(int64(l.Quantity))))
				changed++
			}
		}
	}
	return changed, nil
}

// touch must be called with mu held.
func (r *InMemoryRepository) touch(cartID int) {
	for i := range r.carts {
		if r.carts[i].ID == cartID {
			r.carts[i].UpdatedAt = time.Now().UTC()
			return
		}
	}
}
