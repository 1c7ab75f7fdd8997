package product

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

var productRowColumns = []string{"product_id", "category_id", "product_name", "product_desc", "product_price", "stock", "is_deleted", "created_at", "updated_at"}

func TestAdjustStock_ConditionalWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(adjustStockQuery)).WithArgs(7, -2, false).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(3))
	stock, err := repo.AdjustStock(ctx, 7, -2, false)
	if err != nil || stock != 3 {
		t.Fatalf("expected stock 3, got %d, %v", stock, err)
	}

	// guard refused the write: the product exists, so the stock was too low
	mock.ExpectQuery(regexp.QuoteMeta(adjustStockQuery)).WithArgs(7, -10, false).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))
	mock.ExpectQuery(regexp.QuoteMeta(productExistsQuery)).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	if _, err := repo.AdjustStock(ctx, 7, -10, false); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(adjustStockQuery)).WithArgs(8, 1, true).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))
	mock.ExpectQuery(regexp.QuoteMeta(productExistsQuery)).WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	if _, err := repo.AdjustStock(ctx, 8, 1, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(productRowColumns).
		AddRow(1, 1, "A", "", "10.50", 3, false, now, now).
		AddRow(2, 1, "B", "", "2", 0, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = ANY($1::int[])")).
		WithArgs(pq.Array([]int{1, 2})).
		WillReturnRows(rows)

	out, err := repo.ListByIDs(context.Background(), []int{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].Price.String() != "10.5" || !out[1].Deleted {
		t.Fatalf("unexpected products %+v", out)
	}

	// empty input never reaches the database
	out, err = repo.ListByIDs(context.Background(), nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty result, got %v, %v", out, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM product")).WithArgs(9).WillReturnRows(sqlmock.NewRows(productRowColumns))
	if _, err := repo.GetByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
