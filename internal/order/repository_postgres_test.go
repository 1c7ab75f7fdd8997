package order

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

var orderRowColumns = []string{"order_id", "user_id", "subtotal", "shipping_fee", "total", "accepted", "shipping_address", "note", "created_at", "updated_at"}

func TestCreateOrderAndLine(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	ctx := context.Background()
	now := time.Now()

	sub, fee, total := decimal.NewFromInt(25), decimal.NewFromInt(3), decimal.NewFromInt(28)
	mock.ExpectQuery(regexp.QuoteMeta(insertOrderQuery)).WithArgs(1, sub, fee, total, true, "home", "").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "created_at", "updated_at"}).AddRow(5, now, now))
	o, err := repo.Create(ctx, Order{UserID: 1, Subtotal: sub, ShippingFee: fee, Total: total, Accepted: true, ShippingAddress: "home"})
	if err != nil || o.ID != 5 {
		t.Fatalf("unexpected order %+v, %v", o, err)
	}

	price := decimal.NewFromInt(10)
	mock.ExpectQuery(regexp.QuoteMeta(insertOrderLineQuery)).WithArgs(5, 2, 2, price, true).
		WillReturnRows(sqlmock.NewRows([]string{"line_id"}).AddRow(1))
	l, err := repo.CreateLine(ctx, Line{OrderID: 5, ProductID: 2, Quantity: 2, UnitPrice: price, Accepted: true})
	if err != nil || l.ID != 1 {
		t.Fatalf("unexpected line %+v, %v", l, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCancel_ConditionalTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(cancelOrderQuery)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(5, 1, "25.00", "3.00", "28.00", false, "", "", now, now))
	o, err := repo.Cancel(ctx, 5)
	if err != nil || o.Accepted || !o.Total.Equal(decimal.NewFromInt(28)) {
		t.Fatalf("unexpected cancel result %+v, %v", o, err)
	}

	// second attempt: row exists but is no longer accepted
	mock.ExpectQuery(regexp.QuoteMeta(cancelOrderQuery)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta(orderExistsQuery)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	if _, err := repo.Cancel(ctx, 5); !errors.Is(err, ErrAlreadyCanceled) {
		t.Fatalf("expected ErrAlreadyCanceled, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(cancelOrderQuery)).WithArgs(6).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta(orderExistsQuery)).WithArgs(6).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	if _, err := repo.Cancel(ctx, 6); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(cancelLinesQuery)).WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	if n, err := repo.CancelLines(ctx, 5); err != nil || n != 2 {
		t.Fatalf("expected 2 lines, got %d, %v", n, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
