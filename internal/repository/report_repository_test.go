package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

// ============================================================
// ReportRepository Tests
// ============================================================

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	return db, mock
}

func sampleReport() *TradeReport {
	return &TradeReport{
		TradeID:    "t-1",
		Instrument: "GOVT10Y",
		Price:      decimal.RequireFromString("98.50"),
		Quantity:   decimal.RequireFromString("1000"),
		Amount:     decimal.RequireFromString("98500"),
		BuyerID:    "o-buy",
		SellerID:   "o-sell",
		Enhanced:   false,
	}
}

func TestNewReportRepository(t *testing.T) {
	db, _ := newMock(t)
	defer db.Close()

	repo := NewReportRepository(db)
	if repo == nil {
		t.Fatal("NewReportRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestReportRepositoryCreate(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO trade_reports`).
					WithArgs("t-1", "GOVT10Y", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
						"o-buy", "o-sell", false, sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
			},
			expectError: false,
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO trade_reports`).
					WillReturnError(errors.New("connection refused"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			defer db.Close()
			tt.mockSetup(mock)

			repo := NewReportRepository(db)
			report := sampleReport()
			err := repo.Create(report)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if report.ID != 7 {
					t.Errorf("expected id 7, got %d", report.ID)
				}
				if report.ReportedAt.IsZero() {
					t.Error("ReportedAt not set")
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestReportRepositoryGetByTradeID(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	cols := []string{"id", "trade_id", "instrument", "price", "quantity", "amount",
		"buyer_order_id", "seller_order_id", "enhanced", "reported_at"}

	mock.ExpectQuery(`SELECT .+ FROM trade_reports`).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "t-1", "GOVT10Y", "98.50", "1000", "98500", "o-buy", "o-sell", true, time.Now()))

	repo := NewReportRepository(db)
	report, err := repo.GetByTradeID("t-1")
	if err != nil {
		t.Fatalf("GetByTradeID: %v", err)
	}
	if report.TradeID != "t-1" || !report.Enhanced {
		t.Errorf("unexpected report: %+v", report)
	}
	if !report.Amount.Equal(decimal.RequireFromString("98500")) {
		t.Errorf("amount not scanned: %s", report.Amount)
	}
}

func TestReportRepositoryGetByTradeIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM trade_reports`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewReportRepository(db)
	_, err := repo.GetByTradeID("missing")
	if !errors.Is(err, ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}
}

func TestReportRepositoryGetRecent(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	cols := []string{"id", "trade_id", "instrument", "price", "quantity", "amount",
		"buyer_order_id", "seller_order_id", "enhanced", "reported_at"}

	mock.ExpectQuery(`SELECT .+ FROM trade_reports ORDER BY reported_at DESC`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), "t-2", "GOVT10Y", "98.75", "400", "39500", "b2", "s2", false, time.Now()).
			AddRow(int64(1), "t-1", "GOVT10Y", "98.50", "400", "39400", "b1", "s1", false, time.Now()))

	repo := NewReportRepository(db)
	reports, err := repo.GetRecent(2)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(reports) != 2 || reports[0].TradeID != "t-2" {
		t.Errorf("unexpected reports: %+v", reports)
	}
}

func TestReportRepositoryDeleteOlderThan(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM trade_reports`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewReportRepository(db)
	n, err := repo.DeleteOlderThan(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 deleted, got %d", n)
	}
}
