package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Ошибки репозитория отчетов
var (
	ErrReportNotFound = errors.New("trade report not found")
)

// TradeReport - запись регуляторного журнала о сделке
//
// Журнал пишется компонентом комплаенса при ReportTrade и живет в
// Postgres независимо от операционного store: регулятор читает его
// и после того, как операционные данные уехали в архив.
type TradeReport struct {
	ID         int64           `json:"id" db:"id"`
	TradeID    string          `json:"trade_id" db:"trade_id"`
	Instrument string          `json:"instrument" db:"instrument"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	BuyerID    string          `json:"buyer_order_id" db:"buyer_order_id"`
	SellerID   string          `json:"seller_order_id" db:"seller_order_id"`
	Enhanced   bool            `json:"enhanced" db:"enhanced"`
	ReportedAt time.Time       `json:"reported_at" db:"reported_at"`
}

// ReportRepository - работа с таблицей trade_reports
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository создает новый экземпляр репозитория
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create создает запись журнала отчетности
func (r *ReportRepository) Create(report *TradeReport) error {
	query := `
		INSERT INTO trade_reports (trade_id, instrument, price, quantity, amount, buyer_order_id, seller_order_id, enhanced, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	report.ReportedAt = time.Now().UTC()

	err := r.db.QueryRow(
		query,
		report.TradeID,
		report.Instrument,
		report.Price,
		report.Quantity,
		report.Amount,
		report.BuyerID,
		report.SellerID,
		report.Enhanced,
		report.ReportedAt,
	).Scan(&report.ID)

	if err != nil {
		return err
	}

	return nil
}

// GetByTradeID возвращает запись журнала по id сделки
func (r *ReportRepository) GetByTradeID(tradeID string) (*TradeReport, error) {
	query := `
		SELECT id, trade_id, instrument, price, quantity, amount, buyer_order_id, seller_order_id, enhanced, reported_at
		FROM trade_reports
		WHERE trade_id = $1`

	report := &TradeReport{}
	err := r.db.QueryRow(query, tradeID).Scan(
		&report.ID,
		&report.TradeID,
		&report.Instrument,
		&report.Price,
		&report.Quantity,
		&report.Amount,
		&report.BuyerID,
		&report.SellerID,
		&report.Enhanced,
		&report.ReportedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	return report, nil
}

// GetRecent возвращает последние limit записей журнала
func (r *ReportRepository) GetRecent(limit int) ([]*TradeReport, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, trade_id, instrument, price, quantity, amount, buyer_order_id, seller_order_id, enhanced, reported_at
		FROM trade_reports
		ORDER BY reported_at DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*TradeReport
	for rows.Next() {
		report := &TradeReport{}
		err := rows.Scan(
			&report.ID,
			&report.TradeID,
			&report.Instrument,
			&report.Price,
			&report.Quantity,
			&report.Amount,
			&report.BuyerID,
			&report.SellerID,
			&report.Enhanced,
			&report.ReportedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// DeleteOlderThan удаляет записи старше указанного срока
//
// Срок хранения журнала определяет регуляторика, очистка
// запускается администратором вручную.
func (r *ReportRepository) DeleteOlderThan(age time.Duration) (int64, error) {
	query := `DELETE FROM trade_reports WHERE reported_at < $1`

	res, err := r.db.Exec(query, time.Now().UTC().Add(-age))
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
