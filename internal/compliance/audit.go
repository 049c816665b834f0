package compliance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bondmarket/internal/models"
	"bondmarket/internal/repository"
	"bondmarket/pkg/retry"
)

// audit.go - регуляторный журнал отчетности
//
// Назначение:
// Обертка над любым Gate, которая дополнительно журналирует каждую
// отчитанную сделку в Postgres (таблица trade_reports). Сбой записи
// в журнал никогда не валит сабмишен: отчетность - побочный эффект,
// ошибки логируются и ретраятся с backoff.

// reportTimeout ограничивает общее время записи в журнал вместе со
// всеми повторами; сама попытка Create контекст не получает, он
// проверяется только между попытками
const reportTimeout = 5 * time.Second

// ReportJournal - подмножество репозитория, нужное аудиту
type ReportJournal interface {
	Create(report *repository.TradeReport) error
}

// AuditGate - Gate с журналированием отчетности в БД
type AuditGate struct {
	inner   Gate
	journal ReportJournal
	log     *zap.Logger
	retry   retry.Config
}

// NewAuditGate оборачивает шлюз журналом отчетности
func NewAuditGate(inner Gate, journal ReportJournal, log *zap.Logger) *AuditGate {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := retry.ConservativeConfig()
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("trade report journal retry",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}
	return &AuditGate{
		inner:   inner,
		journal: journal,
		log:     log,
		retry:   cfg,
	}
}

// IsUserCompliant делегирует внутреннему шлюзу
func (g *AuditGate) IsUserCompliant(userID string) bool {
	return g.inner.IsUserCompliant(userID)
}

// PreTradeCheck делегирует внутреннему шлюзу
func (g *AuditGate) PreTradeCheck(order *models.Order) bool {
	return g.inner.PreTradeCheck(order)
}

// ReportTrade отчитывает сделку и пишет запись в журнал
func (g *AuditGate) ReportTrade(trade *models.Trade) {
	g.inner.ReportTrade(trade)
	if trade == nil || g.journal == nil {
		return
	}

	report := &repository.TradeReport{
		TradeID:    trade.ID,
		Instrument: trade.Instrument,
		Price:      trade.Price,
		Quantity:   trade.Quantity,
		Amount:     trade.Amount(),
		BuyerID:    trade.BuyerOrderID,
		SellerID:   trade.SellerOrderID,
		Enhanced:   RequiresEnhancedReporting(trade.Amount()),
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := retry.Do(ctx, func() error { return g.journal.Create(report) }, g.retry); err != nil {
		// Журнал не должен валить сабмишен: сделка уже durable в store
		g.log.Error("trade report journal write failed",
			zap.String("trade_id", trade.ID),
			zap.Error(err))
	}
}
