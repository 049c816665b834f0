package compliance

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bondmarket/internal/models"
)

// compliance.go - комплаенс-шлюз
//
// Назначение:
// Стабильный шов между движком и реальным комплаенсом. Движок видит
// два синхронных предиката перед матчингом и один вызов отчетности
// на каждую исполненную сделку. Настоящие KYC/AML проверки, лимиты
// позиций и регуляторные форматы живут за этим интерфейсом, не
// внутри движка.

// Gate - интерфейс комплаенс-шлюза
//
// Контракт:
// - IsUserCompliant(""): false (пустой пользователь всегда отклоняется)
// - PreTradeCheck(nil): false
// - ReportTrade(nil): no-op
// Отчетность - побочный эффект: ее сбой не должен валить сабмишен.
type Gate interface {
	IsUserCompliant(userID string) bool
	PreTradeCheck(order *models.Order) bool
	ReportTrade(trade *models.Trade)
}

// enhancedReportingThreshold - объем сделки, начиная с которого
// требуется расширенная регуляторная отчетность
var enhancedReportingThreshold = decimal.NewFromInt(1_000_000)

// DefaultGate - политика по умолчанию: пропускать всех
//
// Продакшен-развертывание подменяет этот шлюз интеграцией с
// KYC-базой и системой лимитов. Здесь остаются только базовые
// проверки на мусорный вход и лог отчетности.
type DefaultGate struct {
	log *zap.Logger
}

// NewDefaultGate создает шлюз с политикой "принимать все"
func NewDefaultGate(log *zap.Logger) *DefaultGate {
	if log == nil {
		log = zap.NewNop()
	}
	return &DefaultGate{log: log}
}

// IsUserCompliant - KYC/AML проверка пользователя
func (g *DefaultGate) IsUserCompliant(userID string) bool {
	if userID == "" {
		return false
	}
	g.log.Debug("compliance check passed", zap.String("user_id", userID))
	return true
}

// PreTradeCheck - предторговая проверка ордера
//
// Для SELL здесь место проверке достаточности позиции; политика по
// умолчанию пропускает.
func (g *DefaultGate) PreTradeCheck(order *models.Order) bool {
	if order == nil {
		return false
	}
	if order.Side == models.SideSell {
		g.log.Debug("pre-trade position check",
			zap.String("user_id", order.UserID),
			zap.String("instrument", order.Instrument))
	}
	return true
}

// ReportTrade - пост-трейд отчетность регулятору
func (g *DefaultGate) ReportTrade(trade *models.Trade) {
	if trade == nil {
		return
	}
	g.log.Info("trade reported",
		zap.String("trade_id", trade.ID),
		zap.String("instrument", trade.Instrument),
		zap.Bool("enhanced", RequiresEnhancedReporting(trade.Amount())))
}

// IsAuthorizedForInstrument проверяет право пользователя торговать
// инструментом. Политика по умолчанию: разрешено всем, кроме пустого
// пользователя или пустого инструмента.
func (g *DefaultGate) IsAuthorizedForInstrument(userID, instrument string) bool {
	return userID != "" && instrument != ""
}

// RequiresEnhancedReporting проверяет, превышает ли объем сделки
// порог расширенной отчетности
func RequiresEnhancedReporting(tradeValue decimal.Decimal) bool {
	return tradeValue.GreaterThanOrEqual(enhancedReportingThreshold)
}
