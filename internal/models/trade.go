package models

import (
	"github.com/shopspring/decimal"

	"bondmarket/pkg/utils"
)

// Trade представляет исполненную сделку между двумя ордерами
//
// Цена исполнения всегда берется от пассивного (resting) ордера:
// улучшение цены достается пассивной стороне. Сделка иммутабельна
// после создания.
type Trade struct {
	ID               string          `json:"id"`
	Instrument       string          `json:"instrument"`
	Price            decimal.Decimal `json:"price"`
	Quantity         decimal.Decimal `json:"quantity"`
	AggressorOrderID string          `json:"aggressorOrderId"`
	RestingOrderID   string          `json:"restingOrderId"`
	BuyerOrderID     string          `json:"buyerOrderId"`
	SellerOrderID    string          `json:"sellerOrderId"`
	Timestamp        string          `json:"timestamp"`
}

// NewTrade создает сделку между агрессором и пассивным ордером
//
// Покупатель/продавец выводятся из сторон: чей side == BUY, тот и
// покупатель. Инструмент у обоих ордеров обязан совпадать - матчинг
// никогда не сводит разные инструменты.
func NewTrade(aggressor, resting *Order, price, quantity decimal.Decimal) *Trade {
	t := &Trade{
		ID:               NewID(),
		Instrument:       aggressor.Instrument,
		Price:            price,
		Quantity:         quantity,
		AggressorOrderID: aggressor.ID,
		RestingOrderID:   resting.ID,
		Timestamp:        utils.Timestamp(),
	}
	if aggressor.Side == SideBuy {
		t.BuyerOrderID = aggressor.ID
		t.SellerOrderID = resting.ID
	} else {
		t.BuyerOrderID = resting.ID
		t.SellerOrderID = aggressor.ID
	}
	return t
}

// Amount возвращает денежный объем сделки (price * quantity)
//
// Точная десятичная арифметика: используется для фильтрации по
// minAmount/maxAmount в ledger.
func (t *Trade) Amount() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

// Day возвращает день сделки в формате YYYYMMDD
//
// Берутся первые 10 символов ISO-8601 timestamp с удалением дефисов.
// Сравнение диапазонов дат побайтово-лексикографическое.
func (t *Trade) Day() string {
	if len(t.Timestamp) < 10 {
		return ""
	}
	d := t.Timestamp[:10]
	// YYYY-MM-DD → YYYYMMDD
	return d[:4] + d[5:7] + d[8:10]
}
