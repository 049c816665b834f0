package store

import "bondmarket/internal/models"

// keys.go - схема ключей хранилища
//
// Раскладка бит-в-бит совместима с существующим store:
//
//	bonds:orders:{orderId}                документ  JSON Order
//	bonds:trades:{tradeId}                документ  JSON Trade
//	bonds:bids:{instrument}               zset      score=price, member=JSON Order
//	bonds:asks:{instrument}               zset      score=price, member=JSON Order
//	bonds:user-trades:{userId}            set       member=bonds:trades:{tradeId}
//	bonds:instrument-trades:{instrument}  set       member=bonds:trades:{tradeId}
//	bonds:daily-trades:{YYYYMMDD}         set       member=bonds:trades:{tradeId}

// Префиксы ключей
const (
	OrderPrefix       = "bonds:orders:"
	TradePrefix       = "bonds:trades:"
	BidsPrefix        = "bonds:bids:"
	AsksPrefix        = "bonds:asks:"
	UserTradesPrefix  = "bonds:user-trades:"
	InstrTradesPrefix = "bonds:instrument-trades:"
	DailyTradesPrefix = "bonds:daily-trades:"
)

// OrderKey - ключ документа ордера
func OrderKey(orderID string) string { return OrderPrefix + orderID }

// TradeKey - ключ документа сделки (он же member индексных множеств)
func TradeKey(tradeID string) string { return TradePrefix + tradeID }

// BookKey - ключ книги заявок для стороны и инструмента
func BookKey(side models.OrderSide, instrument string) string {
	if side == models.SideBuy {
		return BidsPrefix + instrument
	}
	return AsksPrefix + instrument
}

// UserTradesKey - индекс сделок пользователя
func UserTradesKey(userID string) string { return UserTradesPrefix + userID }

// InstrumentTradesKey - индекс сделок инструмента
func InstrumentTradesKey(instrument string) string { return InstrTradesPrefix + instrument }

// DailyTradesKey - дневной индекс сделок (день в формате YYYYMMDD)
func DailyTradesKey(day string) string { return DailyTradesPrefix + day }
