package websocket

import (
	"time"

	"bondmarket/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeTradeExecuted - исполненная сделка
	// Отправляется на каждую сделку сразу после отчетности
	MessageTypeTradeExecuted MessageType = "tradeExecuted"
)

// TradeExecutedMessage - трансляция исполненной сделки
//
// Подписчики фида видят сделку целиком: цену исполнения, количество
// и ids ордеров обеих сторон. UserId сторон в фиде не раскрываются.
type TradeExecutedMessage struct {
	Type      MessageType   `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Data      *models.Trade `json:"data"`
}

// NewTradeExecutedMessage создает сообщение фида для сделки
func NewTradeExecutedMessage(trade *models.Trade) *TradeExecutedMessage {
	return &TradeExecutedMessage{
		Type:      MessageTypeTradeExecuted,
		Timestamp: time.Now().UTC(),
		Data:      trade,
	}
}
