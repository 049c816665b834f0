package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bondmarket/pkg/utils"
)

// OrderSide - сторона ордера (покупка или продажа)
type OrderSide string

// Стороны ордера
const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderStatus - статус жизненного цикла ордера
type OrderStatus string

// Статусы ордера
//
// Переходы:
// - OPEN → PARTIALLY_FILLED при первом частичном исполнении
// - OPEN → FILLED при полном исполнении за один матч
// - PARTIALLY_FILLED → FILLED при исполнении остатка
// - CANCELLED зарезервирован: движок его никогда не выставляет
const (
	StatusOpen            OrderStatus = "OPEN"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
)

// Ошибки валидации модели
var (
	ErrInvalidSide     = errors.New("order side must be BUY or SELL")
	ErrEmptyInstrument = errors.New("instrument cannot be empty")
	ErrEmptyUserID     = errors.New("user id cannot be empty")
	ErrNonPositive     = errors.New("price and quantity must be positive")
	ErrQuantityRange   = errors.New("remaining quantity out of [0, initial] range")
)

// Order представляет лимитный ордер на облигацию
//
// Поле ID идет ПЕРВЫМ в структуре намеренно: id генерируется как
// time-ordered UUID (v7), и при равном score в книге заявок записи
// сортируются лексикографически по сериализованному виду. Монотонный
// префикс `{"id":"..."` дает FIFO внутри ценового уровня.
type Order struct {
	ID                string          `json:"id"`
	Instrument        string          `json:"instrument"`
	Side              OrderSide       `json:"side"`
	Price             decimal.Decimal `json:"price"`
	InitialQuantity   decimal.Decimal `json:"initialQuantity"`
	RemainingQuantity decimal.Decimal `json:"remainingQuantity"`
	Timestamp         string          `json:"timestamp"`
	Status            OrderStatus     `json:"status"`
	UserID            string          `json:"userId"`
}

// NewOrder создает новый ордер со свежим id и статусом OPEN
//
// RemainingQuantity инициализируется равным InitialQuantity.
// Timestamp - ISO-8601 (UTC), используется для аудита, а не для
// приоритета матчинга.
func NewOrder(instrument string, side OrderSide, price, quantity decimal.Decimal, userID string) (*Order, error) {
	o := &Order{
		ID:                NewID(),
		Instrument:        instrument,
		Side:              side,
		Price:             price,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
		Timestamp:         utils.Timestamp(),
		Status:            StatusOpen,
		UserID:            userID,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// NewID генерирует глобально уникальный time-ordered идентификатор (UUID v7)
//
// Монотонность строкового представления внутри процесса - часть
// контракта FIFO книги заявок (см. Order).
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 падает только при недоступности источника энтропии
		return uuid.New().String()
	}
	return id.String()
}

// Validate проверяет инварианты ордера
func (o *Order) Validate() error {
	if o.Side != SideBuy && o.Side != SideSell {
		return ErrInvalidSide
	}
	if o.Instrument == "" {
		return ErrEmptyInstrument
	}
	if o.UserID == "" {
		return ErrEmptyUserID
	}
	if !o.Price.IsPositive() || !o.InitialQuantity.IsPositive() {
		return ErrNonPositive
	}
	if o.RemainingQuantity.IsNegative() || o.RemainingQuantity.GreaterThan(o.InitialQuantity) {
		return ErrQuantityRange
	}
	return nil
}

// Opposite возвращает противоположную сторону
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ApplyFill уменьшает остаток на qty и продвигает статус
//
// Инвариант сохранения количества: остаток никогда не уходит ниже нуля
// (qty всегда min двух остатков на момент матча).
func (o *Order) ApplyFill(qty decimal.Decimal) error {
	if qty.GreaterThan(o.RemainingQuantity) {
		return fmt.Errorf("fill %s exceeds remaining %s for order %s",
			qty.String(), o.RemainingQuantity.String(), o.ID)
	}
	o.RemainingQuantity = o.RemainingQuantity.Sub(qty)
	if o.RemainingQuantity.IsZero() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	return nil
}
