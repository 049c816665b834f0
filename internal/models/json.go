package models

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

// json.go - сериализация ордеров и сделок
//
// Назначение:
// Единая точка кодирования/декодирования документов, которые движок
// кладет в store. Формат совместим со стандартной библиотекой, но
// jsoniter быстрее на горячем пути матчинга (каждый проход по книге
// декодирует все перебранные записи).

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	// Цены и количества на проводе - JSON числа, не строки
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeOrder сериализует ордер в JSON документ
func EncodeOrder(o *Order) (string, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeOrder восстанавливает ордер из JSON документа
func DecodeOrder(doc string) (*Order, error) {
	var o Order
	if err := json.UnmarshalFromString(doc, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// EncodeTrade сериализует сделку в JSON документ
func EncodeTrade(t *Trade) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeTrade восстанавливает сделку из JSON документа
func DecodeTrade(doc string) (*Trade, error) {
	var t Trade
	if err := json.UnmarshalFromString(doc, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
