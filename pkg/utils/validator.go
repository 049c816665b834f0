package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// validator.go - валидация входных данных API
//
// Назначение:
// Проверка корректности параметров запросов до того, как они станут
// доменными объектами. Возвращает error с описанием проблемы или nil.

// Ошибки валидации
var (
	ErrBlankInstrument = errors.New("instrument is required")
	ErrBlankUserID     = errors.New("userId is required")
)

// ValidateInstrument проверяет идентификатор инструмента
//
// Инструмент - непустая непрозрачная строка; движок не
// интерпретирует ее структуру.
func ValidateInstrument(instrument string) error {
	if strings.TrimSpace(instrument) == "" {
		return ErrBlankInstrument
	}
	return nil
}

// ValidateUserID проверяет идентификатор пользователя
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrBlankUserID
	}
	return nil
}

// ParsePositiveDecimal разбирает строго положительную десятичную строку
func ParsePositiveDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s must be a decimal number, got %q", field, raw)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%s must be positive, got %s", field, d)
	}
	return d, nil
}

// ValidateDayKey проверяет ключ дня в формате YYYYMMDD
func ValidateDayKey(day string) error {
	if len(day) != 8 {
		return fmt.Errorf("date must be YYYYMMDD, got %q", day)
	}
	for _, c := range day {
		if c < '0' || c > '9' {
			return fmt.Errorf("date must be YYYYMMDD, got %q", day)
		}
	}
	return nil
}
