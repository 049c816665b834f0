package utils

import (
	"time"
)

// time.go - утилиты для работы со временем
//
// Назначение:
// Вспомогательные функции для временных операций: ключи дневных
// индексов журнала и аудиторские timestamps.

// dayKeyLayout - формат ключа дневного индекса (YYYYMMDD)
const dayKeyLayout = "20060102"

// DayKey возвращает ключ текущего дня (UTC) в формате YYYYMMDD
func DayKey() string {
	return DayKeyFrom(time.Now())
}

// DayKeyFrom возвращает ключ дня для указанного времени в UTC
//
// Пример:
//
//	// t: 2026-08-05 14:30:45 UTC
//	key := DayKeyFrom(t)
//	// key: "20260805"
func DayKeyFrom(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

// Timestamp возвращает текущее время в ISO-8601 (UTC)
//
// Используется для аудиторских полей ордеров и сделок; приоритет
// матчинга от него не зависит.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
