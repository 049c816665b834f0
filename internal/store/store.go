package store

import (
	"context"
	"errors"
)

// store.go - абстракция хранилища
//
// Назначение:
// Минимальный набор примитивов, который нужен ядру поверх общего
// key/value хранилища:
// - документная карта: ключ → JSON-документ (ордера и сделки)
// - сортированное мультимножество по цене (книги заявок)
// - множества ключей сделок (индексы ledger)
//
// Каждая операция атомарна на уровне одного ключа. Движок не
// полагается на мульти-ключевые транзакции: инварианты
// восстанавливаются порядком операций внутри ProcessOrder.
//
// Реализации:
// - Memory: in-process хранилище для тестов и standalone запуска
// - Redis: go-redis/v9 поверх внешнего Redis

// Ошибки хранилища
var (
	// ErrNotFound - документ отсутствует
	ErrNotFound = errors.New("store: key not found")
)

// ZEntry - запись сортированного множества: score (цена) + member
// (сериализованный снимок ордера)
type ZEntry struct {
	Score  float64
	Member string
}

// Store - примитивы хранилища, потребляемые ядром
//
// Контракт упорядочивания: ZRangeAsc и ZRangeDesc при равном score
// отдают записи лексикографически по member, в обоих направлениях
// обхода. FIFO внутри ценового уровня дает монотонный префикс member
// (time-ordered id первым полем документа), а не порядок вызовов
// ZAdd: перевставленный снимок с тем же id сохраняет свое место.
type Store interface {
	// DocPut перезаписывает документ по ключу
	DocPut(ctx context.Context, key, doc string) error

	// DocGet возвращает документ или ErrNotFound
	DocGet(ctx context.Context, key string) (string, error)

	// ZAdd вставляет member в сортированное множество с данным score
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRangeAsc отдает все записи по возрастанию score
	ZRangeAsc(ctx context.Context, key string) ([]ZEntry, error)

	// ZRangeDesc отдает все записи по убыванию score
	ZRangeDesc(ctx context.Context, key string) ([]ZEntry, error)

	// ZRem удаляет точное совпадение member; идемпотентна
	ZRem(ctx context.Context, key, member string) error

	// SAdd добавляет member в множество; идемпотентна
	SAdd(ctx context.Context, key, member string) error

	// SMembers перечисляет элементы множества
	SMembers(ctx context.Context, key string) ([]string, error)

	// ScanPrefix перечисляет ключи документов с данным префиксом
	// (используется только для ledger-запроса без фильтров)
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
}
