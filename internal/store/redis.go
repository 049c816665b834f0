package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redis.go - реализация Store поверх Redis (go-redis/v9)
//
// Назначение:
// Продакшен-хранилище. Документы - обычные строки (SET/GET), книги -
// sorted sets, индексы ledger - sets. Раскладка ключей из keys.go
// совместима с существующими данными.
//
// FIFO при равном score: Redis упорядочивает равные score
// лексикографически по member. Документ ордера начинается с
// `{"id":"<uuid-v7>"`, а v7-идентификаторы монотонны по времени,
// поэтому ZRANGE дает порядок вставки. Для ZRangeDesc убывание цены
// собирается из возрастающей выборки разворотом по score с
// сохранением порядка внутри уровня (ZREVRANGE дал бы внутри уровня
// обратный, LIFO, порядок).

// Redis - клиент-обертка над go-redis
type Redis struct {
	client *redis.Client
}

// NewRedis создает хранилище поверх готового клиента
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Dial подключается к Redis и проверяет соединение
func Dial(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedis(client), nil
}

// Close закрывает соединение
func (r *Redis) Close() error {
	return r.client.Close()
}

// DocPut перезаписывает документ
func (r *Redis) DocPut(ctx context.Context, key, doc string) error {
	return r.client.Set(ctx, key, doc, 0).Err()
}

// DocGet возвращает документ или ErrNotFound
func (r *Redis) DocGet(ctx context.Context, key string) (string, error) {
	doc, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return doc, nil
}

// ZAdd вставляет member с данным score
func (r *Redis) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return r.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZRangeAsc отдает записи по возрастанию score
func (r *Redis) ZRangeAsc(ctx context.Context, key string) ([]ZEntry, error) {
	zs, err := r.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ZEntry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, ZEntry{Score: z.Score, Member: member})
	}
	return out, nil
}

// ZRangeDesc отдает записи по убыванию score с сохранением FIFO
// внутри ценового уровня
func (r *Redis) ZRangeDesc(ctx context.Context, key string) ([]ZEntry, error) {
	asc, err := r.ZRangeAsc(ctx, key)
	if err != nil {
		return nil, err
	}
	// Разворот по уровням: блоки равного score меняются местами,
	// порядок внутри блока остается порядком вставки
	out := make([]ZEntry, 0, len(asc))
	for i := len(asc); i > 0; {
		j := i
		for j > 0 && asc[j-1].Score == asc[i-1].Score {
			j--
		}
		out = append(out, asc[j:i]...)
		i = j
	}
	return out, nil
}

// ZRem удаляет точное совпадение member; идемпотентна
func (r *Redis) ZRem(ctx context.Context, key, member string) error {
	return r.client.ZRem(ctx, key, member).Err()
}

// SAdd добавляет элемент множества; идемпотентна
func (r *Redis) SAdd(ctx context.Context, key, member string) error {
	return r.client.SAdd(ctx, key, member).Err()
}

// SMembers перечисляет элементы множества
func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

// ScanPrefix перечисляет ключи с данным префиксом через SCAN
// (не KEYS: не блокируем Redis на больших журналах)
func (r *Redis) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return nil, err
		}
		out = append(out, keys...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}
