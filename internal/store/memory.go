package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// memory.go - in-process реализация Store
//
// Назначение:
// Хранилище для тестов и standalone запуска без внешнего Redis.
// Все операции под одним mutex - простота важнее пропускной
// способности, сериализация по инструментам живет уровнем выше,
// в движке.
//
// Упорядочивание при равном score повторяет семантику Redis:
// лексикографически по member. Документы ордеров начинаются с
// time-ordered id, поэтому внутри ценового уровня получается порядок
// вставки, а перевставленный после частичного исполнения снимок
// (тот же id, другой остаток) сохраняет исходный приоритет времени.

type zslot struct {
	score  float64
	member string
}

// Memory - потокобезопасное in-memory хранилище
type Memory struct {
	mu   sync.RWMutex
	docs map[string]string
	zset map[string][]zslot
	sets map[string]map[string]struct{}
}

// NewMemory создает пустое in-memory хранилище
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]string),
		zset: make(map[string][]zslot),
		sets: make(map[string]map[string]struct{}),
	}
}

// DocPut перезаписывает документ
func (m *Memory) DocPut(_ context.Context, key, doc string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = doc
	return nil
}

// DocGet возвращает документ или ErrNotFound
func (m *Memory) DocGet(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return "", ErrNotFound
	}
	return doc, nil
}

// ZAdd вставляет запись сортированного множества
func (m *Memory) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zset[key] = append(m.zset[key], zslot{score: score, member: member})
	return nil
}

// ZRangeAsc отдает записи по возрастанию score; при равенстве -
// лексикографически по member
func (m *Memory) ZRangeAsc(_ context.Context, key string) ([]ZEntry, error) {
	return m.zrange(key, false)
}

// ZRangeDesc отдает записи по убыванию score; при равенстве - тот же
// лексикографический порядок member (FIFO внутри уровня в обоих
// направлениях обхода)
func (m *Memory) ZRangeDesc(_ context.Context, key string) ([]ZEntry, error) {
	return m.zrange(key, true)
}

func (m *Memory) zrange(key string, desc bool) ([]ZEntry, error) {
	m.mu.RLock()
	slots := make([]zslot, len(m.zset[key]))
	copy(slots, m.zset[key])
	m.mu.RUnlock()

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].score != slots[j].score {
			if desc {
				return slots[i].score > slots[j].score
			}
			return slots[i].score < slots[j].score
		}
		// Внутри ценового уровня порядок определяет member: документы
		// начинаются с монотонного id, лексикографика дает FIFO
		return slots[i].member < slots[j].member
	})

	out := make([]ZEntry, len(slots))
	for i, s := range slots {
		out[i] = ZEntry{Score: s.score, Member: s.member}
	}
	return out, nil
}

// ZRem удаляет первое точное совпадение member; идемпотентна
func (m *Memory) ZRem(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := m.zset[key]
	for i, s := range slots {
		if s.member == member {
			m.zset[key] = append(slots[:i], slots[i+1:]...)
			return nil
		}
	}
	return nil
}

// SAdd добавляет элемент множества; идемпотентна
func (m *Memory) SAdd(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

// SMembers перечисляет элементы множества (порядок не гарантирован)
func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.sets[key]
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	return out, nil
}

// ScanPrefix перечисляет ключи документов с данным префиксом
func (m *Memory) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for key := range m.docs {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out, nil
}
