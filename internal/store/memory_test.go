package store

import (
	"context"
	"errors"
	"sort"
	"testing"
)

// ============================================================
// Memory Store Tests
// ============================================================

func TestMemoryDocPutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.DocGet(ctx, "bonds:orders:x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := m.DocPut(ctx, "bonds:orders:x", `{"id":"x"}`); err != nil {
		t.Fatalf("DocPut: %v", err)
	}
	doc, err := m.DocGet(ctx, "bonds:orders:x")
	if err != nil {
		t.Fatalf("DocGet: %v", err)
	}
	if doc != `{"id":"x"}` {
		t.Errorf("unexpected doc: %s", doc)
	}

	// Перезапись
	m.DocPut(ctx, "bonds:orders:x", `{"id":"x","status":"FILLED"}`)
	doc, _ = m.DocGet(ctx, "bonds:orders:x")
	if doc != `{"id":"x","status":"FILLED"}` {
		t.Error("DocPut must overwrite")
	}
}

func TestMemoryZRangeOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := "bonds:asks:GOVT10Y"

	m.ZAdd(ctx, key, 98.75, "b")
	m.ZAdd(ctx, key, 98.50, "a")
	m.ZAdd(ctx, key, 99.00, "c")

	asc, _ := m.ZRangeAsc(ctx, key)
	if len(asc) != 3 || asc[0].Member != "a" || asc[1].Member != "b" || asc[2].Member != "c" {
		t.Errorf("ascending order wrong: %+v", asc)
	}

	desc, _ := m.ZRangeDesc(ctx, key)
	if len(desc) != 3 || desc[0].Member != "c" || desc[1].Member != "b" || desc[2].Member != "a" {
		t.Errorf("descending order wrong: %+v", desc)
	}
}

func TestMemoryZRangeFIFOAtEqualScore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := "bonds:bids:GOVT10Y"

	// Три записи на одном ценовом уровне; member начинается с
	// монотонного id, как настоящие документы ордеров
	m.ZAdd(ctx, key, 98.50, `{"id":"003-later"}`)
	m.ZAdd(ctx, key, 98.50, `{"id":"001-first"}`)
	m.ZAdd(ctx, key, 98.50, `{"id":"002-second"}`)

	// FIFO по id в обоих направлениях обхода
	asc, _ := m.ZRangeAsc(ctx, key)
	desc, _ := m.ZRangeDesc(ctx, key)
	want := []string{`{"id":"001-first"}`, `{"id":"002-second"}`, `{"id":"003-later"}`}
	for i := range want {
		if asc[i].Member != want[i] {
			t.Errorf("asc[%d] = %s, want %s", i, asc[i].Member, want[i])
		}
		if desc[i].Member != want[i] {
			t.Errorf("desc[%d] = %s, want %s", i, desc[i].Member, want[i])
		}
	}
}

func TestMemoryZRangeReinsertKeepsPriority(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := "bonds:asks:GOVT10Y"

	m.ZAdd(ctx, key, 98.50, `{"id":"001","remainingQuantity":1000}`)
	m.ZAdd(ctx, key, 98.50, `{"id":"002","remainingQuantity":500}`)

	// Частичное исполнение: снимок с тем же id переписывается на том
	// же уровне и сохраняет исходный приоритет времени
	m.ZRem(ctx, key, `{"id":"001","remainingQuantity":1000}`)
	m.ZAdd(ctx, key, 98.50, `{"id":"001","remainingQuantity":400}`)

	asc, _ := m.ZRangeAsc(ctx, key)
	if asc[0].Member != `{"id":"001","remainingQuantity":400}` {
		t.Errorf("reinserted snapshot must keep its original priority: %+v", asc)
	}
}

func TestMemoryZRem(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := "bonds:bids:GOVT10Y"

	m.ZAdd(ctx, key, 98.50, "a")
	m.ZRem(ctx, key, "a")
	// Идемпотентность
	if err := m.ZRem(ctx, key, "a"); err != nil {
		t.Errorf("ZRem must be idempotent: %v", err)
	}
	if err := m.ZRem(ctx, key, "never-existed"); err != nil {
		t.Errorf("ZRem of absent member must not fail: %v", err)
	}

	asc, _ := m.ZRangeAsc(ctx, key)
	if len(asc) != 0 {
		t.Errorf("expected empty book, got %+v", asc)
	}
}

func TestMemorySets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := "bonds:user-trades:U1"

	m.SAdd(ctx, key, "bonds:trades:t1")
	m.SAdd(ctx, key, "bonds:trades:t2")
	// Повторная вставка не дублирует
	m.SAdd(ctx, key, "bonds:trades:t1")

	members, _ := m.SMembers(ctx, key)
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}

	empty, _ := m.SMembers(ctx, "bonds:user-trades:nobody")
	if len(empty) != 0 {
		t.Error("absent set must enumerate empty")
	}
}

func TestMemoryScanPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.DocPut(ctx, "bonds:trades:t1", "{}")
	m.DocPut(ctx, "bonds:trades:t2", "{}")
	m.DocPut(ctx, "bonds:orders:o1", "{}")

	keys, _ := m.ScanPrefix(ctx, "bonds:trades:")
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "bonds:trades:t1" || keys[1] != "bonds:trades:t2" {
		t.Errorf("unexpected scan result: %v", keys)
	}
}
