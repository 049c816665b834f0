package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bondmarket/internal/models"
)

// ============================================================
// Hub Tests
// ============================================================

func sampleTrade(t *testing.T) *models.Trade {
	t.Helper()
	buy, err := models.NewOrder("GOVT10Y", models.SideBuy,
		decimal.RequireFromString("98.50"), decimal.RequireFromString("100"), "U1")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	sell, _ := models.NewOrder("GOVT10Y", models.SideSell,
		decimal.RequireFromString("98.50"), decimal.RequireFromString("100"), "U2")
	return models.NewTrade(buy, sell, sell.Price, decimal.RequireFromString("100"))
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 1), log: hub.log}
	hub.register <- client

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.unregister <- client
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// Канал клиента закрыт hub'ом
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel must be closed")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed")
	}
}

func TestHubBroadcastsPublishedTrade(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 4), log: hub.log}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	trade := sampleTrade(t)
	hub.PublishTrade(trade)

	select {
	case payload := <-client.send:
		var msg TradeExecutedMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshal feed message: %v", err)
		}
		if msg.Type != MessageTypeTradeExecuted {
			t.Errorf("unexpected type %s", msg.Type)
		}
		if msg.Data == nil || msg.Data.ID != trade.ID {
			t.Error("trade payload wrong")
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHubEvictsSlowClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	// Буфер на одно сообщение; второе сообщение переполняет
	slow := &Client{hub: hub, send: make(chan []byte, 1), log: hub.log}
	hub.register <- slow
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.PublishTrade(sampleTrade(t))
	hub.PublishTrade(sampleTrade(t))

	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
