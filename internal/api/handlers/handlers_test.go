package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bondmarket/internal/compliance"
	"bondmarket/internal/engine"
	"bondmarket/internal/ledger"
	"bondmarket/internal/models"
	"bondmarket/internal/store"
)

// ============================================================
// Handler Tests (in-memory стек без внешних зависимостей)
// ============================================================

type apiFixture struct {
	router *mux.Router
	eng    *engine.MatchingEngine
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	st := store.NewMemory()
	led := ledger.NewService(st, zap.NewNop())
	eng := engine.NewMatchingEngine(st, compliance.NewDefaultGate(nil), led, zap.NewNop())

	tradeHandler := NewTradeHandler(eng)
	ledgerHandler := NewLedgerHandler(led)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/orders", tradeHandler.SubmitOrder).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/orders/{id}", tradeHandler.GetOrder).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/trades/{id}", tradeHandler.GetTrade).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/ledger", ledgerHandler.Query).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/ledger/user/{userId}", ledgerHandler.ByUser).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/ledger/instrument/{instrument}", ledgerHandler.ByInstrument).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/ledger/today", ledgerHandler.Today).Methods(http.MethodGet)

	return &apiFixture{router: router, eng: eng}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) submit(t *testing.T, side, price, qty, user string) SubmitOrderResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/orders", SubmitOrderRequest{
		Instrument: "GOVT10Y",
		Side:       side,
		Price:      price,
		Quantity:   qty,
		UserID:     user,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp SubmitOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	return resp
}

func TestSubmitOrderPassive(t *testing.T) {
	f := newAPI(t)

	resp := f.submit(t, "BUY", "98.50", "1000", "U1")
	if len(resp.Trades) != 0 {
		t.Errorf("expected no trades, got %d", len(resp.Trades))
	}
	if resp.Order.Status != models.StatusOpen {
		t.Errorf("expected OPEN, got %s", resp.Order.Status)
	}
}

func TestSubmitOrderMatch(t *testing.T) {
	f := newAPI(t)

	f.submit(t, "SELL", "98.50", "1000", "U2")
	resp := f.submit(t, "BUY", "98.60", "1000", "U1")

	if len(resp.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(resp.Trades))
	}
	if resp.Order.Status != models.StatusFilled {
		t.Errorf("expected FILLED, got %s", resp.Order.Status)
	}
	if !resp.Trades[0].Price.Equal(decimal.RequireFromString("98.50")) {
		t.Errorf("execution must be at the resting price, got %s", resp.Trades[0].Price)
	}
}

func TestSubmitOrderValidation(t *testing.T) {
	f := newAPI(t)

	tests := []struct {
		name string
		req  SubmitOrderRequest
	}{
		{"blank instrument", SubmitOrderRequest{Side: "BUY", Price: "98.50", Quantity: "100", UserID: "U1"}},
		{"blank user", SubmitOrderRequest{Instrument: "GOVT10Y", Side: "BUY", Price: "98.50", Quantity: "100"}},
		{"bad side", SubmitOrderRequest{Instrument: "GOVT10Y", Side: "HOLD", Price: "98.50", Quantity: "100", UserID: "U1"}},
		{"zero price", SubmitOrderRequest{Instrument: "GOVT10Y", Side: "BUY", Price: "0", Quantity: "100", UserID: "U1"}},
		{"negative quantity", SubmitOrderRequest{Instrument: "GOVT10Y", Side: "BUY", Price: "98.50", Quantity: "-1", UserID: "U1"}},
		{"garbage price", SubmitOrderRequest{Instrument: "GOVT10Y", Side: "BUY", Price: "NaN?", Quantity: "100", UserID: "U1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/orders", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var er ErrorResponse
			json.Unmarshal(rec.Body.Bytes(), &er)
			if er.Code != CodeInvalidInput {
				t.Errorf("expected code INVALID_INPUT, got %s", er.Code)
			}
		})
	}
}

func TestSubmitOrderBadJSON(t *testing.T) {
	f := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString("{broken"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetOrder(t *testing.T) {
	f := newAPI(t)
	resp := f.submit(t, "BUY", "98.50", "1000", "U1")

	rec := f.do(t, http.MethodGet, "/api/v1/orders/"+resp.Order.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var o models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if o.ID != resp.Order.ID {
		t.Error("wrong order returned")
	}

	rec = f.do(t, http.MethodGet, "/api/v1/orders/nonexistent", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetTrade(t *testing.T) {
	f := newAPI(t)
	f.submit(t, "SELL", "98.50", "500", "U2")
	resp := f.submit(t, "BUY", "98.50", "500", "U1")

	rec := f.do(t, http.MethodGet, "/api/v1/trades/"+resp.Trades[0].ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/trades/nonexistent", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// ledgerData разбирает SuccessResponse с массивом сделок
func ledgerData(t *testing.T, rec *httptest.ResponseRecorder) []*models.Trade {
	t.Helper()
	var resp struct {
		Data []*models.Trade `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode ledger response: %v", err)
	}
	return resp.Data
}

// Сквозной сценарий: сабмишены → матчи → выборки журнала
func TestEndToEndSubmitAndQuery(t *testing.T) {
	f := newAPI(t)

	// Книга: два аска, затем агрессивный бид через оба уровня
	f.submit(t, "SELL", "98.50", "400", "U2")
	f.submit(t, "SELL", "98.75", "400", "U3")
	buyResp := f.submit(t, "BUY", "98.80", "1000", "U1")

	if len(buyResp.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(buyResp.Trades))
	}

	// Полная выборка
	rec := f.do(t, http.MethodGet, "/api/v1/ledger", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger: %d", rec.Code)
	}
	if got := ledgerData(t, rec); len(got) != 2 {
		t.Errorf("full query expected 2 trades, got %d", len(got))
	}

	// По пользователю
	rec = f.do(t, http.MethodGet, "/api/v1/ledger/user/U3", nil)
	if got := ledgerData(t, rec); len(got) != 1 {
		t.Errorf("U3 expected 1 trade, got %d", len(got))
	}

	// По инструменту
	rec = f.do(t, http.MethodGet, "/api/v1/ledger/instrument/GOVT10Y", nil)
	if got := ledgerData(t, rec); len(got) != 2 {
		t.Errorf("instrument expected 2 trades, got %d", len(got))
	}

	// Сегодняшние
	rec = f.do(t, http.MethodGet, "/api/v1/ledger/today", nil)
	if got := ledgerData(t, rec); len(got) != 2 {
		t.Errorf("today expected 2 trades, got %d", len(got))
	}

	// Фильтр по сумме: 98.50*400=39400 и 98.75*400=39500; порог 39450
	today := time.Now().UTC().Format("20060102")
	url := fmt.Sprintf("/api/v1/ledger?userId=U1&instrument=GOVT10Y&startDate=%s&endDate=%s&minAmount=39450", today, today)
	rec = f.do(t, http.MethodGet, url, nil)
	got := ledgerData(t, rec)
	if len(got) != 1 || !got[0].Price.Equal(buyResp.Trades[1].Price) {
		t.Errorf("amount filter expected the 39500 trade, got %+v", got)
	}
}

func TestLedgerQueryValidation(t *testing.T) {
	f := newAPI(t)

	rec := f.do(t, http.MethodGet, "/api/v1/ledger?startDate=2026-08-05", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date expected 400, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/ledger?minAmount=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad amount expected 400, got %d", rec.Code)
	}
}
