package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"bondmarket/internal/engine"
	"bondmarket/internal/models"
	"bondmarket/pkg/utils"
)

// TradeHandler отвечает за прием ордеров и чтение документов
//
// Endpoints:
// - POST /api/v1/orders       - сабмишен лимитного ордера
// - GET /api/v1/orders/{id}   - документ ордера
// - GET /api/v1/trades/{id}   - документ сделки
type TradeHandler struct {
	engine *engine.MatchingEngine
}

// NewTradeHandler создает новый TradeHandler с внедрением зависимостей
func NewTradeHandler(eng *engine.MatchingEngine) *TradeHandler {
	return &TradeHandler{
		engine: eng,
	}
}

// SubmitOrderRequest структура запроса на сабмишен ордера
type SubmitOrderRequest struct {
	Instrument string `json:"instrument"` // GOVT10Y
	Side       string `json:"side"`       // BUY | SELL
	Price      string `json:"price"`      // точная десятичная строка
	Quantity   string `json:"quantity"`   // точная десятичная строка
	UserID     string `json:"userId"`
}

// SubmitOrderResponse структура ответа на сабмишен
type SubmitOrderResponse struct {
	Order  *models.Order   `json:"order"`
	Trades []*models.Trade `json:"trades"`
}

// SubmitOrder принимает лимитный ордер и прогоняет его через матчинг
// POST /api/v1/orders
//
// Request Body:
//
//	{
//	  "instrument": "GOVT10Y",
//	  "side": "BUY",
//	  "price": "98.50",
//	  "quantity": "1000",
//	  "userId": "U1"
//	}
//
// Возвращает финальное состояние ордера и сделки в порядке матчинга.
func (h *TradeHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "invalid JSON body")
		return
	}

	order, err := buildOrder(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}

	trades, err := h.engine.ProcessOrder(r.Context(), order)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitOrderResponse{Order: order, Trades: trades})
}

// buildOrder валидирует запрос и собирает доменный ордер
func buildOrder(req *SubmitOrderRequest) (*models.Order, error) {
	if err := utils.ValidateInstrument(req.Instrument); err != nil {
		return nil, err
	}
	if err := utils.ValidateUserID(req.UserID); err != nil {
		return nil, err
	}
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}
	price, err := utils.ParsePositiveDecimal("price", req.Price)
	if err != nil {
		return nil, err
	}
	quantity, err := utils.ParsePositiveDecimal("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	return models.NewOrder(req.Instrument, side, price, quantity, req.UserID)
}

// parseSide разбирает сторону ордера (BUY/SELL, регистронезависимо)
func parseSide(raw string) (models.OrderSide, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(models.SideBuy):
		return models.SideBuy, nil
	case string(models.SideSell):
		return models.SideSell, nil
	default:
		return "", fmt.Errorf("side must be BUY or SELL, got %q", raw)
	}
}

// GetOrder возвращает актуальный документ ордера
// GET /api/v1/orders/{id}
func (h *TradeHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := h.engine.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "order not found")
			return
		}
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// GetTrade возвращает документ сделки
// GET /api/v1/trades/{id}
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	trade, err := h.engine.GetTrade(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrTradeNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "trade not found")
			return
		}
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trade)
}

// writeEngineError отображает типизированные ошибки движка на HTTP статусы
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
	case errors.Is(err, engine.ErrComplianceRejected):
		writeError(w, http.StatusForbidden, CodeComplianceRejected, err.Error())
	case errors.Is(err, engine.ErrStoreUnavailable):
		// Сабмишен в неопределенном состоянии: клиент сверяется по
		// документам ордеров
		writeError(w, http.StatusBadGateway, CodeStoreUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}
