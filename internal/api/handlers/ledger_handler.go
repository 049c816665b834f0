package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"bondmarket/internal/ledger"
	"bondmarket/pkg/utils"
)

// LedgerHandler отвечает за фильтрованный доступ к журналу сделок
//
// Endpoints:
// - GET /api/v1/ledger                          - выборка с фильтрами
// - GET /api/v1/ledger/user/{userId}            - сделки пользователя
// - GET /api/v1/ledger/instrument/{instrument}  - сделки инструмента
// - GET /api/v1/ledger/today                    - сделки за сегодня
type LedgerHandler struct {
	ledger *ledger.Service
}

// NewLedgerHandler создает новый LedgerHandler
func NewLedgerHandler(svc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		ledger: svc,
	}
}

// Query возвращает сделки по фильтрам
// GET /api/v1/ledger?userId=&instrument=&startDate=&endDate=&minAmount=&maxAmount=
//
// Даты в формате YYYYMMDD, суммы - точные десятичные строки.
// Порядок результата не гарантирован.
func (h *LedgerHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := ledger.Filter{
		UserID:     q.Get("userId"),
		Instrument: q.Get("instrument"),
		StartDay:   q.Get("startDate"),
		EndDay:     q.Get("endDate"),
	}

	for _, day := range []string{filter.StartDay, filter.EndDay} {
		if day == "" {
			continue
		}
		if err := utils.ValidateDayKey(day); err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
			return
		}
	}

	if raw := q.Get("minAmount"); raw != "" {
		amount, err := utils.ParsePositiveDecimal("minAmount", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
			return
		}
		filter.MinAmount = &amount
	}
	if raw := q.Get("maxAmount"); raw != "" {
		amount, err := utils.ParsePositiveDecimal("maxAmount", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
			return
		}
		filter.MaxAmount = &amount
	}

	h.respond(w, r, filter)
}

// ByUser возвращает сделки, где пользователь покупатель или продавец
// GET /api/v1/ledger/user/{userId}
func (h *LedgerHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := utils.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}
	h.respond(w, r, ledger.Filter{UserID: userID})
}

// ByInstrument возвращает сделки инструмента
// GET /api/v1/ledger/instrument/{instrument}
func (h *LedgerHandler) ByInstrument(w http.ResponseWriter, r *http.Request) {
	instrument := mux.Vars(r)["instrument"]
	if err := utils.ValidateInstrument(instrument); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}
	h.respond(w, r, ledger.Filter{Instrument: instrument})
}

// Today возвращает сделки за текущий день
// GET /api/v1/ledger/today
func (h *LedgerHandler) Today(w http.ResponseWriter, r *http.Request) {
	today := utils.DayKey()
	h.respond(w, r, ledger.Filter{StartDay: today, EndDay: today})
}

func (h *LedgerHandler) respond(w http.ResponseWriter, r *http.Request, filter ledger.Filter) {
	trades, err := h.ledger.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusBadGateway, CodeStoreUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Data: trades})
}
