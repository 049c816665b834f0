package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bondmarket/internal/api/handlers"
	"bondmarket/internal/api/middleware"
	"bondmarket/internal/engine"
	"bondmarket/internal/ledger"
	"bondmarket/internal/websocket"
	"bondmarket/pkg/ratelimit"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Engine     *engine.MatchingEngine
	Ledger     *ledger.Service
	Hub        *websocket.Hub
	Logger     *zap.Logger
	APIKeyHash string
	Limiter    *ratelimit.RateLimiter
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /orders
//	│   ├── POST /          - сабмишен лимитного ордера
//	│   └── GET /{id}       - документ ордера
//	├── /trades
//	│   └── GET /{id}       - документ сделки
//	└── /ledger
//	    ├── GET /                         - выборка журнала с фильтрами
//	    ├── GET /user/{userId}            - сделки пользователя
//	    ├── GET /instrument/{instrument}  - сделки инструмента
//	    └── GET /today                    - сделки за сегодня
//
// /ws/trades - WebSocket фид исполненных сделок
// /healthz   - liveness probe
// /metrics   - Prometheus метрики
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. RateLimit (для /api/v1)
// 5. APIKeyAuth (для /api/v1; выключен без сконфигурированного хеша)
func SetupRoutes(deps *Dependencies) *mux.Router {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	tradeHandler := handlers.NewTradeHandler(deps.Engine)
	ledgerHandler := handlers.NewLedgerHandler(deps.Ledger)

	// Служебные endpoints вне rate limit и auth
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// WebSocket фид сделок
	if deps.Hub != nil {
		router.HandleFunc("/ws/trades", deps.Hub.ServeWS)
	}

	// API v1
	v1 := router.PathPrefix("/api/v1").Subrouter()
	if deps.Limiter != nil {
		v1.Use(middleware.RateLimit(deps.Limiter))
	}
	v1.Use(middleware.APIKeyAuth(deps.APIKeyHash))

	v1.HandleFunc("/orders", tradeHandler.SubmitOrder).Methods(http.MethodPost)
	v1.HandleFunc("/orders/{id}", tradeHandler.GetOrder).Methods(http.MethodGet)
	v1.HandleFunc("/trades/{id}", tradeHandler.GetTrade).Methods(http.MethodGet)

	v1.HandleFunc("/ledger", ledgerHandler.Query).Methods(http.MethodGet)
	v1.HandleFunc("/ledger/user/{userId}", ledgerHandler.ByUser).Methods(http.MethodGet)
	v1.HandleFunc("/ledger/instrument/{instrument}", ledgerHandler.ByInstrument).Methods(http.MethodGet)
	v1.HandleFunc("/ledger/today", ledgerHandler.Today).Methods(http.MethodGet)

	return router
}
