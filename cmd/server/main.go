package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bondmarket/internal/api"
	"bondmarket/internal/compliance"
	"bondmarket/internal/config"
	"bondmarket/internal/engine"
	"bondmarket/internal/ledger"
	"bondmarket/internal/repository"
	"bondmarket/internal/store"
	"bondmarket/internal/websocket"
	"bondmarket/pkg/ratelimit"
	"bondmarket/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логирования
	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Инициализация операционного хранилища
	st, closeStore, err := initStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to init store", zap.Error(err))
	}
	defer closeStore()

	logger.Info("store ready", zap.String("backend", cfg.Store.Backend))

	// Комплаенс-шлюз; с настроенной БД - с регуляторным журналом
	var gate compliance.Gate = compliance.NewDefaultGate(logger)
	if cfg.AuditEnabled() {
		db, err := initDatabase(cfg)
		if err != nil {
			logger.Fatal("failed to connect to audit database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("audit journal connected",
			zap.String("dsn", cfg.Database.DSNWithoutPassword()))
		gate = compliance.NewAuditGate(gate, repository.NewReportRepository(db), logger)
	}

	// Инициализация сервисов
	ledgerService := ledger.NewService(st, logger)
	matchingEngine := engine.NewMatchingEngine(st, gate, ledgerService, logger)

	// WebSocket фид сделок
	hub := websocket.NewHub(logger)
	go hub.Run()
	matchingEngine.SetPublisher(hub)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		Engine:     matchingEngine,
		Ledger:     ledgerService,
		Hub:        hub,
		Logger:     logger,
		APIKeyHash: cfg.Security.APIKeyHash,
		Limiter:    ratelimit.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// initStore создает операционное хранилище по конфигурации
func initStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		r, err := store.Dial(ctx, cfg.Store.Addr, cfg.Store.Password, cfg.Store.DB)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	default:
		// In-memory: состояние живет до рестарта процесса
		return store.NewMemory(), func() {}, nil
	}
}

// initDatabase подключается к Postgres регуляторного журнала
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
