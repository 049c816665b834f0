package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bondmarket/internal/compliance"
	"bondmarket/internal/models"
	"bondmarket/internal/store"
)

// engine.go - движок матчинга лимитных ордеров
//
// Назначение:
// Принимает входящий ордер, прогоняет его через комплаенс, сохраняет,
// исполняет price-time priority матчинг против противоположной
// стороны книги того же инструмента, создает и индексирует сделки,
// обновляет состояния ордеров и возвращает список исполненных сделок
// в порядке матчинга.
//
// Книги заявок:
// - Биды (покупки): потребляются от наибольшей цены
// - Аски (продажи): потребляются от наименьшей цены
// - Внутри ценового уровня - порядок вставки (FIFO, см. store)
//
// Движок - единственный писатель ордеров и сделок. Сабмишены одного
// инструмента сериализуются per-instrument mutex'ом; разные
// инструменты идут параллельно.

// Ошибки движка
var (
	// ErrInvalidInput - неположительная цена/количество, пустой
	// пользователь или инструмент. Состояние не изменено.
	ErrInvalidInput = errors.New("engine: invalid order input")

	// ErrComplianceRejected - комплаенс отклонил сабмишен. Состояние
	// не изменено.
	ErrComplianceRejected = errors.New("engine: compliance rejected")

	// ErrStoreUnavailable - операция хранилища упала. Сабмишен в
	// неопределенном состоянии, вызывающая сторона сверяется по
	// документам.
	ErrStoreUnavailable = errors.New("engine: store unavailable")

	// ErrInternalEncode - движок не смог сериализовать собственный
	// ордер или сделку; ошибка программирования
	ErrInternalEncode = errors.New("engine: internal encode error")

	// ErrNotSupported - операция зарезервирована, но не реализована
	ErrNotSupported = errors.New("engine: operation not supported")

	// ErrOrderNotFound / ErrTradeNotFound - документ отсутствует
	ErrOrderNotFound = errors.New("engine: order not found")
	ErrTradeNotFound = errors.New("engine: trade not found")
)

// TradeRecorder индексирует исполненную сделку (реализуется ledger)
type TradeRecorder interface {
	RecordTrade(ctx context.Context, trade *models.Trade) error
}

// TradePublisher получает каждую исполненную сделку после отчетности
// (реализуется websocket-хабом). Публикация best-effort.
type TradePublisher interface {
	PublishTrade(trade *models.Trade)
}

// MatchingEngine - ядро матчинга
type MatchingEngine struct {
	store     store.Store
	gate      compliance.Gate
	ledger    TradeRecorder
	publisher TradePublisher
	log       *zap.Logger

	// Per-instrument сериализация сабмишенов
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMatchingEngine создает движок
//
// publisher опционален (nil = без трансляции сделок).
func NewMatchingEngine(st store.Store, gate compliance.Gate, ledger TradeRecorder, log *zap.Logger) *MatchingEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &MatchingEngine{
		store:  st,
		gate:   gate,
		ledger: ledger,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

// SetPublisher подключает трансляцию исполненных сделок
func (e *MatchingEngine) SetPublisher(p TradePublisher) {
	e.publisher = p
}

// instrumentLock возвращает mutex инструмента, создавая при первом
// обращении. Локи живут вечно: множество инструментов ограничено.
func (e *MatchingEngine) instrumentLock(instrument string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[instrument]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[instrument] = mu
	}
	return mu
}

// ProcessOrder проводит входящий ордер через матчинг
//
// Последовательность:
//  1. Валидация и комплаенс - отказ без изменения состояния
//  2. Сохранение агрессора (до матчинга: ledger-выборки должны
//     резолвить userId обеих сторон уже для первой сделки)
//  3. Матчинг против противоположной книги
//  4. Постановка остатка агрессора в свою книгу
//  5. Финальное сохранение агрессора
//  6. Отчетность по каждой сделке в порядке матчинга
//
// Возвращает сделки в порядке исполнения; пустой список - ордер
// полностью пассивен.
func (e *MatchingEngine) ProcessOrder(ctx context.Context, aggressor *models.Order) ([]*models.Trade, error) {
	start := time.Now()

	if err := validateSubmission(aggressor); err != nil {
		return nil, err
	}

	if !e.gate.IsUserCompliant(aggressor.UserID) || !e.gate.PreTradeCheck(aggressor) {
		complianceRejections.Inc()
		return nil, fmt.Errorf("%w: order %s user %s", ErrComplianceRejected, aggressor.ID, aggressor.UserID)
	}

	// Сериализация по инструменту на весь сабмишен
	mu := e.instrumentLock(aggressor.Instrument)
	mu.Lock()
	defer mu.Unlock()

	if err := e.saveOrder(ctx, aggressor); err != nil {
		return nil, err
	}

	trades, err := e.match(ctx, aggressor)
	if err != nil {
		return nil, err
	}

	// Остаток встает в книгу; статус продвигается до сохранения,
	// чтобы снимок в книге был согласован
	if aggressor.RemainingQuantity.IsPositive() {
		if aggressor.RemainingQuantity.LessThan(aggressor.InitialQuantity) {
			aggressor.Status = models.StatusPartiallyFilled
		} else {
			aggressor.Status = models.StatusOpen
		}
		if err := e.addToBook(ctx, aggressor); err != nil {
			return nil, err
		}
	} else {
		aggressor.Status = models.StatusFilled
	}

	if err := e.saveOrder(ctx, aggressor); err != nil {
		return nil, err
	}

	for _, trade := range trades {
		e.gate.ReportTrade(trade)
		if e.publisher != nil {
			e.publisher.PublishTrade(trade)
		}
	}

	ordersProcessed.WithLabelValues(string(aggressor.Side)).Inc()
	matchLatency.Observe(time.Since(start).Seconds())

	e.log.Info("order processed",
		zap.String("order_id", aggressor.ID),
		zap.String("instrument", aggressor.Instrument),
		zap.String("side", string(aggressor.Side)),
		zap.String("status", string(aggressor.Status)),
		zap.Int("trades", len(trades)))

	return trades, nil
}

// match исполняет price-time priority матчинг агрессора
//
// Противоположная книга перебирается в порядке приоритета: для
// покупки - аски по возрастанию цены, для продажи - биды по убыванию.
// Первый некроссящийся уровень останавливает перебор: дальше по
// порядку кросса быть не может.
func (e *MatchingEngine) match(ctx context.Context, aggressor *models.Order) ([]*models.Trade, error) {
	trades := []*models.Trade{}
	oppositeKey := store.BookKey(aggressor.Side.Opposite(), aggressor.Instrument)

	var entries []store.ZEntry
	var err error
	if aggressor.Side == models.SideBuy {
		entries, err = e.store.ZRangeAsc(ctx, oppositeKey)
	} else {
		entries, err = e.store.ZRangeDesc(ctx, oppositeKey)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read book %s: %v", ErrStoreUnavailable, oppositeKey, err)
	}

	for _, entry := range entries {
		if aggressor.RemainingQuantity.IsZero() {
			break
		}

		resting, decErr := models.DecodeOrder(entry.Member)
		if decErr != nil {
			// Битая запись книги не фатальна: пропускаем и идем дальше
			e.log.Warn("skipping malformed book entry",
				zap.String("book", oppositeKey), zap.Error(decErr))
			malformedBookEntries.Inc()
			continue
		}

		if !crosses(aggressor, resting.Price) {
			break
		}

		qty := decimal.Min(aggressor.RemainingQuantity, resting.RemainingQuantity)
		if err := aggressor.ApplyFill(qty); err != nil {
			return nil, fmt.Errorf("aggressor fill: %w", err)
		}
		if err := resting.ApplyFill(qty); err != nil {
			return nil, fmt.Errorf("resting fill: %w", err)
		}

		// Цена исполнения - цена пассивного ордера
		trade := models.NewTrade(aggressor, resting, resting.Price, qty)
		if err := e.saveTrade(ctx, trade); err != nil {
			return nil, err
		}
		if err := e.ledger.RecordTrade(ctx, trade); err != nil {
			return nil, fmt.Errorf("%w: record trade %s: %v", ErrStoreUnavailable, trade.ID, err)
		}
		trades = append(trades, trade)

		tradesExecuted.Inc()
		tradeNotional.Observe(trade.Amount().InexactFloat64())

		// Потребленный снимок уходит из книги; остаток возвращается
		// обновленным снимком на своей цене
		if err := e.store.ZRem(ctx, oppositeKey, entry.Member); err != nil {
			return nil, fmt.Errorf("%w: remove book entry: %v", ErrStoreUnavailable, err)
		}
		if resting.RemainingQuantity.IsPositive() {
			if err := e.addToBook(ctx, resting); err != nil {
				return nil, err
			}
		}
		if err := e.saveOrder(ctx, resting); err != nil {
			return nil, err
		}
	}

	return trades, nil
}

// crosses проверяет кроссируемость цен: покупка кроссит при цене
// агрессора >= цены пассивного, продажа - при <=. Равенство кроссит.
func crosses(aggressor *models.Order, restingPrice decimal.Decimal) bool {
	if aggressor.Side == models.SideBuy {
		return aggressor.Price.GreaterThanOrEqual(restingPrice)
	}
	return aggressor.Price.LessThanOrEqual(restingPrice)
}

// validateSubmission проверяет предусловия сабмишена
func validateSubmission(o *models.Order) error {
	if o == nil {
		return fmt.Errorf("%w: nil order", ErrInvalidInput)
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if o.Status != models.StatusOpen || !o.RemainingQuantity.Equal(o.InitialQuantity) {
		return fmt.Errorf("%w: submission must be a fresh open order", ErrInvalidInput)
	}
	return nil
}

// saveOrder сохраняет документ ордера
func (e *MatchingEngine) saveOrder(ctx context.Context, o *models.Order) error {
	doc, err := models.EncodeOrder(o)
	if err != nil {
		return fmt.Errorf("%w: order %s: %v", ErrInternalEncode, o.ID, err)
	}
	if err := e.store.DocPut(ctx, store.OrderKey(o.ID), doc); err != nil {
		return fmt.Errorf("%w: save order %s: %v", ErrStoreUnavailable, o.ID, err)
	}
	return nil
}

// saveTrade сохраняет документ сделки
func (e *MatchingEngine) saveTrade(ctx context.Context, t *models.Trade) error {
	doc, err := models.EncodeTrade(t)
	if err != nil {
		return fmt.Errorf("%w: trade %s: %v", ErrInternalEncode, t.ID, err)
	}
	if err := e.store.DocPut(ctx, store.TradeKey(t.ID), doc); err != nil {
		return fmt.Errorf("%w: save trade %s: %v", ErrStoreUnavailable, t.ID, err)
	}
	return nil
}

// addToBook ставит снимок ордера в книгу его стороны со score=price
func (e *MatchingEngine) addToBook(ctx context.Context, o *models.Order) error {
	doc, err := models.EncodeOrder(o)
	if err != nil {
		return fmt.Errorf("%w: order %s: %v", ErrInternalEncode, o.ID, err)
	}
	key := store.BookKey(o.Side, o.Instrument)
	if err := e.store.ZAdd(ctx, key, o.Price.InexactFloat64(), doc); err != nil {
		return fmt.Errorf("%w: book insert %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

// GetOrder возвращает актуальный документ ордера
//
// Авторитетное состояние ордера - документ, не снимок в книге.
func (e *MatchingEngine) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	doc, err := e.store.DocGet(ctx, store.OrderKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load order %s: %v", ErrStoreUnavailable, id, err)
	}
	o, err := models.DecodeOrder(doc)
	if err != nil {
		return nil, fmt.Errorf("decode order %s: %w", id, err)
	}
	return o, nil
}

// GetTrade возвращает документ сделки
func (e *MatchingEngine) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	doc, err := e.store.DocGet(ctx, store.TradeKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load trade %s: %v", ErrStoreUnavailable, id, err)
	}
	t, err := models.DecodeTrade(doc)
	if err != nil {
		return nil, fmt.Errorf("decode trade %s: %w", id, err)
	}
	return t, nil
}

// CancelOrder - зарезервированный хук отмены
//
// Отмена и замена пассивных ордеров в ядре не поддерживаются;
// статус CANCELLED существует в модели, но движком не выставляется.
func (e *MatchingEngine) CancelOrder(_ context.Context, id string) error {
	return fmt.Errorf("%w: cancel order %s", ErrNotSupported, id)
}
