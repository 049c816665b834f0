package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bondmarket/internal/models"
	"bondmarket/internal/store"
	"bondmarket/pkg/utils"
)

// ledger.go - индексатор и фильтрованный доступ к журналу сделок
//
// Назначение:
// Ведет индексные множества ключей сделок (по пользователю,
// инструменту и дню) и отдает отфильтрованную выборку журнала.
// Единственный писатель индексных множеств; документы сделок пишет
// движок.
//
// Индексы:
// - bonds:user-trades:{userId} - покупатель и продавец каждой сделки
// - bonds:instrument-trades:{instrument}
// - bonds:daily-trades:{YYYYMMDD} - день по часам индексатора, не по
//   timestamp сделки (поведение источника данных сохранено)

// Ошибки ledger
var (
	// ErrMalformedRecord - документ не декодируется; на уровне выборки
	// не фатальна, запись пропускается
	ErrMalformedRecord = errors.New("ledger: malformed record")
)

// Filter - критерии выборки журнала; все поля опциональны
//
// Дни в формате YYYYMMDD, сравнение побайтово-лексикографическое,
// обе границы включительны. Суммы сравниваются с amount сделки
// (price * quantity) включительно.
type Filter struct {
	UserID     string
	Instrument string
	StartDay   string
	EndDay     string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// Service - сервис журнала сделок
type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewService создает сервис журнала
func NewService(st store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: st,
		log:   log,
		now:   time.Now,
	}
}

// RecordTrade вносит сделку в индексные множества
//
// Ключ сделки добавляется в индексы покупателя, продавца, инструмента
// и текущего дня. Вставки идемпотентны (set-семантика): повторная
// запись той же сделки не создает дублей. UserId сторон
// восстанавливаются из документов ордеров; недоступный или битый
// документ пропускает только соответствующий пользовательский индекс.
func (s *Service) RecordTrade(ctx context.Context, trade *models.Trade) error {
	tradeKey := store.TradeKey(trade.ID)

	if buyer, ok := s.lookupUserID(ctx, trade.BuyerOrderID); ok {
		if err := s.store.SAdd(ctx, store.UserTradesKey(buyer), tradeKey); err != nil {
			return fmt.Errorf("index buyer trades: %w", err)
		}
	}
	if seller, ok := s.lookupUserID(ctx, trade.SellerOrderID); ok {
		if err := s.store.SAdd(ctx, store.UserTradesKey(seller), tradeKey); err != nil {
			return fmt.Errorf("index seller trades: %w", err)
		}
	}

	if err := s.store.SAdd(ctx, store.InstrumentTradesKey(trade.Instrument), tradeKey); err != nil {
		return fmt.Errorf("index instrument trades: %w", err)
	}

	day := utils.DayKeyFrom(s.now())
	if err := s.store.SAdd(ctx, store.DailyTradesKey(day), tradeKey); err != nil {
		return fmt.Errorf("index daily trades: %w", err)
	}

	return nil
}

// Query возвращает сделки, удовлетворяющие фильтру
//
// Кандидаты засеиваются самым селективным из доступных индексов:
// userId > instrument > startDay > полный скан префикса документов.
// Затем каждая сделка догружается и дофильтровывается остальными
// критериями. Порядок результата не гарантирован.
func (s *Service) Query(ctx context.Context, f Filter) ([]*models.Trade, error) {
	keys, err := s.seed(ctx, f)
	if err != nil {
		return nil, err
	}

	trades := make([]*models.Trade, 0, len(keys))
	for _, key := range keys {
		doc, err := s.store.DocGet(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			// Индекс может опережать документ или пережить его
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load trade %s: %w", key, err)
		}

		trade, err := models.DecodeTrade(doc)
		if err != nil {
			// Битый документ не фатален для выборки
			s.log.Warn("skipping malformed trade record",
				zap.String("key", key), zap.Error(err))
			malformedRecords.Inc()
			continue
		}

		ok, err := s.matches(ctx, trade, f)
		if err != nil {
			return nil, err
		}
		if ok {
			trades = append(trades, trade)
		}
	}

	return trades, nil
}

// seed выбирает затравочное множество ключей сделок
func (s *Service) seed(ctx context.Context, f Filter) ([]string, error) {
	switch {
	case f.UserID != "":
		return s.store.SMembers(ctx, store.UserTradesKey(f.UserID))
	case f.Instrument != "":
		return s.store.SMembers(ctx, store.InstrumentTradesKey(f.Instrument))
	case f.StartDay != "":
		return s.store.SMembers(ctx, store.DailyTradesKey(f.StartDay))
	default:
		// Полный скан разрешен только без затравочных фильтров
		return s.store.ScanPrefix(ctx, store.TradePrefix)
	}
}

// matches применяет дофильтрацию к загруженной сделке
func (s *Service) matches(ctx context.Context, trade *models.Trade, f Filter) (bool, error) {
	if f.UserID != "" {
		buyer, _ := s.lookupUserID(ctx, trade.BuyerOrderID)
		seller, _ := s.lookupUserID(ctx, trade.SellerOrderID)
		if f.UserID != buyer && f.UserID != seller {
			return false, nil
		}
	}

	if f.Instrument != "" && f.Instrument != trade.Instrument {
		return false, nil
	}

	if f.StartDay != "" || f.EndDay != "" {
		day := trade.Day()
		if f.StartDay != "" && day < f.StartDay {
			return false, nil
		}
		if f.EndDay != "" && day > f.EndDay {
			return false, nil
		}
	}

	if f.MinAmount != nil || f.MaxAmount != nil {
		amount := trade.Amount()
		if f.MinAmount != nil && amount.LessThan(*f.MinAmount) {
			return false, nil
		}
		if f.MaxAmount != nil && amount.GreaterThan(*f.MaxAmount) {
			return false, nil
		}
	}

	return true, nil
}

// lookupUserID восстанавливает userId владельца ордера из документа
//
// Отсутствующий или битый документ трактуется как неизвестный
// пользователь: второй результат false, фильтр по этой стороне не
// проходит.
func (s *Service) lookupUserID(ctx context.Context, orderID string) (string, bool) {
	doc, err := s.store.DocGet(ctx, store.OrderKey(orderID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("order document load failed",
				zap.String("order_id", orderID), zap.Error(err))
		}
		return "", false
	}
	order, err := models.DecodeOrder(doc)
	if err != nil {
		s.log.Warn("skipping malformed order record",
			zap.String("order_id", orderID), zap.Error(err))
		malformedRecords.Inc()
		return "", false
	}
	if order.UserID == "" {
		return "", false
	}
	return order.UserID, true
}
