package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"bondmarket/internal/models"
)

// Hub управляет всеми активными WebSocket соединениями фида сделок
//
// Назначение:
// Центральный менеджер broadcast'а: каждая исполненная сделка
// рассылается всем подключенным клиентам. Подписчики не посылают
// команд - фид односторонний.
//
// Использование:
// 1. Создать hub: hub := NewHub(log)
// 2. Запустить в горутине: go hub.Run()
// 3. Подключить к движку: engine.SetPublisher(hub)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для рассылки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex

	log *zap.Logger
}

// NewHub создает новый Hub
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// PublishTrade реализует engine.TradePublisher: сериализует сделку
// в сообщение фида и ставит в broadcast
//
// Best-effort: при переполненном broadcast-канале сообщение
// отбрасывается, сабмишен не блокируется.
func (h *Hub) PublishTrade(trade *models.Trade) {
	msg := NewTradeExecutedMessage(trade)
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("trade feed marshal failed", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("trade feed backlog full, dropping message",
			zap.String("trade_id", trade.ID))
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
//
// Рассылка идет без удержания write-lock: список клиентов копируется
// под коротким RLock, медленные клиенты помечаются и удаляются
// отдельным проходом.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("feed client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("feed client disconnected", zap.Int("total", total))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Клиент не вычитывает фид - отключаем
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				total := len(h.clients)
				h.mu.Unlock()
				h.log.Warn("removed slow feed clients",
					zap.Int("removed", len(toRemove)), zap.Int("total", total))
			}
		}
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
