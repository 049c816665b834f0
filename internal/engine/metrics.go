package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики движка матчинга
// ============================================================
//
// Использование:
// - Grafana дашборды: поток ордеров/сделок, латентность матчинга
// - Alertmanager: рост отказов комплаенса, битые записи книги

// ordersProcessed - обработанные сабмишены по сторонам
var ordersProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "bondmarket",
		Subsystem: "engine",
		Name:      "orders_processed_total",
		Help:      "Number of successfully processed order submissions",
	},
	[]string{"side"},
)

// tradesExecuted - исполненные сделки
var tradesExecuted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bondmarket",
	Subsystem: "engine",
	Name:      "trades_executed_total",
	Help:      "Number of executed trades",
})

// complianceRejections - отклоненные комплаенсом сабмишены
var complianceRejections = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bondmarket",
	Subsystem: "engine",
	Name:      "compliance_rejections_total",
	Help:      "Number of submissions rejected by the compliance gate",
})

// malformedBookEntries - пропущенные битые записи книги
var malformedBookEntries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bondmarket",
	Subsystem: "engine",
	Name:      "malformed_book_entries_total",
	Help:      "Number of undecodable order book entries skipped during matching",
})

// matchLatency - латентность полного сабмишена
//
// Buckets от 0.1ms до ~1.6s: store-backed матчинг на порядки
// медленнее in-memory движков
var matchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "bondmarket",
	Subsystem: "engine",
	Name:      "process_order_seconds",
	Help:      "Wall time of a full order submission including matching and persistence",
	Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
})

// tradeNotional - денежный объем сделок
var tradeNotional = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "bondmarket",
	Subsystem: "engine",
	Name:      "trade_notional",
	Help:      "Notional value (price * quantity) of executed trades",
	Buckets:   prometheus.ExponentialBuckets(1000, 10, 7),
})
