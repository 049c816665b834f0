package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики журнала сделок

// malformedRecords - счетчик пропущенных битых документов
//
// Рост счетчика - сигнал о рассинхронизации схемы или порче данных
// в store; выборки при этом продолжают работать.
var malformedRecords = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bondmarket",
	Subsystem: "ledger",
	Name:      "malformed_records_total",
	Help:      "Number of undecodable trade or order documents skipped by ledger reads",
})
