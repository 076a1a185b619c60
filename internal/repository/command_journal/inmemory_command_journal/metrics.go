package inmemory_command_journal

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	appendCnt     prometheus.Counter
	sizeItemGauge prometheus.GaugeFunc
}

func newMetrics(repo *inmemoryCommandJournal) *metrics {
	const ss = "inmemory_command_journal"
	return &metrics{
		appendCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "append_cnt",
			Subsystem: ss,
			Help:      "Count of journaled commands",
		}),
		sizeItemGauge: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:      "size_items_gauge",
			Subsystem: ss,
			Help:      "Actual count of entries in journal",
		}, func() float64 {
			repo.mu.RLock()
			defer repo.mu.RUnlock()
			return float64(len(repo.entries))
		}),
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{
		m.appendCnt,
		m.sizeItemGauge,
	}
}
