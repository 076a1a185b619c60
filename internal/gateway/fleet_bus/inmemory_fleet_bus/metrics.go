package inmemory_fleet_bus

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	publishCnt     prometheus.Counter
	getCnt         prometheus.Counter
	droppedCnt     prometheus.Counter
	subsCountGauge prometheus.GaugeFunc
}

func newMetrics(bus *InmemoryFleetBus) *metrics {
	const ss = "inmemory_fleet_bus"
	return &metrics{
		publishCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "publish_cnt",
			Subsystem: ss,
			Help:      "Count of published messages",
		}),
		getCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "get_cnt",
			Subsystem: ss,
			Help:      "Count of issued get requests",
		}),
		droppedCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "dropped_cnt",
			Subsystem: ss,
			Help:      "Count of messages dropped on full channels",
		}),
		subsCountGauge: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:      "subs_count_gauge",
			Subsystem: ss,
			Help:      "Actual count of active subscriptions",
		}, func() float64 {
			bus.mu.RLock()
			defer bus.mu.RUnlock()
			return float64(len(bus.subs) + len(bus.queryables))
		}),
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{
		m.publishCnt,
		m.getCnt,
		m.droppedCnt,
		m.subsCountGauge,
	}
}
