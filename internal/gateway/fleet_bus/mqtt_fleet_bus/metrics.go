package mqtt_fleet_bus

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	publishCnt  prometheus.Counter
	getCnt      prometheus.Counter
	droppedCnt  prometheus.Counter
	errCnt      prometheus.Counter
	connLostCnt prometheus.Counter
}

func newMetrics() *metrics {
	const ss = "mqtt_fleet_bus"
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
		errCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "err_cnt",
			Subsystem: ss,
			Help:      "Count of failed broker operations",
		}),
		connLostCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "conn_lost_cnt",
			Subsystem: ss,
			Help:      "Count of lost broker connections",
		}),
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{
		m.publishCnt,
		m.getCnt,
		m.droppedCnt,
		m.errCnt,
		m.connLostCnt,
	}
}
