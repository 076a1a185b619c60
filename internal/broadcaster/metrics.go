package broadcaster

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	publishCnt prometheus.Counter
	errCnt     prometheus.Counter
}

func newMetrics() *metrics {
	const ss = "broadcaster"
	return &metrics{
		publishCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "publish_cnt",
			Subsystem: ss,
			Help:      "Count of discovery heartbeats",
		}),
		errCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "err_cnt",
			Subsystem: ss,
			Help:      "Count of failed heartbeat publishes",
		}),
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{
		m.publishCnt,
		m.errCnt,
	}
}
