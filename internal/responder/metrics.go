package responder

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requestsCnt prometheus.Counter
	missesCnt   prometheus.Counter
	errCnt      prometheus.Counter
}

func newMetrics(key string) *metrics {
	const ss = "responder"
	labels := prometheus.Labels{"key": key}
	return &metrics{
		requestsCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "requests_cnt",
			Subsystem:   ss,
			Help:        "Count of incoming queries",
			ConstLabels: labels,
		}),
		missesCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "misses_cnt",
			Subsystem:   ss,
			Help:        "Count of queries for keys not in registry",
			ConstLabels: labels,
		}),
		errCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "err_cnt",
			Subsystem:   ss,
			Help:        "Count of failed replies",
			ConstLabels: labels,
		}),
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsCnt,
		m.missesCnt,
		m.errCnt,
	}
}
