package dispatcher

import (
	"github.com/horockey/go-toolbox/prometheus_helpers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	handleTimeHist prometheus.Histogram
	commandsCnt    prometheus.Counter
	unknownCnt     prometheus.Counter
	actionErrCnt   prometheus.Counter
}

func newMetrics() *metrics {
	const ss = "dispatcher"
	return &metrics{
		handleTimeHist: prometheus.NewHistogram(*prometheus_helpers.NewHistOpts(
			"handle_time_hist",
			prometheus_helpers.HistOptsWithSubsystem(ss),
			prometheus_helpers.HistOptsWithHelp("Handle time distribution"),
		)),
		commandsCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "commands_cnt",
			Subsystem: ss,
			Help:      "Count of received commands",
		}),
		unknownCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "unknown_cnt",
			Subsystem: ss,
			Help:      "Count of commands with unrecognized tokens",
		}),
		actionErrCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "action_err_cnt",
			Subsystem: ss,
			Help:      "Count of external actions finished with non-nil error",
		}),
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{
		m.handleTimeHist,
		m.commandsCnt,
		m.unknownCnt,
		m.actionErrCnt,
	}
}
