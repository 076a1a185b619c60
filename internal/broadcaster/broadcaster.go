package broadcaster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Broadcaster heartbeats the node's ID on the discovery key. There is
// no leave announcement: going quiet for more than one interval is
// the only departure signal.
type Broadcaster struct {
	nodeID   string
	bus      fleet_bus.Gateway
	interval time.Duration
	logger   zerolog.Logger
	metrics  *metrics

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func New(
	nodeID string,
	bus fleet_bus.Gateway,
	interval time.Duration,
	logger zerolog.Logger,
) *Broadcaster {
	return &Broadcaster{
		nodeID:   nodeID,
		bus:      bus,
		interval: interval,
		logger:   logger,
		metrics:  newMetrics(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (b *Broadcaster) Metrics() []prometheus.Collector {
	return b.metrics.list()
}

// Run publishes until Stop is called. Publish failures are logged and
// the loop keeps going; nothing but the stop signal ends it.
func (b *Broadcaster) Run() {
	defer close(b.done)

	b.logger.Info().Str("key", model.DiscoveryKey).Msg("discovery broadcaster started")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.publish()

	for {
		select {
		case <-b.stop:
			b.logger.Info().Msg("discovery broadcaster stopped")
			return

		case <-ticker.C:
			// A tick can race the stop signal. Never publish after it.
			select {
			case <-b.stop:
				b.logger.Info().Msg("discovery broadcaster stopped")
				return
			default:
			}
			b.publish()
		}
	}
}

// Stop signals the loop to exit. Safe to call more than once.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
	})
}

// Done closes after the loop has observed the stop signal and exited.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

func (b *Broadcaster) publish() {
	ctx, cancel := context.WithTimeout(context.Background(), b.interval)
	defer cancel()

	b.metrics.publishCnt.Inc()
	if err := b.bus.Publish(ctx, model.DiscoveryKey, []byte(b.nodeID)); err != nil {
		b.metrics.errCnt.Inc()
		b.logger.
			Warn().
			Err(fmt.Errorf("publishing node id: %w", err)).
			Send()
	}
}
