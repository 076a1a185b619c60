package responder

import (
	"context"
	"fmt"

	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// NoSuchResourceText goes back over the normal reply channel for a
// key the responder does not hold. Clients treat all replies
// identically, so the error is a plain string by convention.
const NoSuchResourceText = "Error: no such resource"

// Responder answers get-style requests on exactly one registry key.
// It holds the whole registry by immutable reference: the map is
// never written after node startup, so sharing is safe.
type Responder struct {
	key       string
	resources map[string]string
	bus       fleet_bus.Gateway
	logger    zerolog.Logger
	metrics   *metrics
}

func New(
	bus fleet_bus.Gateway,
	key string,
	resources map[string]string,
	logger zerolog.Logger,
) *Responder {
	return &Responder{
		key:       key,
		resources: resources,
		bus:       bus,
		logger:    logger,
		metrics:   newMetrics(key),
	}
}

func (r *Responder) Metrics() []prometheus.Collector {
	return r.metrics.list()
}

// Run serves requests until the transport closes the channel or ctx
// is canceled. Channel closure is not an error: the node keeps
// running its other responders.
func (r *Responder) Run(ctx context.Context) error {
	q, err := r.bus.DeclareQueryable(r.key)
	if err != nil {
		return fmt.Errorf("declaring queryable for %s: %w", r.key, err)
	}

	r.logger.Info().Str("key", r.key).Msg("responder started")

	for {
		select {
		case <-ctx.Done():
			_ = q.Close()
			return nil

		case inbound, ok := <-q.C():
			if !ok {
				r.logger.Info().Str("key", r.key).Msg("responder channel closed by transport")
				return nil
			}
			r.handle(ctx, inbound)
		}
	}
}

func (r *Responder) handle(ctx context.Context, inbound fleet_bus.InboundQuery) {
	r.metrics.requestsCnt.Inc()

	requestedKey := inbound.Key()
	r.logger.Debug().Str("key", requestedKey).Msg("received query")

	value, found := r.resources[requestedKey]
	if !found {
		// Exact subscription should make this unreachable.
		r.metrics.missesCnt.Inc()
		value = NoSuchResourceText
	}

	if err := inbound.Reply(ctx, []byte(value)); err != nil {
		r.metrics.errCnt.Inc()
		r.logger.
			Warn().
			Err(fmt.Errorf("replying to query for %s: %w", requestedKey, err)).
			Send()
	}
}
