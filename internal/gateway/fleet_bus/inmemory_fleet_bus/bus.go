package inmemory_fleet_bus

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var _ fleet_bus.Gateway = &InmemoryFleetBus{}

var ErrBusClosed = errors.New("bus is closed")

const chanCap = 64

// In-process bus. Production nodes run on the MQTT implementation;
// this one backs tests and single-process experiments.
type InmemoryFleetBus struct {
	mu         sync.RWMutex
	subs       []*subscription
	queryables []*queryable
	closed     bool
	logger     zerolog.Logger
	metrics    *metrics
}

func New(logger zerolog.Logger) *InmemoryFleetBus {
	bus := InmemoryFleetBus{
		logger: logger,
	}
	bus.metrics = newMetrics(&bus)
	return &bus
}

func (bus *InmemoryFleetBus) Publish(_ context.Context, topic string, payload []byte) error {
	bus.metrics.publishCnt.Inc()

	bus.mu.RLock()
	defer bus.mu.RUnlock()

	if bus.closed {
		return ErrBusClosed
	}

	for _, sub := range bus.subs {
		if !fleet_bus.MatchFilter(sub.filter, topic) {
			continue
		}
		select {
		case sub.ch <- fleet_bus.Message{Topic: topic, Payload: slices.Clone(payload)}:
		default:
			bus.metrics.droppedCnt.Inc()
			bus.logger.Warn().Str("topic", topic).Msg("subscriber channel full, message dropped")
		}
	}

	return nil
}

func (bus *InmemoryFleetBus) Subscribe(filter string) (fleet_bus.Subscription, error) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return nil, ErrBusClosed
	}

	sub := &subscription{
		filter: filter,
		ch:     make(chan fleet_bus.Message, chanCap),
		bus:    bus,
	}
	bus.subs = append(bus.subs, sub)

	return sub, nil
}

func (bus *InmemoryFleetBus) DeclareQueryable(key string) (fleet_bus.Queryable, error) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return nil, ErrBusClosed
	}

	q := &queryable{
		key: key,
		ch:  make(chan fleet_bus.InboundQuery, chanCap),
		bus: bus,
	}
	bus.queryables = append(bus.queryables, q)

	return q, nil
}

func (bus *InmemoryFleetBus) Get(_ context.Context, key string) (fleet_bus.Replies, error) {
	bus.metrics.getCnt.Inc()

	bus.mu.RLock()
	defer bus.mu.RUnlock()

	if bus.closed {
		return nil, ErrBusClosed
	}

	res := &replies{ch: make(chan fleet_bus.Message, chanCap)}

	for _, q := range bus.queryables {
		if q.key != key {
			continue
		}
		select {
		case q.ch <- &inboundQuery{key: key, replyCh: res.ch}:
		default:
			bus.metrics.droppedCnt.Inc()
			bus.logger.Warn().Str("key", key).Msg("queryable channel full, request dropped")
		}
	}

	return res, nil
}

// CloseSubscriptions closes every subscription and queryable matching
// filter exactly, simulating the transport tearing a channel down.
func (bus *InmemoryFleetBus) CloseSubscriptions(filter string) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for _, sub := range bus.subs {
		if sub.filter == filter {
			close(sub.ch)
		}
	}
	bus.subs = slices.DeleteFunc(bus.subs, func(sub *subscription) bool {
		return sub.filter == filter
	})

	for _, q := range bus.queryables {
		if q.key == filter {
			close(q.ch)
		}
	}
	bus.queryables = slices.DeleteFunc(bus.queryables, func(q *queryable) bool {
		return q.key == filter
	})
}

func (bus *InmemoryFleetBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return nil
	}
	bus.closed = true

	for _, sub := range bus.subs {
		close(sub.ch)
	}
	bus.subs = nil

	for _, q := range bus.queryables {
		close(q.ch)
	}
	bus.queryables = nil

	return nil
}

func (bus *InmemoryFleetBus) Metrics() []prometheus.Collector {
	return bus.metrics.list()
}

func (bus *InmemoryFleetBus) removeSub(target *subscription) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	idx := slices.Index(bus.subs, target)
	if idx < 0 {
		return
	}
	close(target.ch)
	bus.subs = slices.Delete(bus.subs, idx, idx+1)
}

func (bus *InmemoryFleetBus) removeQueryable(target *queryable) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	idx := slices.Index(bus.queryables, target)
	if idx < 0 {
		return
	}
	close(target.ch)
	bus.queryables = slices.Delete(bus.queryables, idx, idx+1)
}
