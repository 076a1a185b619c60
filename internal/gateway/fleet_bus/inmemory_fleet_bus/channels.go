package inmemory_fleet_bus

import (
	"context"

	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
)

var (
	_ fleet_bus.Subscription = &subscription{}
	_ fleet_bus.Queryable    = &queryable{}
	_ fleet_bus.InboundQuery = &inboundQuery{}
	_ fleet_bus.Replies      = &replies{}
)

type subscription struct {
	filter string
	ch     chan fleet_bus.Message
	bus    *InmemoryFleetBus
}

func (sub *subscription) C() <-chan fleet_bus.Message {
	return sub.ch
}

func (sub *subscription) Close() error {
	sub.bus.removeSub(sub)
	return nil
}

type queryable struct {
	key string
	ch  chan fleet_bus.InboundQuery
	bus *InmemoryFleetBus
}

func (q *queryable) C() <-chan fleet_bus.InboundQuery {
	return q.ch
}

func (q *queryable) Close() error {
	q.bus.removeQueryable(q)
	return nil
}

type inboundQuery struct {
	key     string
	replyCh chan fleet_bus.Message
}

func (q *inboundQuery) Key() string {
	return q.key
}

func (q *inboundQuery) Reply(_ context.Context, payload []byte) error {
	// Requester may have given up already. Never block the responder.
	select {
	case q.replyCh <- fleet_bus.Message{Topic: q.key, Payload: payload}:
	default:
	}
	return nil
}

type replies struct {
	ch chan fleet_bus.Message
}

func (r *replies) C() <-chan fleet_bus.Message {
	return r.ch
}

func (r *replies) Close() error {
	// Channel is left to the GC: responders may still hold it.
	return nil
}
