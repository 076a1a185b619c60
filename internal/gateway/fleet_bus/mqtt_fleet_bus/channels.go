package mqtt_fleet_bus

import (
	"context"
	"fmt"

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
	bus    *mqttFleetBus
}

func (sub *subscription) C() <-chan fleet_bus.Message {
	return sub.ch
}

func (sub *subscription) Close() error {
	// Paho can still run a handler matched for an in-flight message
	// after the unsubscribe ack. Channel is left to the GC.
	return sub.bus.unsubscribe(sub.filter)
}

type queryable struct {
	key string
	ch  chan fleet_bus.InboundQuery
	bus *mqttFleetBus
}

func (q *queryable) C() <-chan fleet_bus.InboundQuery {
	return q.ch
}

func (q *queryable) Close() error {
	// Same late-delivery hazard as subscription.Close.
	return q.bus.unsubscribe(q.key)
}

type inboundQuery struct {
	key        string
	replyTopic string
	bus        *mqttFleetBus
}

func (q *inboundQuery) Key() string {
	return q.key
}

func (q *inboundQuery) Reply(ctx context.Context, payload []byte) error {
	if q.replyTopic == "" {
		return fmt.Errorf("request on %s carries no reply topic", q.key)
	}
	return q.bus.Publish(ctx, q.replyTopic, payload)
}

type replies struct {
	topic string
	ch    chan fleet_bus.Message
	bus   *mqttFleetBus
}

func (r *replies) C() <-chan fleet_bus.Message {
	return r.ch
}

func (r *replies) Close() error {
	return r.bus.unsubscribe(r.topic)
}
