package mqtt_fleet_bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var _ fleet_bus.Gateway = &mqttFleetBus{}

const (
	qos            = 1
	chanCap        = 64
	connectTimeout = 5 * time.Second
	// Get-style requests carry a reply topic as payload; repliers
	// publish their answer there. Topic is unique per request.
	replyTopicPrefix = "orbcomm/reply/"
)

type mqttFleetBus struct {
	cl      mqtt.Client
	logger  zerolog.Logger
	metrics *metrics

	mu     sync.Mutex
	closed bool
}

func New(brokerURL string, clientID string, logger zerolog.Logger) (*mqttFleetBus, error) {
	bus := mqttFleetBus{
		logger: logger,
	}
	bus.metrics = newMetrics()

	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			bus.metrics.connLostCnt.Inc()
			bus.logger.Warn().Err(err).Msg("broker connection lost")
		})

	bus.cl = mqtt.NewClient(opts)
	if err := waitToken(context.Background(), bus.cl.Connect()); err != nil {
		return nil, fmt.Errorf("connecting to broker %s: %w", brokerURL, err)
	}

	return &bus, nil
}

func (bus *mqttFleetBus) Publish(ctx context.Context, topic string, payload []byte) error {
	bus.metrics.publishCnt.Inc()

	if err := waitToken(ctx, bus.cl.Publish(topic, qos, false, payload)); err != nil {
		bus.metrics.errCnt.Inc()
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

func (bus *mqttFleetBus) Subscribe(filter string) (fleet_bus.Subscription, error) {
	sub := &subscription{
		filter: filter,
		ch:     make(chan fleet_bus.Message, chanCap),
		bus:    bus,
	}

	tok := bus.cl.Subscribe(filter, qos, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case sub.ch <- fleet_bus.Message{Topic: msg.Topic(), Payload: msg.Payload()}:
		default:
			bus.metrics.droppedCnt.Inc()
			bus.logger.Warn().Str("topic", msg.Topic()).Msg("subscriber channel full, message dropped")
		}
	})
	if err := waitToken(context.Background(), tok); err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", filter, err)
	}

	return sub, nil
}

func (bus *mqttFleetBus) DeclareQueryable(key string) (fleet_bus.Queryable, error) {
	q := &queryable{
		key: key,
		ch:  make(chan fleet_bus.InboundQuery, chanCap),
		bus: bus,
	}

	tok := bus.cl.Subscribe(key, qos, func(_ mqtt.Client, msg mqtt.Message) {
		inbound := &inboundQuery{
			key:        msg.Topic(),
			replyTopic: string(msg.Payload()),
			bus:        bus,
		}
		select {
		case q.ch <- inbound:
		default:
			bus.metrics.droppedCnt.Inc()
			bus.logger.Warn().Str("key", msg.Topic()).Msg("queryable channel full, request dropped")
		}
	})
	if err := waitToken(context.Background(), tok); err != nil {
		return nil, fmt.Errorf("declaring queryable for %s: %w", key, err)
	}

	return q, nil
}

func (bus *mqttFleetBus) Get(ctx context.Context, key string) (fleet_bus.Replies, error) {
	bus.metrics.getCnt.Inc()

	replyTopic := replyTopicPrefix + uuid.NewString()

	res := &replies{
		topic: replyTopic,
		ch:    make(chan fleet_bus.Message, chanCap),
		bus:   bus,
	}

	tok := bus.cl.Subscribe(replyTopic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case res.ch <- fleet_bus.Message{Topic: key, Payload: msg.Payload()}:
		default:
			bus.metrics.droppedCnt.Inc()
		}
	})
	if err := waitToken(ctx, tok); err != nil {
		return nil, fmt.Errorf("subscribing to reply topic: %w", err)
	}

	if err := waitToken(ctx, bus.cl.Publish(key, qos, false, []byte(replyTopic))); err != nil {
		_ = waitToken(ctx, bus.cl.Unsubscribe(replyTopic))
		return nil, fmt.Errorf("publishing request to %s: %w", key, err)
	}

	return res, nil
}

func (bus *mqttFleetBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return nil
	}
	bus.closed = true

	const quiesceMs = 250
	bus.cl.Disconnect(quiesceMs)
	return nil
}

func (bus *mqttFleetBus) Metrics() []prometheus.Collector {
	return bus.metrics.list()
}

func (bus *mqttFleetBus) unsubscribe(filter string) error {
	if err := waitToken(context.Background(), bus.cl.Unsubscribe(filter)); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", filter, err)
	}
	return nil
}

func waitToken(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return fmt.Errorf("waiting for broker ack: %w", ctx.Err())
	}
}
