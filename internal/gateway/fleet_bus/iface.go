package fleet_bus

import (
	"context"

	"github.com/horockey/orbcomm/internal/model"
)

// Gateway is the pub/sub overlay the whole fleet communicates over.
// There is no direct addressing: everything is topic/key matching.
// Delivery is at-least-once and unordered across topics; within a
// single subscription messages arrive in delivery order.
type Gateway interface {
	model.MetricsProvider

	// Publish sends payload on topic. Fire-and-forget from the
	// caller's point of view.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe opens a channel of messages matching filter.
	// Filter syntax is topic segments with "+" as single-segment
	// wildcard and trailing "#" as multi-segment wildcard.
	Subscribe(filter string) (Subscription, error)

	// DeclareQueryable registers this side as the responder for
	// get-style requests on exactly key.
	DeclareQueryable(key string) (Queryable, error)

	// Get issues a get-style request on key and returns the stream
	// of replies. There may be zero, one, or many repliers.
	Get(ctx context.Context, key string) (Replies, error)

	Close() error
}

type Message struct {
	Topic   string
	Payload []byte
}

// Subscription channel is closed by the transport when the
// subscription (or the whole session) goes away.
type Subscription interface {
	C() <-chan Message
	Close() error
}

type InboundQuery interface {
	Key() string
	Reply(ctx context.Context, payload []byte) error
}

type Queryable interface {
	C() <-chan InboundQuery
	Close() error
}

type Replies interface {
	C() <-chan Message
	Close() error
}
