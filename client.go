package orbcomm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/horockey/go-toolbox/options"
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Client is the controller-side counterpart: one-shot discovery,
// query, and command flows over the same topic space as the nodes.
// It shares nothing with the node side but the key scheme.
type Client struct {
	bus             fleet_bus.Gateway
	discoveryWindow time.Duration
	recvTimeout     time.Duration
	logger          zerolog.Logger
}

type createClientParams struct {
	discoveryWindow time.Duration
	recvTimeout     time.Duration
	logger          zerolog.Logger
}

func defaultCreateClientParams() createClientParams {
	return createClientParams{
		discoveryWindow: time.Second * 3, //nolint: mnd
		recvTimeout:     time.Second,
		logger: zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("scope", "orbcomm_client").
			Logger(),
	}
}

func NewClient(
	bus fleet_bus.Gateway,
	opts ...options.Option[createClientParams],
) (*Client, error) {
	if bus == nil {
		return nil, errors.New("got nil bus")
	}

	params := defaultCreateClientParams()
	if err := options.ApplyOptions(&params, opts...); err != nil {
		return nil, fmt.Errorf("applying opts: %w", err)
	}

	return &Client{
		bus:             bus,
		discoveryWindow: params.discoveryWindow,
		recvTimeout:     params.recvTimeout,
		logger:          params.logger,
	}, nil
}

func (cl *Client) Metrics() []prometheus.Collector {
	return cl.bus.Metrics()
}

// Discover listens on the discovery key for a bounded window and
// returns node IDs in first-seen order. onFound (optional) fires the
// moment a new ID shows up. An empty result is not an error.
func (cl *Client) Discover(ctx context.Context, onFound func(nodeID string)) ([]string, error) {
	sub, err := cl.bus.Subscribe(model.DiscoveryKey)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", model.DiscoveryKey, err)
	}
	defer func() { _ = sub.Close() }()

	cl.logger.Debug().Dur("window", cl.discoveryWindow).Msg("listening for nodes")

	nodeIDs := []string{}
	start := time.Now()

	for time.Since(start) < cl.discoveryWindow {
		recvTimer := time.NewTimer(cl.recvTimeout)

		select {
		case <-ctx.Done():
			recvTimer.Stop()
			return nodeIDs, fmt.Errorf("running context: %w", ctx.Err())

		case <-recvTimer.C:

		case msg, ok := <-sub.C():
			recvTimer.Stop()
			if !ok {
				return nodeIDs, nil
			}

			nodeID := string(msg.Payload)
			if slices.Contains(nodeIDs, nodeID) {
				continue
			}

			nodeIDs = append(nodeIDs, nodeID)
			cl.logger.Debug().Str("node_id", nodeID).Msg("discovered node")
			if onFound != nil {
				onFound(nodeID)
			}
		}
	}

	return nodeIDs, nil
}

// Query requests one attribute of one node and collects replies until
// no further reply arrives within the per-reply timeout. As long as
// replies keep coming it keeps waiting: termination is quiet-based,
// not window-based. onReply (optional) fires per reply, error-text
// replies included.
func (cl *Client) Query(
	ctx context.Context,
	nodeID string,
	kind QueryKind,
	onReply func(payload string),
) ([]string, error) {
	key := kind.Key(nodeID)

	reps, err := cl.bus.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", key, err)
	}
	defer func() { _ = reps.Close() }()

	cl.logger.Debug().Str("key", key).Msg("querying")

	payloads := []string{}

	for {
		recvTimer := time.NewTimer(cl.recvTimeout)

		select {
		case <-ctx.Done():
			recvTimer.Stop()
			return payloads, fmt.Errorf("running context: %w", ctx.Err())

		case <-recvTimer.C:
			return payloads, nil

		case msg, ok := <-reps.C():
			recvTimer.Stop()
			if !ok {
				return payloads, nil
			}

			payload := string(msg.Payload)
			payloads = append(payloads, payload)
			if onReply != nil {
				onReply(payload)
			}
		}
	}
}

// Command publishes an empty payload on the node's command key and
// returns as soon as the publish completes locally. No ack, no retry,
// no delivery guarantee beyond the transport's.
func (cl *Client) Command(ctx context.Context, nodeID string, kind CommandKind) error {
	key := kind.Key(nodeID)

	cl.logger.Debug().Str("key", key).Msg("sending command")

	if err := cl.bus.Publish(ctx, key, []byte{}); err != nil {
		return fmt.Errorf("publishing command to %s: %w", key, err)
	}

	return nil
}
