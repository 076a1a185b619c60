package orbcomm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/horockey/go-toolbox/options"
	"github.com/horockey/orbcomm/internal/broadcaster"
	"github.com/horockey/orbcomm/internal/dispatcher"
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/horockey/orbcomm/internal/gateway/orb_properties"
	"github.com/horockey/orbcomm/internal/gateway/orb_properties/shell_orb_properties"
	"github.com/horockey/orbcomm/internal/gateway/shell_actions"
	"github.com/horockey/orbcomm/internal/gateway/shell_actions/os_shell_actions"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/horockey/orbcomm/internal/repository/command_journal"
	"github.com/horockey/orbcomm/internal/repository/command_journal/inmemory_command_journal"
	"github.com/horockey/orbcomm/internal/responder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Node is the device-side service: one responder per registry key, a
// command dispatcher, and a discovery broadcaster, torn down in a
// fixed order by Run.
type Node struct {
	nodeID     string
	bus        fleet_bus.Gateway
	registry   map[string]string
	journal    command_journal.Repository
	logger     zerolog.Logger
	disp       *dispatcher.Dispatcher
	bcast      *broadcaster.Broadcaster
	responders []*responder.Responder
}

type createNodeParams struct {
	propertyLookupTimeout time.Duration
	heartbeatInterval     time.Duration
	logger                zerolog.Logger

	properties orb_properties.Gateway
	shell      shell_actions.Gateway
	journal    command_journal.Repository
}

func defaultCreateNodeParams() createNodeParams {
	return createNodeParams{
		propertyLookupTimeout: time.Second * 5, //nolint: mnd
		heartbeatInterval:     time.Second,
		logger: zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("scope", "orbcomm_node").
			Logger(),
	}
}

// NewNode builds the resource registry (best-effort property lookups
// with fixed defaults) and wires all node tasks. The registry is
// immutable from here on and shared across responders without
// synchronization.
func NewNode(
	nodeID string,
	bus fleet_bus.Gateway,
	opts ...options.Option[createNodeParams],
) (*Node, error) {
	if nodeID == "" {
		return nil, errors.New("got empty node id")
	}
	if bus == nil {
		return nil, errors.New("got nil bus")
	}

	params := defaultCreateNodeParams()
	if err := options.ApplyOptions(&params, opts...); err != nil {
		return nil, fmt.Errorf("applying opts: %w", err)
	}

	if params.properties == nil {
		params.properties = shell_orb_properties.New(
			nil,
			params.logger.With().Str("subscope", "properties").Logger(),
		)
	}
	if params.shell == nil {
		params.shell = os_shell_actions.New(
			params.logger.With().Str("subscope", "shell").Logger(),
		)
	}
	if params.journal == nil {
		params.journal = inmemory_command_journal.New(0)
	}

	node := Node{
		nodeID:  nodeID,
		bus:     bus,
		journal: params.journal,
		logger:  params.logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), params.propertyLookupTimeout)
	defer cancel()

	node.registry = map[string]string{
		model.QueryID.Key(nodeID):   nodeID,
		model.QueryName.Key(nodeID): node.lookupOrDefault(ctx, params.properties, model.AttrName),
		model.QueryHardwareVersion.Key(nodeID): node.lookupOrDefault(
			ctx,
			params.properties,
			model.AttrHardwareVersion,
		),
	}

	for _, key := range lo.Keys(node.registry) {
		node.responders = append(node.responders, responder.New(
			bus,
			key,
			node.registry,
			params.logger.With().Str("subscope", "responder").Logger(),
		))
	}

	node.disp = dispatcher.New(
		nodeID,
		bus,
		params.shell,
		params.journal,
		params.logger.With().Str("subscope", "dispatcher").Logger(),
	)

	node.bcast = broadcaster.New(
		nodeID,
		bus,
		params.heartbeatInterval,
		params.logger.With().Str("subscope", "broadcaster").Logger(),
	)

	return &node, nil
}

// Run starts every node task and blocks until either ctx is canceled
// or the dispatcher's subscription channel closes. It then stops the
// broadcaster and waits for it to acknowledge before returning, so no
// discovery publish can race process exit.
func (n *Node) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	n.logger.Info().Str("node_id", n.nodeID).Msg("starting node")

	for _, r := range n.responders {
		r := r
		go func() {
			if err := r.Run(runCtx); err != nil {
				n.logger.
					Error().
					Err(fmt.Errorf("running responder: %w", err)).
					Send()
			}
		}()
	}

	dispDone := make(chan error, 1)
	go func() {
		dispDone <- n.disp.Run(runCtx)
	}()

	go n.bcast.Run()

	select {
	case <-ctx.Done():
		n.logger.Info().Msg("termination requested, shutting down")

	case err := <-dispDone:
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			n.logger.Info().Msg("termination requested, shutting down")
		case err != nil:
			n.logger.
				Warn().
				Err(fmt.Errorf("command handling ended: %w", err)).
				Msg("shutting down")
		default:
			n.logger.Warn().Msg("command handling ended unexpectedly, shutting down")
		}
	}

	n.bcast.Stop()
	<-n.bcast.Done()

	n.logger.Info().Msg("node shutdown complete")
	return nil
}

// Journal exposes the node's command audit trail.
func (n *Node) Journal() command_journal.Repository {
	return n.journal
}

func (n *Node) Metrics() []prometheus.Collector {
	res := []prometheus.Collector{}
	res = append(res, n.bus.Metrics()...)
	res = append(res, n.journal.Metrics()...)
	res = append(res, n.disp.Metrics()...)
	res = append(res, n.bcast.Metrics()...)
	for _, r := range n.responders {
		res = append(res, r.Metrics()...)
	}
	return res
}

func (n *Node) lookupOrDefault(
	ctx context.Context,
	gw orb_properties.Gateway,
	attr model.Attribute,
) string {
	val, err := gw.Lookup(ctx, attr)
	if err != nil {
		n.logger.
			Warn().
			Err(fmt.Errorf("looking up %s: %w", attr, err)).
			Str("default", attr.DefaultValue()).
			Msg("property lookup failed, using default")
		return attr.DefaultValue()
	}
	return val
}
