package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/horockey/orbcomm/internal/gateway/shell_actions"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/horockey/orbcomm/internal/repository/command_journal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// ResetGimbalSuccessText is reported for reset_gimbal, which needs no
// external action on current hardware.
const ResetGimbalSuccessText = "Reset gimbal command executed successfully"

const (
	rebootCmdline   = "sudo reboot"
	shutdownCmdline = "shutdown now"
)

// ErrSubscriptionClosed means the transport tore down the command
// channel. The node treats this as its shutdown condition.
var ErrSubscriptionClosed = errors.New("command subscription closed by transport")

type handler func(ctx context.Context) (string, error)

// Dispatcher consumes every command key of one node through a single
// wildcard subscription. Commands are fire-and-forget: outcomes are
// logged and journaled, never sent back to the issuer.
type Dispatcher struct {
	nodeID   string
	bus      fleet_bus.Gateway
	shell    shell_actions.Gateway
	journal  command_journal.Repository
	handlers map[model.CommandKind]handler
	logger   zerolog.Logger
	metrics  *metrics
}

func New(
	nodeID string,
	bus fleet_bus.Gateway,
	shell shell_actions.Gateway,
	journal command_journal.Repository,
	logger zerolog.Logger,
) *Dispatcher {
	d := Dispatcher{
		nodeID:  nodeID,
		bus:     bus,
		shell:   shell,
		journal: journal,
		logger:  logger,
		metrics: newMetrics(),
	}

	// Total over the closed command set. The unknown branch lives in
	// handle, where parsing fails before any handler is consulted.
	d.handlers = map[model.CommandKind]handler{
		model.CommandReboot: func(ctx context.Context) (string, error) {
			return d.shell.Run(ctx, rebootCmdline)
		},
		model.CommandShutdown: func(ctx context.Context) (string, error) {
			return d.shell.Run(ctx, shutdownCmdline)
		},
		model.CommandResetGimbal: func(_ context.Context) (string, error) {
			return ResetGimbalSuccessText, nil
		},
	}

	return &d
}

func (d *Dispatcher) Metrics() []prometheus.Collector {
	return d.metrics.list()
}

// Run dispatches until the subscription channel closes (returned as
// ErrSubscriptionClosed) or ctx is canceled. A failed shell action
// never stops the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	filter := model.CommandFilter(d.nodeID)

	sub, err := d.bus.Subscribe(filter)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", filter, err)
	}

	d.logger.Info().Str("filter", filter).Msg("command dispatcher started")

	for {
		select {
		case <-ctx.Done():
			_ = sub.Close()
			return fmt.Errorf("running context: %w", ctx.Err())

		case msg, ok := <-sub.C():
			if !ok {
				return ErrSubscriptionClosed
			}
			d.handle(ctx, msg.Topic)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, key string) {
	d.metrics.commandsCnt.Inc()
	defer func(ts time.Time) {
		d.metrics.handleTimeHist.Observe(float64(time.Since(ts)))
	}(time.Now())

	d.logger.Info().Str("key", key).Msg("received command")

	segs := strings.Split(key, "/")
	token := segs[len(segs)-1]

	entry := model.JournalEntry{
		Key:      key,
		Token:    token,
		Executed: time.Now(),
	}

	kind, err := model.ParseCommand(token)
	if err != nil {
		d.metrics.unknownCnt.Inc()
		entry.Outcome = fmt.Sprintf("Error: Unknown command '%s'", key)
		d.logger.Warn().Msg(entry.Outcome)
		d.append(entry)
		return
	}

	out, err := d.handlers[kind](ctx)
	if err != nil {
		d.metrics.actionErrCnt.Inc()
		entry.Outcome = err.Error()
		d.logger.
			Error().
			Err(fmt.Errorf("executing %s: %w", token, err)).
			Send()
		d.append(entry)
		return
	}

	entry.Success = true
	entry.Outcome = out
	d.logger.Info().Str("key", key).Str("response", out).Msg("command executed")
	d.append(entry)
}

func (d *Dispatcher) append(entry model.JournalEntry) {
	if err := d.journal.Append(entry); err != nil {
		d.logger.
			Error().
			Err(fmt.Errorf("journaling command %s: %w", entry.Key, err)).
			Send()
	}
}
