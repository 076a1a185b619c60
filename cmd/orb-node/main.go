package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/horockey/orbcomm"
	"github.com/horockey/orbcomm/internal/controller/http_admin"
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus/mqtt_fleet_bus"
	"github.com/horockey/orbcomm/internal/gateway/orb_properties/http_orb_properties"
	"github.com/horockey/orbcomm/internal/gateway/orb_properties/shell_orb_properties"
	"github.com/horockey/orbcomm/internal/repository/command_journal/badger_command_journal"
	"github.com/rs/zerolog"
)

const nodeIDResolveTimeout = time.Second * 5

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "orb-node: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.toml", "path to orb-node config.toml")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().
		Timestamp().
		Str("scope", "orb_node").
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var properties orbcomm.Properties
	switch cfg.PropertiesMode {
	case propertiesModeHTTP:
		properties = http_orb_properties.New(
			cfg.PropertiesBaseURL,
			logger.With().Str("subscope", "properties").Logger(),
		)
	default:
		properties = shell_orb_properties.New(
			nil,
			logger.With().Str("subscope", "properties").Logger(),
		)
	}

	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID = resolveNodeID(ctx, properties, logger)
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "orb-node-" + nodeID
	}

	bus, err := mqtt_fleet_bus.New(
		cfg.BrokerURL,
		clientID,
		logger.With().Str("subscope", "fleet_bus").Logger(),
	)
	if err != nil {
		return fmt.Errorf("connecting to broker %s: %w", cfg.BrokerURL, err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error().Err(fmt.Errorf("closing bus: %w", err)).Send()
		}
	}()

	nodeOpts := []orbcomm.NodeOption{
		orbcomm.WithNodeLogger(logger),
		orbcomm.WithHeartbeatInterval(cfg.HeartbeatInterval),
		orbcomm.WithProperties(properties),
	}

	if cfg.JournalMode == journalModeBadger {
		db, err := badger.Open(badger.DefaultOptions(cfg.JournalDir))
		if err != nil {
			return fmt.Errorf("opening journal db at %s: %w", cfg.JournalDir, err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error().Err(fmt.Errorf("closing journal db: %w", err)).Send()
			}
		}()
		nodeOpts = append(nodeOpts, orbcomm.WithJournal(badger_command_journal.New(db)))
	}

	node, err := orbcomm.NewNode(nodeID, bus, nodeOpts...)
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}

	if cfg.AdminListenAddr != "" {
		admin := http_admin.New(
			cfg.AdminListenAddr,
			nodeID,
			node.Journal(),
			node.Metrics(),
			logger.With().Str("subscope", "http_admin").Logger(),
		)
		go func() {
			if err := admin.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(fmt.Errorf("running admin server: %w", err)).Send()
			}
		}()
	}

	if err := node.Run(ctx); err != nil {
		return fmt.Errorf("running node: %w", err)
	}
	return nil
}

// resolveNodeID asks the property provider for the device id. Failures
// fall back to the stock unknown id so the node still comes up.
func resolveNodeID(ctx context.Context, properties orbcomm.Properties, logger zerolog.Logger) string {
	lookupCtx, cancel := context.WithTimeout(ctx, nodeIDResolveTimeout)
	defer cancel()

	nodeID, err := properties.Lookup(lookupCtx, orbcomm.AttrID)
	if err != nil || nodeID == "" {
		logger.Warn().
			Err(err).
			Msg("failed to resolve node id, using default")
		return orbcomm.AttrID.DefaultValue()
	}
	return nodeID
}
