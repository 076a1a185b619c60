// Command orbctl talks to orb nodes over the fleet bus.
//
// Usage:
//
//	orbctl <command> [flags]
//
// Commands:
//
//	ping     Discover live orbs on the bus
//	query    Request one attribute of one orb
//	command  Send an action command to one orb
//
// Examples:
//
//	# List orbs reachable through the local broker
//	orbctl ping
//
//	# Ask orb1 for its hardware version
//	orbctl query -id orb1 hardware_version
//
//	# Reboot orb1
//	orbctl command -id orb1 reboot
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

	"github.com/google/uuid"
	"github.com/horockey/orbcomm"
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus/mqtt_fleet_bus"
	"github.com/rs/zerolog"
)

const usage = `orbctl - orb fleet control tool

Usage:
  orbctl <command> [flags]

Commands:
  ping     Discover live orbs on the bus
  query    Request one attribute of one orb (name, id, hardware_version)
  command  Send an action command to one orb (reboot, shutdown, reset_gimbal)

Use "orbctl <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "ping":
		err = runPing(args)
	case "query":
		err = runQuery(args)
	case "command":
		err = runCommand(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "orbctl: %v\n", err)
		os.Exit(1)
	}
}

func addCommonFlags(fs *flag.FlagSet) *string {
	return fs.String("broker", "tcp://localhost:1883", "MQTT broker URL")
}

func newBusClient(brokerURL string) (*orbcomm.Client, orbcomm.Bus, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().
		Timestamp().
		Str("scope", "orbctl").
		Logger().
		Level(zerolog.WarnLevel)

	bus, err := mqtt_fleet_bus.New(brokerURL, "orbctl-"+uuid.NewString(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to broker %s: %w", brokerURL, err)
	}

	cl, err := orbcomm.NewClient(bus, orbcomm.WithClientLogger(logger))
	if err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("creating client: %w", err)
	}

	return cl, bus, nil
}

func runPing(args []string) error {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	broker := addCommonFlags(fs)
	_ = fs.Parse(args)

	cl, bus, err := newBusClient(*broker)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	found, err := cl.Discover(ctx, func(nodeID string) {
		fmt.Printf("Found orb: %s\n", nodeID)
	})
	if err != nil {
		return fmt.Errorf("discovering: %w", err)
	}
	if len(found) == 0 {
		fmt.Println("No orbs found!")
	}
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	broker := addCommonFlags(fs)
	nodeID := fs.String("id", "", "target orb id")
	_ = fs.Parse(args)

	if *nodeID == "" {
		return errors.New("missing required flag: -id")
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one attribute token (name, id, hardware_version)")
	}

	kind, err := orbcomm.ParseQuery(fs.Arg(0))
	if err != nil {
		return err
	}

	cl, bus, err := newBusClient(*broker)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	payloads, err := cl.Query(ctx, *nodeID, kind, func(payload string) {
		fmt.Println(payload)
	})
	if err != nil {
		return fmt.Errorf("querying: %w", err)
	}
	if len(payloads) == 0 {
		fmt.Println("No replies!")
	}
	return nil
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("command", flag.ExitOnError)
	broker := addCommonFlags(fs)
	nodeID := fs.String("id", "", "target orb id")
	_ = fs.Parse(args)

	if *nodeID == "" {
		return errors.New("missing required flag: -id")
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one command token (reboot, shutdown, reset_gimbal)")
	}

	kind, err := orbcomm.ParseCommand(fs.Arg(0))
	if err != nil {
		return err
	}

	cl, bus, err := newBusClient(*broker)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := cl.Command(ctx, *nodeID, kind); err != nil {
		return fmt.Errorf("sending command: %w", err)
	}

	fmt.Printf("Command '%s' sent to %s\n", kind, *nodeID)
	return nil
}
