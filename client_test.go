package orbcomm_test

import (
	"context"
	"testing"
	"time"

	"github.com/horockey/orbcomm"
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus/inmemory_fleet_bus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*orbcomm.Client, *inmemory_fleet_bus.InmemoryFleetBus) {
	t.Helper()

	bus := inmemory_fleet_bus.New(zerolog.Nop())
	t.Cleanup(func() { _ = bus.Close() })

	cl, err := orbcomm.NewClient(
		bus,
		orbcomm.WithClientLogger(zerolog.Nop()),
		orbcomm.WithDiscoveryWindow(time.Millisecond*300),
		orbcomm.WithReceiveTimeout(time.Millisecond*100),
	)
	require.NoError(t, err)

	return cl, bus
}

func Test_NewClient_Validation(t *testing.T) {
	_, err := orbcomm.NewClient(nil)
	assert.Error(t, err)

	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	_, err = orbcomm.NewClient(bus, orbcomm.WithDiscoveryWindow(0))
	assert.Error(t, err)

	_, err = orbcomm.NewClient(bus, orbcomm.WithReceiveTimeout(-time.Second))
	assert.Error(t, err)
}

func Test_Client_Discover_DeduplicatesFirstSeen(t *testing.T) {
	cl, bus := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		heartbeats := []string{"orbA", "orbB", "orbA", "orbC", "orbB"}
		for {
			for _, id := range heartbeats {
				if err := bus.Publish(ctx, orbcomm.DiscoveryKey, []byte(id)); err != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Millisecond * 10):
				}
			}
		}
	}()

	found, err := cl.Discover(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"orbA", "orbB", "orbC"}, found)
}

func Test_Client_Discover_NoOrbs(t *testing.T) {
	cl, _ := newTestClient(t)

	start := time.Now()
	found, err := cl.Discover(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond*300)
}

func Test_Client_Discover_Callback(t *testing.T) {
	cl, bus := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			if err := bus.Publish(ctx, orbcomm.DiscoveryKey, []byte("orbA")); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Millisecond * 10):
			}
		}
	}()

	calls := []string{}
	_, err := cl.Discover(ctx, func(nodeID string) {
		calls = append(calls, nodeID)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"orbA"}, calls)
}

func Test_Client_Query_CollectsUntilQuiet(t *testing.T) {
	cl, bus := newTestClient(t)

	q, err := bus.DeclareQueryable(orbcomm.QueryName.Key("orb1"))
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	go func() {
		for inbound := range q.C() {
			_ = inbound.Reply(context.Background(), []byte("TestOrb"))
			_ = inbound.Reply(context.Background(), []byte("TestOrbAlias"))
		}
	}()

	payloads, err := cl.Query(context.Background(), "orb1", orbcomm.QueryName, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"TestOrb", "TestOrbAlias"}, payloads)
}

func Test_Client_Query_RepliesJustUnderTimeoutKeepCollection(t *testing.T) {
	cl, bus := newTestClient(t)

	q, err := bus.DeclareQueryable(orbcomm.QueryName.Key("orb1"))
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	// Each reply lands just under the 100ms per-reply timeout: the
	// timeout must reset on every reply instead of bounding the total.
	go func() {
		inbound := <-q.C()
		for _, payload := range []string{"reply-0", "reply-1", "reply-2"} {
			_ = inbound.Reply(context.Background(), []byte(payload))
			time.Sleep(80 * time.Millisecond)
		}
	}()

	start := time.Now()
	payloads, err := cl.Query(context.Background(), "orb1", orbcomm.QueryName, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"reply-0", "reply-1", "reply-2"}, payloads)
	// Two inter-reply gaps plus the closing quiet timeout.
	assert.GreaterOrEqual(t, time.Since(start), 160*time.Millisecond)
}

func Test_Client_Query_NoResponder(t *testing.T) {
	cl, _ := newTestClient(t)

	payloads, err := cl.Query(context.Background(), "ghost", orbcomm.QueryID, nil)
	require.NoError(t, err)
	assert.Empty(t, payloads)
}

func Test_Client_Query_ContextCancel(t *testing.T) {
	cl, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cl.Query(ctx, "orb1", orbcomm.QueryID, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Client_Command_Publishes(t *testing.T) {
	cl, bus := newTestClient(t)

	sub, err := bus.Subscribe("orb/orb1/command/+")
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	require.NoError(t, cl.Command(context.Background(), "orb1", orbcomm.CommandReboot))

	select {
	case msg := <-sub.C():
		assert.Equal(t, "orb/orb1/command/reboot", msg.Topic)
		assert.Empty(t, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("command was never delivered")
	}
}
