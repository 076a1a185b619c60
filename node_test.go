package orbcomm_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/horockey/orbcomm"
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus/inmemory_fleet_bus"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProperties struct {
	values map[orbcomm.Attribute]string
}

func (m *mockProperties) Lookup(_ context.Context, attr orbcomm.Attribute) (string, error) {
	val, found := m.values[attr]
	if !found {
		return "", errors.New("no such attribute")
	}
	return val, nil
}

func newTestNode(t *testing.T, nodeID string) (*orbcomm.Node, *inmemory_fleet_bus.InmemoryFleetBus) {
	t.Helper()

	bus := inmemory_fleet_bus.New(zerolog.Nop())
	t.Cleanup(func() { _ = bus.Close() })

	node, err := orbcomm.NewNode(
		nodeID,
		bus,
		orbcomm.WithNodeLogger(zerolog.Nop()),
		orbcomm.WithHeartbeatInterval(time.Millisecond*20),
		orbcomm.WithProperties(&mockProperties{values: map[orbcomm.Attribute]string{
			orbcomm.AttrName:            "TestOrb",
			orbcomm.AttrHardwareVersion: "EVT5",
		}}),
	)
	require.NoError(t, err)

	return node, bus
}

func Test_NewNode_Validation(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	_, err := orbcomm.NewNode("", bus)
	assert.Error(t, err)

	_, err = orbcomm.NewNode("orb1", nil)
	assert.Error(t, err)
}

func Test_Node_ServesRegisteredQueries(t *testing.T) {
	node, bus := newTestNode(t, "orb1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- node.Run(ctx) }()

	cl, err := orbcomm.NewClient(
		bus,
		orbcomm.WithClientLogger(zerolog.Nop()),
		orbcomm.WithReceiveTimeout(time.Millisecond*100),
	)
	require.NoError(t, err)

	// Responders attach asynchronously, retry until first reply lands.
	var payloads []string
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		payloads, err = cl.Query(ctx, "orb1", orbcomm.QueryName, nil)
		require.NoError(t, err)
		if len(payloads) > 0 {
			break
		}
	}
	require.Equal(t, []string{"TestOrb"}, payloads)

	payloads, err = cl.Query(ctx, "orb1", orbcomm.QueryID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"orb1"}, payloads)

	payloads, err = cl.Query(ctx, "orb1", orbcomm.QueryHardwareVersion, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"EVT5"}, payloads)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("node did not shut down after cancel")
	}
}

func Test_Node_PropertyLookupFallsBackToDefaults(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	node, err := orbcomm.NewNode(
		"orb1",
		bus,
		orbcomm.WithNodeLogger(zerolog.Nop()),
		orbcomm.WithProperties(&mockProperties{values: map[orbcomm.Attribute]string{}}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- node.Run(ctx) }()

	cl, err := orbcomm.NewClient(
		bus,
		orbcomm.WithClientLogger(zerolog.Nop()),
		orbcomm.WithReceiveTimeout(time.Millisecond*100),
	)
	require.NoError(t, err)

	var payloads []string
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		payloads, err = cl.Query(ctx, "orb1", orbcomm.QueryName, nil)
		require.NoError(t, err)
		if len(payloads) > 0 {
			break
		}
	}
	assert.Equal(t, []string{model.AttrName.DefaultValue()}, payloads)

	cancel()
	<-done
}

// syncBuffer keeps log writes from node goroutines race-free.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func Test_Node_Run_CancelIsQuietShutdown(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	t.Cleanup(func() { _ = bus.Close() })

	out := &syncBuffer{}
	node, err := orbcomm.NewNode(
		"orb1",
		bus,
		orbcomm.WithNodeLogger(zerolog.New(out)),
		orbcomm.WithHeartbeatInterval(time.Millisecond*20),
		orbcomm.WithProperties(&mockProperties{values: map[orbcomm.Attribute]string{}}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- node.Run(ctx) }()

	time.Sleep(time.Millisecond * 50)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("node did not shut down after cancel")
	}

	// Cancellation may surface through the dispatcher first; either
	// way it is a requested shutdown, not an unexpected one.
	assert.NotContains(t, out.String(), "command handling ended unexpectedly")
}

func Test_Node_Run_TerminationSignal(t *testing.T) {
	node, _ := newTestNode(t, "orb1")

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- node.Run(ctx) }()

	time.Sleep(time.Millisecond * 50)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("node did not shut down after cancel")
	}
}

func Test_Node_Run_DispatcherClosureStopsBroadcaster(t *testing.T) {
	node, bus := newTestNode(t, "orb1")

	disco, err := bus.Subscribe(orbcomm.DiscoveryKey)
	require.NoError(t, err)
	defer func() { _ = disco.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- node.Run(ctx) }()

	// Wait for at least one heartbeat so the node is fully running.
	select {
	case <-disco.C():
	case <-time.After(time.Second):
		t.Fatal("no heartbeat observed")
	}

	// The first heartbeat can land before the dispatcher goroutine has
	// subscribed; give it a moment so the teardown below hits its
	// subscription.
	time.Sleep(time.Millisecond * 50)

	bus.CloseSubscriptions(model.CommandFilter("orb1"))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("node did not shut down after command subscription loss")
	}

	// Drain anything published before the stop ack, then make sure the
	// heartbeat is truly gone.
	for {
		select {
		case <-disco.C():
			continue
		case <-time.After(time.Millisecond * 100):
		}
		break
	}
	select {
	case msg := <-disco.C():
		t.Fatalf("heartbeat after shutdown: %s", string(msg.Payload))
	case <-time.After(time.Millisecond * 100):
	}
}

func Test_Node_CommandsAreJournaled(t *testing.T) {
	node, bus := newTestNode(t, "orb1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- node.Run(ctx) }()

	cl, err := orbcomm.NewClient(bus, orbcomm.WithClientLogger(zerolog.Nop()))
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, cl.Command(ctx, "orb1", orbcomm.CommandResetGimbal))

		entries, err := node.Journal().Recent(0)
		require.NoError(t, err)
		if len(entries) > 0 {
			assert.Equal(t, string(orbcomm.CommandResetGimbal), entries[0].Token)
			assert.True(t, entries[0].Success)
			cancel()
			<-done
			return
		}
		time.Sleep(time.Millisecond * 20)
	}
	t.Fatal("command was never journaled")
}

func Test_Node_Metrics(t *testing.T) {
	node, _ := newTestNode(t, "orb1")
	assert.NotEmpty(t, node.Metrics())
}
