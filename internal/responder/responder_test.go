package responder_test

import (
	"context"
	"testing"
	"time"

	"github.com/horockey/orbcomm/internal/gateway/fleet_bus/inmemory_fleet_bus"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/horockey/orbcomm/internal/responder"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() map[string]string {
	return map[string]string{
		model.QueryID.Key("n1"):              "n1",
		model.QueryName.Key("n1"):            "DevOrb",
		model.QueryHardwareVersion.Key("n1"): "EVT5",
	}
}

func Test_Responder_RegistryRoundTrip(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := testRegistry()
	for key := range registry {
		r := responder.New(bus, key, registry, zerolog.Nop())
		go func() { _ = r.Run(ctx) }()
	}

	// responders declare their queryables asynchronously
	time.Sleep(50 * time.Millisecond)

	for key, want := range registry {
		reps, err := bus.Get(context.Background(), key)
		require.NoError(t, err)

		select {
		case msg := <-reps.C():
			assert.Equal(t, want, string(msg.Payload))
		case <-time.After(time.Second):
			t.Fatalf("no reply for %s", key)
		}
	}
}

func Test_Responder_UnregisteredKey_Sentinel(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Responder listening on a key its registry does not contain
	// answers with the sentinel text.
	key := model.QueryName.Key("n2")
	r := responder.New(bus, key, testRegistry(), zerolog.Nop())
	go func() { _ = r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)

	reps, err := bus.Get(context.Background(), key)
	require.NoError(t, err)

	select {
	case msg := <-reps.C():
		assert.Equal(t, responder.NoSuchResourceText, string(msg.Payload))
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}
}

func Test_Responder_ChannelClosed_ReturnsNil(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	key := model.QueryID.Key("n1")
	r := responder.New(bus, key, testRegistry(), zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	bus.CloseSubscriptions(key)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("responder did not terminate")
	}
}
