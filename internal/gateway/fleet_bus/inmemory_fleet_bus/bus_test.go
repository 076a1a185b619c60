package inmemory_fleet_bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus/inmemory_fleet_bus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvMsg(t *testing.T, ch <-chan fleet_bus.Message) fleet_bus.Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return fleet_bus.Message{}
	}
}

func Test_PublishSubscribe_ExactTopic(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	sub, err := bus.Subscribe("orb/id")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "orb/id", []byte("node-1")))

	msg := recvMsg(t, sub.C())
	assert.Equal(t, "orb/id", msg.Topic)
	assert.Equal(t, []byte("node-1"), msg.Payload)
}

func Test_PublishSubscribe_Wildcard(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	sub, err := bus.Subscribe("orb/n1/command/+")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "orb/n1/command/reboot", nil))
	require.NoError(t, bus.Publish(context.Background(), "orb/n2/command/reboot", nil))
	require.NoError(t, bus.Publish(context.Background(), "orb/n1/command/reset_gimbal", nil))

	assert.Equal(t, "orb/n1/command/reboot", recvMsg(t, sub.C()).Topic)
	assert.Equal(t, "orb/n1/command/reset_gimbal", recvMsg(t, sub.C()).Topic)
}

func Test_GetReply_RoundTrip(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	q, err := bus.DeclareQueryable("orb/n1/name")
	require.NoError(t, err)

	go func() {
		inbound := <-q.C()
		_ = inbound.Reply(context.Background(), []byte("DevOrb"))
	}()

	reps, err := bus.Get(context.Background(), "orb/n1/name")
	require.NoError(t, err)

	msg := recvMsg(t, reps.C())
	assert.Equal(t, []byte("DevOrb"), msg.Payload)
}

func Test_Get_NoResponder(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	reps, err := bus.Get(context.Background(), "orb/nobody/name")
	require.NoError(t, err)

	select {
	case <-reps.C():
		t.Fatal("unexpected reply")
	case <-time.After(50 * time.Millisecond):
	}
}

func Test_CloseSubscriptions_ClosesChannel(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	defer func() { _ = bus.Close() }()

	sub, err := bus.Subscribe("orb/n1/command/+")
	require.NoError(t, err)

	bus.CloseSubscriptions("orb/n1/command/+")

	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func Test_Close_RejectsFurtherUse(t *testing.T) {
	bus := inmemory_fleet_bus.New(zerolog.Nop())
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), "orb/id", nil)
	assert.ErrorIs(t, err, inmemory_fleet_bus.ErrBusClosed)

	_, err = bus.Subscribe("orb/id")
	assert.ErrorIs(t, err, inmemory_fleet_bus.ErrBusClosed)
}
