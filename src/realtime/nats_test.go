package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBroker(t *testing.T) *EmbeddedNATS {
	t.Helper()
	broker, err := StartEmbeddedNATS("127.0.0.1", -1)
	require.NoError(t, err)
	t.Cleanup(broker.Shutdown)
	return broker
}

func TestNATSFanOutAcrossNodes(t *testing.T) {
	broker := startBroker(t)

	// node A publishes, node B holds the session
	connA, err := Connect(broker.ClientURL(), "node-a")
	require.NoError(t, err)
	t.Cleanup(connA.Close)
	connB, err := Connect(broker.ClientURL(), "node-b")
	require.NoError(t, err)
	t.Cleanup(connB.Close)

	hubA := startHub(t)
	hubB := startHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	bridgeErr := make(chan error, 1)
	go func() { bridgeErr <- NewNATSBridge(connB, "talentnest.notify", hubB).Run(ctx) }()

	alice := fakeClient(hubB, "alice", 4)
	require.True(t, hubB.join(alice))

	publisher := NewNATSPublisher(connA, "talentnest.notify", hubA)

	// the bridge subscribes asynchronously; retry until the first frame lands
	var msg Message
	require.Eventually(t, func() bool {
		if err := publisher.Publish(ctx, "alice", EventNewNotification, map[string]any{"type": "connection_request"}); err != nil {
			return false
		}
		select {
		case msg = <-alice.send:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, EventNewNotification, msg.Event)
	assert.JSONEq(t, `{"type":"connection_request"}`, string(msg.Data.(json.RawMessage)))

	cancel()
	select {
	case err := <-bridgeErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}
}

func TestNATSPublisherFallsBackToLocalHub(t *testing.T) {
	broker := startBroker(t)
	conn, err := Connect(broker.ClientURL(), "node-a")
	require.NoError(t, err)
	conn.Close()

	hub := startHub(t)
	alice := fakeClient(hub, "alice", 4)
	require.True(t, hub.join(alice))

	publisher := NewNATSPublisher(conn, "talentnest.notify", hub)
	require.NoError(t, publisher.Publish(context.Background(), "alice", EventNewNotification, "local"))
	assert.Equal(t, "local", receive(t, alice).Data)
}
