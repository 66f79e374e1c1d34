package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenTable map[string]string

func (t tokenTable) VerifyJWT(token string) (string, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

// userSet is the set of user ids that still exist.
type userSet map[string]bool

func (u userSet) UserExists(_ context.Context, id string) (bool, error) {
	return u[id], nil
}

func startHandler(t *testing.T, hub *Hub, origins ...string) string {
	t.Helper()
	tokens := tokenTable{"alice-token": "alice", "bob-token": "bob", "ghost-token": "ghost"}
	users := userSet{"alice": true, "bob": true}
	srv := httptest.NewServer(NewServer("", NewHandler(hub, tokens, users, origins)).Handler)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandlerJoinsTokenRoom(t *testing.T) {
	hub := startHub(t)
	url := startHandler(t, hub)

	alice := dial(t, url, http.Header{"Authorization": {"Bearer alice-token"}})
	bob := dial(t, url+"?token=bob-token", nil)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), "alice", EventNewNotification, map[string]string{"content": "bob sent you a connection request"}))

	msg := readFrame(t, alice)
	assert.Equal(t, EventNewNotification, msg.Event)
	assert.Equal(t, map[string]any{"content": "bob sent you a connection request"}, msg.Data)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "bob must not see alice's frames")
}

func TestHandlerAnswersPing(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, startHandler(t, hub), http.Header{"Authorization": {"Bearer alice-token"}})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping"}`)))
	assert.Equal(t, EventPong, readFrame(t, conn).Event)
}

func TestHandlerIgnoresRoomJoins(t *testing.T) {
	hub := startHub(t)
	url := startHandler(t, hub)
	conn := dial(t, url, http.Header{"Authorization": {"Bearer alice-token"}})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"join","data":"bob"}`)))
	require.Eventually(t, func() bool { return hub.RoomSize("alice") == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, hub.RoomSize("bob"))
}

func TestHandlerRefusesMissingOrBadToken(t *testing.T) {
	hub := startHub(t)
	url := startHandler(t, hub)

	for name, header := range map[string]http.Header{
		"missing": nil,
		"invalid": {"Authorization": {"Bearer forged"}},
		"scheme":  {"Authorization": {"Basic alice-token"}},
		"deleted": {"Authorization": {"Bearer ghost-token"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(url, header)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.Zero(t, hub.ClientCount())
	assert.Zero(t, hub.RoomSize("ghost"))
}

func TestHandlerChecksOrigin(t *testing.T) {
	hub := startHub(t)
	url := startHandler(t, hub, "https://app.talentnest.dev")

	header := http.Header{"Authorization": {"Bearer alice-token"}, "Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://app.talentnest.dev")
	dial(t, url, header)
}
