package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ridelifecycle/pkg/logger"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func newStreamServer(t *testing.T, handler *Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.Subscribe(w, r, r.URL.Query().Get("room"), uuid.New())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, room string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?room=" + room
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readMessage(t, conn)
	require.Equal(t, "subscribed", msg.Type)
	require.Equal(t, room, msg.Room)
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_BroadcastReachesRoomOnly(t *testing.T) {
	hub, _ := startHub(t)
	srv := newStreamServer(t, NewHandler(hub, []string{"*"}))

	a := dial(t, srv, "ride:a")
	b := dial(t, srv, "ride:b")

	require.True(t, hub.Broadcast(context.Background(), &Message{
		Type: "ride_event",
		Room: "ride:a",
		Data: map[string]string{"event_type": "accepted"},
	}))

	msg := readMessage(t, a)
	assert.Equal(t, "ride_event", msg.Type)
	assert.NotZero(t, msg.Timestamp)
	assert.Equal(t, map[string]interface{}{"event_type": "accepted"}, msg.Data)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "other rooms receive nothing")
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, stop := startHub(t)
	srv := newStreamServer(t, NewHandler(hub, nil))

	conn := dial(t, srv, "ride:a")
	stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, gws.IsCloseError(err, gws.CloseNormalClosure), "got %v", err)

	assert.Eventually(t, func() bool {
		return !hub.Broadcast(context.Background(), &Message{Room: "ride:a"})
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	hub, _ := startHub(t)
	srv := newStreamServer(t, NewHandler(hub, []string{"https://app.example.com"}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?room=ride:a"

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := gws.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://app.example.com")
	conn, _, err := gws.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}
