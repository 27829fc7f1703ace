package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestHub starts a hub behind an httptest server and returns a
// connected browser-side websocket.
func dialTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub(nil)
	hub.Start()
	t.Cleanup(hub.Stop)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ServeWS(hub, conn, Timing{})
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestClientReceivesConnectionMessage(t *testing.T) {
	_, conn := dialTestHub(t)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeConnection, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.NotEmpty(t, data["client_id"])
}

func TestBroadcastRefresh(t *testing.T) {
	hub, conn := dialTestHub(t)

	readMessage(t, conn) // connection message

	hub.BroadcastRefresh(map[string]int{"rows": 42})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeDataUpdate, msg["type"])
	assert.Equal(t, ActionRefresh, msg["action"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["rows"])
}

func TestBroadcastProgressAndError(t *testing.T) {
	hub, conn := dialTestHub(t)
	readMessage(t, conn)

	hub.BroadcastProgress("climate", 50, "fetching history")
	msg := readMessage(t, conn)
	assert.Equal(t, TypeProgress, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "climate", data["step"])
	assert.Equal(t, float64(50), data["progress"])

	hub.BroadcastError("quotes", errors.New("upstream timeout"))
	msg = readMessage(t, conn)
	assert.Equal(t, TypeError, msg["type"])
	data = msg["data"].(map[string]interface{})
	assert.Equal(t, "upstream timeout", data["error"])
}

func TestClientCountTracksConnections(t *testing.T) {
	hub, conn := dialTestHub(t)
	readMessage(t, conn)

	require.Eventually(t, func() bool {
		return hub.GetClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.GetClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	stats := hub.Stats()
	assert.Equal(t, int64(1), stats["total_connections"])
}

func TestStatsCountsSentMessagesDuringBroadcast(t *testing.T) {
	hub, conn := dialTestHub(t)
	readMessage(t, conn)

	// Stats must be safe to call while the broadcast loop is counting.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			hub.Stats()
		}
	}()

	for i := 0; i < 5; i++ {
		hub.BroadcastProgress("refresh", i*20, "working")
		readMessage(t, conn)
	}
	<-done

	require.Eventually(t, func() bool {
		return hub.Stats()["messages_sent"] >= 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubStartIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()
}
