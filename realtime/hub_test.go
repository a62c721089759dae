package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablereserve/reservation-app/models"
)

func startHubServer(t *testing.T, hub *Hub, scope *uint) string {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, models.RoleAdmin, scope)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, time.Second, 10*time.Millisecond)
}

func TestBroadcastReachesScopedSubscriber(t *testing.T) {
	hub := NewHub()
	scope := uint(1)
	conn := dial(t, startHubServer(t, hub, &scope))
	waitForClients(t, hub, 1)

	hub.Broadcast(1, Message{Event: EventReservationCreated, Data: map[string]string{"code": "ABC123"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, EventReservationCreated, msg.Event)
	assert.Equal(t, "ABC123", msg.Data["code"])
}

func TestBroadcastSkipsOtherRestaurants(t *testing.T) {
	hub := NewHub()
	scope := uint(1)
	conn := dial(t, startHubServer(t, hub, &scope))
	waitForClients(t, hub, 1)

	hub.Broadcast(2, Message{Event: EventReservationCreated, Data: "other"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestBroadcastDoesNotBlockOnStalledClient(t *testing.T) {
	hub := NewHub()
	url := startHubServer(t, hub, nil)
	dial(t, url) // never reads
	waitForClients(t, hub, 1)

	payload := strings.Repeat("x", 1<<20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 128; i++ {
			hub.Broadcast(1, Message{Event: EventReservationCreated, Data: payload})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a client that stopped reading")
	}
	waitForClients(t, hub, 0)

	// A fresh dashboard still gets updates.
	conn := dial(t, url)
	waitForClients(t, hub, 1)
	hub.Broadcast(1, Message{Event: EventReservationUpdated, Data: "ok"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), EventReservationUpdated)
}

func TestUnregisterRemovesClient(t *testing.T) {
	hub := NewHub()
	dial(t, startHubServer(t, hub, nil))
	waitForClients(t, hub, 1)

	hub.mutex.Lock()
	var conn *websocket.Conn
	for c := range hub.clients {
		conn = c
	}
	hub.mutex.Unlock()

	hub.Unregister(conn)
	hub.Unregister(conn)
	assert.Equal(t, 0, hub.ClientCount())
	hub.Broadcast(1, Message{Event: EventReservationCreated, Data: "gone"})
}
