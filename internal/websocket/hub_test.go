package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseUint(r.URL.Query().Get("user"), 10, 32)
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, uint(userID))
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, userID uint) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url+"?user="+strconv.Itoa(int(userID)), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHub_DeliversToEverySessionOfUser(t *testing.T) {
	hub, url := startHub(t)

	phone := dial(t, url, 1)
	laptop := dial(t, url, 1)
	other := dial(t, url, 2)

	require.Eventually(t, func() bool {
		return hub.SessionCount(1) == 2 && hub.SessionCount(2) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.NotifyOrder(1, "order.created", &model.Order{ID: 42, UserID: 1})

	for _, conn := range []*websocket.Conn{phone, laptop} {
		event := readEvent(t, conn)
		assert.Equal(t, "order.created", event.Type)
		require.NotNil(t, event.Order)
		assert.Equal(t, uint(42), event.Order.ID)
	}

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "user 2 must not receive user 1's events")
}

func TestHub_UnregistersClosedSession(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url, 5)
	require.Eventually(t, func() bool { return hub.SessionCount(5) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.SessionCount(5) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithoutSessionsIsNoop(t *testing.T) {
	hub, _ := startHub(t)
	assert.NoError(t, hub.PublishToUser(9, Event{Type: "order.created"}))
	assert.Equal(t, 0, hub.SessionCount(9))
}

func TestHub_FullBufferDropsSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	// A session whose pumps never run never drains its buffer.
	stuck := &Client{hub: hub, userID: 3, send: make(chan []byte, 1)}
	hub.register <- stuck
	require.Eventually(t, func() bool { return hub.SessionCount(3) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.PublishToUser(3, Event{Type: "first"}))
	require.NoError(t, hub.PublishToUser(3, Event{Type: "second"}))

	assert.Eventually(t, func() bool { return hub.SessionCount(3) == 0 }, time.Second, 10*time.Millisecond)
}
