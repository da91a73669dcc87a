package mempool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWebSocketServer stands in for an RPC node's eth_subscribe feed.
type mockWebSocketServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader
	conn     *websocket.Conn
	messages [][]byte
}

func newMockWebSocketServer() *mockWebSocketServer {
	mock := &mockWebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		messages: make([][]byte, 0),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handleWebSocket))
	return mock
}

func (m *mockWebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	m.conn = conn
	writeMutex := &sync.Mutex{}

	conn.SetPingHandler(func(appData string) error {
		writeMutex.Lock()
		defer writeMutex.Unlock()
		return conn.WriteMessage(websocket.PongMessage, []byte(appData))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		m.messages = append(m.messages, message)

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err == nil {
			if method, ok := msg["method"].(string); ok && method == "eth_subscribe" {
				response := map[string]interface{}{
					"id":     msg["id"],
					"result": "0x123456789",
				}
				respBytes, _ := json.Marshal(response)

				writeMutex.Lock()
				conn.WriteMessage(websocket.TextMessage, respBytes)
				writeMutex.Unlock()

				go func() {
					time.Sleep(100 * time.Millisecond)
					notification := map[string]interface{}{
						"method": "eth_subscription",
						"params": map[string]interface{}{
							"subscription": "0x123456789",
							"result":       "0xmocktransactionhash",
						},
					}
					notifBytes, _ := json.Marshal(notification)

					writeMutex.Lock()
					conn.WriteMessage(websocket.TextMessage, notifBytes)
					writeMutex.Unlock()
				}()
			}
		}
	}
}

func (m *mockWebSocketServer) getWebSocketURL() string {
	return "ws" + strings.TrimPrefix(m.server.URL, "http")
}

func (m *mockWebSocketServer) close() {
	if m.conn != nil {
		m.conn.Close()
	}
	m.server.Close()
}

func TestWebSocketConnection_Connect(t *testing.T) {
	server := newMockWebSocketServer()
	defer server.close()

	conn := NewWebSocketConnection(nil)
	ctx := context.Background()

	err := conn.Connect(ctx, server.getWebSocketURL())
	assert.NoError(t, err)
	assert.True(t, conn.IsConnected())

	health := conn.GetConnectionHealth()
	assert.True(t, health.IsHealthy)
	assert.Equal(t, 0, health.ErrorCount)

	err = conn.Close()
	assert.NoError(t, err)
	assert.False(t, conn.IsConnected())
}

func TestWebSocketConnection_ConnectInvalidURL(t *testing.T) {
	conn := NewWebSocketConnection(nil)
	ctx := context.Background()

	err := conn.Connect(ctx, "ws://invalid-url:99999")
	assert.Error(t, err)
	assert.False(t, conn.IsConnected())

	health := conn.GetConnectionHealth()
	assert.False(t, health.IsHealthy)
	assert.Greater(t, health.ErrorCount, 0)
	assert.NotNil(t, health.LastError)
}

func TestWebSocketConnection_Subscribe(t *testing.T) {
	server := newMockWebSocketServer()
	defer server.close()

	conn := NewWebSocketConnection(nil)
	ctx := context.Background()

	err := conn.Connect(ctx, server.getWebSocketURL())
	require.NoError(t, err)

	msgChan, err := conn.Subscribe(ctx, "newPendingTransactions")
	assert.NoError(t, err)
	assert.NotNil(t, msgChan)

	select {
	case msg := <-msgChan:
		assert.NotNil(t, msg)

		var notification map[string]interface{}
		err := json.Unmarshal(msg, &notification)
		assert.NoError(t, err)
		assert.Equal(t, "eth_subscription", notification["method"])

	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for subscription message")
	}

	conn.Close()
}

func TestWebSocketConnection_SubscribeWithoutConnection(t *testing.T) {
	conn := NewWebSocketConnection(nil)
	ctx := context.Background()

	_, err := conn.Subscribe(ctx, "newPendingTransactions")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection not established")
}

func TestWebSocketConnection_HealthMonitoring(t *testing.T) {
	server := newMockWebSocketServer()
	defer server.close()

	conn := NewWebSocketConnection(nil)
	ctx := context.Background()

	err := conn.Connect(ctx, server.getWebSocketURL())
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	health := conn.GetConnectionHealth()
	assert.True(t, health.IsHealthy)

	if !health.LastPingTime.IsZero() {
		assert.WithinDuration(t, time.Now(), health.LastPingTime, 5*time.Second)
	}

	conn.Close()
}

func TestWebSocketConnection_Reconnection(t *testing.T) {
	server := newMockWebSocketServer()
	defer server.close()

	conn := NewWebSocketConnection(nil)
	ctx := context.Background()

	err := conn.Connect(ctx, server.getWebSocketURL())
	require.NoError(t, err)
	assert.True(t, conn.IsConnected())

	server.conn.Close()

	time.Sleep(200 * time.Millisecond)

	assert.False(t, conn.IsConnected())

	conn.Close()
}

func TestWebSocketConnection_ConcurrentOperations(t *testing.T) {
	server := newMockWebSocketServer()
	defer server.close()

	conn := NewWebSocketConnection(nil)
	ctx := context.Background()

	err := conn.Connect(ctx, server.getWebSocketURL())
	require.NoError(t, err)

	const numSubscriptions = 10
	channels := make([]<-chan []byte, numSubscriptions)

	for i := 0; i < numSubscriptions; i++ {
		ch, err := conn.Subscribe(ctx, "newPendingTransactions")
		assert.NoError(t, err)
		channels[i] = ch
	}

	for i := 0; i < 5; i++ {
		go func() {
			health := conn.GetConnectionHealth()
			assert.NotNil(t, health)
		}()
	}

	for i := 0; i < 5; i++ {
		go func() {
			isConnected := conn.IsConnected()
			assert.True(t, isConnected)
		}()
	}

	time.Sleep(100 * time.Millisecond)

	conn.Close()
}

func TestWebSocketConnection_MessageBuffering(t *testing.T) {
	server := newMockWebSocketServer()
	defer server.close()

	conn := NewWebSocketConnection(nil)
	ctx := context.Background()

	err := conn.Connect(ctx, server.getWebSocketURL())
	require.NoError(t, err)

	msgChan, err := conn.Subscribe(ctx, "newPendingTransactions")
	require.NoError(t, err)

	select {
	case <-msgChan:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for buffered message")
	}

	conn.Close()
}
