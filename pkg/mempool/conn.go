// Package mempool ingests pending transactions over a WebSocket
// eth_subscribe feed, filters and deduplicates them, and dispatches the
// survivors to the strategy manager (C9).
package mempool

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketConnection manages one WebSocket connection to an RPC
// endpoint's eth_subscribe feed.
type WebSocketConnection interface {
	Connect(ctx context.Context, url string) error
	Subscribe(ctx context.Context, method string, params ...interface{}) (<-chan []byte, error)
	Close() error
	IsConnected() bool
	GetConnectionHealth() ConnectionHealth
}

// ConnectionHealth reports a connection's liveness, as measured by its
// ping/pong cycle.
type ConnectionHealth struct {
	IsHealthy    bool
	LastPingTime time.Time
	ResponseTime time.Duration
	ErrorCount   int
	LastError    error
}

type webSocketConnection struct {
	conn          *websocket.Conn
	url           string
	isConnected   bool
	health        ConnectionHealth
	mu            sync.RWMutex
	pingTicker    *time.Ticker
	stopPing      chan struct{}
	subscriptions map[string]chan []byte
	subMu         sync.RWMutex
	log           *zap.SugaredLogger
}

// NewWebSocketConnection constructs an unconnected WebSocketConnection.
func NewWebSocketConnection(log *zap.SugaredLogger) WebSocketConnection {
	return &webSocketConnection{
		subscriptions: make(map[string]chan []byte),
		log:           log,
	}
}

func (w *webSocketConnection) Connect(ctx context.Context, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.url = url

	dialer := websocket.Dialer{
		HandshakeTimeout: 30 * time.Second,
		ReadBufferSize:   1024 * 16,
		WriteBufferSize:  1024 * 16,
	}

	conn, _, err := dialer.DialContext(ctx, url, http.Header{
		"User-Agent": []string{"mev-engine/1.0"},
	})
	if err != nil {
		w.health.LastError = err
		w.health.ErrorCount++
		return fmt.Errorf("connect to %s: %w", url, err)
	}

	w.conn = conn
	w.isConnected = true
	w.health.IsHealthy = true
	w.health.ErrorCount = 0
	w.health.LastError = nil

	w.startPingRoutine()
	go w.readMessages()

	return nil
}

func (w *webSocketConnection) Subscribe(ctx context.Context, method string, params ...interface{}) (<-chan []byte, error) {
	w.mu.RLock()
	if !w.isConnected || w.conn == nil {
		w.mu.RUnlock()
		return nil, fmt.Errorf("connection not established")
	}
	w.mu.RUnlock()

	subID := fmt.Sprintf("%s_%d", method, rand.Int63())

	subMsg := map[string]interface{}{
		"id":     subID,
		"method": "eth_subscribe",
		"params": append([]interface{}{method}, params...),
	}

	msgBytes, err := json.Marshal(subMsg)
	if err != nil {
		return nil, fmt.Errorf("marshal subscription message: %w", err)
	}

	respChan := make(chan []byte, 512)

	w.subMu.Lock()
	w.subscriptions[subID] = respChan
	w.subMu.Unlock()

	w.mu.Lock()
	err = w.conn.WriteMessage(websocket.TextMessage, msgBytes)
	w.mu.Unlock()

	if err != nil {
		w.subMu.Lock()
		delete(w.subscriptions, subID)
		w.subMu.Unlock()
		close(respChan)
		return nil, fmt.Errorf("send subscription message: %w", err)
	}

	return respChan, nil
}

func (w *webSocketConnection) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopPing != nil {
		select {
		case <-w.stopPing:
		default:
			close(w.stopPing)
		}
		w.stopPing = nil
	}

	if w.pingTicker != nil {
		w.pingTicker.Stop()
		w.pingTicker = nil
	}

	w.subMu.Lock()
	for _, ch := range w.subscriptions {
		select {
		case <-ch:
		default:
			close(ch)
		}
	}
	w.subscriptions = make(map[string]chan []byte)
	w.subMu.Unlock()

	var err error
	if w.conn != nil {
		err = w.conn.Close()
		w.conn = nil
	}

	w.isConnected = false
	w.health.IsHealthy = false
	return err
}

func (w *webSocketConnection) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isConnected && w.conn != nil
}

func (w *webSocketConnection) GetConnectionHealth() ConnectionHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.health
}

func (w *webSocketConnection) startPingRoutine() {
	if w.stopPing != nil {
		select {
		case <-w.stopPing:
		default:
			close(w.stopPing)
		}
	}
	if w.pingTicker != nil {
		w.pingTicker.Stop()
	}

	w.pingTicker = time.NewTicker(30 * time.Second)
	w.stopPing = make(chan struct{})

	go func() {
		defer func() {
			if r := recover(); r != nil && w.log != nil {
				w.log.Errorw("ping routine panic", "recover", r, "url", w.url)
			}
			w.mu.Lock()
			if w.pingTicker != nil {
				w.pingTicker.Stop()
				w.pingTicker = nil
			}
			w.mu.Unlock()
		}()

		for {
			select {
			case <-w.pingTicker.C:
				w.mu.RLock()
				shouldContinue := w.isConnected && w.conn != nil
				w.mu.RUnlock()
				if !shouldContinue {
					return
				}
				w.sendPing()
			case <-w.stopPing:
				return
			}
		}
	}()
}

func (w *webSocketConnection) sendPing() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isConnected || w.conn == nil {
		w.health.IsHealthy = false
		return
	}

	start := time.Now()
	w.health.LastPingTime = start

	if err := w.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
		w.health.LastError = err
		w.health.ErrorCount++
		w.health.IsHealthy = false
		return
	}

	w.conn.SetPongHandler(func(string) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.health.ResponseTime = time.Since(start)
		w.health.IsHealthy = true
		return nil
	})
}

func (w *webSocketConnection) readMessages() {
	defer func() {
		w.mu.Lock()
		w.isConnected = false
		w.health.IsHealthy = false
		w.mu.Unlock()
	}()

	for {
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.health.LastError = err
			w.health.ErrorCount++
			w.health.IsHealthy = false
			w.mu.Unlock()
			if w.log != nil {
				w.log.Warnw("websocket read failed", "url", w.url, "error", err)
			}
			return
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if method, ok := msg["method"].(string); ok && method == "eth_subscription" {
			w.subMu.RLock()
			for _, ch := range w.subscriptions {
				select {
				case ch <- message:
				default:
					if w.log != nil {
						w.log.Warnw("subscription channel full, dropping message", "url", w.url)
					}
				}
			}
			w.subMu.RUnlock()
		}
	}
}
