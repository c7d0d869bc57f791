// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "pulseviz/internal/log"
)

// WebSocketTransport broadcasts feature vectors as JSON to connected
// clients on /features. Sends are rate limited so a fast analysis
// cadence does not flood clients or the network; dropped updates are
// correct here because only the latest audio state matters.
type WebSocketTransport struct {
	upgrader websocket.Upgrader
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex

	lastSend        time.Time
	minSendInterval time.Duration
}

// NewWebSocketTransport starts a WebSocket server on the given port.
// The server runs in its own goroutine until Close.
func NewWebSocketTransport(port string) *WebSocketTransport {
	t := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, any origin may connect
			},
		},
		clients:         make(map[*websocket.Conn]bool),
		minSendInterval: 16 * time.Millisecond, // ~60Hz cap
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/features", t.handleWebSocket)
	t.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		applog.Infof("Transport: WebSocket server listening on port %s", port)
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("Transport: WebSocket server error: %v", err)
		}
	}()

	return t
}

// handleWebSocket upgrades the connection and registers the client. A
// reader goroutine watches for the close message and deregisters.
func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("Transport: WebSocket upgrade error: %v", err)
		return
	}

	t.clientsMu.Lock()
	t.clients[conn] = true
	total := len(t.clients)
	t.clientsMu.Unlock()
	applog.Infof("Transport: WebSocket client connected, total: %d", total)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				t.clientsMu.Lock()
				delete(t.clients, conn)
				total := len(t.clients)
				t.clientsMu.Unlock()
				conn.Close()
				applog.Infof("Transport: WebSocket client disconnected, total: %d", total)
				return
			}
		}
	}()
}

// Send broadcasts the data as JSON to all connected clients, dropping
// the update if it arrives inside the rate limit window. Safe for
// concurrent use; failed clients are removed.
func (t *WebSocketTransport) Send(data any) error {
	now := time.Now()

	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()

	if now.Sub(t.lastSend) < t.minSendInterval {
		return nil
	}
	t.lastSend = now

	for client := range t.clients {
		if err := client.WriteJSON(data); err != nil {
			client.Close()
			delete(t.clients, client)
		}
	}
	return nil
}

// Close disconnects all clients and shuts down the server. Idempotent.
func (t *WebSocketTransport) Close() error {
	t.clientsMu.Lock()
	for client := range t.clients {
		client.Close()
		delete(t.clients, client)
	}
	t.clientsMu.Unlock()

	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

var _ Transport = (*WebSocketTransport)(nil)
