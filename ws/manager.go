package ws

import (
	"context"
	"sync"

	"businessconnect_backend/internal/logger"
)

// WebSocketManager tracks live connections per user. A user may hold several
// connections (tabs, devices); pushes go to all of them.
type WebSocketManager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations until ctx is done, then closes every connection.
func (manager *WebSocketManager) Run(ctx context.Context) {
	defer manager.stopOnce.Do(func() { close(manager.done) })

	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			conns, ok := manager.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				manager.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			manager.mu.Unlock()
			logger.Debug("WebSocket client registered", "user_id", client.UserID, "connections", len(conns))

		case client := <-manager.unregister:
			manager.remove(client)

		case <-ctx.Done():
			manager.mu.Lock()
			for userID, conns := range manager.clients {
				for client := range conns {
					client.close()
				}
				delete(manager.clients, userID)
			}
			manager.mu.Unlock()
			return
		}
	}
}

// registerClient reports false once the hub has stopped.
func (manager *WebSocketManager) registerClient(client *Client) bool {
	select {
	case manager.register <- client:
		return true
	case <-manager.done:
		return false
	}
}

func (manager *WebSocketManager) unregisterClient(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	client.close()
	conns, ok := manager.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(manager.clients, client.UserID)
	}
	logger.Debug("WebSocket client unregistered", "user_id", client.UserID)
}

// PushToUser queues payload on every connection of the user. It reports
// whether at least one connection accepted it. Slow clients are dropped.
func (manager *WebSocketManager) PushToUser(userID string, payload interface{}) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	delivered := false
	for client := range manager.clients[userID] {
		if client.trySend(payload) {
			delivered = true
			continue
		}
		if client.close() {
			logger.Warn("WebSocket client dropped, send buffer full", "user_id", userID)
			go manager.unregisterClient(client)
		}
	}
	return delivered
}

// ClientCount returns the number of open connections.
func (manager *WebSocketManager) ClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	n := 0
	for _, conns := range manager.clients {
		n += len(conns)
	}
	return n
}

func (manager *WebSocketManager) IsUserConnected(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[userID]) > 0
}
