package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

type staticValidator map[string]string

func (v staticValidator) ValidateAccessToken(_ context.Context, token string) (*dto.AccessClaims, error) {
	userID, ok := v[token]
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	return &dto.AccessClaims{UserID: userID}, nil
}

func TestManager_PushToUserReachesEveryConnection(t *testing.T) {
	manager := NewWebSocketManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)

	first := bufferedClient(manager, "u1", 1)
	second := bufferedClient(manager, "u1", 1)
	require.True(t, manager.registerClient(first))
	require.True(t, manager.registerClient(second))

	require.Eventually(t, func() bool { return manager.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	assert.True(t, manager.PushToUser("u1", "hello"))
	assert.Equal(t, "hello", <-first.Send)
	assert.Equal(t, "hello", <-second.Send)

	assert.False(t, manager.PushToUser("nobody", "hello"))

	manager.unregisterClient(first)
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, manager.IsUserConnected("u1"))
}

func bufferedClient(manager *WebSocketManager, userID string, buffer int) *Client {
	c := newClient(manager, nil, userID)
	c.Send = make(chan interface{}, buffer)
	return c
}

func TestManager_SlowClientDroppedThenPing(t *testing.T) {
	manager := NewWebSocketManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)

	slow := bufferedClient(manager, "u1", 1)
	require.True(t, manager.registerClient(slow))
	require.Eventually(t, func() bool { return manager.IsUserConnected("u1") }, time.Second, 10*time.Millisecond)

	assert.True(t, manager.PushToUser("u1", "first"))
	assert.False(t, manager.PushToUser("u1", "second"), "full buffer drops the client")
	require.Eventually(t, func() bool { return manager.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	// the reader may still deliver frames after the drop
	assert.NotPanics(t, func() {
		slow.handleMessage(IncomingWSMessage{Action: "ping"})
	})
	assert.False(t, manager.PushToUser("u1", "third"))
	assert.Equal(t, "first", <-slow.Send)
	assert.Empty(t, slow.Send)
}

func TestManager_StoppedHubDoesNotBlock(t *testing.T) {
	manager := NewWebSocketManager()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(stopped)
	}()

	client := bufferedClient(manager, "u1", 1)
	require.True(t, manager.registerClient(client))
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		manager.unregisterClient(client)
		assert.False(t, manager.registerClient(bufferedClient(manager, "u2", 1)))
		client.handleMessage(IncomingWSMessage{Action: "ping"})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
	assert.False(t, client.trySend("late"))
}

func TestServeWS_RequiresValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := NewWebSocketManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)

	handler := NewWebSocketHandler(manager, staticValidator{"good": "u42"}, "*")
	router := gin.New()
	router.GET("/ws", handler.ServeWS)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return manager.IsUserConnected("u42") }, time.Second, 10*time.Millisecond)
	require.True(t, manager.PushToUser("u42", map[string]string{"event": "notification"}))

	var got map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notification", got["event"])
}

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins("*"))
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, map[string]bool{"https://a.sn": true, "https://b.sn": true}, parseOrigins("https://a.sn, https://b.sn"))
}
