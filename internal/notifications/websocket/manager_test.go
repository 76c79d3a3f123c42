package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendToUserReachesConnectedClient(t *testing.T) {
	manager := NewManager([]string{"*"}, zap.NewNop())
	userID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = manager.Serve(w, r, userID)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	assert.Eventually(t, func() bool { return manager.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	delivered := manager.SendToUser(userID, Message{Type: "NEW_MESSAGE", Data: map[string]string{"title": "hello"}})
	assert.True(t, delivered)

	var got Message
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "NEW_MESSAGE", got.Type)
	assert.False(t, got.Timestamp.IsZero())
}

func TestSendToUserWithoutConnection(t *testing.T) {
	manager := NewManager(nil, zap.NewNop())

	assert.False(t, manager.SendToUser(uuid.New(), Message{Type: "NEW_MESSAGE"}))
}

func TestClientDisconnectUnregisters(t *testing.T) {
	manager := NewManager([]string{"*"}, zap.NewNop())
	userID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = manager.Serve(w, r, userID)
	}))
	defer server.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return manager.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	client.Close()

	assert.Eventually(t, func() bool { return manager.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
