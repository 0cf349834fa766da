package socket

import (
  "context"
  "errors"
  "net/http"
  "net/http/httptest"
  "strings"
  "testing"
  "time"

  "github.com/google/uuid"
  "github.com/gorilla/websocket"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/castly-org/castly-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  require.NoError(t, err)
  return log
}

// newTestSocketPair upgrades a real websocket, runs both pumps on the server
// side, and hands back the server's Client plus the dialing peer conn.
func newTestSocketPair(t *testing.T, hub *Hub, authorize SubscribeAuthorizer) (*Client, *websocket.Conn) {
  t.Helper()
  log := testLogger(t)
  upgrader := websocket.Upgrader{}
  clientCh := make(chan *Client, 1)

  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
      return
    }
    ctx, cancel := context.WithCancel(context.Background())
    client := NewClient(conn, hub, uuid.New(), cancel, authorize, log)
    go client.ReadLoop(ctx)
    go client.WriteLoop(ctx)
    clientCh <- client
  }))
  t.Cleanup(srv.Close)

  peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
  require.NoError(t, err)
  t.Cleanup(func() { _ = peer.Close() })

  select {
  case client := <-clientCh:
    return client, peer
  case <-time.After(2 * time.Second):
    t.Fatal("server never produced a client")
    return nil, nil
  }
}

func hubHasSubscriber(h *Hub, channel string, id uuid.UUID) bool {
  h.mu.RLock()
  defer h.mu.RUnlock()
  clientsMap, ok := h.channels[channel]
  if !ok {
    return false
  }
  _, ok = clientsMap[id]
  return ok
}

func TestClientCloseIsIdempotent(t *testing.T) {
  hub := NewHub(testLogger(t))
  client, peer := newTestSocketPair(t, hub, nil)
  hub.Subscribe(client, []string{"user:" + client.ID.String()})

  // Dropping the peer makes the read pump fail and both pumps tear down.
  // The second teardown must be a no-op instead of closing Outbound again.
  require.NoError(t, peer.Close())
  require.Eventually(t, func() bool {
    select {
    case _, ok := <-client.Outbound:
      return !ok
    default:
      return false
    }
  }, 2*time.Second, 10*time.Millisecond)

  client.close()
  client.close()

  assert.False(t, hubHasSubscriber(hub, "user:"+client.ID.String(), client.ID))
}

func TestReadLoopSubscribeHonorsAuthorizer(t *testing.T) {
  hub := NewHub(testLogger(t))
  denied := errors.New("channel is not yours")
  authorize := func(ctx context.Context, channel string) error {
    if strings.HasPrefix(channel, "conversation:") {
      return denied
    }
    return nil
  }
  client, peer := newTestSocketPair(t, hub, authorize)

  require.NoError(t, peer.WriteJSON(InboundMessage{Action: "subscribe", Channel: "conversation:secret"}))
  require.NoError(t, peer.WriteJSON(InboundMessage{Action: "subscribe", Channel: "user:me"}))

  // Messages are handled in order, so once the allowed subscription landed
  // the denied one has already been processed and dropped.
  require.Eventually(t, func() bool {
    return hubHasSubscriber(hub, "user:me", client.ID)
  }, 2*time.Second, 10*time.Millisecond)
  assert.False(t, hubHasSubscriber(hub, "conversation:secret", client.ID))
}

func TestReadLoopUnsubscribeLeavesChannel(t *testing.T) {
  hub := NewHub(testLogger(t))
  client, peer := newTestSocketPair(t, hub, nil)

  require.NoError(t, peer.WriteJSON(InboundMessage{Action: "subscribe", Channel: "groupchat:abc"}))
  require.Eventually(t, func() bool {
    return hubHasSubscriber(hub, "groupchat:abc", client.ID)
  }, 2*time.Second, 10*time.Millisecond)

  require.NoError(t, peer.WriteJSON(InboundMessage{Action: "unsubscribe", Channel: "groupchat:abc"}))
  require.Eventually(t, func() bool {
    return !hubHasSubscriber(hub, "groupchat:abc", client.ID)
  }, 2*time.Second, 10*time.Millisecond)
}
