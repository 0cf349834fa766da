package socket

import (
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func TestHandleIncomingSkipsOwnOriginDeliversForeign(t *testing.T) {
  log := testLogger(t)
  hub := NewHub(log)
  listener := &Client{ID: uuid.New(), Log: log, Outbound: make(chan Message, 1)}
  hub.Subscribe(listener, []string{"conversation:abc"})

  rp := &RedisPubSub{log: log, channel: "castly_hub_broadcast", nodeID: "node-a"}
  msg := Message{Channel: "conversation:abc", Data: "new message"}

  // Our own publish comes back over Redis; BroadcastGlobal already delivered
  // it locally, so handleIncoming must not deliver it a second time.
  own, err := encodePubSubMessage("node-a", msg)
  require.NoError(t, err)
  rp.handleIncoming(hub, own)
  select {
  case got := <-listener.Outbound:
    t.Fatalf("own-origin publish was redelivered: %+v", got)
  default:
  }

  foreign, err := encodePubSubMessage("node-b", msg)
  require.NoError(t, err)
  rp.handleIncoming(hub, foreign)
  select {
  case got := <-listener.Outbound:
    assert.Equal(t, "conversation:abc", got.Channel)
    assert.Equal(t, "new message", got.Data)
  default:
    t.Fatal("foreign-origin publish never reached the local subscriber")
  }
}

func TestHandleIncomingIgnoresMalformedPayload(t *testing.T) {
  log := testLogger(t)
  hub := NewHub(log)
  listener := &Client{ID: uuid.New(), Log: log, Outbound: make(chan Message, 1)}
  hub.Subscribe(listener, []string{"conversation:abc"})

  rp := &RedisPubSub{log: log, channel: "castly_hub_broadcast", nodeID: "node-a"}
  rp.handleIncoming(hub, "{not json")

  select {
  case got := <-listener.Outbound:
    t.Fatalf("malformed payload was delivered: %+v", got)
  default:
  }
}
