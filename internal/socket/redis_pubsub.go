package socket

import (
  "context"
  "encoding/json"
  "fmt"
  "sync"
  "time"

  "github.com/google/uuid"
  "github.com/redis/go-redis/v9"

  "github.com/castly-org/castly-backend/internal/logger"
)

// pubSubEnvelope wraps a broadcast with the publishing node's id so the
// publisher can recognise, and drop, its own message coming back.
type pubSubEnvelope struct {
  Origin  string  `json:"origin"`
  Message Message `json:"message"`
}

type RedisPubSub struct {
  log          *logger.Logger
  client       *redis.Client
  channel      string
  nodeID       string
  cancelFunc   context.CancelFunc
  mu           sync.Mutex
}

func NewRedisPubSub(log *logger.Logger, address, password, channel string) (*RedisPubSub, error) {
  opt := &redis.Options{
    Addr:      address,
    Password:  password,
    DB:        0,
  }
  rdb := redis.NewClient(opt)

  ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    return nil, fmt.Errorf("redis ping failed: %w", err)
  }
  return &RedisPubSub{
    log:      log.With("component", "RedisPubSub"),
    client:   rdb,
    channel:  channel,
    nodeID:   uuid.New().String(),
  }, nil
}

func (rp *RedisPubSub) StartSubscriber(hub *Hub) error {
  ctx, cancel := context.WithCancel(context.Background())
  rp.cancelFunc = cancel

  pubsub := rp.client.Subscribe(ctx, rp.channel)

  if _, err := pubsub.Receive(ctx); err != nil {
    return fmt.Errorf("failed to subscribe to redis channel: %w", err)
  }
  rp.log.Info("RedisPubSub subscribed successfully", "channel", rp.channel)

  go func() {
    ch := pubsub.Channel()
    for {
      select {
      case <-ctx.Done():
        rp.log.Debug("Redis pubsub context done, stopping subscription goroutine")
        return
      case msg, ok := <-ch:
        if !ok {
          rp.log.Debug("PubSub channel closed, stopping subscription goroutine")
          return
        }
        rp.handleIncoming(hub, msg.Payload)
      }
    }
  }()
  return nil
}

// handleIncoming rebroadcasts foreign publishes locally. Our own publishes
// come back too; those were already delivered by BroadcastGlobal, so they
// are dropped here instead of reaching every client a second time.
func (rp *RedisPubSub) handleIncoming(hub *Hub, payload string) {
  envelope, err := decodePubSubMessage(payload)
  if err != nil {
    rp.log.Warn("Failed to decode pubsub message", "error", err)
    return
  }
  if envelope.Origin == rp.nodeID {
    return
  }
  hub.localBroadcast(envelope.Message)
}

func (rp *RedisPubSub) Publish(msg Message) error {
  payload, err := encodePubSubMessage(rp.nodeID, msg)
  if err != nil {
    rp.log.Warn("failed to encode message for redis", "error", err)
    return err
  }
  return rp.client.Publish(context.Background(), rp.channel, payload).Err()
}

func (rp *RedisPubSub) Stop() {
  rp.mu.Lock()
  defer rp.mu.Unlock()
  if rp.cancelFunc != nil {
    rp.cancelFunc()
    rp.cancelFunc = nil
  }
}

func encodePubSubMessage(origin string, m Message) (string, error) {
  raw, err := json.Marshal(pubSubEnvelope{Origin: origin, Message: m})
  if err != nil {
    return "", err
  }
  return string(raw), nil
}

func decodePubSubMessage(payload string) (pubSubEnvelope, error) {
  var envelope pubSubEnvelope
  if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
    return envelope, fmt.Errorf("json unmarshal failed: %w", err)
  }
  return envelope, nil
}
