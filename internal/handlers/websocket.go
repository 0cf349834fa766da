package handlers

import (
  "context"
  "fmt"
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/gorilla/websocket"

  "github.com/castly-org/castly-backend/internal/logger"
  "github.com/castly-org/castly-backend/internal/requestdata"
  "github.com/castly-org/castly-backend/internal/services"
  "github.com/castly-org/castly-backend/internal/socket"
)

var upgrader = websocket.Upgrader{
  CheckOrigin: func(r *http.Request) bool {
    return true
  },
}

// WsHandler upgrades the connection and subscribes the client to its user
// channel. Conversation and group chat channels are joined over the wire
// with subscribe messages, gated on ownership of the backing entity.
func WsHandler(hub *socket.Hub, log *logger.Logger, conversationService services.ConversationService, groupChatService services.GroupChatService) gin.HandlerFunc {
  return func(c *gin.Context) {
    ctx := c.Request.Context()

    rd := requestdata.GetRequestData(ctx)
    if rd == nil || rd.UserID == uuid.Nil {
      c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
      return
    }
    conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
      log.Warn("Failed to upgrade to websocket", "error", err)
      return
    }

    // The socket outlives the HTTP request, so the pumps run on a fresh
    // context that still carries the caller's identity.
    wsCtx, cancel := context.WithCancel(requestdata.WithRequestData(context.Background(), rd))
    authorize := subscribeAuthorizer(rd, conversationService, groupChatService)
    client := socket.NewClient(conn, hub, uuid.New(), cancel, authorize, log)

    hub.Subscribe(client, []string{"user:" + rd.UserID.String()})

    go client.ReadLoop(wsCtx)
    go client.WriteLoop(wsCtx)
  }
}

// subscribeAuthorizer limits wire subscriptions to channels whose backing
// entity the connected user owns. The services already collapse foreign
// entities into NotFound, so a lookup failure is a denial.
func subscribeAuthorizer(rd *requestdata.RequestData, conversationService services.ConversationService, groupChatService services.GroupChatService) socket.SubscribeAuthorizer {
  return func(ctx context.Context, channel string) error {
    kind, rawID, ok := strings.Cut(channel, ":")
    if !ok {
      return fmt.Errorf("malformed channel %q", channel)
    }
    switch kind {
    case "user":
      if rawID != rd.UserID.String() {
        return fmt.Errorf("cannot subscribe to another user's channel")
      }
      return nil
    case "conversation":
      conversationID, pErr := uuid.Parse(rawID)
      if pErr != nil {
        return fmt.Errorf("invalid conversation id in channel %q", channel)
      }
      _, gErr := conversationService.GetConversation(ctx, conversationID)
      return gErr
    case "groupchat":
      groupChatID, pErr := uuid.Parse(rawID)
      if pErr != nil {
        return fmt.Errorf("invalid group chat id in channel %q", channel)
      }
      _, gErr := groupChatService.GetGroupChat(ctx, groupChatID)
      return gErr
    default:
      return fmt.Errorf("unknown channel kind %q", kind)
    }
  }
}
