package handlers

import (
  "context"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/castly-org/castly-backend/internal/requestdata"
  "github.com/castly-org/castly-backend/internal/services"
  "github.com/castly-org/castly-backend/internal/types"
)

// Stubs embed the service interface so only the lookup used by the
// authorizer needs a real implementation.
type stubConversationService struct {
  services.ConversationService
  owned map[uuid.UUID]bool
}

func (s *stubConversationService) GetConversation(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error) {
  if s.owned[conversationID] {
    return &types.Conversation{ID: conversationID}, nil
  }
  return nil, services.ErrNotFound
}

type stubGroupChatService struct {
  services.GroupChatService
  owned map[uuid.UUID]bool
}

func (s *stubGroupChatService) GetGroupChat(ctx context.Context, groupChatID uuid.UUID) (*types.GroupChat, error) {
  if s.owned[groupChatID] {
    return &types.GroupChat{ID: groupChatID}, nil
  }
  return nil, services.ErrNotFound
}

func TestSubscribeAuthorizer(t *testing.T) {
  userID := uuid.New()
  ownedConversationID := uuid.New()
  ownedGroupChatID := uuid.New()

  conversations := &stubConversationService{owned: map[uuid.UUID]bool{ownedConversationID: true}}
  groupChats := &stubGroupChatService{owned: map[uuid.UUID]bool{ownedGroupChatID: true}}
  rd := &requestdata.RequestData{UserID: userID}
  authorize := subscribeAuthorizer(rd, conversations, groupChats)
  ctx := context.Background()

  t.Run("own user channel", func(t *testing.T) {
    assert.NoError(t, authorize(ctx, "user:"+userID.String()))
  })

  t.Run("foreign user channel", func(t *testing.T) {
    assert.Error(t, authorize(ctx, "user:"+uuid.NewString()))
  })

  t.Run("owned conversation", func(t *testing.T) {
    assert.NoError(t, authorize(ctx, "conversation:"+ownedConversationID.String()))
  })

  t.Run("foreign conversation", func(t *testing.T) {
    err := authorize(ctx, "conversation:"+uuid.NewString())
    require.Error(t, err)
    assert.ErrorIs(t, err, services.ErrNotFound)
  })

  t.Run("owned group chat", func(t *testing.T) {
    assert.NoError(t, authorize(ctx, "groupchat:"+ownedGroupChatID.String()))
  })

  t.Run("foreign group chat", func(t *testing.T) {
    assert.ErrorIs(t, authorize(ctx, "groupchat:"+uuid.NewString()), services.ErrNotFound)
  })

  t.Run("garbage id", func(t *testing.T) {
    assert.Error(t, authorize(ctx, "conversation:not-a-uuid"))
  })

  t.Run("malformed channel", func(t *testing.T) {
    assert.Error(t, authorize(ctx, "nocolons"))
  })

  t.Run("unknown kind", func(t *testing.T) {
    assert.Error(t, authorize(ctx, "weather:today"))
  })
}
