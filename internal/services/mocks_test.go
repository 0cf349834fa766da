package services

import (
  "bytes"
  "context"
  "errors"
  "testing"

  "gorm.io/gorm"

  "github.com/google/uuid"
  "github.com/stretchr/testify/require"

  "github.com/castly-org/castly-backend/internal/logger"
  "github.com/castly-org/castly-backend/internal/prompt"
  "github.com/castly-org/castly-backend/internal/requestdata"
  "github.com/castly-org/castly-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  require.NoError(t, err)
  return log
}

func authedContext(userID uuid.UUID) context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    TokenString: "test-token",
    UserID:      userID,
  })
}

//---------------------------------------------------------------------
// repo fakes
//---------------------------------------------------------------------

type fakeCharacterRepo struct {
  characters map[uuid.UUID]*types.Character
}

func newFakeCharacterRepo(characters ...*types.Character) *fakeCharacterRepo {
  m := make(map[uuid.UUID]*types.Character)
  for _, c := range characters {
    m[c.ID] = c
  }
  return &fakeCharacterRepo{characters: m}
}

func (f *fakeCharacterRepo) Create(ctx context.Context, tx *gorm.DB, characters []*types.Character) ([]*types.Character, error) {
  for _, c := range characters {
    if c.ID == uuid.Nil {
      c.ID = uuid.New()
    }
    f.characters[c.ID] = c
  }
  return characters, nil
}

func (f *fakeCharacterRepo) GetByIDs(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID) ([]*types.Character, error) {
  var out []*types.Character
  for _, id := range characterIDs {
    if c, ok := f.characters[id]; ok {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeCharacterRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Character, error) {
  var out []*types.Character
  for _, c := range f.characters {
    if c.UserID == userID {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeCharacterRepo) GetPublic(ctx context.Context, tx *gorm.DB) ([]*types.Character, error) {
  var out []*types.Character
  for _, c := range f.characters {
    if c.IsPublic {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeCharacterRepo) Update(ctx context.Context, tx *gorm.DB, characters []*types.Character) ([]*types.Character, error) {
  for _, c := range characters {
    f.characters[c.ID] = c
  }
  return characters, nil
}

func (f *fakeCharacterRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID) error {
  for _, id := range characterIDs {
    delete(f.characters, id)
  }
  return nil
}

type fakeKnowledgeRepo struct {
  entries map[uuid.UUID][]*types.CharacterKnowledge
}

func newFakeKnowledgeRepo() *fakeKnowledgeRepo {
  return &fakeKnowledgeRepo{entries: make(map[uuid.UUID][]*types.CharacterKnowledge)}
}

func (f *fakeKnowledgeRepo) add(characterID uuid.UUID, title, content string) {
  f.entries[characterID] = append(f.entries[characterID], &types.CharacterKnowledge{
    ID:          uuid.New(),
    CharacterID: characterID,
    Title:       title,
    Content:     content,
  })
}

func (f *fakeKnowledgeRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.CharacterKnowledge) ([]*types.CharacterKnowledge, error) {
  for _, e := range entries {
    if e.ID == uuid.Nil {
      e.ID = uuid.New()
    }
    f.entries[e.CharacterID] = append(f.entries[e.CharacterID], e)
  }
  return entries, nil
}

func (f *fakeKnowledgeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, entryIDs []uuid.UUID) ([]*types.CharacterKnowledge, error) {
  var out []*types.CharacterKnowledge
  for _, list := range f.entries {
    for _, e := range list {
      for _, id := range entryIDs {
        if e.ID == id {
          out = append(out, e)
        }
      }
    }
  }
  return out, nil
}

func (f *fakeKnowledgeRepo) GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.CharacterKnowledge, error) {
  return f.entries[characterID], nil
}

func (f *fakeKnowledgeRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, entryIDs []uuid.UUID) error {
  for characterID, list := range f.entries {
    var kept []*types.CharacterKnowledge
    for _, e := range list {
      del := false
      for _, id := range entryIDs {
        if e.ID == id {
          del = true
        }
      }
      if !del {
        kept = append(kept, e)
      }
    }
    f.entries[characterID] = kept
  }
  return nil
}

type fakeConversationRepo struct {
  conversations map[uuid.UUID]*types.Conversation
}

func newFakeConversationRepo(conversations ...*types.Conversation) *fakeConversationRepo {
  m := make(map[uuid.UUID]*types.Conversation)
  for _, c := range conversations {
    m[c.ID] = c
  }
  return &fakeConversationRepo{conversations: m}
}

func (f *fakeConversationRepo) Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error) {
  for _, c := range conversations {
    if c.ID == uuid.Nil {
      c.ID = uuid.New()
    }
    f.conversations[c.ID] = c
  }
  return conversations, nil
}

func (f *fakeConversationRepo) GetByIDs(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) ([]*types.Conversation, error) {
  var out []*types.Conversation
  for _, id := range conversationIDs {
    if c, ok := f.conversations[id]; ok {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeConversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
  var out []*types.Conversation
  for _, c := range f.conversations {
    if c.UserID == userID {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeConversationRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) error {
  for _, id := range conversationIDs {
    delete(f.conversations, id)
  }
  return nil
}

type fakeMessageRepo struct {
  messages    []*types.Message
  createCalls int
  failOnCall  int // 1-based create call index that errors; 0 disables
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, msgs []*types.Message) ([]*types.Message, error) {
  f.createCalls++
  if f.failOnCall != 0 && f.createCalls == f.failOnCall {
    return nil, errors.New("message create failed")
  }
  for _, m := range msgs {
    if m.ID == uuid.Nil {
      m.ID = uuid.New()
    }
    f.messages = append(f.messages, m)
  }
  return msgs, nil
}

func (f *fakeMessageRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
  var out []*types.Message
  for _, m := range f.messages {
    if m.ConversationID == conversationID {
      out = append(out, m)
    }
  }
  return out, nil
}

type fakeGroupChatRepo struct {
  groupChats map[uuid.UUID]*types.GroupChat
  created    int
}

func newFakeGroupChatRepo(groupChats ...*types.GroupChat) *fakeGroupChatRepo {
  m := make(map[uuid.UUID]*types.GroupChat)
  for _, g := range groupChats {
    m[g.ID] = g
  }
  return &fakeGroupChatRepo{groupChats: m}
}

func (f *fakeGroupChatRepo) Create(ctx context.Context, tx *gorm.DB, groupChats []*types.GroupChat) ([]*types.GroupChat, error) {
  for _, g := range groupChats {
    if g.ID == uuid.Nil {
      g.ID = uuid.New()
    }
    f.groupChats[g.ID] = g
    f.created++
  }
  return groupChats, nil
}

func (f *fakeGroupChatRepo) GetByIDs(ctx context.Context, tx *gorm.DB, groupChatIDs []uuid.UUID) ([]*types.GroupChat, error) {
  var out []*types.GroupChat
  for _, id := range groupChatIDs {
    if g, ok := f.groupChats[id]; ok {
      out = append(out, g)
    }
  }
  return out, nil
}

func (f *fakeGroupChatRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GroupChat, error) {
  var out []*types.GroupChat
  for _, g := range f.groupChats {
    if g.UserID == userID {
      out = append(out, g)
    }
  }
  return out, nil
}

func (f *fakeGroupChatRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, groupChatIDs []uuid.UUID) error {
  for _, id := range groupChatIDs {
    delete(f.groupChats, id)
  }
  return nil
}

type fakeGroupParticipantRepo struct {
  participants []*types.GroupChatParticipant
}

func (f *fakeGroupParticipantRepo) Create(ctx context.Context, tx *gorm.DB, participants []*types.GroupChatParticipant) ([]*types.GroupChatParticipant, error) {
  for _, p := range participants {
    if p.ID == uuid.Nil {
      p.ID = uuid.New()
    }
    f.participants = append(f.participants, p)
  }
  return participants, nil
}

func (f *fakeGroupParticipantRepo) GetByGroupChatID(ctx context.Context, tx *gorm.DB, groupChatID uuid.UUID) ([]*types.GroupChatParticipant, error) {
  var out []*types.GroupChatParticipant
  for _, p := range f.participants {
    if p.GroupChatID == groupChatID {
      out = append(out, p)
    }
  }
  return out, nil
}

type fakeGroupMessageRepo struct {
  messages []*types.GroupChatMessage
}

func (f *fakeGroupMessageRepo) Create(ctx context.Context, tx *gorm.DB, msgs []*types.GroupChatMessage) ([]*types.GroupChatMessage, error) {
  for _, m := range msgs {
    if m.ID == uuid.Nil {
      m.ID = uuid.New()
    }
    f.messages = append(f.messages, m)
  }
  return msgs, nil
}

func (f *fakeGroupMessageRepo) GetByGroupChatID(ctx context.Context, tx *gorm.DB, groupChatID uuid.UUID) ([]*types.GroupChatMessage, error) {
  var out []*types.GroupChatMessage
  for _, m := range f.messages {
    if m.GroupChatID == groupChatID {
      out = append(out, m)
    }
  }
  return out, nil
}

//---------------------------------------------------------------------
// llm fake
//---------------------------------------------------------------------

type fakeLLMService struct {
  reply     string
  err       error
  lastMsgs  []prompt.Message
  calls     int
}

func (f *fakeLLMService) Complete(ctx context.Context, msgs []prompt.Message) (string, error) {
  f.calls++
  f.lastMsgs = msgs
  if f.err != nil {
    return "", f.err
  }
  return f.reply, nil
}

var errLLMDown = errors.New("llm unavailable")

//---------------------------------------------------------------------
// avatar fake
//---------------------------------------------------------------------

type fakeAvatarService struct {
  userCalls      int
  characterCalls int
  groupCalls     int
}

func (f *fakeAvatarService) CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error {
  f.userCalls++
  user.AvatarBucketKey = "avatars/user/" + user.ID.String()
  user.AvatarURL = "https://storage.test/" + user.AvatarBucketKey
  return nil
}

func (f *fakeAvatarService) CreateAndUploadCharacterAvatar(ctx context.Context, tx *gorm.DB, character *types.Character) error {
  f.characterCalls++
  character.AvatarBucketKey = "avatars/character/" + character.ID.String()
  character.AvatarURL = "https://storage.test/" + character.AvatarBucketKey
  return nil
}

func (f *fakeAvatarService) CreateAndUploadGroupChatAvatar(ctx context.Context, tx *gorm.DB, groupChat *types.GroupChat) error {
  f.groupCalls++
  groupChat.AvatarBucketKey = "avatars/groupchat/" + groupChat.ID.String()
  groupChat.AvatarURL = "https://storage.test/" + groupChat.AvatarBucketKey
  return nil
}

func (f *fakeAvatarService) GenerateInitialsAvatar(ctx context.Context, name string) (bytes.Buffer, error) {
  return bytes.Buffer{}, nil
}

func (f *fakeAvatarService) GenerateGroupChatAvatar(ctx context.Context) (bytes.Buffer, error) {
  return bytes.Buffer{}, nil
}
