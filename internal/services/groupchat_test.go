package services

import (
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/castly-org/castly-backend/internal/prompt"
  "github.com/castly-org/castly-backend/internal/types"
)

type groupChatFixture struct {
  userID               uuid.UUID
  kant                 *types.Character
  mill                 *types.Character
  groupChat            *types.GroupChat
  characterRepo        *fakeCharacterRepo
  knowledgeRepo        *fakeKnowledgeRepo
  groupChatRepo        *fakeGroupChatRepo
  groupParticipantRepo *fakeGroupParticipantRepo
  groupMessageRepo     *fakeGroupMessageRepo
  llm                  *fakeLLMService
  service              GroupChatService
}

func newGroupChatFixture(t *testing.T) *groupChatFixture {
  t.Helper()
  log := testLogger(t)

  userID := uuid.New()
  kant := &types.Character{ID: uuid.New(), UserID: userID, Name: "Kant", SystemPrompt: "You are Kant"}
  mill := &types.Character{ID: uuid.New(), UserID: userID, Name: "Mill", SystemPrompt: "You are Mill"}
  groupChat := &types.GroupChat{
    ID:     uuid.New(),
    UserID: userID,
    Name:   "Ethics",
    Topic:  "The trolley problem",
  }
  characterRepo := newFakeCharacterRepo(kant, mill)
  knowledgeRepo := newFakeKnowledgeRepo()
  groupChatRepo := newFakeGroupChatRepo(groupChat)
  groupParticipantRepo := &fakeGroupParticipantRepo{}
  groupMessageRepo := &fakeGroupMessageRepo{}
  llm := &fakeLLMService{reply: "Acting from duty alone."}

  groupParticipantRepo.participants = []*types.GroupChatParticipant{
    {ID: uuid.New(), GroupChatID: groupChat.ID, CharacterID: kant.ID},
    {ID: uuid.New(), GroupChatID: groupChat.ID, CharacterID: mill.ID},
  }

  characterService := NewCharacterService(nil, log, characterRepo, knowledgeRepo, nil)
  service := NewGroupChatService(nil, log, groupChatRepo, groupParticipantRepo, groupMessageRepo,
    characterRepo, knowledgeRepo, characterService, nil, llm, nil)

  return &groupChatFixture{
    userID:               userID,
    kant:                 kant,
    mill:                 mill,
    groupChat:            groupChat,
    characterRepo:        characterRepo,
    knowledgeRepo:        knowledgeRepo,
    groupChatRepo:        groupChatRepo,
    groupParticipantRepo: groupParticipantRepo,
    groupMessageRepo:     groupMessageRepo,
    llm:                  llm,
    service:              service,
  }
}

func TestCreateGroupChatRejectsFewerThanTwoDistinctCharacters(t *testing.T) {
  fx := newGroupChatFixture(t)
  ctx := authedContext(fx.userID)

  _, err := fx.service.CreateGroupChat(ctx, "Solo", "", "", []uuid.UUID{fx.kant.ID})
  assert.ErrorIs(t, err, ErrValidation)

  // Duplicates collapse before the count check.
  _, err = fx.service.CreateGroupChat(ctx, "Dup", "", "", []uuid.UUID{fx.kant.ID, fx.kant.ID})
  assert.ErrorIs(t, err, ErrValidation)

  assert.Zero(t, fx.groupChatRepo.created)
}

func TestCreateGroupChatRejectsInvisibleCharacterWithoutPersisting(t *testing.T) {
  fx := newGroupChatFixture(t)
  hidden := &types.Character{ID: uuid.New(), UserID: uuid.New(), Name: "Hidden", SystemPrompt: "x"}
  fx.characterRepo.characters[hidden.ID] = hidden
  ctx := authedContext(fx.userID)

  _, err := fx.service.CreateGroupChat(ctx, "Mixed", "", "", []uuid.UUID{fx.kant.ID, hidden.ID})
  assert.ErrorIs(t, err, ErrNotFound)
  assert.Zero(t, fx.groupChatRepo.created)
}

func TestCreateGroupChatRequiresName(t *testing.T) {
  fx := newGroupChatFixture(t)
  ctx := authedContext(fx.userID)

  _, err := fx.service.CreateGroupChat(ctx, "   ", "", "", []uuid.UUID{fx.kant.ID, fx.mill.ID})
  assert.ErrorIs(t, err, ErrValidation)
}

func TestSendUserMessageStoresNilCharacterID(t *testing.T) {
  fx := newGroupChatFixture(t)
  ctx := authedContext(fx.userID)

  message, err := fx.service.SendUserMessage(ctx, fx.groupChat.ID, "What about the trolley problem?")
  require.NoError(t, err)
  assert.Nil(t, message.CharacterID)
  assert.Equal(t, "What about the trolley problem?", message.Content)
}

func TestGenerateResponseBuildsGroupPromptAndPersists(t *testing.T) {
  fx := newGroupChatFixture(t)
  fx.knowledgeRepo.add(fx.kant.ID, "Imperative", "act only on universalizable maxims")
  ctx := authedContext(fx.userID)

  _, err := fx.service.SendUserMessage(ctx, fx.groupChat.ID, "Is it moral to pull the lever, on the imperative view?")
  require.NoError(t, err)

  message, gErr := fx.service.GenerateResponse(ctx, fx.groupChat.ID, fx.kant.ID)
  require.NoError(t, gErr)
  require.NotNil(t, message.CharacterID)
  assert.Equal(t, fx.kant.ID, *message.CharacterID)
  assert.Equal(t, "Acting from duty alone.", message.Content)

  require.NotEmpty(t, fx.llm.lastMsgs)
  system := fx.llm.lastMsgs[0]
  assert.Equal(t, prompt.RoleSystem, system.Role)
  assert.Equal(t,
    "You are Kant\n\nDiscussion topic: The trolley problem"+
      "\n\nYou are participating in a group discussion with: Kant, Mill"+
      "\n\nRelevant knowledge:\nImperative: act only on universalizable maxims",
    system.Content)

  // History turns carry the author name under the user role.
  assert.Equal(t, prompt.RoleUser, fx.llm.lastMsgs[1].Role)
  assert.Equal(t, "User: Is it moral to pull the lever, on the imperative view?", fx.llm.lastMsgs[1].Content)
}

func TestGenerateResponseRejectsNonParticipant(t *testing.T) {
  fx := newGroupChatFixture(t)
  outsider := &types.Character{ID: uuid.New(), UserID: fx.userID, Name: "Hume", SystemPrompt: "You are Hume"}
  fx.characterRepo.characters[outsider.ID] = outsider
  ctx := authedContext(fx.userID)

  _, err := fx.service.GenerateResponse(ctx, fx.groupChat.ID, outsider.ID)
  assert.ErrorIs(t, err, ErrValidation)
  assert.Empty(t, fx.groupMessageRepo.messages)
}

func TestGenerateResponseLLMFailureSurfacesUpstream(t *testing.T) {
  fx := newGroupChatFixture(t)
  fx.llm.err = errLLMDown
  ctx := authedContext(fx.userID)

  message, err := fx.service.GenerateResponse(ctx, fx.groupChat.ID, fx.mill.ID)
  assert.ErrorIs(t, err, ErrUpstream)
  assert.Nil(t, message)
  assert.Empty(t, fx.groupMessageRepo.messages)
}

func TestGenerateResponseNoCompletionStoresFallback(t *testing.T) {
  fx := newGroupChatFixture(t)
  fx.llm.err = ErrEmptyCompletion
  ctx := authedContext(fx.userID)

  message, err := fx.service.GenerateResponse(ctx, fx.groupChat.ID, fx.mill.ID)
  require.NoError(t, err)
  assert.Equal(t, GroupChatFallbackReply, message.Content)
  require.NotNil(t, message.CharacterID)
  assert.Equal(t, fx.mill.ID, *message.CharacterID)
}

func TestGenerateResponseKeepsEmptyReplyVerbatim(t *testing.T) {
  fx := newGroupChatFixture(t)
  fx.llm.reply = ""
  ctx := authedContext(fx.userID)

  message, err := fx.service.GenerateResponse(ctx, fx.groupChat.ID, fx.mill.ID)
  require.NoError(t, err)
  assert.Equal(t, "", message.Content)
}

func TestGenerateResponseForeignGroupChatIsNotFound(t *testing.T) {
  fx := newGroupChatFixture(t)
  ctx := authedContext(uuid.New())

  _, err := fx.service.GenerateResponse(ctx, fx.groupChat.ID, fx.kant.ID)
  assert.ErrorIs(t, err, ErrNotFound)
}

func TestListParticipantsKeepsJoinOrder(t *testing.T) {
  fx := newGroupChatFixture(t)
  ctx := authedContext(fx.userID)

  participants, err := fx.service.ListParticipants(ctx, fx.groupChat.ID)
  require.NoError(t, err)
  require.Len(t, participants, 2)
  assert.Equal(t, "Kant", participants[0].Name)
  assert.Equal(t, "Mill", participants[1].Name)
}
