package services

import (
  "context"
  "errors"
  "fmt"

  "gorm.io/gorm"

  "github.com/google/uuid"

  "github.com/castly-org/castly-backend/internal/logger"
  "github.com/castly-org/castly-backend/internal/normalization"
  "github.com/castly-org/castly-backend/internal/prompt"
  "github.com/castly-org/castly-backend/internal/repos"
  "github.com/castly-org/castly-backend/internal/requestdata"
  "github.com/castly-org/castly-backend/internal/socket"
  "github.com/castly-org/castly-backend/internal/types"
)

// GroupChatFallbackReply is stored when a group turn's model response
// carried no message at all. A genuinely empty reply is kept as-is.
const GroupChatFallbackReply = "I have nothing to add at this moment."

type GroupChatService interface {
  CreateGroupChat(ctx context.Context, name, description, topic string, characterIDs []uuid.UUID) (*types.GroupChat, error)
  ListGroupChats(ctx context.Context) ([]*types.GroupChat, error)
  GetGroupChat(ctx context.Context, groupChatID uuid.UUID) (*types.GroupChat, error)
  DeleteGroupChat(ctx context.Context, groupChatID uuid.UUID) error

  ListParticipants(ctx context.Context, groupChatID uuid.UUID) ([]*types.Character, error)
  ListMessages(ctx context.Context, groupChatID uuid.UUID) ([]*types.GroupChatMessage, error)
  SendUserMessage(ctx context.Context, groupChatID uuid.UUID, content string) (*types.GroupChatMessage, error)
  GenerateResponse(ctx context.Context, groupChatID, characterID uuid.UUID) (*types.GroupChatMessage, error)
}

type groupChatService struct {
  db                   *gorm.DB
  log                  *logger.Logger
  groupChatRepo        repos.GroupChatRepo
  groupParticipantRepo repos.GroupParticipantRepo
  groupMessageRepo     repos.GroupMessageRepo
  characterRepo        repos.CharacterRepo
  knowledgeRepo        repos.KnowledgeRepo
  characterService     CharacterService
  avatarService        AvatarService
  llmService           LLMService
  hub                  *socket.Hub
}

func NewGroupChatService(
  db                   *gorm.DB,
  log                  *logger.Logger,
  groupChatRepo        repos.GroupChatRepo,
  groupParticipantRepo repos.GroupParticipantRepo,
  groupMessageRepo     repos.GroupMessageRepo,
  characterRepo        repos.CharacterRepo,
  knowledgeRepo        repos.KnowledgeRepo,
  characterService     CharacterService,
  avatarService        AvatarService,
  llmService           LLMService,
  hub                  *socket.Hub,
) GroupChatService {
  serviceLog := log.With("service", "GroupChatService")
  return &groupChatService{
    db:                   db,
    log:                  serviceLog,
    groupChatRepo:        groupChatRepo,
    groupParticipantRepo: groupParticipantRepo,
    groupMessageRepo:     groupMessageRepo,
    characterRepo:        characterRepo,
    knowledgeRepo:        knowledgeRepo,
    characterService:     characterService,
    avatarService:        avatarService,
    llmService:           llmService,
    hub:                  hub,
  }
}

// CreateGroupChat validates the whole roster before anything is written, so
// a bad participant list leaves no partial group behind.
func (gs *groupChatService) CreateGroupChat(ctx context.Context, name, description, topic string, characterIDs []uuid.UUID) (*types.GroupChat, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    gs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  name = normalization.ParseInputString(name)
  description = normalization.ParseInputString(description)
  topic = normalization.ParseInputString(topic)
  if name == "" {
    return nil, fmt.Errorf("%w: group chat name is required", ErrValidation)
  }

  //1) Deduplicate and validate the roster up front
  seen := make(map[uuid.UUID]bool, len(characterIDs))
  distinct := make([]uuid.UUID, 0, len(characterIDs))
  for _, id := range characterIDs {
    if !seen[id] {
      seen[id] = true
      distinct = append(distinct, id)
    }
  }
  if len(distinct) < 2 {
    return nil, fmt.Errorf("%w: a group chat needs at least two distinct characters", ErrValidation)
  }
  for _, id := range distinct {
    if _, vErr := gs.characterService.GetVisibleCharacter(ctx, nil, rd.UserID, id); vErr != nil {
      return nil, vErr
    }
  }

  //2) Persist group chat plus full roster in one transaction
  groupChat := &types.GroupChat{
    UserID:       rd.UserID,
    Name:         name,
    Description:  description,
    Topic:        topic,
  }
  err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    groupChat.ID = uuid.New()
    if aErr := gs.avatarService.CreateAndUploadGroupChatAvatar(ctx, tx, groupChat); aErr != nil {
      gs.log.Warn("Failure to create and upload group chat avatar, Cannot proceed. Returning error.", "error", aErr)
      return fmt.Errorf("Failure to create and upload group chat avatar: %w", aErr)
    }
    created, cErr := gs.groupChatRepo.Create(ctx, tx, []*types.GroupChat{groupChat})
    if cErr != nil {
      gs.log.Warn("Failed to create group chat, Cannot proceed. Returning error.", "error", cErr)
      return fmt.Errorf("Failure to create group chat: %w", cErr)
    }
    if len(created) == 0 {
      return fmt.Errorf("Failure to create group chat in DB")
    }
    groupChat = created[0]
    participants := make([]*types.GroupChatParticipant, 0, len(distinct))
    for _, id := range distinct {
      participants = append(participants, &types.GroupChatParticipant{
        GroupChatID: groupChat.ID,
        CharacterID: id,
      })
    }
    if _, pErr := gs.groupParticipantRepo.Create(ctx, tx, participants); pErr != nil {
      gs.log.Warn("Failed to create group chat participants, Cannot proceed. Returning error.", "error", pErr)
      return fmt.Errorf("Failure to create group chat participants: %w", pErr)
    }
    return nil
  })
  if err != nil {
    return nil, err
  }
  gs.log.Info("Group chat created :)", "groupChatID", groupChat.ID, "participants", len(distinct))
  return groupChat, nil
}

func (gs *groupChatService) ListGroupChats(ctx context.Context) ([]*types.GroupChat, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    gs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  groupChats, err := gs.groupChatRepo.GetByUserID(ctx, nil, rd.UserID)
  if err != nil {
    gs.log.Warn("Failed to list group chats, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to list group chats: %w", err)
  }
  return groupChats, nil
}

func (gs *groupChatService) getOwnedGroupChat(ctx context.Context, tx *gorm.DB, groupChatID uuid.UUID) (*types.GroupChat, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    gs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  groupChats, err := gs.groupChatRepo.GetByIDs(ctx, tx, []uuid.UUID{groupChatID})
  if err != nil {
    gs.log.Warn("Failed to fetch group chat by id, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to fetch group chat: %w", err)
  }
  if len(groupChats) == 0 || groupChats[0].UserID != rd.UserID {
    return nil, fmt.Errorf("%w: group chat not found", ErrNotFound)
  }
  return groupChats[0], nil
}

func (gs *groupChatService) GetGroupChat(ctx context.Context, groupChatID uuid.UUID) (*types.GroupChat, error) {
  return gs.getOwnedGroupChat(ctx, nil, groupChatID)
}

func (gs *groupChatService) DeleteGroupChat(ctx context.Context, groupChatID uuid.UUID) error {
  if _, err := gs.getOwnedGroupChat(ctx, nil, groupChatID); err != nil {
    return err
  }
  return gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if dErr := gs.groupChatRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{groupChatID}); dErr != nil {
      gs.log.Warn("Failed to delete group chat, Cannot proceed. Returning error.", "error", dErr)
      return fmt.Errorf("failed to delete group chat: %w", dErr)
    }
    gs.log.Info("Group chat deleted", "groupChatID", groupChatID)
    return nil
  })
}

// loadParticipants resolves the roster to characters in join order.
func (gs *groupChatService) loadParticipants(ctx context.Context, tx *gorm.DB, groupChatID uuid.UUID) ([]*types.Character, error) {
  rows, err := gs.groupParticipantRepo.GetByGroupChatID(ctx, tx, groupChatID)
  if err != nil {
    gs.log.Warn("Failed to fetch group chat participants, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to fetch group chat participants: %w", err)
  }
  ids := make([]uuid.UUID, 0, len(rows))
  for _, row := range rows {
    ids = append(ids, row.CharacterID)
  }
  characters, cErr := gs.characterRepo.GetByIDs(ctx, tx, ids)
  if cErr != nil {
    gs.log.Warn("Failed to fetch participant characters, Cannot proceed. Returning error.", "error", cErr)
    return nil, fmt.Errorf("failed to fetch participant characters: %w", cErr)
  }
  byID := make(map[uuid.UUID]*types.Character, len(characters))
  for _, c := range characters {
    byID[c.ID] = c
  }
  ordered := make([]*types.Character, 0, len(ids))
  for _, id := range ids {
    if c, ok := byID[id]; ok {
      ordered = append(ordered, c)
    }
  }
  return ordered, nil
}

func (gs *groupChatService) ListParticipants(ctx context.Context, groupChatID uuid.UUID) ([]*types.Character, error) {
  if _, err := gs.getOwnedGroupChat(ctx, nil, groupChatID); err != nil {
    return nil, err
  }
  return gs.loadParticipants(ctx, nil, groupChatID)
}

func (gs *groupChatService) ListMessages(ctx context.Context, groupChatID uuid.UUID) ([]*types.GroupChatMessage, error) {
  if _, err := gs.getOwnedGroupChat(ctx, nil, groupChatID); err != nil {
    return nil, err
  }
  messages, mErr := gs.groupMessageRepo.GetByGroupChatID(ctx, nil, groupChatID)
  if mErr != nil {
    gs.log.Warn("Failed to list group chat messages, Cannot proceed. Returning error.", "error", mErr)
    return nil, fmt.Errorf("failed to list group chat messages: %w", mErr)
  }
  return messages, nil
}

func (gs *groupChatService) SendUserMessage(ctx context.Context, groupChatID uuid.UUID, content string) (*types.GroupChatMessage, error) {
  if content == "" {
    return nil, fmt.Errorf("%w: message content is required", ErrValidation)
  }
  groupChat, gErr := gs.getOwnedGroupChat(ctx, nil, groupChatID)
  if gErr != nil {
    return nil, gErr
  }
  message := &types.GroupChatMessage{
    GroupChatID: groupChat.ID,
    CharacterID: nil,
    Content:     content,
  }
  created, cErr := gs.groupMessageRepo.Create(ctx, nil, []*types.GroupChatMessage{message})
  if cErr != nil {
    gs.log.Warn("Failed to persist group chat user message, Cannot proceed. Returning error.", "error", cErr)
    return nil, fmt.Errorf("failed to persist group chat message: %w", cErr)
  }
  message = created[0]
  gs.broadcastMessage(ctx, groupChat, message)
  return message, nil
}

// GenerateResponse asks one participant to speak next. The speaker must be
// on the roster; its knowledge is matched against the recent discussion
// rather than a single message.
func (gs *groupChatService) GenerateResponse(ctx context.Context, groupChatID, characterID uuid.UUID) (*types.GroupChatMessage, error) {
  groupChat, gErr := gs.getOwnedGroupChat(ctx, nil, groupChatID)
  if gErr != nil {
    return nil, gErr
  }
  participants, pErr := gs.loadParticipants(ctx, nil, groupChatID)
  if pErr != nil {
    return nil, pErr
  }
  var speaker *types.Character
  for _, participant := range participants {
    if participant.ID == characterID {
      speaker = participant
      break
    }
  }
  if speaker == nil {
    return nil, fmt.Errorf("%w: character is not a participant of this group chat", ErrValidation)
  }

  history, hErr := gs.groupMessageRepo.GetByGroupChatID(ctx, nil, groupChat.ID)
  if hErr != nil {
    gs.log.Warn("Failed to load group chat history, continuing with empty history", "error", hErr)
    history = nil
  }

  //1) Knowledge relevance is judged against the last few turns combined
  entries, kErr := gs.knowledgeRepo.GetByCharacterID(ctx, nil, speaker.ID)
  if kErr != nil {
    gs.log.Warn("Failed to fetch speaker knowledge, continuing without it", "error", kErr)
    entries = nil
  }
  matched := prompt.FilterKnowledge(prompt.RelevanceQuery(history), entries)

  //2) Ask the model; a transport failure surfaces without persisting a turn
  system := prompt.BuildGroupSystemPrompt(speaker, groupChat, participants, matched)
  msgs := prompt.BuildGroupMessages(system, participants, history)
  reply, llmErr := gs.llmService.Complete(ctx, msgs)
  if errors.Is(llmErr, ErrEmptyCompletion) {
    gs.log.Warn("LLM completion carried no reply, storing fallback", "groupChatID", groupChat.ID, "characterID", speaker.ID)
    reply = GroupChatFallbackReply
  } else if llmErr != nil {
    gs.log.Warn("LLM completion failed, Cannot proceed. Returning error.", "error", llmErr, "groupChatID", groupChat.ID, "characterID", speaker.ID)
    return nil, fmt.Errorf("%w: %v", ErrUpstream, llmErr)
  }

  //3) Persist the speaker's turn
  speakerID := speaker.ID
  message := &types.GroupChatMessage{
    GroupChatID: groupChat.ID,
    CharacterID: &speakerID,
    Content:     reply,
  }
  created, cErr := gs.groupMessageRepo.Create(ctx, nil, []*types.GroupChatMessage{message})
  if cErr != nil {
    gs.log.Warn("Failed to persist group chat response, Cannot proceed. Returning error.", "error", cErr)
    return nil, fmt.Errorf("failed to persist group chat response: %w", cErr)
  }
  message = created[0]
  gs.broadcastMessage(ctx, groupChat, message)

  gs.log.Info("Group chat turn completed :)", "groupChatID", groupChat.ID, "characterID", speaker.ID, "matchedKnowledge", len(matched))
  return message, nil
}

func (gs *groupChatService) broadcastMessage(ctx context.Context, groupChat *types.GroupChat, message *types.GroupChatMessage) {
  if gs.hub == nil {
    return
  }
  gs.hub.BroadcastGlobal(ctx, socket.Message{
    Channel: fmt.Sprintf("groupchat:%s", groupChat.ID),
    Data:    message,
  })
}
