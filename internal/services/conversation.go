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

// ConversationFallbackReply is stored when the model response carried no
// message at all. A genuinely empty reply is kept as-is.
const ConversationFallbackReply = "I'm sorry, I couldn't generate a response."

type ConversationService interface {
  CreateConversation(ctx context.Context, characterID uuid.UUID, title string) (*types.Conversation, error)
  ListConversations(ctx context.Context) ([]*types.Conversation, error)
  GetConversation(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error)
  DeleteConversation(ctx context.Context, conversationID uuid.UUID) error

  ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*types.Message, error)
  SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*types.Message, *types.Message, error)
}

type conversationService struct {
  db                 *gorm.DB
  log                *logger.Logger
  conversationRepo   repos.ConversationRepo
  messageRepo        repos.MessageRepo
  characterRepo      repos.CharacterRepo
  knowledgeRepo      repos.KnowledgeRepo
  characterService   CharacterService
  llmService         LLMService
  hub                *socket.Hub
}

func NewConversationService(
  db                 *gorm.DB,
  log                *logger.Logger,
  conversationRepo   repos.ConversationRepo,
  messageRepo        repos.MessageRepo,
  characterRepo      repos.CharacterRepo,
  knowledgeRepo      repos.KnowledgeRepo,
  characterService   CharacterService,
  llmService         LLMService,
  hub                *socket.Hub,
) ConversationService {
  serviceLog := log.With("service", "ConversationService")
  return &conversationService{
    db:               db,
    log:              serviceLog,
    conversationRepo: conversationRepo,
    messageRepo:      messageRepo,
    characterRepo:    characterRepo,
    knowledgeRepo:    knowledgeRepo,
    characterService: characterService,
    llmService:       llmService,
    hub:              hub,
  }
}

func (cs *conversationService) CreateConversation(ctx context.Context, characterID uuid.UUID, title string) (*types.Conversation, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  character, chErr := cs.characterService.GetVisibleCharacter(ctx, nil, rd.UserID, characterID)
  if chErr != nil {
    return nil, chErr
  }
  title = normalization.ParseInputString(title)
  if title == "" {
    title = fmt.Sprintf("Chat with %s", character.Name)
  }
  conversation := &types.Conversation{
    UserID:       rd.UserID,
    CharacterID:  character.ID,
    Title:        title,
  }
  created, cErr := cs.conversationRepo.Create(ctx, nil, []*types.Conversation{conversation})
  if cErr != nil {
    cs.log.Warn("Failed to create conversation, Cannot proceed. Returning error.", "error", cErr)
    return nil, fmt.Errorf("failed to create conversation: %w", cErr)
  }
  if len(created) == 0 {
    return nil, fmt.Errorf("failed to create conversation in DB")
  }
  cs.log.Info("Conversation created :)", "conversationID", created[0].ID, "characterID", character.ID)
  return created[0], nil
}

func (cs *conversationService) ListConversations(ctx context.Context) ([]*types.Conversation, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  conversations, err := cs.conversationRepo.GetByUserID(ctx, nil, rd.UserID)
  if err != nil {
    cs.log.Warn("Failed to list conversations, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to list conversations: %w", err)
  }
  return conversations, nil
}

func (cs *conversationService) getOwnedConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Conversation, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  conversations, err := cs.conversationRepo.GetByIDs(ctx, tx, []uuid.UUID{conversationID})
  if err != nil {
    cs.log.Warn("Failed to fetch conversation by id, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to fetch conversation: %w", err)
  }
  if len(conversations) == 0 || conversations[0].UserID != rd.UserID {
    return nil, fmt.Errorf("%w: conversation not found", ErrNotFound)
  }
  return conversations[0], nil
}

func (cs *conversationService) GetConversation(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error) {
  return cs.getOwnedConversation(ctx, nil, conversationID)
}

func (cs *conversationService) DeleteConversation(ctx context.Context, conversationID uuid.UUID) error {
  if _, err := cs.getOwnedConversation(ctx, nil, conversationID); err != nil {
    return err
  }
  return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if dErr := cs.conversationRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{conversationID}); dErr != nil {
      cs.log.Warn("Failed to delete conversation, Cannot proceed. Returning error.", "error", dErr)
      return fmt.Errorf("failed to delete conversation: %w", dErr)
    }
    cs.log.Info("Conversation deleted", "conversationID", conversationID)
    return nil
  })
}

func (cs *conversationService) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*types.Message, error) {
  if _, err := cs.getOwnedConversation(ctx, nil, conversationID); err != nil {
    return nil, err
  }
  messages, mErr := cs.messageRepo.GetByConversationID(ctx, nil, conversationID)
  if mErr != nil {
    cs.log.Warn("Failed to list messages, Cannot proceed. Returning error.", "error", mErr)
    return nil, fmt.Errorf("failed to list messages: %w", mErr)
  }
  return messages, nil
}

// SendMessage persists the user turn, asks the model for the character's
// reply, and persists that reply. The user turn stays stored even when the
// model call fails; a failed call surfaces as ErrUpstream with no assistant
// turn, while a call that answers with nothing stores a canned apology.
func (cs *conversationService) SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*types.Message, *types.Message, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  if content == "" {
    return nil, nil, fmt.Errorf("%w: message content is required", ErrValidation)
  }
  conversation, convErr := cs.getOwnedConversation(ctx, nil, conversationID)
  if convErr != nil {
    return nil, nil, convErr
  }
  characters, chErr := cs.characterRepo.GetByIDs(ctx, nil, []uuid.UUID{conversation.CharacterID})
  if chErr != nil {
    cs.log.Warn("Failed to fetch conversation character, Cannot proceed. Returning error.", "error", chErr)
    return nil, nil, fmt.Errorf("failed to fetch character: %w", chErr)
  }
  if len(characters) == 0 {
    return nil, nil, fmt.Errorf("%w: character not found", ErrNotFound)
  }
  character := characters[0]

  //1) Persist the user turn first so it survives any downstream failure
  userMessage := &types.Message{
    ConversationID: conversation.ID,
    Role:           types.MessageRoleUser,
    Content:        content,
  }
  createdUser, cuErr := cs.messageRepo.Create(ctx, nil, []*types.Message{userMessage})
  if cuErr != nil {
    cs.log.Warn("Failed to persist user message, Cannot proceed. Returning error.", "error", cuErr)
    return nil, nil, fmt.Errorf("failed to persist user message: %w", cuErr)
  }
  userMessage = createdUser[0]
  cs.broadcastMessage(ctx, conversation, userMessage)

  //2) Gather knowledge matched against the new user message
  entries, kErr := cs.knowledgeRepo.GetByCharacterID(ctx, nil, character.ID)
  if kErr != nil {
    cs.log.Warn("Failed to fetch character knowledge, continuing without it", "error", kErr)
    entries = nil
  }
  matched := prompt.FilterKnowledge(content, entries)

  //3) Full history, which now includes the message persisted above
  history, hErr := cs.messageRepo.GetByConversationID(ctx, nil, conversation.ID)
  if hErr != nil {
    cs.log.Warn("Failed to load conversation history, falling back to the new message only", "error", hErr)
    history = []*types.Message{userMessage}
  }

  //4) Ask the model; a transport failure surfaces to the caller, the user
  //   turn above stays committed
  msgs := prompt.BuildConversationMessages(character, matched, history)
  reply, llmErr := cs.llmService.Complete(ctx, msgs)
  if errors.Is(llmErr, ErrEmptyCompletion) {
    cs.log.Warn("LLM completion carried no reply, storing fallback", "conversationID", conversation.ID)
    reply = ConversationFallbackReply
  } else if llmErr != nil {
    cs.log.Warn("LLM completion failed, Cannot proceed. Returning error.", "error", llmErr, "conversationID", conversation.ID)
    return userMessage, nil, fmt.Errorf("%w: %v", ErrUpstream, llmErr)
  }

  //5) Persist the character's reply
  assistantMessage := &types.Message{
    ConversationID: conversation.ID,
    Role:           types.MessageRoleAssistant,
    Content:        reply,
  }
  createdAssistant, caErr := cs.messageRepo.Create(ctx, nil, []*types.Message{assistantMessage})
  if caErr != nil {
    cs.log.Warn("Failed to persist assistant message, Cannot proceed. Returning error.", "error", caErr)
    return userMessage, nil, fmt.Errorf("failed to persist assistant message: %w", caErr)
  }
  assistantMessage = createdAssistant[0]
  cs.broadcastMessage(ctx, conversation, assistantMessage)

  cs.log.Info("Conversation turn completed :)", "conversationID", conversation.ID, "matchedKnowledge", len(matched))
  return userMessage, assistantMessage, nil
}

func (cs *conversationService) broadcastMessage(ctx context.Context, conversation *types.Conversation, message *types.Message) {
  if cs.hub == nil {
    return
  }
  cs.hub.BroadcastGlobal(ctx, socket.Message{
    Channel: fmt.Sprintf("conversation:%s", conversation.ID),
    Data:    message,
  })
}
