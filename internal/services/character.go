package services

import (
  "context"
  "fmt"

  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/google/uuid"

  "github.com/castly-org/castly-backend/internal/logger"
  "github.com/castly-org/castly-backend/internal/normalization"
  "github.com/castly-org/castly-backend/internal/repos"
  "github.com/castly-org/castly-backend/internal/requestdata"
  "github.com/castly-org/castly-backend/internal/types"
)

// CharacterUpdate carries the mutable character fields. Nil pointers leave
// the stored value untouched.
type CharacterUpdate struct {
  Name            *string
  Description     *string
  SystemPrompt    *string
  IsPublic        *bool
}

type CharacterService interface {
  CreateCharacter(ctx context.Context, name, description, systemPrompt string, isPublic bool) (*types.Character, error)
  ListCharacters(ctx context.Context) ([]*types.Character, error)
  GetCharacter(ctx context.Context, characterID uuid.UUID) (*types.Character, error)
  UpdateCharacter(ctx context.Context, characterID uuid.UUID, update CharacterUpdate) (*types.Character, error)
  DeleteCharacter(ctx context.Context, characterID uuid.UUID) error

  AddKnowledge(ctx context.Context, characterID uuid.UUID, title, content string, metadata datatypes.JSON) (*types.CharacterKnowledge, error)
  ListKnowledge(ctx context.Context, characterID uuid.UUID) ([]*types.CharacterKnowledge, error)
  DeleteKnowledge(ctx context.Context, characterID, knowledgeID uuid.UUID) error

  // GetVisibleCharacter resolves a character the caller may read: their own
  // or a public one. Services that assemble prompts share this rule.
  GetVisibleCharacter(ctx context.Context, tx *gorm.DB, userID, characterID uuid.UUID) (*types.Character, error)
}

type characterService struct {
  db              *gorm.DB
  log             *logger.Logger
  characterRepo   repos.CharacterRepo
  knowledgeRepo   repos.KnowledgeRepo
  avatarService   AvatarService
}

func NewCharacterService(
  db              *gorm.DB,
  log             *logger.Logger,
  characterRepo   repos.CharacterRepo,
  knowledgeRepo   repos.KnowledgeRepo,
  avatarService   AvatarService,
) CharacterService {
  serviceLog := log.With("service", "CharacterService")
  return &characterService{
    db:             db,
    log:            serviceLog,
    characterRepo:  characterRepo,
    knowledgeRepo:  knowledgeRepo,
    avatarService:  avatarService,
  }
}

func (cs *characterService) CreateCharacter(ctx context.Context, name, description, systemPrompt string, isPublic bool) (*types.Character, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  name = normalization.ParseInputString(name)
  description = normalization.ParseInputString(description)
  if name == "" {
    return nil, fmt.Errorf("%w: character name is required", ErrValidation)
  }
  if systemPrompt == "" {
    return nil, fmt.Errorf("%w: character system prompt is required", ErrValidation)
  }
  character := &types.Character{
    UserID:        rd.UserID,
    Name:          name,
    Description:   description,
    SystemPrompt:  systemPrompt,
    IsPublic:      isPublic,
  }
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    character.ID = uuid.New()
    if aErr := cs.avatarService.CreateAndUploadCharacterAvatar(ctx, tx, character); aErr != nil {
      cs.log.Warn("Failure to create and upload character avatar, Cannot proceed. Returning error.", "error", aErr)
      return fmt.Errorf("Failure to create and upload character avatar: %w", aErr)
    }
    created, cErr := cs.characterRepo.Create(ctx, tx, []*types.Character{character})
    if cErr != nil {
      cs.log.Warn("Failed to create character, Cannot proceed. Returning error.", "error", cErr)
      return fmt.Errorf("Failure to create character: %w", cErr)
    }
    if len(created) == 0 {
      return fmt.Errorf("Failure to create character in DB")
    }
    character = created[0]
    return nil
  })
  if err != nil {
    return nil, err
  }
  cs.log.Info("Character created :)", "characterID", character.ID, "name", character.Name)
  return character, nil
}

func (cs *characterService) ListCharacters(ctx context.Context) ([]*types.Character, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  own, oErr := cs.characterRepo.GetByUserID(ctx, nil, rd.UserID)
  if oErr != nil {
    cs.log.Warn("Failed to fetch own characters, Cannot proceed. Returning error.", "error", oErr)
    return nil, fmt.Errorf("failed to fetch characters: %w", oErr)
  }
  public, pErr := cs.characterRepo.GetPublic(ctx, nil)
  if pErr != nil {
    cs.log.Warn("Failed to fetch public characters, Cannot proceed. Returning error.", "error", pErr)
    return nil, fmt.Errorf("failed to fetch public characters: %w", pErr)
  }
  seen := make(map[uuid.UUID]bool, len(own))
  out := make([]*types.Character, 0, len(own)+len(public))
  for _, c := range own {
    seen[c.ID] = true
    out = append(out, c)
  }
  for _, c := range public {
    if !seen[c.ID] {
      out = append(out, c)
    }
  }
  return out, nil
}

func (cs *characterService) GetCharacter(ctx context.Context, characterID uuid.UUID) (*types.Character, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  return cs.GetVisibleCharacter(ctx, nil, rd.UserID, characterID)
}

// GetVisibleCharacter deliberately returns ErrNotFound for characters the
// caller cannot read, so private characters are indistinguishable from
// missing ones.
func (cs *characterService) GetVisibleCharacter(ctx context.Context, tx *gorm.DB, userID, characterID uuid.UUID) (*types.Character, error) {
  characters, err := cs.characterRepo.GetByIDs(ctx, tx, []uuid.UUID{characterID})
  if err != nil {
    cs.log.Warn("Failed to fetch character by id, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to fetch character: %w", err)
  }
  if len(characters) == 0 {
    return nil, fmt.Errorf("%w: character not found", ErrNotFound)
  }
  character := characters[0]
  if character.UserID != userID && !character.IsPublic {
    return nil, fmt.Errorf("%w: character not found", ErrNotFound)
  }
  return character, nil
}

func (cs *characterService) getOwnedCharacter(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) (*types.Character, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  characters, err := cs.characterRepo.GetByIDs(ctx, tx, []uuid.UUID{characterID})
  if err != nil {
    cs.log.Warn("Failed to fetch character by id, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to fetch character: %w", err)
  }
  if len(characters) == 0 || characters[0].UserID != rd.UserID {
    return nil, fmt.Errorf("%w: character not found", ErrNotFound)
  }
  return characters[0], nil
}

func (cs *characterService) UpdateCharacter(ctx context.Context, characterID uuid.UUID, update CharacterUpdate) (*types.Character, error) {
  character, err := cs.getOwnedCharacter(ctx, nil, characterID)
  if err != nil {
    return nil, err
  }
  if update.Name != nil {
    name := normalization.ParseInputString(*update.Name)
    if name == "" {
      return nil, fmt.Errorf("%w: character name cannot be empty", ErrValidation)
    }
    character.Name = name
  }
  if update.Description != nil {
    character.Description = normalization.ParseInputString(*update.Description)
  }
  if update.SystemPrompt != nil {
    if *update.SystemPrompt == "" {
      return nil, fmt.Errorf("%w: character system prompt cannot be empty", ErrValidation)
    }
    character.SystemPrompt = *update.SystemPrompt
  }
  if update.IsPublic != nil {
    character.IsPublic = *update.IsPublic
  }
  updated, uErr := cs.characterRepo.Update(ctx, nil, []*types.Character{character})
  if uErr != nil {
    cs.log.Warn("Failed to update character, Cannot proceed. Returning error.", "error", uErr)
    return nil, fmt.Errorf("failed to update character: %w", uErr)
  }
  if len(updated) == 0 {
    return nil, fmt.Errorf("failed to update character in DB")
  }
  cs.log.Info("Character updated :)", "characterID", characterID)
  return updated[0], nil
}

func (cs *characterService) DeleteCharacter(ctx context.Context, characterID uuid.UUID) error {
  if _, err := cs.getOwnedCharacter(ctx, nil, characterID); err != nil {
    return err
  }
  return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if dErr := cs.characterRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{characterID}); dErr != nil {
      cs.log.Warn("Failed to delete character, Cannot proceed. Returning error.", "error", dErr)
      return fmt.Errorf("failed to delete character: %w", dErr)
    }
    cs.log.Info("Character deleted", "characterID", characterID)
    return nil
  })
}

func (cs *characterService) AddKnowledge(ctx context.Context, characterID uuid.UUID, title, content string, metadata datatypes.JSON) (*types.CharacterKnowledge, error) {
  if _, err := cs.getOwnedCharacter(ctx, nil, characterID); err != nil {
    return nil, err
  }
  title = normalization.ParseInputString(title)
  if title == "" {
    return nil, fmt.Errorf("%w: knowledge title is required", ErrValidation)
  }
  if content == "" {
    return nil, fmt.Errorf("%w: knowledge content is required", ErrValidation)
  }
  entry := &types.CharacterKnowledge{
    CharacterID:  characterID,
    Title:        title,
    Content:      content,
    Metadata:     metadata,
  }
  created, cErr := cs.knowledgeRepo.Create(ctx, nil, []*types.CharacterKnowledge{entry})
  if cErr != nil {
    cs.log.Warn("Failed to create knowledge entry, Cannot proceed. Returning error.", "error", cErr)
    return nil, fmt.Errorf("failed to create knowledge entry: %w", cErr)
  }
  if len(created) == 0 {
    return nil, fmt.Errorf("failed to create knowledge entry in DB")
  }
  cs.log.Info("Knowledge entry added :)", "characterID", characterID, "title", title)
  return created[0], nil
}

func (cs *characterService) ListKnowledge(ctx context.Context, characterID uuid.UUID) ([]*types.CharacterKnowledge, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  if _, err := cs.GetVisibleCharacter(ctx, nil, rd.UserID, characterID); err != nil {
    return nil, err
  }
  entries, err := cs.knowledgeRepo.GetByCharacterID(ctx, nil, characterID)
  if err != nil {
    cs.log.Warn("Failed to list knowledge entries, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to list knowledge entries: %w", err)
  }
  return entries, nil
}

func (cs *characterService) DeleteKnowledge(ctx context.Context, characterID, knowledgeID uuid.UUID) error {
  if _, err := cs.getOwnedCharacter(ctx, nil, characterID); err != nil {
    return err
  }
  entries, gErr := cs.knowledgeRepo.GetByIDs(ctx, nil, []uuid.UUID{knowledgeID})
  if gErr != nil {
    cs.log.Warn("Failed to fetch knowledge entry, Cannot proceed. Returning error.", "error", gErr)
    return fmt.Errorf("failed to fetch knowledge entry: %w", gErr)
  }
  if len(entries) == 0 || entries[0].CharacterID != characterID {
    return fmt.Errorf("%w: knowledge entry not found", ErrNotFound)
  }
  if dErr := cs.knowledgeRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{knowledgeID}); dErr != nil {
    cs.log.Warn("Failed to delete knowledge entry, Cannot proceed. Returning error.", "error", dErr)
    return fmt.Errorf("failed to delete knowledge entry: %w", dErr)
  }
  cs.log.Info("Knowledge entry deleted", "characterID", characterID, "knowledgeID", knowledgeID)
  return nil
}
