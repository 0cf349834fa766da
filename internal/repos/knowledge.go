package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/castly-org/castly-backend/internal/logger"
    "github.com/castly-org/castly-backend/internal/types"
)

type KnowledgeRepo interface {
    Create(ctx context.Context, tx *gorm.DB, entries []*types.CharacterKnowledge) ([]*types.CharacterKnowledge, error)
    GetByIDs(ctx context.Context, tx *gorm.DB, entryIDs []uuid.UUID) ([]*types.CharacterKnowledge, error)
    GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.CharacterKnowledge, error)
    FullDeleteByIDs(ctx context.Context, tx *gorm.DB, entryIDs []uuid.UUID) error
}

type knowledgeRepo struct {
    db      *gorm.DB
    log     *logger.Logger
}

func NewKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeRepo {
    return &knowledgeRepo{db: db, log: baseLog.With("repo", "KnowledgeRepo")}
}

func (kr *knowledgeRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.CharacterKnowledge) ([]*types.CharacterKnowledge, error) {
    if tx == nil {
        tx = kr.db
    }
    if len(entries) == 0 {
        return entries, nil
    }
    for _, e := range entries {
        if e.ID == uuid.Nil {
            e.ID = uuid.New()
        }
    }
    if err := tx.WithContext(ctx).Create(&entries).Error; err != nil {
        kr.log.Error("failed to create knowledge entries", "error", err)
        return nil, err
    }
    return entries, nil
}

func (kr *knowledgeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, entryIDs []uuid.UUID) ([]*types.CharacterKnowledge, error) {
    if tx == nil {
        tx = kr.db
    }
    var entries []*types.CharacterKnowledge
    if len(entryIDs) == 0 {
        return entries, nil
    }
    if err := tx.WithContext(ctx).
        Where("id IN ?", entryIDs).
        Find(&entries).Error; err != nil {
        kr.log.Error("failed to get knowledge entries by IDs", "error", err)
        return nil, err
    }
    return entries, nil
}

// GetByCharacterID returns entries in storage order; the relevance filter
// depends on that order being stable.
func (kr *knowledgeRepo) GetByCharacterID(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.CharacterKnowledge, error) {
    if tx == nil {
        tx = kr.db
    }
    var entries []*types.CharacterKnowledge
    if err := tx.WithContext(ctx).
        Where("character_id = ?", characterID).
        Order("created_at ASC").
        Find(&entries).Error; err != nil {
        kr.log.Error("failed to get knowledge entries by character ID", "error", err)
        return nil, err
    }
    return entries, nil
}

func (kr *knowledgeRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, entryIDs []uuid.UUID) error {
    if tx == nil {
        tx = kr.db
    }
    if len(entryIDs) == 0 {
        return nil
    }
    if err := tx.WithContext(ctx).
        Unscoped().
        Where("id IN ?", entryIDs).
        Delete(&types.CharacterKnowledge{}).Error; err != nil {
        kr.log.Error("failed to delete knowledge entries", "error", err)
        return err
    }
    return nil
}
