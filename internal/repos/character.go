package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/castly-org/castly-backend/internal/logger"
    "github.com/castly-org/castly-backend/internal/types"
)

type CharacterRepo interface {
    Create(ctx context.Context, tx *gorm.DB, characters []*types.Character) ([]*types.Character, error)
    GetByIDs(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID) ([]*types.Character, error)
    GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Character, error)
    GetPublic(ctx context.Context, tx *gorm.DB) ([]*types.Character, error)
    Update(ctx context.Context, tx *gorm.DB, characters []*types.Character) ([]*types.Character, error)
    FullDeleteByIDs(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID) error
}

type characterRepo struct {
    db      *gorm.DB
    log     *logger.Logger
}

func NewCharacterRepo(db *gorm.DB, baseLog *logger.Logger) CharacterRepo {
    return &characterRepo{db: db, log: baseLog.With("repo", "CharacterRepo")}
}

func (cr *characterRepo) Create(ctx context.Context, tx *gorm.DB, characters []*types.Character) ([]*types.Character, error) {
    if tx == nil {
        tx = cr.db
    }
    if len(characters) == 0 {
        return characters, nil
    }
    for _, c := range characters {
        if c.ID == uuid.Nil {
            c.ID = uuid.New()
        }
    }
    if err := tx.WithContext(ctx).Create(&characters).Error; err != nil {
        cr.log.Error("failed to create characters", "error", err)
        return nil, err
    }
    return characters, nil
}

func (cr *characterRepo) GetByIDs(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID) ([]*types.Character, error) {
    if tx == nil {
        tx = cr.db
    }
    var characters []*types.Character
    if len(characterIDs) == 0 {
        return characters, nil
    }
    if err := tx.WithContext(ctx).
        Where("id IN ?", characterIDs).
        Find(&characters).Error; err != nil {
        cr.log.Error("failed to get characters by IDs", "error", err)
        return nil, err
    }
    return characters, nil
}

func (cr *characterRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Character, error) {
    if tx == nil {
        tx = cr.db
    }
    var characters []*types.Character
    if err := tx.WithContext(ctx).
        Where("user_id = ?", userID).
        Order("created_at ASC").
        Find(&characters).Error; err != nil {
        cr.log.Error("failed to get characters by user ID", "error", err)
        return nil, err
    }
    return characters, nil
}

func (cr *characterRepo) GetPublic(ctx context.Context, tx *gorm.DB) ([]*types.Character, error) {
    if tx == nil {
        tx = cr.db
    }
    var characters []*types.Character
    if err := tx.WithContext(ctx).
        Where("is_public = ?", true).
        Order("created_at ASC").
        Find(&characters).Error; err != nil {
        cr.log.Error("failed to get public characters", "error", err)
        return nil, err
    }
    return characters, nil
}

func (cr *characterRepo) Update(ctx context.Context, tx *gorm.DB, characters []*types.Character) ([]*types.Character, error) {
    if tx == nil {
        tx = cr.db
    }
    if len(characters) == 0 {
        return characters, nil
    }
    for _, c := range characters {
        if err := tx.WithContext(ctx).Save(c).Error; err != nil {
            cr.log.Error("failed to update character", "characterID", c.ID, "error", err)
            return nil, err
        }
    }
    return characters, nil
}

func (cr *characterRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID) error {
    if tx == nil {
        tx = cr.db
    }
    if len(characterIDs) == 0 {
        return nil
    }
    if err := tx.WithContext(ctx).
        Unscoped().
        Where("id IN ?", characterIDs).
        Delete(&types.Character{}).Error; err != nil {
        cr.log.Error("failed to delete characters", "error", err)
        return err
    }
    return nil
}
