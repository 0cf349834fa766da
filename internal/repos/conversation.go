package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/castly-org/castly-backend/internal/logger"
    "github.com/castly-org/castly-backend/internal/types"
)

type ConversationRepo interface {
    Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error)
    GetByIDs(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) ([]*types.Conversation, error)
    GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error)
    FullDeleteByIDs(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) error
}

type conversationRepo struct {
    db      *gorm.DB
    log     *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
    return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (cvr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error) {
    if tx == nil {
        tx = cvr.db
    }
    if len(conversations) == 0 {
        return conversations, nil
    }
    for _, c := range conversations {
        if c.ID == uuid.Nil {
            c.ID = uuid.New()
        }
    }
    if err := tx.WithContext(ctx).Create(&conversations).Error; err != nil {
        cvr.log.Error("failed to create conversations", "error", err)
        return nil, err
    }
    return conversations, nil
}

func (cvr *conversationRepo) GetByIDs(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) ([]*types.Conversation, error) {
    if tx == nil {
        tx = cvr.db
    }
    var conversations []*types.Conversation
    if len(conversationIDs) == 0 {
        return conversations, nil
    }
    if err := tx.WithContext(ctx).
        Where("id IN ?", conversationIDs).
        Find(&conversations).Error; err != nil {
        cvr.log.Error("failed to get conversations by IDs", "error", err)
        return nil, err
    }
    return conversations, nil
}

func (cvr *conversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
    if tx == nil {
        tx = cvr.db
    }
    var conversations []*types.Conversation
    if err := tx.WithContext(ctx).
        Where("user_id = ?", userID).
        Order("created_at DESC").
        Find(&conversations).Error; err != nil {
        cvr.log.Error("failed to get conversations by user ID", "error", err)
        return nil, err
    }
    return conversations, nil
}

func (cvr *conversationRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) error {
    if tx == nil {
        tx = cvr.db
    }
    if len(conversationIDs) == 0 {
        return nil
    }
    if err := tx.WithContext(ctx).
        Unscoped().
        Where("id IN ?", conversationIDs).
        Delete(&types.Conversation{}).Error; err != nil {
        cvr.log.Error("failed to delete conversations", "error", err)
        return err
    }
    return nil
}
