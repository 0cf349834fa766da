package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/castly-org/castly-backend/internal/logger"
    "github.com/castly-org/castly-backend/internal/types"
)

type GroupChatRepo interface {
    Create(ctx context.Context, tx *gorm.DB, groupChats []*types.GroupChat) ([]*types.GroupChat, error)
    GetByIDs(ctx context.Context, tx *gorm.DB, groupChatIDs []uuid.UUID) ([]*types.GroupChat, error)
    GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GroupChat, error)
    FullDeleteByIDs(ctx context.Context, tx *gorm.DB, groupChatIDs []uuid.UUID) error
}

type groupChatRepo struct {
    db      *gorm.DB
    log     *logger.Logger
}

func NewGroupChatRepo(db *gorm.DB, baseLog *logger.Logger) GroupChatRepo {
    return &groupChatRepo{db: db, log: baseLog.With("repo", "GroupChatRepo")}
}

func (gcr *groupChatRepo) Create(ctx context.Context, tx *gorm.DB, groupChats []*types.GroupChat) ([]*types.GroupChat, error) {
    if tx == nil {
        tx = gcr.db
    }
    if len(groupChats) == 0 {
        return groupChats, nil
    }
    for _, gc := range groupChats {
        if gc.ID == uuid.Nil {
            gc.ID = uuid.New()
        }
    }
    if err := tx.WithContext(ctx).Create(&groupChats).Error; err != nil {
        gcr.log.Error("failed to create group chats", "error", err)
        return nil, err
    }
    return groupChats, nil
}

func (gcr *groupChatRepo) GetByIDs(ctx context.Context, tx *gorm.DB, groupChatIDs []uuid.UUID) ([]*types.GroupChat, error) {
    if tx == nil {
        tx = gcr.db
    }
    var groupChats []*types.GroupChat
    if len(groupChatIDs) == 0 {
        return groupChats, nil
    }
    if err := tx.WithContext(ctx).
        Where("id IN ?", groupChatIDs).
        Find(&groupChats).Error; err != nil {
        gcr.log.Error("failed to get group chats by IDs", "error", err)
        return nil, err
    }
    return groupChats, nil
}

func (gcr *groupChatRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GroupChat, error) {
    if tx == nil {
        tx = gcr.db
    }
    var groupChats []*types.GroupChat
    if err := tx.WithContext(ctx).
        Where("user_id = ?", userID).
        Order("created_at DESC").
        Find(&groupChats).Error; err != nil {
        gcr.log.Error("failed to get group chats by user ID", "error", err)
        return nil, err
    }
    return groupChats, nil
}

func (gcr *groupChatRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, groupChatIDs []uuid.UUID) error {
    if tx == nil {
        tx = gcr.db
    }
    if len(groupChatIDs) == 0 {
        return nil
    }
    if err := tx.WithContext(ctx).
        Unscoped().
        Where("id IN ?", groupChatIDs).
        Delete(&types.GroupChat{}).Error; err != nil {
        gcr.log.Error("failed to delete group chats", "error", err)
        return err
    }
    return nil
}
