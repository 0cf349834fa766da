package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/castly-org/castly-backend/internal/logger"
    "github.com/castly-org/castly-backend/internal/types"
)

type GroupMessageRepo interface {
    Create(ctx context.Context, tx *gorm.DB, msgs []*types.GroupChatMessage) ([]*types.GroupChatMessage, error)
    GetByGroupChatID(ctx context.Context, tx *gorm.DB, groupChatID uuid.UUID) ([]*types.GroupChatMessage, error)
}

type groupMessageRepo struct {
    db      *gorm.DB
    log     *logger.Logger
}

func NewGroupMessageRepo(db *gorm.DB, baseLog *logger.Logger) GroupMessageRepo {
    return &groupMessageRepo{db: db, log: baseLog.With("repo", "GroupMessageRepo")}
}

func (gmr *groupMessageRepo) Create(ctx context.Context, tx *gorm.DB, msgs []*types.GroupChatMessage) ([]*types.GroupChatMessage, error) {
    if tx == nil {
        tx = gmr.db
    }
    if len(msgs) == 0 {
        return msgs, nil
    }
    for _, m := range msgs {
        if m.ID == uuid.Nil {
            m.ID = uuid.New()
        }
    }
    if err := tx.WithContext(ctx).Create(&msgs).Error; err != nil {
        gmr.log.Error("failed to create group chat messages", "error", err)
        return nil, err
    }
    return msgs, nil
}

func (gmr *groupMessageRepo) GetByGroupChatID(ctx context.Context, tx *gorm.DB, groupChatID uuid.UUID) ([]*types.GroupChatMessage, error) {
    if tx == nil {
        tx = gmr.db
    }
    var msgs []*types.GroupChatMessage
    if err := tx.WithContext(ctx).
        Where("group_chat_id = ?", groupChatID).
        Order("created_at ASC").
        Find(&msgs).Error; err != nil {
        gmr.log.Error("failed to get group chat messages by group chat ID", "error", err)
        return nil, err
    }
    return msgs, nil
}
