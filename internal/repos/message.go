package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/castly-org/castly-backend/internal/logger"
    "github.com/castly-org/castly-backend/internal/types"
)

type MessageRepo interface {
    Create(ctx context.Context, tx *gorm.DB, msgs []*types.Message) ([]*types.Message, error)
    GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error)
}

type messageRepo struct {
    db      *gorm.DB
    log     *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
    return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (mr *messageRepo) Create(ctx context.Context, tx *gorm.DB, msgs []*types.Message) ([]*types.Message, error) {
    if tx == nil {
        tx = mr.db
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
        mr.log.Error("failed to create messages", "error", err)
        return nil, err
    }
    return msgs, nil
}

func (mr *messageRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
    if tx == nil {
        tx = mr.db
    }
    var msgs []*types.Message
    if err := tx.WithContext(ctx).
        Where("conversation_id = ?", conversationID).
        Order("created_at ASC").
        Find(&msgs).Error; err != nil {
        mr.log.Error("failed to get messages by conversation ID", "error", err)
        return nil, err
    }
    return msgs, nil
}
